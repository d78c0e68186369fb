package config

import (
	"flag"
	"os"

	"github.com/kachery/gateway/internal/flagx"
)

// parseFlags populates selected CLI Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-u string   base URL of the gateway API
//	-k string   user API key
//	-z string   zone name
//	-i string   local index database path
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-u", "-k", "-z", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.GatewayURL, "u", config.GatewayURL, "gateway API base URL")
	fs.StringVar(&config.APIKey, "k", config.APIKey, "user API key")
	fs.StringVar(&config.Zone, "z", config.Zone, "zone name")
	fs.StringVar(&config.IndexDSN, "i", config.IndexDSN, "local index database path")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
