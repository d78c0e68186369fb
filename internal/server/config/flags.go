package config

import (
	"flag"
	"os"
	"strings"

	"github.com/kachery/gateway/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-g string   GitHub API base URL
//	-m string   comma-separated site admin user ids
//	-z string   scratch zone name
//	-w int      work token difficulty (leading zero bits)
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes
//     using flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-g", "-m", "-z", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.GitHubAPIBase, "g", config.GitHubAPIBase, "GitHub API base URL")

	admins := fs.String("m", strings.Join(config.AdminUserIDs, ","), "comma-separated admin user ids")

	fs.StringVar(&config.ScratchZone, "z", config.ScratchZone, "scratch zone name")
	fs.IntVar(&config.WorkTokenDifficulty, "w", config.WorkTokenDifficulty, "work token difficulty")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if *admins == "" {
		config.AdminUserIDs = nil
	} else {
		config.AdminUserIDs = strings.Split(*admins, ",")
	}
}
