package config

import (
	"encoding/json"
	"os"

	"github.com/kachery/gateway/internal/flagx"
)

// JsonConfig is the intermediate DTO used only for reading JSON
// configuration files. Non-empty fields are copied into the runtime Config.
type JsonConfig struct {
	GatewayURL string `json:"gateway_url"`
	APIKey     string `json:"api_key"`
	Zone       string `json:"zone"`
	IndexDSN   string `json:"index_dsn"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flags, if any. Invalid files panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.GatewayURL != "" {
		config.GatewayURL = c.GatewayURL
	}
	if c.APIKey != "" {
		config.APIKey = c.APIKey
	}
	if c.Zone != "" {
		config.Zone = c.Zone
	}
	if c.IndexDSN != "" {
		config.IndexDSN = c.IndexDSN
	}
}
