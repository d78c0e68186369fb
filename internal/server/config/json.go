package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/kachery/gateway/internal/flagx"
	"github.com/kachery/gateway/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "5s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its non-empty fields are copied
// into the runtime Config struct.
type JsonConfig struct {
	HTTPAddr            string         `json:"http_addr"`
	DatabaseDSN         string         `json:"database_dsn"`
	GitHubAPIBase       string         `json:"github_api_base"`
	AdminUserIDs        []string       `json:"admin_user_ids"`
	ScratchZone         string         `json:"scratch_zone"`
	WorkTokenDifficulty int            `json:"work_token_difficulty"`
	ShutdownTimeout     timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path is taken from the -c or -config command-line flags; if
// neither is set, no JSON file is loaded. Only fields present in the file
// override the existing values. If the file cannot be read or contains
// invalid JSON, the function panics.
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

	if c.HTTPAddr != "" {
		config.HTTPAddr = c.HTTPAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.GitHubAPIBase != "" {
		config.GitHubAPIBase = c.GitHubAPIBase
	}
	if c.AdminUserIDs != nil {
		config.AdminUserIDs = c.AdminUserIDs
	}
	if c.ScratchZone != "" {
		config.ScratchZone = c.ScratchZone
	}
	if c.WorkTokenDifficulty != 0 {
		config.WorkTokenDifficulty = c.WorkTokenDifficulty
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = time.Duration(c.ShutdownTimeout.Duration)
	}
}
