package config

// Config holds runtime settings for the gateway CLI.
//
// Fields:
//   - GatewayURL: base URL of the gateway API.
//   - APIKey: user API credential; empty means anonymous.
//   - Zone: zone to store into and load from.
//   - IndexDSN: path of the local SQLite index database.
type Config struct {
	GatewayURL string
	APIKey     string
	Zone       string
	IndexDSN   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.GatewayURL = "http://127.0.0.1:8080"
	c.APIKey = ""
	c.Zone = "scratch"
	c.IndexDSN = "kachery-index.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
