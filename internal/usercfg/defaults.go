package usercfg

import "time"

const (
	DefaultServerURL      = "http://localhost:8080/api"
	DefaultListenAddr     = ":8080"
	DefaultPollInterval   = 10 * time.Second
	DefaultRequestTimeout = 10 * time.Second
)

func getDefaults() Config {
	t := true
	return Config{
		SchemaVersion:  CurrentSchemaVersion,
		ServerURL:      DefaultServerURL,
		ListenAddr:     DefaultListenAddr,
		PollInterval:   DefaultPollInterval.String(),
		RequestTimeout: DefaultRequestTimeout.String(),
		Seed:           &t,
	}
}

// Keys lists the settings `kanban config get/set` understand.
func Keys() []string {
	return []string{"server_url", "listen_addr", "username", "poll_interval", "request_timeout", "seed"}
}

// Get returns one setting as text.
func (c Config) Get(key string) (string, bool) {
	switch key {
	case "server_url":
		return c.ServerURL, true
	case "listen_addr":
		return c.ListenAddr, true
	case "username":
		return c.Username, true
	case "poll_interval":
		return c.PollInterval, true
	case "request_timeout":
		return c.RequestTimeout, true
	case "seed":
		if c.SeedEnabled() {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}

// Set changes one setting from text.
func (c *Config) Set(key, value string) bool {
	switch key {
	case "server_url":
		c.ServerURL = value
	case "listen_addr":
		c.ListenAddr = value
	case "username":
		c.Username = value
	case "poll_interval":
		c.PollInterval = value
	case "request_timeout":
		c.RequestTimeout = value
	case "seed":
		b := value == "true" || value == "1" || value == "yes"
		c.Seed = &b
	default:
		return false
	}
	return true
}
