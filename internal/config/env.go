package config

import (
	"fmt"
	"os"
)

// envOverrides maps environment variables to config field setters.
var envOverrides = []struct {
	envVar string
	apply  func(*Config, string)
}{
	{
		envVar: "MEND_AGENT_CMD",
		apply: func(c *Config, v string) {
			c.Agent.Command = v
		},
	},
	{
		envVar: "MEND_TICKETS_FILE",
		apply: func(c *Config, v string) {
			c.Tickets.File = v
		},
	},
	{
		envVar: "MEND_LOG_LEVEL",
		apply: func(c *Config, v string) {
			c.LogLevel = v
		},
	},
}

// applyEnvOverrides modifies config in place with environment variable values.
func applyEnvOverrides(cfg *Config) {
	for _, override := range envOverrides {
		if val := os.Getenv(override.envVar); val != "" {
			override.apply(cfg, val)
		}
	}
}

// GitHubToken returns the token used for PR creation.
// Checked before the unit loop starts in PR mode: a missing token is a
// configuration error and the run never begins.
func GitHubToken() (string, error) {
	for _, name := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("no GitHub token found: set GITHUB_TOKEN or GH_TOKEN")
}
