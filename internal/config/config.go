package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GroupBy selects how discovered files are grouped into batches.
type GroupBy string

const (
	// GroupByDirectory co-locates files by top-level directory per batch
	GroupByDirectory GroupBy = "directory"

	// GroupByFlat chunks files in discovery order
	GroupByFlat GroupBy = "flat"
)

// Config holds all configuration for mend.
// It is immutable after creation via LoadConfig().
type Config struct {
	// BaseBranch is the branch new work branches fork from.
	// Empty means "whatever branch is current at invocation time".
	BaseBranch string `yaml:"base_branch"`

	// GitHub contains repository identification
	GitHub GitHubConfig `yaml:"github"`

	// Agent contains agent CLI settings
	Agent AgentConfig `yaml:"agent"`

	// Fix contains quality-fix pipeline settings
	Fix FixConfig `yaml:"fix"`

	// Tickets contains ticket workflow settings
	Tickets TicketsConfig `yaml:"tickets"`

	// Checks are the validation commands gating each unit
	Checks ChecksConfig `yaml:"checks"`

	// LogLevel controls event log verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`
}

// GitHubConfig identifies the GitHub repository.
// Values of "auto" trigger detection from the git remote.
type GitHubConfig struct {
	// Owner is the GitHub organization or user
	Owner string `yaml:"owner"`

	// Repo is the repository name
	Repo string `yaml:"repo"`
}

// AgentConfig controls agent CLI invocation.
type AgentConfig struct {
	// Command is the path or name of the agent CLI binary
	Command string `yaml:"command"`

	// MaxTurns limits the agent's interaction loop per unit (0 = unlimited)
	MaxTurns int `yaml:"max_turns"`
}

// FixConfig controls the quality-fix pipeline.
type FixConfig struct {
	// MaxBatchSize is the maximum number of files per batch
	MaxBatchSize int `yaml:"max_batch_size"`

	// GroupBy is "directory" or "flat"
	GroupBy GroupBy `yaml:"group_by"`

	// Include restricts discovery to files matching at least one
	// pattern (gitignore syntax). Empty means all files.
	Include []string `yaml:"include"`

	// Exclude removes files from discovery after includes apply
	// (gitignore syntax), on top of the ignore file.
	Exclude []string `yaml:"exclude"`

	// Types filters discovered files by extension (no leading dot)
	Types []string `yaml:"types"`

	// IgnoreFile is the path to an ignore-pattern file, relative to the
	// repo root (gitignore syntax). Missing file is not an error.
	IgnoreFile string `yaml:"ignore_file"`
}

// TicketsConfig controls the ticket build/ship workflows.
type TicketsConfig struct {
	// File is the path to the ticket JSON document, relative to repo root
	File string `yaml:"file"`
}

// CheckCommand is a single validation command.
type CheckCommand struct {
	// Name identifies the check in reports
	Name string `yaml:"name"`

	// Command is the shell command to execute
	Command string `yaml:"command"`
}

// ChecksConfig holds the validation gate suites.
type ChecksConfig struct {
	// Narrow are the per-unit checks run after every transformation
	Narrow []CheckCommand `yaml:"narrow"`

	// Comprehensive is the superset run at workflow boundaries.
	// Empty means "same as narrow".
	Comprehensive []CheckCommand `yaml:"comprehensive"`
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			Owner: "auto",
			Repo:  "auto",
		},
		Agent: AgentConfig{
			Command:  "claude",
			MaxTurns: 30,
		},
		Fix: FixConfig{
			MaxBatchSize: 8,
			GroupBy:      GroupByDirectory,
			IgnoreFile:   ".mendignore",
		},
		Tickets: TicketsConfig{
			File: "tickets.json",
		},
		Checks: ChecksConfig{
			Narrow: []CheckCommand{
				{Name: "lint", Command: "npm run lint"},
				{Name: "typecheck", Command: "npm run typecheck"},
			},
		},
		LogLevel: "info",
	}
}

// ConfigFileName is the optional per-repo config file.
const ConfigFileName = ".mend.yml"

// LoadConfig reads configuration for the given repository root.
// Missing config file is not an error; defaults apply.
func LoadConfig(repoRoot string) (*Config, error) {
	cfg := DefaultConfig()

	configPath := filepath.Join(repoRoot, ConfigFileName)
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// ResolveGitHub fills in "auto" owner/repo from the git remote.
// Only needed for PR mode; local-only runs never call it.
func (c *Config) ResolveGitHub(repoRoot string) error {
	if c.GitHub.Owner != "auto" && c.GitHub.Repo != "auto" {
		return nil
	}
	owner, repo, err := detectGitHubRepo(repoRoot)
	if err != nil {
		return fmt.Errorf("auto-detect github: %w", err)
	}
	if c.GitHub.Owner == "auto" {
		c.GitHub.Owner = owner
	}
	if c.GitHub.Repo == "auto" {
		c.GitHub.Repo = repo
	}
	return nil
}
