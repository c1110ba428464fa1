package config

import (
	"errors"
	"fmt"
)

// ValidationError contains details about what failed validation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config.%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// validateConfig checks all config values for validity.
// Returns nil if valid, or joined errors for all validation failures.
func validateConfig(cfg *Config) error {
	var errs []error

	if cfg.Fix.MaxBatchSize < 1 {
		errs = append(errs, &ValidationError{
			Field:   "fix.max_batch_size",
			Value:   cfg.Fix.MaxBatchSize,
			Message: "must be at least 1",
		})
	}

	switch cfg.Fix.GroupBy {
	case GroupByDirectory, GroupByFlat:
	default:
		errs = append(errs, &ValidationError{
			Field:   "fix.group_by",
			Value:   cfg.Fix.GroupBy,
			Message: "must be 'directory' or 'flat'",
		})
	}

	if cfg.Agent.Command == "" {
		errs = append(errs, &ValidationError{
			Field:   "agent.command",
			Value:   cfg.Agent.Command,
			Message: "must not be empty",
		})
	}

	if cfg.Agent.MaxTurns < 0 {
		errs = append(errs, &ValidationError{
			Field:   "agent.max_turns",
			Value:   cfg.Agent.MaxTurns,
			Message: "must be non-negative (0 = unlimited)",
		})
	}

	if cfg.Tickets.File == "" {
		errs = append(errs, &ValidationError{
			Field:   "tickets.file",
			Value:   cfg.Tickets.File,
			Message: "must not be empty",
		})
	}

	for i, check := range cfg.Checks.Narrow {
		if check.Command == "" {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("checks.narrow[%d].command", i),
				Value:   check.Command,
				Message: "must not be empty",
			})
		}
	}
	for i, check := range cfg.Checks.Comprehensive {
		if check.Command == "" {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("checks.comprehensive[%d].command", i),
				Value:   check.Command,
				Message: "must not be empty",
			})
		}
	}

	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, &ValidationError{
			Field:   "log_level",
			Value:   cfg.LogLevel,
			Message: "must be one of: debug, info, warn, error",
		})
	}

	return errors.Join(errs...)
}
