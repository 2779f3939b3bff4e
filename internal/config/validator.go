package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationError is a single invalid setting.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every invalid setting.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the accepted logging.level values.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "warning", "error"}
}

// NormalizeLogLevel trims and lower-cases a logging.level value.
func NormalizeLogLevel(level string) string {
	return strings.ToLower(strings.TrimSpace(level))
}

// ValidLatePolicies returns the accepted form.late_policy values.
func ValidLatePolicies() []string {
	return []string{"discard", "overwrite"}
}

// Validate returns every problem found, or nil.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	u, err := url.Parse(c.Server.URL)
	switch {
	case c.Server.URL == "":
		errs = append(errs, ValidationError{"server.url", c.Server.URL, "must not be empty"})
	case err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
		errs = append(errs, ValidationError{"server.url", c.Server.URL, "must be an absolute http or https URL"})
	}
	if c.Server.TimeoutMs <= 0 {
		errs = append(errs, ValidationError{"server.timeout_ms", c.Server.TimeoutMs, "must be positive"})
	}
	if c.Session.DBPath == "" {
		errs = append(errs, ValidationError{"session.db_path", c.Session.DBPath, "must not be empty"})
	}
	if !slices.Contains(ValidLogLevels(), NormalizeLogLevel(c.Logging.Level)) {
		errs = append(errs, ValidationError{"logging.level", c.Logging.Level,
			"must be one of " + strings.Join(ValidLogLevels(), ", ")})
	}
	if c.Logging.Enabled && c.Logging.File == "" {
		errs = append(errs, ValidationError{"logging.file", c.Logging.File, "required when logging is enabled"})
	}
	if !slices.Contains(ValidLatePolicies(), strings.ToLower(c.Form.LatePolicy)) {
		errs = append(errs, ValidationError{"form.late_policy", c.Form.LatePolicy,
			"must be one of " + strings.Join(ValidLatePolicies(), ", ")})
	}
	if c.Form.NotifyMs <= 0 {
		errs = append(errs, ValidationError{"form.notify_ms", c.Form.NotifyMs, "must be positive"})
	}
	return errs
}
