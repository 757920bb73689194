package config

import (
	"fmt"
	"strings"
)

// Kinds of ConfigurationError.
const (
	ErrorTypeIO    = "io"
	ErrorTypeParse = "parse"
	ErrorTypeToken = "token"
)

// ConfigurationError is returned when the configuration cannot be loaded at
// all, as opposed to ValidationErrors for a loaded but unusable one.
type ConfigurationError struct {
	FilePath    string   `json:"filePath"`
	ErrorType   string   `json:"errorType"`
	Message     string   `json:"message"`
	Details     string   `json:"details"`
	LineNumber  int      `json:"lineNumber"` // 0 when unknown
	Suggestions []string `json:"suggestions"`
	Err         error    `json:"-"`
}

func NewConfigurationError(filePath, errorType, message string, err error) *ConfigurationError {
	return &ConfigurationError{FilePath: filePath, ErrorType: errorType, Message: message, Err: err}
}

func (ce *ConfigurationError) Error() string {
	where := ""
	if ce.FilePath != "" {
		where = " in " + ce.FilePath
	}
	return fmt.Sprintf("configuration %s error%s: %s", ce.ErrorType, where, ce.Message)
}

func (ce *ConfigurationError) Unwrap() error {
	return ce.Err
}

// DetailedError renders the error over several lines for the terminal.
func (ce *ConfigurationError) DetailedError() string {
	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("Configuration Error")
	if ce.FilePath != "" {
		line("  File: %s", ce.FilePath)
	}
	line("  Type: %s", ce.ErrorType)
	if ce.LineNumber > 0 {
		line("  Line: %d", ce.LineNumber)
	}
	line("  Error: %s", ce.Message)
	if ce.Details != "" {
		line("  Details: %s", ce.Details)
	}
	if len(ce.Suggestions) > 0 {
		line("  Suggestions:")
		for _, s := range ce.Suggestions {
			line("    - %s", s)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
