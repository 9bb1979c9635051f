package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/climdash/schema"
)

// Color variables for console output.
var (
	ErrorColor   = color.New(color.FgRed, color.Bold) // ErrorColor represents a failed action.
	WarnColor    = color.New(color.FgYellow)          // WarnColor represents a recoverable problem.
	InfoColor    = color.New(color.FgCyan)            // InfoColor represents progress.
	SuccessColor = color.New(color.FgGreen)           // SuccessColor represents a completed action.
	HeaderColor  = color.New(color.FgWhite, color.Bold)
)

// ColorForKind returns the color used to show an error of the given kind.
// Shape and input problems are warnings, everything else is an error.
func ColorForKind(kind schema.ErrorKind) *color.Color {
	switch kind {
	case schema.ShapeErrorKind, schema.ParseErrorKind, schema.UnsupportedFormatKind, schema.PersistenceKind:
		return WarnColor
	default:
		return ErrorColor
	}
}

// SelectOutputFile returns the file to write output to, defaulting to stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// LogInfo logs a progress line to stderr, with an emoji prefix when enabled.
func LogInfo(useEmoji bool, emoji, msg string) {
	if useEmoji {
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", emoji, msg)
		return
	}
	_, _ = fmt.Fprintln(os.Stderr, msg)
}

// GetWorkspaceDBFilePath returns the path to the SQLite DB file for workspace snapshots.
func GetWorkspaceDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".climdash.db"
	}
	return filepath.Join(homeDir, ".climdash.db")
}

// GetQueryLogDBFilePath returns the path to the SQLite DB file for the query log.
func GetQueryLogDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".climdash_queries.db"
	}
	return filepath.Join(homeDir, ".climdash_queries.db")
}

// TruncateLabel shortens a label to maxWidth runes with an ellipsis suffix.
func TruncateLabel(label string, maxWidth int) string {
	runes := []rune(label)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return label
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
