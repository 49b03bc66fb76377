package common

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/dtnitsch/pdf-viewer/models"
	"github.com/urfave/cli/v2"
)

// fieldNameMap maps verbose field names to terse equivalents.
var fieldNameMap = map[string]string{
	"reference":  "r",
	"url":        "u",
	"status":     "s",
	"error":      "e",
	"page_count": "pc",
	"zoom":       "z",
	"window":     "w",
	"duration":   "d",
}

var markdownLinkPattern = regexp.MustCompile(`^\[.*?\]\(([^\)]+)\)$`)

// ContentHash computes SHA256 hash of content and returns hex string.
func ContentHash(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

// FilterResultFields keeps only the comma-separated fields of result. With
// isTerse, verbose names are translated to their terse keys.
func FilterResultFields(result interface{}, fieldsStr string, isTerse bool) map[string]interface{} {
	if fieldsStr == "" {
		return structToMap(result)
	}

	includeFields := make(map[string]bool)
	for _, field := range strings.Split(fieldsStr, ",") {
		field = strings.TrimSpace(field)
		if isTerse {
			if terseField, ok := fieldNameMap[field]; ok {
				field = terseField
			}
		}
		includeFields[field] = true
	}

	filtered := make(map[string]interface{})
	for key, value := range structToMap(result) {
		if includeFields[key] {
			filtered[key] = value
		}
	}
	return filtered
}

// structToMap converts a struct to map[string]interface{} using JSON marshaling.
func structToMap(obj interface{}) map[string]interface{} {
	data, _ := json.Marshal(obj)
	var result map[string]interface{}
	_ = json.Unmarshal(data, &result)
	return result
}

// SanitizeReference performs basic cleanup on document references to handle
// common copy-paste issues: edge whitespace, markdown links, wrapping quotes
// and brackets.
func SanitizeReference(raw string) string {
	cleaned := strings.TrimSpace(raw)

	// [text](ref) -> ref
	if matches := markdownLinkPattern.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = matches[1]
	}

	// Strip one layer of wrapping punctuation per pair
	pairs := [][2]string{{"\"", "\""}, {"'", "'"}, {"<", ">"}, {"(", ")"}, {"`", "`"}}
	for _, p := range pairs {
		if len(cleaned) >= 2 && strings.HasPrefix(cleaned, p[0]) && strings.HasSuffix(cleaned, p[1]) {
			cleaned = cleaned[1 : len(cleaned)-1]
		}
	}

	// Trailing separators left over from lists: "a.pdf," -> "a.pdf"
	cleaned = strings.TrimRight(cleaned, ",;")

	return strings.TrimSpace(cleaned)
}

// NewLogger builds the JSON stderr logger from the global --quiet and
// --verbose flags.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// LoadConfig reads the --config file and applies flag overrides on top.
func LoadConfig(c *cli.Context) (*models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("base-url") {
		cfg.DownloadAssetsBaseURL = c.String("base-url")
	}
	if c.IsSet("cache-dir") {
		cfg.CacheDir = c.String("cache-dir")
	}
	if c.IsSet("media-dir") {
		cfg.MediaDir = c.String("media-dir")
	}
	if c.IsSet("database") {
		cfg.Database = c.String("database")
	}
	if c.IsSet("listen") {
		cfg.ListenAddr = c.String("listen")
	}
	if c.IsSet("height") {
		cfg.DefaultHeight = c.Float64("height")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
