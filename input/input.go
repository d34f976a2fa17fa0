// Package input loads source documents for segmentation, converting
// Markdown, HTML, and PDF content to plain text while keeping the
// structural signal (heading markers, paragraph breaks) the segmentation
// engine relies on.
package input

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Reader converts raw content to plain text.
type Reader interface {
	Read(content []byte) (string, error)
}

// ForExtension returns the Reader for a file extension (with or without the
// leading dot). Unknown extensions get the plain-text reader.
func ForExtension(ext string) Reader {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "md", "markdown":
		return MarkdownReader{}
	case "html", "htm":
		return HTMLReader{}
	case "pdf":
		return PDFReader{}
	default:
		return PlainReader{}
	}
}

// PlainReader returns content as-is.
type PlainReader struct{}

func (PlainReader) Read(content []byte) (string, error) {
	return string(content), nil
}

// LoadOption configures Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	normalize bool
}

// WithNFC normalizes the loaded text to Unicode NFC, so visually identical
// CJK text always produces the same rune counts and chunk boundaries.
func WithNFC() LoadOption {
	return func(c *loadConfig) { c.normalize = true }
}

// Load reads the file at path and converts it to plain text using the
// reader matching its extension.
func Load(path string, opts ...LoadOption) (string, error) {
	var cfg loadConfig
	for _, o := range opts {
		o(&cfg)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("input: read %s: %w", path, err)
	}
	text, err := ForExtension(filepath.Ext(path)).Read(content)
	if err != nil {
		return "", fmt.Errorf("input: convert %s: %w", path, err)
	}
	if cfg.normalize {
		text = norm.NFC.String(text)
	}
	return text, nil
}
