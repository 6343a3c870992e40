// package formatter converts bookmark lists to and from export formats (JSON, YAML, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/shared"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// Formats lists every supported export format.
var Formats = []Format{FormatJSON, FormatYAML, FormatCSV, FormatMarkdown, FormatText}

// ParseFormat maps a user-supplied name (or file extension) to a [Format].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Ext returns the file extension, without the dot, used for f.
func (f Format) Ext() string {
	switch f {
	case FormatMarkdown:
		return "md"
	default:
		return string(f)
	}
}

// Export is the document written by every exporter.
type Export struct {
	Owner      string            `json:"owner" yaml:"owner"`
	ExportedAt time.Time         `json:"exported_at" yaml:"exported_at"`
	Bookmarks  []models.Bookmark `json:"bookmarks" yaml:"bookmarks"`
}

// NewExport wraps an owner's bookmarks, already in display order.
func NewExport(owner string, bookmarks []models.Bookmark) *Export {
	return &Export{Owner: owner, ExportedAt: time.Now().UTC(), Bookmarks: bookmarks}
}

// ExportToJSON encodes the export as indented JSON.
func ExportToJSON(export *Export) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// ExportToYAML encodes the export as YAML.
func ExportToYAML(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(export); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToCSV converts an Export to CSV format with columns: ID, Title, URL, Created
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "URL", "Created"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, b := range export.Bookmarks {
		record := []string{b.ID, b.Title, b.URL, b.CreatedAt.UTC().Format(time.RFC3339)}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

var markdownEscaper = strings.NewReplacer("[", `\[`, "]", `\]`)

// ExportToMarkdown converts an Export to a Markdown link list
func ExportToMarkdown(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Bookmarks\n\n")
	if export.Owner != "" {
		buf.WriteString(fmt.Sprintf("**Owner**: %s\n", export.Owner))
	}
	buf.WriteString(fmt.Sprintf("**Count**: %d\n\n", len(export.Bookmarks)))

	for i, b := range export.Bookmarks {
		buf.WriteString(fmt.Sprintf("%d. [%s](<%s>) - %s\n", i+1, markdownEscaper.Replace(b.Title), b.URL, b.CreatedAt.UTC().Format("2006-01-02")))
	}

	return buf.Bytes(), nil
}

// ExportToText converts an Export to plain text format
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Bookmarks: %d\n\n", len(export.Bookmarks)))
	for i, b := range export.Bookmarks {
		buf.WriteString(fmt.Sprintf("%d. %s\n   %s\n", i+1, b.Title, b.URL))
	}

	return buf.Bytes(), nil
}

// Encode converts export to the given format.
func Encode(f Format, export *Export) ([]byte, error) {
	switch f {
	case FormatJSON:
		return ExportToJSON(export)
	case FormatYAML:
		return ExportToYAML(export)
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	case FormatText:
		return ExportToText(export)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

// WriteExport encodes export and writes it to path.
//
// Defaults to bookmarks.{ext} in the working directory.
func WriteExport(f Format, export *Export, path string) (string, error) {
	if path == "" {
		path = "bookmarks." + f.Ext()
	}

	data, err := Encode(f, export)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}
	return path, nil
}

// Entry is one importable bookmark. Fields other than title and url are ignored.
type Entry struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

// ParseEntries decodes JSON or YAML import data. Both an [Export] document and a
// bare list of entries are accepted.
func ParseEntries(data []byte, f Format) ([]Entry, error) {
	var doc struct {
		Bookmarks []Entry `json:"bookmarks" yaml:"bookmarks"`
	}
	var list []Entry

	switch f {
	case FormatJSON:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &list); err != nil {
				return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
			}
			return list, nil
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}
		return doc.Bookmarks, nil
	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}
		if len(node.Content) == 0 {
			return nil, nil
		}
		if node.Content[0].Kind == yaml.SequenceNode {
			if err := node.Decode(&list); err != nil {
				return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
			}
			return list, nil
		}
		if err := node.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}
		return doc.Bookmarks, nil
	default:
		return nil, fmt.Errorf("%w: cannot import %s", shared.ErrInvalidArgument, f)
	}
}

// ReadEntries reads an import file, choosing the decoder from its extension.
func ReadEntries(path string) ([]Entry, error) {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseEntries(data, f)
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
