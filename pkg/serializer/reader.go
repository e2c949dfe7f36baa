package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"

	"gopkg.in/yaml.v3"
)

// maxDecodeBytes caps request bodies and input files.
const maxDecodeBytes = 1 << 20

// Decode reads one JSON or YAML document from r into v. Unknown JSON fields
// are rejected.
func Decode(r io.Reader, format Format, v any) error {
	data, err := io.ReadAll(io.LimitReader(r, maxDecodeBytes+1))
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if len(data) > maxDecodeBytes {
		return fmt.Errorf("input exceeds %d bytes", maxDecodeBytes)
	}
	if len(data) == 0 {
		return fmt.Errorf("input is empty")
	}

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to decode YAML: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("failed to decode JSON: %w", err)
		}
	default:
		return fmt.Errorf("format %q cannot be decoded", format)
	}
	return nil
}

// DecodeFile decodes the file at path, picking the format from its extension.
func DecodeFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	format := FormatFromPath(path)
	if format == FormatTable {
		format = FormatJSON
	}
	return Decode(f, format, v)
}

// FormatFromContentType maps a request Content-Type to JSON or YAML. An empty
// or unparsable header means JSON.
func FormatFromContentType(contentType string) Format {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return FormatJSON
	}
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return FormatYAML
	default:
		return FormatJSON
	}
}
