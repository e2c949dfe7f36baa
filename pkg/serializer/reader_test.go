package serializer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		input   string
		want    sample
		wantErr string
	}{
		{name: "json", format: FormatJSON, input: `{"name":"orders","count":2}`, want: sample{Name: "orders", Count: 2}},
		{name: "yaml", format: FormatYAML, input: "name: orders\ncount: 2\n", want: sample{Name: "orders", Count: 2}},
		{name: "unknown json field", format: FormatJSON, input: `{"nme":"x"}`, wantErr: "unknown field"},
		{name: "empty", format: FormatJSON, input: "", wantErr: "empty"},
		{name: "table cannot decode", format: FormatTable, input: "x", wantErr: "cannot be decoded"},
		{name: "too large", format: FormatJSON, input: strings.Repeat(" ", maxDecodeBytes+1), wantErr: "exceeds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got sample
			err := Decode(strings.NewReader(tt.input), tt.format, &got)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "req.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: web\ncount: 1\n"), 0o600))

	var got sample
	require.NoError(t, DecodeFile(path, &got))
	assert.Equal(t, sample{Name: "web", Count: 1}, got)

	assert.Error(t, DecodeFile(filepath.Join(dir, "missing.json"), &got))
}

func TestFormatFromContentType(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromContentType(""))
	assert.Equal(t, FormatJSON, FormatFromContentType("application/json; charset=utf-8"))
	assert.Equal(t, FormatYAML, FormatFromContentType("application/yaml"))
	assert.Equal(t, FormatYAML, FormatFromContentType("application/x-yaml"))
}
