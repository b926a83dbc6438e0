package errors

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayload(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want map[string]string
	}{
		{
			name: "missing parameter is a parse error",
			err:  MissingParameter("id"),
			want: map[string]string{"parseError": "Missing URL parameter: id"},
		},
		{
			name: "malformed parameter is a parse error",
			err:  ParseError("page", "two", nil),
			want: map[string]string{"parseError": `Malformed URL parameter page: "two"`},
		},
		{
			name: "index failure is an exception",
			err:  IndexAccess("search failed: disk I/O", nil),
			want: map[string]string{"exception": "search failed: disk I/O"},
		},
		{
			name: "unknown document is an exception",
			err:  NotFound("no document with id 7"),
			want: map[string]string{"exception": "no document with id 7"},
		},
		{
			name: "plain error is an exception",
			err:  errors.New("boom"),
			want: map[string]string{"exception": "boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]string
			require.NoError(t, json.Unmarshal(Payload(tt.err), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPayload_Nil(t *testing.T) {
	assert.Equal(t, "{}", string(Payload(nil)))
}

func TestFormatForCLI(t *testing.T) {
	err := ConfigError("paths.index is required", nil).
		WithSuggestion("set paths.index in corpusexplorer.yaml")

	out := FormatForCLI(err)

	assert.Contains(t, out, "Error: paths.index is required")
	assert.Contains(t, out, "Hint: set paths.index in corpusexplorer.yaml")
	assert.Contains(t, out, "Code: ERR_101_CONFIG_INVALID")
	assert.Empty(t, FormatForCLI(nil))
	assert.Contains(t, FormatForCLI(errors.New("plain")), "Code: ERR_501_INTERNAL")
}

func TestFormatForLog(t *testing.T) {
	err := DocumentRead("42", errors.New("segment missing"))

	fields := FormatForLog(err)

	assert.Equal(t, ErrCodeDocumentRead, fields["error_code"])
	assert.Equal(t, "segment missing", fields["cause"])
	assert.Equal(t, "42", fields["detail_id"])
	assert.Equal(t, string(SeverityWarning), fields["severity"])
	assert.Equal(t, map[string]any{"error": "plain"}, FormatForLog(errors.New("plain")))
	assert.Nil(t, FormatForLog(nil))
}
