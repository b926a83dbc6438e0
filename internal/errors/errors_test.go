package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorpusError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("read /index: permission denied")

	// When: wrapping with CorpusError
	ce := IndexAccess("failed to open index", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, ce)
	assert.Equal(t, originalErr, errors.Unwrap(ce))
	assert.True(t, errors.Is(ce, originalErr))
}

func TestCorpusError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *CorpusError
		expected string
	}{
		{
			name:     "config error",
			err:      ConfigError("serve.page_size must be positive", nil),
			expected: "[ERR_101_CONFIG_INVALID] serve.page_size must be positive",
		},
		{
			name:     "missing parameter",
			err:      MissingParameter("id"),
			expected: "[ERR_402_MISSING_PARAMETER] Missing URL parameter: id",
		},
		{
			name:     "parse error",
			err:      ParseError("length", "a,b", nil),
			expected: `[ERR_401_PARSE] Malformed URL parameter length: "a,b"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestCorpusError_Is_MatchesByCode(t *testing.T) {
	err1 := MissingParameter("id")
	err2 := MissingParameter("page")

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, ParseError("id", "x", nil)))
}

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		code     string
		category Category
		severity Severity
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityFatal},
		{ErrCodeIndexLocked, CategoryIO, SeverityFatal},
		{ErrCodeIndexAccess, CategoryIO, SeverityError},
		{ErrCodeDocumentRead, CategoryIO, SeverityWarning},
		{ErrCodeIngestFile, CategoryIO, SeverityWarning},
		{ErrCodeParse, CategoryValidation, SeverityError},
		{ErrCodeMissingParameter, CategoryValidation, SeverityError},
		{ErrCodeInternal, CategoryInternal, SeverityError},
		{"bogus", CategoryInternal, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "msg", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
		})
	}
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestIngestFile_CarriesPathAndCause(t *testing.T) {
	cause := errors.New("gzip: invalid header")

	err := IngestFile("/corpus/a.tsv.gz", cause)

	assert.Equal(t, "/corpus/a.tsv.gz", err.Details["file"])
	assert.Contains(t, err.Message, "gzip: invalid header")
	assert.ErrorIs(t, err, cause)
}

func TestHelpers_SeeThroughWrapping(t *testing.T) {
	// Given: a CorpusError wrapped by fmt.Errorf
	wrapped := fmt.Errorf("building query: %w", ParseError("cluster", "x", nil))

	// Then: classification helpers still find it
	assert.Equal(t, ErrCodeParse, GetCode(wrapped))
	assert.Equal(t, CategoryValidation, GetCategory(wrapped))
	assert.True(t, IsUserError(wrapped))
	assert.False(t, IsFatal(wrapped))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(ConfigError("bad", nil)))
	assert.False(t, IsFatal(IndexAccess("search failed", nil)))
	assert.False(t, IsFatal(errors.New("plain")))
	assert.False(t, IsFatal(nil))
}

func TestGetCode_PlainError(t *testing.T) {
	assert.Empty(t, GetCode(errors.New("plain")))
	assert.Empty(t, GetCategory(errors.New("plain")))
}
