package corpus

import (
	"strings"
	"unicode"
)

// ocrArtifacts are markup fragments left behind by the OCR export.
// Longer forms come first so "&nbsp;" is not reduced to "&;".
var ocrArtifacts = strings.NewReplacer(
	"&nbsp;", " ",
	"nbsp;", " ",
	"&nbsp", " ",
	"nbsp", " ",
)

var lineBreaks = strings.NewReplacer(
	"\r\n", " ",
	"\r", " ",
	"\n", " ",
)

// languageCodes maps language names found in the corpus to ISO 639-1 codes.
var languageCodes = map[string]string{
	"German":        "de",
	"French":        "fr",
	"English":       "en",
	"Italian":       "it",
	"Dutch":         "nl",
	"Luxembourgish": "lb",
	"Latin":         "la",
	"Spanish":       "es",
}

// TextLength counts whitespace-separated tokens.
func TextLength(text string) int {
	return len(strings.FieldsFunc(text, unicode.IsSpace))
}

// CleanText strips OCR artifacts and collapses line breaks to spaces.
func CleanText(text string) string {
	return lineBreaks.Replace(ocrArtifacts.Replace(text))
}

// NormalizeDate pads a partial ISO date to year-month-day:
// "1975" becomes "1975-01-01" and "1975-06" becomes "1975-06-01".
// Anything after the day segment (e.g. a time) is dropped.
func NormalizeDate(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return ""
	}
	if i := strings.IndexAny(date, "T "); i > 0 {
		date = date[:i]
	}

	parts := strings.SplitN(date, "-", 4)
	for len(parts) < 3 {
		parts = append(parts, "01")
	}
	for i := 1; i < 3; i++ {
		if parts[i] == "" {
			parts[i] = "01"
		} else if len(parts[i]) == 1 {
			parts[i] = "0" + parts[i]
		}
	}
	return strings.Join(parts[:3], "-")
}

// NormalizeLanguages splits a comma-separated list of language names and
// maps known names to ISO codes. Unknown names pass through unchanged.
func NormalizeLanguages(languages string) []string {
	var out []string
	for _, name := range strings.Split(languages, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if code, ok := languageCodes[name]; ok {
			name = code
		}
		out = append(out, name)
	}
	return out
}
