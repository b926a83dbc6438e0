// Package store provides access to the corpus index: a single-writer
// handle used by ingestion and a lazily opened, read-only handle shared by
// every search request. The index engine is bleve v2.
package store

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/Aman-CERP/corpusexplorer/internal/corpus"
)

// TextAnalyzer is the analyzer applied to the text and title fields, both
// at index time and when similarity queries re-analyze a stored document.
// The corpus is multilingual, so there is no stop word or stemming filter.
const TextAnalyzer = "corpus_text"

// NewIndexMapping builds the static corpus mapping. Fields not listed here
// are neither indexed nor stored.
func NewIndexMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()

	err := im.AddCustomAnalyzer(TextAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add custom analyzer: %w", err)
	}

	doc := bleve.NewDocumentStaticMapping()

	doc.AddFieldMappingsAt(corpus.FieldID, numericField())
	doc.AddFieldMappingsAt(corpus.FieldText, textField())
	doc.AddFieldMappingsAt(corpus.FieldTitle, textField())
	doc.AddFieldMappingsAt(corpus.FieldDate, keywordField())
	doc.AddFieldMappingsAt(corpus.FieldLanguage, keywordField())
	doc.AddFieldMappingsAt(corpus.FieldCorpus, keywordField())
	doc.AddFieldMappingsAt(corpus.FieldLength, numericField())
	doc.AddFieldMappingsAt(corpus.FieldCluster, numericField())
	doc.AddFieldMappingsAt(corpus.FieldLatitude, numericField())
	doc.AddFieldMappingsAt(corpus.FieldLongitude, numericField())
	doc.AddFieldMappingsAt(corpus.FieldVisualization, storedField())
	doc.AddFieldMappingsAt(corpus.FieldTextData, storedField())

	im.DefaultMapping = doc
	im.DefaultAnalyzer = TextAnalyzer
	im.IndexDynamic = false
	im.StoreDynamic = false
	im.DocValuesDynamic = false

	return im, nil
}

func textField() *mapping.FieldMapping {
	f := bleve.NewTextFieldMapping()
	f.Analyzer = TextAnalyzer
	f.Store = false
	f.IncludeTermVectors = true
	f.IncludeInAll = false
	return f
}

func keywordField() *mapping.FieldMapping {
	f := bleve.NewKeywordFieldMapping()
	f.Store = false
	f.IncludeInAll = false
	return f
}

func numericField() *mapping.FieldMapping {
	f := bleve.NewNumericFieldMapping()
	f.Store = false
	f.IncludeInAll = false
	return f
}

// storedField holds an opaque payload that is retrievable but not searchable.
func storedField() *mapping.FieldMapping {
	f := bleve.NewTextFieldMapping()
	f.Index = false
	f.Store = true
	f.IncludeTermVectors = false
	f.IncludeInAll = false
	f.DocValues = false
	return f
}
