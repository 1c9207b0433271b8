package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for marker documents.
//
// The mapping is small by design:
//  1. Full-text search with English stemming on the comment
//  2. Exact keyword matching on session id and timecode
//  3. Numeric range queries on frame index
//  4. Term vectors on the comment for highlighting
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// Comment is the primary search target.
	commentFieldMapping := bleve.NewTextFieldMapping()
	commentFieldMapping.Analyzer = en.AnalyzerName
	commentFieldMapping.Store = true
	commentFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("comment", commentFieldMapping)

	// Session id is an exact filter, never analyzed.
	sessionFieldMapping := bleve.NewTextFieldMapping()
	sessionFieldMapping.Analyzer = keyword.Name
	sessionFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("session_id", sessionFieldMapping)

	// Session name is display-only.
	sessionNameFieldMapping := bleve.NewTextFieldMapping()
	sessionNameFieldMapping.Analyzer = keyword.Name
	sessionNameFieldMapping.Store = true
	sessionNameFieldMapping.Index = false
	docMapping.AddFieldMappingsAt("session_name", sessionNameFieldMapping)

	// Timecode is stored for display and exact lookup.
	timecodeFieldMapping := bleve.NewTextFieldMapping()
	timecodeFieldMapping.Analyzer = keyword.Name
	timecodeFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("timecode", timecodeFieldMapping)

	// Numeric fields for range filters and rendering.
	frameFieldMapping := bleve.NewNumericFieldMapping()
	frameFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("frame_index", frameFieldMapping)

	markerIDFieldMapping := bleve.NewNumericFieldMapping()
	markerIDFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("marker_id", markerIDFieldMapping)

	indexMapping.DefaultMapping = docMapping

	return indexMapping
}
