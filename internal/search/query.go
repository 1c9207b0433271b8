package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a marker search.
type SearchParams struct {
	Query     string // user's search text
	SessionID string // restrict to one session (empty = all sessions)

	Limit  int
	Offset int

	Highlight bool // include match highlighting on the comment
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:     20,
		Offset:    0,
		Highlight: true,
	}
}

// SearchResult represents marker search results.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit represents a single matching marker.
type SearchHit struct {
	SessionID   string  `json:"session_id"`
	SessionName string  `json:"session_name,omitempty"`
	MarkerID    int64   `json:"marker_id"`
	Comment     string  `json:"comment"`
	Timecode    string  `json:"timecode"`
	FrameIndex  int64   `json:"frame_index"`
	Score       float64 `json:"score"`
	Highlight   string  `json:"highlight,omitempty"`
}

// Search executes a search over marker comments.
func (s *MarkerIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.Limit <= 0 {
		params.Limit = 20
	}

	searchQuery := buildSearchQuery(params)
	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("comment")
	}

	searchRequest.Fields = []string{
		"session_id", "session_name", "marker_id", "comment", "timecode", "frame_index",
	}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute marker search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{Score: hit.Score}

		if sid, ok := hit.Fields["session_id"].(string); ok {
			searchHit.SessionID = sid
		}
		if sn, ok := hit.Fields["session_name"].(string); ok {
			searchHit.SessionName = sn
		}
		if mid, ok := hit.Fields["marker_id"].(float64); ok {
			searchHit.MarkerID = int64(mid)
		}
		if c, ok := hit.Fields["comment"].(string); ok {
			searchHit.Comment = c
		}
		if tc, ok := hit.Fields["timecode"].(string); ok {
			searchHit.Timecode = tc
		}
		if fi, ok := hit.Fields["frame_index"].(float64); ok {
			searchHit.FrameIndex = int64(fi)
		}

		if fragments, ok := hit.Fragments["comment"]; ok && len(fragments) > 0 {
			searchHit.Highlight = fragments[0]
		}

		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	// Text query over the comment: analyzed match, fuzzy for typo
	// tolerance, and a prefix match so partial words still hit.
	if params.Query != "" {
		textQueries := []query.Query{}

		commentMatch := bleve.NewMatchQuery(params.Query)
		commentMatch.SetField("comment")
		commentMatch.SetBoost(3.0)
		textQueries = append(textQueries, commentMatch)

		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("comment")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("comment")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	// Session filter (exact match).
	if params.SessionID != "" {
		sessionQuery := bleve.NewTermQuery(params.SessionID)
		sessionQuery.SetField("session_id")
		queries = append(queries, sessionQuery)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
