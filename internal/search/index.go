package search

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// MarkerIndex wraps a memory-only Bleve index with marker operations.
//
// Thread safety: all public methods are safe for concurrent use. The
// mutex serializes writes; Bleve handles concurrent reads internally.
type MarkerIndex struct {
	index  bleve.Index
	logger *slog.Logger
	mu     sync.Mutex
}

// NewMarkerIndex creates an in-memory marker index.
func NewMarkerIndex(logger *slog.Logger) (*MarkerIndex, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create marker index: %w", err)
	}

	return &MarkerIndex{
		index:  index,
		logger: logger,
	}, nil
}

// IndexMarker adds or replaces a marker document. Bleve upserts by doc id,
// so capture and comment edits go through the same path.
func (s *MarkerIndex) IndexMarker(doc MarkerDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Index(doc.ID, doc); err != nil {
		return fmt.Errorf("index marker %s: %w", doc.ID, err)
	}
	return nil
}

// IndexMarkers adds or replaces a batch of marker documents.
// Used when re-rendering a session's timecodes after a framerate change.
func (s *MarkerIndex) IndexMarkers(docs []MarkerDocument) error {
	if len(docs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("batch marker %s: %w", doc.ID, err)
		}
	}
	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("apply marker batch: %w", err)
	}
	return nil
}

// DeleteMarker removes a single marker document.
func (s *MarkerIndex) DeleteMarker(sessionID string, markerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Delete(DocID(sessionID, markerID)); err != nil {
		return fmt.Errorf("delete marker %s: %w", DocID(sessionID, markerID), err)
	}
	return nil
}

// DeleteSession removes every marker document belonging to a session.
// Called when markers are cleared or the session is deleted.
func (s *MarkerIndex) DeleteSession(sessionID string) (int, error) {
	docIDs, err := s.sessionDocIDs(sessionID)
	if err != nil {
		return 0, err
	}
	if len(docIDs) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.index.NewBatch()
	for _, docID := range docIDs {
		batch.Delete(docID)
	}
	if err := s.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("delete session %s markers: %w", sessionID, err)
	}

	s.logger.Debug("session markers deindexed",
		slog.String("session_id", sessionID),
		slog.Int("count", len(docIDs)))

	return len(docIDs), nil
}

// sessionDocIDs lists every doc id for a session via an exact term match.
func (s *MarkerIndex) sessionDocIDs(sessionID string) ([]string, error) {
	termQuery := bleve.NewTermQuery(sessionID)
	termQuery.SetField("session_id")

	// Page through in chunks; sessions rarely exceed a few hundred markers.
	const pageSize = 500
	var docIDs []string
	for offset := 0; ; offset += pageSize {
		req := bleve.NewSearchRequestOptions(termQuery, pageSize, offset, false)
		res, err := s.index.Search(req)
		if err != nil {
			return nil, fmt.Errorf("list session %s markers: %w", sessionID, err)
		}
		for _, hit := range res.Hits {
			docIDs = append(docIDs, hit.ID)
		}
		if uint64(offset+len(res.Hits)) >= res.Total || len(res.Hits) == 0 {
			break
		}
	}
	return docIDs, nil
}

// DocCount returns the number of indexed marker documents.
func (s *MarkerIndex) DocCount() (uint64, error) {
	return s.index.DocCount()
}

// Close releases the index.
func (s *MarkerIndex) Close() error {
	return s.index.Close()
}
