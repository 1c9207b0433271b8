package providers

import (
	"github.com/samber/do/v2"

	"github.com/framemarkapp/framemark-server/internal/logger"
	"github.com/framemarkapp/framemark-server/internal/search"
)

// SearchIndexHandle wraps the marker search index with shutdown capability.
type SearchIndexHandle struct {
	*search.MarkerIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve marker index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewMarkerIndex(log.Logger)
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocCount()
	log.Info("Marker search index initialized", "documents", docCount)

	return &SearchIndexHandle{MarkerIndex: index}, nil
}
