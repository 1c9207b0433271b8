package providers

import (
	"github.com/samber/do/v2"

	"github.com/framemarkapp/framemark-server/internal/store"
)

// ProvideStore provides the in-memory operator and refresh session store.
// Nothing to close on shutdown.
func ProvideStore(i do.Injector) (*store.Store, error) {
	return store.New(), nil
}
