package sse

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framemarkapp/framemark-server/internal/marker"
)

func newTestManager() *Manager {
	return NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestManager_BroadcastSessionFilter(t *testing.T) {
	m := newTestManager()

	all, err := m.Connect("")
	require.NoError(t, err)
	scoped, err := m.Connect("ses-a")
	require.NoError(t, err)
	other, err := m.Connect("ses-b")
	require.NoError(t, err)

	m.broadcast(NewTransportEvent(EventTransportStarted, "ses-a", 0, "00:00:00:00", 24, true))

	assert.Len(t, all.EventChan, 1, "unscoped client receives session events")
	assert.Len(t, scoped.EventChan, 1, "matching session client receives event")
	assert.Len(t, other.EventChan, 0, "other session client is filtered")

	// Untagged events reach everyone.
	m.broadcast(NewSessionCreatedEvent("ses-c", "new session", 30))
	assert.Len(t, all.EventChan, 2)
	assert.Len(t, scoped.EventChan, 2)
	assert.Len(t, other.EventChan, 1)
}

func TestManager_DisconnectRemovesClient(t *testing.T) {
	m := newTestManager()

	client, err := m.Connect("")
	require.NoError(t, err)
	assert.Equal(t, 1, m.ClientCount())

	m.Disconnect(client.ID)
	assert.Equal(t, 0, m.ClientCount())

	// Disconnecting twice is a no-op.
	m.Disconnect(client.ID)
	assert.Equal(t, 0, m.ClientCount())
}

func TestManager_SlowClientDropsInsteadOfBlocking(t *testing.T) {
	m := newTestManager()

	client, err := m.Connect("")
	require.NoError(t, err)

	mk := marker.Marker{ID: 1, FrameIndex: 120, Comment: "note"}
	for i := 0; i < 150; i++ {
		m.broadcast(NewMarkerCapturedEvent("ses-a", mk, "00:00:05:00"))
	}

	// The per-client buffer holds 100; the rest were dropped, not blocked on.
	assert.Len(t, client.EventChan, 100)
}
