package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessellate-io/causeway/internal/hlc"
	"github.com/tessellate-io/causeway/internal/router"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "causeway.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testSnapshot(nodeID uuid.UUID) router.Snapshot {
	peer := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	return router.Snapshot{
		NodeID:    nodeID,
		Timestamp: hlc.Timestamp{Physical: 12345, Logical: 7, Origin: nodeID},
		Vector:    map[uuid.UUID]uint64{nodeID: 9, peer: 3},
		Stats:     router.Stats{Accepted: 9, Rejected: 2},
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := openTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "causeway.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	assert.NoError(t, s2.Close())
}

func TestSaveLoadSnapshot_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	nodeID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	snap := testSnapshot(nodeID)

	require.NoError(t, s.SaveSnapshot(ctx, snap))

	loaded, err := s.LoadSnapshot(ctx, nodeID)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}

func TestSaveSnapshot_ReplacesPreviousState(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	nodeID := uuid.New()

	first := testSnapshot(nodeID)
	require.NoError(t, s.SaveSnapshot(ctx, first))

	// Second save drops one vector entry; the stale row must not survive.
	second := first
	second.Timestamp.Physical = 99999
	second.Vector = map[uuid.UUID]uint64{nodeID: 10}
	second.Stats = router.Stats{Accepted: 10, Rejected: 2}
	require.NoError(t, s.SaveSnapshot(ctx, second))

	loaded, err := s.LoadSnapshot(ctx, nodeID)
	require.NoError(t, err)
	assert.Equal(t, second, loaded)
	assert.Len(t, loaded.Vector, 1)
}

func TestLoadSnapshot_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LoadSnapshot(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNodes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	nodes, err := s.ListNodes(ctx)
	require.NoError(t, err)
	assert.Empty(t, nodes)

	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	require.NoError(t, s.SaveSnapshot(ctx, testSnapshot(b)))
	require.NoError(t, s.SaveSnapshot(ctx, testSnapshot(a)))

	nodes, err = s.ListNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, nodes, "nodes should come back sorted")
}

func TestSnapshot_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "causeway.db")
	ctx := context.Background()
	nodeID := uuid.New()

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.SaveSnapshot(ctx, testSnapshot(nodeID)))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	loaded, err := s2.LoadSnapshot(ctx, nodeID)
	require.NoError(t, err)
	assert.Equal(t, testSnapshot(nodeID), loaded)
}
