package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tessellate-io/causeway/internal/hlc"
	"github.com/tessellate-io/causeway/internal/router"
)

// ErrNotFound is returned when no snapshot exists for a node.
var ErrNotFound = errors.New("snapshot not found")

// SaveSnapshot persists a router snapshot, replacing any previous state
// for the same node. The clock row and all vector entries are written
// in one transaction so a restored snapshot is always internally
// consistent.
func (s *Store) SaveSnapshot(ctx context.Context, snap router.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO clock_state (node_id, physical, logical, accepted, rejected)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(node_id) DO UPDATE SET
			physical = excluded.physical,
			logical = excluded.logical,
			accepted = excluded.accepted,
			rejected = excluded.rejected,
			saved_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`,
		snap.NodeID.String(),
		snap.Timestamp.Physical,
		int64(snap.Timestamp.Logical),
		int64(snap.Stats.Accepted),
		int64(snap.Stats.Rejected),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: clock state: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM vector_entries WHERE owner_id = ?`, snap.NodeID.String()); err != nil {
		return fmt.Errorf("save snapshot: clear vector: %w", err)
	}

	for node, counter := range snap.Vector {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO vector_entries (owner_id, node_id, counter)
			VALUES (?, ?, ?)
		`, snap.NodeID.String(), node.String(), int64(counter)); err != nil {
			return fmt.Errorf("save snapshot: vector entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot restores the persisted snapshot for a node.
// Returns ErrNotFound if the node has never been saved.
func (s *Store) LoadSnapshot(ctx context.Context, nodeID uuid.UUID) (router.Snapshot, error) {
	var (
		physical           int64
		logical            int64
		accepted, rejected int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT physical, logical, accepted, rejected
		FROM clock_state WHERE node_id = ?
	`, nodeID.String()).Scan(&physical, &logical, &accepted, &rejected)
	if errors.Is(err, sql.ErrNoRows) {
		return router.Snapshot{}, fmt.Errorf("load snapshot %s: %w", nodeID, ErrNotFound)
	}
	if err != nil {
		return router.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	snap := router.Snapshot{
		NodeID: nodeID,
		Timestamp: hlc.Timestamp{
			Physical: physical,
			Logical:  uint32(logical),
			Origin:   nodeID,
		},
		Vector: make(map[uuid.UUID]uint64),
		Stats: router.Stats{
			Accepted: uint64(accepted),
			Rejected: uint64(rejected),
		},
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT node_id, counter FROM vector_entries
		WHERE owner_id = ?
		ORDER BY node_id
	`, nodeID.String())
	if err != nil {
		return router.Snapshot{}, fmt.Errorf("load snapshot: vector: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rawNode string
			counter int64
		)
		if err := rows.Scan(&rawNode, &counter); err != nil {
			return router.Snapshot{}, fmt.Errorf("load snapshot: vector entry: %w", err)
		}
		node, err := uuid.Parse(rawNode)
		if err != nil {
			return router.Snapshot{}, fmt.Errorf("load snapshot: vector entry %q: %w", rawNode, err)
		}
		snap.Vector[node] = uint64(counter)
	}
	if err := rows.Err(); err != nil {
		return router.Snapshot{}, fmt.Errorf("load snapshot: vector: %w", err)
	}

	return snap, nil
}

// ListNodes returns the IDs of all persisted nodes, sorted.
func (s *Store) ListNodes(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT node_id FROM clock_state ORDER BY node_id`)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	var nodes []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("list nodes: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("list nodes: %q: %w", raw, err)
		}
		nodes = append(nodes, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	return nodes, nil
}
