package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"marquee/internal/affinity"
)

// SaveAffinitySnapshot replaces the user's cached affinity.
func (s *Store) SaveAffinitySnapshot(ctx context.Context, userID string, shares []affinity.Share) (*AffinitySnapshot, error) {
	if shares == nil {
		shares = []affinity.Share{}
	}
	encoded, err := encodeJSON(shares)
	if err != nil {
		return nil, fmt.Errorf("encode affinity shares: %w", err)
	}
	snapshot := &AffinitySnapshot{UserID: userID, Shares: shares, ComputedAt: s.now()}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO affinity_snapshots (user_id, shares_json, computed_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET shares_json = excluded.shares_json, computed_at = excluded.computed_at`,
		userID, encoded, formatTime(snapshot.ComputedAt),
	); err != nil {
		return nil, fmt.Errorf("save affinity snapshot: %w", err)
	}
	return snapshot, nil
}

// LoadAffinitySnapshot returns the user's cached affinity or ErrNotFound.
func (s *Store) LoadAffinitySnapshot(ctx context.Context, userID string) (*AffinitySnapshot, error) {
	var (
		raw        sql.NullString
		computedAt string
	)
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT shares_json, computed_at FROM affinity_snapshots WHERE user_id = ?`, userID,
	).Scan(&raw, &computedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("affinity snapshot %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load affinity snapshot: %w", err)
	}
	snapshot := &AffinitySnapshot{UserID: userID, Shares: []affinity.Share{}}
	if err := decodeJSON(raw, &snapshot.Shares); err != nil {
		return nil, fmt.Errorf("decode affinity shares: %w", err)
	}
	computed, err := parseTimeString(computedAt)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot computed_at: %w", err)
	}
	snapshot.ComputedAt = computed
	return snapshot, nil
}
