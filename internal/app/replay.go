package app

import (
	"context"
	"fmt"

	"github.com/dkeye/Canvas/internal/core"
	"github.com/dkeye/Canvas/internal/domain"
)

const (
	DefaultReplayLimit = 50
	MaxReplayLimit     = 200
)

// ReplayLoader serves the bounded recent-operations window a joining client
// renders before live updates resume.
type ReplayLoader struct {
	Store        core.OperationStore
	DefaultLimit int
	MaxLimit     int
}

func NewReplayLoader(store core.OperationStore, defaultLimit, maxLimit int) *ReplayLoader {
	if defaultLimit <= 0 {
		defaultLimit = DefaultReplayLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxReplayLimit
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &ReplayLoader{Store: store, DefaultLimit: defaultLimit, MaxLimit: maxLimit}
}

// RecentOperations returns at most limit operations, most recent first.
// A non-positive limit means DefaultLimit; limits above MaxLimit are clamped.
func (l *ReplayLoader) RecentOperations(ctx context.Context, room domain.RoomID, limit int) ([]domain.Operation, error) {
	if limit <= 0 {
		limit = l.DefaultLimit
	}
	if limit > l.MaxLimit {
		limit = l.MaxLimit
	}
	ops, err := l.Store.Recent(ctx, room, limit)
	if err != nil {
		return nil, fmt.Errorf("recent operations of %s: %w", room, err)
	}
	return ops, nil
}
