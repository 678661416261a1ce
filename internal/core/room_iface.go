package core

import (
	"context"

	"github.com/dkeye/Canvas/internal/domain"
)

// Delivery records one recipient that missed a frame.
type Delivery struct {
	SID SessionID
	Err error
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	OpID    int64
	SendTo  int
	Dropped []Delivery
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"client_count"`
}

// OperationStore is the durable append-only log of drawing operations.
type OperationStore interface {
	// Append persists one operation and returns its sequence marker.
	Append(ctx context.Context, room domain.RoomID, author domain.UserID, payload string) (int64, error)
	// Recent returns at most limit operations of the room, most recent first.
	Recent(ctx context.Context, room domain.RoomID, limit int) ([]domain.Operation, error)
}
