package domain

import "time"

// Operation is one persisted drawing operation.
// Payload is opaque here: only the rendering layer decodes the shape.
type Operation struct {
	ID        int64     `json:"id"`
	RoomID    RoomID    `json:"roomId"`
	AuthorID  UserID    `json:"authorId"`
	Payload   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
