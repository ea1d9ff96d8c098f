package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a connected user in the system
type User struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	ConnectedAt time.Time `json:"connected_at"`
}
