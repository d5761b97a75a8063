package models

import (
	"time"

	"gorm.io/datatypes"
)

// GameRecord is one finished game, archived for history. Live room state is
// never stored; these rows are append-only.
type GameRecord struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	RoomID     string         `gorm:"index" json:"room_id"`
	Round      int            `json:"round"`
	CallsJSON  datatypes.JSON `json:"calls"`
	ClaimsJSON datatypes.JSON `json:"claims"`
	StartedAt  time.Time      `json:"started_at"`
	EndedAt    time.Time      `json:"ended_at"`
	CreatedAt  time.Time      `json:"created_at"`
}
