package services

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tambolahq/tambola-backend/game"
	"github.com/tambolahq/tambola-backend/models"
	"github.com/tambolahq/tambola-backend/utils/logger"
)

// Archive writes finished games to the database. It is strictly
// write-behind: room state itself is never persisted or restored, so a nil
// Archive (no DATABASE_URL) just disables the history feature.
type Archive struct {
	db *gorm.DB
}

func NewArchive(db *gorm.DB) *Archive {
	if db == nil {
		return nil
	}
	return &Archive{db: db}
}

// SaveGame records one finished game. Called off the room's critical path;
// failures are logged, never surfaced to players.
func (a *Archive) SaveGame(roomID string, round int, called []int, claims game.Claims, startedAt, endedAt time.Time) {
	if a == nil {
		return
	}
	callsJSON, err := json.Marshal(called)
	if err != nil {
		logger.Errorf("[Archive] marshal calls for room %s: %v", roomID, err)
		return
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		logger.Errorf("[Archive] marshal claims for room %s: %v", roomID, err)
		return
	}
	rec := models.GameRecord{
		RoomID:     roomID,
		Round:      round,
		CallsJSON:  datatypes.JSON(callsJSON),
		ClaimsJSON: datatypes.JSON(claimsJSON),
		StartedAt:  startedAt,
		EndedAt:    endedAt,
	}
	if err := a.db.Create(&rec).Error; err != nil {
		logger.Errorf("[Archive] failed to save game for room %s: %v", roomID, err)
		return
	}
	logger.Infof("[Archive] saved room %s round %d (%d calls)", roomID, round, len(called))
}
