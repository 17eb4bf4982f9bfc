package models

import (
	"time"

	"github.com/google/uuid"
)

// PlayerCheckpoint records a player's single answer to a checkpoint.
type PlayerCheckpoint struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	PlayerID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_player_checkpoint_unique" json:"playerId"`
	CheckpointID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_player_checkpoint_unique;index" json:"checkpointId"`
	AnsweredCorrectly bool      `gorm:"not null" json:"answeredCorrectly"`
	AnsweredAt        time.Time `gorm:"not null" json:"answeredAt"`
}
