package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Game struct {
	ID                uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string       `gorm:"size:255;not null" json:"name"`
	Description       *string      `gorm:"type:text" json:"description"`
	IsActive          bool         `gorm:"not null;default:false" json:"isActive"`
	RewardDescription *string      `gorm:"type:text" json:"rewardDescription"`
	Checkpoints       []Checkpoint `gorm:"foreignKey:GameID" json:"checkpoints,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

func (g *Game) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// Reward returns the reward text, or fallback when the game has none.
func (g *Game) Reward(fallback string) string {
	if g.RewardDescription == nil || *g.RewardDescription == "" {
		return fallback
	}
	return *g.RewardDescription
}
