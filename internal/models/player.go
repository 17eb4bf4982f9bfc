package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Player struct {
	ID               uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	GameID           uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_player_game_email" json:"gameId"`
	Game             Game               `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"-"`
	Name             string             `gorm:"size:255;not null" json:"name"`
	Email            string             `gorm:"size:320;not null;uniqueIndex:idx_player_game_email" json:"email"`
	SessionToken     string             `gorm:"size:64;not null;uniqueIndex" json:"-"`
	GDPRConsent      bool               `gorm:"column:gdpr_consent;not null" json:"gdprConsent"`
	MarketingConsent bool               `gorm:"not null;default:false" json:"marketingConsent"`
	CompletionCode   *string            `gorm:"size:16;uniqueIndex" json:"completionCode"`
	CompletedAt      *time.Time         `json:"completedAt"`
	RedeemedAt       *time.Time         `json:"redeemedAt"`
	Answers          []PlayerCheckpoint `gorm:"foreignKey:PlayerID" json:"answers,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
}

func (p *Player) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Player) HasCompleted() bool {
	return p.CompletionCode != nil && *p.CompletionCode != ""
}
