package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Checkpoint struct {
	ID                 uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	GameID             uuid.UUID                   `gorm:"type:uuid;not null;index" json:"gameId"`
	Game               Game                        `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"-"`
	Name               string                      `gorm:"size:255;not null" json:"name"`
	Question           string                      `gorm:"type:text;not null" json:"question"`
	Answers            datatypes.JSONSlice[string] `gorm:"not null" json:"answers"`
	CorrectAnswerIndex int                         `gorm:"not null" json:"correctAnswerIndex"`
	OrderNumber        int                         `gorm:"not null;default:0" json:"orderNumber"`
	QRToken            string                      `gorm:"column:qr_token;size:64;not null;uniqueIndex" json:"qrToken"`
	CreatedAt          time.Time                   `json:"createdAt"`
	UpdatedAt          time.Time                   `json:"updatedAt"`
}

func (c *Checkpoint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CorrectAnswer returns the text of the correct option, or "" if the index is out of range.
func (c *Checkpoint) CorrectAnswer() string {
	if c.CorrectAnswerIndex < 0 || c.CorrectAnswerIndex >= len(c.Answers) {
		return ""
	}
	return c.Answers[c.CorrectAnswerIndex]
}
