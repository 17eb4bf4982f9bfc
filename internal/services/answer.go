package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qr-hunt-backend/internal/database"
	"qr-hunt-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AnswerResult struct {
	Correct       bool      `json:"correct"`
	CorrectAnswer string    `json:"correctAnswer,omitempty"`
	Answered      int       `json:"answeredCheckpoints"`
	Total         int       `json:"totalCheckpoints"`
	AllCompleted  bool      `json:"allCompleted"`
	GameID        uuid.UUID `json:"gameId"`
	PlayerID      uuid.UUID `json:"-"`
}

// SubmitAnswer records the player's first answer to a checkpoint of their game.
func (s *GameplayService) SubmitAnswer(ctx context.Context, sessionToken string, checkpointID uuid.UUID, answerIndex int) (*AnswerResult, error) {
	if checkpointID == uuid.Nil {
		return nil, validationError("missing checkpoint")
	}
	player, err := s.playerBySession(ctx, sessionToken)
	if err != nil {
		return nil, err
	}

	var checkpoint models.Checkpoint
	err = s.db.WithContext(ctx).
		Where("id = ? AND game_id = ?", checkpointID, player.GameID).
		First(&checkpoint).Error
	if err != nil {
		return nil, lookupError(err, "checkpoint")
	}
	if answerIndex < 0 || answerIndex >= len(checkpoint.Answers) {
		return nil, validationError("answer index out of range")
	}

	var existing models.PlayerCheckpoint
	err = s.db.WithContext(ctx).
		Where("player_id = ? AND checkpoint_id = ?", player.ID, checkpoint.ID).
		First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyAnswered
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	correct := answerIndex == checkpoint.CorrectAnswerIndex
	record := models.PlayerCheckpoint{
		PlayerID:          player.ID,
		CheckpointID:      checkpoint.ID,
		AnsweredCorrectly: correct,
		AnsweredAt:        time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadyAnswered
		}
		return nil, fmt.Errorf("record answer: %w", err)
	}

	answered, total, err := counts(s.db.WithContext(ctx), player.ID, player.GameID)
	if err != nil {
		return nil, err
	}

	return &AnswerResult{
		Correct:       correct,
		CorrectAnswer: checkpoint.CorrectAnswer(),
		Answered:      answered,
		Total:         total,
		AllCompleted:  total > 0 && answered == total,
		GameID:        player.GameID,
		PlayerID:      player.ID,
	}, nil
}
