package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"qr-hunt-backend/internal/database"
	"qr-hunt-backend/internal/models"
	"qr-hunt-backend/internal/tokens"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const qrTokenAttempts = 3

type CheckpointService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewCheckpointService(db *gorm.DB, log *slog.Logger) *CheckpointService {
	return &CheckpointService{db: db, log: log}
}

type CheckpointInput struct {
	Name               string
	Question           string
	Answers            []string
	CorrectAnswerIndex int
	// nil appends the checkpoint after the last one.
	OrderNumber *int
}

type CheckpointUpdate struct {
	Name               *string
	Question           *string
	Answers            []string
	CorrectAnswerIndex *int
	OrderNumber        *int
}

func (s *CheckpointService) List(ctx context.Context, gameID uuid.UUID) ([]models.Checkpoint, error) {
	if err := s.requireGame(ctx, gameID); err != nil {
		return nil, err
	}
	var checkpoints []models.Checkpoint
	if err := s.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("order_number ASC").
		Find(&checkpoints).Error; err != nil {
		return nil, err
	}
	return checkpoints, nil
}

func (s *CheckpointService) Get(ctx context.Context, id uuid.UUID) (*models.Checkpoint, error) {
	var cp models.Checkpoint
	if err := s.db.WithContext(ctx).First(&cp, "id = ?", id).Error; err != nil {
		return nil, lookupError(err, "checkpoint")
	}
	return &cp, nil
}

func (s *CheckpointService) Create(ctx context.Context, gameID uuid.UUID, in CheckpointInput) (*models.Checkpoint, error) {
	if err := s.requireGame(ctx, gameID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	question := strings.TrimSpace(in.Question)
	if name == "" || question == "" {
		return nil, validationError("name and question are required")
	}
	answers, err := validateAnswers(in.Answers, in.CorrectAnswerIndex)
	if err != nil {
		return nil, err
	}

	order := 0
	if in.OrderNumber != nil {
		order = *in.OrderNumber
	} else {
		var maxOrder int
		err := s.db.WithContext(ctx).Model(&models.Checkpoint{}).
			Where("game_id = ?", gameID).
			Select("COALESCE(MAX(order_number), 0)").
			Scan(&maxOrder).Error
		if err != nil {
			return nil, fmt.Errorf("next checkpoint order: %w", err)
		}
		order = maxOrder + 1
	}

	cp := models.Checkpoint{
		GameID:             gameID,
		Name:               name,
		Question:           question,
		Answers:            answers,
		CorrectAnswerIndex: in.CorrectAnswerIndex,
		OrderNumber:        order,
	}
	for attempt := 0; ; attempt++ {
		if cp.QRToken, err = tokens.QRToken(); err != nil {
			return nil, err
		}
		err = s.db.WithContext(ctx).Create(&cp).Error
		if err == nil {
			break
		}
		if !database.IsUniqueViolation(err) || attempt+1 >= qrTokenAttempts {
			return nil, fmt.Errorf("create checkpoint: %w", err)
		}
		cp.ID = uuid.Nil
	}

	s.log.Info("checkpoint created", "game", gameID, "checkpoint", cp.ID)
	return &cp, nil
}

func (s *CheckpointService) Update(ctx context.Context, id uuid.UUID, in CheckpointUpdate) (*models.Checkpoint, error) {
	cp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if v == "" {
			return nil, validationError("name cannot be empty")
		}
		updates["name"] = v
	}
	if in.Question != nil {
		v := strings.TrimSpace(*in.Question)
		if v == "" {
			return nil, validationError("question cannot be empty")
		}
		updates["question"] = v
	}

	answers := []string(cp.Answers)
	if in.Answers != nil {
		answers = in.Answers
	}
	correct := cp.CorrectAnswerIndex
	if in.CorrectAnswerIndex != nil {
		correct = *in.CorrectAnswerIndex
	}
	if in.Answers != nil || in.CorrectAnswerIndex != nil {
		cleaned, err := validateAnswers(answers, correct)
		if err != nil {
			return nil, err
		}
		updates["answers"] = datatypes.JSONSlice[string](cleaned)
		updates["correct_answer_index"] = correct
	}
	if in.OrderNumber != nil {
		updates["order_number"] = *in.OrderNumber
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(cp).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update checkpoint: %w", err)
		}
	}
	return s.Get(ctx, id)
}

// Delete removes the checkpoint and the answers recorded for it.
func (s *CheckpointService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cp models.Checkpoint
		if err := tx.First(&cp, "id = ?", id).Error; err != nil {
			return lookupError(err, "checkpoint")
		}
		if err := tx.Where("checkpoint_id = ?", id).Delete(&models.PlayerCheckpoint{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cp).Error
	})
}

func (s *CheckpointService) requireGame(ctx context.Context, gameID uuid.UUID) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Game{}).Where("id = ?", gameID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound("game")
	}
	return nil
}

func validateAnswers(answers []string, correct int) ([]string, error) {
	cleaned := make([]string, 0, len(answers))
	for _, a := range answers {
		a = strings.TrimSpace(a)
		if a == "" {
			return nil, validationError("answers cannot be empty")
		}
		cleaned = append(cleaned, a)
	}
	if len(cleaned) < 2 {
		return nil, validationError("at least 2 answers are required")
	}
	if correct < 0 || correct >= len(cleaned) {
		return nil, validationError("correct answer index out of range")
	}
	return cleaned, nil
}
