package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"qr-hunt-backend/internal/models"
	"qr-hunt-backend/internal/tokens"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GameService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewGameService(db *gorm.DB, log *slog.Logger) *GameService {
	return &GameService{db: db, log: log}
}

type GameInput struct {
	Name              string
	Description       *string
	RewardDescription *string
	IsActive          *bool
}

// GameUpdate carries only the fields to change.
type GameUpdate struct {
	Name              *string
	Description       *string
	RewardDescription *string
	IsActive          *bool
}

type GameSummary struct {
	models.Game
	CheckpointCount int64 `json:"checkpointCount"`
	PlayerCount     int64 `json:"playerCount"`
	CompletedCount  int64 `json:"completedCount"`
	RedeemedCount   int64 `json:"redeemedCount"`
}

type GameInfo struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Description       *string   `json:"description"`
	RewardDescription *string   `json:"rewardDescription"`
	IsActive          bool      `json:"isActive"`
	CheckpointCount   int64     `json:"checkpointCount"`
}

func (s *GameService) List(ctx context.Context) ([]GameSummary, error) {
	var games []models.Game
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&games).Error; err != nil {
		return nil, err
	}

	result := make([]GameSummary, 0, len(games))
	for _, g := range games {
		sum := GameSummary{Game: g}
		db := s.db.WithContext(ctx)
		err := db.Model(&models.Checkpoint{}).Where("game_id = ?", g.ID).Count(&sum.CheckpointCount).Error
		if err != nil {
			return nil, fmt.Errorf("count checkpoints: %w", err)
		}
		var players struct {
			PlayerCount    int64
			CompletedCount int64
			RedeemedCount  int64
		}
		err = db.Model(&models.Player{}).
			Where("game_id = ?", g.ID).
			Select("COUNT(*) AS player_count, " +
				"COUNT(completion_code) AS completed_count, " +
				"COUNT(redeemed_at) AS redeemed_count").
			Scan(&players).Error
		if err != nil {
			return nil, fmt.Errorf("count players: %w", err)
		}
		sum.PlayerCount = players.PlayerCount
		sum.CompletedCount = players.CompletedCount
		sum.RedeemedCount = players.RedeemedCount
		result = append(result, sum)
	}
	return result, nil
}

func (s *GameService) Get(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	var game models.Game
	err := s.db.WithContext(ctx).
		Preload("Checkpoints", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_number ASC")
		}).
		First(&game, "id = ?", id).Error
	if err != nil {
		return nil, lookupError(err, "game")
	}
	return &game, nil
}

// Info is the public view of a game used by the registration page.
func (s *GameService) Info(ctx context.Context, id uuid.UUID) (*GameInfo, error) {
	var game models.Game
	if err := s.db.WithContext(ctx).First(&game, "id = ?", id).Error; err != nil {
		return nil, lookupError(err, "game")
	}
	info := &GameInfo{
		ID:                game.ID,
		Name:              game.Name,
		Description:       game.Description,
		RewardDescription: game.RewardDescription,
		IsActive:          game.IsActive,
	}
	if err := s.db.WithContext(ctx).Model(&models.Checkpoint{}).Where("game_id = ?", id).Count(&info.CheckpointCount).Error; err != nil {
		return nil, err
	}
	return info, nil
}

func (s *GameService) Create(ctx context.Context, in GameInput) (*models.Game, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationError("game name is required")
	}
	game := models.Game{
		Name:              name,
		Description:       emptyToNil(in.Description),
		RewardDescription: emptyToNil(in.RewardDescription),
		IsActive:          true,
	}
	if in.IsActive != nil {
		game.IsActive = *in.IsActive
	}
	if err := s.db.WithContext(ctx).Create(&game).Error; err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	s.log.Info("game created", "game", game.ID, "name", game.Name)
	return &game, nil
}

func (s *GameService) Update(ctx context.Context, id uuid.UUID, in GameUpdate) (*models.Game, error) {
	var game models.Game
	if err := s.db.WithContext(ctx).First(&game, "id = ?", id).Error; err != nil {
		return nil, lookupError(err, "game")
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, validationError("game name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = emptyToNil(in.Description)
	}
	if in.RewardDescription != nil {
		updates["reward_description"] = emptyToNil(in.RewardDescription)
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&game).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update game: %w", err)
		}
	}
	return s.reload(ctx, id)
}

func (s *GameService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.Game, error) {
	return s.Update(ctx, id, GameUpdate{IsActive: &active})
}

// Delete removes the game together with its checkpoints, players and answers.
func (s *GameService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var game models.Game
		if err := tx.First(&game, "id = ?", id).Error; err != nil {
			return lookupError(err, "game")
		}
		if err := tx.Where("player_id IN (?)", tx.Model(&models.Player{}).Select("id").Where("game_id = ?", id)).
			Delete(&models.PlayerCheckpoint{}).Error; err != nil {
			return err
		}
		if err := tx.Where("game_id = ?", id).Delete(&models.Player{}).Error; err != nil {
			return err
		}
		if err := tx.Where("game_id = ?", id).Delete(&models.Checkpoint{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&game).Error; err != nil {
			return err
		}
		s.log.Info("game deleted", "game", id)
		return nil
	})
}

// Clone copies a game and its checkpoints. The copy starts inactive and every
// checkpoint gets a new QR token so printed codes of the original stay unique.
func (s *GameService) Clone(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	var clone models.Game
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var original models.Game
		if err := tx.First(&original, "id = ?", id).Error; err != nil {
			return lookupError(err, "game")
		}

		clone = models.Game{
			Name:              original.Name + " (kopie)",
			Description:       original.Description,
			RewardDescription: original.RewardDescription,
			IsActive:          false,
		}
		if err := tx.Create(&clone).Error; err != nil {
			return fmt.Errorf("create clone: %w", err)
		}

		var checkpoints []models.Checkpoint
		if err := tx.Where("game_id = ?", id).Order("order_number ASC").Find(&checkpoints).Error; err != nil {
			return err
		}
		for _, cp := range checkpoints {
			token, err := tokens.QRToken()
			if err != nil {
				return err
			}
			copied := models.Checkpoint{
				GameID:             clone.ID,
				Name:               cp.Name,
				Question:           cp.Question,
				Answers:            append([]string(nil), cp.Answers...),
				CorrectAnswerIndex: cp.CorrectAnswerIndex,
				OrderNumber:        cp.OrderNumber,
				QRToken:            token,
			}
			if err := tx.Create(&copied).Error; err != nil {
				return fmt.Errorf("clone checkpoint: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("game cloned", "from", id, "to", clone.ID)
	return s.reload(ctx, clone.ID)
}

func (s *GameService) reload(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	var game models.Game
	if err := s.db.WithContext(ctx).First(&game, "id = ?", id).Error; err != nil {
		return nil, lookupError(err, "game")
	}
	return &game, nil
}

func emptyToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
