package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"qr-hunt-backend/internal/models"
	"qr-hunt-backend/internal/tokens"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RedemptionService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewRedemptionService(db *gorm.DB, log *slog.Logger) *RedemptionService {
	return &RedemptionService{db: db, log: log}
}

type VerifyResult struct {
	Valid             bool       `json:"valid"`
	PlayerName        string     `json:"playerName"`
	PlayerEmail       string     `json:"playerEmail"`
	GameID            uuid.UUID  `json:"gameId"`
	GameName          string     `json:"gameName"`
	RewardDescription *string    `json:"rewardDescription"`
	CompletedAt       *time.Time `json:"completedAt"`
	RedeemedAt        *time.Time `json:"redeemedAt"`
}

type RedeemResult struct {
	Redeemed   bool      `json:"redeemed"`
	RedeemedAt time.Time `json:"redeemedAt"`
	GameID     uuid.UUID `json:"gameId"`
	PlayerName string    `json:"playerName"`
}

func (s *RedemptionService) findByCode(ctx context.Context, code string) (*models.Player, error) {
	code = tokens.NormalizeCode(code)
	if code == "" {
		return nil, validationError("missing code")
	}
	if !tokens.IsCompletionCode(code) {
		return nil, validationError("malformed code")
	}
	var p models.Player
	if err := s.db.WithContext(ctx).Preload("Game").Where("completion_code = ?", code).First(&p).Error; err != nil {
		return nil, lookupError(err, "code")
	}
	return &p, nil
}

// Verify looks up who owns a code and whether the reward was handed out.
func (s *RedemptionService) Verify(ctx context.Context, code string) (*VerifyResult, error) {
	p, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{
		Valid:             true,
		PlayerName:        p.Name,
		PlayerEmail:       p.Email,
		GameID:            p.GameID,
		GameName:          p.Game.Name,
		RewardDescription: p.Game.RewardDescription,
		CompletedAt:       p.CompletedAt,
		RedeemedAt:        p.RedeemedAt,
	}, nil
}

// Redeem marks a code as redeemed. Only the first call succeeds.
func (s *RedemptionService) Redeem(ctx context.Context, code string) (*RedeemResult, error) {
	p, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if p.RedeemedAt != nil {
		return nil, ErrAlreadyRedeemed
	}

	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.Player{}).
		Where("id = ? AND redeemed_at IS NULL", p.ID).
		Update("redeemed_at", now)
	if res.Error != nil {
		return nil, fmt.Errorf("redeem code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyRedeemed
	}

	s.log.Info("code redeemed", "game", p.GameID, "player", p.ID)
	return &RedeemResult{Redeemed: true, RedeemedAt: now, GameID: p.GameID, PlayerName: p.Name}, nil
}
