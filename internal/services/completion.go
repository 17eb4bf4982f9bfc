package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qr-hunt-backend/internal/database"
	"qr-hunt-backend/internal/models"
	"qr-hunt-backend/internal/notify"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errCodeSpaceExhausted = errors.New("could not allocate a unique completion code")

type CompletionResult struct {
	CompletionCode   string    `json:"completionCode"`
	AlreadyCompleted bool      `json:"alreadyCompleted,omitempty"`
	GameID           uuid.UUID `json:"gameId"`
	PlayerID         uuid.UUID `json:"-"`
}

// Complete issues the player's completion code once every checkpoint of the
// game has been answered. Calling it again returns the code already issued.
func (s *GameplayService) Complete(ctx context.Context, sessionToken string) (*CompletionResult, error) {
	player, err := s.playerBySession(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	if player.HasCompleted() {
		return &CompletionResult{CompletionCode: *player.CompletionCode, AlreadyCompleted: true, GameID: player.GameID, PlayerID: player.ID}, nil
	}

	answered, total, err := counts(s.db.WithContext(ctx), player.ID, player.GameID)
	if err != nil {
		return nil, err
	}
	if total == 0 || answered != total {
		return nil, &IncompleteError{Answered: answered, Total: total}
	}

	code, issued, err := s.issueCode(ctx, player.ID)
	if err != nil {
		return nil, err
	}
	if !issued {
		// A concurrent request stored its code first; hand that one out.
		return &CompletionResult{CompletionCode: code, AlreadyCompleted: true, GameID: player.GameID, PlayerID: player.ID}, nil
	}

	s.log.Info("completion code issued", "game", player.GameID, "player", player.ID)
	s.dispatch(notify.CompletionNotice{
		PlayerName:        player.Name,
		PlayerEmail:       player.Email,
		CompletionCode:    code,
		GameName:          player.Game.Name,
		RewardDescription: player.Game.Reward(s.defaultReward),
	})

	return &CompletionResult{CompletionCode: code, GameID: player.GameID, PlayerID: player.ID}, nil
}

// issueCode stores a fresh code on the player unless one is already there.
// It reports the stored code and whether this call was the one to store it.
// The unique index on completion_code is authoritative; the existence probe
// only saves a round trip on the rare collision.
func (s *GameplayService) issueCode(ctx context.Context, playerID uuid.UUID) (string, bool, error) {
	db := s.db.WithContext(ctx)
	for attempt := 0; attempt < s.codeMaxAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return "", false, err
		}

		var taken int64
		if err := db.Model(&models.Player{}).Where("completion_code = ?", code).Count(&taken).Error; err != nil {
			return "", false, err
		}
		if taken > 0 {
			s.log.Warn("completion code collision", "attempt", attempt+1)
			continue
		}

		res := db.Model(&models.Player{}).
			Where("id = ? AND completion_code IS NULL", playerID).
			Updates(map[string]interface{}{
				"completion_code": code,
				"completed_at":    time.Now(),
			})
		if res.Error != nil {
			if database.IsUniqueViolation(res.Error) {
				s.log.Warn("completion code collision on write", "attempt", attempt+1)
				continue
			}
			return "", false, fmt.Errorf("store completion code: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			return code, true, nil
		}

		var p models.Player
		if err := db.Select("completion_code").First(&p, "id = ?", playerID).Error; err != nil {
			return "", false, lookupError(err, "player")
		}
		if !p.HasCompleted() {
			return "", false, fmt.Errorf("store completion code: %w", gorm.ErrRecordNotFound)
		}
		return *p.CompletionCode, false, nil
	}
	return "", false, errCodeSpaceExhausted
}

func (s *GameplayService) dispatch(n notify.CompletionNotice) {
	if s.notifier == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyCompletion(ctx, n); err != nil {
			s.log.Error("completion notice failed", "email", n.PlayerEmail, "error", err)
		}
	}()
}
