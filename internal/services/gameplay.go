package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"qr-hunt-backend/internal/database"
	"qr-hunt-backend/internal/models"
	"qr-hunt-backend/internal/notify"
	"qr-hunt-backend/internal/tokens"

	"github.com/google/uuid"
	"github.com/hashicorp/go-set/v2"
	"gorm.io/gorm"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const notifyTimeout = 15 * time.Second

// GameplayService covers everything a player does: scanning, registering,
// answering and collecting the completion code.
type GameplayService struct {
	db              *gorm.DB
	log             *slog.Logger
	notifier        notify.Notifier
	defaultReward   string
	codeMaxAttempts int
	newCode         func() (string, error)

	pending sync.WaitGroup
}

type GameplayOptions struct {
	DefaultReward   string
	CodeMaxAttempts int
}

func NewGameplayService(db *gorm.DB, log *slog.Logger, notifier notify.Notifier, opts GameplayOptions) *GameplayService {
	if opts.CodeMaxAttempts <= 0 {
		opts.CodeMaxAttempts = 10
	}
	return &GameplayService{
		db:              db,
		log:             log,
		notifier:        notifier,
		defaultReward:   opts.DefaultReward,
		codeMaxAttempts: opts.CodeMaxAttempts,
		newCode:         tokens.CompletionCode,
	}
}

// Wait blocks until in-flight notifications have finished.
func (s *GameplayService) Wait() {
	s.pending.Wait()
}

const (
	ScanActionRegister        = "register"
	ScanActionQuestion        = "question"
	ScanActionAlreadyAnswered = "already_answered"
	ScanActionCompleted       = "completed"
)

type ScanResult struct {
	Action            string     `json:"action"`
	GameID            uuid.UUID  `json:"gameId"`
	GameName          string     `json:"gameName,omitempty"`
	CheckpointID      *uuid.UUID `json:"checkpointId,omitempty"`
	CheckpointName    string     `json:"checkpointName,omitempty"`
	Question          string     `json:"question,omitempty"`
	Answers           []string   `json:"answers,omitempty"`
	AnsweredCorrectly *bool      `json:"answeredCorrectly,omitempty"`
	CompletionCode    string     `json:"completionCode,omitempty"`
}

// Scan decides what the client should show after a QR code was scanned.
func (s *GameplayService) Scan(ctx context.Context, qrToken, sessionToken string) (*ScanResult, error) {
	if strings.TrimSpace(qrToken) == "" {
		return nil, validationError("missing QR token")
	}

	var checkpoint models.Checkpoint
	err := s.db.WithContext(ctx).Preload("Game").Where("qr_token = ?", qrToken).First(&checkpoint).Error
	if err != nil {
		return nil, lookupError(err, "checkpoint")
	}
	game := checkpoint.Game
	if !game.IsActive {
		return nil, ErrGameInactive
	}

	register := &ScanResult{
		Action:         ScanActionRegister,
		GameID:         game.ID,
		GameName:       game.Name,
		CheckpointID:   &checkpoint.ID,
		CheckpointName: checkpoint.Name,
	}
	if sessionToken == "" {
		return register, nil
	}

	var player models.Player
	err = s.db.WithContext(ctx).
		Where("session_token = ? AND game_id = ?", sessionToken, game.ID).
		First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return register, nil
	}
	if err != nil {
		return nil, err
	}

	if player.HasCompleted() {
		return &ScanResult{
			Action:         ScanActionCompleted,
			GameID:         game.ID,
			CompletionCode: *player.CompletionCode,
		}, nil
	}

	var answer models.PlayerCheckpoint
	err = s.db.WithContext(ctx).
		Where("player_id = ? AND checkpoint_id = ?", player.ID, checkpoint.ID).
		First(&answer).Error
	switch {
	case err == nil:
		correct := answer.AnsweredCorrectly
		return &ScanResult{
			Action:            ScanActionAlreadyAnswered,
			GameID:            game.ID,
			CheckpointName:    checkpoint.Name,
			AnsweredCorrectly: &correct,
		}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	return &ScanResult{
		Action:         ScanActionQuestion,
		GameID:         game.ID,
		CheckpointID:   &checkpoint.ID,
		CheckpointName: checkpoint.Name,
		Question:       checkpoint.Question,
		Answers:        checkpoint.Answers,
	}, nil
}

type RegisterInput struct {
	GameID           uuid.UUID
	Name             string
	Email            string
	GDPRConsent      bool
	MarketingConsent bool
}

type RegisterResult struct {
	Player       models.Player `json:"-"`
	SessionToken string        `json:"sessionToken"`
	Returning    bool          `json:"returning"`
}

// Register creates a player for (game, email) or hands back the existing one.
func (s *GameplayService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if in.GameID == uuid.Nil || name == "" || email == "" {
		return nil, validationError("game, name and email are required")
	}
	if !in.GDPRConsent {
		return nil, validationError("consent to data processing is required")
	}
	if !emailPattern.MatchString(email) {
		return nil, validationError("invalid email format")
	}

	var game models.Game
	if err := s.db.WithContext(ctx).First(&game, "id = ?", in.GameID).Error; err != nil {
		return nil, lookupError(err, "game")
	}
	if !game.IsActive {
		return nil, notFound("game")
	}

	if existing, err := s.findPlayerByEmail(ctx, game.ID, email); err == nil {
		return &RegisterResult{Player: *existing, SessionToken: existing.SessionToken, Returning: true}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	token, err := tokens.SessionToken()
	if err != nil {
		return nil, err
	}
	player := models.Player{
		GameID:           game.ID,
		Name:             name,
		Email:            email,
		SessionToken:     token,
		GDPRConsent:      true,
		MarketingConsent: in.MarketingConsent,
	}
	if err := s.db.WithContext(ctx).Create(&player).Error; err != nil {
		if !database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("create player: %w", err)
		}
		// Lost a race against a parallel registration with the same email.
		existing, findErr := s.findPlayerByEmail(ctx, game.ID, email)
		if findErr != nil {
			return nil, fmt.Errorf("create player: %w", err)
		}
		return &RegisterResult{Player: *existing, SessionToken: existing.SessionToken, Returning: true}, nil
	}

	s.log.Info("player registered", "game", game.ID, "player", player.ID)
	return &RegisterResult{Player: player, SessionToken: token}, nil
}

func (s *GameplayService) findPlayerByEmail(ctx context.Context, gameID uuid.UUID, email string) (*models.Player, error) {
	var p models.Player
	if err := s.db.WithContext(ctx).Where("game_id = ? AND email = ?", gameID, email).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GameplayService) playerBySession(ctx context.Context, sessionToken string) (*models.Player, error) {
	if strings.TrimSpace(sessionToken) == "" {
		return nil, validationError("missing session token")
	}
	var p models.Player
	if err := s.db.WithContext(ctx).Preload("Game").Where("session_token = ?", sessionToken).First(&p).Error; err != nil {
		return nil, lookupError(err, "player")
	}
	return &p, nil
}

type CheckpointStatus struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	OrderNumber       int       `json:"orderNumber"`
	Answered          bool      `json:"answered"`
	AnsweredCorrectly *bool     `json:"answeredCorrectly,omitempty"`
}

type ProgressResult struct {
	Checkpoints    []CheckpointStatus `json:"checkpoints"`
	Answered       int                `json:"answeredCheckpoints"`
	Total          int                `json:"totalCheckpoints"`
	CompletionCode *string            `json:"completionCode"`
}

// Progress lists the game's checkpoints with the player's answer state.
func (s *GameplayService) Progress(ctx context.Context, sessionToken string, gameID uuid.UUID) (*ProgressResult, error) {
	if sessionToken == "" || gameID == uuid.Nil {
		return nil, validationError("session and game are required")
	}

	var player models.Player
	err := s.db.WithContext(ctx).
		Where("session_token = ? AND game_id = ?", sessionToken, gameID).
		First(&player).Error
	if err != nil {
		return nil, lookupError(err, "player")
	}

	var checkpoints []models.Checkpoint
	if err := s.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("order_number ASC").
		Find(&checkpoints).Error; err != nil {
		return nil, err
	}

	var answers []models.PlayerCheckpoint
	if err := s.db.WithContext(ctx).Where("player_id = ?", player.ID).Find(&answers).Error; err != nil {
		return nil, err
	}
	correct := make(map[uuid.UUID]bool, len(answers))
	answered := set.New[uuid.UUID](len(answers))
	for _, a := range answers {
		answered.Insert(a.CheckpointID)
		correct[a.CheckpointID] = a.AnsweredCorrectly
	}

	result := &ProgressResult{
		Checkpoints:    make([]CheckpointStatus, 0, len(checkpoints)),
		Total:          len(checkpoints),
		CompletionCode: player.CompletionCode,
	}
	for _, cp := range checkpoints {
		st := CheckpointStatus{ID: cp.ID, Name: cp.Name, OrderNumber: cp.OrderNumber}
		if answered.Contains(cp.ID) {
			ok := correct[cp.ID]
			st.Answered = true
			st.AnsweredCorrectly = &ok
			result.Answered++
		}
		result.Checkpoints = append(result.Checkpoints, st)
	}
	return result, nil
}

// counts returns how many of the game's checkpoints the player has answered,
// and how many checkpoints the game has.
func counts(tx *gorm.DB, playerID, gameID uuid.UUID) (answered, total int, err error) {
	var a, t int64
	if err = tx.Model(&models.Checkpoint{}).Where("game_id = ?", gameID).Count(&t).Error; err != nil {
		return 0, 0, err
	}
	err = tx.Model(&models.PlayerCheckpoint{}).
		Joins("JOIN checkpoints ON checkpoints.id = player_checkpoints.checkpoint_id").
		Where("player_checkpoints.player_id = ? AND checkpoints.game_id = ?", playerID, gameID).
		Count(&a).Error
	if err != nil {
		return 0, 0, err
	}
	return int(a), int(t), nil
}

func lookupError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(what)
	}
	return fmt.Errorf("load %s: %w", what, err)
}
