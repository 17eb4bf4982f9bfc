package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"qr-hunt-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RosterHeader is the header row of the player export.
var RosterHeader = []string{"Jméno", "Email", "Registrace", "Splněno stanovišť", "Dokončeno", "Kód odměny", "Marketing souhlas"}

const rosterTimeLayout = "2. 1. 2006 15:04:05"

const (
	RosterStatusInProgress = "in_progress"
	RosterStatusCompleted  = "completed"
	RosterStatusRedeemed   = "redeemed"
)

type RosterService struct {
	db  *gorm.DB
	loc *time.Location
}

func NewRosterService(db *gorm.DB, loc *time.Location) *RosterService {
	if loc == nil {
		loc = time.UTC
	}
	return &RosterService{db: db, loc: loc}
}

type RosterFilter struct {
	// Query matches name or email, case-insensitively.
	Query  string
	Status string
}

type RosterEntry struct {
	models.Player
	Answered int `json:"answeredCheckpoints"`
}

type Roster struct {
	GameID           uuid.UUID     `json:"gameId"`
	GameName         string        `json:"gameName"`
	Players          []RosterEntry `json:"players"`
	TotalCheckpoints int           `json:"totalCheckpoints"`
}

func (s *RosterService) List(ctx context.Context, gameID uuid.UUID, f RosterFilter) (*Roster, error) {
	db := s.db.WithContext(ctx)

	var game models.Game
	if err := db.First(&game, "id = ?", gameID).Error; err != nil {
		return nil, lookupError(err, "game")
	}

	var total int64
	if err := db.Model(&models.Checkpoint{}).Where("game_id = ?", gameID).Count(&total).Error; err != nil {
		return nil, err
	}

	q := db.Where("game_id = ?", gameID)
	if term := strings.ToLower(strings.TrimSpace(f.Query)); term != "" {
		like := "%" + term + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", like, like)
	}
	switch f.Status {
	case "":
	case RosterStatusInProgress:
		q = q.Where("completion_code IS NULL")
	case RosterStatusCompleted:
		q = q.Where("completion_code IS NOT NULL AND redeemed_at IS NULL")
	case RosterStatusRedeemed:
		q = q.Where("redeemed_at IS NOT NULL")
	default:
		return nil, validationError("unknown status filter " + f.Status)
	}

	var players []models.Player
	if err := q.Order("created_at DESC").Find(&players).Error; err != nil {
		return nil, err
	}

	var tallies []struct {
		PlayerID uuid.UUID
		Answered int
	}
	err := db.Model(&models.PlayerCheckpoint{}).
		Select("player_checkpoints.player_id AS player_id, COUNT(*) AS answered").
		Joins("JOIN checkpoints ON checkpoints.id = player_checkpoints.checkpoint_id").
		Where("checkpoints.game_id = ?", gameID).
		Group("player_checkpoints.player_id").
		Scan(&tallies).Error
	if err != nil {
		return nil, err
	}
	answered := make(map[uuid.UUID]int, len(tallies))
	for _, t := range tallies {
		answered[t.PlayerID] = t.Answered
	}

	roster := &Roster{
		GameID:           game.ID,
		GameName:         game.Name,
		Players:          make([]RosterEntry, 0, len(players)),
		TotalCheckpoints: int(total),
	}
	for _, p := range players {
		roster.Players = append(roster.Players, RosterEntry{Player: p, Answered: answered[p.ID]})
	}
	return roster, nil
}

// Records renders the roster as export rows, header first.
func (s *RosterService) Records(r *Roster) [][]string {
	out := make([][]string, 0, len(r.Players)+1)
	out = append(out, RosterHeader)
	for _, p := range r.Players {
		completed := "Ne"
		if p.CompletedAt != nil {
			completed = s.formatTime(*p.CompletedAt)
		}
		code := "-"
		if p.CompletionCode != nil {
			code = *p.CompletionCode
		}
		marketing := "Ne"
		if p.MarketingConsent {
			marketing = "Ano"
		}
		out = append(out, []string{
			p.Name,
			p.Email,
			s.formatTime(p.CreatedAt),
			fmt.Sprintf("%d/%d", p.Answered, r.TotalCheckpoints),
			completed,
			code,
			marketing,
		})
	}
	return out
}

func (s *RosterService) WriteCSV(w io.Writer, r *Roster) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(s.Records(r)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func (s *RosterService) formatTime(t time.Time) string {
	return t.In(s.loc).Format(rosterTimeLayout)
}
