package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"qr-hunt-backend/internal/logger"
	"qr-hunt-backend/internal/models"
	"qr-hunt-backend/internal/notify"
	"qr-hunt-backend/internal/testutil"
	"qr-hunt-backend/internal/tokens"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notify.CompletionNotice
	err     error
}

func (n *recordingNotifier) NotifyCompletion(_ context.Context, notice notify.CompletionNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return n.err
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) sent() []notify.CompletionNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.CompletionNotice(nil), n.notices...)
}

func seedGame(t *testing.T, db *gorm.DB, active bool, checkpoints int) (models.Game, []models.Checkpoint) {
	t.Helper()
	reward := "Káva zdarma"
	game := models.Game{Name: "Letní hra", RewardDescription: &reward}
	if err := db.Create(&game).Error; err != nil {
		t.Fatal(err)
	}
	if active {
		if err := db.Model(&game).Update("is_active", true).Error; err != nil {
			t.Fatal(err)
		}
		game.IsActive = true
	}
	var cps []models.Checkpoint
	for i := 0; i < checkpoints; i++ {
		cp := models.Checkpoint{
			GameID:             game.ID,
			Name:               fmt.Sprintf("Stanoviště %d", i+1),
			Question:           fmt.Sprintf("Otázka %d?", i+1),
			Answers:            []string{"A", "B", "C"},
			CorrectAnswerIndex: 1,
			OrderNumber:        i + 1,
			QRToken:            uuid.NewString(),
		}
		if err := db.Create(&cp).Error; err != nil {
			t.Fatal(err)
		}
		cps = append(cps, cp)
	}
	return game, cps
}

type GameplayTestSuite struct {
	suite.Suite
	db       *gorm.DB
	notifier *recordingNotifier
	svc      *GameplayService
	ctx      context.Context
}

func TestGameplaySuite(t *testing.T) {
	suite.Run(t, new(GameplayTestSuite))
}

func (s *GameplayTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.notifier = &recordingNotifier{}
	s.svc = NewGameplayService(s.db, logger.Discard(), s.notifier, GameplayOptions{DefaultReward: "Odměna"})
	s.ctx = context.Background()
}

func (s *GameplayTestSuite) register(gameID uuid.UUID, email string) string {
	res, err := s.svc.Register(s.ctx, RegisterInput{GameID: gameID, Name: "Jana", Email: email, GDPRConsent: true})
	s.Require().NoError(err)
	return res.SessionToken
}

func (s *GameplayTestSuite) TestRegisterIsIdempotentPerGameAndEmail() {
	game, _ := seedGame(s.T(), s.db, true, 1)

	first, err := s.svc.Register(s.ctx, RegisterInput{GameID: game.ID, Name: "Jana", Email: "jana@example.com", GDPRConsent: true})
	s.Require().NoError(err)
	s.False(first.Returning)
	s.Len(first.SessionToken, 21)

	second, err := s.svc.Register(s.ctx, RegisterInput{GameID: game.ID, Name: "Jana N.", Email: " JANA@example.com ", GDPRConsent: true})
	s.Require().NoError(err)
	s.True(second.Returning)
	s.Equal(first.SessionToken, second.SessionToken)

	var count int64
	s.db.Model(&models.Player{}).Count(&count)
	s.EqualValues(1, count)
}

func (s *GameplayTestSuite) TestRegisterSameEmailDifferentGames() {
	g1, _ := seedGame(s.T(), s.db, true, 1)
	g2, _ := seedGame(s.T(), s.db, true, 1)

	t1 := s.register(g1.ID, "jana@example.com")
	t2 := s.register(g2.ID, "jana@example.com")
	s.NotEqual(t1, t2)
}

func (s *GameplayTestSuite) TestRegisterValidation() {
	game, _ := seedGame(s.T(), s.db, true, 1)

	tests := []struct {
		description string
		input       RegisterInput
		want        error
	}{
		{"missing name", RegisterInput{GameID: game.ID, Email: "a@b.cz", GDPRConsent: true}, ErrValidation},
		{"bad email", RegisterInput{GameID: game.ID, Name: "A", Email: "not-an-email", GDPRConsent: true}, ErrValidation},
		{"no consent", RegisterInput{GameID: game.ID, Name: "A", Email: "a@b.cz"}, ErrValidation},
		{"unknown game", RegisterInput{GameID: uuid.New(), Name: "A", Email: "a@b.cz", GDPRConsent: true}, ErrNotFound},
	}
	for _, tc := range tests {
		s.Run(tc.description, func() {
			_, err := s.svc.Register(s.ctx, tc.input)
			s.ErrorIs(err, tc.want)
		})
	}
}

func (s *GameplayTestSuite) TestRegisterRejectsInactiveGame() {
	game, _ := seedGame(s.T(), s.db, false, 1)
	_, err := s.svc.Register(s.ctx, RegisterInput{GameID: game.ID, Name: "A", Email: "a@b.cz", GDPRConsent: true})
	s.ErrorIs(err, ErrNotFound)
}

func (s *GameplayTestSuite) TestScanFlow() {
	game, cps := seedGame(s.T(), s.db, true, 2)

	res, err := s.svc.Scan(s.ctx, cps[0].QRToken, "")
	s.Require().NoError(err)
	s.Equal(ScanActionRegister, res.Action)
	s.Equal(game.ID, res.GameID)
	s.Equal(game.Name, res.GameName)

	res, err = s.svc.Scan(s.ctx, cps[0].QRToken, "unknown-session")
	s.Require().NoError(err)
	s.Equal(ScanActionRegister, res.Action)

	token := s.register(game.ID, "jana@example.com")
	res, err = s.svc.Scan(s.ctx, cps[0].QRToken, token)
	s.Require().NoError(err)
	s.Equal(ScanActionQuestion, res.Action)
	s.Equal(cps[0].Question, res.Question)
	s.Equal([]string{"A", "B", "C"}, res.Answers)
	s.Equal(cps[0].ID, *res.CheckpointID)

	_, err = s.svc.SubmitAnswer(s.ctx, token, cps[0].ID, 0)
	s.Require().NoError(err)

	res, err = s.svc.Scan(s.ctx, cps[0].QRToken, token)
	s.Require().NoError(err)
	s.Equal(ScanActionAlreadyAnswered, res.Action)
	s.Require().NotNil(res.AnsweredCorrectly)
	s.False(*res.AnsweredCorrectly)

	_, err = s.svc.SubmitAnswer(s.ctx, token, cps[1].ID, 1)
	s.Require().NoError(err)
	done, err := s.svc.Complete(s.ctx, token)
	s.Require().NoError(err)

	res, err = s.svc.Scan(s.ctx, cps[1].QRToken, token)
	s.Require().NoError(err)
	s.Equal(ScanActionCompleted, res.Action)
	s.Equal(done.CompletionCode, res.CompletionCode)
}

func (s *GameplayTestSuite) TestScanSessionFromOtherGameMustRegister() {
	_, cps1 := seedGame(s.T(), s.db, true, 1)
	g2, _ := seedGame(s.T(), s.db, true, 1)

	token := s.register(g2.ID, "jana@example.com")
	res, err := s.svc.Scan(s.ctx, cps1[0].QRToken, token)
	s.Require().NoError(err)
	s.Equal(ScanActionRegister, res.Action)
}

func (s *GameplayTestSuite) TestScanInactiveGameAlwaysRejected() {
	game, cps := seedGame(s.T(), s.db, true, 1)
	token := s.register(game.ID, "jana@example.com")
	s.Require().NoError(s.db.Model(&models.Game{}).Where("id = ?", game.ID).Update("is_active", false).Error)

	for _, session := range []string{"", "garbage", token} {
		_, err := s.svc.Scan(s.ctx, cps[0].QRToken, session)
		s.ErrorIs(err, ErrGameInactive, "session %q", session)
	}
}

func (s *GameplayTestSuite) TestScanUnknownToken() {
	_, err := s.svc.Scan(s.ctx, "nope", "")
	s.ErrorIs(err, ErrNotFound)

	_, err = s.svc.Scan(s.ctx, "  ", "")
	s.ErrorIs(err, ErrValidation)
}

func (s *GameplayTestSuite) TestSubmitAnswerTwiceConflicts() {
	game, cps := seedGame(s.T(), s.db, true, 2)
	token := s.register(game.ID, "jana@example.com")

	res, err := s.svc.SubmitAnswer(s.ctx, token, cps[0].ID, 1)
	s.Require().NoError(err)
	s.True(res.Correct)
	s.Equal(1, res.Answered)
	s.Equal(2, res.Total)
	s.False(res.AllCompleted)

	_, err = s.svc.SubmitAnswer(s.ctx, token, cps[0].ID, 0)
	s.ErrorIs(err, ErrAlreadyAnswered)

	var records []models.PlayerCheckpoint
	s.db.Where("checkpoint_id = ?", cps[0].ID).Find(&records)
	s.Require().Len(records, 1)
	s.True(records[0].AnsweredCorrectly)
}

func (s *GameplayTestSuite) TestSubmitWrongAnswerRevealsCorrectOne() {
	game, cps := seedGame(s.T(), s.db, true, 1)
	token := s.register(game.ID, "jana@example.com")

	res, err := s.svc.SubmitAnswer(s.ctx, token, cps[0].ID, 2)
	s.Require().NoError(err)
	s.False(res.Correct)
	s.Equal("B", res.CorrectAnswer)
	s.True(res.AllCompleted)
	s.Equal(game.ID, res.GameID)
}

func (s *GameplayTestSuite) TestSubmitAnswerCrossGameRejected() {
	g1, _ := seedGame(s.T(), s.db, true, 1)
	_, cps2 := seedGame(s.T(), s.db, true, 1)
	token := s.register(g1.ID, "jana@example.com")

	_, err := s.svc.SubmitAnswer(s.ctx, token, cps2[0].ID, 1)
	s.ErrorIs(err, ErrNotFound)
}

func (s *GameplayTestSuite) TestSubmitAnswerValidation() {
	game, cps := seedGame(s.T(), s.db, true, 1)
	token := s.register(game.ID, "jana@example.com")

	_, err := s.svc.SubmitAnswer(s.ctx, token, cps[0].ID, 3)
	s.ErrorIs(err, ErrValidation)
	_, err = s.svc.SubmitAnswer(s.ctx, token, cps[0].ID, -1)
	s.ErrorIs(err, ErrValidation)
	_, err = s.svc.SubmitAnswer(s.ctx, "missing", cps[0].ID, 0)
	s.ErrorIs(err, ErrNotFound)
	_, err = s.svc.SubmitAnswer(s.ctx, token, uuid.Nil, 0)
	s.ErrorIs(err, ErrValidation)
}

func (s *GameplayTestSuite) TestCompleteRequiresAllCheckpoints() {
	game, cps := seedGame(s.T(), s.db, true, 3)
	token := s.register(game.ID, "jana@example.com")
	_, err := s.svc.SubmitAnswer(s.ctx, token, cps[0].ID, 1)
	s.Require().NoError(err)

	_, err = s.svc.Complete(s.ctx, token)
	var incomplete *IncompleteError
	s.Require().True(errors.As(err, &incomplete))
	s.Equal(1, incomplete.Answered)
	s.Equal(3, incomplete.Total)

	var p models.Player
	s.db.First(&p, "session_token = ?", token)
	s.Nil(p.CompletionCode)
}

func (s *GameplayTestSuite) TestCompleteEmptyGameIsIncomplete() {
	game, _ := seedGame(s.T(), s.db, true, 0)
	token := s.register(game.ID, "jana@example.com")

	_, err := s.svc.Complete(s.ctx, token)
	var incomplete *IncompleteError
	s.True(errors.As(err, &incomplete))
}

// Three checkpoints, two right and one wrong, through to redemption.
func (s *GameplayTestSuite) TestFullGameToRedemption() {
	game, cps := seedGame(s.T(), s.db, true, 3)
	token := s.register(game.ID, "jana@example.com")

	for i, idx := range []int{1, 1, 0} {
		_, err := s.svc.SubmitAnswer(s.ctx, token, cps[i].ID, idx)
		s.Require().NoError(err)
	}

	done, err := s.svc.Complete(s.ctx, token)
	s.Require().NoError(err)
	s.False(done.AlreadyCompleted)
	s.True(tokens.IsCompletionCode(done.CompletionCode), done.CompletionCode)

	again, err := s.svc.Complete(s.ctx, token)
	s.Require().NoError(err)
	s.True(again.AlreadyCompleted)
	s.Equal(done.CompletionCode, again.CompletionCode)

	s.svc.Wait()
	sent := s.notifier.sent()
	s.Require().Len(sent, 1)
	s.Equal("jana@example.com", sent[0].PlayerEmail)
	s.Equal("Káva zdarma", sent[0].RewardDescription)
	s.Equal(done.CompletionCode, sent[0].CompletionCode)

	redemption := NewRedemptionService(s.db, logger.Discard())
	v, err := redemption.Verify(s.ctx, " "+done.CompletionCode+" ")
	s.Require().NoError(err)
	s.True(v.Valid)
	s.Equal("Jana", v.PlayerName)
	s.Equal("jana@example.com", v.PlayerEmail)
	s.Equal("Káva zdarma", *v.RewardDescription)
	s.NotNil(v.CompletedAt)
	s.Nil(v.RedeemedAt)

	r, err := redemption.Redeem(s.ctx, done.CompletionCode)
	s.Require().NoError(err)
	s.True(r.Redeemed)
	s.False(r.RedeemedAt.IsZero())

	_, err = redemption.Redeem(s.ctx, done.CompletionCode)
	s.ErrorIs(err, ErrAlreadyRedeemed)

	v, err = redemption.Verify(s.ctx, done.CompletionCode)
	s.Require().NoError(err)
	s.NotNil(v.RedeemedAt)
}

func (s *GameplayTestSuite) TestCompleteNotificationFailureDoesNotFail() {
	s.notifier.err = errors.New("smtp down")
	game, cps := seedGame(s.T(), s.db, true, 1)
	token := s.register(game.ID, "jana@example.com")
	_, err := s.svc.SubmitAnswer(s.ctx, token, cps[0].ID, 1)
	s.Require().NoError(err)

	done, err := s.svc.Complete(s.ctx, token)
	s.Require().NoError(err)
	s.NotEmpty(done.CompletionCode)
	s.svc.Wait()
	s.Len(s.notifier.sent(), 1)
}

func (s *GameplayTestSuite) TestCompleteUsesDefaultReward() {
	game := models.Game{Name: "Bez odměny"}
	s.Require().NoError(s.db.Create(&game).Error)
	s.Require().NoError(s.db.Model(&game).Update("is_active", true).Error)
	cp := models.Checkpoint{GameID: game.ID, Name: "cp", Question: "q", Answers: []string{"a", "b"}, QRToken: "t-default"}
	s.Require().NoError(s.db.Create(&cp).Error)

	token := s.register(game.ID, "jana@example.com")
	_, err := s.svc.SubmitAnswer(s.ctx, token, cp.ID, 0)
	s.Require().NoError(err)
	_, err = s.svc.Complete(s.ctx, token)
	s.Require().NoError(err)

	s.svc.Wait()
	s.Equal("Odměna", s.notifier.sent()[0].RewardDescription)
}

func (s *GameplayTestSuite) TestIssueCodeRetriesOnCollision() {
	game, _ := seedGame(s.T(), s.db, true, 0)
	taken := "AAAA2222"
	other := models.Player{GameID: game.ID, Name: "X", Email: "x@example.com", SessionToken: "x", GDPRConsent: true, CompletionCode: &taken}
	s.Require().NoError(s.db.Create(&other).Error)
	token := s.register(game.ID, "jana@example.com")
	var p models.Player
	s.Require().NoError(s.db.First(&p, "session_token = ?", token).Error)

	codes := []string{taken, taken, "BBBB3333"}
	calls := 0
	s.svc.newCode = func() (string, error) {
		c := codes[calls]
		calls++
		return c, nil
	}

	code, issued, err := s.svc.issueCode(s.ctx, p.ID)
	s.Require().NoError(err)
	s.True(issued)
	s.Equal("BBBB3333", code)
	s.Equal(3, calls)
}

func (s *GameplayTestSuite) TestIssueCodeGivesUpAfterBoundedAttempts() {
	game, _ := seedGame(s.T(), s.db, true, 0)
	taken := "AAAA2222"
	other := models.Player{GameID: game.ID, Name: "X", Email: "x@example.com", SessionToken: "x", GDPRConsent: true, CompletionCode: &taken}
	s.Require().NoError(s.db.Create(&other).Error)
	token := s.register(game.ID, "jana@example.com")
	var p models.Player
	s.Require().NoError(s.db.First(&p, "session_token = ?", token).Error)

	calls := 0
	s.svc.newCode = func() (string, error) {
		calls++
		return taken, nil
	}

	_, _, err := s.svc.issueCode(s.ctx, p.ID)
	s.ErrorIs(err, errCodeSpaceExhausted)
	s.Equal(10, calls)
}

func (s *GameplayTestSuite) TestIssueCodeKeepsCodeStoredByConcurrentRequest() {
	game, _ := seedGame(s.T(), s.db, true, 0)
	token := s.register(game.ID, "jana@example.com")
	var p models.Player
	s.Require().NoError(s.db.First(&p, "session_token = ?", token).Error)
	s.Require().NoError(s.db.Model(&p).Update("completion_code", "CCCC4444").Error)

	code, issued, err := s.svc.issueCode(s.ctx, p.ID)
	s.Require().NoError(err)
	s.False(issued)
	s.Equal("CCCC4444", code)
}

func (s *GameplayTestSuite) TestProgress() {
	game, cps := seedGame(s.T(), s.db, true, 3)
	token := s.register(game.ID, "jana@example.com")
	_, err := s.svc.SubmitAnswer(s.ctx, token, cps[1].ID, 0)
	s.Require().NoError(err)

	p, err := s.svc.Progress(s.ctx, token, game.ID)
	s.Require().NoError(err)
	s.Equal(3, p.Total)
	s.Equal(1, p.Answered)
	s.Nil(p.CompletionCode)
	s.Require().Len(p.Checkpoints, 3)
	s.Equal(cps[0].ID, p.Checkpoints[0].ID)
	s.False(p.Checkpoints[0].Answered)
	s.Nil(p.Checkpoints[0].AnsweredCorrectly)
	s.True(p.Checkpoints[1].Answered)
	s.False(*p.Checkpoints[1].AnsweredCorrectly)

	_, err = s.svc.Progress(s.ctx, token, uuid.New())
	s.ErrorIs(err, ErrNotFound)
}

// raceOutcome runs fn from n goroutines released at once and tallies results.
func raceOutcome(n int, conflict error, fn func() error) (ok, conflicts int, others []error) {
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := fn()
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, conflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}()
	}
	close(start)
	wg.Wait()
	return ok, conflicts, others
}

func (s *GameplayTestSuite) TestConcurrentAnswersRecordOnce() {
	game, cps := seedGame(s.T(), s.db, true, 2)
	token := s.register(game.ID, "jana@example.com")

	const n = 8
	ok, conflicts, others := raceOutcome(n, ErrAlreadyAnswered, func() error {
		_, err := s.svc.SubmitAnswer(s.ctx, token, cps[0].ID, 1)
		return err
	})
	s.Empty(others)
	s.Equal(1, ok)
	s.Equal(n-1, conflicts)

	var count int64
	s.db.Model(&models.PlayerCheckpoint{}).Where("checkpoint_id = ?", cps[0].ID).Count(&count)
	s.EqualValues(1, count)
}

func (s *GameplayTestSuite) TestConcurrentRedeemSucceedsOnce() {
	game, cps := seedGame(s.T(), s.db, true, 1)
	token := s.register(game.ID, "jana@example.com")
	_, err := s.svc.SubmitAnswer(s.ctx, token, cps[0].ID, 1)
	s.Require().NoError(err)
	done, err := s.svc.Complete(s.ctx, token)
	s.Require().NoError(err)

	redemption := NewRedemptionService(s.db, logger.Discard())
	const n = 8
	ok, conflicts, others := raceOutcome(n, ErrAlreadyRedeemed, func() error {
		_, err := redemption.Redeem(s.ctx, done.CompletionCode)
		return err
	})
	s.Empty(others)
	s.Equal(1, ok)
	s.Equal(n-1, conflicts)

	var p models.Player
	s.Require().NoError(s.db.First(&p, "session_token = ?", token).Error)
	s.NotNil(p.RedeemedAt)
}

func (s *GameplayTestSuite) TestRedemptionRejectsMalformedCode() {
	redemption := NewRedemptionService(s.db, logger.Discard())

	for _, code := range []string{"ABC", "ABCD23450", "ABCD-234", "ABCD1234"} {
		_, err := redemption.Verify(s.ctx, code)
		s.ErrorIs(err, ErrValidation, code)
		_, err = redemption.Redeem(s.ctx, code)
		s.ErrorIs(err, ErrValidation, code)
	}

	_, err := redemption.Verify(s.ctx, "ZZZZ9999")
	s.ErrorIs(err, ErrNotFound)
}
