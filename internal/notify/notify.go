// Package notify delivers completion notices to players. Delivery is always
// best effort: callers log failures and carry on.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"qr-hunt-backend/internal/config"
)

type CompletionNotice struct {
	PlayerName        string `json:"to_name"`
	PlayerEmail       string `json:"to_email"`
	CompletionCode    string `json:"completion_code"`
	GameName          string `json:"game_name"`
	RewardDescription string `json:"reward_description"`
}

type Notifier interface {
	NotifyCompletion(ctx context.Context, n CompletionNotice) error
	Close() error
}

// New picks the notifier named by cfg.NotifyDriver.
func New(cfg *config.Config, log *slog.Logger) (Notifier, error) {
	switch cfg.NotifyDriver {
	case "emailjs":
		return NewEmailJS(EmailJSConfig{
			ServiceID:  cfg.EmailJSServiceID,
			TemplateID: cfg.EmailJSTemplate,
			PublicKey:  cfg.EmailJSPublicKey,
			PrivateKey: cfg.EmailJSPrivate,
			Origin:     cfg.EmailJSOrigin,
		}, log), nil
	case "amqp":
		return NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue, log)
	case "log", "", "none":
		return NewLogNotifier(log), nil
	default:
		return nil, fmt.Errorf("unknown notify driver %q", cfg.NotifyDriver)
	}
}

type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyCompletion(_ context.Context, notice CompletionNotice) error {
	n.log.Info("completion notice", "email", notice.PlayerEmail, "game", notice.GameName, "code", notice.CompletionCode)
	return nil
}

func (n *LogNotifier) Close() error { return nil }
