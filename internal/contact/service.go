// internal/contact/service.go
// Package contact validates contact form submissions and relays them to a
// fixed recipient by email.
package contact

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/cyborg/internal/mailer"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultDispatchTimeout bounds a single send when Config.Timeout is zero.
const DefaultDispatchTimeout = 15 * time.Second

// Config is read-only after startup.
type Config struct {
	// SiteName appears in the subject and body (default "CYBORG").
	SiteName string

	// Sender is the From address and the Reply-To fallback.
	Sender string

	// Recipient receives every inquiry.
	Recipient string

	// Timeout bounds the dispatch of one message.
	Timeout time.Duration
}

// Service validates submissions and dispatches them through a mailer.Sender.
type Service struct {
	cfg       Config
	sender    mailer.Sender
	validator *Validator
	logger    *zap.Logger
}

// NewService builds a Service. A nil logger is replaced by zap.NewNop.
func NewService(cfg Config, sender mailer.Sender, logger *zap.Logger) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultDispatchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:       cfg,
		sender:    sender,
		validator: NewValidator(),
		logger:    logger,
	}
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Submit validates sub and sends it. It returns the submission ID used in
// logs. Errors are a *ValidationError or a *mailer.DispatchError.
func (s *Service) Submit(ctx context.Context, sub Submission) (string, error) {
	if err := s.validator.Validate(sub); err != nil {
		return "", err
	}

	id := uuid.NewString()
	msg := BuildMessage(s.cfg, sub)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	if err := s.sender.Send(ctx, msg); err != nil {
		var de *mailer.DispatchError
		if !errors.As(err, &de) {
			err = &mailer.DispatchError{Stage: mailer.StageSend, Err: err}
		}
		return id, err
	}

	s.logger.Info("contact inquiry sent",
		zap.String("submission_id", id),
		zap.String("plan", sub.Plan),
		zap.Duration("elapsed", time.Since(start)),
	)
	return id, nil
}
