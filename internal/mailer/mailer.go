// internal/mailer/mailer.go
// Package mailer delivers plain-text messages through an SMTP relay.
// It wraps github.com/wneessen/go-mail; every Send opens its own
// connection, upgrades it (STARTTLS or implicit TLS), authenticates,
// sends and closes.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/wneessen/go-mail"
)

// DefaultTimeout bounds dial and SMTP operations when Config.Timeout is zero.
const DefaultTimeout = 15 * time.Second

// Config holds SMTP relay configuration.
type Config struct {
	// Host is the SMTP relay hostname (e.g., "smtp.gmail.com")
	Host string

	// Port is the relay port (587 for STARTTLS, 465 for implicit TLS)
	Port int

	// Username and Password authenticate with SMTP AUTH PLAIN.
	// No authentication is attempted when Username is empty.
	Username string
	Password string

	// FromName is the optional display name for the From header.
	FromName string

	// UseSSL selects implicit TLS instead of mandatory STARTTLS.
	UseSSL bool

	// Timeout for dial and SMTP operations.
	Timeout time.Duration
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Message is a single plain-text email.
type Message struct {
	From     string
	To       []string
	ReplyTo  string
	Subject  string
	TextBody string
}

// Sender dispatches a Message. Any failure is returned as a *DispatchError.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Stage names the step of a dispatch that failed.
type Stage string

const (
	StageBuild  Stage = "build"
	StageClient Stage = "client"
	StageSend   Stage = "send"
)

// DispatchError reports a failed delivery. The cause is meant for logs only.
type DispatchError struct {
	Stage Stage
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("mailer: %s: %v", e.Stage, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// SMTPSender sends messages using the configured relay.
type SMTPSender struct {
	cfg Config
}

// NewSMTPSender creates a sender, filling in the port and timeout defaults.
func NewSMTPSender(cfg Config) *SMTPSender {
	if cfg.Port == 0 {
		if cfg.UseSSL {
			cfg.Port = 465
		} else {
			cfg.Port = 587
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &SMTPSender{cfg: cfg}
}

// Config returns the effective configuration.
func (s *SMTPSender) Config() Config {
	return s.cfg
}

// Send builds and delivers msg.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := s.build(msg)
	if err != nil {
		return &DispatchError{Stage: StageBuild, Err: err}
	}

	c, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return &DispatchError{Stage: StageClient, Err: err}
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return &DispatchError{Stage: StageSend, Err: err}
	}
	return nil
}

// build converts msg into a go-mail message.
func (s *SMTPSender) build(msg Message) (*mail.Msg, error) {
	if msg.From == "" {
		return nil, errors.New("no sender specified")
	}
	if len(msg.To) == 0 {
		return nil, errors.New("no recipients specified")
	}
	if msg.TextBody == "" {
		return nil, errors.New("message body is empty")
	}

	m := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := m.FromFormat(s.cfg.FromName, msg.From); err != nil {
			return nil, fmt.Errorf("invalid from address: %w", err)
		}
	} else if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}

	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}

	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("invalid reply-to address: %w", err)
		}
	}

	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	return m, nil
}

func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
	}

	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	if s.cfg.UseSSL {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}
	return opts
}

// Ping opens and closes a TCP connection to the relay. It does not speak
// SMTP and is used only as a readiness probe.
func (s *SMTPSender) Ping(ctx context.Context) error {
	d := net.Dialer{Timeout: s.cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.cfg.Address(), err)
	}
	return conn.Close()
}
