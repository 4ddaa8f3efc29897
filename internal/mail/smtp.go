package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

// SMTPConfig describes an authenticated SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers through an SMTP relay, collecting per-recipient refusals.
type SMTPSender struct {
	cfg  SMTPConfig
	now  func() time.Time
	dial func(ctx context.Context, addr string) (net.Conn, error)
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, errors.New("mail: smtp host and from address are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	d := &net.Dialer{Timeout: 10 * time.Second}
	return &SMTPSender{
		cfg: cfg,
		now: time.Now,
		dial: func(ctx context.Context, addr string) (net.Conn, error) {
			return d.DialContext(ctx, "tcp", addr)
		},
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (Report, error) {
	if err := msg.Validate(); err != nil {
		return Report{}, err
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	conn, err := s.dial(ctx, addr)
	if err != nil {
		return Report{}, fmt.Errorf("mail: dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return Report{}, fmt.Errorf("mail: handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return Report{}, fmt.Errorf("mail: starttls: %w", err)
		}
	}
	if s.cfg.Username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
				return Report{}, fmt.Errorf("mail: auth: %w", err)
			}
		}
	}
	if err := c.Mail(s.cfg.From); err != nil {
		return Report{}, fmt.Errorf("mail: sender refused: %w", err)
	}

	var report Report
	for _, rcpt := range msg.To {
		if err := c.Rcpt(rcpt); err != nil {
			report.Rejected = append(report.Rejected, rcpt)
			continue
		}
		report.Accepted = append(report.Accepted, rcpt)
	}
	if len(report.Accepted) == 0 {
		_ = c.Reset()
		return report, nil
	}

	raw, err := Compose(s.cfg.From, msg, s.now())
	if err != nil {
		return report, err
	}
	w, err := c.Data()
	if err != nil {
		return report, fmt.Errorf("mail: data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return report, fmt.Errorf("mail: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return report, fmt.Errorf("mail: finish data: %w", err)
	}
	return report, c.Quit()
}
