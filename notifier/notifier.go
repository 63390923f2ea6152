package notifier

import (
	"context"
	"fmt"
	"time"

	"aceofspace-go/config"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"
)

// Notifier delivers one-time codes and account mail. Calls are synchronous
// and bounded by the implementation's own timeout.
type Notifier interface {
	SendOTP(ctx context.Context, address, code string) error
	SendMail(ctx context.Context, address, subject, htmlBody string) error
}

// New returns an SMTP notifier, or a log-only one when no host is set.
func New(cfg config.SMTPConfig, otpTTL time.Duration, log *zap.Logger) Notifier {
	if cfg.Host == "" {
		return NewLogNotifier(log)
	}
	return NewSMTPNotifier(cfg, otpTTL, log)
}

type SMTPNotifier struct {
	dialer  *gomail.Dialer
	from    string
	timeout time.Duration
	otpTTL  time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewSMTPNotifier(cfg config.SMTPConfig, otpTTL time.Duration, log *zap.Logger) *SMTPNotifier {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &SMTPNotifier{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		timeout: cfg.Timeout,
		otpTTL:  otpTTL,
		limiter: rate.NewLimiter(limit, 1),
		logger:  log.Named("smtp"),
	}
}

func (n *SMTPNotifier) SendOTP(ctx context.Context, address, code string) error {
	body := fmt.Sprintf("<p>Your OTP code is <b>%s</b>.</p><p>It will expire in %s.</p>", code, humanize(n.otpTTL))
	return n.SendMail(ctx, address, "Your OTP Code", body)
}

func (n *SMTPNotifier) SendMail(ctx context.Context, address, subject, htmlBody string) error {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	// Waiting for the provider quota counts against the same deadline.
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail to %s not sent: %w", address, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", address)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	done := make(chan error, 1)
	go func() {
		done <- n.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			n.logger.Error("mail delivery failed", zap.String("to", address), zap.String("subject", subject), zap.Error(err))
			return fmt.Errorf("send mail to %s: %w", address, err)
		}
		n.logger.Info("mail sent", zap.String("to", address), zap.String("subject", subject))
		return nil
	case <-ctx.Done():
		n.logger.Error("mail delivery timed out", zap.String("to", address), zap.String("subject", subject))
		return fmt.Errorf("send mail to %s: %w", address, ctx.Err())
	}
}

// LogNotifier writes deliveries to the log. It is used in development when
// no SMTP server is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: log.Named("mail")}
}

func (n *LogNotifier) SendOTP(ctx context.Context, address, code string) error {
	n.logger.Info("otp delivery", zap.String("to", address), zap.String("code", code))
	return nil
}

func (n *LogNotifier) SendMail(ctx context.Context, address, subject, htmlBody string) error {
	n.logger.Info("mail delivery", zap.String("to", address), zap.String("subject", subject), zap.String("body", htmlBody))
	return nil
}

func humanize(d time.Duration) string {
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return d.String()
}
