// Package mail delivers outbound messages for the auth flows. The rest
// of the system consumes it through the Mailer interface: send one HTML
// message to one address, report success or failure.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"
)

type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

type SMTPMailer struct {
	client *gomail.Client
	from   string
}

func NewSMTPMailer(host string, port int, user, pass, from string) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if user != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(user),
			gomail.WithPassword(pass),
		)
	}

	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: from}, nil
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject("Password reset")
	msg.SetBodyString(gomail.TypeTextHTML, fmt.Sprintf(`
		<p>A password reset was requested for your account.</p>
		<p><a href="%s">Reset your password</a></p>
		<p>The link expires in one hour. If you did not request this, ignore this message.</p>
	`, resetURL))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

// LogMailer logs reset links instead of sending them. Used in dev when
// no SMTP host is configured.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendPasswordReset(_ context.Context, to, resetURL string) error {
	m.log.Info("password reset link (smtp not configured)", "to", to, "url", resetURL)
	return nil
}
