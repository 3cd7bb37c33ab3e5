package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"userdir/internal/model"
)

// Notifier delivers the credential email for a newly created account. Send
// may fail independently of the account creation; callers surface that as a
// partial-success signal, never a rollback.
type Notifier interface {
	Send(ctx context.Context, account *model.Account, plaintextPassword string) error
}

// SMTPNotifier delivers over a plain SMTP relay.
type SMTPNotifier struct {
	addr string
	from string
}

var _ Notifier = (*SMTPNotifier)(nil)

// NewSMTPNotifier creates a notifier for the given relay address ("host:port").
func NewSMTPNotifier(addr, from string) *SMTPNotifier {
	return &SMTPNotifier{addr: addr, from: from}
}

// Send mails the initial credentials. The context deadline bounds the call:
// a relay that hangs past it is reported as a delivery failure rather than
// blocking the response.
func (n *SMTPNotifier) Send(ctx context.Context, account *model.Account, plaintextPassword string) error {
	msg := buildMessage(n.from, account, plaintextPassword)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(n.addr, nil, n.from, []string{account.Email}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send credential email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send credential email: %w", ctx.Err())
	}
}

func buildMessage(from string, account *model.Account, plaintextPassword string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", account.Email)
	fmt.Fprintf(&b, "Subject: Your directory account\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Hello %s,\r\n\r\n", account.FullName())
	fmt.Fprintf(&b, "An account has been created for you.\r\n")
	fmt.Fprintf(&b, "Email: %s\r\nPassword: %s\r\n\r\n", account.Email, plaintextPassword)
	b.WriteString("Please sign in and change your password.\r\n")
	return []byte(b.String())
}

// LogNotifier is used when no SMTP relay is configured. It records that a
// credential email would have been sent, without the password.
type LogNotifier struct{}

var _ Notifier = (*LogNotifier)(nil)

// Send logs the delivery instead of performing it.
func (LogNotifier) Send(_ context.Context, account *model.Account, _ string) error {
	log.Printf("notify: credential email for %s suppressed (no SMTP relay configured)", account.Email)
	return nil
}
