package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier delivers verification mail over SMTP. It has no debug
// artifact, so deliveryRef is always empty.
type SMTPNotifier struct {
	dialer sender
	from   string
	appURL string
}

func NewSMTPNotifier(host string, port int, username, password, from, appURL string) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		appURL: appURL,
	}
}

func (n *SMTPNotifier) SendVerification(ctx context.Context, email, rawToken, accountID string) (string, error) {
	msg, err := RenderVerification(n.from, n.appURL, email, rawToken, accountID)
	if err != nil {
		return "", err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	m.AddAlternative("text/html", msg.HTML)

	// gomail has no context support; honour cancellation before dialing.
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := n.dialer.DialAndSend(m); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return "", nil
}
