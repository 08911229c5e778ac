// Package notify renders and delivers account verification messages.
//
// Every sink implements
//
//	SendVerification(ctx, email, rawToken, accountID) (deliveryRef string, err error)
//
// where deliveryRef is a debug artifact (a preview link) that callers only
// surface outside production.
package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

const DefaultFrom = `"No Reply" <no-reply@sessionkeeper.local>`

const verificationSubject = "Verify your email"

var verificationHTML = template.Must(template.New("verify").Parse(
	`<p>Click <a href="{{.Link}}">here</a> to verify your account</p>`))

// Message is a rendered email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
	Link    string
}

// VerificationLink builds <appURL>/verify-email?token=<raw>&id=<accountID>.
func VerificationLink(appURL, rawToken, accountID string) string {
	q := url.Values{}
	q.Set("token", rawToken)
	q.Set("id", accountID)
	return strings.TrimRight(appURL, "/") + "/verify-email?" + q.Encode()
}

// RenderVerification produces the verification email for one recipient.
func RenderVerification(from, appURL, to, rawToken, accountID string) (*Message, error) {
	link := VerificationLink(appURL, rawToken, accountID)

	var html bytes.Buffer
	if err := verificationHTML.Execute(&html, struct{ Link string }{link}); err != nil {
		return nil, fmt.Errorf("render verification email: %w", err)
	}

	if from == "" {
		from = DefaultFrom
	}

	return &Message{
		From:    from,
		To:      to,
		Subject: verificationSubject,
		HTML:    html.String(),
		Text:    "Verify: " + link,
		Link:    link,
	}, nil
}
