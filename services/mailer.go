package services

import (
	"context"
	"fmt"
	"html"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type SendgridMailer struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

func NewSendgridMailer(key, appName, fromEmail string) *SendgridMailer {
	return &SendgridMailer{
		key:        key,
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
	}
}

func (m *SendgridMailer) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))

	mail := sgmail.NewV3Mail()
	mail.SetFrom(m.from)
	mail.AddPersonalizations(p)
	mail.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		mail.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return mail
}

func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	req := sendgrid.GetRequest(m.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(msg))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return errors.Wrap(err, "sending mail")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sendgrid rejected mail: status %d", res.StatusCode)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. Used when no
// SendGrid key is configured.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	zerolog.Ctx(ctx).Info().
		Str("to", msg.ToEmail).
		Str("subject", msg.Subject).
		Str("body", msg.Text).
		Msg("mail not sent, no mail provider configured")
	return nil
}

func NewMailer(sendgridKey, appName, fromEmail string) Mailer {
	if sendgridKey == "" {
		return LogMailer{}
	}
	return NewSendgridMailer(sendgridKey, appName, fromEmail)
}

func PasswordResetMessage(name, email, link string) Message {
	text := fmt.Sprintf("Hi %s,\n\nYou requested a password reset. Open the link below within 10 minutes to choose a new password:\n\n%s\n\nIf you did not request this, ignore this email.\n", name, link)
	body := fmt.Sprintf(`<p>Hi %s,</p><p>You requested a password reset. Open the link below within 10 minutes to choose a new password:</p><p><a href="%s">Reset password</a></p><p>If you did not request this, ignore this email.</p>`,
		html.EscapeString(name), html.EscapeString(link))
	return Message{ToName: name, ToEmail: email, Subject: "Password reset", Text: text, HTML: body}
}
