package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
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

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendgridMailer delivers mail through the SendGrid v3 API.
type SendgridMailer struct {
	key  string
	from *mail.Email
}

var _ Mailer = (*SendgridMailer)(nil)

func NewSendgridMailer(apiKey, from string) *SendgridMailer {
	return &SendgridMailer{key: apiKey, from: mail.NewEmail("WorldCourse", from)}
}

func (m *SendgridMailer) prepare(msg Message) *mail.SGMailV3 {
	p := mail.NewPersonalization()
	p.Subject = "[WorldCourse] " + msg.Subject
	p.AddTos(mail.NewEmail(msg.ToName, msg.ToEmail))

	v3 := mail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(mail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		v3.AddContent(mail.NewContent("text/html", msg.HTML))
	}
	return v3
}

func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	req := sendgrid.GetRequest(m.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = mail.GetRequestBody(m.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return errors.Wrap(err, "sendgrid request")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sendgrid responded %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// ConsoleMailer logs messages instead of sending them and keeps a copy.
type ConsoleMailer struct {
	mu   sync.Mutex
	sent []Message
}

func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	log.Info().Str("to", msg.ToEmail).Str("subject", msg.Subject).Msg("mail (console)")
	return nil
}

func (m *ConsoleMailer) SentMessages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}

const backgroundTimeout = 30 * time.Second

// Background runs fn outside the request with its own deadline, so the
// response never waits on notifications or mail.
func Background(name string, fn func(ctx context.Context)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("job", name).Msg("background job panicked")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// Dispatch sends msg in the background; failures are only logged.
func Dispatch(mailer Mailer, msg Message) {
	if mailer == nil || msg.ToEmail == "" {
		return
	}
	Background("mail", func(ctx context.Context) {
		if err := mailer.Send(ctx, msg); err != nil {
			log.Warn().Err(err).Str("to", msg.ToEmail).Msg("mail dispatch failed")
		}
	})
}

func welcomeMessage(name, email string) Message {
	return Message{
		ToName:  name,
		ToEmail: email,
		Subject: "Welcome to WorldCourse",
		Text:    fmt.Sprintf("Hi %s, your WorldCourse account is ready.", name),
	}
}

// SendWelcome queues the welcome mail of a new account.
func SendWelcome(mailer Mailer, name, email string) {
	Dispatch(mailer, welcomeMessage(name, email))
}
