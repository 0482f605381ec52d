package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/wneessen/go-mail"
)

// Sender submits built messages. *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Email submits messages over SMTP with mandatory STARTTLS and PLAIN auth.
type Email struct {
	host     string
	port     int
	sender   string
	password string
	client   Sender
	now      func() time.Time
}

func NewEmail(host string, port int, sender, password string) *Email {
	return &Email{
		host:     host,
		port:     port,
		sender:   sender,
		password: password,
		now:      time.Now,
	}
}

// WithSender replaces the SMTP client, used by tests.
func (e *Email) WithSender(client Sender) *Email {
	e.client = client
	return e
}

func (e *Email) Name() string {
	return "email"
}

func (e *Email) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return &Error{Notifier: e.Name(), Err: err}
	}
	if msg.To == "" {
		return &Error{Notifier: e.Name(), Err: errors.New("no recipient")}
	}

	m, err := e.build(msg)
	if err != nil {
		return &Error{Notifier: e.Name(), Err: err}
	}

	client, err := e.dialer()
	if err != nil {
		return &Error{Notifier: e.Name(), Err: err}
	}

	log.Printf("📧 Sending email to %s via %s:%d...", msg.To, e.host, e.port)
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return &Error{Notifier: e.Name(), Err: fmt.Errorf("smtp send: %w", err)}
	}

	log.Println("✅ Email sent successfully!")
	return nil
}

func (e *Email) dialer() (Sender, error) {
	if e.client != nil {
		return e.client, nil
	}
	client, err := mail.NewClient(e.host,
		mail.WithPort(e.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(e.sender),
		mail.WithPassword(e.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return client, nil
}

// build makes a multipart/alternative message, text first and html last.
func (e *Email) build(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(e.sender); err != nil {
		return nil, fmt.Errorf("sender %q: %w", e.sender, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetDateWithValue(e.now())
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	return m, nil
}
