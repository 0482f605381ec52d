package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"
	"time"

	"go-careerwatch/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

func postings() []scraper.Posting {
	return []scraper.Posting{
		{ID: "amazon:3179205", Title: "Software Dev Engineer", Location: "Seattle, WA", URL: "https://www.amazon.jobs/en/jobs/3179205", Company: "Amazon"},
		{ID: "microsoft:1970393556752185", Title: "Software Engineer II", Location: "Redmond", URL: "https://apply.careers.microsoft.com/careers/job/1970393556752185", Company: "Microsoft"},
		{ID: "amazon:3179300", Title: "SDE <Intern> & Co", Location: "Remote", URL: "https://www.amazon.jobs/en/jobs/3179300", Company: "Amazon"},
	}
}

func TestRender_SubjectAndGrouping(t *testing.T) {
	msg, err := Render("me@example.com", postings())

	require.NoError(t, err)
	assert.Equal(t, "me@example.com", msg.To)
	assert.Equal(t, "🚀 3 New Amazon & Microsoft Job(s) Found!", msg.Subject)
	assert.Contains(t, msg.HTML, "3 new positions across Amazon &amp; Microsoft")

	// groups follow first appearance
	amazon := strings.Index(msg.HTML, "Amazon &mdash; 2 new")
	microsoft := strings.Index(msg.HTML, "Microsoft &mdash; 1 new")
	require.NotEqual(t, -1, amazon)
	require.NotEqual(t, -1, microsoft)
	assert.Less(t, amazon, microsoft)

	assert.Contains(t, msg.HTML, "#ff9900")
	assert.Contains(t, msg.HTML, "#0078d4")
	assert.Contains(t, msg.HTML, `href="https://www.amazon.jobs/en/jobs/3179205"`)
}

func TestRender_EscapesFields(t *testing.T) {
	msg, err := Render("me@example.com", postings())

	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<Intern>")
	assert.Contains(t, msg.HTML, "SDE &lt;Intern&gt; &amp; Co")
	assert.Contains(t, msg.Text, "SDE <Intern> & Co")
}

func TestRender_SinglePostingAndUnknownCompany(t *testing.T) {
	msg, err := Render("me@example.com", []scraper.Posting{
		{ID: "x:1", Title: "Engineer", Location: "Paris", URL: "https://jobs.example.com/1", Company: "Example"},
	})

	require.NoError(t, err)
	assert.Equal(t, "🚀 1 New Example Job(s) Found!", msg.Subject)
	assert.Contains(t, msg.HTML, "1 new position across Example")
	assert.Contains(t, msg.HTML, "#333333")
}

func TestRender_TextHasEveryRow(t *testing.T) {
	msg, err := Render("me@example.com", postings())

	require.NoError(t, err)
	for _, p := range postings() {
		assert.Contains(t, msg.Text, p.Title)
		assert.Contains(t, msg.Text, p.Location)
		assert.Contains(t, msg.Text, p.URL)
	}
}

func TestRender_Empty(t *testing.T) {
	_, err := Render("me@example.com", nil)

	assert.Error(t, err)
}

type fakeClient struct {
	msgs []*gomail.Msg
	err  error
}

func (c *fakeClient) DialAndSendWithContext(_ context.Context, messages ...*gomail.Msg) error {
	c.msgs = append(c.msgs, messages...)
	return c.err
}

// leafParts walks a MIME tree and returns the non-multipart parts in order.
func leafParts(t *testing.T, contentType string, body io.Reader) (types, bodies []string) {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)

	if !strings.HasPrefix(mediaType, "multipart/") {
		b, err := io.ReadAll(body)
		require.NoError(t, err)
		// quoted-printable carries line breaks as CRLF
		return []string{mediaType}, []string{strings.ReplaceAll(string(b), "\r\n", "\n")}
	}

	mr := multipart.NewReader(body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		ts, bs := leafParts(t, part.Header.Get("Content-Type"), part)
		types = append(types, ts...)
		bodies = append(bodies, bs...)
	}
	return types, bodies
}

func TestEmail_Notify(t *testing.T) {
	client := &fakeClient{}
	e := NewEmail("smtp.gmail.com", 587, "bot@example.com", "app-password").WithSender(client)
	e.now = func() time.Time { return time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC) }

	msg, err := Render("me@example.com", postings())
	require.NoError(t, err)

	require.NoError(t, e.Notify(context.Background(), msg))
	require.Len(t, client.msgs, 1)

	var raw bytes.Buffer
	_, err = client.msgs[0].WriteTo(&raw)
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(&raw)
	require.NoError(t, err)

	from, err := mail.ParseAddress(parsed.Header.Get("From"))
	require.NoError(t, err)
	assert.Equal(t, "bot@example.com", from.Address)
	to, err := mail.ParseAddress(parsed.Header.Get("To"))
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", to.Address)

	subject, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, msg.Subject, subject)

	mediaType, _, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(mediaType, "multipart/"), mediaType)

	types, bodies := leafParts(t, parsed.Header.Get("Content-Type"), parsed.Body)

	require.Equal(t, []string{"text/plain", "text/html"}, types)
	assert.Equal(t, strings.TrimRight(msg.Text, "\n"), strings.TrimRight(bodies[0], "\n"))
	assert.Equal(t, strings.TrimRight(msg.HTML, "\n"), strings.TrimRight(bodies[1], "\n"))
}

func TestEmail_NotifyFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("535 authentication failed")}
	e := NewEmail("smtp.gmail.com", 587, "bot@example.com", "bad").WithSender(client)

	err := e.Notify(context.Background(), Message{To: "me@example.com", Subject: "s", Text: "t", HTML: "h"})

	var nErr *Error
	require.ErrorAs(t, err, &nErr)
	assert.Equal(t, "email", nErr.Notifier)
	assert.Contains(t, err.Error(), "535")
}

func TestEmail_NoRecipient(t *testing.T) {
	client := &fakeClient{}
	e := NewEmail("localhost", 25, "bot@example.com", "pw").WithSender(client)

	err := e.Notify(context.Background(), Message{Subject: "s"})

	assert.Error(t, err)
	assert.Empty(t, client.msgs)
}

func TestEmail_InvalidRecipient(t *testing.T) {
	client := &fakeClient{}
	e := NewEmail("localhost", 25, "bot@example.com", "pw").WithSender(client)

	err := e.Notify(context.Background(), Message{To: "not an address", Subject: "s"})

	var nErr *Error
	require.ErrorAs(t, err, &nErr)
	assert.Empty(t, client.msgs)
}

func TestEmail_DefaultClient(t *testing.T) {
	c, err := NewEmail("smtp.gmail.com", 587, "bot@example.com", "pw").dialer()

	require.NoError(t, err)
	assert.IsType(t, &gomail.Client{}, c)
}

type stubNotifier struct {
	name  string
	err   error
	calls int
}

func (s *stubNotifier) Name() string { return s.name }

func (s *stubNotifier) Notify(context.Context, Message) error {
	s.calls++
	return s.err
}

func TestFanout(t *testing.T) {
	ok := &stubNotifier{name: "ok"}
	broken := &stubNotifier{name: "broken", err: errors.New("boom")}
	wrapped := &stubNotifier{name: "wrapped", err: &Error{Notifier: "telegram", Err: errors.New("429")}}

	err := Fanout{broken, ok, wrapped}.Notify(context.Background(), Message{})

	require.Error(t, err)
	assert.Equal(t, 1, ok.calls, "a failing notifier does not stop the rest")
	assert.Contains(t, err.Error(), "notify broken: boom")
	assert.Contains(t, err.Error(), "notify telegram: 429")

	var nErr *Error
	assert.ErrorAs(t, err, &nErr)
}

func TestFanout_AllSucceed(t *testing.T) {
	a, b := &stubNotifier{name: "a"}, &stubNotifier{name: "b"}

	assert.NoError(t, Fanout{a, b}.Notify(context.Background(), Message{}))
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}
