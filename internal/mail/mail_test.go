package mail

import (
	"bufio"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net"
	netmail "net/mail"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeMultipart(t *testing.T) {
	msg := Message{
		To:      []string{"a@example.com", "b@example.com"},
		Subject: "Verify your email",
		Text:    "Please verify",
		HTML:    `<a href="https://example.com/verify">verify</a>`,
	}
	raw, err := Compose("noreply@example.com", msg, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	parsed, err := netmail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, "noreply@example.com", parsed.Header.Get("From"))
	assert.Equal(t, "a@example.com, b@example.com", parsed.Header.Get("To"))

	dec := new(mime.WordDecoder)
	subject, err := dec.DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, msg.Subject, subject)

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", mediaType)

	mr := multipart.NewReader(parsed.Body, params["boundary"])
	var types []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		types = append(types, part.Header.Get("Content-Type"))
		body, err := io.ReadAll(part)
		require.NoError(t, err)
		assert.NotEmpty(t, body)
	}
	assert.Equal(t, []string{"text/plain; charset=utf-8", "text/html; charset=utf-8"}, types)
}

func TestMessageValidate(t *testing.T) {
	assert.Error(t, Message{}.Validate())
	assert.Error(t, Message{To: []string{"a@example.com\r\nBcc: x@example.com"}}.Validate())
	assert.Error(t, Message{To: []string{"a@example.com"}, Subject: "hi\nthere"}.Validate())
	assert.NoError(t, Message{To: []string{"a@example.com"}, Subject: "hi"}.Validate())
}

func TestRecorderRejects(t *testing.T) {
	rec := NewRecorder()
	rec.Reject("bounce@example.com")

	report, err := rec.Send(context.Background(), Message{To: []string{"Bounce@example.com"}, Subject: "x"})
	require.NoError(t, err)
	assert.True(t, report.Failed())
	assert.Empty(t, rec.Sent())

	report, err = rec.Send(context.Background(), Message{To: []string{"ok@example.com"}, Subject: "y"})
	require.NoError(t, err)
	assert.False(t, report.Failed())
	last, ok := rec.Last("OK@example.com")
	require.True(t, ok)
	assert.Equal(t, "y", last.Subject)
}

// fakeSMTP serves a minimal SMTP dialogue, refusing recipients containing reject.
func fakeSMTP(t *testing.T, reject string) (host string, port int, bodies <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	out := make(chan string, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveSMTP(conn, reject, out)
		}
	}()
	h, p, _ := net.SplitHostPort(ln.Addr().String())
	portNum, _ := strconv.Atoi(p)
	return h, portNum, out
}

func serveSMTP(conn net.Conn, reject string, out chan<- string) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	write := func(s string) { _, _ = io.WriteString(conn, s+"\r\n") }
	write("220 fake ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"):
			write("250-fake")
			write("250 8BITMIME")
		case strings.HasPrefix(cmd, "HELO"), strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RSET"):
			write("250 ok")
		case strings.HasPrefix(cmd, "RCPT"):
			if reject != "" && strings.Contains(cmd, strings.ToUpper(reject)) {
				write("550 no such user")
			} else {
				write("250 ok")
			}
		case cmd == "DATA":
			write("354 go ahead")
			var body strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				body.WriteString(l)
			}
			out <- body.String()
			write("250 queued")
		case cmd == "QUIT":
			write("221 bye")
			return
		default:
			write("502 unknown")
		}
	}
}

func TestSMTPSenderDelivers(t *testing.T) {
	host, port, bodies := fakeSMTP(t, "")
	sender, err := NewSMTPSender(SMTPConfig{Host: host, Port: port, From: "noreply@example.com"})
	require.NoError(t, err)

	report, err := sender.Send(context.Background(), Message{
		To:      []string{"user@example.com"},
		Subject: "Hello",
		Text:    "body text",
	})
	require.NoError(t, err)
	assert.False(t, report.Failed())
	assert.Equal(t, []string{"user@example.com"}, report.Accepted)

	select {
	case body := <-bodies:
		assert.Contains(t, body, "Subject: Hello")
		assert.Contains(t, body, "body text")
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}
}

func TestSMTPSenderReportsRejectedRecipients(t *testing.T) {
	host, port, _ := fakeSMTP(t, "ghost@")
	sender, err := NewSMTPSender(SMTPConfig{Host: host, Port: port, From: "noreply@example.com"})
	require.NoError(t, err)

	report, err := sender.Send(context.Background(), Message{To: []string{"ghost@example.com"}, Subject: "x", Text: "y"})
	require.NoError(t, err)
	assert.True(t, report.Failed())
	assert.Equal(t, []string{"ghost@example.com"}, report.Rejected)
}
