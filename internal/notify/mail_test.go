package notify_test

import (
	"context"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/rapidaid/rapidaid/internal/notify"
	"github.com/rapidaid/rapidaid/internal/types"
)

type smtpSession struct {
	commands []string
	data     string
}

// fakeSMTP accepts one plain SMTP session and reports what it received.
func fakeSMTP(t *testing.T) (int, <-chan smtpSession) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	sessions := make(chan smtpSession, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetDeadline(time.Now().Add(5 * time.Second))

		tp := textproto.NewConn(conn)
		var s smtpSession
		defer func() { sessions <- s }()

		tp.PrintfLine("220 localhost ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			s.commands = append(s.commands, line)

			verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
			switch verb {
			case "EHLO", "HELO":
				tp.PrintfLine("250 localhost")
			case "MAIL", "RCPT", "RSET", "NOOP":
				tp.PrintfLine("250 OK")
			case "DATA":
				tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
				lines, err := tp.ReadDotLines()
				if err != nil {
					return
				}
				s.data = strings.Join(lines, "\n")
				tp.PrintfLine("250 OK queued")
			case "QUIT":
				tp.PrintfLine("221 Bye")
				return
			default:
				tp.PrintfLine("502 Command not implemented")
			}
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port, sessions
}

func TestMailerSend(t *testing.T) {
	port, sessions := fakeSMTP(t)
	mailer := notify.NewMailer("127.0.0.1", port, "", "", "noreply@example.org")

	if mailer.Channel() != types.ChannelEmail {
		t.Fatalf("channel = %s", mailer.Channel())
	}

	err := mailer.Send(context.Background(), notify.Message{
		To:      "maya@example.org",
		Subject: "Volunteer application approved",
		Body:    "Hello Maya, you have been added to the team.",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	s := <-sessions
	joined := strings.Join(s.commands, "\n")
	if !strings.Contains(joined, "MAIL FROM:<noreply@example.org>") || !strings.Contains(joined, "RCPT TO:<maya@example.org>") {
		t.Fatalf("envelope = %v", s.commands)
	}
	for _, want := range []string{
		"To: maya@example.org",
		"Subject: Volunteer application approved",
		"Hello Maya, you have been added to the team.",
	} {
		if !strings.Contains(s.data, want) {
			t.Fatalf("message lacks %q:\n%s", want, s.data)
		}
	}
}

func TestMailerSendFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	err = notify.NewMailer("127.0.0.1", port, "", "", "noreply@example.org").Send(context.Background(), notify.Message{
		To:      "maya@example.org",
		Subject: "x",
	})
	if err == nil || !strings.Contains(err.Error(), "smtp") {
		t.Fatalf("err = %v, want an smtp error", err)
	}
}
