package notify

import (
	"errors"
	"strings"
	"testing"
)

type capture struct {
	titles   []string
	messages []string
	err      error
}

func (c *capture) send(title, message, _ string) error {
	c.titles = append(c.titles, title)
	c.messages = append(c.messages, message)
	return c.err
}

func newTestNotifier(enabled bool) (*Notifier, *capture) {
	c := &capture{}
	n := New(enabled)
	n.send = c.send
	return n, c
}

func TestNotifierDisabledSendsNothing(t *testing.T) {
	n, c := newTestNotifier(false)

	n.LowSignal()
	n.ProviderFailure("deepgram", "recognizer")
	n.Error("boom")

	if len(c.titles) != 0 {
		t.Errorf("disabled notifier sent %d notifications", len(c.titles))
	}
}

func TestNotifierSendsTitledNotifications(t *testing.T) {
	n, c := newTestNotifier(true)

	n.LowSignal()
	n.ProviderFailure("coqui", "tts")

	if len(c.titles) != 2 {
		t.Fatalf("sent %d notifications, want 2", len(c.titles))
	}
	if !strings.HasPrefix(c.titles[0], "Lectara: ") {
		t.Errorf("title = %q, want the app name prefix", c.titles[0])
	}
	if !strings.Contains(c.messages[1], "coqui") || !strings.Contains(c.messages[1], "tts") {
		t.Errorf("provider message = %q, want provider and kind named", c.messages[1])
	}
}

func TestNotifierTruncatesLongMessages(t *testing.T) {
	n, c := newTestNotifier(true)

	n.Error(strings.Repeat("x", 500))

	if len(c.messages) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(c.messages))
	}
	if got := len(c.messages[0]); got != maxBody+3 {
		t.Errorf("message length = %d, want %d", got, maxBody+3)
	}
	if !strings.HasSuffix(c.messages[0], "...") {
		t.Errorf("truncated message %q does not end with ellipsis", c.messages[0])
	}
}

func TestNotifierSwallowsSendErrors(t *testing.T) {
	n, c := newTestNotifier(true)
	c.err = errors.New("dbus unavailable")

	n.LowSignal()

	if len(c.titles) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(c.titles))
	}
}

func TestSetEnabled(t *testing.T) {
	n, c := newTestNotifier(false)
	n.SetEnabled(true)
	n.Error("now visible")
	if len(c.titles) != 1 {
		t.Fatalf("sent %d notifications after enabling, want 1", len(c.titles))
	}
}
