// Package notify sends desktop notifications for conditions the reader
// should know about without watching logs: a microphone that captured near
// silence, or a speech provider that stopped responding. Notifications are
// advisory; every failure here is swallowed after a debug log.
package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

const appName = "Lectara"

// maxBody caps notification body length so long provider errors do not
// overflow the toast.
const maxBody = 100

// Notifier sends desktop notifications via the platform notification
// service. The zero value is disabled; use [New].
type Notifier struct {
	enabled bool
	logger  *slog.Logger

	// send is swapped out in tests.
	send func(title, message, icon string) error
}

// New creates a Notifier. When enabled is false all methods are no-ops, so
// callers never need to nil-check.
func New(enabled bool) *Notifier {
	return &Notifier{
		enabled: enabled,
		logger:  slog.Default().With(slog.String("component", "notify")),
		send:    beeep.Notify,
	}
}

// SetEnabled turns notifications on or off at runtime.
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled = enabled
}

// LowSignal reports a recording whose peak amplitude stayed below the
// audible threshold, usually a muted or misconfigured microphone.
func (n *Notifier) LowSignal() {
	n.notify("Low microphone signal", "The last recording was almost silent. Check that the right microphone is selected and not muted.")
}

// ProviderFailure reports a speech provider that failed, naming the provider
// and its role so the reader knows which capability degraded.
func (n *Notifier) ProviderFailure(provider, kind string) {
	n.notify("Provider unavailable", provider+" ("+kind+") is not responding. Practice continues with reduced feedback.")
}

// Error reports a general failure with the given message.
func (n *Notifier) Error(msg string) {
	n.notify("Error", msg)
}

func (n *Notifier) notify(title, message string) {
	if !n.enabled {
		return
	}
	if len(message) > maxBody {
		message = message[:maxBody] + "..."
	}
	if err := n.send(appName+": "+title, message, ""); err != nil {
		n.logger.Debug("desktop notification failed", slog.String("error", err.Error()))
	}
}
