package form

import "time"

// DefaultNotifyDuration is how long a notification stays visible.
const DefaultNotifyDuration = 3000 * time.Millisecond

// Notification texts for successful saves.
const (
	MsgSaved   = "Selection saved successfully"
	MsgUpdated = "Selection updated successfully"
)

// NoticeKind distinguishes success from failure notifications.
type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
)

// Notice is one transient message.
type Notice struct {
	Message string
	Kind    NoticeKind
}

// NoticeFor picks the notification to show after a submission.
func NoticeFor(o Outcome) Notice {
	switch o := o.(type) {
	case Saved:
		if o.Created {
			return Notice{Message: MsgSaved, Kind: NoticeSuccess}
		}
		return Notice{Message: MsgUpdated, Kind: NoticeSuccess}
	case ValidationFailure:
		return Notice{Message: messageOr(o.Detail), Kind: NoticeError}
	case GeneralFailure:
		return Notice{Message: messageOr(o.Message), Kind: NoticeError}
	default:
		return Notice{Message: FallbackErrorMessage, Kind: NoticeError}
	}
}

// Notifier shows one notice at a time. Each Show starts a new generation;
// only the timer of the current generation may hide it, so a new notice
// restarts the countdown. The caller owns the timer and reports expiry.
type Notifier struct {
	Duration time.Duration

	current Notice
	visible bool
	gen     int
}

// NewNotifier creates a notifier with the given display duration.
func NewNotifier(d time.Duration) *Notifier {
	if d <= 0 {
		d = DefaultNotifyDuration
	}
	return &Notifier{Duration: d}
}

// Show displays n and returns the generation its timer must report.
func (n *Notifier) Show(notice Notice) int {
	n.gen++
	n.current = notice
	n.visible = true
	return n.gen
}

// Expire hides the notice if gen is still current. Stale timers are ignored.
func (n *Notifier) Expire(gen int) bool {
	if gen != n.gen || !n.visible {
		return false
	}
	n.visible = false
	return true
}

// Cancel hides the notice and invalidates every pending timer.
func (n *Notifier) Cancel() {
	n.gen++
	n.visible = false
}

// Current returns the visible notice, if any.
func (n *Notifier) Current() (Notice, bool) {
	return n.current, n.visible
}
