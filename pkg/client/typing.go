package client

import (
	"sync"
	"time"
)

// DefaultTypingQuietPeriod is how long the user must stay silent before a
// trailing "stop typing" is sent.
const DefaultTypingQuietPeriod = 3 * time.Second

// emitter is the slice of Socket the notifier needs.
type emitter interface {
	Emit(event string, payload any) error
}

// TypingNotifier debounces typing indicators for one chat. The first
// keystroke of a burst emits a single "typing"; every keystroke schedules a
// quiet-period check, and only the check that finds a full quiet period with
// no further keystrokes emits the single trailing "stop typing".
//
// The server relays these statelessly, so the notifier owns the entire
// debounce. Clock and timer are injectable for deterministic tests.
type TypingNotifier struct {
	socket emitter
	chatID string
	quiet  time.Duration

	now      func() time.Time
	schedule func(d time.Duration, f func())

	mu            sync.Mutex
	typing        bool
	lastKeystroke time.Time
}

// TypingOption configures a TypingNotifier.
type TypingOption func(*TypingNotifier)

// WithQuietPeriod overrides the quiet period.
func WithQuietPeriod(d time.Duration) TypingOption {
	return func(n *TypingNotifier) { n.quiet = d }
}

// WithClock injects the time source and timer, for tests.
func WithClock(now func() time.Time, schedule func(time.Duration, func())) TypingOption {
	return func(n *TypingNotifier) {
		n.now = now
		n.schedule = schedule
	}
}

// NewTypingNotifier creates a notifier for one chat room.
func NewTypingNotifier(socket emitter, chatID string, opts ...TypingOption) *TypingNotifier {
	n := &TypingNotifier{
		socket: socket,
		chatID: chatID,
		quiet:  DefaultTypingQuietPeriod,
		now:    time.Now,
		schedule: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Keystroke records user input. Call it on every keystroke.
func (n *TypingNotifier) Keystroke() {
	n.mu.Lock()
	if !n.typing {
		n.typing = true
		n.socket.Emit(EventTyping, n.chatID)
	}
	n.lastKeystroke = n.now()
	n.mu.Unlock()

	n.schedule(n.quiet, n.check)
}

// check fires one quiet period after a keystroke. Checks scheduled by
// earlier keystrokes see a fresher lastKeystroke and do nothing; only the
// check belonging to the final keystroke observes a full quiet period.
func (n *TypingNotifier) check() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.typing && n.now().Sub(n.lastKeystroke) >= n.quiet {
		n.socket.Emit(EventStopTyping, n.chatID)
		n.typing = false
	}
}

// Stop ends the typing burst immediately, e.g. when the message is sent.
// A no-op when no burst is active.
func (n *TypingNotifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.typing {
		n.socket.Emit(EventStopTyping, n.chatID)
		n.typing = false
	}
}
