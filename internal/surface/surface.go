// Package surface shows transient error notices and the loading indicator on the terminal.
package surface

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/schema"
)

// maxDiagnostics bounds the in-memory diagnostics record.
const maxDiagnostics = 256

// Notice is the message currently shown to the user.
type Notice struct {
	Message string           `json:"message"`
	Kind    schema.ErrorKind `json:"kind"`
	At      time.Time        `json:"at"`
}

var _ contract.ErrorReporter = &ErrorSurface{} // Compile-time check

// ErrorSurface prints error notices that dismiss themselves after a fixed
// duration, and records every reported kind for diagnostics.
type ErrorSurface struct {
	mu          sync.Mutex
	out         io.Writer
	duration    time.Duration
	useColor    bool
	useEmoji    bool
	current     *Notice
	generation  uint64
	timer       *time.Timer
	diagnostics []Notice
	counts      map[schema.ErrorKind]int
	onDismiss   func(Notice)
}

// Option configures an ErrorSurface.
type Option func(*ErrorSurface)

// WithColor toggles colored notices.
func WithColor(enabled bool) Option {
	return func(s *ErrorSurface) { s.useColor = enabled }
}

// WithEmoji toggles the emoji prefix of notices.
func WithEmoji(enabled bool) Option {
	return func(s *ErrorSurface) { s.useEmoji = enabled }
}

// WithDismissHook is called after a notice is dismissed.
func WithDismissHook(fn func(Notice)) Option {
	return func(s *ErrorSurface) { s.onDismiss = fn }
}

// NewErrorSurface writes notices to out. A zero duration uses the default.
func NewErrorSurface(out io.Writer, duration time.Duration, opts ...Option) *ErrorSurface {
	if out == nil {
		out = os.Stderr
	}
	if duration <= 0 {
		duration = contract.DefaultNoticeDuration
	}
	s := &ErrorSurface{
		out:      out,
		duration: duration,
		useColor: true,
		counts:   make(map[schema.ErrorKind]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Report shows message as the current notice. It never panics.
func (s *ErrorSurface) Report(message string, kind schema.ErrorKind) {
	defer func() { _ = recover() }()
	if kind == "" {
		kind = schema.UnknownKind
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	notice := Notice{Message: message, Kind: kind, At: time.Now()}
	s.diagnostics = append(s.diagnostics, notice)
	if len(s.diagnostics) > maxDiagnostics {
		s.diagnostics = s.diagnostics[len(s.diagnostics)-maxDiagnostics:]
	}
	s.counts[kind]++

	s.current = &notice
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
	}
	gen := s.generation
	s.timer = time.AfterFunc(s.duration, func() { s.dismiss(gen) })

	s.print(notice)
}

func (s *ErrorSurface) print(n Notice) {
	prefix := "Error"
	if s.useEmoji {
		prefix = "❌"
	}
	line := fmt.Sprintf("%s [%s] %s", prefix, n.Kind, n.Message)
	if s.useColor {
		_, _ = contract.ColorForKind(n.Kind).Fprintln(s.out, line)
		return
	}
	_, _ = fmt.Fprintln(s.out, line)
}

func (s *ErrorSurface) dismiss(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.current == nil {
		s.mu.Unlock()
		return
	}
	n := *s.current
	s.current = nil
	s.timer = nil
	hook := s.onDismiss
	s.mu.Unlock()

	if hook != nil {
		func() {
			defer func() { _ = recover() }()
			hook(n)
		}()
	}
}

// Current returns the notice being shown, if any.
func (s *ErrorSurface) Current() (Notice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Notice{}, false
	}
	return *s.current, true
}

// Diagnostics returns every recorded notice, oldest first.
func (s *ErrorSurface) Diagnostics() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notice, len(s.diagnostics))
	copy(out, s.diagnostics)
	return out
}

// Counts returns how many notices of each kind were reported.
func (s *ErrorSurface) Counts() map[schema.ErrorKind]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[schema.ErrorKind]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Close dismisses the current notice and stops its timer.
func (s *ErrorSurface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.current = nil
	s.generation++
}

var _ contract.LoadingIndicator = &Spinner{} // Compile-time check

// Spinner prints a loading line while at least one request is in flight.
type Spinner struct {
	mu       sync.Mutex
	out      io.Writer
	active   int
	useEmoji bool
	shown    int
}

// NewSpinner writes loading lines to out.
func NewSpinner(out io.Writer, useEmoji bool) *Spinner {
	if out == nil {
		out = os.Stderr
	}
	return &Spinner{out: out, useEmoji: useEmoji}
}

// Show marks one more request as in flight.
func (s *Spinner) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active++
	if s.active == 1 {
		s.shown++
		msg := "Loading..."
		if s.useEmoji {
			msg = "⏳ " + msg
		}
		_, _ = color.New(color.Faint).Fprintln(s.out, msg)
	}
}

// Hide marks one request as finished.
func (s *Spinner) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active > 0 {
		s.active--
	}
}

// Active reports how many requests are in flight.
func (s *Spinner) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Shown reports how many times the loading line was printed.
func (s *Spinner) Shown() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shown
}
