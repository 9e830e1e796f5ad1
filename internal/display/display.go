// Package display renders submission outcomes: the status element of the
// form page, re-expressed for terminals and for in-process observers.
package display

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/nao1215/formbuilder/internal/model"
)

// Display shows the latest submission outcome. Each call replaces what was
// shown before.
type Display interface {
	Show(outcome model.Outcome)
}

// Func adapts a function to Display.
type Func func(model.Outcome)

// Show calls f.
func (f Func) Show(outcome model.Outcome) {
	f(outcome)
}

// Discard ignores every outcome.
var Discard Display = Func(func(model.Outcome) {})

// Terminal writes each outcome as a coloured line.
// Pending outcomes are printed without colour, successes in green and
// failures in red, which is the closest terminal colour to crimson.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer

	// prefix is prepended to every line, e.g. the page being submitted.
	prefix string

	pending *color.Color
	success *color.Color
	failure *color.Color
}

// TerminalOption configures a Terminal.
type TerminalOption func(*Terminal)

// WithPrefix prepends prefix to every line.
func WithPrefix(prefix string) TerminalOption {
	return func(t *Terminal) {
		t.prefix = prefix
	}
}

// WithColor forces colour output on or off. By default fatih/color decides
// from the terminal and NO_COLOR.
func WithColor(enabled bool) TerminalOption {
	return func(t *Terminal) {
		for _, c := range []*color.Color{t.pending, t.success, t.failure} {
			if enabled {
				c.EnableColor()
			} else {
				c.DisableColor()
			}
		}
	}
}

// NewTerminal creates a Terminal writing to out.
func NewTerminal(out io.Writer, opts ...TerminalOption) *Terminal {
	t := &Terminal{
		out:     out,
		pending: color.New(color.Reset),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed, color.Bold),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Show prints outcome on its own line.
func (t *Terminal) Show(outcome model.Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := t.colorFor(outcome)
	_, _ = fmt.Fprintf(t.out, "%s%s\n", t.prefix, c.Sprint(outcome.Message)) //nolint:errcheck // status output is best effort
}

func (t *Terminal) colorFor(outcome model.Outcome) *color.Color {
	switch outcome.Color() {
	case model.ColorGreen:
		return t.success
	case model.ColorCrimson:
		return t.failure
	default:
		return t.pending
	}
}

// Board keeps only the most recent outcome, like the page's single status
// element. It is safe for concurrent use; whichever Show runs last wins.
type Board struct {
	mu      sync.RWMutex
	current model.Outcome
	updates int
}

// NewBoard creates an empty Board.
func NewBoard() *Board {
	return &Board{}
}

// Show replaces the current outcome.
func (b *Board) Show(outcome model.Outcome) {
	b.mu.Lock()
	b.current = outcome
	b.updates++
	b.mu.Unlock()
}

// Current returns the outcome on display and whether anything was shown yet.
func (b *Board) Current() (model.Outcome, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current, b.updates > 0
}

// Text returns the message on display.
func (b *Board) Text() string {
	o, _ := b.Current()
	return o.Message
}

// Color returns the colour of the outcome on display, or black when nothing
// has been shown.
func (b *Board) Color() string {
	o, ok := b.Current()
	if !ok {
		return model.ColorBlack
	}
	return o.Color()
}

// Updates returns how many outcomes have been shown.
func (b *Board) Updates() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.updates
}

// Multi fans an outcome out to several displays in order.
type Multi []Display

// Show forwards outcome to every display.
func (m Multi) Show(outcome model.Outcome) {
	for _, d := range m {
		d.Show(outcome)
	}
}
