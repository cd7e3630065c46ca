// Package display renders the rotating status pages on the device's
// small text screen.
package display

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Display is a line-oriented screen.
type Display interface {
	// Clear blanks the frame buffer.
	Clear()
	// DrawText puts text on the given line of the frame buffer.
	DrawText(line int, text string)
	// Present shows the frame buffer.
	Present() error
}

// Lines is the number of text lines on the screen.
const Lines = 6

// Text is a Display that writes each changed frame to an io.Writer,
// for a serial console or a headless development machine.
type Text struct {
	w     io.Writer
	ansi  bool
	lines []string

	mu     sync.Mutex
	last   string
	paused bool
}

// NewText returns a Text display writing to w. If ansi is true each
// frame first clears the terminal.
func NewText(w io.Writer, ansi bool) *Text {
	return &Text{w: w, ansi: ansi, lines: make([]string, Lines)}
}

// Clear implements Display.
func (t *Text) Clear() {
	for i := range t.lines {
		t.lines[i] = ""
	}
}

// DrawText implements Display. Lines outside the screen are ignored.
func (t *Text) DrawText(line int, text string) {
	if line < 0 || line >= len(t.lines) {
		return
	}
	t.lines[line] = text
}

// Pause stops frames from being written until Resume. It may be called
// from any goroutine.
func (t *Text) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = true
}

// Resume lets frames be written again; the next Present redraws even an
// unchanged frame.
func (t *Text) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = false
	t.last = ""
}

// Present implements Display. Unchanged frames are not rewritten, and
// nothing is written while paused.
func (t *Text) Present() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	frame := strings.Join(t.lines, "\n")
	if t.paused || frame == t.last {
		return nil
	}
	var buf bytes.Buffer
	if t.ansi {
		buf.WriteString("\x1b[H\x1b[2J")
	}
	buf.WriteString(frame)
	buf.WriteString("\n\n")
	if _, err := t.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("display write: %w", err)
	}
	t.last = frame
	return nil
}

// Fake records presented frames for test assertions.
type Fake struct {
	lines  []string
	Frames [][]string

	PresentError error
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{lines: make([]string, Lines)}
}

// Clear implements Display.
func (f *Fake) Clear() {
	f.lines = make([]string, Lines)
}

// DrawText implements Display.
func (f *Fake) DrawText(line int, text string) {
	if line >= 0 && line < len(f.lines) {
		f.lines[line] = text
	}
}

// Present implements Display.
func (f *Fake) Present() error {
	if f.PresentError != nil {
		return f.PresentError
	}
	f.Frames = append(f.Frames, append([]string(nil), f.lines...))
	return nil
}

// Last returns the most recently presented frame.
func (f *Fake) Last() []string {
	if len(f.Frames) == 0 {
		return nil
	}
	return f.Frames[len(f.Frames)-1]
}
