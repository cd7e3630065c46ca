package wifi

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrClosed is returned when console input has ended.
var ErrClosed = errors.New("wifi: console closed")

// Console is the operator's line-oriented terminal. Input is read only
// while a prompt is waiting, so a no-echo read never competes with a
// line read.
type Console struct {
	out     io.Writer
	in      *bufio.Reader
	req     chan struct{}
	lines   chan lineResult
	pending bool

	// secret reads a line without echo. If nil, lines are read normally.
	secret func() (string, error)
}

type lineResult struct {
	line string
	err  error
}

// NewConsole returns a Console reading lines from in and writing
// prompts to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	c := &Console{
		out:   out,
		in:    bufio.NewReader(in),
		req:   make(chan struct{}),
		lines: make(chan lineResult, 1),
	}
	go c.readLines()
	return c
}

// NewTerminal returns a Console on the process's standard input and
// output. Passwords are read without echo when stdin is a terminal.
func NewTerminal() *Console {
	c := NewConsole(os.Stdin, os.Stdout)
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		c.secret = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(c.out)
			return string(b), err
		}
	}
	return c
}

func (c *Console) readLines() {
	for range c.req {
		line, err := c.in.ReadString('\n')
		if line != "" && err == io.EOF {
			err = nil
		}
		c.lines <- lineResult{strings.TrimRight(line, "\r\n"), err}
	}
}

// Printf writes to the console.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// ReadLine prompts and waits for one line of input or the end of ctx.
func (c *Console) ReadLine(ctx context.Context, prompt string) (string, error) {
	c.Printf("%s", prompt)
	if !c.pending {
		c.req <- struct{}{}
		c.pending = true
	}
	select {
	case r := <-c.lines:
		c.pending = false
		if r.err == io.EOF {
			return "", ErrClosed
		}
		if r.err != nil {
			return "", r.err
		}
		return strings.TrimSpace(r.line), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ReadSecret prompts for a line that is not echoed when possible.
func (c *Console) ReadSecret(ctx context.Context, prompt string) (string, error) {
	if c.secret == nil || c.pending {
		return c.ReadLine(ctx, prompt)
	}
	c.Printf("%s", prompt)
	ch := make(chan lineResult, 1)
	go func() {
		s, err := c.secret()
		ch <- lineResult{s, err}
	}()
	select {
	case r := <-ch:
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
