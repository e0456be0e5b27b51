package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

var (
	banner = color.New(color.FgCyan, color.Bold).SprintFunc()
	accent = color.New(color.FgYellow).SprintFunc()
)

// Console prompts on a terminal with promptui, or reads plain lines when
// input is piped.
type Console struct {
	in          io.Reader
	out         io.Writer
	interactive bool
	lines       *bufio.Reader
}

// NewConsole returns a Console on stdin/stdout, interactive when both are
// terminals.
func NewConsole() *Console {
	interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	return newConsole(os.Stdin, os.Stdout, interactive)
}

// NewLineConsole returns a non-interactive Console reading lines from in.
func NewLineConsole(in io.Reader, out io.Writer) *Console {
	return newConsole(in, out, false)
}

func newConsole(in io.Reader, out io.Writer, interactive bool) *Console {
	return &Console{in: in, out: out, interactive: interactive, lines: bufio.NewReader(in)}
}

// Confirm prints message and waits for Enter.
func (c *Console) Confirm(ctx context.Context, message string) error {
	fmt.Fprintln(c.out, banner(message))
	fmt.Fprint(c.out, accent("> [ENTER] "))
	_, err := c.readLine(ctx)
	return err
}

// Ask reads one answer. On a terminal, promptui keeps the operator on the
// prompt until validate accepts the input.
func (c *Console) Ask(ctx context.Context, label string, validate func(string) error) (string, error) {
	if c.interactive {
		return c.askTerminal(ctx, label, validate)
	}
	fmt.Fprint(c.out, accent(label+": "))
	return c.readLine(ctx)
}

func (c *Console) askTerminal(ctx context.Context, label string, validate func(string) error) (string, error) {
	p := promptui.Prompt{
		Label:    label,
		Validate: promptui.ValidateFunc(validate),
	}
	type answer struct {
		s   string
		err error
	}
	done := make(chan answer, 1)
	go func() {
		s, err := p.Run()
		done <- answer{strings.TrimSpace(s), err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case a := <-done:
		return a.s, a.err
	}
}

// readLine returns the next line, trimmed. The blocking read is not
// interruptible, so on cancellation the reader goroutine is abandoned.
func (c *Console) readLine(ctx context.Context) (string, error) {
	type line struct {
		s   string
		err error
	}
	done := make(chan line, 1)
	go func() {
		s, err := c.lines.ReadString('\n')
		if err == io.EOF && s != "" {
			err = nil
		}
		done <- line{strings.TrimSpace(s), err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l := <-done:
		return l.s, l.err
	}
}
