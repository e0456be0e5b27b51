// Package prompt holds the blocking operator interactions of a run:
// confirming the viewer is ready and typing values detection missed.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Prompter asks the operator for input. Calls block until answered.
type Prompter interface {
	// Confirm shows message and returns once the operator acknowledges it.
	Confirm(ctx context.Context, message string) error
	// Ask shows label and returns the trimmed answer. validate, when the
	// implementation supports inline validation, filters answers before
	// they are returned; callers still check what they get back.
	Ask(ctx context.Context, label string, validate func(string) error) (string, error)
}

// ErrEmpty is returned by validators for a blank answer.
var ErrEmpty = errors.New("prompt: empty answer")

// ParsePositiveInt accepts decimal integers greater than zero.
func ParsePositiveInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmpty
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("prompt: %q is not a whole number", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("prompt: %d is not positive", n)
	}
	return n, nil
}

// AskPositiveInt asks until the operator types a positive integer.
// Rejected answers are logged and asked again, never coerced.
func AskPositiveInt(ctx context.Context, p Prompter, label string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	validate := func(s string) error {
		_, err := ParsePositiveInt(s)
		return err
	}
	for {
		ans, err := p.Ask(ctx, label, validate)
		if err != nil {
			return 0, fmt.Errorf("prompt: %s: %w", label, err)
		}
		n, err := ParsePositiveInt(ans)
		if err == nil {
			return n, nil
		}
		logger.Warn("prompt: answer rejected", "answer", ans, "error", err)
	}
}

// AskNonEmpty asks until the operator types something.
func AskNonEmpty(ctx context.Context, p Prompter, label string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	validate := func(s string) error {
		if strings.TrimSpace(s) == "" {
			return ErrEmpty
		}
		return nil
	}
	for {
		ans, err := p.Ask(ctx, label, validate)
		if err != nil {
			return "", fmt.Errorf("prompt: %s: %w", label, err)
		}
		if ans = strings.TrimSpace(ans); ans != "" {
			return ans, nil
		}
		logger.Warn("prompt: answer rejected", "error", ErrEmpty)
	}
}
