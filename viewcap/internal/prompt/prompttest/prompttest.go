// Package prompttest provides a scripted prompt.Prompter.
package prompttest

import (
	"context"
	"io"
	"sync"
)

// Script replays Answers in order and records every label asked. It ignores
// validate so callers see each answer, valid or not. Once Answers run out
// Ask returns io.EOF, like a closed stdin.
type Script struct {
	Answers []string

	mu       sync.Mutex
	asked    []string
	confirms []string
}

func (s *Script) Confirm(ctx context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirms = append(s.confirms, message)
	return ctx.Err()
}

func (s *Script) Ask(ctx context.Context, label string, validate func(string) error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked = append(s.asked, label)
	if len(s.Answers) == 0 {
		return "", io.EOF
	}
	ans := s.Answers[0]
	s.Answers = s.Answers[1:]
	return ans, nil
}

// Asked returns the labels asked so far.
func (s *Script) Asked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.asked...)
}

// Confirms returns the confirmation messages shown so far.
func (s *Script) Confirms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.confirms...)
}
