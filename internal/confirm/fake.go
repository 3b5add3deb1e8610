package confirm

import (
	"context"
	"sync"
)

// ScriptedPrompter answers prompts from a queue and records every prompt
// it was shown. An empty queue dismisses the prompt. With Block set it
// never answers, leaving the caller to its context.
type ScriptedPrompter struct {
	mu      sync.Mutex
	Answers []Choice
	Block   bool
	Prompts []Prompt
}

// NewScriptedPrompter returns a prompter that gives answers in order.
func NewScriptedPrompter(answers ...Choice) *ScriptedPrompter {
	return &ScriptedPrompter{Answers: answers}
}

// Prompt records p and delivers the next scripted answer.
func (s *ScriptedPrompter) Prompt(_ context.Context, p Prompt) <-chan Choice {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Prompts = append(s.Prompts, p)
	ch := make(chan Choice, 1)
	if s.Block {
		return ch
	}
	if len(s.Answers) > 0 {
		ch <- s.Answers[0]
		s.Answers = s.Answers[1:]
	}
	close(ch)
	return ch
}

// Count returns how many prompts were shown.
func (s *ScriptedPrompter) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Prompts)
}

var _ Prompter = (*ScriptedPrompter)(nil)
