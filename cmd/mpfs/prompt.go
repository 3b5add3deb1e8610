package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/mpremote-tools/mpfs/internal/confirm"
)

// termPrompter asks confirmation questions on a line-oriented terminal:
// the message, the risk detail, then numbered choices. End of input
// dismisses the prompt.
type termPrompter struct {
	mu  sync.Mutex // one question at a time
	in  *bufio.Reader
	out io.Writer
}

func newTermPrompter(in io.Reader, out io.Writer) *termPrompter {
	return &termPrompter{in: bufio.NewReader(in), out: out}
}

// Prompt implements confirm.Prompter. The answer is read on its own
// goroutine so the caller can give up through ctx.
func (p *termPrompter) Prompt(ctx context.Context, pr confirm.Prompt) <-chan confirm.Choice {
	ch := make(chan confirm.Choice, 1)
	go func() {
		defer close(ch)
		p.mu.Lock()
		defer p.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		if c, ok := p.ask(pr); ok {
			ch <- c
		}
	}()
	return ch
}

func (p *termPrompter) ask(pr confirm.Prompt) (confirm.Choice, bool) {
	marker := ""
	if pr.Critical {
		marker = "WARNING: "
	}
	fmt.Fprintf(p.out, "\n%s%s\n", marker, pr.Message) //nolint:errcheck // best-effort prompt
	if pr.Detail != "" {
		fmt.Fprintf(p.out, "%s\n", pr.Detail) //nolint:errcheck // best-effort prompt
	}
	for i, c := range pr.Choices {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, c) //nolint:errcheck // best-effort prompt
	}
	for {
		fmt.Fprintf(p.out, "Choose [1-%d]: ", len(pr.Choices)) //nolint:errcheck // best-effort prompt
		line, err := p.in.ReadString('\n')
		if c, ok := pick(pr.Choices, line); ok {
			return c, true
		}
		if err != nil {
			fmt.Fprintln(p.out) //nolint:errcheck // best-effort prompt
			return "", false
		}
		fmt.Fprintln(p.out, "Invalid choice, please try again.") //nolint:errcheck // best-effort prompt
	}
}

// pick maps an answer line to a choice: its number, or its label ignoring
// case.
func pick(choices []confirm.Choice, line string) (confirm.Choice, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	if n, err := strconv.Atoi(line); err == nil {
		if n >= 1 && n <= len(choices) {
			return choices[n-1], true
		}
		return "", false
	}
	for _, c := range choices {
		if strings.EqualFold(string(c), line) {
			return c, true
		}
	}
	return "", false
}
