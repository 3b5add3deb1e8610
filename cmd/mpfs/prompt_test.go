package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mpremote-tools/mpfs/internal/confirm"
	"github.com/mpremote-tools/mpfs/internal/ops"
)

func TestPick(t *testing.T) {
	choices := []confirm.Choice{confirm.Yes, confirm.Cancel, confirm.YesDontAsk}
	tests := []struct {
		line string
		want confirm.Choice
		ok   bool
	}{
		{"1\n", confirm.Yes, true},
		{" 3 ", confirm.YesDontAsk, true},
		{"cancel", confirm.Cancel, true},
		{"Yes, don't ask again", confirm.YesDontAsk, true},
		{"4", "", false},
		{"0", "", false},
		{"", "", false},
		{"maybe", "", false},
	}
	for _, tt := range tests {
		got, ok := pick(choices, tt.line)
		if got != tt.want || ok != tt.ok {
			t.Errorf("pick(%q) = %q, %v; want %q, %v", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTermPrompter(t *testing.T) {
	var out bytes.Buffer
	p := newTermPrompter(strings.NewReader("9\n2\n"), &out)

	c, ok := <-p.Prompt(context.Background(), confirm.PromptFor(confirm.FileDelete, "/lib/helper.py"))
	if !ok || c != confirm.Cancel {
		t.Errorf("answer = %q, %v; want Cancel", c, ok)
	}
	text := out.String()
	for _, want := range []string{`WARNING: Delete the file "helper.py"?`, "library folder", "1. Delete anyway", "2. Cancel", "Invalid choice"} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt output missing %q:\n%s", want, text)
		}
	}
}

func TestTermPrompterPlainQuestion(t *testing.T) {
	var out bytes.Buffer
	p := newTermPrompter(strings.NewReader("1\n"), &out)
	if c := <-p.Prompt(context.Background(), confirm.PromptFor(confirm.FileDelete, "/notes.txt")); c != confirm.Yes {
		t.Errorf("answer = %q, want Yes", c)
	}
	if strings.Contains(out.String(), "WARNING") {
		t.Errorf("non-critical prompt marked as warning:\n%s", out.String())
	}
}

func TestTermPrompterEOFDismisses(t *testing.T) {
	p := newTermPrompter(strings.NewReader(""), &bytes.Buffer{})
	if c, ok := <-p.Prompt(context.Background(), confirm.PromptFor(confirm.Wipe, "/")); ok {
		t.Errorf("got %q, want dismissal", c)
	}
}

func TestTermPrompterLastLineWithoutNewline(t *testing.T) {
	p := newTermPrompter(strings.NewReader("1"), &bytes.Buffer{})
	if c := <-p.Prompt(context.Background(), confirm.PromptFor(confirm.FileDelete, "/x.txt")); c != confirm.Yes {
		t.Errorf("answer = %q, want Yes", c)
	}
}

func TestTermPrompterCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	p := newTermPrompter(strings.NewReader("1\n"), &out)
	if _, ok := <-p.Prompt(ctx, confirm.PromptFor(confirm.FileDelete, "/x.txt")); ok {
		t.Error("answered after cancellation")
	}
	if out.Len() != 0 {
		t.Errorf("prompt shown after cancellation: %q", out.String())
	}
}

func TestPrintResult(t *testing.T) {
	tests := []struct {
		r    ops.Result
		out  string
		code int
	}{
		{ops.Result{Status: ops.Done, Message: "device wiped"}, "device wiped\n", 0},
		{ops.Result{Status: ops.Done}, "", 0},
		{ops.Result{Status: ops.Cancelled, Message: "cancelled"}, "Cancelled.\n", 0},
		{ops.Result{Status: ops.Skipped, Message: "nothing to upload"}, "nothing to upload\n", 0},
		{ops.Result{Status: ops.Failed, Message: "No device found"}, "", 1},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if code := printResult(&buf, tt.r); code != tt.code || buf.String() != tt.out {
			t.Errorf("printResult(%+v) = %d %q, want %d %q", tt.r, code, buf.String(), tt.code, tt.out)
		}
	}
}

func TestLineProgress(t *testing.T) {
	var buf bytes.Buffer
	p := &lineProgress{w: &buf}
	p.Start(2)
	p.Advance("lib")
	p.Advance("main.py")
	p.Finish()
	if got := buf.String(); got != "[1/2] lib\n[2/2] main.py\n" {
		t.Errorf("output = %q", got)
	}
	if isTerminal(&buf) {
		t.Error("buffer reported as terminal")
	}
}
