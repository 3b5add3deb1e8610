package confirm

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mpremote-tools/mpfs/internal/prefs"
)

func newEngine(p prefs.Preferences, answers ...Choice) (*Engine, *prefs.Mem, *ScriptedPrompter) {
	store := &prefs.Mem{Prefs: p}
	sp := NewScriptedPrompter(answers...)
	return New(store, sp, zerolog.Nop()), store, sp
}

func TestRiskOf(t *testing.T) {
	tests := []struct {
		op   Op
		path string
		want Risk
	}{
		{FileDelete, "/boot.py", Critical},
		{FileDelete, "main.py", Critical},
		{FileDelete, "/lib/helper.py", Critical},
		{FileDelete, "/lib/umqtt/simple.py", Critical},
		{FileDelete, "/app/main.py", Normal},
		{FileDelete, "/library.py", Normal},
		{FileDelete, "/data.txt", Normal},
		{FolderDelete, "/lib", Critical},
		{FolderDelete, "/lib/", Critical},
		{FolderDelete, "/lib/umqtt", Critical},
		{FolderDelete, "/libs", Normal},
		{FolderDelete, "/data", Normal},
		{FolderDelete, "/", Critical},
		{Wipe, "/", Critical},
		{Wipe, "/data", Critical},
	}
	for _, tt := range tests {
		if got := RiskOf(tt.op, tt.path); got != tt.want {
			t.Errorf("RiskOf(%v, %q) = %v, want %v", tt.op, tt.path, got, tt.want)
		}
	}
}

func TestPromptChoices(t *testing.T) {
	normal := PromptFor(FileDelete, "/data.txt")
	if want := []Choice{Yes, Cancel, YesDontAsk}; !reflect.DeepEqual(normal.Choices, want) {
		t.Errorf("normal choices = %v, want %v", normal.Choices, want)
	}
	if normal.Critical || normal.Detail != "" {
		t.Errorf("normal prompt = %+v", normal)
	}
	for _, pr := range []Prompt{
		PromptFor(FileDelete, "/main.py"),
		PromptFor(FileDelete, "/lib/x.py"),
		PromptFor(FolderDelete, "/lib"),
		PromptFor(FolderDelete, "/lib/umqtt"),
		PromptFor(Wipe, "/"),
	} {
		if want := []Choice{DeleteAnyway, Cancel}; !reflect.DeepEqual(pr.Choices, want) {
			t.Errorf("%v %s choices = %v, want %v", pr.Op, pr.Path, pr.Choices, want)
		}
		if !pr.Critical || pr.Detail == "" || pr.Message == "" {
			t.Errorf("critical prompt incomplete: %+v", pr)
		}
	}
}

func TestDecideAutoApprovesWithPreference(t *testing.T) {
	e, _, sp := newEngine(prefs.Preferences{SkipFileDeleteConfirm: true})
	d := e.Decide(context.Background(), FileDelete, "/data.txt")
	if d.State != AutoApproved || !d.Proceed() {
		t.Errorf("Decide = %+v, want AutoApproved", d)
	}
	if sp.Count() != 0 {
		t.Errorf("prompted %d times", sp.Count())
	}
}

func TestDecidePreferencesAreSeparate(t *testing.T) {
	e, _, sp := newEngine(prefs.Preferences{SkipFileDeleteConfirm: true}, Cancel)
	d := e.Decide(context.Background(), FolderDelete, "/data")
	if d.State != Cancelled || sp.Count() != 1 {
		t.Errorf("folder delete with only file skip: %+v, prompts %d", d, sp.Count())
	}
}

func TestCriticalNeverAutoApproved(t *testing.T) {
	all := prefs.Preferences{SkipFileDeleteConfirm: true, SkipFolderDeleteConfirm: true}
	cases := []struct {
		op   Op
		path string
	}{
		{FileDelete, "/boot.py"},
		{FileDelete, "/main.py"},
		{FileDelete, "/lib/helper.py"},
		{FolderDelete, "/lib"},
		{FolderDelete, "/lib/umqtt"},
		{Wipe, "/"},
	}
	for _, c := range cases {
		e, store, sp := newEngine(all, DeleteAnyway)
		d := e.Decide(context.Background(), c.op, c.path)
		if d.State != Approved || d.Choice != DeleteAnyway {
			t.Errorf("%v %s: %+v", c.op, c.path, d)
		}
		if sp.Count() != 1 {
			t.Fatalf("%v %s: prompts = %d, want 1", c.op, c.path, sp.Count())
		}
		if sp.Prompts[0].Offers(YesDontAsk) {
			t.Errorf("%v %s offers don't-ask-again", c.op, c.path)
		}
		if store.Updates != 0 {
			t.Errorf("%v %s wrote preferences", c.op, c.path)
		}
	}
}

func TestLibHelperWithFolderSkipStillPrompts(t *testing.T) {
	e, _, sp := newEngine(prefs.Preferences{SkipFolderDeleteConfirm: true}, Cancel)
	d := e.Decide(context.Background(), FileDelete, "/lib/helper.py")
	if d.State != Cancelled {
		t.Errorf("state = %v, want cancelled", d.State)
	}
	if sp.Count() != 1 || !reflect.DeepEqual(sp.Prompts[0].Choices, []Choice{DeleteAnyway, Cancel}) {
		t.Errorf("prompts = %+v", sp.Prompts)
	}
}

func TestYesDoesNotPersist(t *testing.T) {
	e, store, _ := newEngine(prefs.Preferences{}, Yes)
	d := e.Decide(context.Background(), FileDelete, "/data.txt")
	if d.State != Approved {
		t.Errorf("state = %v", d.State)
	}
	if store.Updates != 0 || store.Snapshot().SkipFileDeleteConfirm {
		t.Errorf("plain Yes persisted preference: %+v", store.Snapshot())
	}
}

func TestYesDontAskPersistsAndSkipsNextTime(t *testing.T) {
	e, store, sp := newEngine(prefs.Preferences{}, YesDontAsk)
	ctx := context.Background()
	if d := e.Decide(ctx, FolderDelete, "/data"); d.State != Approved {
		t.Fatalf("first decision = %+v", d)
	}
	if got := store.Snapshot(); !got.SkipFolderDeleteConfirm || got.SkipFileDeleteConfirm {
		t.Errorf("prefs = %+v, want only folder skip", got)
	}
	if d := e.Decide(ctx, FolderDelete, "/other"); d.State != AutoApproved {
		t.Errorf("second decision = %+v, want auto", d)
	}
	if sp.Count() != 1 {
		t.Errorf("prompts = %d, want 1", sp.Count())
	}
}

func TestDismissalAndUnofferedChoiceCancel(t *testing.T) {
	e, _, _ := newEngine(prefs.Preferences{})
	if d := e.Decide(context.Background(), FileDelete, "/a.txt"); d.State != Cancelled || d.Choice != "" {
		t.Errorf("dismissed = %+v", d)
	}
	e, store, _ := newEngine(prefs.Preferences{}, YesDontAsk)
	if d := e.Decide(context.Background(), FileDelete, "/main.py"); d.State != Cancelled {
		t.Errorf("unoffered choice = %+v, want cancelled", d)
	}
	if store.Updates != 0 {
		t.Error("unoffered don't-ask-again persisted")
	}
}

func TestContextCancelWhilePending(t *testing.T) {
	store := &prefs.Mem{}
	sp := &ScriptedPrompter{Block: true}
	e := New(store, sp, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if d := e.Decide(ctx, Wipe, "/"); d.State != Cancelled {
		t.Errorf("Decide = %+v, want cancelled", d)
	}
}

func TestCancelledContextWinsOverReadyAnswer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	answers := make([]Choice, 200)
	for i := range answers {
		answers[i] = Yes
	}
	e, _, sp := newEngine(prefs.Preferences{}, answers...)
	for i := range answers {
		if d := e.Decide(ctx, FileDelete, "/x.py"); d.State != Cancelled || d.Proceed() {
			t.Fatalf("decision %d = %+v, want cancelled", i, d)
		}
	}
	if sp.Count() != len(answers) {
		t.Errorf("prompts = %d, want %d", sp.Count(), len(answers))
	}
}

func TestStoreErrors(t *testing.T) {
	boom := errors.New("disk full")
	store := &prefs.Mem{Err: boom}
	e := New(store, NewScriptedPrompter(YesDontAsk), zerolog.Nop())
	d := e.Decide(context.Background(), FileDelete, "/a.txt")
	if d.State != Approved || !errors.Is(d.Err, boom) {
		t.Errorf("Decide = %+v, want approved with store error", d)
	}
	if err := e.ResetPreferences(context.Background()); !errors.Is(err, boom) {
		t.Errorf("ResetPreferences err = %v", err)
	}
}

func TestResetPreferences(t *testing.T) {
	e, store, sp := newEngine(prefs.Preferences{SkipFileDeleteConfirm: true, SkipFolderDeleteConfirm: true}, Cancel, Cancel)
	if err := e.ResetPreferences(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.Snapshot() != (prefs.Preferences{}) {
		t.Errorf("prefs = %+v", store.Snapshot())
	}
	e.Decide(context.Background(), FileDelete, "/a.txt")
	e.Decide(context.Background(), FolderDelete, "/d")
	if sp.Count() != 2 {
		t.Errorf("prompts after reset = %d, want 2", sp.Count())
	}
}

func TestPrompterFunc(t *testing.T) {
	var seen Prompt
	pf := PrompterFunc(func(_ context.Context, p Prompt) <-chan Choice {
		seen = p
		ch := make(chan Choice, 1)
		ch <- Yes
		return ch
	})
	e := New(&prefs.Mem{}, pf, zerolog.Nop())
	if d := e.Decide(context.Background(), FileDelete, "notes.txt"); d.State != Approved {
		t.Errorf("Decide = %+v", d)
	}
	if seen.Path != "/notes.txt" || seen.Message != `Delete the file "notes.txt"?` {
		t.Errorf("prompt = %+v", seen)
	}
}
