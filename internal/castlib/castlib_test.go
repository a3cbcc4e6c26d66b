package castlib

import (
	"errors"
	"testing"

	"lingoplayer/internal/script"
)

func TestCastLibraryStateMachine(t *testing.T) {
	l := New(1, "internal")
	if l.State != NONE {
		t.Fatalf("new library state = %v, want NONE", l.State)
	}
	if l.GetMember(1) != nil {
		t.Error("GetMember before LOADED should return nil")
	}

	wait, started := l.BeginLoad()
	if !started || l.State != LOADING {
		t.Fatalf("BeginLoad() started=%v state=%v, want true, LOADING", started, l.State)
	}
	l.PutMember(&Member{Num: 1, Name: "Gem"})
	l.FinishLoad(true)
	<-wait

	if l.State != LOADED {
		t.Fatalf("state after FinishLoad(true) = %v, want LOADED", l.State)
	}
	if m := l.GetMember(1); m == nil || m.Name != "Gem" {
		t.Errorf("GetMember(1) = %+v, want Gem", m)
	}
}

func TestCastLibraryBeginLoadCoalescesDuplicates(t *testing.T) {
	l := New(1, "internal")
	wait1, started1 := l.BeginLoad()
	wait2, started2 := l.BeginLoad()
	if !started1 || started2 {
		t.Fatalf("second concurrent BeginLoad should report started=false, got %v, %v", started1, started2)
	}
	if wait1 != wait2 {
		t.Error("concurrent BeginLoad callers should share the same completion channel")
	}
	l.FinishLoad(true)
	<-wait1
	<-wait2
}

func TestCastLibraryFinishLoadFailureReturnsToNone(t *testing.T) {
	l := New(1, "internal")
	l.BeginLoad()
	l.FinishLoad(false)
	if l.State != NONE {
		t.Errorf("state after failed load = %v, want NONE", l.State)
	}
}

func TestFindMemberByNameCaseInsensitive(t *testing.T) {
	l := New(1, "internal")
	l.BeginLoad()
	l.PutMember(&Member{Num: 1, Name: "Player"})
	l.FinishLoad(true)

	if m := l.FindMemberByName("PLAYER"); m == nil {
		t.Error("FindMemberByName should match case-insensitively")
	}
	if m := l.FindMemberByName("ghost"); m != nil {
		t.Error("FindMemberByName should return nil for an absent name")
	}
}

func TestScriptIDByNameAndScriptsOrder(t *testing.T) {
	l := New(1, "internal")
	l.BeginLoad()
	l.PutScript(5, &script.Script{Type: script.Parent}, "Vehicle")
	l.PutScript(2, &script.Script{Type: script.Parent}, "Engine")
	l.FinishLoad(true)

	id, ok := l.ScriptIDByName("vehicle")
	if !ok || id != 5 {
		t.Errorf("ScriptIDByName(vehicle) = %d, %v, want 5, true", id, ok)
	}

	order := l.Scripts()
	if len(order) != 2 {
		t.Fatalf("Scripts() returned %d entries, want 2", len(order))
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		p, base, want string
	}{
		{`assets\shared.cst`, "", "shared.cct"},
		{"assets/shared.cst", "casts", "casts/shared.cct"},
		{"noext", "", "noext.cct"},
	}
	for _, tt := range tests {
		if got := NormalizePath(tt.p, tt.base); got != tt.want {
			t.Errorf("NormalizePath(%q, %q) = %q, want %q", tt.p, tt.base, got, tt.want)
		}
	}
}

func TestRegistryFindMemberRefByNumberSpans(t *testing.T) {
	r := NewRegistry()
	a := r.AddLibrary("internal", false, WhenNeeded, "")
	a.MinMember, a.MaxMember = 1, 3
	b := r.AddLibrary("shared", true, BeforeFrameOne, "shared")
	b.MinMember, b.MaxMember = 1, 2

	lib, num, ok := r.FindMemberRefByNumber(4)
	if !ok || lib != 2 || num != 1 {
		t.Errorf("FindMemberRefByNumber(4) = lib=%d num=%d ok=%v, want lib=2 num=1 true", lib, num, ok)
	}
	if _, _, ok := r.FindMemberRefByNumber(99); ok {
		t.Error("FindMemberRefByNumber(99) should be out of range")
	}
}

func TestRegistryPreloadFetchesBeforeFrameOneOnly(t *testing.T) {
	r := NewRegistry()
	fetched := map[string]bool{}
	r.Fetch = func(p string) ([]byte, error) {
		fetched[p] = true
		return []byte("raw"), nil
	}
	r.Parse = func(raw []byte) ([]*Member, map[int]*ScriptEntry, error) {
		return nil, nil, nil
	}
	r.AddLibrary("before", true, BeforeFrameOne, "before.cst")
	r.AddLibrary("after", true, AfterFrameOne, "after.cst")
	r.AddLibrary("lazy", true, WhenNeeded, "lazy.cst")

	errs := r.Preload(MovieLoaded, "")
	if len(errs) != 0 {
		t.Fatalf("Preload(MovieLoaded) errs = %v", errs)
	}
	if !fetched["before.cct"] {
		t.Error("BeforeFrameOne library should fetch on MovieLoaded")
	}
	if fetched["after.cct"] || fetched["lazy.cct"] {
		t.Error("AfterFrameOne/WhenNeeded libraries should not fetch on MovieLoaded")
	}

	r.Preload(AfterFrameOneReason, "")
	if !fetched["after.cct"] {
		t.Error("AfterFrameOne library should fetch on AfterFrameOneReason")
	}
	if fetched["lazy.cct"] {
		t.Error("WhenNeeded library should never be preloaded")
	}
}

func TestRegistryLoadLibraryPropagatesParseError(t *testing.T) {
	r := NewRegistry()
	r.Fetch = func(p string) ([]byte, error) { return []byte("raw"), nil }
	wantErr := errors.New("bad chunk")
	r.Parse = func(raw []byte) ([]*Member, map[int]*ScriptEntry, error) {
		return nil, nil, wantErr
	}
	l := r.AddLibrary("ext", true, WhenNeeded, "ext.cst")

	err := r.LoadLibrary(l, "")
	if !errors.Is(err, wantErr) {
		t.Errorf("LoadLibrary() err = %v, want %v", err, wantErr)
	}
	if l.State != NONE {
		t.Errorf("library state after parse failure = %v, want NONE", l.State)
	}
}
