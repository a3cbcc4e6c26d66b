package score

import (
	"testing"
	"time"

	"lingoplayer/internal/castlib"
	"lingoplayer/internal/datum"
	"lingoplayer/internal/hostiface"
	"lingoplayer/internal/script"
	"lingoplayer/internal/vm"
)

func newLoadedRegistry() (*castlib.Registry, *castlib.CastLibrary) {
	r := castlib.NewRegistry()
	lib := r.AddLibrary("internal", false, castlib.WhenNeeded, "")
	lib.BeginLoad()
	lib.FinishLoad(true)
	return r, lib
}

func TestComputeFrameIntervalsTracksContiguousRuns(t *testing.T) {
	r, lib := newLoadedRegistry()
	lib.PutMember(&castlib.Member{Num: 1, IsScript: true, ScriptID: 0})
	lib.PutMember(&castlib.Member{Num: 2, IsScript: true, ScriptID: 1})
	lib.PutScript(0, &script.Script{Type: script.Behavior}, "a")
	lib.PutScript(1, &script.Script{Type: script.Behavior}, "b")

	chunk := hostiface.ScoreChunk{
		FrameCount: 5,
		Frames: map[int]map[int]hostiface.ChannelCell{
			1: {6: {MemberLib: 1, MemberNum: 1}},
			2: {6: {MemberLib: 1, MemberNum: 1}},
			3: {6: {MemberLib: 1, MemberNum: 1}},
			4: {6: {MemberLib: 1, MemberNum: 2}},
			5: {6: {MemberLib: 1, MemberNum: 2}},
		},
	}

	got := ComputeFrameIntervals(chunk, r)
	if len(got) != 2 {
		t.Fatalf("len(intervals) = %d, want 2", len(got))
	}
	if got[0] != (FrameInterval{Channel: 6, StartFrame: 1, EndFrame: 3, ScriptLib: 1, ScriptNum: 0}) {
		t.Errorf("first run = %+v", got[0])
	}
	if got[1] != (FrameInterval{Channel: 6, StartFrame: 4, EndFrame: 5, ScriptLib: 1, ScriptNum: 1}) {
		t.Errorf("second run = %+v", got[1])
	}
}

func TestComputeFrameIntervalsIgnoresNonScriptMembers(t *testing.T) {
	r, lib := newLoadedRegistry()
	lib.PutMember(&castlib.Member{Num: 1, IsScript: false})

	chunk := hostiface.ScoreChunk{
		FrameCount: 2,
		Frames: map[int]map[int]hostiface.ChannelCell{
			1: {6: {MemberLib: 1, MemberNum: 1}},
			2: {6: {MemberLib: 1, MemberNum: 1}},
		},
	}
	if got := ComputeFrameIntervals(chunk, r); len(got) != 0 {
		t.Errorf("expected no intervals for a non-script member, got %+v", got)
	}
}

func TestNewSeedsPersistentFromFrameOne(t *testing.T) {
	r, lib := newLoadedRegistry()
	lib.PutMember(&castlib.Member{Num: 5})

	chunk := hostiface.ScoreChunk{
		FrameCount: 3,
		Frames: map[int]map[int]hostiface.ChannelCell{
			1: {6: {MemberLib: 1, MemberNum: 5, LocH: 10, LocV: 20, Width: 32, Height: 64}},
		},
	}
	v := vm.New(datum.NewArena(), r)
	s := New(v, r, chunk, nil, 0)

	if s.tempo != 15 {
		t.Errorf("tempo = %d, want default 15", s.tempo)
	}
	if got := s.Tempo(); got != 15 {
		t.Errorf("Tempo() = %d, want default 15", got)
	}
	if s.currentFrame != 1 {
		t.Errorf("currentFrame = %d, want 1", s.currentFrame)
	}
	if v.Player != s {
		t.Error("New should install itself as the VM's PlayerController")
	}
	sp := s.Sprite(1) // sprite 1 = channel 6
	if sp.MemberNum != 5 || sp.LocH != 10 || sp.LocV != 20 || sp.Width != 32 || sp.Height != 64 {
		t.Errorf("Sprite(1) = %+v, want overlaid from frame 1", sp)
	}
	if got := s.SpriteNumbers(); len(got) != 1 || got[0] != 1 {
		t.Errorf("SpriteNumbers() = %v, want [1]", got)
	}
}

func TestNewFloorsSubOneTempoToDefault(t *testing.T) {
	r, _ := newLoadedRegistry()
	v := vm.New(datum.NewArena(), r)
	s := New(v, r, hostiface.ScoreChunk{FrameCount: 1}, nil, 0)
	if s.tempo != 15 {
		t.Errorf("tempo = %d, want 15 for a <1 tempo argument", s.tempo)
	}
}

func TestPuppetTempoFloorsToOne(t *testing.T) {
	r, _ := newLoadedRegistry()
	v := vm.New(datum.NewArena(), r)
	s := New(v, r, hostiface.ScoreChunk{FrameCount: 1}, nil, 15)
	s.PuppetTempo(0)
	if s.tempo != 1 {
		t.Errorf("tempo = %d, want floored to 1", s.tempo)
	}
	s.PuppetTempo(-5)
	if s.tempo != 1 {
		t.Errorf("tempo = %d, want floored to 1", s.tempo)
	}
}

func TestGoToLabelUnknownReturnsError(t *testing.T) {
	r, _ := newLoadedRegistry()
	v := vm.New(datum.NewArena(), r)
	s := New(v, r, hostiface.ScoreChunk{FrameCount: 1}, nil, 15)
	if err := s.GoToLabel("nope"); err == nil {
		t.Error("expected an error for an unknown label")
	}
}

func TestGoToLabelResolvesKnownLabel(t *testing.T) {
	r, _ := newLoadedRegistry()
	v := vm.New(datum.NewArena(), r)
	chunk := hostiface.ScoreChunk{FrameCount: 10}
	s := New(v, r, chunk, []hostiface.FrameLabel{{Name: "Intro", Frame: 4}}, 15)
	if err := s.GoToLabel("INTRO"); err != nil {
		t.Fatalf("GoToLabel() error = %v", err)
	}
	if s.currentFrame != 4 {
		t.Errorf("currentFrame = %d, want 4 after GoToLabel", s.currentFrame)
	}
}

func TestGoToFrameRecordsRedirectInsteadOfRecursing(t *testing.T) {
	r, _ := newLoadedRegistry()
	v := vm.New(datum.NewArena(), r)
	s := New(v, r, hostiface.ScoreChunk{FrameCount: 10}, nil, 15)

	s.mu.Lock()
	s.inTransition = true
	s.mu.Unlock()

	s.GoToFrame(7)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.redirectTarget == nil || *s.redirectTarget != 7 {
		t.Fatalf("redirectTarget = %v, want pointer to 7", s.redirectTarget)
	}
	if s.currentFrame == 7 {
		t.Error("a redirect recorded mid-transition should not itself advance currentFrame")
	}
}

func TestTickOnlyAdvancesWhilePlaying(t *testing.T) {
	r, _ := newLoadedRegistry()
	v := vm.New(datum.NewArena(), r)
	s := New(v, r, hostiface.ScoreChunk{FrameCount: 10}, nil, 15)

	s.Tick() // Stopped: no-op
	if s.currentFrame != 1 {
		t.Errorf("currentFrame = %d, want unchanged at 1 while stopped", s.currentFrame)
	}

	s.Play()
	s.mu.Lock()
	s.lastTick = s.lastTick.Add(-time.Hour) // force the tempo interval to have elapsed
	s.mu.Unlock()
	s.Tick()
	if s.currentFrame != 2 {
		t.Errorf("currentFrame = %d, want 2 after a due tick while playing", s.currentFrame)
	}
}

func TestSpriteMutators(t *testing.T) {
	r, lib := newLoadedRegistry()
	lib.PutMember(&castlib.Member{Num: 9})

	chunk := hostiface.ScoreChunk{
		FrameCount: 2,
		Frames: map[int]map[int]hostiface.ChannelCell{
			1: {6: {MemberLib: 1, MemberNum: 9}},
		},
	}
	v := vm.New(datum.NewArena(), r)
	s := New(v, r, chunk, nil, 15)

	s.SetPuppet(1, true)
	s.GoToFrame(2) // frame 2's row has no cell for channel 6
	if sp := s.Sprite(1); sp.MemberNum != 9 {
		t.Errorf("a puppeted channel should survive an overlay that would otherwise clear it, got %+v", sp)
	}

	s.SetLoc(1, 33, 44)
	if sp := s.Sprite(1); sp.LocH != 33 || sp.LocV != 44 {
		t.Errorf("SetLoc did not apply, got %+v", sp)
	}

	s.SetMember(2, 1, 9) // sprite 2 = channel 7, previously unoccupied
	sp := s.Sprite(2)
	if sp.MemberLib != 1 || sp.MemberNum != 9 || !sp.Puppet {
		t.Errorf("SetMember should set the member and implicitly puppet, got %+v", sp)
	}
}

// behaviorFixture builds a one-script cast library whose Behavior
// script records every lifecycle event it's dispatched, by calling the
// "record" builtin with the event's name.
func behaviorFixture(t *testing.T, r *castlib.Registry, lib *castlib.CastLibrary, memberNum int) *[]string {
	t.Helper()
	names := []string{"new", "beginSprite", "prepareFrame", "enterFrame", "stepFrame", "exitFrame"}
	lits := make([]script.Literal, len(names))
	handlers := make([]script.Handler, len(names))
	for i, n := range names {
		lits[i] = script.Literal{Kind: script.LitString, Str: n}
		handlers[i] = script.Handler{
			NameID: i,
			Instructions: []script.Instruction{
				{Offset: 0, Op: script.OpPushCons, Arg: int32(i)},
				{Offset: 2, Op: script.OpPushArgList, Arg: 1},
				{Offset: 4, Op: script.OpExtCall, Arg: 0}, // MovieNames[0] = "record"
				{Offset: 6, Op: script.OpRet},
			},
		}
		handlers[i].BuildOffsetIndex()
	}
	sc := &script.Script{Type: script.Behavior, Literals: lits, Handlers: handlers}
	sc.BuildHandlerIndex(names)
	lib.PutScript(0, sc, "behavior")
	lib.PutMember(&castlib.Member{Num: memberNum, IsScript: true, ScriptID: 0})

	var order []string
	return &order
}

func TestTransitionDispatchesLifecycleEventsInOrder(t *testing.T) {
	r, lib := newLoadedRegistry()
	order := behaviorFixture(t, r, lib, 10)

	v := vm.New(datum.NewArena(), r)
	v.MovieNames = []string{"record"}
	v.RegisterBuiltin("record", func(vv *vm.VM, args []datum.Datum) (datum.Datum, error) {
		*order = append(*order, args[0].AsString())
		return datum.Void, nil
	})

	chunk := hostiface.ScoreChunk{
		FrameCount: 3,
		Frames: map[int]map[int]hostiface.ChannelCell{
			1: {},
			2: {6: {MemberLib: 1, MemberNum: 10}},
			3: {},
		},
	}
	s := New(v, r, chunk, nil, 15)

	s.GoToFrame(2)
	want2 := []string{"new", "beginSprite", "prepareFrame", "enterFrame", "stepFrame"}
	if !equalStrings(*order, want2) {
		t.Fatalf("order after GoToFrame(2) = %v, want %v", *order, want2)
	}

	s.GoToFrame(3)
	want3 := append(append([]string{}, want2...), "exitFrame")
	if !equalStrings(*order, want3) {
		t.Fatalf("order after GoToFrame(3) = %v, want %v", *order, want3)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
