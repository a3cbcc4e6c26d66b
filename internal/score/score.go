// Package score implements the frame-driven score player (§4.5): the
// frame timeline, persistent sprite channels, and the movie/behavior
// event dispatch that drives frame transitions. It holds the sole
// vm.PlayerController implementation so navigation builtins
// (go/play/stop/puppetTempo/updateStage) reach it without
// internal/builtins or internal/vm importing this package.
package score

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"lingoplayer/internal/castlib"
	"lingoplayer/internal/datum"
	"lingoplayer/internal/hostiface"
	"lingoplayer/internal/script"
	"lingoplayer/internal/vm"
)

// State is the score player's run state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// Sprite is one persistent channel's live state (§3 "persistent channel
// mirror exists separately from per-frame data"). Channels 0..5 are
// reserved (script, palette, transition, sound1, sound2, tempo);
// sprite channels start at 6, exposed to Lingo as 1-based sprite
// numbers (channel-5).
type Sprite struct {
	MemberLib, MemberNum int
	LocH, LocV           int
	Width, Height        int
	Ink, Blend           int
	Puppet               bool

	// Behavior holds the script-instance created for this channel's
	// behavior member the first time it entered occupied (beginSprite),
	// or datum.Void if the channel has no behavior attached.
	Behavior datum.Datum
}

func (s *Sprite) occupied() bool { return s.MemberNum != 0 }

// FrameInterval materializes one behavior attachment's run of frames
// (§3), derived from the raw score chunk by ComputeFrameIntervals. The
// live dispatch path does not consult this directly — it reads
// persistent-channel occupancy each tick, which is equivalent for a
// loaded movie — but hosts (debug UIs, tests) can use it to introspect
// what the score chunk declared.
type FrameInterval struct {
	Channel              int
	StartFrame, EndFrame int
	ScriptLib, ScriptNum int
}

// ComputeFrameIntervals scans chunk for contiguous runs of the same
// (lib,num) member in each sprite channel (≥6) whose member is a
// Behavior-type script, per §3's (channel, startFrame, endFrame,
// script reference) shape. ScriptLib/ScriptNum name the member's
// script by library and script id, as Registry.GetScript takes them.
func ComputeFrameIntervals(chunk hostiface.ScoreChunk, registry *castlib.Registry) []FrameInterval {
	type run struct {
		lib, num, scriptID, start, end int
	}
	open := map[int]*run{}
	var out []FrameInterval

	closeRun := func(ch int) {
		r := open[ch]
		if r == nil {
			return
		}
		out = append(out, FrameInterval{Channel: ch, StartFrame: r.start, EndFrame: r.end, ScriptLib: r.lib, ScriptNum: r.scriptID})
		delete(open, ch)
	}

	for f := 1; f <= chunk.FrameCount; f++ {
		row := chunk.Frames[f]
		seen := map[int]bool{}
		for ch, cell := range row {
			if ch < 6 || cell.MemberNum == 0 {
				continue
			}
			m := registry.GetMember(cell.MemberLib, cell.MemberNum)
			if m == nil || !m.IsScript {
				continue
			}
			if sc := registry.GetScript(cell.MemberLib, m.ScriptID); sc == nil || sc.Type != script.Behavior {
				continue
			}
			seen[ch] = true
			if r, ok := open[ch]; ok && r.lib == cell.MemberLib && r.num == cell.MemberNum {
				r.end = f
				continue
			}
			closeRun(ch)
			open[ch] = &run{lib: cell.MemberLib, num: cell.MemberNum, scriptID: m.ScriptID, start: f, end: f}
		}
		for ch := range open {
			if !seen[ch] {
				closeRun(ch)
			}
		}
	}
	for ch := range open {
		closeRun(ch)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Channel != out[j].Channel {
			return out[i].Channel < out[j].Channel
		}
		return out[i].StartFrame < out[j].StartFrame
	})
	return out
}

// Score is the frame player: one instance per loaded movie.
type Score struct {
	mu sync.Mutex

	registry *castlib.Registry
	vm       *vm.VM

	frames     map[int]map[int]hostiface.ChannelCell
	labels     map[string]int
	frameCount int

	lastFrame    int
	tempo        int
	state        State
	currentFrame int

	persistent map[int]*Sprite

	lastTick time.Time

	inTransition   bool
	redirectTarget *int
}

// New builds a Score over chunk/labels, seeding the persistent channel
// mirror from frame 1 and leaving state=Stopped at frame 1, per §4.5.
func New(v *vm.VM, registry *castlib.Registry, chunk hostiface.ScoreChunk, labels []hostiface.FrameLabel, tempo int) *Score {
	if tempo < 1 {
		tempo = 15
	}
	labelMap := make(map[string]int, len(labels))
	for _, l := range labels {
		labelMap[strings.ToLower(l.Name)] = l.Frame
	}
	last := chunk.FrameCount
	if last < 1 {
		last = 1
	}
	s := &Score{
		registry:     registry,
		vm:           v,
		frames:       chunk.Frames,
		labels:       labelMap,
		frameCount:   chunk.FrameCount,
		lastFrame:    last,
		tempo:        tempo,
		state:        Stopped,
		currentFrame: 1,
		persistent:   make(map[int]*Sprite),
	}
	v.Player = s
	s.overlay(1)
	return s
}

// CurrentFrame implements vm.PlayerController.
func (s *Score) CurrentFrame() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentFrame
}

// LastFrame implements vm.PlayerController.
func (s *Score) LastFrame() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFrame
}

// PuppetTempo implements vm.PlayerController; a value < 1 floors to 1
// per §4.5 "tempo (frames/sec; default 15; floor 1)".
func (s *Score) PuppetTempo(t int) {
	if t < 1 {
		t = 1
	}
	s.mu.Lock()
	s.tempo = t
	s.mu.Unlock()
}

// Tempo returns the player's current frames/sec setting.
func (s *Score) Tempo() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tempo
}

// SpriteNumbers returns the sorted 1-based sprite numbers of every
// channel carrying persistent state, for host enumeration of the
// current frame's sprites (§6).
func (s *Score) SpriteNumbers() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.persistent))
	for ch := range s.persistent {
		if ch < 6 {
			continue
		}
		out = append(out, ch-5)
	}
	sort.Ints(out)
	return out
}

// UpdateStage implements vm.PlayerController. Pixel rendering is out of
// scope (§1 Non-goals); this only resets the tick cadence clock so a
// script-driven redraw loop doesn't see an inflated elapsed time on the
// next Tick.
func (s *Score) UpdateStage() {
	s.mu.Lock()
	s.lastTick = time.Now()
	s.mu.Unlock()
}

// Play implements vm.PlayerController.
func (s *Score) Play() {
	s.mu.Lock()
	s.state = Playing
	s.lastTick = time.Now()
	s.mu.Unlock()
}

// Stop implements vm.PlayerController.
func (s *Score) Stop() {
	s.mu.Lock()
	s.state = Stopped
	s.mu.Unlock()
}

// Pause implements vm.PlayerController.
func (s *Score) Pause() {
	s.mu.Lock()
	if s.state == Playing {
		s.state = Paused
	}
	s.mu.Unlock()
}

// State returns the player's current run state.
func (s *Score) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// GoToLabel implements vm.PlayerController. An unknown label leaves the
// current frame unchanged and is reported through the returned error;
// the go/play builtins log that error as a warning and do not fail the
// calling handler (§4.5).
func (s *Score) GoToLabel(label string) error {
	s.mu.Lock()
	frame, ok := s.labels[strings.ToLower(label)]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("score: frame label %q not found", label)
	}
	s.GoToFrame(frame)
	return nil
}

// GoToFrame implements vm.PlayerController. If called reentrantly from
// a handler dispatched by an in-progress transition, it records the
// redirect instead of recursing (§4.5 "restarts dispatch from step 2
// of the new target only once per tick").
func (s *Score) GoToFrame(n int) {
	s.mu.Lock()
	if s.inTransition {
		t := n
		s.redirectTarget = &t
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.transition(n)
}

// Tick advances one frame when Playing, per the cadence implied by
// tempo; a PAUSED/STOPPED score is a no-op (§4.5).
func (s *Score) Tick() {
	s.mu.Lock()
	if s.state != Playing {
		s.mu.Unlock()
		return
	}
	now := time.Now()
	interval := time.Second / time.Duration(s.tempo)
	if s.lastTick.IsZero() {
		s.lastTick = now
	}
	due := now.Sub(s.lastTick) >= interval
	if due {
		s.lastTick = now
	}
	s.mu.Unlock()
	if due {
		s.stepFrame()
	}
}

func (s *Score) stepFrame() {
	s.mu.Lock()
	next := s.currentFrame + 1
	wrapped := next > s.lastFrame
	if wrapped {
		next = 1
	}
	s.mu.Unlock()
	s.transition(next)
}
