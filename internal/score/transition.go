package score

import (
	"sort"

	"lingoplayer/internal/datum"
	"lingoplayer/internal/hostiface"
	"lingoplayer/internal/script"
)

// activeBehavior names one behavior-bearing channel at the moment it's
// read, for exitFrame/enterFrame-style diffing.
type activeBehavior struct {
	channel  int
	lib, num int // behavior script identity
}

func (s *Score) activeBehaviors() []activeBehavior {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []activeBehavior
	for ch, sp := range s.persistent {
		if ch < 6 || !sp.occupied() {
			continue
		}
		m := s.registry.GetMember(sp.MemberLib, sp.MemberNum)
		if m == nil || !m.IsScript {
			continue
		}
		sc := s.registry.GetScript(sp.MemberLib, m.ScriptID)
		if sc == nil || sc.Type != script.Behavior {
			continue
		}
		out = append(out, activeBehavior{channel: ch, lib: sp.MemberLib, num: m.ScriptID})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].channel < out[j].channel })
	return out
}

// overlay applies step 1 of §4.5's frame transition: every non-puppet
// persistent sprite channel is overlaid with the score-frame data at
// target, or cleared if target's row has no cell for that channel.
func (s *Score) overlay(target int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.frames[target]

	seen := make(map[int]bool, len(row))
	for ch, cell := range row {
		if ch < 6 {
			continue // reserved channels carry no per-sprite overlay
		}
		seen[ch] = true
		sp, ok := s.persistent[ch]
		if !ok {
			sp = &Sprite{Behavior: datum.Void}
			s.persistent[ch] = sp
		}
		if sp.Puppet {
			continue
		}
		sp.MemberLib, sp.MemberNum = cell.MemberLib, cell.MemberNum
		sp.LocH, sp.LocV = cell.LocH, cell.LocV
		sp.Width, sp.Height = cell.Width, cell.Height
		sp.Ink, sp.Blend = cell.Ink, cell.Blend
	}
	for ch, sp := range s.persistent {
		if ch < 6 || sp.Puppet || seen[ch] {
			continue
		}
		sp.MemberLib, sp.MemberNum = 0, 0
	}
}

// transition drives one full frame transition to target, including the
// "restart from step 2, once per tick" go/play redirect guard.
func (s *Score) transition(target int) {
	s.mu.Lock()
	if s.inTransition {
		// A transition is already driving dispatch on this goroutine
		// (e.g. a handler calling play() from inside enterFrame); record
		// the redirect for the active call to pick up instead of
		// recursing into a second nested transition.
		t := target
		s.redirectTarget = &t
		s.mu.Unlock()
		return
	}
	s.inTransition = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inTransition = false
		s.mu.Unlock()
	}()

	redirected := false
	for {
		oldActive := s.activeBehaviors()
		oldOccupied := s.occupiedSnapshot()

		s.overlay(target)

		s.mu.Lock()
		t := target
		if t < 1 {
			t = 1
		}
		if t > s.lastFrame {
			if s.state == Playing {
				t = 1
			} else {
				t = s.lastFrame
			}
		}
		s.currentFrame = t
		frameScriptCell, hasFrameScript := s.frames[t][0]
		s.mu.Unlock()

		newActive := s.activeBehaviors()
		newOccupied := s.occupiedSnapshot()

		s.dispatchExit(oldActive, newActive)
		s.dispatchBeginSprite(oldOccupied, newOccupied)
		s.dispatchMovieAndBehaviors("prepareFrame", newActive)
		s.dispatchMovieAndBehaviors("enterFrame", newActive)
		if hasFrameScript && frameScriptCell.MemberNum != 0 {
			s.runFrameScript(frameScriptCell)
		}
		s.dispatchMovieAndBehaviors("stepFrame", newActive)

		s.mu.Lock()
		rt := s.redirectTarget
		s.redirectTarget = nil
		s.mu.Unlock()

		if rt != nil && !redirected {
			redirected = true
			target = *rt
			continue
		}
		return
	}
}

func (s *Score) occupiedSnapshot() map[int]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]bool, len(s.persistent))
	for ch, sp := range s.persistent {
		out[ch] = sp.occupied()
	}
	return out
}

func (s *Score) dispatchExit(oldActive, newActive []activeBehavior) {
	stillActive := make(map[int]bool, len(newActive))
	for _, a := range newActive {
		stillActive[a.channel] = true
	}
	for _, a := range oldActive {
		if stillActive[a.channel] {
			continue
		}
		s.dispatchToScript(a.lib, a.num, s.behaviorReceiver(a.channel), "exitFrame")
	}
}

func (s *Score) dispatchBeginSprite(oldOccupied, newOccupied map[int]bool) {
	for ch, occupied := range newOccupied {
		if occupied && !oldOccupied[ch] {
			s.beginSprite(ch)
		}
	}
}

// beginSprite instantiates a fresh script-instance for a behavior
// channel the first time it becomes occupied and fires its exitFrame
// handler family's sibling, beginSprite, on that instance.
func (s *Score) beginSprite(ch int) {
	s.mu.Lock()
	sp, ok := s.persistent[ch]
	s.mu.Unlock()
	if !ok {
		return
	}
	m := s.registry.GetMember(sp.MemberLib, sp.MemberNum)
	if m == nil || !m.IsScript {
		return
	}
	sc := s.registry.GetScript(sp.MemberLib, m.ScriptID)
	if sc == nil || sc.Type != script.Behavior {
		return
	}
	inst := s.vm.Arena.NewInstance(sp.MemberLib, m.ScriptID)
	s.mu.Lock()
	sp.Behavior = inst
	s.mu.Unlock()

	if idx, ok := sc.HandlerByName("new"); ok {
		s.vm.Execute(sp.MemberLib, sc, &sc.Handlers[idx], nil, inst)
	}
	s.dispatchToScript(sp.MemberLib, m.ScriptID, inst, "beginSprite")
}

func (s *Score) behaviorReceiver(ch int) datum.Datum {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.persistent[ch]
	if !ok {
		return datum.Void
	}
	return sp.Behavior
}

func (s *Score) runFrameScript(cell hostiface.ChannelCell) {
	m := s.registry.GetMember(cell.MemberLib, cell.MemberNum)
	if m == nil || !m.IsScript {
		return
	}
	sc := s.registry.GetScript(cell.MemberLib, m.ScriptID)
	if sc == nil || len(sc.Handlers) == 0 {
		return
	}
	// A frame (score-type) script has no event name of its own; its
	// single implicit entry point runs once per visit to the frame.
	s.vm.Execute(cell.MemberLib, sc, &sc.Handlers[0], nil, datum.Void)
}

// dispatchMovieAndBehaviors runs eventName on every movie script (in
// cast-library/load order) then every active behavior (in channel
// order), per §4.5's event dispatch order.
func (s *Score) dispatchMovieAndBehaviors(eventName string, active []activeBehavior) {
	for n := 1; n <= s.registry.Count(); n++ {
		lib := s.registry.GetCast(n)
		if lib == nil {
			continue
		}
		for _, sc := range lib.Scripts() {
			if sc.Type != script.Movie {
				continue
			}
			if idx, ok := sc.HandlerByName(eventName); ok {
				s.vm.Execute(n, sc, &sc.Handlers[idx], nil, datum.Void)
			}
		}
	}
	for _, a := range active {
		s.dispatchToScript(a.lib, a.num, s.behaviorReceiver(a.channel), eventName)
	}
}

func (s *Score) dispatchToScript(lib, scriptID int, receiver datum.Datum, eventName string) {
	sc := s.registry.GetScript(lib, scriptID)
	if sc == nil {
		return
	}
	idx, ok := sc.HandlerByName(eventName)
	if !ok {
		return
	}
	s.vm.Execute(lib, sc, &sc.Handlers[idx], nil, receiver)
}
