package score

import "lingoplayer/internal/hostiface"

// Sprite returns a copy of channel's persistent state (1-based sprite
// number, i.e. channel = spriteNumber+5), for read-only inspection by
// builtins or a host UI.
func (s *Score) Sprite(spriteNumber int) Sprite {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := spriteNumber + 5
	if sp, ok := s.persistent[ch]; ok {
		return *sp
	}
	return Sprite{}
}

func (s *Score) sprite(spriteNumber int) *Sprite {
	ch := spriteNumber + 5
	sp, ok := s.persistent[ch]
	if !ok {
		sp = &Sprite{}
		s.persistent[ch] = sp
	}
	return sp
}

// SetPuppet implements Lingo's `sprite(n).puppet = true/false` (§3):
// once puppeted, frame overlay no longer touches that channel until
// unpuppeted.
func (s *Score) SetPuppet(spriteNumber int, puppet bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sprite(spriteNumber).Puppet = puppet
}

// SetLoc implements `sprite(n).loc = point(...)`.
func (s *Score) SetLoc(spriteNumber, h, v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp := s.sprite(spriteNumber)
	sp.LocH, sp.LocV = h, v
}

// SetMember implements `sprite(n).member = member(...)`; assigning a
// member puppets the channel implicitly, matching Director's behavior.
func (s *Score) SetMember(spriteNumber, lib, num int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp := s.sprite(spriteNumber)
	sp.MemberLib, sp.MemberNum = lib, num
	sp.Puppet = true
}

// Behaviors exposes the precomputed attachment intervals for the
// currently loaded score chunk (introspection only; live dispatch does
// not consult this — see ComputeFrameIntervals).
func (s *Score) Behaviors() []FrameInterval {
	s.mu.Lock()
	chunk := hostiface.ScoreChunk{FrameCount: s.frameCount, Frames: s.frames}
	s.mu.Unlock()
	return ComputeFrameIntervals(chunk, s.registry)
}
