// Package fakemovie builds small synthetic hostiface.Movie values for
// tests: a single-handler script, a one-frame score, whatever a given
// package's test wants to exercise, without a real chunk provider.
package fakemovie

import (
	"lingoplayer/internal/castlib"
	"lingoplayer/internal/hostiface"
	"lingoplayer/internal/script"
)

// Builder accumulates cast libraries, scripts and score frames for one
// synthetic movie.
type Builder struct {
	names []string
	cfg   hostiface.Config
	casts []hostiface.CastListEntry
	chunk []hostiface.CastChunks
	score hostiface.ScoreChunk
	labels []hostiface.FrameLabel
}

// New returns an empty builder with frameCount frames and the given
// movie-wide name table.
func New(names []string, frameCount int) *Builder {
	return &Builder{
		names: names,
		cfg:   hostiface.Config{Tempo: 15, StageWidth: 640, StageHeight: 480},
		score: hostiface.ScoreChunk{FrameCount: frameCount, Frames: make(map[int]map[int]hostiface.ChannelCell)},
	}
}

// WithTempo overrides the default tempo (15).
func (b *Builder) WithTempo(t int) *Builder { b.cfg.Tempo = t; return b }

// WithCapitalX sets the capital-X layout flag consulted by the
// variable-slot multiplier.
func (b *Builder) WithCapitalX(v bool) *Builder { b.cfg.CapitalX = v; return b }

// AddLibrary appends an embedded (non-external) cast library and
// returns its 1-based number.
func (b *Builder) AddLibrary(name string) int {
	b.casts = append(b.casts, hostiface.CastListEntry{Name: name, Preload: castlib.WhenNeeded})
	b.chunk = append(b.chunk, hostiface.CastChunks{
		ScriptByID:  make(map[int]*script.Script),
		ScriptNames: make(map[int]string),
	})
	return len(b.casts)
}

// AddScript installs sc under scriptID/name in library lib (1-based),
// and a member slot at memberNum pointing to it.
func (b *Builder) AddScript(lib, memberNum, scriptID int, name string, sc *script.Script) {
	idx := lib - 1
	b.chunk[idx].ScriptByID[scriptID] = sc
	b.chunk[idx].ScriptNames[scriptID] = name
	b.chunk[idx].Members = append(b.chunk[idx].Members, &castlib.Member{
		Num: memberNum, Name: name, IsScript: true, ScriptID: scriptID, MemberType: "script",
	})
	if memberNum > b.casts[idx].MaxMember {
		b.casts[idx].MaxMember = memberNum
	}
	if b.casts[idx].MinMember == 0 || memberNum < b.casts[idx].MinMember {
		b.casts[idx].MinMember = memberNum
	}
}

// SetFrameScript puts memberNum (in lib) into channel 0 of frame.
func (b *Builder) SetFrameScript(frame, lib, memberNum int) {
	b.cell(frame, 0, hostiface.ChannelCell{MemberLib: lib, MemberNum: memberNum})
}

// SetSprite places a member in a sprite channel (1-based sprite
// number) for the given frame.
func (b *Builder) SetSprite(frame, spriteNumber, lib, memberNum int) {
	b.cell(frame, spriteNumber+5, hostiface.ChannelCell{MemberLib: lib, MemberNum: memberNum})
}

func (b *Builder) cell(frame, channel int, c hostiface.ChannelCell) {
	if b.score.Frames[frame] == nil {
		b.score.Frames[frame] = make(map[int]hostiface.ChannelCell)
	}
	b.score.Frames[frame][channel] = c
}

// AddLabel registers a frame label.
func (b *Builder) AddLabel(name string, frame int) {
	b.labels = append(b.labels, hostiface.FrameLabel{Name: name, Frame: frame})
}

// Build returns the finished hostiface.Movie.
func (b *Builder) Build() *hostiface.Movie {
	return &hostiface.Movie{
		Config:      b.cfg,
		CastList:    b.casts,
		Casts:       b.chunk,
		ScriptNames: b.names,
		Score:       b.score,
		FrameLabels: b.labels,
	}
}

// Handler builds a script.Handler named nameID with the given
// instructions, keeping each instruction's Offset exactly as supplied
// (build them with Ins); jmp targets resolve against those Offset
// values.
func Handler(nameID, argCount, localCount int, instructions ...script.Instruction) script.Handler {
	return script.Handler{NameID: nameID, ArgCount: argCount, LocalCount: localCount, Instructions: instructions}
}

// Ins is a short constructor for script.Instruction.
func Ins(offset int, op script.OpCode, arg int32) script.Instruction {
	return script.Instruction{Offset: offset, Op: op, Arg: arg}
}
