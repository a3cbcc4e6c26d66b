// Package hostiface defines the interfaces this core consumes from and
// exposes to its host, per spec §6. The chunk-level RIFX parser, the
// bitmap codec, the presentation shell, the debugger UI, the Lingo
// compiler, the network fetcher and the bytecode decompiler are all
// external collaborators; this package only carries their contracts.
package hostiface

import (
	"context"

	"lingoplayer/internal/castlib"
	"lingoplayer/internal/script"
)

// CastListEntry is one declared library in a parsed movie's cast list.
type CastListEntry struct {
	Name         string
	ExternalPath string // empty if embedded
	Preload      castlib.PreloadMode
	MinMember    int
	MaxMember    int
}

// CastChunks holds one library's raw member and script chunks, handed
// to the core already separated by the host's RIFX parser — member
// payload decoding (bitmap/sound/etc) stays with the host, only script
// bytecode is parsed into the core's own script.Script by the loader
// that wires ChunkProvider output into castlib.
type CastChunks struct {
	Members     []*castlib.Member
	ScriptByID  map[int]*script.Script
	ScriptNames map[int]string // script id -> name
}

// FrameLabel names a frame in the score's label table.
type FrameLabel struct {
	Name  string
	Frame int
}

// Config carries movie-wide settings the score player and VM need.
type Config struct {
	StageWidth  int
	StageHeight int
	Tempo       int
	CapitalX    bool // layout flag affecting the variable-slot multiplier (§4.1)
	DirectorVersion int
}

// ScoreChunk is the host-parsed frame timeline: sparse per-frame
// channel data plus the reserved channels (§3). Representation is kept
// intentionally minimal here — only what the score player needs to
// seed its own internal score.Score model on load.
type ScoreChunk struct {
	FrameCount int
	// Frames maps frame number -> channel number -> member reference;
	// channel 0 carries the frame script member (if any).
	Frames map[int]map[int]ChannelCell
}

// ChannelCell is one (frame, channel) slot in the raw score chunk.
type ChannelCell struct {
	MemberLib     int
	MemberNum     int
	LocH, LocV    int
	Width, Height int
	Ink           int
	Blend         int
}

// Movie is what a ChunkProvider hands back after parsing a RIFX
// container's bytes.
type Movie struct {
	Config      Config
	CastList    []CastListEntry
	Casts       []CastChunks // parallel to CastList
	ScriptNames []string     // movie-wide name table
	Score       ScoreChunk
	FrameLabels []FrameLabel
}

// ChunkProvider parses a raw RIFX byte stream into a Movie. This is
// the chunk-level binary parser explicitly out of scope for this core
// (§1); the core only consumes its output.
type ChunkProvider interface {
	Load(raw []byte) (*Movie, error)
}

// DecodedBitmap is the RGBA result of decoding one bitmap member.
type DecodedBitmap struct {
	W, H   int
	Pixels []byte // RGBA8888
}

// BitmapDecoder decodes a raw bitmap chunk to RGBA pixels (§6). Out of
// scope for this core beyond the interface it calls through.
type BitmapDecoder interface {
	Decode(raw []byte, w, h, bitDepth int, palette []byte, bigEndian bool, dirVersion int) (*DecodedBitmap, error)
}

// ExternalCastFetcher acquires the bytes of an external cast file (§6).
type ExternalCastFetcher interface {
	Fetch(ctx context.Context, normalizedPath string) ([]byte, error)
}

// NetClient performs the host's async GET/POST (§6).
type NetClient interface {
	Get(ctx context.Context, url string) ([]byte, error)
	Post(ctx context.Context, url string, body []byte) ([]byte, error)
}
