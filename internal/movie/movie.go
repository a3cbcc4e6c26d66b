// Package movie is the host-facing facade over a loaded Lingo movie: it
// wires together the datum arena, cast registry, VM, builtin registry,
// score player and net task manager that the rest of this core exposes
// only as separate packages (§2 "load a movie, run its score, execute
// handlers... against a host-supplied chunk provider").
package movie

import (
	"context"
	"fmt"
	"log"

	"lingoplayer/internal/builtins"
	"lingoplayer/internal/castlib"
	"lingoplayer/internal/castloader"
	"lingoplayer/internal/datum"
	"lingoplayer/internal/hostiface"
	"lingoplayer/internal/nettask"
	"lingoplayer/internal/score"
	"lingoplayer/internal/script"
	"lingoplayer/internal/vm"
)

// Options configures a Movie at load time. There is no configuration
// framework here (§10 Ambient Stack) — a host constructs Options
// directly and NewDefaultOptions supplies the same defaults Director
// itself uses.
type Options struct {
	BasePath        string // external-cast join root, §4.4 path normalization
	DiskCachePath   string // empty disables the on-disk cast cache
	NetClient       hostiface.NetClient
	ExternalFetcher hostiface.ExternalCastFetcher
	Logger          *log.Logger
}

// NewDefaultOptions returns Options with a stdlib logger and no caches
// or network collaborators wired — a host fills those in as needed.
func NewDefaultOptions() Options {
	return Options{Logger: log.Default()}
}

// Movie is one loaded movie: its cast registry, VM, score player and
// net task manager, plus the config the host's chunk provider parsed.
type Movie struct {
	opts Options

	Arena    *datum.Arena
	Registry *castlib.Registry
	VM       *vm.VM
	Score    *score.Score
	Net      *nettask.Manager

	Config hostiface.Config
}

// Load builds a Movie from a host-parsed hostiface.Movie: it installs
// each cast-list entry into the registry, splices embedded members and
// scripts, wires the VM's builtin registry and PlayerController, then
// runs the MOVIE_LOADED preload pass (§4.4).
func Load(ctx context.Context, parsed *hostiface.Movie, opts Options) (*Movie, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	arena := datum.NewArena()
	registry := castlib.NewRegistry()

	for i, entry := range parsed.CastList {
		lib := registry.AddLibrary(entry.Name, entry.ExternalPath != "", entry.Preload, entry.ExternalPath)
		lib.MinMember, lib.MaxMember = entry.MinMember, entry.MaxMember
		if i < len(parsed.Casts) {
			spliceCast(lib, parsed.Casts[i], parsed.ScriptNames)
		}
	}

	wireFetch(registry, opts)

	v := vm.New(arena, registry)
	v.MovieNames = parsed.ScriptNames
	v.CapitalX = parsed.Config.CapitalX
	v.DirectorVersion = parsed.Config.DirectorVersion
	builtins.RegisterAll(v)

	tempo := parsed.Config.Tempo
	sc := score.New(v, registry, parsed.Score, parsed.FrameLabels, tempo)

	var netClient nettask.Client
	if opts.NetClient != nil {
		netClient = hostNetAdapter{opts.NetClient}
	}
	net := nettask.New(netClient)

	m := &Movie{
		opts:     opts,
		Arena:    arena,
		Registry: registry,
		VM:       v,
		Score:    sc,
		Net:      net,
		Config:   parsed.Config,
	}

	if errs := registry.Preload(castlib.MovieLoaded, opts.BasePath); len(errs) > 0 {
		opts.Logger.Printf("movie: %d cast preload error(s) during load, continuing", len(errs))
		for _, e := range errs {
			opts.Logger.Printf("movie: preload: %v", e)
		}
	}

	return m, nil
}

// spliceCast installs a cast-list entry's already-parsed embedded
// members and scripts directly (no fetch needed — the host's chunk
// provider already separated them from the RIFX container, §6). It
// also finishes the per-script decode step a chunk provider would
// normally do right after parsing: building each handler's
// offset→index jump table and each script's name→handler index.
func spliceCast(lib *castlib.CastLibrary, chunks hostiface.CastChunks, movieNames []string) {
	for _, mem := range chunks.Members {
		lib.PutMember(mem)
	}
	for id, sc := range chunks.ScriptByID {
		for i := range sc.Handlers {
			sc.Handlers[i].BuildOffsetIndex()
		}
		sc.BuildHandlerIndex(movieNames)
		name := chunks.ScriptNames[id]
		lib.PutScript(id, sc, name)
	}
	if lib.State == castlib.NONE && !lib.External {
		lib.BeginLoad()
		lib.FinishLoad(true)
	}
}

func wireFetch(registry *castlib.Registry, opts Options) {
	if opts.ExternalFetcher == nil {
		return
	}
	var disk *castloader.DiskCache
	if opts.DiskCachePath != "" {
		d, err := castloader.OpenDiskCache(opts.DiskCachePath)
		if err != nil {
			opts.Logger.Printf("movie: disk cache disabled: %v", err)
		} else {
			disk = d
		}
	}
	loader := castloader.New(castloader.FetcherFunc(opts.ExternalFetcher.Fetch), disk)
	registry.Fetch = func(normalized string) ([]byte, error) {
		return loader.Load(context.Background(), normalized)
	}
}

type hostNetAdapter struct {
	c hostiface.NetClient
}

func (a hostNetAdapter) Get(ctx context.Context, url string) ([]byte, error)  { return a.c.Get(ctx, url) }
func (a hostNetAdapter) Post(ctx context.Context, url string, body []byte) ([]byte, error) {
	return a.c.Post(ctx, url, body)
}

// AfterFrameOne runs the AFTER_FRAME_ONE preload pass; a host calls
// this once frame 1 has finished its own transition (§4.4).
func (m *Movie) AfterFrameOne() []error {
	return m.Registry.Preload(castlib.AfterFrameOneReason, m.opts.BasePath)
}

// Tick advances the score player by one step if playing, per §4.5.
func (m *Movie) Tick() { m.Score.Tick() }

// Play, Stop, Pause, GoToFrame and GoToLabel delegate straight to the
// score player; they exist on Movie so a host doesn't need to reach
// into an internal package to drive playback.
func (m *Movie) Play()           { m.Score.Play() }
func (m *Movie) Stop()           { m.Score.Stop() }
func (m *Movie) Pause()          { m.Score.Pause() }
func (m *Movie) GoToFrame(n int) { m.Score.GoToFrame(n) }

func (m *Movie) GoToLabel(s string) error { return m.Score.GoToLabel(s) }

// NextFrame and PrevFrame step relative to the current frame (§6
// "nextFrame, prevFrame").
func (m *Movie) NextFrame() { m.Score.GoToFrame(m.Score.CurrentFrame() + 1) }
func (m *Movie) PrevFrame() { m.Score.GoToFrame(m.Score.CurrentFrame() - 1) }

// CurrentFrame, LastFrame, Tempo and State surface the score player's
// introspection fields on the host facade (§6 "currentFrame, lastFrame,
// tempo, ... state").
func (m *Movie) CurrentFrame() int  { return m.Score.CurrentFrame() }
func (m *Movie) LastFrame() int     { return m.Score.LastFrame() }
func (m *Movie) Tempo() int         { return m.Score.Tempo() }
func (m *Movie) State() score.State { return m.Score.State() }

// StageSize returns the movie's stage dimensions (§6 "stageSize").
func (m *Movie) StageSize() (width, height int) {
	return m.Config.StageWidth, m.Config.StageHeight
}

// SpriteInfo is one sprite's read-only state as of the current frame,
// per §6 "enumerate sprites for current frame (each: channel, loc,
// size, cast-ref, ink, blend, visible)".
type SpriteInfo struct {
	Channel              int
	LocH, LocV           int
	Width, Height        int
	MemberLib, MemberNum int
	Ink, Blend           int
	Visible              bool
}

// Sprites enumerates every sprite channel with live persistent state
// for the current frame.
func (m *Movie) Sprites() []SpriteInfo {
	nums := m.Score.SpriteNumbers()
	out := make([]SpriteInfo, 0, len(nums))
	for _, n := range nums {
		sp := m.Score.Sprite(n)
		out = append(out, SpriteInfo{
			Channel:   n,
			LocH:      sp.LocH,
			LocV:      sp.LocV,
			Width:     sp.Width,
			Height:    sp.Height,
			MemberLib: sp.MemberLib,
			MemberNum: sp.MemberNum,
			Ink:       sp.Ink,
			Blend:     sp.Blend,
			Visible:   sp.MemberNum != 0,
		})
	}
	return out
}

// HandlerInfo is one handler's name and arity, for script introspection.
type HandlerInfo struct {
	Name     string
	ArgCount int
}

// ScriptInfo is one loaded script's identity, type and handler table,
// per §6 "enumerate scripts and handlers".
type ScriptInfo struct {
	Lib, Num int
	Name     string
	Type     script.Type
	Handlers []HandlerInfo
}

// Scripts enumerates every loaded script across every cast library.
func (m *Movie) Scripts() []ScriptInfo {
	var out []ScriptInfo
	for n := 1; n <= m.Registry.Count(); n++ {
		lib := m.Registry.GetCast(n)
		if lib == nil {
			continue
		}
		for _, id := range lib.ScriptIDs() {
			sc := lib.GetScript(id)
			if sc == nil {
				continue
			}
			name, _ := lib.ScriptName(id)
			handlers := make([]HandlerInfo, len(sc.Handlers))
			for i, h := range sc.Handlers {
				handlers[i] = HandlerInfo{Name: m.VM.Name(sc, h.NameID), ArgCount: h.ArgCount}
			}
			out = append(out, ScriptInfo{Lib: n, Num: id, Name: name, Type: sc.Type, Handlers: handlers})
		}
	}
	return out
}

// CallHandler runs a named movie-script handler directly (e.g. a host
// driving a script-controlled movie outside the frame loop), returning
// void and an error if no movie script declares it.
func (m *Movie) CallHandler(name string, args []datum.Datum) (datum.Datum, error) {
	for n := 1; n <= m.Registry.Count(); n++ {
		lib := m.Registry.GetCast(n)
		if lib == nil {
			continue
		}
		for _, sc := range lib.Scripts() {
			if sc.Type != script.Movie {
				continue
			}
			if idx, ok := sc.HandlerByName(name); ok {
				return m.VM.Execute(n, sc, &sc.Handlers[idx], args, datum.Void)
			}
		}
	}
	return datum.Void, fmt.Errorf("movie: no movie-script handler named %q", name)
}
