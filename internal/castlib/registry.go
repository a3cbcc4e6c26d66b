package castlib

import (
	"path"
	"strings"
	"sync"

	"lingoplayer/internal/script"
)

// FetchFunc acquires the bytes of an external cast file by its
// normalized path; it is the registry's view of the §6
// "External cast fetcher" host collaborator.
type FetchFunc func(normalizedPath string) ([]byte, error)

// ParseFunc parses fetched bytes into cast members + scripts to splice
// into a target library; it stands in for the §6 "Chunk provider"
// collaborator's per-cast-file decode, which this core treats as an
// opaque callback (the RIFX/chunk parser itself is out of scope, §1).
type ParseFunc func(raw []byte) (members []*Member, scripts map[int]*ScriptEntry, err error)

// ScriptEntry pairs a parsed script with its registered name, for
// splicing into a CastLibrary by ParseFunc.
type ScriptEntry struct {
	Script *script.Script
	Name   string
}

// Registry is the ordered collection of CastLibrary plus the fetch/parse
// callbacks used to acquire external casts (§4.4).
type Registry struct {
	mu    sync.RWMutex
	libs  []*CastLibrary // 1-based: libs[0] is library number 1
	cache map[string][]byte // by-normalized-path in-memory cache

	Fetch FetchFunc
	Parse ParseFunc
}

// NewRegistry returns an empty registry; libraries are added with
// AddLibrary in declaration order so numbering stays dense and stable
// for the movie's lifetime (§3 invariant).
func NewRegistry() *Registry {
	return &Registry{cache: make(map[string][]byte)}
}

// AddLibrary appends a new library, assigning it the next 1-based
// number.
func (r *Registry) AddLibrary(name string, external bool, preload PreloadMode, path string) *CastLibrary {
	r.mu.Lock()
	defer r.mu.Unlock()
	num := len(r.libs) + 1
	lib := New(num, name)
	lib.External = external
	lib.Preload = preload
	lib.Path = path
	r.libs = append(r.libs, lib)
	return lib
}

// Count returns the number of libraries (N in the §3 dense-numbering
// invariant).
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.libs)
}

// GetCast returns library n (1-based), or nil if n is out of [1,N].
func (r *Registry) GetCast(n int) *CastLibrary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n < 1 || n > len(r.libs) {
		return nil
	}
	return r.libs[n-1]
}

// GetCastByName returns the first library matching name case-insensitively.
func (r *Registry) GetCastByName(name string) *CastLibrary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.libs {
		if strings.EqualFold(l.Name, name) {
			return l
		}
	}
	return nil
}

// GetMember resolves a member by (lib,num); a library in NONE/LOADING
// state yields nil, which the VM surfaces as CastNotLoaded → void.
func (r *Registry) GetMember(lib, num int) *Member {
	l := r.GetCast(lib)
	if l == nil {
		return nil
	}
	return l.GetMember(num)
}

// FindMemberByName searches all loaded libraries in order; first hit wins.
func (r *Registry) FindMemberByName(name string) (lib int, m *Member) {
	r.mu.RLock()
	libs := append([]*CastLibrary(nil), r.libs...)
	r.mu.RUnlock()
	for _, l := range libs {
		if found := l.FindMemberByName(name); found != nil {
			return l.Number, found
		}
	}
	return 0, nil
}

// FindMemberRefByNumber treats the loaded libraries as concatenated
// slot spaces, using each library's declared [MinMember,MaxMember]
// range, and returns the (lib,num) a global 1-based number falls into.
func (r *Registry) FindMemberRefByNumber(globalNumber int) (lib, num int, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	base := 0
	for _, l := range r.libs {
		span := l.MaxMember - l.MinMember + 1
		if span <= 0 {
			continue
		}
		if globalNumber > base && globalNumber <= base+span {
			return l.Number, l.MinMember + (globalNumber - base - 1), true
		}
		base += span
	}
	return 0, 0, false
}

// GetScript resolves a parsed script by (lib, scriptID).
func (r *Registry) GetScript(lib, scriptID int) *script.Script {
	l := r.GetCast(lib)
	if l == nil {
		return nil
	}
	return l.GetScript(scriptID)
}

// NormalizePath implements §4.4's path normalization: backslashes to
// forward slashes, trailing component only, extension stripped,
// ".cct" appended, optionally joined under basePath.
func NormalizePath(p, basePath string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	base := path.Base(p)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	base += ".cct"
	if basePath != "" {
		return path.Join(basePath, base)
	}
	return base
}

// Preload walks libraries in order; for each external NONE-state
// library whose Preload mode matches reason, it loads the library via
// Fetch+Parse, coalescing concurrent duplicate loads through the
// library's own BeginLoad/FinishLoad latch (§4.4, §5).
func (r *Registry) Preload(reason PreloadReason, basePath string) []error {
	r.mu.RLock()
	libs := append([]*CastLibrary(nil), r.libs...)
	r.mu.RUnlock()

	var errs []error
	for _, l := range libs {
		if !l.External {
			continue
		}
		shouldLoad := false
		switch l.Preload {
		case BeforeFrameOne:
			shouldLoad = reason == MovieLoaded
		case AfterFrameOne:
			shouldLoad = reason == AfterFrameOneReason
		case WhenNeeded:
			shouldLoad = false
		}
		if !shouldLoad {
			continue
		}
		if l.State != NONE {
			continue
		}
		if err := r.LoadLibrary(l, basePath); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// LoadLibrary fetches and splices an external library's bytes. If
// another goroutine is already loading it, LoadLibrary blocks on the
// shared completion latch instead of fetching twice.
func (r *Registry) LoadLibrary(l *CastLibrary, basePath string) error {
	wait, started := l.BeginLoad()
	if !started {
		<-wait
		return nil
	}

	normalized := NormalizePath(l.Path, basePath)

	r.mu.Lock()
	cached, hit := r.cache[normalized]
	r.mu.Unlock()

	var raw []byte
	var err error
	if hit {
		raw = cached
	} else if r.Fetch != nil {
		raw, err = r.Fetch(normalized)
	}
	if err != nil {
		l.FinishLoad(false)
		return err
	}
	if !hit {
		r.mu.Lock()
		r.cache[normalized] = raw
		r.mu.Unlock()
	}

	if r.Parse == nil {
		l.FinishLoad(false)
		return nil
	}
	members, scripts, perr := r.Parse(raw)
	if perr != nil {
		l.FinishLoad(false)
		return perr
	}
	for _, m := range members {
		l.PutMember(m)
	}
	for id, entry := range scripts {
		l.PutScript(id, entry.Script, entry.Name)
	}
	l.FinishLoad(true)
	return nil
}
