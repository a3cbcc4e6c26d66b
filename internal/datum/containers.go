package datum

import "strings"

// Arena owns the backing storage for every shared-mutable Datum kind
// (list, prop-list, script-instance). A Datum carries only a Handle
// into the arena; copying the Datum copies the handle, not the
// contents, which is what gives lists and prop-lists their aliasing
// behavior (§3, §8 "Datum alias invariant").
//
// Arenas are per-movie (per-VM), never process-wide, so multiple
// movies can run concurrently without sharing state (§9).
type Arena struct {
	lists      []*List
	propLists  []*PropList
	instances  []*Instance
}

// NewArena returns an empty arena; slot 0 is reserved as a sentinel so
// a zero Handle never aliases real storage.
func NewArena() *Arena {
	return &Arena{
		lists:     []*List{nil},
		propLists: []*PropList{nil},
		instances: []*Instance{nil},
	}
}

// List is the backing store for a Lingo linear list.
type List struct {
	Items []Datum
}

// PropList is the backing store for a Lingo property list: an
// insertion-ordered mapping from Datum keys (symbols or strings in
// practice) to Datum values.
type PropList struct {
	Keys   []Datum
	Values []Datum
}

// Instance is the backing store for a script-instance: an ancestor
// handle (0 if none) forming a prototype chain, plus an ordered
// property map, and the script it was instantiated from.
type Instance struct {
	ScriptLib int
	ScriptNum int
	Ancestor  int // handle into the same arena's instances, 0 if none
	Props     *PropList
}

// NewList allocates a list and returns a Datum referencing it.
func (a *Arena) NewList(items []Datum) Datum {
	a.lists = append(a.lists, &List{Items: items})
	return Datum{Kind: KindList, Handle: len(a.lists) - 1}
}

// NewPropList allocates a prop-list and returns a Datum referencing it.
func (a *Arena) NewPropList(keys, values []Datum) Datum {
	a.propLists = append(a.propLists, &PropList{Keys: keys, Values: values})
	return Datum{Kind: KindPropList, Handle: len(a.propLists) - 1}
}

// NewInstance allocates a script-instance and returns a Datum
// referencing it.
func (a *Arena) NewInstance(scriptLib, scriptNum int) Datum {
	inst := &Instance{ScriptLib: scriptLib, ScriptNum: scriptNum, Props: &PropList{}}
	a.instances = append(a.instances, inst)
	return Datum{Kind: KindScriptInstance, Handle: len(a.instances) - 1}
}

func (a *Arena) List(d Datum) *List           { return a.lists[d.Handle] }
func (a *Arena) PropListOf(d Datum) *PropList { return a.propLists[d.Handle] }
func (a *Arena) Instance(d Datum) *Instance   { return a.instances[d.Handle] }

// DuplicateList performs the shallow copy semantics of the `duplicate`
// container method: a new handle, same element Datums (which, if they
// are themselves lists, remain aliased to the originals — that's what
// "shallow" means here).
func (a *Arena) DuplicateList(d Datum) Datum {
	src := a.List(d)
	items := make([]Datum, len(src.Items))
	copy(items, src.Items)
	return a.NewList(items)
}

// DuplicatePropList performs the shallow copy of a prop-list.
func (a *Arena) DuplicatePropList(d Datum) Datum {
	src := a.PropListOf(d)
	keys := make([]Datum, len(src.Keys))
	values := make([]Datum, len(src.Values))
	copy(keys, src.Keys)
	copy(values, src.Values)
	return a.NewPropList(keys, values)
}

// --- List container methods (§4.3) ---

// GetAt is 1-based; out of range returns void rather than erroring,
// matching the builtin registry's script-friendly convention.
func (l *List) GetAt(i int) Datum {
	if i < 1 || i > len(l.Items) {
		return Void
	}
	return l.Items[i-1]
}

// SetAt pads the list with void up to i-1 when i is one past the end
// (or further, per §4.3 "pads with void if i > len + 1").
func (l *List) SetAt(i int, v Datum) {
	if i < 1 {
		return
	}
	for len(l.Items) < i {
		l.Items = append(l.Items, Void)
	}
	l.Items[i-1] = v
}

func (l *List) Append(v Datum) { l.Items = append(l.Items, v) }

func (l *List) AddAt(i int, v Datum) {
	if i < 1 {
		i = 1
	}
	if i > len(l.Items)+1 {
		i = len(l.Items) + 1
	}
	l.Items = append(l.Items, Void)
	copy(l.Items[i:], l.Items[i-1:])
	l.Items[i-1] = v
}

func (l *List) DeleteAt(i int) {
	if i < 1 || i > len(l.Items) {
		return
	}
	l.Items = append(l.Items[:i-1], l.Items[i:]...)
}

// DeleteOne removes the first item equal to v, if any.
func (l *List) DeleteOne(v Datum) {
	for i, it := range l.Items {
		if Equal(it, v) {
			l.DeleteAt(i + 1)
			return
		}
	}
}

// FindPos returns the 1-based position of the first item equal to v, or
// 0 if absent.
func (l *List) FindPos(v Datum) int {
	for i, it := range l.Items {
		if Equal(it, v) {
			return i + 1
		}
	}
	return 0
}

func (l *List) GetLast() Datum {
	if len(l.Items) == 0 {
		return Void
	}
	return l.Items[len(l.Items)-1]
}

func (l *List) Join(sep string) string {
	parts := make([]string, len(l.Items))
	for i, it := range l.Items {
		parts[i] = it.AsString()
	}
	return strings.Join(parts, sep)
}

// Sort orders the list numerically if every item is int/float, else by
// case-insensitive string comparison, per §4.3.
func (l *List) Sort() {
	numeric := true
	for _, it := range l.Items {
		if !it.IsNumeric() {
			numeric = false
			break
		}
	}
	if numeric {
		sortSlice(l.Items, func(a, b Datum) bool { return a.AsFloat() < b.AsFloat() })
	} else {
		sortSlice(l.Items, func(a, b Datum) bool {
			return strings.ToLower(a.AsString()) < strings.ToLower(b.AsString())
		})
	}
}

func sortSlice(items []Datum, less func(a, b Datum) bool) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && less(items[j], items[j-1]); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

// --- PropList container methods (§4.3) ---

func (p *PropList) keyIndex(key Datum) int {
	for i, k := range p.Keys {
		if Equal(k, key) || strings.EqualFold(k.AsString(), key.AsString()) {
			return i
		}
	}
	return -1
}

// GetAt dispatches on the key type: string/symbol looks up by key,
// integer returns the nth value (1-based), per §4.3.
func (p *PropList) GetAt(key Datum) Datum {
	if key.Kind == KindInt {
		if key.Int < 1 || key.Int > len(p.Values) {
			return Void
		}
		return p.Values[key.Int-1]
	}
	i := p.keyIndex(key)
	if i < 0 {
		return Void
	}
	return p.Values[i]
}

func (p *PropList) GetProp(key Datum) Datum { return p.GetAt(key) }

func (p *PropList) SetProp(key, value Datum) {
	if i := p.keyIndex(key); i >= 0 {
		p.Values[i] = value
		return
	}
	p.AddProp(key, value)
}

func (p *PropList) AddProp(key, value Datum) {
	p.Keys = append(p.Keys, key)
	p.Values = append(p.Values, value)
}

func (p *PropList) DeleteProp(key Datum) {
	if i := p.keyIndex(key); i >= 0 {
		p.Keys = append(p.Keys[:i], p.Keys[i+1:]...)
		p.Values = append(p.Values[:i], p.Values[i+1:]...)
	}
}

// GetPropAt returns the nth key (1-based) as a symbol, per §4.3.
func (p *PropList) GetPropAt(i int) Datum {
	if i < 1 || i > len(p.Keys) {
		return Void
	}
	k := p.Keys[i-1]
	if k.Kind == KindSymbol {
		return k
	}
	return Symbol(k.AsString())
}

func (p *PropList) SetAt(key, value Datum) { p.SetProp(key, value) }

// FindPos returns the 1-based position of key, case-insensitively, or 0.
func (p *PropList) FindPos(key Datum) int {
	i := p.keyIndex(key)
	if i < 0 {
		return 0
	}
	return i + 1
}

func (p *PropList) Count() int { return len(p.Keys) }

// maxAncestorDepth bounds the ancestor-chain walk for script-instance
// property/handler resolution (§3, §4.3, §9) to guard against cyclic or
// malformed ancestor graphs.
const maxAncestorDepth = 100

// GetPropChained walks inst's own properties, then its ancestor chain
// (up to maxAncestorDepth hops), returning the first match.
func (a *Arena) GetPropChained(inst *Instance, key Datum) Datum {
	cur := inst
	for depth := 0; depth < maxAncestorDepth && cur != nil; depth++ {
		if v := cur.Props.GetProp(key); v.Kind != KindVoid || cur.Props.keyIndex(key) >= 0 {
			return v
		}
		if cur.Ancestor == 0 {
			return Void
		}
		cur = a.instances[cur.Ancestor]
	}
	return Void
}

// SetPropChained sets key on inst directly (Lingo property assignment
// never writes through to an ancestor; it shadows at the instance that
// receives the assignment).
func (a *Arena) SetPropChained(inst *Instance, key, value Datum) {
	inst.Props.SetProp(key, value)
}
