// Package vl implements the elaborator's output database (§3, §4.3, §4.4):
// the scope tree, the object factory that owns every VL entity, and the
// attribute store. All cross-references between VL entities are by Handle
// (a stable, non-owning index into a Factory arena) rather than by pointer,
// so a Scope can be walked and serialized without tracking ownership cycles.
package vl

import "sync"

// Tag is a VL entity's kind, used both to discriminate a Handle's payload
// and to bucket a scope's tag dictionary for O(k) enumeration (§4.3).
type Tag int

const (
	TagNone Tag = iota
	TagScope
	TagModule
	TagModuleArray
	TagDecl
	TagDeclArray
	TagParameter
	TagGenvar
	TagPrimitive
	TagPrimArray
	TagContAssign
	TagParamAssign
	TagDefParam
	TagProcess
	TagTaskFunc
	TagInternalScope
)

// ScopeKind distinguishes the flavor of a Scope node in the forest.
type ScopeKind int

const (
	ScopeToplevel ScopeKind = iota
	ScopeModule
	ScopeBlock
	ScopeTask
	ScopeFunction
	ScopeGenerate
)

// Handle is a stable, non-owning reference to a VL entity stored in a
// Factory arena: (tag, index). The zero Handle is invalid.
type Handle struct {
	Tag Tag
	idx int
}

// Valid reports whether h refers to a real entity.
func (h Handle) Valid() bool { return h.Tag != TagNone }

// member is one (name, handle) binding, filed under its handle's tag and
// recorded in declaration order so tag-dictionary iteration is deterministic.
type member struct {
	name   string
	handle Handle
}

// Scope is one node of the scope forest (§3's "Scope tree is a forest rooted
// at the toplevel"). Parent is non-owning; Children is downward-owning.
type Scope struct {
	mu       sync.RWMutex
	Name     string
	Kind     ScopeKind
	Parent   *Scope
	Children []*Scope

	byName map[string]Handle
	byTag  map[Tag][]member
}

// NewScope allocates an empty scope of the given kind under parent (nil for
// the toplevel root).
func NewScope(name string, kind ScopeKind, parent *Scope) *Scope {
	s := &Scope{
		Name:   name,
		Kind:   kind,
		Parent: parent,
		byName: make(map[string]Handle),
		byTag:  make(map[Tag][]member),
	}
	if parent != nil {
		parent.mu.Lock()
		parent.Children = append(parent.Children, s)
		parent.mu.Unlock()
	}
	return s
}

// Declare binds name to handle in s. ok is false if name is already bound to
// a different handle (distinct kinds may not share a name within a scope,
// §4.3).
func (s *Scope) Declare(name string, handle Handle) (ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, found := s.byName[name]; found {
		return existing == handle
	}
	s.byName[name] = handle
	s.byTag[handle.Tag] = append(s.byTag[handle.Tag], member{name: name, handle: handle})
	return true
}

// Find resolves name local to s only.
func (s *Scope) Find(name string) (Handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byName[name]
	return h, ok
}

// FindUp resolves name in s, then ascends through parents; the first hit
// wins (§4.3's find_up).
func (s *Scope) FindUp(name string) (Handle, *Scope, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if h, ok := cur.Find(name); ok {
			return h, cur, true
		}
	}
	return Handle{}, nil, false
}

// ChildByName returns the child scope named name, if any (used to walk
// hierarchical references one branch at a time).
func (s *Scope) ChildByName(name string) (*Scope, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.Children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// SplitHierName splits a dotted hierarchical reference ("top.u1.count") into
// its branch path and final name, the shape FindHierarchical expects. A name
// with no dot returns a nil branch list and the name itself as tail.
func SplitHierName(name string) ([]string, string) {
	var branches []string
	start := 0
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			branches = append(branches, name[start:i])
			start = i + 1
		}
	}
	return branches, name[start:]
}

// FindHierarchical resolves a dotted hierarchical reference rooted at root:
// each of branches is walked as a child scope (or, when `index` resolution
// for a module/primitive array hop is needed, the caller should pre-resolve
// that branch name to the array element's scope before calling), and tail is
// resolved as a plain name in the final scope (§4.3's find_hierarchical).
func FindHierarchical(root *Scope, branches []string, tail string) (Handle, *Scope, bool) {
	cur := root
	for _, b := range branches {
		next, ok := cur.ChildByName(b)
		if !ok {
			return Handle{}, nil, false
		}
		cur = next
	}
	h, ok := cur.Find(tail)
	return h, cur, ok
}

// ByTag returns the handles of s's members filed under tag, in
// declaration order, for O(k) enumeration (§4.3's tag dictionary).
func (s *Scope) ByTag(tag Tag) []Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms := s.byTag[tag]
	out := make([]Handle, len(ms))
	for i, m := range ms {
		out[i] = m.handle
	}
	return out
}

// NamesByTag returns the names of s's members filed under tag, in
// declaration order, paired positionally with ByTag's handles.
func (s *Scope) NamesByTag(tag Tag) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms := s.byTag[tag]
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.name
	}
	return out
}
