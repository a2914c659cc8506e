/*
 * molbuild.go, part of molbuild.
 *
 * Copyright 2024 A. Villar <avillar{at}protonDOTme>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package molbuild

import (
	"fmt"
	"iter"
	"strings"
	"sync"
	"sync/atomic"

	v3 "github.com/avillar/molbuild/v3"
)

//seqcounter hands every tree root a process-unique number, used only to
//order lock acquisition when ForceOverlap touches two trees at once.
var seqcounter atomic.Uint64

//Compound is a node of a structure tree: either a single particle (leaf,
//with an element label and an absolute position) or a named group of
//child nodes. Particle positions are stored in absolute coordinates
//directly; applying a transform to a node rewrites every descendant
//particle position and port frame, there is no lazy frame composition.
//
//The tree is acyclic and every non-root node has exactly one parent.
//Adding a compound that already has a parent inserts a deep copy, so
//ownership stays strictly hierarchical.
//
//A Compound must not be copied by value after first use.
type Compound struct {
	name     string
	particle bool
	element  string
	pos      *v3.Matrix //1x3, particles only
	parent   *Compound
	children []*Compound
	byLabel  map[string]int
	counters map[string]int //per-base-label positional suffix counters
	ports    []*Port

	//root-only state. Each independent tree is protected by the single
	//lock at its root; once a compound is added under a parent its own
	//lock goes unused.
	mu  sync.Mutex
	seq uint64
}

//NewParticle returns a new leaf compound for the given element symbol at
//the given absolute position, in nanometres.
func NewParticle(element string, x, y, z float64) *Compound {
	return &Compound{
		name:     element,
		particle: true,
		element:  element,
		pos:      v3.Vec(x, y, z),
		seq:      seqcounter.Add(1),
	}
}

//NewCompound returns a new, empty group compound with the given name.
func NewCompound(name string) *Compound {
	return &Compound{
		name:     name,
		byLabel:  make(map[string]int),
		counters: make(map[string]int),
		seq:      seqcounter.Add(1),
	}
}

//Name returns the label of the compound under its parent, or the name it
//was created with if it is a root.
func (C *Compound) Name() string {
	if C == nil {
		panic("molbuild: nil Compound")
	}
	return C.name
}

//Rename sets the name of a root compound. Names of non-roots are owned
//by the parent's label index, so renaming one panics; relabeling happens
//through Add.
func (C *Compound) Rename(name string) {
	C.lockRoot()
	defer C.unlockRoot()
	if C.parent != nil {
		panic("molbuild: Rename of a non-root Compound")
	}
	C.name = name
}

//IsParticle reports whether the compound is a leaf particle.
func (C *Compound) IsParticle() bool {
	return C.particle
}

//Element returns the element symbol of a particle. Panics on a group.
func (C *Compound) Element() string {
	if !C.particle {
		panic("molbuild: Element requested from a group compound")
	}
	return C.element
}

//Pos returns a copy of the absolute position of a particle. Panics on a
//group.
func (C *Compound) Pos() *v3.Matrix {
	if !C.particle {
		panic("molbuild: Pos requested from a group compound")
	}
	C.lockRoot()
	defer C.unlockRoot()
	return C.pos.Clone()
}

//Children returns the direct children of the compound, in insertion
//order. The returned slice is a copy; the children themselves are not.
func (C *Compound) Children() []*Compound {
	C.lockRoot()
	defer C.unlockRoot()
	ret := make([]*Compound, len(C.children))
	copy(ret, C.children)
	return ret
}

//Parent returns the parent of the compound, or nil for a root.
func (C *Compound) Parent() *Compound {
	return C.parent
}

//Root returns the top of the tree the compound belongs to.
func (C *Compound) Root() *Compound {
	r := C
	for r.parent != nil {
		r = r.parent
	}
	return r
}

func (C *Compound) lockRoot()   { C.Root().mu.Lock() }
func (C *Compound) unlockRoot() { C.Root().mu.Unlock() }

//lockRoots locks the trees of a and b, in global sequence order when
//they differ, and returns the locked roots. A root may be re-parented
//by a concurrent Add between resolution and acquisition, so both are
//re-resolved under the locks and the acquisition retried if stale. The
//caller unlocks via unlockRoots.
func lockRoots(a, b *Compound) (ra, rb *Compound) {
	for {
		ra, rb = a.Root(), b.Root()
		first, second := ra, rb
		if first.seq > second.seq {
			first, second = second, first
		}
		first.mu.Lock()
		if second != first {
			second.mu.Lock()
		}
		if a.Root() == ra && b.Root() == rb {
			return ra, rb
		}
		if second != first {
			second.mu.Unlock()
		}
		first.mu.Unlock()
	}
}

func unlockRoots(ra, rb *Compound) {
	if rb != ra {
		rb.mu.Unlock()
	}
	ra.mu.Unlock()
}

//suffixed reports whether label uses the positional-suffix convention
//and returns its base name.
func suffixed(label string) (string, bool) {
	if strings.HasSuffix(label, "[$]") {
		return label[:len(label)-3], true
	}
	return label, false
}

//Add inserts child under this group with the given label. A label ending
//in "[$]" is expanded to a fresh sequential label ("C[$]" becomes C[0],
//then C[1], ...) and the insertion always succeeds; any other label must
//be unique among the group's children or the call fails with
//ErrDuplicateLabel. An empty label defaults to the child's name with the
//positional suffix. If child already has a parent, a deep copy of it is
//inserted instead, so no node ever has two owners.
func (C *Compound) Add(child *Compound, label string) error {
	if C == nil || child == nil {
		panic("molbuild: Add with a nil Compound")
	}
	if C.particle {
		panic("molbuild: can't add children to a particle")
	}
	//both roots are held for the duration, in sequence order when they
	//differ, so opposing cross-tree Adds can't hold one lock each.
	ra, rb := lockRoots(C, child)
	defer unlockRoots(ra, rb)
	if child.parent != nil {
		child = cloneTree(child)
	}
	if label == "" {
		base := child.name
		if base == "" {
			base = "compound"
		}
		label = base + "[$]"
	}
	if base, ok := suffixed(label); ok {
		//skip over any indices already taken by exact-label insertions,
		//so a reloaded tree keeps accepting positional additions.
		for {
			n := C.counters[base]
			C.counters[base]++
			label = fmt.Sprintf("%s[%d]", base, n)
			if _, taken := C.byLabel[label]; !taken {
				break
			}
		}
	} else if _, taken := C.byLabel[label]; taken {
		return newError(ErrDuplicateLabel, "Add", "label %q already present in %q", label, C.name)
	}
	child.name = label
	child.parent = C
	C.byLabel[label] = len(C.children)
	C.children = append(C.children, child)
	return nil
}

//Lookup returns the children matching label, in insertion order. An
//exact label returns exactly one node; a base name (the positional label
//without its index) returns every child added under that base, so
//repeated same-named children can be addressed collectively. Fails with
//ErrUnknownLabel if nothing matches.
func (C *Compound) Lookup(label string) ([]*Compound, error) {
	if C == nil {
		panic("molbuild: Lookup on a nil Compound")
	}
	C.lockRoot()
	defer C.unlockRoot()
	if i, ok := C.byLabel[label]; ok {
		return []*Compound{C.children[i]}, nil
	}
	prefix := label + "["
	var ret []*Compound
	for _, ch := range C.children {
		if strings.HasPrefix(ch.name, prefix) && strings.HasSuffix(ch.name, "]") {
			ret = append(ret, ch)
		}
	}
	if len(ret) == 0 {
		return nil, newError(ErrUnknownLabel, "Lookup", "no child %q in %q", label, C.name)
	}
	return ret, nil
}

//forEach applies f to node and every descendant, depth-first, children
//in insertion order.
func forEach(node *Compound, f func(*Compound)) {
	f(node)
	for _, ch := range node.children {
		forEach(ch, f)
	}
}

//snapshotParticles collects the leaves of the subtree under the tree
//lock, so no traversal ever observes a half-applied transform.
func (C *Compound) snapshotParticles() []*Compound {
	C.lockRoot()
	defer C.unlockRoot()
	var leaves []*Compound
	forEach(C, func(n *Compound) {
		if n.particle {
			leaves = append(leaves, n)
		}
	})
	return leaves
}

//Particles returns a lazy depth-first sequence over every particle in
//the subtree. The sequence is finite and restartable: each range over it
//yields a fresh traversal.
func (C *Compound) Particles() iter.Seq[*Compound] {
	return func(yield func(*Compound) bool) {
		for _, p := range C.snapshotParticles() {
			if !yield(p) {
				return
			}
		}
	}
}

//NParticles returns the number of particles in the subtree.
func (C *Compound) NParticles() int {
	return len(C.snapshotParticles())
}

//Coords returns a fresh NParticles x 3 matrix with the absolute position
//of every particle in the subtree, in traversal order.
func (C *Compound) Coords() *v3.Matrix {
	C.lockRoot()
	defer C.unlockRoot()
	var leaves []*Compound
	forEach(C, func(n *Compound) {
		if n.particle {
			leaves = append(leaves, n)
		}
	})
	ret := v3.Zeros(len(leaves))
	for i, p := range leaves {
		ret.SetVecs(p.pos, []int{i})
	}
	return ret
}

//SetCoords rewrites the absolute position of every particle in the
//subtree from the rows of coords, in traversal order. This is the bulk
//entry point for external structure loaders. It fails with ErrBadCoords,
//touching nothing, if the shape doesn't match the particle count.
func (C *Compound) SetCoords(coords *v3.Matrix) error {
	C.lockRoot()
	defer C.unlockRoot()
	var leaves []*Compound
	forEach(C, func(n *Compound) {
		if n.particle {
			leaves = append(leaves, n)
		}
	})
	if coords.NVecs() != len(leaves) {
		return newError(ErrBadCoords, "SetCoords", "%d rows given for %d particles", coords.NVecs(), len(leaves))
	}
	for i, p := range leaves {
		p.pos.Copy(coords.VecView(i))
	}
	return nil
}

//String returns a short human-readable description of the compound.
func (C *Compound) String() string {
	if C.particle {
		return fmt.Sprintf("<%s pos=%5.3f %5.3f %5.3f>", C.element, C.pos.At(0, 0), C.pos.At(0, 1), C.pos.At(0, 2))
	}
	return fmt.Sprintf("<%s, %d children, %d particles>", C.name, len(C.children), C.NParticles())
}
