/*
 * assembly.go, part of molbuild.
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
	"math/rand"

	v3 "github.com/avillar/molbuild/v3"
)

//cloneInto deep-copies node and its whole subtree under the given
//parent (nil for a detached root). Ports are copied with their anchor
//re-established within the copy, never pointing into the original.
func cloneInto(node, parent *Compound) *Compound {
	c := &Compound{
		name:     node.name,
		particle: node.particle,
		element:  node.element,
		parent:   parent,
		seq:      seqcounter.Add(1),
	}
	if node.pos != nil {
		c.pos = node.pos.Clone()
	}
	if node.byLabel != nil {
		c.byLabel = make(map[string]int, len(node.byLabel))
		for k, v := range node.byLabel {
			c.byLabel[k] = v
		}
	}
	if node.counters != nil {
		c.counters = make(map[string]int, len(node.counters))
		for k, v := range node.counters {
			c.counters[k] = v
		}
	}
	for _, ch := range node.children {
		c.children = append(c.children, cloneInto(ch, c))
	}
	for _, p := range node.ports {
		c.ports = append(c.ports, &Port{
			name:     p.name,
			anchor:   c,
			pos:      p.pos.Clone(),
			dir:      p.dir.Clone(),
			up:       p.up.Clone(),
			consumed: p.consumed,
		})
	}
	return c
}

func cloneTree(node *Compound) *Compound {
	return cloneInto(node, nil)
}

//Clone returns a fully independent deep copy of the compound and its
//entire subtree, including every contained port, with all anchor
//relationships re-established within the copy. Mutating the clone never
//affects the original and vice-versa. This is how one authored prototype
//monomer becomes many instances in a chain: cloning the unperturbed
//prototype every time avoids accumulating floating-point drift that
//re-deriving each unit from the previous one would cause. The source is
//locked only for the duration of the copy.
func (C *Compound) Clone() *Compound {
	if C == nil {
		panic("molbuild: Clone of a nil Compound")
	}
	C.lockRoot()
	defer C.unlockRoot()
	return cloneTree(C)
}

//removePort splices p out of its anchor's port list and marks it
//consumed.
func removePort(p *Port) {
	ps := p.anchor.ports
	for i, q := range ps {
		if q == p {
			p.anchor.ports = append(ps[:i], ps[i+1:]...)
			break
		}
	}
	p.consumed = true
}

//ForceOverlap computes the unique rigid transform that brings the frame
//of from onto the frame of to, position coinciding and directions
//antiparallel (ports join face-to-face, with the up axes aligned), and
//applies it to the entire moveThis subtree: every particle and every
//still-unconsumed port is carried rigidly; the structure owning to is
//untouched. Both ports are then consumed and no further reference to
//either is valid. Splicing moveThis into the target assembly is the
//caller's Add.
//
//from must be an unconsumed port anchored within moveThis; to must be an
//unconsumed port anchored within a different tree. Violations fail with
//ErrPortConsumed, ErrPortNotOwned or ErrSelfOverlap respectively, before
//anything is mutated.
func ForceOverlap(moveThis *Compound, from, to *Port) error {
	if moveThis == nil || from == nil || to == nil {
		panic("molbuild: ForceOverlap with nil arguments")
	}
	//validation happens with both trees already locked (in global
	//sequence order), so two joins racing for one port can't both pass
	//the consumed check before either takes a lock.
	moveRoot, toRoot := lockRoots(moveThis, to.anchor)
	defer unlockRoots(moveRoot, toRoot)
	if from.consumed {
		return newError(ErrPortConsumed, "ForceOverlap", "from-port %q", from.name)
	}
	if to.consumed {
		return newError(ErrPortConsumed, "ForceOverlap", "to-port %q", to.name)
	}
	if moveRoot == toRoot {
		return newError(ErrSelfOverlap, "ForceOverlap", "both ports belong to the tree rooted at %q", moveRoot.name)
	}
	owned := false
	for n := from.anchor; n != nil; n = n.parent {
		if n == moveThis {
			owned = true
			break
		}
	}
	if !owned {
		return newError(ErrPortNotOwned, "ForceOverlap", "port %q is not anchored within %q", from.name, moveThis.name)
	}

	//The from frame, as rows, and the target frame it must land on: the
	//to frame with direction and handedness axis negated, so the contact
	//normals end up pointing at each other.
	wf := v3.Zeros(1)
	wf.Cross(from.dir, from.up)
	wt := v3.Zeros(1)
	wt.Cross(to.dir, to.up)

	A := v3.Zeros(3)
	A.SetVecs(from.dir, []int{0})
	A.SetVecs(from.up, []int{1})
	A.SetVecs(wf, []int{2})
	B := v3.Zeros(3)
	nd := to.dir.Clone()
	nd.Scale(-1, nd.Dense)
	nw := wt.Clone()
	nw.Scale(-1, nw.Dense)
	B.SetVecs(nd, []int{0})
	B.SetVecs(to.up, []int{1})
	B.SetVecs(nw, []int{2})

	//A and B are orthonormal with determinant +1, so the operator taking
	//one onto the other is A^T B, itself a proper rotation.
	rot := v3.Zeros(3)
	rot.Mul(A.Dense.T(), B)

	moved := v3.Zeros(1)
	moved.Mul(from.pos, rot)
	delta := to.pos.Clone()
	delta.Sub(delta.Dense, moved.Dense)

	applyLocked(moveThis, delta, rot)
	removePort(from)
	removePort(to)
	return nil
}

//Polymer options.

type polymerConfig struct {
	delta float64
	src   rand.Source
}

//PolymerOption configures the chain builder.
type PolymerOption func(*polymerConfig)

//Delta sets the maximum absolute perturbation angle, in radians, applied
//independently to each joint's two rotational degrees of freedom (spin
//about the contact axis and tilt about the secondary axis). The random
//source must be seeded by the caller; a nil src uses a fixed seed so
//runs stay reproducible by default.
func Delta(max float64, src rand.Source) PolymerOption {
	return func(cfg *polymerConfig) {
		cfg.delta = max
		cfg.src = src
	}
}

//Polymer builds a chain of n units from a prototype monomer carrying an
//"up" and a "down" port with the given labels. Each unit is cloned from
//the unperturbed prototype and joined to the previous one by
//ForceOverlap of its down port onto the previous unit's up port. Units
//are labeled monomer[0] ... monomer[n-1] under the returned chain root.
//After a successful build the chain holds exactly n top-level groups,
//2(n-1) ports have been consumed and 2 free-end ports remain.
func Polymer(proto *Compound, n int, upLabel, downLabel string, opts ...PolymerOption) (*Compound, error) {
	if proto == nil || n < 1 {
		panic("molbuild: Polymer needs a prototype and at least one unit")
	}
	cfg := &polymerConfig{}
	for _, o := range opts {
		o(cfg)
	}
	var rng *rand.Rand
	if cfg.delta > 0 {
		src := cfg.src
		if src == nil {
			src = rand.NewSource(1)
		}
		rng = rand.New(src)
	}
	chain := NewCompound("polymer")
	unit := proto.Clone()
	if err := chain.Add(unit, "monomer[$]"); err != nil {
		return nil, errDecorate(err, "Polymer")
	}
	prev := unit
	for i := 1; i < n; i++ {
		unit = proto.Clone()
		down, err := unit.Port(downLabel)
		if err != nil {
			return nil, errDecorate(err, "Polymer")
		}
		up, err := prev.Port(upLabel)
		if err != nil {
			return nil, errDecorate(err, "Polymer")
		}
		if rng != nil {
			if err := down.Spin((rng.Float64()*2 - 1) * cfg.delta); err != nil {
				return nil, errDecorate(err, "Polymer")
			}
			if err := down.Tilt((rng.Float64()*2 - 1) * cfg.delta); err != nil {
				return nil, errDecorate(err, "Polymer")
			}
		}
		if err := ForceOverlap(unit, down, up); err != nil {
			return nil, errDecorate(err, "Polymer")
		}
		if err := chain.Add(unit, "monomer[$]"); err != nil {
			return nil, errDecorate(err, "Polymer")
		}
		prev = unit
	}
	return chain, nil
}
