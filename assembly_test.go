/*
 * assembly_test.go, part of molbuild.
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
	"sync"
	"testing"

	v3 "github.com/avillar/molbuild/v3"
	"gonum.org/v1/gonum/floats/scalar"
)

//ch2 builds a one-carbon monomer with an up and a down port 0.077 nm
//away from the carbon, contact normals pointing outward.
func ch2(Te *testing.T) *Compound {
	m := NewCompound("cu")
	if err := m.Add(NewParticle("C", 0, 0, 0), "C"); err != nil {
		Te.Fatal(err)
	}
	if _, err := NewPort(m, "up", v3.Vec(0, 0.077, 0), v3.Vec(0, 1, 0)); err != nil {
		Te.Fatal(err)
	}
	if _, err := NewPort(m, "down", v3.Vec(0, -0.077, 0), v3.Vec(0, -1, 0)); err != nil {
		Te.Fatal(err)
	}
	return m
}

func TestCloneIndependence(Te *testing.T) {
	m := methane(Te)
	if _, err := NewPort(m, "up", v3.Vec(0, 0.15, 0), v3.Vec(0, 1, 0)); err != nil {
		Te.Fatal(err)
	}
	c := m.Clone()
	if c.NParticles() != m.NParticles() {
		Te.Fatalf("Clone has %d particles, original %d", c.NParticles(), m.NParticles())
	}
	cp, err := c.Port("up")
	if err != nil {
		Te.Fatal(err)
	}
	op, err := m.Port("up")
	if err != nil {
		Te.Fatal(err)
	}
	if cp == op {
		Te.Fatal("Clone shares a port with the original")
	}
	if cp.Anchor() == op.Anchor() {
		Te.Fatal("A cloned port resolves its anchor into the original tree")
	}
	before := m.Coords()
	c.Translate(v3.Vec(5, 5, 5))
	if err := c.Rotate(1.1, v3.Vec(0, 0, 1)); err != nil {
		Te.Fatal(err)
	}
	after := m.Coords()
	for i := 0; i < after.NVecs(); i++ {
		for j := 0; j < 3; j++ {
			if after.At(i, j) != before.At(i, j) {
				Te.Errorf("Mutating the clone moved the original at %d,%d", i, j)
			}
		}
	}
	opos := op.Pos()
	if !scalar.EqualWithinAbs(opos.At(0, 1), 0.15, testzero) {
		Te.Errorf("Mutating the clone moved the original's port: %v", opos)
	}
}

//TestAlignment is the concrete two-particle scenario: both port
//positions must coincide and, the orientations being already
//antiparallel, only a pure -0.154 translation along y is applied.
func TestAlignment(Te *testing.T) {
	a := NewCompound("a")
	if err := a.Add(NewParticle("C", 0, 0, 0), "C"); err != nil {
		Te.Fatal(err)
	}
	pa, err := NewPort(a, "p", v3.Vec(0, -0.077, 0), v3.Vec(0, -1, 0))
	if err != nil {
		Te.Fatal(err)
	}
	b := NewCompound("b")
	if err := b.Add(NewParticle("C", 0, 0, 0), "C"); err != nil {
		Te.Fatal(err)
	}
	pb, err := NewPort(b, "p", v3.Vec(0, 0.077, 0), v3.Vec(0, 1, 0))
	if err != nil {
		Te.Fatal(err)
	}
	if err := ForceOverlap(b, pb, pa); err != nil {
		Te.Fatal(err)
	}
	bc := b.Coords()
	want := []float64{0, -0.154, 0}
	for j := 0; j < 3; j++ {
		if !scalar.EqualWithinAbs(bc.At(0, j), want[j], 1e-9) {
			Te.Errorf("B's particle landed at %v, wanted (0, -0.154, 0)", bc)
		}
	}
	//the stationary structure is untouched
	ac := a.Coords()
	for j := 0; j < 3; j++ {
		if ac.At(0, j) != 0 {
			Te.Errorf("The stationary structure moved: %v", ac)
		}
	}
	//both ports were consumed
	if !pa.Consumed() || !pb.Consumed() {
		Te.Error("Ports were not consumed by the join")
	}
	if len(a.Ports()) != 0 || len(b.Ports()) != 0 {
		Te.Error("Consumed ports still listed on their trees")
	}
}

func TestPortConsumption(Te *testing.T) {
	a, b, c := ch2(Te), ch2(Te), ch2(Te)
	pa, _ := a.Port("up")
	pb, _ := b.Port("down")
	if err := ForceOverlap(b, pb, pa); err != nil {
		Te.Fatal(err)
	}
	//reusing either port must fail, changing nothing
	pc, _ := c.Port("down")
	if err := ForceOverlap(c, pc, pa); !IsKind(err, ErrPortConsumed) {
		Te.Errorf("Expected a consumed-port error for the to-port, got %v", err)
	}
	if err := ForceOverlap(b, pb, pc); !IsKind(err, ErrPortConsumed) {
		Te.Errorf("Expected a consumed-port error for the from-port, got %v", err)
	}
	if pc.Consumed() {
		Te.Error("A failed join consumed a port")
	}
}

//TestConcurrentJoins races two movers for the same to-port. Consumption
//is checked under the tree locks, so exactly one join may win; the other
//must observe the port as already consumed.
func TestConcurrentJoins(Te *testing.T) {
	for i := 0; i < 200; i++ {
		target := ch2(Te)
		up, err := target.Port("up")
		if err != nil {
			Te.Fatal(err)
		}
		movers := [2]*Compound{ch2(Te), ch2(Te)}
		var errs [2]error
		start := make(chan struct{})
		var wg sync.WaitGroup
		for k := 0; k < 2; k++ {
			wg.Add(1)
			go func(k int) {
				defer wg.Done()
				down, err := movers[k].Port("down")
				if err != nil {
					errs[k] = err
					return
				}
				<-start
				errs[k] = ForceOverlap(movers[k], down, up)
			}(k)
		}
		close(start)
		wg.Wait()
		won0, won1 := errs[0] == nil, errs[1] == nil
		if won0 == won1 {
			Te.Fatalf("Racing joins for one port gave %v and %v, wanted exactly one winner", errs[0], errs[1])
		}
		lost := errs[0]
		if lost == nil {
			lost = errs[1]
		}
		if !IsKind(lost, ErrPortConsumed) {
			Te.Errorf("The losing join got %v, wanted a consumed-port error", lost)
		}
		if got := len(target.Ports()); got != 1 {
			Te.Errorf("Target has %d free ports after the race, wanted 1", got)
		}
	}
}

func TestSelfOverlap(Te *testing.T) {
	m := ch2(Te)
	up, _ := m.Port("up")
	down, _ := m.Port("down")
	before := m.Coords()
	if err := ForceOverlap(m, down, up); !IsKind(err, ErrSelfOverlap) {
		Te.Errorf("Expected a self-overlap error, got %v", err)
	}
	after := m.Coords()
	for i := 0; i < after.NVecs(); i++ {
		for j := 0; j < 3; j++ {
			if after.At(i, j) != before.At(i, j) {
				Te.Errorf("A rejected self-overlap modified the tree at %d,%d", i, j)
			}
		}
	}
	if len(m.Ports()) != 2 {
		Te.Error("A rejected self-overlap consumed ports")
	}
}

func TestForeignPort(Te *testing.T) {
	a, b, c := ch2(Te), ch2(Te), ch2(Te)
	pb, _ := b.Port("down")
	pc, _ := c.Port("up")
	//pb is not anchored within a, so moving a with it is refused
	if err := ForceOverlap(a, pb, pc); !IsKind(err, ErrPortNotOwned) {
		Te.Errorf("Expected a port-not-owned error, got %v", err)
	}
}

//TestChainInvariant builds chains of several lengths and checks the
//bookkeeping: k top-level groups, 2(k-1) consumed joints, 2 free ends.
func TestChainInvariant(Te *testing.T) {
	proto := ch2(Te)
	for _, k := range []int{1, 2, 5, 11} {
		chain, err := Polymer(proto, k, "up", "down")
		if err != nil {
			Te.Fatal(err)
		}
		units, err := chain.Lookup("monomer")
		if err != nil {
			Te.Fatal(err)
		}
		if len(units) != k {
			Te.Errorf("Chain of %d has %d top-level groups", k, len(units))
		}
		free := chain.Ports()
		if len(free) != 2 {
			Te.Errorf("Chain of %d has %d free ports, wanted 2", k, len(free))
		}
		if chain.NParticles() != k {
			Te.Errorf("Chain of %d has %d particles", k, chain.NParticles())
		}
		//the prototype is never perturbed by building from it
		if len(proto.Ports()) != 2 || proto.NParticles() != 1 {
			Te.Fatalf("Building a chain mutated the prototype")
		}
	}
}

//TestChainGeometry checks that a straight two-port monomer extends into
//a straight chain with constant 0.154 spacing, with no drift from
//repeated cloning of the same prototype.
func TestChainGeometry(Te *testing.T) {
	proto := ch2(Te)
	const k = 20
	chain, err := Polymer(proto, k, "up", "down")
	if err != nil {
		Te.Fatal(err)
	}
	coords := chain.Coords()
	if coords.NVecs() != k {
		Te.Fatalf("Expected %d particles, got %d", k, coords.NVecs())
	}
	for i := 0; i < k; i++ {
		want := 0.154 * float64(i)
		if !scalar.EqualWithinAbs(coords.At(i, 1), want, 1e-9) {
			Te.Errorf("Unit %d sits at y=%v, wanted %v", i, coords.At(i, 1), want)
		}
		if !scalar.EqualWithinAbs(coords.At(i, 0), 0, 1e-9) || !scalar.EqualWithinAbs(coords.At(i, 2), 0, 1e-9) {
			Te.Errorf("Unit %d drifted off the chain axis", i)
		}
	}
}

func TestPolymerDelta(Te *testing.T) {
	proto := ch2(Te)
	a, err := Polymer(proto, 6, "up", "down", Delta(0.2, rand.NewSource(42)))
	if err != nil {
		Te.Fatal(err)
	}
	b, err := Polymer(proto, 6, "up", "down", Delta(0.2, rand.NewSource(42)))
	if err != nil {
		Te.Fatal(err)
	}
	c, err := Polymer(proto, 6, "up", "down", Delta(0.2, rand.NewSource(43)))
	if err != nil {
		Te.Fatal(err)
	}
	ca, cb, cc := a.Coords(), b.Coords(), c.Coords()
	same := true
	diff := false
	for i := 0; i < ca.NVecs(); i++ {
		for j := 0; j < 3; j++ {
			if ca.At(i, j) != cb.At(i, j) {
				same = false
			}
			if ca.At(i, j) != cc.At(i, j) {
				diff = true
			}
		}
	}
	if !same {
		Te.Error("Same seed did not reproduce the same chain")
	}
	if !diff {
		Te.Error("Different seeds produced identical perturbed chains")
	}
}
