/*
 * pack_test.go, part of molbuild.
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

package packing

import (
	"math"
	"testing"

	"github.com/avillar/molbuild"
	v3 "github.com/avillar/molbuild/v3"
	"gonum.org/v1/gonum/floats/scalar"
)

//water builds a rigid 3-particle prototype, about 0.1 nm across.
func water(Te *testing.T) *molbuild.Compound {
	w := molbuild.NewCompound("water")
	add := func(el string, x, y, z float64) {
		if err := w.Add(molbuild.NewParticle(el, x, y, z), el+"[$]"); err != nil {
			Te.Fatal(err)
		}
	}
	add("O", 0, 0, 0)
	add("H", 0.0757, 0.0587, 0)
	add("H", -0.0757, 0.0587, 0)
	return w
}

func minDistance(coords *v3.Matrix, stride int) float64 {
	n := coords.NVecs() / stride
	min := math.Inf(1)
	ci := v3.Zeros(1)
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			for i := 0; i < stride; i++ {
				for j := 0; j < stride; j++ {
					ci.Copy(coords.VecView(a*stride + i))
					ci.Sub(ci.Dense, coords.VecView(b*stride+j).Dense)
					if d := ci.Norm(); d < min {
						min = d
					}
				}
			}
		}
	}
	return min
}

func TestNewBox(Te *testing.T) {
	if _, err := NewBox(2, 2); !molbuild.IsKind(err, molbuild.ErrBadBox) {
		Te.Errorf("Expected a malformed-box error for 2 values, got %v", err)
	}
	if _, err := NewBox(2, -1, 2); !molbuild.IsKind(err, molbuild.ErrBadBox) {
		Te.Errorf("Expected a malformed-box error for a negative edge, got %v", err)
	}
	if _, err := NewBox(1, 1, 1, 0, 2, 2); !molbuild.IsKind(err, molbuild.ErrBadBox) {
		Te.Errorf("Expected a malformed-box error for inverted bounds, got %v", err)
	}
	b, err := NewBox(-1, -1, -1, 1, 1, 1)
	if err != nil {
		Te.Fatal(err)
	}
	l := b.Lengths()
	if l != [3]float64{2, 2, 2} {
		Te.Errorf("Wrong edge lengths: %v", l)
	}
	c := b.Center()
	if c.Norm() != 0 {
		Te.Errorf("Wrong centre: %v", c)
	}
	if !scalar.EqualWithinAbs(b.Volume(), 8, 1e-12) {
		Te.Errorf("Wrong volume: %v", b.Volume())
	}
}

func TestFillBox(Te *testing.T) {
	w := water(Te)
	box, err := NewBox(4, 4, 4)
	if err != nil {
		Te.Fatal(err)
	}
	sys, err := FillBox(w, 50, box, Seed(12345))
	if err != nil {
		Te.Fatal(err)
	}
	if sys.NParticles() != 150 {
		Te.Fatalf("Expected 150 particles, got %d", sys.NParticles())
	}
	copies, err := sys.Lookup("water")
	if err != nil {
		Te.Fatal(err)
	}
	if len(copies) != 50 {
		Te.Fatalf("Expected 50 copies, got %d", len(copies))
	}
	//everything inside the box
	coords := sys.Coords()
	for i := 0; i < coords.NVecs(); i++ {
		for j := 0; j < 3; j++ {
			if coords.At(i, j) < 0 || coords.At(i, j) > 4 {
				Te.Errorf("Particle %d escaped the box: %v", i, coords.VecView(i))
			}
		}
	}
	//no two copies closer than the default separation
	if d := minDistance(coords, 3); d < 0.1 {
		Te.Errorf("Copies %v apart, wanted at least 0.1", d)
	}
	//the prototype is untouched
	if w.NParticles() != 3 {
		Te.Error("Packing mutated the prototype")
	}
	op, err := w.Lookup("O[0]")
	if err != nil {
		Te.Fatal(err)
	}
	if op[0].Pos().Norm() != 0 {
		Te.Error("Packing moved the prototype's particles")
	}
}

func TestFillBoxSeeds(Te *testing.T) {
	w := water(Te)
	box, err := NewBox(3, 3, 3)
	if err != nil {
		Te.Fatal(err)
	}
	a, err := FillBox(w, 20, box, Seed(12345))
	if err != nil {
		Te.Fatal(err)
	}
	b, err := FillBox(w, 20, box, Seed(12345))
	if err != nil {
		Te.Fatal(err)
	}
	c, err := FillBox(w, 20, box, Seed(54321))
	if err != nil {
		Te.Fatal(err)
	}
	ca, cb, cc := a.Coords(), b.Coords(), c.Coords()
	same, diff := true, false
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
		Te.Error("Same seed did not reproduce the same packing")
	}
	if !diff {
		Te.Error("Different seeds produced identical packings")
	}
}

func TestFillBoxNoFit(Te *testing.T) {
	w := water(Te)
	tiny, err := NewBox(0.3, 0.3, 0.3)
	if err != nil {
		Te.Fatal(err)
	}
	//a handful might fit, a thousand cannot
	if _, err := FillBox(w, 1000, tiny, MaxTries(200)); !molbuild.IsKind(err, ErrNoFit) {
		Te.Errorf("Expected a no-fit error, got %v", err)
	}
	//a box smaller than the prototype fails immediately
	micro, err := NewBox(0.05, 1, 1)
	if err != nil {
		Te.Fatal(err)
	}
	if _, err := FillBox(w, 1, micro); !molbuild.IsKind(err, ErrNoFit) {
		Te.Errorf("Expected a no-fit error for an undersized box, got %v", err)
	}
}

func TestFillBoxMixture(Te *testing.T) {
	w := water(Te)
	m := molbuild.NewCompound("methane")
	if err := m.Add(molbuild.NewParticle("C", 0, 0, 0), "C"); err != nil {
		Te.Fatal(err)
	}
	box, err := NewBox(4, 4, 4)
	if err != nil {
		Te.Fatal(err)
	}
	sys, err := FillBoxMixture([]*molbuild.Compound{w, m}, []int{10, 15}, box, Seed(7))
	if err != nil {
		Te.Fatal(err)
	}
	ws, err := sys.Lookup("water")
	if err != nil {
		Te.Fatal(err)
	}
	ms, err := sys.Lookup("methane")
	if err != nil {
		Te.Fatal(err)
	}
	if len(ws) != 10 || len(ms) != 15 {
		Te.Errorf("Mixture has %d waters and %d methanes, wanted 10 and 15", len(ws), len(ms))
	}
	if sys.NParticles() != 45 {
		Te.Errorf("Mixture has %d particles, wanted 45", sys.NParticles())
	}
	if _, err := FillBoxMixture([]*molbuild.Compound{w}, []int{1, 2}, box); err == nil {
		Te.Error("Mismatched prototype and count slices were accepted")
	}
}

func TestSolvate(Te *testing.T) {
	solute := molbuild.NewCompound("solute")
	if err := solute.Add(molbuild.NewParticle("C", 0, 0, 0), "C"); err != nil {
		Te.Fatal(err)
	}
	w := water(Te)
	box, err := NewBox(4, 4, 4)
	if err != nil {
		Te.Fatal(err)
	}
	sys, err := Solvate(solute, w, 30, box, Seed(99))
	if err != nil {
		Te.Fatal(err)
	}
	if sys.NParticles() != 91 {
		Te.Fatalf("Expected 91 particles, got %d", sys.NParticles())
	}
	//the solute sits at the box centre, unrotated
	sol, err := sys.Lookup("solute")
	if err != nil {
		Te.Fatal(err)
	}
	sc := sol[0].Coords()
	for j := 0; j < 3; j++ {
		if !scalar.EqualWithinAbs(sc.At(0, j), 2, 1e-9) {
			Te.Errorf("Solute particle at %v, wanted the box centre", sc)
		}
	}
	//no solvent copy crowds the solute
	waters, err := sys.Lookup("water")
	if err != nil {
		Te.Fatal(err)
	}
	for i, wc := range waters {
		c := wc.Coords()
		for k := 0; k < c.NVecs(); k++ {
			d := 0.0
			for j := 0; j < 3; j++ {
				diff := c.At(k, j) - 2
				d += diff * diff
			}
			if math.Sqrt(d) < 0.1 {
				Te.Errorf("Solvent copy %d overlaps the solute", i)
			}
		}
	}
	//the original solute was not moved
	if solute.Coords().Norm() != 0 {
		Te.Error("Solvate moved the original solute")
	}
}

func TestService(Te *testing.T) {
	w := water(Te)
	var pk molbuild.Packer = NewService(Seed(5))
	sys, err := pk.FillBox(w, 8, [3]float64{3, 3, 3}, 0.2)
	if err != nil {
		Te.Fatal(err)
	}
	if sys.NParticles() != 24 {
		Te.Errorf("Service packed %d particles, wanted 24", sys.NParticles())
	}
	if d := minDistance(sys.Coords(), 3); d < 0.2 {
		Te.Errorf("Service separation %v, wanted at least 0.2", d)
	}
}
