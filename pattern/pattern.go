/*
 * pattern.go, part of molbuild.
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

/*Package pattern generates point sets for laying out whole assemblies in
a scene: n points in a normalized [0,1] range or a grid-filled domain,
rescalable in place, and applicable to a prototype compound by cloning it
once per point. The layer is purely a consumer of the core: it never
touches ports or ForceOverlap.*/
package pattern

import (
	"math"
	"math/rand"

	"github.com/avillar/molbuild"
	v3 "github.com/avillar/molbuild/v3"
)

//Pattern is a finite set of layout points, one per row. All constructors
//taking a rand.Source are deterministic for a given seed; a nil source
//falls back to a fixed seed so runs stay reproducible by default.
type Pattern struct {
	points *v3.Matrix
}

func newRand(src rand.Source) *rand.Rand {
	if src == nil {
		src = rand.NewSource(1)
	}
	return rand.New(src)
}

//Random2D returns n points uniformly distributed in [0,1]^2, z = 0.
func Random2D(n int, src rand.Source) *Pattern {
	rng := newRand(src)
	pts := v3.Zeros(n)
	for i := 0; i < n; i++ {
		pts.Set(i, 0, rng.Float64())
		pts.Set(i, 1, rng.Float64())
	}
	return &Pattern{pts}
}

//Random3D returns n points uniformly distributed in [0,1]^3.
func Random3D(n int, src rand.Source) *Pattern {
	rng := newRand(src)
	pts := v3.Zeros(n)
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			pts.Set(i, j, rng.Float64())
		}
	}
	return &Pattern{pts}
}

//Disk returns n points uniformly distributed in the disk of unit radius
//centered at the origin, z = 0, by rejection sampling.
func Disk(n int, src rand.Source) *Pattern {
	rng := newRand(src)
	pts := v3.Zeros(n)
	for i := 0; i < n; i++ {
		for {
			x := rng.Float64()*2 - 1
			y := rng.Float64()*2 - 1
			if x*x+y*y <= 1 {
				pts.Set(i, 0, x)
				pts.Set(i, 1, y)
				break
			}
		}
	}
	return &Pattern{pts}
}

//Sphere returns n points on the surface of the unit sphere, spread by
//the Fibonacci lattice, deterministic with no random source involved.
func Sphere(n int) *Pattern {
	pts := v3.Zeros(n)
	golden := math.Pi * (3 - math.Sqrt(5))
	for i := 0; i < n; i++ {
		y := 1 - 2*float64(i)/math.Max(float64(n-1), 1)
		r := math.Sqrt(math.Max(0, 1-y*y))
		theta := golden * float64(i)
		pts.Set(i, 0, r*math.Cos(theta))
		pts.Set(i, 1, y)
		pts.Set(i, 2, r*math.Sin(theta))
	}
	return &Pattern{pts}
}

//Grid2D returns nx*ny points filling [0,1]^2 on a regular grid, z = 0.
func Grid2D(nx, ny int) *Pattern {
	pts := v3.Zeros(nx * ny)
	k := 0
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			pts.Set(k, 0, float64(i)/float64(nx))
			pts.Set(k, 1, float64(j)/float64(ny))
			k++
		}
	}
	return &Pattern{pts}
}

//Grid3D returns nx*ny*nz points filling [0,1]^3 on a regular grid.
func Grid3D(nx, ny, nz int) *Pattern {
	pts := v3.Zeros(nx * ny * nz)
	l := 0
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				pts.Set(l, 0, float64(i)/float64(nx))
				pts.Set(l, 1, float64(j)/float64(ny))
				pts.Set(l, 2, float64(k)/float64(nz))
				l++
			}
		}
	}
	return &Pattern{pts}
}

//Len returns the number of points in the pattern.
func (P *Pattern) Len() int {
	return P.points.NVecs()
}

//Points returns a copy of the pattern's points, one per row.
func (P *Pattern) Points() *v3.Matrix {
	return P.points.Clone()
}

//Scale multiplies every point of the pattern by factor, in place.
func (P *Pattern) Scale(factor float64) {
	P.points.Dense.Scale(factor, P.points.Dense)
}

//Apply clones proto once per point of the pattern, translates each clone
//by the point, and accumulates the clones under a fresh scene root with
//site[0] ... site[len-1] labels. Membership in the scene implies no
//physical bond; it only enables batch spatial operations.
func (P *Pattern) Apply(proto *molbuild.Compound) (*molbuild.Compound, error) {
	return P.apply(proto, nil)
}

//ApplyOriented is Apply with an independent random orientation for each
//clone: a uniform rotation about a random axis through the global
//origin, applied before the clone is translated to its point. Prototypes
//are expected to be authored around the origin.
func (P *Pattern) ApplyOriented(proto *molbuild.Compound, src rand.Source) (*molbuild.Compound, error) {
	return P.apply(proto, newRand(src))
}

func (P *Pattern) apply(proto *molbuild.Compound, rng *rand.Rand) (*molbuild.Compound, error) {
	scene := molbuild.NewCompound("scene")
	for i := 0; i < P.Len(); i++ {
		c := proto.Clone()
		if rng != nil {
			axis := v3.Vec(rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64())
			if err := c.Rotate(rng.Float64()*2*math.Pi, axis); err != nil {
				return nil, err
			}
		}
		c.Translate(P.points.VecView(i))
		if err := scene.Add(c, "site[$]"); err != nil {
			return nil, err
		}
	}
	return scene, nil
}
