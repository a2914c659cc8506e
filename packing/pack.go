/*
 * pack.go, part of molbuild.
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

/*Package packing fills rectangular boxes with non-overlapping copies of
prototype compounds: bulk boxes of one or several species, and solvation
of a fixed solute. Placements are rejection-sampled against an R-tree
spatial index of everything already placed, so acceptance stays cheap as
the box fills up. All randomness comes from a seedable source and every
function is reproducible for a given seed.

Each prototype is modelled by its bounding sphere, so the packing is
conservative: accepted placements are guaranteed collision-free at the
requested separation, at some cost in attainable density.*/
package packing

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/avillar/molbuild"
	v3 "github.com/avillar/molbuild/v3"
	"github.com/dhconnelly/rtreego"
)

//ErrNoFit reports that no non-overlapping placement could be found
//within the configured number of attempts, or that a prototype does not
//fit in the box at all.
const ErrNoFit = molbuild.Kind("no non-overlapping placement found")

//Error is the error type of the packing layer. It shares the kind
//vocabulary of the core so molbuild.IsKind dispatches on it.
type Error struct {
	kind    molbuild.Kind
	message string
	deco    []string
}

func newError(kind molbuild.Kind, caller, format string, a ...interface{}) Error {
	return Error{kind, fmt.Sprintf(format, a...), []string{caller}}
}

//Error returns a string with an error message.
func (err Error) Error() string {
	return fmt.Sprintf("packing: %s: %s", string(err.kind), err.message)
}

//Kind returns the class of the failure.
func (err Error) Kind() molbuild.Kind {
	return err.kind
}

//Decorate adds dec to the decoration slice of the error and returns the
//resulting slice. An empty string just returns the current value.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Box is an axis-aligned rectangular packing domain, in nanometres.
type Box struct {
	min, max [3]float64
}

//NewBox builds a packing domain from 3 edge lengths (a box cornered at
//the origin) or 6 values (xmin, ymin, zmin, xmax, ymax, zmax). Any other
//count, or a non-positive extent, fails with molbuild.ErrBadBox.
func NewBox(bounds ...float64) (*Box, error) {
	B := new(Box)
	switch len(bounds) {
	case 3:
		B.max = [3]float64{bounds[0], bounds[1], bounds[2]}
	case 6:
		B.min = [3]float64{bounds[0], bounds[1], bounds[2]}
		B.max = [3]float64{bounds[3], bounds[4], bounds[5]}
	default:
		return nil, newError(molbuild.ErrBadBox, "NewBox", "%d values given, want 3 lengths or 6 bounds", len(bounds))
	}
	for i := 0; i < 3; i++ {
		if B.max[i]-B.min[i] <= 0 {
			return nil, newError(molbuild.ErrBadBox, "NewBox", "non-positive extent on axis %d", i)
		}
	}
	return B, nil
}

//Lengths returns the edge lengths of the box.
func (B *Box) Lengths() [3]float64 {
	return [3]float64{B.max[0] - B.min[0], B.max[1] - B.min[1], B.max[2] - B.min[2]}
}

//Center returns the geometric centre of the box.
func (B *Box) Center() *v3.Matrix {
	return v3.Vec((B.min[0]+B.max[0])/2, (B.min[1]+B.max[1])/2, (B.min[2]+B.max[2])/2)
}

//Volume returns the volume of the box, in cubic nanometres.
func (B *Box) Volume() float64 {
	l := B.Lengths()
	return l[0] * l[1] * l[2]
}

//Option configures a packing run.
type Option func(*packer)

//Seed fixes the random seed of the run. The default seed is 1, so
//unconfigured runs are reproducible too.
func Seed(seed int64) Option {
	return func(p *packer) { p.rng = rand.New(rand.NewSource(seed)) }
}

//MinSep sets the minimum surface-to-surface separation between the
//bounding spheres of placed copies, in nanometres. The default is 0.1,
//roughly a hydrogen-bond distance.
func MinSep(d float64) Option {
	return func(p *packer) { p.minsep = d }
}

//MaxTries sets how many candidate positions are sampled per copy before
//the run gives up with ErrNoFit. The default is 10000.
func MaxTries(n int) Option {
	return func(p *packer) { p.maxtries = n }
}

//slot is the spatial-index record of one placed copy: a cube centered on
//the copy whose half-edge already includes half the separation margin,
//so two non-intersecting slots are guaranteed far enough apart.
type slot struct {
	center rtreego.Point
	half   float64
}

func (s *slot) Bounds() *rtreego.Rect {
	return s.center.ToRect(s.half)
}

type packer struct {
	rng      *rand.Rand
	minsep   float64
	maxtries int
	index    *rtreego.Rtree
}

func newPacker(opts ...Option) *packer {
	p := &packer{
		rng:      rand.New(rand.NewSource(1)),
		minsep:   0.1,
		maxtries: 10000,
		index:    rtreego.NewTree(3, 25, 50),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

//boundingRadius returns the centroid of the compound's particles and the
//radius of the centroid-centered bounding sphere.
func boundingRadius(c *molbuild.Compound) (*v3.Matrix, float64) {
	coords := c.Coords()
	n := coords.NVecs()
	center := v3.Zeros(1)
	for i := 0; i < n; i++ {
		center.Add(center.Dense, coords.VecView(i).Dense)
	}
	if n > 0 {
		center.Scale(1.0/float64(n), center.Dense)
	}
	r := 0.0
	row := v3.Zeros(1)
	for i := 0; i < n; i++ {
		row.Copy(coords.VecView(i))
		row.Sub(row.Dense, center.Dense)
		if d := row.Norm(); d > r {
			r = d
		}
	}
	return center, r
}

//occupy reserves a position for a copy of bounding radius r, or fails
//after maxtries rejections.
func (p *packer) occupy(B *Box, r float64, caller string) (*v3.Matrix, error) {
	half := r + p.minsep/2
	for i := 0; i < 3; i++ {
		if B.max[i]-B.min[i] < 2*r {
			return nil, newError(ErrNoFit, caller, "prototype of radius %4.3f does not fit a %4.3f box edge", r, B.max[i]-B.min[i])
		}
	}
	for try := 0; try < p.maxtries; try++ {
		pos := rtreego.Point{0, 0, 0}
		for i := 0; i < 3; i++ {
			lo, hi := B.min[i]+r, B.max[i]-r
			pos[i] = lo + p.rng.Float64()*(hi-lo)
		}
		probe := &slot{center: pos, half: half}
		if len(p.index.SearchIntersect(probe.Bounds())) > 0 {
			continue
		}
		p.index.Insert(probe)
		return v3.Vec(pos[0], pos[1], pos[2]), nil
	}
	return nil, newError(ErrNoFit, caller, "gave up after %d attempts; lower the density or the separation", p.maxtries)
}

//reserve indexes an already-positioned compound (a solute) so later
//placements keep clear of it.
func (p *packer) reserve(c *molbuild.Compound) {
	center, r := boundingRadius(c)
	p.index.Insert(&slot{
		center: rtreego.Point{center.At(0, 0), center.At(0, 1), center.At(0, 2)},
		half:   r + p.minsep/2,
	})
}

//deploy clones proto, recenters it on the origin, gives it an
//independent random orientation, moves it to pos and files it under the
//system root.
func (p *packer) deploy(system, proto *molbuild.Compound, center, pos *v3.Matrix, label string) error {
	c := proto.Clone()
	shift := center.Clone()
	shift.Scale(-1, shift.Dense)
	c.Translate(shift)
	axis := v3.Vec(p.rng.NormFloat64(), p.rng.NormFloat64(), p.rng.NormFloat64())
	if axis.Norm() > 1e-12 {
		if err := c.Rotate(p.rng.Float64()*2*math.Pi, axis); err != nil {
			return errDecorate(err, "deploy")
		}
	}
	c.Translate(pos)
	return system.Add(c, label)
}

//FillBox packs n randomly oriented, non-overlapping copies of proto into
//the box and returns them under a fresh root, labelled proto.Name()[0]
//through proto.Name()[n-1]. The prototype itself is never modified.
//Fails with ErrNoFit when the requested count cannot be placed.
func FillBox(proto *molbuild.Compound, n int, box *Box, opts ...Option) (*molbuild.Compound, error) {
	p := newPacker(opts...)
	system := molbuild.NewCompound("system")
	if err := p.fill(system, proto, n, box); err != nil {
		return nil, err
	}
	return system, nil
}

func (p *packer) fill(system, proto *molbuild.Compound, n int, box *Box) error {
	center, r := boundingRadius(proto)
	label := proto.Name() + "[$]"
	for i := 0; i < n; i++ {
		pos, err := p.occupy(box, r, "FillBox")
		if err != nil {
			return err
		}
		if err := p.deploy(system, proto, center, pos, label); err != nil {
			return err
		}
	}
	return nil
}

//FillBoxMixture packs counts[i] copies of protos[i] for every species
//into one shared box. Species are placed in order against the same
//spatial index, so no two copies of any species overlap.
func FillBoxMixture(protos []*molbuild.Compound, counts []int, box *Box, opts ...Option) (*molbuild.Compound, error) {
	if len(protos) != len(counts) {
		return nil, newError(ErrNoFit, "FillBoxMixture", "%d prototypes for %d counts", len(protos), len(counts))
	}
	p := newPacker(opts...)
	system := molbuild.NewCompound("system")
	for i, proto := range protos {
		if err := p.fill(system, proto, counts[i], box); err != nil {
			return nil, err
		}
	}
	return system, nil
}

//Solvate places a copy of solute at the centre of the box and packs
//nSolvent copies of solvent around it. The solute keeps its internal
//geometry and orientation; only the solvent copies are randomly
//oriented.
func Solvate(solute, solvent *molbuild.Compound, nSolvent int, box *Box, opts ...Option) (*molbuild.Compound, error) {
	p := newPacker(opts...)
	system := molbuild.NewCompound("system")
	center, _ := boundingRadius(solute)
	s := solute.Clone()
	shift := box.Center()
	shift.Sub(shift.Dense, center.Dense)
	s.Translate(shift)
	if err := system.Add(s, "solute"); err != nil {
		return nil, err
	}
	p.reserve(s)
	if err := p.fill(system, solvent, nSolvent, box); err != nil {
		return nil, err
	}
	return system, nil
}

//Service adapts the packing layer to the molbuild.Packer interface, for
//code that wants box filling injected as a collaborator.
type Service struct {
	opts []Option
}

//NewService returns a Packer that applies the given options to every
//fill it performs.
func NewService(opts ...Option) *Service {
	return &Service{opts: opts}
}

//FillBox implements molbuild.Packer.
func (S *Service) FillBox(proto *molbuild.Compound, n int, box [3]float64, minsep float64) (*molbuild.Compound, error) {
	B, err := NewBox(box[0], box[1], box[2])
	if err != nil {
		return nil, errDecorate(err, "Service.FillBox")
	}
	opts := append([]Option{MinSep(minsep)}, S.opts...)
	return FillBox(proto, n, B, opts...)
}

//errDecorate asserts that err implements the package Error interface and
//decorates it with the caller's name before returning it.
func errDecorate(err error, caller string) error {
	e := err.(interface{ Decorate(string) []string })
	e.Decorate(caller)
	return err
}
