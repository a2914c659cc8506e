/*
 * port.go, part of molbuild.
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
	"math"

	v3 "github.com/avillar/molbuild/v3"
)

//Port is an oriented anchor on a structure: a position plus a full
//right-handed orientation frame {dir, up, dir x up}, rigidly bound to
//one node of a tree. Ports are capabilities, not particles: they never
//appear in the chemical topology. Every transform applied to the anchor
//or any of its ancestors carries the port along. A port is consumed
//exactly once, by ForceOverlap; afterwards any use of it fails with
//ErrPortConsumed.
//
//Carrying a full frame (not just a contact normal) is what makes the
//joining transform unique: no rotational degree of freedom about the
//contact axis is left free.
type Port struct {
	name     string
	anchor   *Compound
	pos      *v3.Matrix //1x3, absolute
	dir      *v3.Matrix //1x3, unit contact normal
	up       *v3.Matrix //1x3, unit secondary axis, orthogonal to dir
	consumed bool
}

//defaultUp derives a deterministic secondary axis for a direction: the
//global axis most orthogonal to dir (ties broken x, y, z), projected
//into the plane normal to dir and normalized. Two ports built from bare
//normals therefore always join reproducibly.
func defaultUp(dir *v3.Matrix) *v3.Matrix {
	comps := []float64{math.Abs(dir.At(0, 0)), math.Abs(dir.At(0, 1)), math.Abs(dir.At(0, 2))}
	best := 0
	for i := 1; i < 3; i++ {
		if comps[i] < comps[best] {
			best = i
		}
	}
	e := v3.Zeros(1)
	e.Set(0, best, 1)
	return orthonormalTo(e, dir)
}

//orthonormalTo projects v into the plane normal to the unit vector dir
//and normalizes it. Returns nil if v is (anti)parallel to dir.
func orthonormalTo(v, dir *v3.Matrix) *v3.Matrix {
	ret := v.Clone()
	proj := dir.Clone()
	proj.Scale(v.Dot(dir), proj.Dense)
	ret.Sub(ret.Dense, proj.Dense)
	if ret.Norm() <= 1e-9 {
		return nil
	}
	ret.Unit(ret)
	return ret
}

//anchorFrame returns the absolute reference position of a compound for
//port construction: a particle's own position, or the geometric centre
//of a group's particles (the origin for an empty group).
func anchorFrame(anchor *Compound) *v3.Matrix {
	if anchor.particle {
		return anchor.pos.Clone()
	}
	ret := v3.Zeros(1)
	n := 0
	forEach(anchor, func(c *Compound) {
		if c.particle {
			ret.Add(ret.Dense, c.pos.Dense)
			n++
		}
	})
	if n > 0 {
		ret.Scale(1.0/float64(n), ret.Dense)
	}
	return ret
}

//NewPort creates a port anchored to the given node, at the anchor's
//current absolute reference position plus offset, pointing along dir.
//The secondary axis is derived deterministically from dir (see
//NewPortOriented to pin it explicitly). The label must be unique among
//the ports of the anchor. Fails with ErrDegenerateAxis on a zero dir.
func NewPort(anchor *Compound, label string, offset, dir *v3.Matrix) (*Port, error) {
	return NewPortOriented(anchor, label, offset, dir, nil)
}

//NewPortOriented is NewPort with an explicit secondary axis. The up
//vector is projected into the plane normal to dir and normalized; it
//must not be (anti)parallel to dir. A nil up falls back to the
//deterministic default.
func NewPortOriented(anchor *Compound, label string, offset, dir, up *v3.Matrix) (*Port, error) {
	if anchor == nil {
		panic("molbuild: NewPort with a nil anchor")
	}
	anchor.lockRoot()
	defer anchor.unlockRoot()
	pos := anchorFrame(anchor)
	if offset != nil {
		pos.Add(pos.Dense, offset.Dense)
	}
	return attachPort(anchor, label, pos, dir, up)
}

//NewPortAt creates a port at an absolute position rather than an offset
//from the anchor's frame. This is the entry point for loaders restoring
//a saved tree, where port frames are known in absolute coordinates.
func NewPortAt(anchor *Compound, label string, pos, dir, up *v3.Matrix) (*Port, error) {
	if anchor == nil {
		panic("molbuild: NewPortAt with a nil anchor")
	}
	anchor.lockRoot()
	defer anchor.unlockRoot()
	p := v3.Zeros(1)
	if pos != nil {
		p.Copy(pos)
	}
	return attachPort(anchor, label, p, dir, up)
}

//attachPort validates the frame, completes it, and binds the port to its
//anchor. The caller must hold the tree lock and pass a pos the port may
//own.
func attachPort(anchor *Compound, label string, pos, dir, up *v3.Matrix) (*Port, error) {
	if dir == nil || dir.Norm() <= 1e-12 {
		return nil, newError(ErrDegenerateAxis, "NewPort", "port %q has a zero direction", label)
	}
	for _, p := range anchor.ports {
		if p.name == label {
			return nil, newError(ErrDuplicateLabel, "NewPort", "port %q already present on %q", label, anchor.name)
		}
	}
	d := v3.Zeros(1)
	d.Unit(dir)
	var u *v3.Matrix
	if up == nil {
		u = defaultUp(d)
	} else {
		u = orthonormalTo(up, d)
		if u == nil {
			return nil, newError(ErrDegenerateAxis, "NewPort", "port %q up axis is parallel to its direction", label)
		}
	}
	port := &Port{name: label, anchor: anchor, pos: pos, dir: d, up: u}
	anchor.ports = append(anchor.ports, port)
	return port, nil
}

//Name returns the label of the port.
func (P *Port) Name() string { return P.name }

//Anchor returns the compound the port is rigidly bound to.
func (P *Port) Anchor() *Compound { return P.anchor }

//Consumed reports whether the port has been spent by ForceOverlap.
func (P *Port) Consumed() bool { return P.consumed }

//Pos returns a copy of the absolute position of the port.
func (P *Port) Pos() *v3.Matrix { return P.pos.Clone() }

//Dir returns a copy of the unit contact normal of the port.
func (P *Port) Dir() *v3.Matrix { return P.dir.Clone() }

//Up returns a copy of the unit secondary axis of the port.
func (P *Port) Up() *v3.Matrix { return P.up.Clone() }

//Translate moves this single port by delta, independently of its anchor.
//Meant for fine-tuning a contact point before joining.
func (P *Port) Translate(delta *v3.Matrix) error {
	P.anchor.lockRoot()
	defer P.anchor.unlockRoot()
	if P.consumed {
		return newError(ErrPortConsumed, "Port.Translate", "port %q", P.name)
	}
	P.pos.Add(P.pos.Dense, delta.Dense)
	return nil
}

//Rotate rotates this single port about the global origin, position and
//orientation frame both, independently of its anchor. Fails with
//ErrDegenerateAxis on a zero axis.
func (P *Port) Rotate(angle float64, axis *v3.Matrix) error {
	rot, err := v3.Rotator(axis, angle)
	if err != nil {
		return newError(ErrDegenerateAxis, "Port.Rotate", "port %q: %v", P.name, err)
	}
	P.anchor.lockRoot()
	defer P.anchor.unlockRoot()
	if P.consumed {
		return newError(ErrPortConsumed, "Port.Rotate", "port %q", P.name)
	}
	P.pos.Mul(P.pos, rot)
	P.dir.Mul(P.dir, rot)
	P.up.Mul(P.up, rot)
	return nil
}

//Spin rotates only the orientation frame of the port about its own
//direction axis, in place, leaving the position and direction untouched.
//This is the bookkeeping tool for symmetric port pairs: a pair created
//with identical outward conventions needs one of them spun or flipped
//before joining, or the joined structure folds back on itself.
func (P *Port) Spin(angle float64) error {
	P.anchor.lockRoot()
	defer P.anchor.unlockRoot()
	if P.consumed {
		return newError(ErrPortConsumed, "Port.Spin", "port %q", P.name)
	}
	rot, err := v3.Rotator(P.dir, angle)
	if err != nil {
		return errDecorate(err, "Port.Spin")
	}
	P.up.Mul(P.up, rot)
	return nil
}

//Tilt rotates only the orientation frame of the port about its own
//secondary (up) axis, in place. Together with Spin it covers the two
//rotational degrees of freedom of a joint.
func (P *Port) Tilt(angle float64) error {
	P.anchor.lockRoot()
	defer P.anchor.unlockRoot()
	if P.consumed {
		return newError(ErrPortConsumed, "Port.Tilt", "port %q", P.name)
	}
	rot, err := v3.Rotator(P.up, angle)
	if err != nil {
		return errDecorate(err, "Port.Tilt")
	}
	P.dir.Mul(P.dir, rot)
	return nil
}

//Port returns the unconsumed port with the given label anchored anywhere
//in the subtree, or fails with ErrUnknownLabel.
func (C *Compound) Port(label string) (*Port, error) {
	C.lockRoot()
	defer C.unlockRoot()
	var found *Port
	forEach(C, func(n *Compound) {
		if found != nil {
			return
		}
		for _, p := range n.ports {
			if p.name == label && !p.consumed {
				found = p
				return
			}
		}
	})
	if found == nil {
		return nil, newError(ErrUnknownLabel, "Port", "no port %q under %q", label, C.name)
	}
	return found, nil
}

//AnchoredPorts returns the unconsumed ports bound to this very node,
//not to its descendants. Loaders use it to record which node each port
//belongs to.
func (C *Compound) AnchoredPorts() []*Port {
	C.lockRoot()
	defer C.unlockRoot()
	ret := make([]*Port, 0, len(C.ports))
	for _, p := range C.ports {
		if !p.consumed {
			ret = append(ret, p)
		}
	}
	return ret
}

//Ports returns every unconsumed port anchored in the subtree, in
//traversal order.
func (C *Compound) Ports() []*Port {
	C.lockRoot()
	defer C.unlockRoot()
	var ret []*Port
	forEach(C, func(n *Compound) {
		for _, p := range n.ports {
			if !p.consumed {
				ret = append(ret, p)
			}
		}
	})
	return ret
}
