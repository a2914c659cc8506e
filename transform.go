/*
 * transform.go, part of molbuild.
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
	v3 "github.com/avillar/molbuild/v3"
)

//applyLocked rigidly transforms the subtree at c: every descendant
//particle position and every descendant port frame, rotation (about the
//global origin) first, translation second, in a single traversal. The
//caller must hold the tree lock.
func applyLocked(c *Compound, delta, rot *v3.Matrix) {
	forEach(c, func(n *Compound) {
		if n.particle {
			if rot != nil {
				n.pos.Mul(n.pos, rot)
			}
			if delta != nil {
				n.pos.Add(n.pos.Dense, delta.Dense)
			}
		}
		for _, p := range n.ports {
			if rot != nil {
				p.pos.Mul(p.pos, rot)
				p.dir.Mul(p.dir, rot)
				p.up.Mul(p.up, rot)
			}
			if delta != nil {
				p.pos.Add(p.pos.Dense, delta.Dense)
			}
		}
	})
}

//ApplyTransform rigidly transforms the whole subtree, applying the 3x3
//rotation operator rot (about the global origin) first and then adding
//the 1x3 translation delta, touching every descendant particle position
//and port frame in one traversal. Either argument may be nil. Partial
//application is never observable: the whole tree is locked for the
//duration.
func (C *Compound) ApplyTransform(delta, rot *v3.Matrix) {
	if C == nil {
		panic("molbuild: ApplyTransform on a nil Compound")
	}
	C.lockRoot()
	defer C.unlockRoot()
	applyLocked(C, delta, rot)
}

//Translate adds delta to the absolute position of every particle and
//every port in the subtree. No orientation change.
func (C *Compound) Translate(delta *v3.Matrix) {
	C.ApplyTransform(delta, nil)
}

//Rotate rotates the whole subtree by angle radians about the axis
//through the global origin, not about the subtree's own centroid: that
//convention is what lets repeated calls compose into a predictable net
//orientation. Recenter with Translate when a different pivot is wanted.
//Fails with ErrDegenerateAxis on a zero axis, touching nothing.
//Rotating back by the negated angle about the same axis restores every
//touched position and orientation within floating tolerance.
func (C *Compound) Rotate(angle float64, axis *v3.Matrix) error {
	rot, err := v3.Rotator(axis, angle)
	if err != nil {
		return newError(ErrDegenerateAxis, "Rotate", "%v", err)
	}
	C.ApplyTransform(nil, rot)
	return nil
}
