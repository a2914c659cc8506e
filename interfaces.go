/*
 * interfaces.go, part of molbuild.
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

import v3 "github.com/avillar/molbuild/v3"

//Errors

//Err is the interface for errors that all packages in this library
//implement. The Decorate method allows to add and retrieve info from the
//error without changing its type or wrapping it around something else.
//The decoration slice should contain a list of functions in the calling
//stack plus, for each function, any relevant information, in the format
//"FunctionName: Extra info".
type Err interface {
	Error() string
	Decorate(string) []string
}

//Collaborators. The core consumes these from external code; any
//implementation is acceptable as long as the returned trees satisfy the
//Compound invariants (single parent per node, ports anchored within
//their own tree).

//Loader populates a structure tree from an external source, for
//instance a parsed coordinates file. The saf subpackage provides one.
type Loader interface {
	Load(name string) (*Compound, error)
}

//Patterner produces a finite set of points, one per row, in a
//normalized [0,1]^k range or a grid-filled domain, and can rescale every
//produced point in place. The pattern subpackage provides several.
type Patterner interface {
	Points() *v3.Matrix
	Scale(factor float64)
}

//Packer arranges n non-overlapping clones of a prototype inside an
//orthorhombic box of the given lengths, keeping at least minsep between
//particles of different clones, and returns the resulting scene. It is a
//black-box, synchronous service from the core's point of view; the
//packing subpackage provides a reference implementation.
type Packer interface {
	FillBox(proto *Compound, n int, box [3]float64, minsep float64) (*Compound, error)
}
