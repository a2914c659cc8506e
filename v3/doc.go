/*
 * doc.go, part of molbuild.
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

/*Package v3 implements a gonum-based type for sets of 3D vectors, plus the
rotation operators molbuild uses to move rigid structures around.

Within the package a "vector" is a row vector: the cartesian coordinates of a
point or direction in 3D space. A Matrix is a set of such vectors. Rotation
operators are 3x3 matrices meant to be applied by right-multiplication,

	rotated.Mul(coords, operator)

which rotates every row of coords about the global origin.
*/
package v3
