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

/*Package molbuild is a hierarchical molecular-assembly engine: it composes
rigid sub-structures (atoms, functional groups, monomers) into larger
structures by rigidly moving and rotating them in 3D space and welding them
together at oriented attachment points (ports).


	**molbuild capabilities**

    Builds structure trees (Compound) of particles and labeled groups,
	with positional-suffix labels ("C[$]" -> C[0], C[1], ...) so repeated
	additions remain individually addressable.

    Attaches oriented ports to any node of a tree; ports are carried
	along by every transform applied to their anchor or its ancestors.

    Rigid-body transforms over whole subtrees: translation, and rotation
	about the global origin by an angle and axis.

    Deep cloning of structures, ports included, with anchor identities
	remapped into the copy. A prototype can be cloned any number of
	times without accumulating floating-point drift.

    ForceOverlap: computes and applies the unique rigid transform that
	joins two structures face-to-face at two ports, consuming both.

    Polymer: builds chains from a prototype monomer by repeated clone +
	ForceOverlap, with an optional seeded random perturbation of each
	joint.

    The pattern subpackage scatters clones of a finished assembly over
	disk/grid/random point sets; the packing subpackage fills boxes with
	non-overlapping clones; the saf subpackage saves and loads whole
	trees as compressed archives.

All distances are in nanometres. The library computes no energies, forces
or bonded interactions; it supplies geometry and hierarchy only.

Many fundamental accessors here panic instead of returning errors, as in
cases like a nil receiver or an out-of-range index the program is
way-most-likely wrong and should crash. Recoverable conditions are
reported through the Error interface.
*/
package molbuild
