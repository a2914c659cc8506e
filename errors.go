/*
 * errors.go, part of molbuild.
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

import "fmt"

//Kind identifies the class of failure an Error reports. Every error in
//this package is synchronous and leaves prior state unmodified, so the
//caller may always retry with corrected arguments.
type Kind string

const (
	//ErrDuplicateLabel is a non-positional label collision on Add, or a
	//port label collision on the same anchor.
	ErrDuplicateLabel = Kind("duplicate label")
	//ErrUnknownLabel is a Lookup or Port query on a nonexistent label.
	ErrUnknownLabel = Kind("unknown label")
	//ErrDegenerateAxis is a zero-length rotation axis or direction.
	ErrDegenerateAxis = Kind("degenerate axis")
	//ErrPortConsumed is the reuse of a port already spent by ForceOverlap.
	ErrPortConsumed = Kind("port already consumed")
	//ErrSelfOverlap is a ForceOverlap with both ports in the same tree.
	ErrSelfOverlap = Kind("self overlap")
	//ErrPortNotOwned is a ForceOverlap whose from-port is not anchored
	//within the structure being moved.
	ErrPortNotOwned = Kind("port not anchored in moved structure")
	//ErrBadCoords is a bulk coordinate write whose shape does not match
	//the number of particles in the tree.
	ErrBadCoords = Kind("coordinate mismatch")
	//ErrBadBox is a malformed bounding box given to the packing layer.
	ErrBadBox = Kind("malformed box")
)

//Error is the concrete error type of the package. The deco slice
//accumulates the callers the error has passed through, as in the Error
//interface of interfaces.go.
type Error struct {
	kind    Kind
	message string
	deco    []string
}

func newError(kind Kind, caller, format string, a ...interface{}) Error {
	return Error{kind, fmt.Sprintf(format, a...), []string{caller}}
}

//Error returns a string with an error message.
func (err Error) Error() string {
	return fmt.Sprintf("molbuild: %s: %s", string(err.kind), err.message)
}

//Kind returns the class of the failure, so callers can dispatch without
//string matching.
func (err Error) Kind() Kind {
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

//IsKind reports whether err carries the given kind. It matches the
//error types of the subpackages too, as they share the Kind type.
func IsKind(err error, k Kind) bool {
	e, ok := err.(interface{ Kind() Kind })
	return ok && e.Kind() == k
}

//errDecorate asserts that err implements the package Error interface and
//decorates it with the caller's name before returning it. Using it with
//any other error type causes a panic.
func errDecorate(err error, caller string) error {
	e := err.(interface{ Decorate(string) []string })
	e.Decorate(caller)
	return err
}
