/*
 * geometry.go, part of molbuild.
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

package v3

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

//Angle takes 2 vectors and calculates the angle in radians between them.
//It does not check for correctness or return errors!
func Angle(v1, v2 *Matrix) float64 {
	normproduct := v1.Norm() * v2.Norm()
	dotprod := v1.Dot(v2)
	argument := dotprod / normproduct
	//Take care of floating point math errors
	if math.Abs(argument-1) <= appzero {
		argument = 1
	} else if math.Abs(argument+1) <= appzero {
		argument = -1
	}
	angle := math.Acos(argument)
	if math.Abs(angle) <= appzero {
		return 0.00
	}
	return angle
}

//Rotator returns a 3x3 operator that, right-multiplied into a set of row
//vectors, rotates them by angle radians about the axis through the global
//origin in the direction of axis (Rodrigues form). The axis need not be
//normalized. It returns an error if the axis has (near) zero length.
//The operator is orthonormal by construction, so repeated calls do not
//accumulate drift beyond rounding error.
func Rotator(axis *Matrix, angle float64) (*Matrix, error) {
	if axis.Norm() <= appzero {
		return nil, Error{"can't rotate about a zero-length axis", []string{"Rotator"}, true}
	}
	u := Zeros(1)
	u.Unit(axis)
	ux := u.At(0, 0)
	uy := u.At(0, 1)
	uz := u.At(0, 2)
	s := math.Sin(angle)
	c := math.Cos(angle)
	t := 1 - c
	//the transpose of the textbook (column-vector) operator, as vectors
	//here are rows.
	operator := []float64{
		c + t*ux*ux, t*ux*uy + s*uz, t*ux*uz - s*uy,
		t*ux*uy - s*uz, c + t*uy*uy, t*uy*uz + s*ux,
		t*ux*uz + s*uy, t*uy*uz - s*ux, c + t*uz*uz,
	}
	return NewMatrix(operator)
}

//RotatorAroundZ returns an operator that will rotate a set of
//coordinates by gamma radians around the z axis.
func RotatorAroundZ(gamma float64) (*Matrix, error) {
	singamma := math.Sin(gamma)
	cosgamma := math.Cos(gamma)
	operator := []float64{cosgamma, singamma, 0,
		-singamma, cosgamma, 0,
		0, 0, 1}
	return NewMatrix(operator)
}

//RotatorToNewZ takes a row vector (newz) and returns a linear operator
//such that, when applied to a matrix of coordinates (with the operator on
//the right side) it will rotate them so the newz direction ends up
//aligned with the z axis.
func RotatorToNewZ(newz *Matrix) *Matrix {
	r, c := newz.Dims()
	if c != 3 || r != 1 {
		panic(ErrNotXx3Matrix)
	}
	normxy := math.Sqrt(math.Pow(newz.At(0, 0), 2) + math.Pow(newz.At(0, 1), 2))
	theta := math.Atan2(normxy, newz.At(0, 2))      //Around the new y
	phi := math.Atan2(newz.At(0, 1), newz.At(0, 0)) //First around z
	psi := 0.000000000000                           //second around z
	sinphi := math.Sin(phi)
	cosphi := math.Cos(phi)
	sintheta := math.Sin(theta)
	costheta := math.Cos(theta)
	sinpsi := math.Sin(psi)
	cospsi := math.Cos(psi)
	operator := []float64{cosphi*costheta*cospsi - sinphi*sinpsi, -sinphi*cospsi - cosphi*costheta*sinpsi, cosphi * sintheta,
		sinphi*costheta*cospsi + cosphi*sinpsi, -sinphi*costheta*sinpsi + cosphi*cospsi, sintheta * sinphi,
		-sintheta * cospsi, sintheta * sinpsi, costheta}
	finalop, _ := NewMatrix(operator) //we are hardcoding the operator so it must have the right dimensions.
	return finalop
}

//Det returns the determinant of a 3x3 matrix. Panics if the matrix is
//not 3x3. Used to check that an operator is a rotation, not a reflection.
func Det(A mat.Matrix) float64 {
	r, c := A.Dims()
	if r != 3 || c != 3 {
		panic(ErrDeterminant)
	}
	return A.At(0, 0)*(A.At(1, 1)*A.At(2, 2)-A.At(2, 1)*A.At(1, 2)) -
		A.At(1, 0)*(A.At(0, 1)*A.At(2, 2)-A.At(2, 1)*A.At(0, 2)) +
		A.At(2, 0)*(A.At(0, 1)*A.At(1, 2)-A.At(1, 1)*A.At(0, 2))
}
