/*
 * geometric.go, part of gotraj.
 *
 *
 * Copyright 2012 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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
 *
 */

package traj

import (
	"math"

	v3 "github.com/rmera/gotraj/v3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// CenterOfMass returns the center of mass of the atoms in geometry, with the masses in mass.
// If mass is nil, it calculates the geometric center.
func CenterOfMass(geometry *v3.Matrix, mass []float64) (*v3.Matrix, error) {
	if geometry == nil {
		return nil, newError(ShapeError, "CenterOfMass", "nil matrix to get the center of mass")
	}
	gr := geometry.NVecs()
	if mass != nil && len(mass) != gr {
		return nil, newError(ShapeError, "CenterOfMass", "%d masses for %d atoms", len(mass), gr)
	}
	ret := v3.Zeros(1)
	var total float64
	for i := 0; i < gr; i++ {
		w := 1.0
		if mass != nil {
			w = mass[i]
		}
		total += w
		for j := 0; j < 3; j++ {
			ret.Set(0, j, ret.At(0, j)+w*geometry.At(i, j))
		}
	}
	if total <= 0 {
		return nil, newError(ConfigError, "CenterOfMass", "total mass is %g", total)
	}
	ret.Scale(1/total, ret.Dense)
	return ret, nil
}

// MassCentrate centers in in the center of mass of oref. If mass is nil, the geometric
// center is used. Returns the centered matrix and the center.
func MassCentrate(in, oref *v3.Matrix, mass []float64) (*v3.Matrix, *v3.Matrix, error) {
	center, err := CenterOfMass(oref, mass)
	if err != nil {
		return nil, nil, errDecorate(err, "MassCentrate")
	}
	returned := in.Clone()
	returned.SubVec(returned, center)
	return returned, center, nil
}

// MomentTensor returns the moment tensor for a matrix A of coordinates and
// the masses of each atom (nil means all masses are 1).
func MomentTensor(A *v3.Matrix, mass []float64) (*v3.Matrix, error) {
	center, _, err := MassCentrate(A, A, mass)
	if err != nil {
		return nil, errDecorate(err, "MomentTensor")
	}
	ar := A.NVecs()
	for i := 0; i < ar; i++ {
		w := 1.0
		if mass != nil {
			w = mass[i]
		}
		floats.Scale(math.Sqrt(w), center.RawRowView(i))
	}
	moment := v3.Zeros(3)
	moment.Mul(center.T(), center)
	return moment, nil
}

// kabsch returns the rotation R minimizing the weighted sum of |x_i R - y_i|^2 for the
// centered row vectors x (test) and y (template). R is always a proper rotation.
func kabsch(x, y *v3.Matrix, mass []float64) *mat.Dense {
	n := x.NVecs()
	wx := x
	if mass != nil {
		wx = x.Clone()
		for i := 0; i < n; i++ {
			floats.Scale(mass[i], wx.RawRowView(i))
		}
	}
	H := mat.NewDense(3, 3, nil)
	H.Mul(wx.T(), y.Dense)
	var svd mat.SVD
	if ok := svd.Factorize(H, mat.SVDFull); !ok {
		//only happens for NaN/Inf input. There's no good rotation then.
		return eye3()
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	uvt := mat.NewDense(3, 3, nil)
	uvt.Mul(&u, v.T())
	d := 1.0
	if mat.Det(uvt) < 0 {
		d = -1
	}
	//The singular values come sorted in decreasing order, so the reflection is
	//corrected on the last column, the one of the smallest singular value.
	D := mat.NewDiagDense(3, []float64{1, 1, d})
	R := mat.NewDense(3, 3, nil)
	R.Product(&u, D, v.T())
	return R
}

func eye3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

// Superposition holds the transformation that superimposes one set of coordinates onto
// another: x' = (x - From) Rotation + To, for row vectors x.
type Superposition struct {
	From     *v3.Matrix
	Rotation *mat.Dense
	To       *v3.Matrix
	RMSD     float64 //over the atoms used to obtain the superposition.
}

// Apply transforms, in place, every vector of coords.
func (S *Superposition) Apply(coords *v3.Matrix) {
	tmp := v3.Zeros(coords.NVecs())
	tmp.SubVec(coords, S.From)
	out := v3.Zeros(coords.NVecs())
	out.Mul(tmp, S.Rotation)
	coords.AddVec(out, S.To)
}

// RotatorTranslatorToSuper obtains the least-squares rigid superposition of the atoms
// indexes of test on the same atoms of templa. If indexes is nil, all atoms are used.
// mass, if not nil, has one weight per atom in indexes.
// Neither test nor templa are modified.
func RotatorTranslatorToSuper(test, templa *v3.Matrix, indexes []int, mass []float64) (*Superposition, error) {
	if test.NVecs() != templa.NVecs() {
		return nil, newError(ShapeError, "RotatorTranslatorToSuper", "moving frame has %d atoms, reference %d", test.NVecs(), templa.NVecs())
	}
	ctest, ctempla := test, templa
	if indexes != nil {
		if len(indexes) == 0 {
			return nil, newError(ConfigError, "RotatorTranslatorToSuper", "no atoms to superimpose")
		}
		ctest = v3.Zeros(len(indexes))
		ctempla = v3.Zeros(len(indexes))
		if err := ctest.SomeVecsSafe(test, indexes); err != nil {
			return nil, newError(BoundsError, "RotatorTranslatorToSuper", "%s", err.Error())
		}
		ctempla.SomeVecs(templa, indexes)
	}
	if mass != nil && len(mass) != ctest.NVecs() {
		return nil, newError(ShapeError, "RotatorTranslatorToSuper", "%d masses for %d atoms", len(mass), ctest.NVecs())
	}
	x, from, err := MassCentrate(ctest, ctest, mass)
	if err != nil {
		return nil, errDecorate(err, "RotatorTranslatorToSuper")
	}
	y, to, err := MassCentrate(ctempla, ctempla, mass)
	if err != nil {
		return nil, errDecorate(err, "RotatorTranslatorToSuper")
	}
	R := kabsch(x, y, mass)
	fitted := v3.Zeros(x.NVecs())
	fitted.Mul(x, R)
	rmsd, err := weightedRMSD(fitted, y, mass)
	if err != nil {
		return nil, errDecorate(err, "RotatorTranslatorToSuper")
	}
	return &Superposition{From: from, Rotation: R, To: to, RMSD: rmsd}, nil
}

// Super superimposes, in place, all the atoms of test onto templa, using only the atoms in
// indexes (all, if nil) to obtain the transformation. It returns the RMSD over those atoms
// after the superposition.
func Super(test, templa *v3.Matrix, indexes []int, mass []float64) (float64, error) {
	s, err := RotatorTranslatorToSuper(test, templa, indexes, mass)
	if err != nil {
		return 0, errDecorate(err, "Super")
	}
	s.Apply(test)
	return s.RMSD, nil
}

// RMSD returns the RSMD (root of the mean square deviation) for the sets of cartesian
// coordinates in test and template, without superimposing them. If indexes is not nil, only
// those atoms are considered.
func RMSD(test, template *v3.Matrix, indexes ...int) (float64, error) {
	if test.NVecs() != template.NVecs() {
		return 0, newError(ShapeError, "RMSD", "ill formed matrices for RMSD calculation: %d and %d atoms", test.NVecs(), template.NVecs())
	}
	if len(indexes) == 0 {
		return weightedRMSD(test, template, nil)
	}
	a, b := v3.Zeros(len(indexes)), v3.Zeros(len(indexes))
	if err := a.SomeVecsSafe(test, indexes); err != nil {
		return 0, newError(BoundsError, "RMSD", "%s", err.Error())
	}
	b.SomeVecs(template, indexes)
	return weightedRMSD(a, b, nil)
}

func weightedRMSD(test, template *v3.Matrix, mass []float64) (float64, error) {
	n := test.NVecs()
	var sum, total float64
	for i := 0; i < n; i++ {
		w := 1.0
		if mass != nil {
			w = mass[i]
		}
		dx := test.At(i, 0) - template.At(i, 0)
		dy := test.At(i, 1) - template.At(i, 1)
		dz := test.At(i, 2) - template.At(i, 2)
		sum += w * (dx*dx + dy*dy + dz*dz)
		total += w
	}
	if total <= 0 {
		return 0, newError(ConfigError, "RMSD", "total weight is %g", total)
	}
	return math.Sqrt(sum / total), nil
}

// AlignPrincipalAxis rotates coords, in place, around their center of mass, so that their
// principal axes lie along x, y and z (largest moment along x), and the center ends at the origin.
func AlignPrincipalAxis(coords *v3.Matrix, mass []float64) error {
	moment, err := MomentTensor(coords, mass)
	if err != nil {
		return errDecorate(err, "AlignPrincipalAxis")
	}
	evecs, _, err := v3.EigenWrap(moment, -1)
	if err != nil {
		return errDecorate(err, "AlignPrincipalAxis")
	}
	//eigenvectors are rows sorted by increasing eigenvalue.
	Q := mat.NewDense(3, 3, nil)
	for j := 0; j < 3; j++ {
		Q.Set(j, 0, evecs.At(2, j))
		Q.Set(j, 1, evecs.At(1, j))
		Q.Set(j, 2, -evecs.At(0, j))
	}
	centered, _, err := MassCentrate(coords, coords, mass)
	if err != nil {
		return errDecorate(err, "AlignPrincipalAxis")
	}
	coords.Mul(centered, Q)
	return nil
}

// RotatorXYZ returns the matrix that, right-multiplied to row vectors, rotates them by
// ax degrees around x, then ay around y, then az around z.
func RotatorXYZ(ax, ay, az float64) *mat.Dense {
	rx, ry, rz := Deg2Rad(ax), Deg2Rad(ay), Deg2Rad(az)
	X := mat.NewDense(3, 3, []float64{1, 0, 0, 0, math.Cos(rx), -math.Sin(rx), 0, math.Sin(rx), math.Cos(rx)})
	Y := mat.NewDense(3, 3, []float64{math.Cos(ry), 0, math.Sin(ry), 0, 1, 0, -math.Sin(ry), 0, math.Cos(ry)})
	Z := mat.NewDense(3, 3, []float64{math.Cos(rz), -math.Sin(rz), 0, math.Sin(rz), math.Cos(rz), 0, 0, 0, 1})
	M := mat.NewDense(3, 3, nil)
	M.Product(Z, Y, X)
	return mat.DenseCopyOf(M.T())
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(f float64) float64 {
	return f * math.Pi / 180
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(f float64) float64 {
	return f * 180 / math.Pi
}

// sameFloats reports whether a and b are equal within tol, element by element.
func sameFloats(a, b []float64, tol float64) bool {
	return len(a) == len(b) && floats.EqualApprox(a, b, tol)
}
