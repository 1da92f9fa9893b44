/*
 * v3_test.go
 *
 * Copyright 2013 Raul Mera <rmera@zinc>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program; if not, write to the Free Software
 * Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston,
 * MA 02110-1301, USA.
 *
 *
 */

package v3

import (
	"fmt"
	"math"
	"testing"
)

func TestViewSharesMemory(Te *testing.T) {
	a := []float64{1.0, 2.0, 3, 4, 5, 6, 7, 8, 9}
	A, err := NewMatrix(a)
	if err != nil {
		Te.Fatal(err)
	}
	View := A.VecView(1)
	View.Set(0, 0, 100)
	if a[3] != 100 || A.At(1, 0) != 100 {
		Te.Errorf("view change not reflected in the parent: %v", a)
	}
	C := A.Clone()
	C.Set(0, 0, -1)
	if a[0] != 1 {
		Te.Errorf("clone shares memory with the original")
	}
	if A.RawData() == nil || View.RawData() == nil {
		Te.Errorf("contiguous matrices should expose their data")
	}
	fmt.Println("View\n", A, "\n", View)
}

func TestNewMatrixErrors(Te *testing.T) {
	if _, err := NewMatrix([]float64{1, 2}); err == nil {
		Te.Errorf("expected an error for a slice not divisible by 3")
	}
	if _, err := NewMatrix(nil); err == nil {
		Te.Errorf("expected an error for an empty slice")
	}
}

func TestSomeVecs(Te *testing.T) {
	a := []float64{1.0, 2.0, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18}
	A, err := NewMatrix(a)
	if err != nil {
		Te.Fatal(err)
	}
	B := Zeros(3)
	cind := []int{1, 3, 5}
	err = B.SomeVecsSafe(A, cind)
	if err != nil {
		Te.Fatal(err)
	}
	if B.At(0, 0) != 4 || B.At(2, 2) != 18 {
		Te.Errorf("wrong vectors selected: %v", B)
	}
	B.Set(1, 1, 55)
	A.SetVecs(B, cind)
	if A.At(3, 1) != 55 {
		Te.Errorf("SetVecs didn't scatter the vectors back: %v", A)
	}
	if err := B.SomeVecsSafe(A, []int{1, 40, 2}); err == nil {
		Te.Errorf("expected an error for an out of range index")
	}
}

func TestAddSubVec(Te *testing.T) {
	A, _ := NewMatrix([]float64{1, 2, 3, 4, 5, 6})
	row, _ := NewMatrix([]float64{10, 20, 30})
	A.AddVec(A, row)
	if A.At(1, 2) != 36 {
		Te.Errorf("AddVec failed: %v", A)
	}
	A.SubVec(A, row)
	if A.At(1, 2) != 6 || A.At(0, 0) != 1 {
		Te.Errorf("SubVec failed: %v", A)
	}
}

func TestStackCross(Te *testing.T) {
	x, _ := NewMatrix([]float64{1, 0, 0})
	y, _ := NewMatrix([]float64{0, 1, 0})
	z := Zeros(1)
	z.Cross(x, y)
	if z.At(0, 2) != 1 {
		Te.Errorf("x cross y should be z, got %v", z)
	}
	S := Zeros(3)
	S.Stack(x, Zeros(2))
	if S.At(0, 0) != 1 || S.At(2, 2) != 0 {
		Te.Errorf("Stack failed: %v", S)
	}
	u, _ := NewMatrix([]float64{3, 0, 4})
	u.Unit(u)
	if math.Abs(u.Norm()-1) > 1e-12 {
		Te.Errorf("Unit vector with norm %f", u.Norm())
	}
}

func TestEigen(Te *testing.T) {
	a := []float64{1, 2, 0, 2, 1, 0, 0, 0, 1}
	A, err := NewMatrix(a)
	if err != nil {
		Te.Fatal(err)
	}
	evecs, evals, err := EigenWrap(A, -1)
	if err != nil {
		Te.Fatal(err)
	}
	want := []float64{-1, 1, 3}
	for i, v := range want {
		if math.Abs(evals[i]-v) > 1e-9 {
			Te.Errorf("eigenvalue %d: got %f want %f", i, evals[i], v)
		}
	}
	fmt.Println(evecs, "\n", evals)
}
