/*
 * trajectory_test.go
 *
 * Copyright 2013  <rmera@Holmes>
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

package traj

import (
	"errors"
	"fmt"
	"math"
	"testing"

	v3 "github.com/rmera/gotraj/v3"
)

var testNames = []string{"N", "CA", "C", "O", "H"}

// testTopology returns a topology of residues of 5 atoms each.
func testTopology(natoms int) *Topology {
	ats := make([]*Atom, natoms)
	for i := range ats {
		name := testNames[i%5]
		res := i / 5
		molname := "ALA"
		if res%2 == 1 {
			molname = "GLY"
		}
		mass := 12.0
		if name == "H" {
			mass = 1.0
		}
		ats[i] = &Atom{Name: name, ID: i + 1, MolName: molname, MolID: res + 1, Chain: "A", Symbol: name[:1], Mass: mass}
	}
	top, err := NewTopology(ats, nil)
	if err != nil {
		panic(err)
	}
	return top
}

func testCoords(nframes, natoms int) []float64 {
	data := make([]float64, 0, nframes*natoms*3)
	for f := 0; f < nframes; f++ {
		for a := 0; a < natoms; a++ {
			data = append(data, float64(a)+0.1*float64(f), 2*float64(a%7)-0.05*float64(f), math.Sin(float64(a+f)))
		}
	}
	return data
}

func testTraj(Te *testing.T, nframes, natoms int) *Trajectory {
	t, err := New(testTopology(natoms), Block{nframes, natoms, testCoords(nframes, natoms)}, nil)
	if err != nil {
		Te.Fatal(err)
	}
	return t
}

func TestAliasing(Te *testing.T) {
	t := testTraj(Te, 10, 5)
	c := t.Copy()
	sel, err := t.Get(Int(3))
	if err != nil {
		Te.Fatal(err)
	}
	if !sel.Shared || sel.Frame == nil {
		Te.Fatalf("integer index should give a live frame: %+v", sel)
	}
	sel.Frame.Coords.Set(1, 2, 99)
	if v := t.Coords().Data[3*15+1*3+2]; v != 99 {
		Te.Errorf("change in the frame not reflected in the trajectory: %f", v)
	}
	f, _ := c.Frame(3)
	if f.Coords.At(1, 2) == 99 {
		Te.Errorf("change in the frame reflected in a copy")
	}
	sel, _ = t.Get(Int(-1))
	if sel.Frame.Index() != 9 {
		Te.Errorf("negative index should count from the end, got frame %d", sel.Frame.Index())
	}
	if _, err := t.Get(Int(10)); !errors.Is(err, ErrBounds) {
		Te.Errorf("expected an out of bounds error, got %v", err)
	}
}

func TestRangeViews(Te *testing.T) {
	t := testTraj(Te, 10, 5)
	sel, err := t.Get(Range{2, 5, 1})
	if err != nil {
		Te.Fatal(err)
	}
	if !sel.Shared || sel.Traj.NFrames() != 3 {
		Te.Fatalf("step 1 range should be a 3-frame view: %v %v", sel.Shared, sel.Traj)
	}
	f, _ := sel.Traj.Frame(0)
	f.Coords.Set(0, 0, -7)
	if g, _ := t.Frame(2); g.Coords.At(0, 0) != -7 {
		Te.Errorf("view of a range doesn't share memory")
	}
	//growing the view must not write over the frames of the parent.
	before, _ := t.Frame(5)
	b := before.Copy()
	extra := v3.Zeros(5)
	extra.Set(0, 0, 1234)
	if err := sel.Traj.Append(extra); err != nil {
		Te.Fatal(err)
	}
	after, _ := t.Frame(5)
	if !sameFloats(after.Coords.RawData(), b.Coords.RawData(), 0) {
		Te.Errorf("appending to a view overwrote its parent")
	}
	sel, _ = t.Get(Range{0, End, 3})
	if sel.Shared || sel.Traj.NFrames() != 4 {
		Te.Errorf("step 3 range should be a 4-frame copy: %v %v", sel.Shared, sel.Traj)
	}
	if n := (Range{0, -1, 2}).Len(10); n != 5 {
		Te.Errorf("range (0,-1,2) over 10 frames should have 5, got %d", n)
	}
	rev := (Range{End, Rend, -1}).Indices(4)
	if fmt.Sprint(rev) != "[3 2 1 0]" {
		Te.Errorf("reversed range gave %v", rev)
	}
	if n := (Range{5, 2, 0}).Len(10); n != 0 {
		Te.Errorf("empty range gave %d frames", n)
	}
}

func TestMaskIndexing(Te *testing.T) {
	t := testTraj(Te, 4, 20)
	for _, m := range []Mask{"@CA", ":2-3", ":GLY@H", "!@H*", "*", "@1-3,7"} {
		ind, err := t.Topology().Select(m)
		if err != nil {
			Te.Fatal(err)
		}
		sel, err := t.Get(m)
		if err != nil {
			Te.Fatal(err)
		}
		if sel.Shared {
			Te.Errorf("mask selection should be a copy")
		}
		if sel.Traj.NAtoms() != len(ind) {
			Te.Errorf("mask %s: %d atoms, resolved %d", m, sel.Traj.NAtoms(), len(ind))
		}
	}
	order := AtomIndices{7, 0, 3, 3}
	sel, err := t.Get(order)
	if err != nil {
		Te.Fatal(err)
	}
	f0, _ := t.Frame(2)
	g0, _ := sel.Traj.Frame(2)
	for k, a := range order {
		if !sameFloats(g0.Coords.VecView(k).RawData(), f0.Coords.VecView(a).RawData(), 0) {
			Te.Errorf("atom %d of the selection is not atom %d of the trajectory", k, a)
		}
	}
	if _, err := t.Get(Mask("@XX")); !errors.Is(err, ErrConfig) {
		Te.Errorf("a mask selecting nothing should be a configuration error, got %v", err)
	}
	sel, err = t.Get(Pair{Int(1), Mask("@CA")})
	if err != nil {
		Te.Fatal(err)
	}
	if sel.Frame == nil || sel.Frame.Len() != 4 || sel.Shared {
		Te.Errorf("pair index with an integer should give a copied 4-atom frame: %+v", sel)
	}
	sel, err = t.Get(Pair{Frames{3, 0}, Mask(":1")})
	if err != nil {
		Te.Fatal(err)
	}
	if sel.Traj.NFrames() != 2 || sel.Traj.NAtoms() != 5 {
		Te.Errorf("pair index gave %v", sel.Traj)
	}
}

func TestSetters(Te *testing.T) {
	t := testTraj(Te, 3, 10)
	if err := t.SetFrame(1, v3.Zeros(10)); err != nil {
		Te.Fatal(err)
	}
	if f, _ := t.Frame(1); f.Coords.At(9, 2) != 0 {
		Te.Errorf("SetFrame didn't write the frame")
	}
	if err := t.SetFrame(0, v3.Zeros(3)); !errors.Is(err, ErrShape) {
		Te.Errorf("expected a shape error, got %v", err)
	}
	b := NewBlock(1, 2)
	for i := range b.Data {
		b.Data[i] = 5
	}
	if err := t.SetMaskBlock(Mask("@CA"), b); err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		f, _ := t.Frame(i)
		if f.Coords.At(1, 0) != 5 || f.Coords.At(6, 2) != 5 || f.Coords.At(0, 0) == 5 {
			Te.Errorf("one-frame block should be written to the CA atoms of every frame")
		}
	}
	src := testTraj(Te, 2, 2)
	if err := t.SetMask(Mask("@CA"), src); !errors.Is(err, ErrLength) {
		Te.Errorf("expected a length error, got %v", err)
	}
	empty := NewEmpty(testTopology(10))
	if err := empty.SetFrame(0, v3.Zeros(10)); !errors.Is(err, ErrState) {
		Te.Errorf("expected a state error, got %v", err)
	}
	if _, err := empty.Get(Int(0)); !errors.Is(err, ErrBounds) {
		Te.Errorf("expected an out of bounds error, got %v", err)
	}
}

func TestAppend(Te *testing.T) {
	src := testTraj(Te, 10, 5)
	t := NewEmpty(src.Topology())
	f, _ := src.Frame(0)
	steps := []struct {
		what interface{}
		k    int
	}{
		{f, 1},
		{Block{3, 5, testCoords(3, 5)}, 3},
		{src, 10},
		{src.Reader(), 10},
	}
	n := 0
	for _, s := range steps {
		if err := t.Append(s.what); err != nil {
			Te.Fatal(err)
		}
		n += s.k
		if t.NFrames() != n {
			Te.Errorf("appending a %T: %d frames, want %d", s.what, t.NFrames(), n)
		}
	}
	it, err := src.IterFrame(nil)
	if err != nil {
		Te.Fatal(err)
	}
	if err := t.Append(it); err != nil {
		Te.Fatal(err)
	}
	if t.NFrames() != n+10 {
		Te.Errorf("appending an iterator: %d frames, want %d", t.NFrames(), n+10)
	}
	if err := t.Append(v3.Zeros(4)); !errors.Is(err, ErrConfig) {
		Te.Errorf("expected a configuration error, got %v", err)
	}
}

func TestAppendCells(Te *testing.T) {
	t := testTraj(Te, 2, 5)
	f, _ := t.Frame(0)
	g := f.Copy()
	g.Cell = []float64{10, 10, 10, 90, 90, 90}
	if err := t.Append(g); err != nil {
		Te.Fatal(err)
	}
	if len(t.Cells()) != 3*CellLen || t.Cells()[0] != 0 || t.Cells()[12] != 10 {
		Te.Errorf("unit cells not synthesized: %v", t.Cells())
	}
	if err := t.Append(Block{1, 5, testCoords(1, 5)}); err != nil {
		Te.Fatal(err)
	}
	if len(t.Cells()) != 4*CellLen {
		Te.Errorf("a block with no cells should get an empty cell: %v", t.Cells())
	}
}

func TestJoin(Te *testing.T) {
	a := testTraj(Te, 3, 5)
	b := testTraj(Te, 2, 5)
	a.SetCells([]float64{10, 10, 10, 90, 90, 90})
	if err := a.Join(b); err != nil {
		Te.Fatal(err)
	}
	if a.NFrames() != 5 || a.HasBox() {
		Te.Errorf("join with a trajectory without cells: %v", a)
	}
	if err := a.Join(testTraj(Te, 1, 10)); !errors.Is(err, ErrConfig) {
		Te.Errorf("expected a configuration error, got %v", err)
	}
}

func TestMerge(Te *testing.T) {
	a := testTraj(Te, 1, 34)
	b := testTraj(Te, 1, 5293)
	b.SetCells([]float64{50, 50, 50, 90, 90, 90})
	m, err := a.Add(b)
	if err != nil {
		Te.Fatal(err)
	}
	if m.NAtoms() != 5327 || m.NFrames() != 1 {
		Te.Fatalf("merged trajectory is %v", m)
	}
	if m.HasBox() {
		Te.Errorf("merged trajectory should have no unit cell by default")
	}
	fm, _ := m.Frame(0)
	fa, _ := a.Frame(0)
	fb, _ := b.Frame(0)
	if !sameFloats(fm.Coords.RawData()[:34*3], fa.Coords.RawData(), 0) {
		Te.Errorf("first atoms of the merged trajectory differ from the first input")
	}
	if !sameFloats(fm.Coords.RawData()[34*3:], fb.Coords.RawData(), 0) {
		Te.Errorf("last atoms of the merged trajectory differ from the second input")
	}
	m2, _ := Merge(a, b, BoxFromSecond)
	if !m2.HasBox() || m2.Cells()[0] != 50 {
		Te.Errorf("merge asked for the box of the second trajectory")
	}
	if _, err := Merge(a, testTraj(Te, 2, 3)); !errors.Is(err, ErrLength) {
		Te.Errorf("expected a length error, got %v", err)
	}
}

func TestStripReverse(Te *testing.T) {
	t := testTraj(Te, 4, 10)
	r := t.Reverse()
	f, _ := r.Frame(0)
	g, _ := t.Frame(3)
	if !sameFloats(f.Coords.RawData(), g.Coords.RawData(), 0) {
		Te.Errorf("Reverse didn't reverse")
	}
	if err := t.Strip(Mask("@H")); err != nil {
		Te.Fatal(err)
	}
	if t.NAtoms() != 8 || t.Topology().Len() != 8 || len(t.Coords().Data) != 4*8*3 {
		Te.Errorf("strip left %v", t)
	}
	if err := t.Strip(Mask("*")); !errors.Is(err, ErrState) {
		Te.Errorf("stripping every atom should fail, got %v", err)
	}
	if gb := t.EstimatedGB(); gb <= 0 {
		Te.Errorf("estimated size %g", gb)
	}
}
