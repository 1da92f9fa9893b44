package traj

import (
	"math"
	"testing"

	v3 "github.com/rmera/gotraj/v3"
)

func TestCellVectors(Te *testing.T) {
	box := CellToVectors([]float64{10, 20, 30, 90, 90, 90})
	want := []float64{10, 0, 0, 0, 20, 0, 0, 0, 30}
	if !sameFloats(box.RawData(), want, 1e-9) {
		Te.Errorf("orthorhombic box vectors: %v", box)
	}
	cell := []float64{31, 32, 33, 60, 70, 80}
	back := VectorsToCell(CellToVectors(cell))
	if !sameFloats(back, cell, 1e-9) {
		Te.Errorf("triclinic cell round trip gave %v", back)
	}
	if CellToVectors([]float64{0, 0, 0, 0, 0, 0}) != nil || CellToVectors(nil) != nil {
		Te.Errorf("an empty cell should give no box")
	}
}

func TestWrapMolecules(Te *testing.T) {
	//2 molecules of 2 atoms. The second one is one box length away in x and -1 in z.
	c, _ := v3.NewMatrix([]float64{
		1, 1, 1,
		2, 1, 1,
		11.5, 5, -9,
		12.5, 5, -9,
	})
	cell := []float64{10, 10, 10, 90, 90, 90}
	mols := [][]int{{0, 1}, {2, 3}}
	done, err := WrapMolecules(c, cell, mols, nil)
	if err != nil || !done {
		Te.Fatalf("autoimage failed: %v %v", done, err)
	}
	want := []float64{1, 1, 1, 2, 1, 1, 1.5, 5, 1, 2.5, 5, 1}
	if !sameFloats(c.RawData(), want, 1e-9) {
		Te.Errorf("wrong autoimage: %v", c)
	}
	//anchoring the first molecule moves it to the center of the box.
	done, err = WrapMolecules(c, cell, mols, &ImageOptions{Anchor: []int{0, 1}})
	if err != nil || !done {
		Te.Fatalf("anchored autoimage failed: %v %v", done, err)
	}
	if math.Abs(c.At(0, 0)-4.5) > 1e-9 || math.Abs(c.At(1, 2)-5) > 1e-9 {
		Te.Errorf("anchor not centered: %v", c)
	}
	if done, _ := WrapMolecules(c, nil, mols, nil); done {
		Te.Errorf("autoimage without a cell should do nothing")
	}
}

func TestWrapMoleculesTriclinic(Te *testing.T) {
	cell := []float64{20, 20, 20, 60, 90, 90}
	box := CellToVectors(cell)
	c, _ := v3.NewMatrix([]float64{2, 3, 4})
	orig := c.Clone()
	//move the atom by one of each box vector.
	for i := 0; i < 3; i++ {
		c.AddVec(c, box.VecView(i))
	}
	if _, err := WrapMolecules(c, cell, [][]int{{0}}, nil); err != nil {
		Te.Fatal(err)
	}
	if !sameFloats(c.RawData(), orig.RawData(), 1e-9) {
		Te.Errorf("atom not imaged back: %v, want %v", c, orig)
	}
}
