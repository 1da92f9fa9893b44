package traj

import (
	"errors"
	"fmt"
	"testing"
)

func TestMaskSyntax(Te *testing.T) {
	top := testTopology(20)
	for i := 15; i < 20; i++ {
		top.Atoms[i].Chain = "B"
	}
	cases := []struct {
		mask string
		want string
	}{
		{"@CA", "[1 6 11 16]"},
		{"@1-3,7", "[0 1 2 6]"},
		{":1", "[0 1 2 3 4]"},
		{":GLY@N,CA", "[5 6 15 16]"},
		{"::B", "[15 16 17 18 19]"},
		{":1-2 & !@H", "[0 1 2 3 5 6 7 8]"},
		{"@CA | @O", "[1 3 6 8 11 13 16 18]"},
		{"!(:1-3)", "[15 16 17 18 19]"},
		{":AL?@C*", "[1 2 11 12]"},
		{"*&:4", "[15 16 17 18 19]"},
	}
	for _, c := range cases {
		ind, err := Mask(c.mask).Select(top)
		if err != nil {
			Te.Errorf("mask %q: %v", c.mask, err)
			continue
		}
		if got := fmt.Sprint(ind); got != c.want {
			Te.Errorf("mask %q: got %s want %s", c.mask, got, c.want)
		}
	}
}

func TestMaskErrors(Te *testing.T) {
	top := testTopology(10)
	for _, m := range []string{"", "@", ":1-", "(@CA", "@CA)", "CA", ":5-2", "@ZZ"} {
		_, err := Mask(m).Select(top)
		if err == nil {
			Te.Errorf("mask %q should fail", m)
			continue
		}
		if !errors.Is(err, ErrConfig) {
			Te.Errorf("mask %q: expected a configuration error, got %v", m, err)
		}
	}
	if _, err := (AtomIndices{0, 10}).Select(top); !errors.Is(err, ErrBounds) {
		Te.Errorf("expected an out of bounds error, got %v", err)
	}
}

func TestTopology(Te *testing.T) {
	top := testTopology(12)
	res := top.Residues()
	if len(res) != 3 || res[2].Len() != 2 || res[1].Name != "GLY" {
		Te.Errorf("wrong residues: %+v", res)
	}
	if m := top.Molecules(); len(m) != 3 {
		Te.Errorf("without bonds each residue should be a molecule: %v", m)
	}
	top.Bonds = []Bond{{0, 5}, {5, 10}, {1, 2}}
	mols := top.Molecules()
	//atoms 0,5,10 together, 1 and 2 together, and every other atom alone.
	if len(mols) != 12-3 || fmt.Sprint(mols[0]) != "[0 5 10]" {
		Te.Errorf("wrong molecules: %v", mols)
	}
	sub, err := top.SomeAtoms([]int{10, 5, 3})
	if err != nil {
		Te.Fatal(err)
	}
	if len(sub.Bonds) != 1 || sub.Bonds[0] != (Bond{1, 0}) {
		Te.Errorf("bonds not renumbered: %v", sub.Bonds)
	}
	merged := top.Merge(testTopology(5))
	if merged.Len() != 17 || merged.Atoms[12].MolID != 4 || len(merged.Bonds) != 3 {
		Te.Errorf("wrong merge: %v", merged)
	}
	//residues numbered from 0, in the same chain, must not fuse with the last one of top.
	zero := testTopology(10)
	for _, at := range zero.Atoms {
		at.MolID--
	}
	merged = top.Merge(zero)
	if n := merged.NResidues(); n != 5 || merged.Atoms[12].MolID != 4 || merged.Atoms[21].MolID != 5 {
		Te.Errorf("merged topology has %d residues: %v", n, merged)
	}
	if ind, err := merged.Select(Mask(":4")); err != nil || len(ind) != 5 || ind[0] != 12 {
		Te.Errorf("residue 4 of the merged topology should be the first one of the second, got %v %v", ind, err)
	}
	if _, err := NewTopology(nil, nil); !errors.Is(err, ErrState) {
		Te.Errorf("an empty topology should be a state error, got %v", err)
	}
}
