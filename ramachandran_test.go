package traj

import (
	"errors"
	"math"
	"testing"

	v3 "github.com/rmera/gotraj/v3"
)

func TestDihedral(Te *testing.T) {
	a, _ := v3.NewMatrix([]float64{1, 0, 0})
	b := v3.Zeros(1)
	c, _ := v3.NewMatrix([]float64{0, 0, 1})
	for _, deg := range []float64{0, 60, 120, -45, 179} {
		th := Deg2Rad(deg)
		d, _ := v3.NewMatrix([]float64{math.Cos(th), math.Sin(th), 1})
		if got := Rad2Deg(Dihedral(a, b, c, d)); math.Abs(got-deg) > 1e-9 {
			Te.Errorf("dihedral %f, got %f", deg, got)
		}
	}
}

func TestRama(Te *testing.T) {
	t := testTraj(Te, 6, 20)
	sets, err := RamaList(t.Topology(), nil)
	if err != nil {
		Te.Fatal(err)
	}
	if len(sets) != 2 || sets[0].MolID != 2 || sets[0].Cprev != 2 || sets[0].Npost != 10 {
		Te.Errorf("wrong dihedral sets %+v", sets)
	}
	gly, err := RamaList(t.Topology(), Mask(":GLY"))
	if err != nil {
		Te.Fatal(err)
	}
	if len(gly) != 1 || gly[0].MolName != "GLY" {
		Te.Errorf("wrong filtered sets %+v", gly)
	}
	if _, err := RamaList(testTopology(10), nil); !errors.Is(err, ErrConfig) {
		Te.Errorf("two residues have no dihedrals, got %v", err)
	}
	a := RamaAnalysis(sets)
	serial, err := Serial(t, a, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if len(serial) != 6 || len(serial[0]) != 2 {
		Te.Fatalf("wrong result shape")
	}
	parts, err := PMap(t, a, &PMapOptions{Workers: 4})
	if err != nil {
		Te.Fatal(err)
	}
	par, err := Gather(parts)
	if err != nil {
		Te.Fatal(err)
	}
	for i := range serial {
		if par[i] == nil || par[i][1] != serial[i][1] || par[i][0] != serial[i][0] {
			Te.Errorf("frame %d: parallel dihedrals differ", i)
		}
	}
	//dihedrals don't change when the whole frame is rotated.
	f, _ := t.Frame(3)
	rot := v3.Zeros(20)
	rot.Mul(f.Coords, RotatorXYZ(20, 30, 40))
	r, _ := RamaCalc(rot, sets)
	if math.Abs(r[1][0]-serial[3][1][0]) > 1e-9 || math.Abs(r[1][1]-serial[3][1][1]) > 1e-9 {
		Te.Errorf("dihedrals changed on rotation: %v vs %v", r[1], serial[3][1])
	}
	if _, err := RamaCalc(v3.Zeros(5), sets); !errors.Is(err, ErrBounds) {
		Te.Errorf("expected an out of bounds error, got %v", err)
	}
}
