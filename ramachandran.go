/*
 * ramachandran.go, part of gotraj
 *
 * Copyright 2012 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
*/

package traj

import (
	"math"

	v3 "github.com/rmera/gotraj/v3"
)

// RamaSet holds the indexes of the atoms defining the phi and psi dihedrals of a residue.
type RamaSet struct {
	Cprev   int
	N       int
	Ca      int
	C       int
	Npost   int
	MolID   int
	MolName string
}

func backbone(top *Topology, r Residue) (n, ca, c int) {
	n, ca, c = -1, -1, -1
	for i := r.First; i < r.Last; i++ {
		switch top.Atoms[i].Name {
		case "N":
			n = i
		case "CA":
			ca = i
		case "C":
			c = i
		}
	}
	return n, ca, c
}

// RamaList returns the atoms defining the phi and psi dihedrals of each residue whose CA is
// selected by s (every residue, if s is nil). Residues at the ends of a chain, or next to a
// gap in the residue numbering, have no dihedrals and are skipped.
func RamaList(top *Topology, s Selector) ([]RamaSet, error) {
	var sel map[int]bool
	if s != nil {
		ind, err := top.Select(s)
		if err != nil {
			return nil, errDecorate(err, "RamaList")
		}
		sel = make(map[int]bool, len(ind))
		for _, v := range ind {
			sel[v] = true
		}
	}
	res := top.Residues()
	var ret []RamaSet
	for i := 1; i+1 < len(res); i++ {
		prev, r, next := res[i-1], res[i], res[i+1]
		if prev.Chain != r.Chain || next.Chain != r.Chain || prev.ID != r.ID-1 || next.ID != r.ID+1 {
			continue
		}
		n, ca, c := backbone(top, r)
		_, _, cprev := backbone(top, prev)
		npost, _, _ := backbone(top, next)
		if n < 0 || ca < 0 || c < 0 || cprev < 0 || npost < 0 {
			continue
		}
		if sel != nil && !sel[ca] {
			continue
		}
		ret = append(ret, RamaSet{Cprev: cprev, N: n, Ca: ca, C: c, Npost: npost, MolID: r.ID, MolName: r.Name})
	}
	if len(ret) == 0 {
		return nil, newError(ConfigError, "RamaList", "no residue with phi and psi dihedrals")
	}
	return ret, nil
}

// Dihedral returns the dihedral angle, in radians, defined by the first vectors of a, b, c and d.
func Dihedral(a, b, c, d *v3.Matrix) float64 {
	bma := v3.Zeros(1)
	cmb := v3.Zeros(1)
	dmc := v3.Zeros(1)
	bma.Sub(b.VecView(0), a.VecView(0))
	cmb.Sub(c.VecView(0), b.VecView(0))
	dmc.Sub(d.VecView(0), c.VecView(0))
	v1 := v3.Zeros(1)
	v2 := v3.Zeros(1)
	v1.Cross(bma, cmb)
	v2.Cross(cmb, dmc)
	bma.Scale(cmb.Norm(), bma.Dense)
	return math.Atan2(bma.Dot(v2), v1.Dot(v2))
}

// RamaCalc returns the phi and psi dihedrals, in degrees, of each set in dihedrals, for the
// structure M.
func RamaCalc(M *v3.Matrix, dihedrals []RamaSet) ([][2]float64, error) {
	r := M.NVecs()
	ret := make([][2]float64, 0, len(dihedrals))
	for _, j := range dihedrals {
		for _, v := range [...]int{j.Cprev, j.N, j.Ca, j.C, j.Npost} {
			if v < 0 || v >= r {
				return nil, newError(BoundsError, "RamaCalc", "atom %d out of range for %d atoms", v, r)
			}
		}
		Cprev, N, Ca, C, Npost := M.VecView(j.Cprev), M.VecView(j.N), M.VecView(j.Ca), M.VecView(j.C), M.VecView(j.Npost)
		phi := Dihedral(Cprev, N, Ca, C)
		psi := Dihedral(N, Ca, C, Npost)
		ret = append(ret, [2]float64{Rad2Deg(phi), Rad2Deg(psi)})
	}
	return ret, nil
}

// RamaAnalysis returns an analysis giving, for each frame, the phi and psi dihedrals of the
// residues in sets. The frames must have all the atoms of the topology the sets were built for.
func RamaAnalysis(sets []RamaSet) Analysis[[][][2]float64] {
	f := func(it *FrameIterator) ([][][2]float64, error) {
		var ret [][][2]float64
		err := it.Each(func(fr *Frame) error {
			r, err := RamaCalc(fr.Coords, sets)
			if err != nil {
				return err
			}
			ret = append(ret, r)
			return nil
		})
		return ret, err
	}
	return Analysis[[][][2]float64]{Name: "ramachandran", Cap: Capability{Partition: true}, Func: f}
}
