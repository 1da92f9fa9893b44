/*
 * bonds.go, part of gotraj.
 *
 *
 * Copyright 2021 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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
	"sort"
	"strings"
	"unicode"

	v3 "github.com/rmera/gotraj/v3"
)

// constants from DOI:10.1186/1758-2946-3-33
const (
	tooclose = 0.63
	bondtol  = 0.45
)

// guessSymbol returns the element of an atom from its name: the first letter, or the first
// two if the name starts with a 2-letter element and its atom isn't in a protein residue.
func guessSymbol(at *Atom) string {
	name := strings.TrimLeftFunc(at.Name, unicode.IsDigit)
	if name == "" {
		return ""
	}
	if len(name) >= 2 {
		two := strings.ToUpper(name[:1]) + strings.ToLower(name[1:2])
		if _, ok := symbolMass[two]; ok && strings.EqualFold(at.MolName, name) {
			//ions, such as a CA residue with a CA atom.
			return two
		}
	}
	return strings.ToUpper(name[:1])
}

// AssignMasses sets, for each atom with no mass, the mass of its element. Atoms with no
// symbol get one guessed from their names. An element with no known mass is a ConfigError.
func (T *Topology) AssignMasses() error {
	for i, at := range T.Atoms {
		if at.Symbol == "" {
			at.Symbol = guessSymbol(at)
		}
		if at.Mass > 0 {
			continue
		}
		m, ok := symbolMass[at.Symbol]
		if !ok {
			return newError(ConfigError, "Topology.AssignMasses", "no mass for element %q of atom %d (%s)", at.Symbol, i, at.Name)
		}
		at.Mass = m
	}
	return nil
}

type bondDist struct {
	b Bond
	d float64
}

// GuessBonds replaces the bonds of T by those guessed from the interatomic distances in
// coords: two atoms are bonded if they are closer than the sum of their covalent radii plus
// a tolerance. Atoms with more bonds than their element allows lose the longest ones.
// It is quadratic in the number of atoms.
func (T *Topology) GuessBonds(coords *v3.Matrix) error {
	n := T.Len()
	if coords.NVecs() != n {
		return newError(ShapeError, "Topology.GuessBonds", "%d coordinates for %d atoms", coords.NVecs(), n)
	}
	radii := make([]float64, n)
	syms := make([]string, n)
	for i, at := range T.Atoms {
		sym := at.Symbol
		if sym == "" {
			sym = guessSymbol(at)
		}
		syms[i] = sym
		r, ok := symbolCovrad[sym]
		if !ok {
			return newError(ConfigError, "Topology.GuessBonds", "couldn't find the covalent radius for %q, atom %d", sym, i)
		}
		radii[i] = r
	}
	var found []bondDist
	d := v3.Zeros(1)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d.Sub(coords.VecView(j), coords.VecView(i))
			dist := d.Norm()
			if dist < radii[i]+radii[j]+bondtol && dist > tooclose {
				found = append(found, bondDist{Bond{i, j}, dist})
			}
		}
	}
	//longest bonds are the first to go.
	sort.SliceStable(found, func(i, j int) bool { return found[i].d < found[j].d })
	count := make([]int, n)
	bonds := make([]Bond, 0, len(found))
	for _, f := range found {
		max1, max2 := symbolMaxBonds[syms[f.b.At1]], symbolMaxBonds[syms[f.b.At2]]
		if (max1 > 0 && count[f.b.At1] >= max1) || (max2 > 0 && count[f.b.At2] >= max2) {
			continue
		}
		count[f.b.At1]++
		count[f.b.At2]++
		bonds = append(bonds, f.b)
	}
	sort.Slice(bonds, func(i, j int) bool {
		if bonds[i].At1 != bonds[j].At1 {
			return bonds[i].At1 < bonds[j].At1
		}
		return bonds[i].At2 < bonds[j].At2
	})
	T.Bonds = bonds
	return nil
}
