/*
 * chem.go, part of gotraj.
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
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

/**Note: Many funcitons here panic instead of returning errors. This is because they are "fundamental"
 * functions. If something goes wrong here, the program is most likely wrong and should
 * crash. Most panics are related to using the function on a nil object or trying to access out-of bounds
 * fields**/

// Atom contains the per-atom information that doesn't change along a trajectory.
type Atom struct {
	Name    string
	ID      int //1-based serial number, as in the original file.
	MolName string
	MolID   int //residue number
	Chain   string
	Symbol  string
	Mass    float64
}

// Copy returns a copy of the Atom object.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic("Attempted to copy a nil atom")
	}
	ret := *A
	return &ret
}

// Bond joins the atoms with indexes At1 and At2 in a Topology.
type Bond struct {
	At1 int
	At2 int
}

// Residue is a contiguous range [First, Last) of atoms sharing residue number and chain.
type Residue struct {
	Name  string
	ID    int
	Chain string
	First int
	Last  int
}

// Len returns the number of atoms in the residue.
func (R Residue) Len() int { return R.Last - R.First }

/*****Topology type***/

// Topology contains the information about a system which is not expected to change in time.
// A Topology is shared by every Trajectory built from the same source. Operations that
// reduce or extend the atom set return a new Topology and leave the receiver alone.
type Topology struct {
	Atoms []*Atom
	Bonds []Bond
}

// NewTopology builds a Topology with the given atoms and bonds. It returns an error
// if no atoms are given, or if a bond refers to an atom not in the topology.
func NewTopology(ats []*Atom, bonds []Bond) (*Topology, error) {
	if len(ats) == 0 {
		return nil, newError(StateError, "NewTopology", "a topology needs at least one atom")
	}
	for _, b := range bonds {
		if b.At1 < 0 || b.At2 < 0 || b.At1 >= len(ats) || b.At2 >= len(ats) {
			return nil, newError(BoundsError, "NewTopology", "bond %d-%d out of range for %d atoms", b.At1, b.At2, len(ats))
		}
	}
	return &Topology{Atoms: ats, Bonds: bonds}, nil
}

/*Topology methods*/

// Atom returns the Atom corresponding to the index i
// of the Atom slice in the Topology. Panics if
// out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() || i < 0 {
		panic("Topology: Requested Atom out of bounds")
	}
	return T.Atoms[i]
}

// Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	if T == nil {
		return 0
	}
	return len(T.Atoms)
}

// Copy returns a deep copy of the topology.
func (T *Topology) Copy() *Topology {
	top := new(Topology)
	top.Atoms = make([]*Atom, T.Len())
	for key, val := range T.Atoms {
		top.Atoms[key] = val.Copy()
	}
	top.Bonds = append([]Bond(nil), T.Bonds...)
	return top
}

// Residues returns the residues of the topology, each a run of consecutive atoms
// sharing residue number and chain.
func (T *Topology) Residues() []Residue {
	var ret []Residue
	for i, at := range T.Atoms {
		l := len(ret)
		if l > 0 && ret[l-1].ID == at.MolID && ret[l-1].Chain == at.Chain {
			ret[l-1].Last = i + 1
			continue
		}
		ret = append(ret, Residue{Name: at.MolName, ID: at.MolID, Chain: at.Chain, First: i, Last: i + 1})
	}
	return ret
}

// NResidues returns the number of residues in the topology.
func (T *Topology) NResidues() int {
	return len(T.Residues())
}

// Molecules returns the atom indexes of each molecule in the topology, sorted.
// Molecules are the connected components of the bond graph. If the topology has no bonds,
// each residue is considered a molecule.
func (T *Topology) Molecules() [][]int {
	if len(T.Bonds) == 0 {
		res := T.Residues()
		ret := make([][]int, len(res))
		for i, r := range res {
			ret[i] = make([]int, 0, r.Len())
			for j := r.First; j < r.Last; j++ {
				ret[i] = append(ret[i], j)
			}
		}
		return ret
	}
	g := simple.NewUndirectedGraph()
	for i := range T.Atoms {
		g.AddNode(simple.Node(i))
	}
	for _, b := range T.Bonds {
		if b.At1 == b.At2 {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(b.At1), T: simple.Node(b.At2)})
	}
	comps := topo.ConnectedComponents(g)
	ret := make([][]int, 0, len(comps))
	for _, c := range comps {
		m := make([]int, len(c))
		for j, n := range c {
			m[j] = int(n.ID())
		}
		sort.Ints(m)
		ret = append(ret, m)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i][0] < ret[j][0] })
	return ret
}

// Select resolves the selection s against the topology.
func (T *Topology) Select(s Selector) ([]int, error) {
	ind, err := s.Select(T)
	if err != nil {
		return nil, errDecorate(err, "Topology.Select")
	}
	return ind, nil
}

// SomeAtoms returns a new topology with copies of the atoms in atomlist, in that order.
// Bonds between selected atoms are kept and renumbered.
func (T *Topology) SomeAtoms(atomlist []int) (*Topology, error) {
	if len(atomlist) == 0 {
		return nil, newError(ConfigError, "Topology.SomeAtoms", "empty atom list")
	}
	lenatoms := T.Len()
	newpos := make(map[int]int, len(atomlist))
	ret := make([]*Atom, 0, len(atomlist))
	for k, j := range atomlist {
		if j >= lenatoms || j < 0 {
			return nil, newError(BoundsError, "Topology.SomeAtoms", "atom requested (number: %d, value: %d) out of range [0,%d)", k, j, lenatoms)
		}
		if _, ok := newpos[j]; !ok {
			newpos[j] = k
		}
		ret = append(ret, T.Atoms[j].Copy())
	}
	var bonds []Bond
	for _, b := range T.Bonds {
		n1, ok1 := newpos[b.At1]
		n2, ok2 := newpos[b.At2]
		if ok1 && ok2 {
			bonds = append(bonds, Bond{n1, n2})
		}
	}
	return &Topology{Atoms: ret, Bonds: bonds}, nil
}

// Strip returns the topology without the atoms selected by s, and the indexes
// of the atoms that remain.
func (T *Topology) Strip(s Selector) (*Topology, []int, error) {
	out, err := T.Select(s)
	if err != nil {
		return nil, nil, errDecorate(err, "Topology.Strip")
	}
	keep := complement(out, T.Len())
	if len(keep) == 0 {
		return nil, nil, newError(StateError, "Topology.Strip", "stripping %v would leave no atoms", s)
	}
	ret, err := T.SomeAtoms(keep)
	if err != nil {
		return nil, nil, errDecorate(err, "Topology.Strip")
	}
	return ret, keep, nil
}

// Merge returns a new Topology with the atoms of T followed by the atoms of B.
// Residue numbers of B are shifted so they start right after the largest one of T.
func (T *Topology) Merge(B *Topology) *Topology {
	ret := T.Copy()
	offset := T.Len()
	maxres := 0
	for _, at := range T.Atoms {
		if at.MolID > maxres {
			maxres = at.MolID
		}
	}
	minres := 0
	for i, at := range B.Atoms {
		if i == 0 || at.MolID < minres {
			minres = at.MolID
		}
	}
	shift := maxres + 1 - minres
	for _, at := range B.Atoms {
		n := at.Copy()
		n.MolID += shift
		n.ID += offset
		ret.Atoms = append(ret.Atoms, n)
	}
	for _, b := range B.Bonds {
		ret.Bonds = append(ret.Bonds, Bond{b.At1 + offset, b.At2 + offset})
	}
	return ret
}

// Masses returns a slice with the masses of all atoms, and an error if some are not set.
func (T *Topology) Masses() ([]float64, error) {
	mass := make([]float64, T.Len())
	for i, at := range T.Atoms {
		if at.Mass <= 0 {
			return nil, newError(ConfigError, "Topology.Masses", "mass of atom %d (%s) not set", i, at.Name)
		}
		mass[i] = at.Mass
	}
	return mass, nil
}

// String returns a short description of the topology.
func (T *Topology) String() string {
	return fmt.Sprintf("<Topology: %d atoms, %d residues, %d bonds>", T.Len(), T.NResidues(), len(T.Bonds))
}

// complement returns the indexes in [0,n) that are not in sel, in increasing order.
func complement(sel []int, n int) []int {
	in := make([]bool, n)
	for _, v := range sel {
		if v >= 0 && v < n {
			in[v] = true
		}
	}
	ret := make([]int, 0, n)
	for i, v := range in {
		if !v {
			ret = append(ret, i)
		}
	}
	return ret
}
