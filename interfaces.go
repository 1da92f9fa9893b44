/*
 * interfaces.go, part of gotraj.
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

import v3 "github.com/rmera/gotraj/v3"

// FrameReader is an interface for any sequential source of frames, such as a trajectory file.
type FrameReader interface {

	//Is the trajectory ready to be read?
	Readable() bool

	//Next reads the next frame into output, or discards it if output is nil.
	//If a box slice with at least 6 elements is given, it is filled with the
	//unit cell (3 lengths, 3 angles in degrees) of the frame, or with zeros if the
	//frame has none. At the end of the sequence, Next returns a LastFrameError.
	Next(output *v3.Matrix, box ...[]float64) error

	//Returns the number of atoms per frame
	Len() int
}

// Atomer is the basic interface for a topology.
type Atomer interface {

	//Atom returns the Atom corresponding to the index i
	//of the Atom slice in the Topology. Should panic if
	//out of range.
	Atom(i int) *Atom

	Len() int
}

// Masser can return a slice with the masses of each atom in the reference.
type Masser interface {

	//Returns a slice with the massess of all atoms
	Masses() ([]float64, error)
}

// Selector resolves an atom selection against a topology, returning an ordered list
// of zero-based atom indexes. Selecting zero atoms is an error.
type Selector interface {
	Select(top *Topology) ([]int, error)
}

//Errors

// Decorator is implemented by all the errors in this module. The Decorate method allows to add and retrieve info from the
// error, without changing its type or wrapping it around something else.
type Decorator interface {
	error
	//The decorate slice contains a list of functions in the calling stack. If passed an empty string,
	//it should just return the current value, not add the empty string to the slice.
	Decorate(string) []string
}

// TrajError is the interface for errors in trajectories
type TrajError interface {
	Decorator
	Critical() bool
	FileName() string
	Format() string
}

// LastFrameError has a useless function to distinguish the harmless errors (i.e. last frame) so they can be
// filtered in a typeswitch that looks for this interface.
type LastFrameError interface {
	TrajError
	NormalLastFrameTermination() //does nothing, just to separate this interface from other TrajError's
}
