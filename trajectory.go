/*
 * trajectory.go, part of gotraj.
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

	v3 "github.com/rmera/gotraj/v3"
)

// Trajectory is an in-memory sequence of frames, all with the atoms of one Topology.
// Trajectories built from another by frame slicing with step 1 share its Topology and coordinates.
// Concurrent reads are safe. Concurrent writes to overlapping frames are the caller's problem.
type Trajectory struct {
	top *Topology
	buf *Buffer
}

// New returns a trajectory with the topology top and the coordinates in data,
// which are not copied. cells can be nil, or hold one unit cell per frame.
func New(top *Topology, data Block, cells []float64) (*Trajectory, error) {
	if top.Len() == 0 {
		return nil, newError(StateError, "New", "nil or empty topology")
	}
	if err := data.check("New"); err != nil {
		return nil, err
	}
	if data.Atoms != top.Len() {
		return nil, newError(ShapeError, "New", "coordinates have %d atoms, topology %d", data.Atoms, top.Len())
	}
	if cells != nil && len(cells) != data.Frames*CellLen {
		return nil, newError(LengthError, "New", "%d frames but %d unit cell values (want %d)", data.Frames, len(cells), data.Frames*CellLen)
	}
	buf := bufferFromBlock(data)
	buf.cells = cells
	return &Trajectory{top: top, buf: buf}, nil
}

// NewEmpty returns a trajectory with no frames for the topology top.
func NewEmpty(top *Topology) *Trajectory {
	return &Trajectory{top: top, buf: NewBuffer(0, top.Len(), false)}
}

// Topology returns the topology of the trajectory. It is shared, not copied.
func (T *Trajectory) Topology() *Topology { return T.top }

// SetTopology replaces the topology of T. It must have as many atoms as T.
func (T *Trajectory) SetTopology(top *Topology) error {
	if top.Len() != T.NAtoms() {
		return newError(ShapeError, "Trajectory.SetTopology", "topology has %d atoms, trajectory %d", top.Len(), T.NAtoms())
	}
	T.top = top
	return nil
}

// NAtoms returns the number of atoms per frame.
func (T *Trajectory) NAtoms() int { return T.top.Len() }

// NFrames returns the number of frames.
func (T *Trajectory) NFrames() int { return T.buf.NFrames() }

// Len returns the number of frames. It allows a Trajectory to be used where
// a frame count is needed.
func (T *Trajectory) Len() int { return T.NFrames() }

// HasBox returns true if the trajectory stores unit cells.
func (T *Trajectory) HasBox() bool { return T.buf.HasCells() }

// Coords returns the coordinates of the trajectory as a Block sharing memory with it.
func (T *Trajectory) Coords() Block {
	return Block{Frames: T.NFrames(), Atoms: T.NAtoms(), Data: T.buf.Data()}
}

// Cells returns the unit cells, 6 values per frame, sharing memory with T. It is nil if
// the trajectory has no unit cells.
func (T *Trajectory) Cells() []float64 { return T.buf.Cells() }

// SetCells replaces the unit cells of T. cells must be nil or hold 6 values per frame.
// A single cell is used for every frame.
func (T *Trajectory) SetCells(cells []float64) error {
	n := T.NFrames()
	switch {
	case cells == nil:
		T.buf.DropCells()
	case len(cells) == CellLen && n != 1:
		all := make([]float64, n*CellLen)
		for i := 0; i < n; i++ {
			copy(all[i*CellLen:], cells)
		}
		T.buf.cells = all
	case len(cells) == n*CellLen:
		T.buf.cells = cells
	default:
		return newError(LengthError, "Trajectory.SetCells", "%d frames but %d unit cell values", n, len(cells))
	}
	return nil
}

// Buffer returns the buffer backing T.
func (T *Trajectory) Buffer() *Buffer { return T.buf }

// Frame returns a live view of the ith frame. Negative indexes count from the end.
func (T *Trajectory) Frame(i int) (*Frame, error) {
	n := T.NFrames()
	if n == 0 {
		return nil, newError(BoundsError, "Trajectory.Frame", "index %d on an empty trajectory", i)
	}
	j := i
	if j < 0 {
		j += n
	}
	if j < 0 || j >= n {
		return nil, newError(BoundsError, "Trajectory.Frame", "frame %d out of range for %d frames", i, n)
	}
	return &Frame{Coords: T.buf.Row(j), Cell: T.buf.CellRow(j), index: j}, nil
}

// Copy returns a deep copy of the trajectory's coordinates and cells. The topology is shared.
func (T *Trajectory) Copy() *Trajectory {
	return &Trajectory{top: T.top, buf: T.buf.Copy()}
}

// Reverse returns a copy of T with the frames in reverse order.
func (T *Trajectory) Reverse() *Trajectory {
	n := T.NFrames()
	ind := make([]int, n)
	for i := range ind {
		ind[i] = n - 1 - i
	}
	return &Trajectory{top: T.top, buf: T.buf.Gather(ind)}
}

// Strip removes, in place, the atoms selected by s from every frame and from the topology.
func (T *Trajectory) Strip(s Selector) error {
	top, keep, err := T.top.Strip(s)
	if err != nil {
		return errDecorate(err, "Trajectory.Strip")
	}
	T.buf = T.buf.GatherAtoms(keep)
	T.top = top
	return nil
}

// Apply calls f on a live view of each frame, in order. It stops at the first error.
func (T *Trajectory) Apply(f func(*Frame) error) error {
	for i := 0; i < T.NFrames(); i++ {
		fr, _ := T.Frame(i)
		if err := f(fr); err != nil {
			return errDecorate(err, "Trajectory.Apply")
		}
	}
	return nil
}

// Reader returns a FrameReader that gives copies of the frames of T, in order.
func (T *Trajectory) Reader() FrameReader {
	return &trajReader{t: T}
}

type trajReader struct {
	t   *Trajectory
	cur int
}

func (R *trajReader) Readable() bool { return R.cur < R.t.NFrames() }

func (R *trajReader) Len() int { return R.t.NAtoms() }

func (R *trajReader) Next(output *v3.Matrix, box ...[]float64) error {
	if R.cur >= R.t.NFrames() {
		return newlastFrameError("trajReader.Next")
	}
	if output != nil {
		output.Copy(R.t.buf.Row(R.cur).Dense)
	}
	if len(box) > 0 && len(box[0]) >= CellLen {
		if c := R.t.buf.CellRow(R.cur); c != nil {
			copy(box[0], c)
		} else {
			copy(box[0], make([]float64, CellLen))
		}
	}
	R.cur++
	return nil
}

// EstimatedGB returns the memory taken by the coordinates, in GiB.
func (T *Trajectory) EstimatedGB() float64 {
	return float64(T.NFrames()*T.NAtoms()*3*8) / (1024 * 1024 * 1024)
}

func (T *Trajectory) String() string {
	return fmt.Sprintf("<Trajectory: %d frames, %d atoms, box: %v>", T.NFrames(), T.NAtoms(), T.HasBox())
}
