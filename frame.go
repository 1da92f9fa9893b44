package traj

import (
	"fmt"

	v3 "github.com/rmera/gotraj/v3"
)

// Frame is the coordinates of one frame, plus its unit cell, if any.
// A Frame obtained by indexing a Trajectory with an integer is a live view:
// changes in Coords and Cell are reflected in the Trajectory.
type Frame struct {
	Coords *v3.Matrix
	Cell   []float64 //nil, or 3 lengths and 3 angles in degrees.
	index  int       //index of the frame in its source sequence, or -1.
}

// NewFrame returns a Frame wrapping coords and cell (neither is copied).
func NewFrame(coords *v3.Matrix, cell []float64) *Frame {
	return &Frame{Coords: coords, Cell: cell, index: -1}
}

// Len returns the number of atoms in the frame.
func (F *Frame) Len() int {
	if F == nil || F.Coords == nil {
		return 0
	}
	return F.Coords.NVecs()
}

// Index returns the index of the frame in the sequence it was taken from, or -1 if unknown.
func (F *Frame) Index() int { return F.index }

// HasBox returns true if the frame has a non-degenerate unit cell.
func (F *Frame) HasBox() bool {
	if len(F.Cell) < CellLen {
		return false
	}
	return F.Cell[0] > 0 && F.Cell[1] > 0 && F.Cell[2] > 0
}

// Copy returns a copy of the frame sharing no memory with F.
func (F *Frame) Copy() *Frame {
	ret := &Frame{Coords: F.Coords.Clone(), index: F.index}
	if F.Cell != nil {
		ret.Cell = append([]float64(nil), F.Cell...)
	}
	return ret
}

// Select returns a new frame with copies of the given atoms of F, in that order.
func (F *Frame) Select(atoms []int) (*Frame, error) {
	c := v3.Zeros(len(atoms))
	if err := c.SomeVecsSafe(F.Coords, atoms); err != nil {
		return nil, newError(BoundsError, "Frame.Select", "%s", err.Error())
	}
	ret := &Frame{Coords: c, index: F.index}
	if F.Cell != nil {
		ret.Cell = append([]float64(nil), F.Cell...)
	}
	return ret, nil
}

// Strip returns a new frame without the atoms selected by s in top.
func (F *Frame) Strip(s Selector, top *Topology) (*Frame, error) {
	if top.Len() != F.Len() {
		return nil, newError(ShapeError, "Frame.Strip", "frame has %d atoms, topology %d", F.Len(), top.Len())
	}
	_, keep, err := top.Strip(s)
	if err != nil {
		return nil, errDecorate(err, "Frame.Strip")
	}
	return F.Select(keep)
}

func (F *Frame) String() string {
	return fmt.Sprintf("<Frame %d: %d atoms, box: %v>", F.index, F.Len(), F.HasBox())
}

// frameData returns the backing slice of the frame coordinates, copying them if the
// frame is not contiguous in memory.
func frameData(F *v3.Matrix) []float64 {
	if d := F.RawData(); d != nil {
		return d
	}
	return F.Clone().RawData()
}
