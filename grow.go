package traj

import (
	v3 "github.com/rmera/gotraj/v3"
)

// Append adds frames at the end of T. src can be a *Frame, a *v3.Matrix (one frame),
// a Block, a *Trajectory, a *FrameIterator or any FrameReader. Every frame in src
// must have as many atoms as T. If T keeps unit cells and src has none, zero cells are
// stored for the new frames. If src has cells and T has none, T gets zero cells for its old frames.
// On error, T is left with the frames appended before the error.
func (T *Trajectory) Append(src interface{}) error {
	na := T.NAtoms()
	switch s := src.(type) {
	case *Frame:
		if s.Len() != na {
			return newError(ConfigError, "Trajectory.Append", "frame has %d atoms, trajectory %d", s.Len(), na)
		}
		var cell []float64
		if len(s.Cell) >= CellLen {
			cell = s.Cell[:CellLen]
		}
		T.buf.AppendRows(frameData(s.Coords), cell)
	case *v3.Matrix:
		return errDecorate(T.Append(NewFrame(s, nil)), "Trajectory.Append")
	case Block:
		if err := s.check("Trajectory.Append"); err != nil {
			return err
		}
		if s.Atoms != na {
			return newError(ConfigError, "Trajectory.Append", "block has %d atoms, trajectory %d", s.Atoms, na)
		}
		T.buf.AppendRows(s.Data, nil)
	case *Trajectory:
		if s.NAtoms() != na {
			return newError(ConfigError, "Trajectory.Append", "trajectory has %d atoms, receiver %d", s.NAtoms(), na)
		}
		T.buf.AppendRows(s.buf.Data(), s.buf.Cells())
	case *FrameIterator:
		for {
			f, err := s.Next()
			if IsLastFrame(err) {
				return nil
			}
			if err != nil {
				return errDecorate(err, "Trajectory.Append")
			}
			if err := T.Append(f); err != nil {
				return err
			}
		}
	case FrameReader:
		if s.Len() != na {
			return newError(ConfigError, "Trajectory.Append", "reader has %d atoms, trajectory %d", s.Len(), na)
		}
		for s.Readable() {
			c := v3.Zeros(na)
			box := make([]float64, CellLen)
			err := s.Next(c, box)
			if IsLastFrame(err) {
				return nil
			}
			if err != nil {
				return errDecorate(err, "Trajectory.Append")
			}
			f := NewFrame(c, box)
			if !f.HasBox() {
				f.Cell = nil
			}
			if err := T.Append(f); err != nil {
				return err
			}
		}
	default:
		return newError(ConfigError, "Trajectory.Append", "can't append a %T", src)
	}
	return nil
}

// Join appends the frames of other, which must have the same atoms as T, at the end of T.
// The unit cells are kept only if both trajectories have them. A trajectory with no frames
// takes the cells of other.
func (T *Trajectory) Join(other *Trajectory) error {
	if other.NAtoms() != T.NAtoms() {
		return newError(ConfigError, "Trajectory.Join", "trajectory has %d atoms, receiver %d", other.NAtoms(), T.NAtoms())
	}
	for i, at := range T.top.Atoms {
		if o := other.top.Atoms[i]; o.Name != at.Name || o.MolName != at.MolName {
			return newError(ConfigError, "Trajectory.Join", "topologies differ at atom %d: %s/%s vs %s/%s", i, at.MolName, at.Name, o.MolName, o.Name)
		}
	}
	if T.NFrames() == 0 {
		T.buf = other.buf.Copy()
		return nil
	}
	cells := other.buf.Cells()
	if !T.HasBox() || cells == nil {
		T.buf.DropCells()
		cells = nil
	}
	T.buf.AppendRows(other.buf.Data(), cells)
	return nil
}

// BoxSource decides which unit cells, if any, the result of Merge keeps.
type BoxSource int

const (
	NoBox BoxSource = iota
	BoxFromFirst
	BoxFromSecond
)

// Merge returns a new trajectory whose frames have the atoms of a followed by those of b.
// a and b must have the same number of frames. The topology of the result is the
// ordered union of both topologies. The result has no unit cells unless box
// asks for those of one of the inputs.
func Merge(a, b *Trajectory, box ...BoxSource) (*Trajectory, error) {
	n := a.NFrames()
	if n != b.NFrames() {
		return nil, newError(LengthError, "Merge", "trajectories have %d and %d frames", n, b.NFrames())
	}
	src := NoBox
	if len(box) > 0 {
		src = box[0]
	}
	na, nb := a.NAtoms()*3, b.NAtoms()*3
	buf := NewBuffer(n, a.NAtoms()+b.NAtoms(), false)
	d, ad, bd := buf.Data(), a.buf.Data(), b.buf.Data()
	for i := 0; i < n; i++ {
		row := d[i*(na+nb) : (i+1)*(na+nb)]
		copy(row[:na], ad[i*na:(i+1)*na])
		copy(row[na:], bd[i*nb:(i+1)*nb])
	}
	var cells []float64
	switch src {
	case BoxFromFirst:
		cells = a.buf.Cells()
	case BoxFromSecond:
		cells = b.buf.Cells()
	}
	if cells != nil {
		buf.cells = append([]float64(nil), cells...)
	}
	return &Trajectory{top: a.top.Merge(b.top), buf: buf}, nil
}

// Add returns Merge(T, other), with no unit cells.
func (T *Trajectory) Add(other *Trajectory) (*Trajectory, error) {
	ret, err := Merge(T, other)
	return ret, errDecorate(err, "Trajectory.Add")
}

// FromIterator builds a new trajectory with copies of all the frames it gives.
// The topology is the one of the iterator, so any atom selection it applies is kept.
func FromIterator(it *FrameIterator) (*Trajectory, error) {
	T := NewEmpty(it.Topology())
	if err := T.Append(it); err != nil {
		return nil, errDecorate(err, "FromIterator")
	}
	return T, nil
}
