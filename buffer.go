package traj

import (
	v3 "github.com/rmera/gotraj/v3"
)

// CellLen is the number of values describing a unit cell: the 3 box lengths
// followed by the 3 angles, in degrees.
const CellLen = 6

// Block is a raw (Frames, Atoms, 3) array of coordinates, frame-major, atom-second,
// with x, y, z innermost.
type Block struct {
	Frames int
	Atoms  int
	Data   []float64
}

// NewBlock returns a zero-filled Block.
func NewBlock(frames, atoms int) Block {
	return Block{Frames: frames, Atoms: atoms, Data: make([]float64, frames*atoms*3)}
}

func (B Block) check(caller string) error {
	if B.Frames < 0 || B.Atoms <= 0 || len(B.Data) != B.Frames*B.Atoms*3 {
		return newError(ShapeError, caller, "block declares (%d, %d, 3) but holds %d values", B.Frames, B.Atoms, len(B.Data))
	}
	return nil
}

// Frame returns a view of the ith frame of the block.
func (B Block) Frame(i int) *v3.Matrix {
	l := B.Atoms * 3
	m, err := v3.NewMatrix(B.Data[i*l : (i+1)*l : (i+1)*l])
	if err != nil {
		panic(err)
	}
	return m
}

// Buffer owns the coordinates of a trajectory as one dense slice, and, optionally,
// one unit cell per frame.
type Buffer struct {
	natoms int
	xyz    []float64
	cells  []float64 //nil if there are no unit cells.
}

// NewBuffer returns a buffer for nframes frames of natoms atoms, zero-filled.
func NewBuffer(nframes, natoms int, withcells bool) *Buffer {
	B := &Buffer{natoms: natoms, xyz: make([]float64, nframes*natoms*3)}
	if withcells {
		B.cells = make([]float64, nframes*CellLen)
	}
	return B
}

// NAtoms returns the number of atoms per frame.
func (B *Buffer) NAtoms() int { return B.natoms }

// NFrames returns the number of frames in the buffer.
func (B *Buffer) NFrames() int {
	if B == nil || B.natoms == 0 {
		return 0
	}
	return len(B.xyz) / (B.natoms * 3)
}

// HasCells returns true if the buffer stores unit cells.
func (B *Buffer) HasCells() bool { return B.cells != nil }

func (B *Buffer) stride() int { return B.natoms * 3 }

// Row returns a live view of the coordinates of frame i.
func (B *Buffer) Row(i int) *v3.Matrix {
	s := B.stride()
	m, err := v3.NewMatrix(B.xyz[i*s : (i+1)*s : (i+1)*s])
	if err != nil {
		panic(err)
	}
	return m
}

// CellRow returns a live view of the unit cell of frame i, or nil if the buffer has no cells.
func (B *Buffer) CellRow(i int) []float64 {
	if B.cells == nil {
		return nil
	}
	return B.cells[i*CellLen : (i+1)*CellLen : (i+1)*CellLen]
}

// View returns a buffer sharing memory with B for the frames [lo, hi).
// Appending to the view reallocates, so it never writes over the frames of B.
func (B *Buffer) View(lo, hi int) *Buffer {
	s := B.stride()
	ret := &Buffer{natoms: B.natoms, xyz: B.xyz[lo*s : hi*s : hi*s]}
	if B.cells != nil {
		ret.cells = B.cells[lo*CellLen : hi*CellLen : hi*CellLen]
	}
	return ret
}

// Gather returns a new buffer with copies of the given frames, in the given order.
func (B *Buffer) Gather(frames []int) *Buffer {
	s := B.stride()
	ret := NewBuffer(len(frames), B.natoms, B.cells != nil)
	for k, f := range frames {
		copy(ret.xyz[k*s:(k+1)*s], B.xyz[f*s:(f+1)*s])
		if B.cells != nil {
			copy(ret.cells[k*CellLen:(k+1)*CellLen], B.CellRow(f))
		}
	}
	return ret
}

// GatherAtoms returns a new buffer with copies of the given atoms, in the given order, for every frame.
func (B *Buffer) GatherAtoms(atoms []int) *Buffer {
	nf := B.NFrames()
	ret := NewBuffer(nf, len(atoms), B.cells != nil)
	s, ns := B.stride(), len(atoms)*3
	for f := 0; f < nf; f++ {
		src := B.xyz[f*s : (f+1)*s]
		dst := ret.xyz[f*ns : (f+1)*ns]
		for k, a := range atoms {
			copy(dst[k*3:k*3+3], src[a*3:a*3+3])
		}
	}
	if B.cells != nil {
		copy(ret.cells, B.cells)
	}
	return ret
}

// ScatterAtoms writes the atoms of the frame src into the positions atoms of frame f.
func (B *Buffer) ScatterAtoms(f int, atoms []int, src []float64) {
	dst := B.xyz[f*B.stride() : (f+1)*B.stride()]
	for k, a := range atoms {
		copy(dst[a*3:a*3+3], src[k*3:k*3+3])
	}
}

// AppendRows appends the coordinates in xyz, which must hold whole frames, and their cells.
// If cells is nil and the buffer has unit cells, zero cells are added. If the buffer
// has no cells but cells is given, zero cells are first synthesized for the existing frames.
func (B *Buffer) AppendRows(xyz []float64, cells []float64) {
	n := len(xyz) / B.stride()
	old := B.NFrames()
	if cells != nil && B.cells == nil {
		B.cells = make([]float64, old*CellLen, (old+n)*CellLen)
	}
	B.xyz = append(B.xyz, xyz...)
	if B.cells == nil {
		return
	}
	if cells == nil {
		cells = make([]float64, n*CellLen)
	}
	B.cells = append(B.cells, cells...)
}

// Copy returns a deep copy of the buffer.
func (B *Buffer) Copy() *Buffer {
	ret := &Buffer{natoms: B.natoms, xyz: append([]float64(nil), B.xyz...)}
	if B.cells != nil {
		ret.cells = append([]float64(nil), B.cells...)
	}
	return ret
}

// Data returns the coordinate slice of the buffer. It is not a copy.
func (B *Buffer) Data() []float64 { return B.xyz }

// Cells returns the unit cell slice of the buffer, or nil. It is not a copy.
func (B *Buffer) Cells() []float64 { return B.cells }

// DropCells removes the unit cells of the buffer.
func (B *Buffer) DropCells() { B.cells = nil }

// bufferFromBlock builds a buffer that shares memory with the block.
func bufferFromBlock(b Block) *Buffer {
	return &Buffer{natoms: b.Atoms, xyz: b.Data}
}
