package traj

import (
	"math"

	v3 "github.com/rmera/gotraj/v3"
)

// Index is an indexing expression for a Trajectory. The kind of index decides whether
// the result shares memory with the Trajectory:
//
//	Int          one frame, live view
//	Range        step 1: view of the frames (and unit cells); any other step: copy
//	Frames       explicit frame list: copy
//	Mask         atom selection over every frame: copy
//	AtomIndices  as Mask
//	Pair         frames first, then atoms: always a copy
type Index interface {
	index()
}

// Int selects one frame. Negative values count from the end.
type Int int

// Frames selects the given frames, in the given order. Negative values count from the end.
type Frames []int

// Pair selects frames and then atoms within them.
type Pair struct {
	Frames Index //Int, Range or Frames
	Atoms  Selector
}

const (
	// End, as Range.Stop, means "up to the last frame". As Range.Start with a negative
	// step, it means "from the last frame".
	End = math.MaxInt
	// Rend, as Range.Stop with a negative step, means "down to the first frame, included".
	Rend = math.MinInt
)

// Range selects frames with Python slice rules: negative Start and Stop count
// from the end, out of range values are clamped, and a Step of 0 means 1.
type Range struct {
	Start int
	Stop  int
	Step  int
}

// All is the Range selecting every frame.
func All() Range { return Range{0, End, 1} }

func (Int) index()         {}
func (Frames) index()      {}
func (Pair) index()        {}
func (Range) index()       {}
func (Mask) index()        {}
func (AtomIndices) index() {}

// Indices returns the frame indexes selected by R in a sequence of n frames.
func (R Range) Indices(n int) []int {
	start, stop, step := R.bounds(n)
	var ret []int
	if step > 0 {
		for i := start; i < stop; i += step {
			ret = append(ret, i)
		}
		return ret
	}
	for i := start; i > stop; i += step {
		ret = append(ret, i)
	}
	return ret
}

// Len returns the number of frames R selects in a sequence of n frames.
func (R Range) Len(n int) int {
	start, stop, step := R.bounds(n)
	switch {
	case step > 0 && stop > start:
		return (stop - start + step - 1) / step
	case step < 0 && start > stop:
		return (start - stop - step - 1) / (-step)
	}
	return 0
}

func (R Range) bounds(n int) (int, int, int) {
	step := R.Step
	if step == 0 {
		step = 1
	}
	lower, upper := 0, n
	if step < 0 {
		lower, upper = -1, n-1
	}
	clamp := func(v int) int {
		if v < 0 {
			if v == Rend {
				return lower
			}
			v += n
			if v < lower {
				v = lower
			}
			return v
		}
		if v > upper {
			return upper
		}
		return v
	}
	return clamp(R.Start), clamp(R.Stop), step
}

// Selection is the result of indexing a Trajectory. Exactly one of Frame
// and Traj is not nil. Shared is true if the result aliases the memory of the Trajectory.
type Selection struct {
	Frame  *Frame
	Traj   *Trajectory
	Shared bool
}

// Get indexes T with idx.
func (T *Trajectory) Get(idx Index) (Selection, error) {
	n := T.NFrames()
	if n == 0 {
		return Selection{}, newError(BoundsError, "Trajectory.Get", "indexing an empty trajectory with %v", idx)
	}
	switch I := idx.(type) {
	case Int:
		f, err := T.Frame(int(I))
		if err != nil {
			return Selection{}, errDecorate(err, "Trajectory.Get")
		}
		return Selection{Frame: f, Shared: true}, nil
	case Range:
		return T.getRange(I), nil
	case Frames:
		ind, err := T.frameList(I)
		if err != nil {
			return Selection{}, err
		}
		return Selection{Traj: &Trajectory{top: T.top, buf: T.buf.Gather(ind)}}, nil
	case Mask:
		t, err := T.selectAtoms(I)
		return Selection{Traj: t}, err
	case AtomIndices:
		t, err := T.selectAtoms(I)
		return Selection{Traj: t}, err
	case Pair:
		return T.getPair(I)
	default:
		return Selection{}, newError(ConfigError, "Trajectory.Get", "unsupported index %T", idx)
	}
}

func (T *Trajectory) getRange(R Range) Selection {
	n := T.NFrames()
	start, _, step := R.bounds(n)
	l := R.Len(n)
	if step == 1 {
		return Selection{Traj: &Trajectory{top: T.top, buf: T.buf.View(start, start+l)}, Shared: true}
	}
	return Selection{Traj: &Trajectory{top: T.top, buf: T.buf.Gather(R.Indices(n))}}
}

func (T *Trajectory) frameList(F Frames) ([]int, error) {
	n := T.NFrames()
	ind := make([]int, len(F))
	for k, v := range F {
		j := v
		if j < 0 {
			j += n
		}
		if j < 0 || j >= n {
			return nil, newError(BoundsError, "Trajectory.Get", "frame %d (position %d) out of range for %d frames", v, k, n)
		}
		ind[k] = j
	}
	return ind, nil
}

// selectAtoms returns a new trajectory with copies of the atoms selected by s, in the
// order s resolves them, for every frame.
func (T *Trajectory) selectAtoms(s Selector) (*Trajectory, error) {
	ind, err := T.top.Select(s)
	if err != nil {
		return nil, errDecorate(err, "Trajectory.Get")
	}
	top, err := T.top.SomeAtoms(ind)
	if err != nil {
		return nil, errDecorate(err, "Trajectory.Get")
	}
	return &Trajectory{top: top, buf: T.buf.GatherAtoms(ind)}, nil
}

func (T *Trajectory) getPair(P Pair) (Selection, error) {
	if P.Atoms == nil {
		return Selection{}, newError(ConfigError, "Trajectory.Get", "pair index without an atom selection")
	}
	if _, ok := P.Frames.(Pair); ok {
		return Selection{}, newError(ConfigError, "Trajectory.Get", "nested pair index")
	}
	first, err := T.Get(P.Frames)
	if err != nil {
		return Selection{}, errDecorate(err, "Trajectory.Get")
	}
	if first.Frame != nil {
		ind, err := T.top.Select(P.Atoms)
		if err != nil {
			return Selection{}, errDecorate(err, "Trajectory.Get")
		}
		f, err := first.Frame.Select(ind)
		return Selection{Frame: f}, err
	}
	t, err := first.Traj.selectAtoms(P.Atoms)
	return Selection{Traj: t}, err
}

// SetFrame copies coords into frame i, in place.
func (T *Trajectory) SetFrame(i int, coords *v3.Matrix) error {
	if T.NFrames() == 0 {
		return newError(StateError, "Trajectory.SetFrame", "assigning frame %d to an empty trajectory", i)
	}
	f, err := T.Frame(i)
	if err != nil {
		return errDecorate(err, "Trajectory.SetFrame")
	}
	if coords.NVecs() != T.NAtoms() {
		return newError(ShapeError, "Trajectory.SetFrame", "frame has %d atoms, trajectory %d", coords.NVecs(), T.NAtoms())
	}
	f.Coords.Copy(coords.Dense)
	return nil
}

// SetAll replaces every coordinate of T with those in b, which must have T's shape.
func (T *Trajectory) SetAll(b Block) error {
	if T.NFrames() == 0 {
		return newError(StateError, "Trajectory.SetAll", "assigning to an empty trajectory")
	}
	if err := b.check("Trajectory.SetAll"); err != nil {
		return err
	}
	if b.Frames != T.NFrames() || b.Atoms != T.NAtoms() {
		return newError(ShapeError, "Trajectory.SetAll", "block is (%d, %d, 3), trajectory (%d, %d, 3)", b.Frames, b.Atoms, T.NFrames(), T.NAtoms())
	}
	copy(T.buf.Data(), b.Data)
	return nil
}

// SetMask copies the atoms of src into the atoms of T selected by s, for every frame.
// The ith atom of src goes to the ith selected atom. src must have either one frame, which is
// used for every frame of T, or as many frames as T.
func (T *Trajectory) SetMask(s Selector, src *Trajectory) error {
	return T.SetMaskBlock(s, src.Coords())
}

// SetMaskBlock is like SetMask, taking the coordinates from a raw block.
func (T *Trajectory) SetMaskBlock(s Selector, b Block) error {
	n := T.NFrames()
	if n == 0 {
		return newError(StateError, "Trajectory.SetMask", "assigning to an empty trajectory")
	}
	if err := b.check("Trajectory.SetMask"); err != nil {
		return err
	}
	ind, err := T.top.Select(s)
	if err != nil {
		return errDecorate(err, "Trajectory.SetMask")
	}
	if b.Atoms != len(ind) {
		return newError(ShapeError, "Trajectory.SetMask", "source has %d atoms but the selection %v has %d", b.Atoms, s, len(ind))
	}
	if b.Frames != n && b.Frames != 1 {
		return newError(LengthError, "Trajectory.SetMask", "source has %d frames, trajectory %d", b.Frames, n)
	}
	l := b.Atoms * 3
	for f := 0; f < n; f++ {
		src := b.Data[:l]
		if b.Frames > 1 {
			src = b.Data[f*l : (f+1)*l]
		}
		T.buf.ScatterAtoms(f, ind, src)
	}
	return nil
}
