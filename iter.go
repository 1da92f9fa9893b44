package traj

// IndexSource gives the frame indexes a FrameIterator visits. It is one of Range,
// IndexList or IndexFunc.
type IndexSource interface {
	// indexes returns a function giving the next index (false when there are no more),
	// and the number of indexes it will give, or -1 if unknown. n is the number of frames
	// in the trajectory.
	indexes(n int) (func() (int, bool), int)
}

// IndexList is an explicit list of frame indexes, visited in the given order, repeats included.
// Negative values count from the end.
type IndexList []int

// IndexFunc gives frame indexes until it returns false. The number of frames it gives
// is not known in advance.
type IndexFunc func() (int, bool)

func (R Range) indexes(n int) (func() (int, bool), int) {
	return IndexList(R.Indices(n)).indexes(n)
}

func (L IndexList) indexes(n int) (func() (int, bool), int) {
	i := 0
	next := func() (int, bool) {
		if i >= len(L) {
			return 0, false
		}
		i++
		return L[i-1], true
	}
	return next, len(L)
}

func (F IndexFunc) indexes(n int) (func() (int, bool), int) {
	return F, -1
}

// IterOptions are the options for a FrameIterator.
type IterOptions struct {
	//Frames to visit. nil means every frame.
	Frames IndexSource
	//Mask, if not nil, restricts the frames given to the selected atoms. It is applied
	//after every other stage.
	Mask Selector
	//Autoimage wraps the molecules into the primary cell before anything else.
	Autoimage bool
	//Fit, if not nil, superimposes each frame onto a reference after autoimaging.
	Fit *Superpose
	//Stages are applied, in order, after the fit and before the mask.
	Stages []Stage
	//Copy makes the iterator give copies of the frames. Otherwise, the geometric
	//stages change the frames of the trajectory in place.
	Copy bool
}

// DefaultIterOptions returns options to visit every frame, giving live views, with no transformations.
func DefaultIterOptions() *IterOptions {
	return &IterOptions{Frames: All()}
}

// stages returns the ordered stage list for the options.
func (o *IterOptions) stages() []Stage {
	var ret []Stage
	if o.Autoimage {
		ret = append(ret, Autoimage{})
	}
	if o.Fit != nil {
		ret = append(ret, *o.Fit)
	}
	ret = append(ret, o.Stages...)
	return ret
}

// FrameIterator gives, one at a time, the frames of a trajectory, transformed by an ordered
// list of stages fixed at construction. It is single-pass: to iterate again, build a new one.
// It is not safe for concurrent use.
type FrameIterator struct {
	src     *Trajectory
	next    func() (int, bool)
	nframes int
	p       *pipeline
	copy    bool
	given   int
	rmsd    float64
	err     error //once set, every call to Next returns it.
}

// IterFrame returns an iterator over the frames of T. A nil o means DefaultIterOptions().
// Every selection is resolved, and the fit reference captured, before this returns.
// A reference index that doesn't exist is an error here, not on the first frame.
func (T *Trajectory) IterFrame(o *IterOptions) (*FrameIterator, error) {
	if o == nil {
		o = DefaultIterOptions()
	}
	frames := o.Frames
	if frames == nil {
		frames = All()
	}
	n := T.NFrames()
	next, count := frames.indexes(n)
	if list, ok := frames.(IndexList); ok {
		for k, v := range list {
			if v >= n || v < -n {
				return nil, newError(BoundsError, "Trajectory.IterFrame", "frame %d (position %d) out of range for %d frames", v, k, n)
			}
		}
	}
	stages := o.stages()
	if o.Mask != nil {
		//resolved first, so a bad mask fails before anything else is done.
		ind, err := T.top.Select(o.Mask)
		if err != nil {
			return nil, errDecorate(err, "Trajectory.IterFrame")
		}
		stages = append(stages, Select{Mask: AtomIndices(ind)})
	}
	it := &FrameIterator{src: T, next: next, nframes: count, copy: o.Copy}
	for i, s := range stages {
		if sp, ok := s.(Superpose); ok {
			sp.rmsd = &it.rmsd
			stages[i] = sp
		}
	}
	p, err := buildPipeline(stages, T.top, T)
	if err != nil {
		return nil, errDecorate(err, "Trajectory.IterFrame")
	}
	it.p = p
	return it, nil
}

// Next returns the next frame. When there are no more frames, it returns a LastFrameError.
// After any error, the iterator is finished, and Next keeps returning the same error.
func (F *FrameIterator) Next() (*Frame, error) {
	if F.err != nil {
		return nil, F.err
	}
	i, ok := F.next()
	if !ok {
		F.err = newlastFrameError("FrameIterator.Next")
		return nil, F.err
	}
	fr, err := F.src.Frame(i)
	if err != nil {
		F.err = errDecorate(err, "FrameIterator.Next")
		return nil, F.err
	}
	if F.copy {
		fr = fr.Copy()
	}
	fr, err = F.p.run(fr)
	if err != nil {
		F.err = errDecorate(err, "FrameIterator.Next")
		return nil, F.err
	}
	F.given++
	return fr, nil
}

// NFrames returns the number of frames the iterator gives in total, or -1 if unknown.
func (F *FrameIterator) NFrames() int { return F.nframes }

// Given returns the number of frames given so far.
func (F *FrameIterator) Given() int { return F.given }

// NAtoms returns the number of atoms in the frames the iterator gives.
func (F *FrameIterator) NAtoms() int { return F.p.top.Len() }

// Topology returns the topology of the frames the iterator gives.
func (F *FrameIterator) Topology() *Topology { return F.p.top }

// RMSD returns the RMSD, after fitting, of the last frame given, if the iterator fits frames.
func (F *FrameIterator) RMSD() float64 { return F.rmsd }

// Each calls f with every remaining frame, stopping at the first error.
func (F *FrameIterator) Each(f func(*Frame) error) error {
	for {
		fr, err := F.Next()
		if IsLastFrame(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := f(fr); err != nil {
			return err
		}
	}
}

// Transform applies stages, in order and in place, to the frames of T (all if frames is nil).
// Stages that reduce the atom set are not allowed.
func (T *Trajectory) Transform(stages []Stage, frames IndexSource) error {
	for i, s := range stages {
		if s != nil && s.Effect() == TopologyReducing {
			return newError(ConfigError, "Trajectory.Transform", "stage %d (%T) would change the atom set in place; use Strip", i, s)
		}
	}
	it, err := T.IterFrame(&IterOptions{Frames: frames, Stages: stages})
	if err != nil {
		return errDecorate(err, "Trajectory.Transform")
	}
	return errDecorate(it.Each(func(*Frame) error { return nil }), "Trajectory.Transform")
}

// Superpose fits, in place, the frames of T (all if frames is nil) onto the reference
// given by s, and returns the RMSD of each fitted frame.
func (T *Trajectory) Superpose(s Superpose, frames IndexSource) ([]float64, error) {
	it, err := T.IterFrame(&IterOptions{Frames: frames, Fit: &s})
	if err != nil {
		return nil, errDecorate(err, "Trajectory.Superpose")
	}
	var ret []float64
	err = it.Each(func(*Frame) error {
		ret = append(ret, it.RMSD())
		return nil
	})
	return ret, errDecorate(err, "Trajectory.Superpose")
}

// Autoimage wraps, in place, the molecules of every frame into the primary cell.
func (T *Trajectory) Autoimage(a Autoimage) error {
	return errDecorate(T.Transform([]Stage{a}, nil), "Trajectory.Autoimage")
}

// Translate moves, in place, the atoms selected by mask (all if nil) in every frame by v.
func (T *Trajectory) Translate(v [3]float64, mask Selector) error {
	return errDecorate(T.Transform([]Stage{Translate{Vector: v, Mask: mask}}, nil), "Trajectory.Translate")
}

// Rotate rotates, in place, the atoms selected by mask (all if nil) in every frame.
// See the Rotate stage.
func (T *Trajectory) Rotate(angles [3]float64, mask Selector) error {
	return errDecorate(T.Transform([]Stage{Rotate{Angles: angles, Mask: mask}}, nil), "Trajectory.Rotate")
}

// Scale scales, in place, the atoms selected by mask (all if nil) in every frame.
func (T *Trajectory) Scale(factors [3]float64, mask Selector) error {
	return errDecorate(T.Transform([]Stage{Scale{Factors: factors, Mask: mask}}, nil), "Trajectory.Scale")
}

// Center centers, in place, every frame. See the Center stage.
func (T *Trajectory) Center(c Center) error {
	return errDecorate(T.Transform([]Stage{c}, nil), "Trajectory.Center")
}

// AlignPrincipalAxis aligns, in place, the principal axes of every frame with x, y and z.
func (T *Trajectory) AlignPrincipalAxis(mass bool) error {
	return errDecorate(T.Transform([]Stage{PrincipalAxes{Mass: mass}}, nil), "Trajectory.AlignPrincipalAxis")
}
