package traj

import (
	"fmt"
	"runtime"
	"sort"

	v3 "github.com/rmera/gotraj/v3"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Span is the contiguous range of positions [Lo, Hi) assigned to the worker Rank.
type Span struct {
	Rank int
	Lo   int
	Hi   int
}

// Len returns the number of positions in the span.
func (S Span) Len() int { return S.Hi - S.Lo }

// Split divides n positions into k contiguous, ordered, non-overlapping spans covering [0, n).
// The first n mod k spans get one position more than the rest.
func Split(n, k int) ([]Span, error) {
	if k < 1 {
		return nil, newError(ConfigError, "Split", "%d workers requested, need at least 1", k)
	}
	if n < 0 {
		return nil, newError(LengthError, "Split", "can't split %d frames", n)
	}
	ret := make([]Span, k)
	base, extra := n/k, n%k
	lo := 0
	for i := range ret {
		size := base
		if i < extra {
			size++
		}
		ret[i] = Span{Rank: i, Lo: lo, Hi: lo + size}
		lo += size
	}
	return ret, nil
}

// Capability describes how an analysis can be run in parallel.
type Capability struct {
	//Partition is true if the analysis gives correct results when run independently over
	//contiguous pieces of the frames, and concatenated.
	Partition bool
	//NativeConcurrency is true if the analysis runs concurrently by itself.
	NativeConcurrency bool
}

// Analysis is a computation over the frames given by an iterator.
type Analysis[T any] struct {
	Name string
	Cap  Capability
	Func func(it *FrameIterator) (T, error)
}

// Partial is the result of one worker.
type Partial[T any] struct {
	Rank    int
	NFrames int //number of frames the worker was given.
	Data    T
}

// PMapOptions controls PMap.
type PMapOptions struct {
	//Workers is the number of workers. 0 or less means runtime.NumCPU().
	Workers int
	//Iter are the options for each worker's iterator. Frames must have a known length.
	//If Iter.Fit uses a reference index, the frame is taken once, before the split, and every
	//worker gets a copy of it.
	Iter *IterOptions
	//AllowNested allows running in parallel analyses that are concurrent themselves.
	AllowNested bool
}

// DefaultPMapOptions returns options for one worker per CPU over every frame.
func DefaultPMapOptions() *PMapOptions {
	return &PMapOptions{Workers: runtime.NumCPU(), Iter: DefaultIterOptions()}
}

// PMap splits the frames selected by o.Iter among o.Workers workers, each running a over its
// own copy of its frames. The results are returned sorted by rank. If any worker fails,
// PMap fails: the others are allowed to finish, but their results are discarded.
func PMap[T any](t *Trajectory, a Analysis[T], o *PMapOptions) ([]Partial[T], error) {
	if o == nil {
		o = DefaultPMapOptions()
	}
	if !a.Cap.Partition {
		return nil, newError(ConfigError, "PMap", "analysis %q can't be partitioned", a.Name)
	}
	if a.Cap.NativeConcurrency && !o.AllowNested {
		return nil, newError(ConfigError, "PMap", "analysis %q is already concurrent; set AllowNested to run it in parallel anyway", a.Name)
	}
	iopts := o.Iter
	if iopts == nil {
		iopts = DefaultIterOptions()
	}
	indexes, err := t.resolveFrames(iopts.Frames)
	if err != nil {
		return nil, errDecorate(err, "PMap")
	}
	var fit *Superpose
	if iopts.Fit != nil {
		f := *iopts.Fit
		ref, err := f.reference(t)
		if err != nil {
			return nil, errDecorate(err, "PMap")
		}
		f.Ref = ref
		fit = &f
	}
	stages, err := stageReferences(t, iopts.Stages)
	if err != nil {
		return nil, errDecorate(err, "PMap")
	}
	k := o.Workers
	if k <= 0 {
		k = runtime.NumCPU()
	}
	spans, err := Split(len(indexes), k)
	if err != nil {
		return nil, errDecorate(err, "PMap")
	}
	results := make([]Partial[T], k)
	var g errgroup.Group
	for _, s := range spans {
		s := s
		//each worker owns a copy of its frames.
		local := &Trajectory{top: t.top, buf: t.buf.Gather(indexes[s.Lo:s.Hi])}
		wopts := *iopts
		wopts.Frames = All()
		if fit != nil {
			f := *fit
			f.Ref = fit.Ref.Copy()
			wopts.Fit = &f
		}
		wopts.Stages = copyReferences(stages)
		g.Go(func() error {
			it, err := local.IterFrame(&wopts)
			if err != nil {
				return fmt.Errorf("worker %d: %w", s.Rank, errDecorate(err, "PMap"))
			}
			data, err := a.Func(it)
			if err != nil {
				return fmt.Errorf("worker %d: %w", s.Rank, errDecorate(err, "PMap"))
			}
			results[s.Rank] = Partial[T]{Rank: s.Rank, NFrames: s.Len(), Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// stageReferences returns a copy of stages where every Superpose stage with an index as
// reference has, instead, the frame with that index in src.
func stageReferences(src *Trajectory, stages []Stage) ([]Stage, error) {
	if stages == nil {
		return nil, nil
	}
	ret := make([]Stage, len(stages))
	for i, st := range stages {
		var sp Superpose
		switch v := st.(type) {
		case Superpose:
			sp = v
		case *Superpose:
			sp = *v
		default:
			ret[i] = st
			continue
		}
		ref, err := sp.reference(src)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		sp.Ref = ref
		ret[i] = sp
	}
	return ret, nil
}

// copyReferences returns a copy of stages where each reference frame is a copy of
// the original.
func copyReferences(stages []Stage) []Stage {
	if stages == nil {
		return nil
	}
	ret := make([]Stage, len(stages))
	for i, st := range stages {
		if sp, ok := st.(Superpose); ok {
			sp.Ref = sp.Ref.Copy()
			st = sp
		}
		ret[i] = st
	}
	return ret
}

// resolveFrames returns the frame indexes selected by frames, which must have a known length.
func (T *Trajectory) resolveFrames(frames IndexSource) ([]int, error) {
	if frames == nil {
		frames = All()
	}
	n := T.NFrames()
	next, count := frames.indexes(n)
	if count < 0 {
		return nil, newError(LengthError, "resolveFrames", "the number of frames must be known in advance to split them")
	}
	ret := make([]int, 0, count)
	for i, ok := next(); ok; i, ok = next() {
		j := i
		if j < 0 {
			j += n
		}
		if j < 0 || j >= n {
			return nil, newError(BoundsError, "resolveFrames", "frame %d out of range for %d frames", i, n)
		}
		ret = append(ret, j)
	}
	return ret, nil
}

// Gather concatenates, in rank order, the per-frame results of the workers. Every rank from
// 0 to len(parts)-1 must be present exactly once, and each must have one value per frame.
func Gather[E any](parts []Partial[[]E]) ([]E, error) {
	sorted := append([]Partial[[]E](nil), parts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })
	var ret []E
	for i, p := range sorted {
		if p.Rank != i {
			return nil, newError(LengthError, "Gather", "expected the result of worker %d, got worker %d", i, p.Rank)
		}
		if len(p.Data) != p.NFrames {
			return nil, newError(LengthError, "Gather", "worker %d got %d frames but gave %d values", p.Rank, p.NFrames, len(p.Data))
		}
		ret = append(ret, p.Data...)
	}
	return ret, nil
}

// Serial runs a over the frames of t, in one goroutine, with the options o.
func Serial[T any](t *Trajectory, a Analysis[T], o *IterOptions) (T, error) {
	var zero T
	it, err := t.IterFrame(o)
	if err != nil {
		return zero, errDecorate(err, "Serial")
	}
	ret, err := a.Func(it)
	if err != nil {
		return zero, errDecorate(err, "Serial")
	}
	return ret, nil
}

// RMSDAnalysis returns an analysis giving, for each frame, its RMSD to ref over the atoms in
// mask (all if nil) after the best superposition. The frames are not modified. ref is used
// as given, so it must be a materialized frame, not an index.
func RMSDAnalysis(ref *Frame, mask Selector) Analysis[[]float64] {
	f := func(it *FrameIterator) ([]float64, error) {
		ind, err := selectIndexes(mask, it.Topology())
		if err != nil {
			return nil, err
		}
		var ret []float64
		err = it.Each(func(fr *Frame) error {
			s, err := RotatorTranslatorToSuper(fr.Coords, ref.Coords, ind, nil)
			if err != nil {
				return err
			}
			ret = append(ret, s.RMSD)
			return nil
		})
		return ret, err
	}
	return Analysis[[]float64]{Name: "rmsd", Cap: Capability{Partition: true}, Func: f}
}

// coordSum is a partial sum of frames.
type coordSum struct {
	sum *v3.Matrix
	n   int
}

// MeanStructure returns the average coordinates of the frames selected by o.Iter,
// computed by o.Workers workers. The fit reference, if any, is shared by all of them.
func MeanStructure(t *Trajectory, o *PMapOptions) (*v3.Matrix, error) {
	a := Analysis[coordSum]{Name: "mean structure", Cap: Capability{Partition: true}}
	a.Func = func(it *FrameIterator) (coordSum, error) {
		s := coordSum{sum: v3.Zeros(it.NAtoms())}
		err := it.Each(func(fr *Frame) error {
			s.sum.Add(s.sum.Dense, fr.Coords.Dense)
			s.n++
			return nil
		})
		return s, err
	}
	parts, err := PMap(t, a, o)
	if err != nil {
		return nil, errDecorate(err, "MeanStructure")
	}
	var total *v3.Matrix
	n := 0
	for _, p := range parts {
		if p.Data.n != p.NFrames {
			return nil, newError(LengthError, "MeanStructure", "worker %d got %d frames but summed %d", p.Rank, p.NFrames, p.Data.n)
		}
		if total == nil {
			total = v3.Zeros(p.Data.sum.NVecs())
		}
		total.Add(total.Dense, p.Data.sum.Dense)
		n += p.Data.n
	}
	if n == 0 {
		return nil, newError(LengthError, "MeanStructure", "no frames to average")
	}
	total.Scale(1/float64(n), total.Dense)
	return total, nil
}

// Summary returns the mean and the standard deviation of data. The standard deviation
// of a single value is 0. Empty data is a LengthError.
func Summary(data []float64) (mean, std float64, err error) {
	switch len(data) {
	case 0:
		return 0, 0, newError(LengthError, "Summary", "no data to summarize")
	case 1:
		return data[0], 0, nil
	}
	mean, std = stat.MeanStdDev(data, nil)
	return mean, std, nil
}
