package traj

import (
	"log"

	v3 "github.com/rmera/gotraj/v3"
)

// Effect is the class of change a Stage makes to a frame.
type Effect int

const (
	// Geometry stages move atoms, but keep their number and order.
	Geometry Effect = iota
	// TopologyReducing stages keep a subset of the atoms, and define a new topology.
	TopologyReducing
	// CrossFrame stages need a reference frame, captured once before the first frame.
	CrossFrame
)

func (e Effect) String() string {
	switch e {
	case Geometry:
		return "geometry"
	case TopologyReducing:
		return "topology-reducing"
	case CrossFrame:
		return "cross-frame"
	}
	return "unknown"
}

// Stage is one transformation of a pipeline. The set of stages is closed: Select,
// Autoimage, Superpose, Translate, Rotate, Scale, Center and PrincipalAxes.
type Stage interface {
	Effect() Effect
	// bind resolves the selections of the stage against top, the topology of the frames
	// the stage will get, and captures anything it needs from src. It returns the
	// per-frame function and the topology of the frames it will give.
	bind(top *Topology, src *Trajectory) (stageFunc, *Topology, error)
}

// stageFunc transforms a frame. It can work in place, and return its argument,
// or return a new frame.
type stageFunc func(*Frame) (*Frame, error)

// selectIndexes resolves s against top. A nil s selects every atom, and gives nil.
func selectIndexes(s Selector, top *Topology) ([]int, error) {
	if s == nil {
		return nil, nil
	}
	return top.Select(s)
}

// Select keeps only the atoms selected by Mask, in the order the selection gives them.
// Frames are always copied by this stage.
type Select struct {
	Mask Selector
}

func (S Select) Effect() Effect { return TopologyReducing }

func (S Select) bind(top *Topology, _ *Trajectory) (stageFunc, *Topology, error) {
	if S.Mask == nil {
		return nil, nil, newError(ConfigError, "Select", "no mask given")
	}
	ind, err := top.Select(S.Mask)
	if err != nil {
		return nil, nil, errDecorate(err, "Select")
	}
	newtop, err := top.SomeAtoms(ind)
	if err != nil {
		return nil, nil, errDecorate(err, "Select")
	}
	f := func(fr *Frame) (*Frame, error) {
		return fr.Select(ind)
	}
	return f, newtop, nil
}

// Autoimage wraps each molecule into the primary unit cell. Frames without a unit cell
// are left alone, with a warning logged once.
type Autoimage struct {
	Anchor Selector
	Origin bool
}

func (A Autoimage) Effect() Effect { return Geometry }

func (A Autoimage) bind(top *Topology, _ *Trajectory) (stageFunc, *Topology, error) {
	anchor, err := selectIndexes(A.Anchor, top)
	if err != nil {
		return nil, nil, errDecorate(err, "Autoimage")
	}
	mols := top.Molecules()
	opts := &ImageOptions{Anchor: anchor, Origin: A.Origin}
	warned := false
	f := func(fr *Frame) (*Frame, error) {
		done, err := WrapMolecules(fr.Coords, fr.Cell, mols, opts)
		if err != nil {
			return nil, errDecorate(err, "Autoimage")
		}
		if !done && !warned {
			log.Printf("traj: autoimage: frame %d has no unit cell, frames without one will be left as they are", fr.Index())
			warned = true
		}
		return fr, nil
	}
	return f, top, nil
}

// Superpose fits every frame onto a reference, by least-squares rotation and translation
// over the atoms in Mask (every atom if nil). The transformation is applied to all atoms.
// The reference is Ref if not nil, or otherwise the frame RefIndex of the source trajectory.
// If Mass is true, the fit is mass-weighted.
type Superpose struct {
	Ref      *Frame
	RefIndex int
	Mask     Selector
	Mass     bool
	rmsd     *float64 //if not nil, gets the RMSD of the last fitted frame.
}

func (S Superpose) Effect() Effect { return CrossFrame }

// reference returns a copy of the reference frame of S.
func (S Superpose) reference(src *Trajectory) (*Frame, error) {
	if S.Ref != nil {
		return S.Ref.Copy(), nil
	}
	if src == nil {
		return nil, newError(ConfigError, "Superpose", "reference frame %d without a source trajectory", S.RefIndex)
	}
	n := src.NFrames()
	if S.RefIndex >= n || S.RefIndex < -n {
		return nil, newError(ConfigError, "Superpose", "reference frame %d doesn't exist in a trajectory of %d frames", S.RefIndex, n)
	}
	ref, err := src.Frame(S.RefIndex)
	if err != nil {
		return nil, errDecorate(err, "Superpose")
	}
	return ref.Copy(), nil
}

func (S Superpose) bind(top *Topology, src *Trajectory) (stageFunc, *Topology, error) {
	ref, err := S.reference(src)
	if err != nil {
		return nil, nil, err
	}
	if ref.Len() != top.Len() {
		return nil, nil, newError(ShapeError, "Superpose", "reference has %d atoms, frames have %d", ref.Len(), top.Len())
	}
	ind, err := selectIndexes(S.Mask, top)
	if err != nil {
		return nil, nil, errDecorate(err, "Superpose")
	}
	var mass []float64
	if S.Mass {
		all, err := top.Masses()
		if err != nil {
			return nil, nil, errDecorate(err, "Superpose")
		}
		mass = all
		if ind != nil {
			mass = make([]float64, len(ind))
			for k, v := range ind {
				mass[k] = all[v]
			}
		}
	}
	rmsd := S.rmsd
	f := func(fr *Frame) (*Frame, error) {
		r, err := Super(fr.Coords, ref.Coords, ind, mass)
		if err != nil {
			return nil, errDecorate(err, "Superpose")
		}
		if rmsd != nil {
			*rmsd = r
		}
		return fr, nil
	}
	return f, top, nil
}

// Translate moves the atoms in Mask (all if nil) by Vector.
type Translate struct {
	Vector [3]float64
	Mask   Selector
}

func (T Translate) Effect() Effect { return Geometry }

func (T Translate) bind(top *Topology, _ *Trajectory) (stageFunc, *Topology, error) {
	ind, err := selectIndexes(T.Mask, top)
	if err != nil {
		return nil, nil, errDecorate(err, "Translate")
	}
	v, _ := v3.NewMatrix(T.Vector[:])
	f := func(fr *Frame) (*Frame, error) {
		forAtoms(fr.Coords, ind, func(r *v3.Matrix) { r.AddVec(r, v) })
		return fr, nil
	}
	return f, top, nil
}

// Rotate rotates the atoms in Mask (all if nil) around the origin: Angles[0] degrees
// around x, then Angles[1] around y, then Angles[2] around z.
type Rotate struct {
	Angles [3]float64
	Mask   Selector
}

func (R Rotate) Effect() Effect { return Geometry }

func (R Rotate) bind(top *Topology, _ *Trajectory) (stageFunc, *Topology, error) {
	ind, err := selectIndexes(R.Mask, top)
	if err != nil {
		return nil, nil, errDecorate(err, "Rotate")
	}
	rot := RotatorXYZ(R.Angles[0], R.Angles[1], R.Angles[2])
	f := func(fr *Frame) (*Frame, error) {
		tmp := v3.Zeros(1)
		forAtoms(fr.Coords, ind, func(r *v3.Matrix) {
			tmp.Mul(r, rot)
			r.Copy(tmp.Dense)
		})
		return fr, nil
	}
	return f, top, nil
}

// Scale multiplies the coordinates of the atoms in Mask (all if nil) by Factors, axis by axis.
// A zero factor leaves its axis unchanged.
type Scale struct {
	Factors [3]float64
	Mask    Selector
}

func (S Scale) Effect() Effect { return Geometry }

func (S Scale) bind(top *Topology, _ *Trajectory) (stageFunc, *Topology, error) {
	ind, err := selectIndexes(S.Mask, top)
	if err != nil {
		return nil, nil, errDecorate(err, "Scale")
	}
	fac := S.Factors
	for i, v := range fac {
		if v == 0 {
			fac[i] = 1
		}
	}
	f := func(fr *Frame) (*Frame, error) {
		forAtoms(fr.Coords, ind, func(r *v3.Matrix) {
			for j := 0; j < 3; j++ {
				r.Set(0, j, r.At(0, j)*fac[j])
			}
		})
		return fr, nil
	}
	return f, top, nil
}

// CenterTarget is the point Center moves the center of the selection to.
type CenterTarget int

const (
	BoxCenter CenterTarget = iota //the center of the unit cell, or the origin for frames without one.
	Origin
)

// Center translates every atom so the center of the atoms in Mask (all if nil) ends at Target.
// If Mass is true, the center of mass is used.
type Center struct {
	Mask   Selector
	Target CenterTarget
	Mass   bool
}

func (C Center) Effect() Effect { return Geometry }

func (C Center) bind(top *Topology, _ *Trajectory) (stageFunc, *Topology, error) {
	ind, err := selectIndexes(C.Mask, top)
	if err != nil {
		return nil, nil, errDecorate(err, "Center")
	}
	var mass []float64
	if C.Mass {
		all, err := top.Masses()
		if err != nil {
			return nil, nil, errDecorate(err, "Center")
		}
		mass = all
		if ind != nil {
			mass = make([]float64, len(ind))
			for k, v := range ind {
				mass[k] = all[v]
			}
		}
	}
	f := func(fr *Frame) (*Frame, error) {
		sub := fr.Coords
		if ind != nil {
			sub = v3.Zeros(len(ind))
			sub.SomeVecs(fr.Coords, ind)
		}
		c, err := CenterOfMass(sub, mass)
		if err != nil {
			return nil, errDecorate(err, "Center")
		}
		target := v3.Zeros(1)
		if box := CellToVectors(fr.Cell); C.Target == BoxCenter && box != nil {
			for i := 0; i < 3; i++ {
				target.AddVec(target, box.VecView(i))
			}
			target.Scale(0.5, target.Dense)
		}
		target.SubVec(target, c)
		fr.Coords.AddVec(fr.Coords, target)
		return fr, nil
	}
	return f, top, nil
}

// PrincipalAxes centers each frame at the origin and rotates it so that its principal axes
// lie along x, y and z. If Mass is true, the moments are mass-weighted.
type PrincipalAxes struct {
	Mass bool
}

func (P PrincipalAxes) Effect() Effect { return Geometry }

func (P PrincipalAxes) bind(top *Topology, _ *Trajectory) (stageFunc, *Topology, error) {
	var mass []float64
	if P.Mass {
		var err error
		if mass, err = top.Masses(); err != nil {
			return nil, nil, errDecorate(err, "PrincipalAxes")
		}
	}
	f := func(fr *Frame) (*Frame, error) {
		return fr, errDecorate(AlignPrincipalAxis(fr.Coords, mass), "PrincipalAxes")
	}
	return f, top, nil
}

// forAtoms calls f on a view of each atom in ind, or of each atom in coords if ind is nil.
func forAtoms(coords *v3.Matrix, ind []int, f func(*v3.Matrix)) {
	if ind == nil {
		for i := 0; i < coords.NVecs(); i++ {
			f(coords.VecView(i))
		}
		return
	}
	for _, i := range ind {
		f(coords.VecView(i))
	}
}

// pipeline is an ordered, immutable list of bound stages.
type pipeline struct {
	funcs []stageFunc
	top   *Topology
}

// buildPipeline binds stages, in order, starting from the topology top. A cross-frame
// stage after a topology-reducing one is an error.
func buildPipeline(stages []Stage, top *Topology, src *Trajectory) (*pipeline, error) {
	p := &pipeline{top: top}
	reduced := false
	for i, s := range stages {
		if s == nil {
			return nil, newError(ConfigError, "buildPipeline", "stage %d is nil", i)
		}
		switch s.Effect() {
		case TopologyReducing:
			reduced = true
		case CrossFrame:
			if reduced {
				return nil, newError(ConfigError, "buildPipeline", "stage %d (%T) needs the full atom set, but comes after an atom selection", i, s)
			}
		}
		f, newtop, err := s.bind(p.top, src)
		if err != nil {
			return nil, errDecorate(err, "buildPipeline")
		}
		p.funcs = append(p.funcs, f)
		p.top = newtop
	}
	return p, nil
}

func (p *pipeline) run(fr *Frame) (*Frame, error) {
	var err error
	for _, f := range p.funcs {
		if fr, err = f(fr); err != nil {
			return nil, err
		}
	}
	return fr, nil
}
