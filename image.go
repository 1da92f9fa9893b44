package traj

import (
	"math"

	v3 "github.com/rmera/gotraj/v3"
	"gonum.org/v1/gonum/mat"
)

// CellToVectors returns the box vectors (as rows) for the unit cell with lengths
// a, b, c and angles alpha, beta, gamma (degrees). The first vector lies along x and
// the second in the xy plane. It returns nil if cell has no box.
func CellToVectors(cell []float64) *v3.Matrix {
	if len(cell) < CellLen || cell[0] <= 0 || cell[1] <= 0 || cell[2] <= 0 {
		return nil
	}
	a, b, c := cell[0], cell[1], cell[2]
	alpha, beta, gamma := Deg2Rad(cell[3]), Deg2Rad(cell[4]), Deg2Rad(cell[5])
	if cell[3] == 0 && cell[4] == 0 && cell[5] == 0 {
		alpha, beta, gamma = math.Pi/2, math.Pi/2, math.Pi/2
	}
	cg, sg := math.Cos(gamma), math.Sin(gamma)
	cb, ca := math.Cos(beta), math.Cos(alpha)
	cy := (ca - cb*cg) / sg
	cz := math.Sqrt(math.Max(0, 1-cb*cb-cy*cy))
	box := v3.Zeros(3)
	box.SetRow(0, []float64{a, 0, 0})
	box.SetRow(1, []float64{b * cg, b * sg, 0})
	box.SetRow(2, []float64{c * cb, c * cy, c * cz})
	clean(box)
	return box
}

// VectorsToCell returns the 3 lengths and 3 angles (degrees) of the unit cell with the
// box vectors (rows) in box.
func VectorsToCell(box *v3.Matrix) []float64 {
	a, b, c := box.VecView(0), box.VecView(1), box.VecView(2)
	la, lb, lc := a.Norm(), b.Norm(), c.Norm()
	angle := func(u, v *v3.Matrix, lu, lv float64) float64 {
		if lu == 0 || lv == 0 {
			return 0
		}
		return Rad2Deg(math.Acos(math.Max(-1, math.Min(1, u.Dot(v)/(lu*lv)))))
	}
	return []float64{la, lb, lc, angle(b, c, lb, lc), angle(a, c, la, lc), angle(a, b, la, lb)}
}

// clean sets to zero the elements of box that are rounding noise.
func clean(box *v3.Matrix) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(box.At(i, j)) < 1e-10 {
				box.Set(i, j, 0)
			}
		}
	}
}

// ImageOptions controls Autoimage.
type ImageOptions struct {
	//Anchor atoms, if given, are placed at the center of the box (or at the origin,
	//if Origin is true) before the molecules are wrapped.
	Anchor []int
	//If Origin is true, the molecules are wrapped into the cell centered at the origin,
	//instead of the one with a corner at the origin.
	Origin bool
}

// WrapMolecules wraps, in place, each molecule of coords into the primary unit cell, as a whole,
// using the center of each molecule. molecules has the atom indexes of each molecule.
// It returns false, and does nothing, if cell has no box.
func WrapMolecules(coords *v3.Matrix, cell []float64, molecules [][]int, o *ImageOptions) (bool, error) {
	box := CellToVectors(cell)
	if box == nil {
		return false, nil
	}
	if o == nil {
		o = &ImageOptions{}
	}
	var inv mat.Dense
	if err := inv.Inverse(box.Dense); err != nil {
		return false, newError(ConfigError, "Autoimage", "singular box %v: %s", cell, err.Error())
	}
	frac := func(cart *v3.Matrix) []float64 {
		f := mat.NewDense(1, 3, nil)
		f.Mul(cart.Dense, &inv)
		return f.RawRowView(0)
	}
	//displace moves the atoms by the box vector combination k.
	displace := func(atoms []int, k []float64) {
		d := v3.Zeros(1)
		km := mat.NewDense(1, 3, k)
		d.Mul(km, box.Dense)
		for _, a := range atoms {
			v := coords.VecView(a)
			v.AddVec(v, d)
		}
	}
	shift := 0.0
	if o.Origin {
		shift = 0.5
	}
	if len(o.Anchor) > 0 {
		sub := v3.Zeros(len(o.Anchor))
		if err := sub.SomeVecsSafe(coords, o.Anchor); err != nil {
			return false, newError(BoundsError, "Autoimage", "anchor: %s", err.Error())
		}
		c, err := CenterOfMass(sub, nil)
		if err != nil {
			return false, errDecorate(err, "Autoimage")
		}
		fc := frac(c)
		k := make([]float64, 3)
		for j := range k {
			k[j] = 0.5 - shift - fc[j]
		}
		all := make([]int, coords.NVecs())
		for i := range all {
			all[i] = i
		}
		displace(all, k)
	}
	for _, m := range molecules {
		sub := v3.Zeros(len(m))
		if err := sub.SomeVecsSafe(coords, m); err != nil {
			return false, newError(BoundsError, "Autoimage", "molecule: %s", err.Error())
		}
		c, err := CenterOfMass(sub, nil)
		if err != nil {
			return false, errDecorate(err, "Autoimage")
		}
		fc := frac(c)
		k := make([]float64, 3)
		moved := false
		for j := range k {
			k[j] = -math.Floor(fc[j] + shift)
			if k[j] != 0 {
				moved = true
			}
		}
		if moved {
			displace(m, k)
		}
	}
	return true, nil
}
