package chemstat

import (
	"fmt"
	"math"
	"math/cmplx"

	traj "github.com/rmera/gotraj"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// lagProducts returns, for each lag k from 0 to len(a)-1, the average of a[i]*b[i+k], computed
// with a zero-padded FFT. a and b must have the same length.
func lagProducts(a, b []float64) []float64 {
	n := len(a)
	pa := make([]complex128, 2*n)
	pb := make([]complex128, 2*n)
	for i := range a {
		pa[i] = complex(a[i], 0)
		pb[i] = complex(b[i], 0)
	}
	f := fourier.NewCmplxFFT(2 * n)
	fa := f.Coefficients(nil, pa)
	fb := f.Coefficients(nil, pb)
	for i, v := range fb {
		fa[i] = cmplx.Conj(fa[i]) * v
	}
	seq := f.Sequence(nil, fa)
	ret := make([]float64, n)
	for k := range ret {
		//the FFT is not normalized.
		ret[k] = real(seq[k]) / float64(2*n) / float64(n-k)
	}
	return ret
}

func lags(n, maxlag int) int {
	if maxlag < 0 || maxlag >= n {
		return n - 1
	}
	return maxlag
}

func centered(data []float64) []float64 {
	m := stat.Mean(data, nil)
	ret := make([]float64, len(data))
	for i, v := range data {
		ret[i] = v - m
	}
	return ret
}

// CrossCorr returns the normalized cross-correlation of a and b for lags 0 to maxlag
// (all possible lags if maxlag is negative): the average of (a[i]-<a>)(b[i+k]-<b>), divided
// by the product of the standard deviations of a and b.
func CrossCorr(a, b []float64, maxlag int) ([]float64, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("chemstat: series of different lengths %d and %d", len(a), len(b))
	}
	if len(a) < 2 {
		return nil, fmt.Errorf("chemstat: need at least 2 points, got %d", len(a))
	}
	sa, sb := stat.PopStdDev(a, nil), stat.PopStdDev(b, nil)
	if sa == 0 || sb == 0 {
		return nil, fmt.Errorf("chemstat: constant series can't be correlated")
	}
	p := lagProducts(centered(a), centered(b))
	ret := p[:lags(len(a), maxlag)+1]
	for i := range ret {
		ret[i] /= sa * sb
	}
	return ret, nil
}

// AutoCorr returns the autocorrelation of data for lags 0 to maxlag (all possible lags if maxlag
// is negative), normalized so the value at lag 0 is 1. If covar is true, the mean of the data is
// subtracted first, giving the autocovariance.
func AutoCorr(data []float64, maxlag int, covar bool) ([]float64, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("chemstat: need at least 2 points, got %d", len(data))
	}
	d := data
	if covar {
		d = centered(data)
	}
	p := lagProducts(d, d)
	if p[0] == 0 {
		return nil, fmt.Errorf("chemstat: series with zero variance")
	}
	ret := p[:lags(len(data), maxlag)+1]
	c0 := p[0]
	for i := range ret {
		ret[i] /= c0
	}
	return ret, nil
}

// DecayTime returns the first lag at which corr falls below 1/e, or -1 if it never does.
func DecayTime(corr []float64) int {
	for i, v := range corr {
		if v < 1/math.E {
			return i
		}
	}
	return -1
}

// Series applies f to each frame given by it, and returns the values.
func Series(it *traj.FrameIterator, f func(*traj.Frame, *traj.Topology) (float64, error)) ([]float64, error) {
	var ret []float64
	if n := it.NFrames(); n > 0 {
		ret = make([]float64, 0, n)
	}
	top := it.Topology()
	err := it.Each(func(fr *traj.Frame) error {
		v, err := f(fr, top)
		if err != nil {
			return err
		}
		ret = append(ret, v)
		return nil
	})
	return ret, err
}

// RMSDFunc returns a function giving the RMSD, without superposition, of a frame to ref,
// over the atoms in indexes, or all atoms if no indexes are given.
func RMSDFunc(ref *traj.Frame, indexes ...int) func(*traj.Frame, *traj.Topology) (float64, error) {
	return func(fr *traj.Frame, _ *traj.Topology) (float64, error) {
		return traj.RMSD(fr.Coords, ref.Coords, indexes...)
	}
}

// MDCorrelation returns the autocorrelation function (covariance, normalized) of the values of
// f along the frames given by it, up to maxlag.
func MDCorrelation(it *traj.FrameIterator, f func(*traj.Frame, *traj.Topology) (float64, error), maxlag int) ([]float64, error) {
	s, err := Series(it, f)
	if err != nil {
		return nil, err
	}
	return AutoCorr(s, maxlag, true)
}
