// Package histo implements histograms of per-frame quantities that can be built in pieces,
// by the workers of traj.PMap, and added together.
package histo

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	traj "github.com/rmera/gotraj"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Data is a histogram.
type Data struct {
	normalized bool
	total      int
	dividers   []float64
	histo      []float64
}

type jsonData struct {
	Normalized bool      `json:"normalized"`
	Total      int       `json:"total"`
	Dividers   []float64 `json:"dividers"`
	Histo      []float64 `json:"histo"`
}

func (D *Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonData{Normalized: D.normalized, Total: D.total, Dividers: D.dividers, Histo: D.histo})
}

func (D *Data) UnmarshalJSON(b []byte) error {
	var a jsonData
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if len(a.Dividers) != len(a.Histo)+1 {
		return fmt.Errorf("histo: %d dividers for %d bins", len(a.Dividers), len(a.Histo))
	}
	D.normalized = a.Normalized
	D.total = a.Total
	D.dividers = a.Dividers
	D.histo = a.Histo
	return nil
}

// String prints a -hopefully- pretty string representation of
// the histogram, in 3 lines of text.
func (D *Data) String() string {
	ret := fmt.Sprintf("Normalized: %v, TotalData: %d\n", D.normalized, D.total)
	d := make([]string, 0, len(D.histo))
	h := make([]string, 0, len(D.histo))
	for i, v := range D.histo {
		d = append(d, fmt.Sprintf("%4.2f-%4.2f", D.dividers[i], D.dividers[i+1]))
		h = append(h, fmt.Sprintf("%9.3f", v))
	}
	return ret + fmt.Sprintf("%s\n%s", strings.Join(d, " "), strings.Join(h, " "))
}

// NewData returns a new histogram with the given dividers (at least 2, increasing), filled
// with rawdata, which can be nil. Values outside the dividers are not counted.
func NewData(dividers []float64, rawdata []float64) (*Data, error) {
	if len(dividers) < 2 || !sort.Float64sAreSorted(dividers) {
		return nil, fmt.Errorf("histo: need at least 2 increasing dividers, got %v", dividers)
	}
	d := &Data{dividers: append([]float64(nil), dividers...)}
	d.histo = make([]float64, len(dividers)-1)
	if rawdata != nil {
		d.ReHisto(append([]float64(nil), rawdata...))
	}
	return d, nil
}

// Dividers returns bins+1 evenly spaced dividers from min to max.
func Dividers(min, max float64, bins int) []float64 {
	ret := make([]float64, bins+1)
	return floats.Span(ret, min, max)
}

// AddData adds the given data point(s) to the histogram.
func (D *Data) AddData(point ...float64) {
	norma := D.normalized
	if norma {
		D.UnNormalize()
	}
	last := len(D.dividers) - 1
	for _, v := range point {
		//values out of range are omitted.
		if v < D.dividers[0] || v >= D.dividers[last] {
			continue
		}
		j := sort.SearchFloat64s(D.dividers, v)
		if j == len(D.dividers) || D.dividers[j] != v {
			j--
		}
		D.histo[j]++
		D.total++
	}
	if norma {
		D.Normalize()
	}
}

// Normalized Returns true if the histogram is normalized
func (D *Data) Normalized() bool {
	return D.normalized
}

// Normalize makes the bins of the histogram add up to 1.
func (D *Data) Normalize() {
	D.normaunnorma(true)
}

// UnNormalize returns the bins to counts.
func (D *Data) UnNormalize() {
	D.normaunnorma(false)
}

func (D *Data) normaunnorma(normalize bool) {
	if D.total <= 0 || D.normalized == normalize {
		return
	}
	n := float64(D.total)
	if normalize {
		n = 1 / n
	}
	D.normalized = normalize
	floats.Scale(n, D.histo)
}

// Total returns the number of data points counted.
func (D *Data) Total() int { return D.total }

// View returns the bins of the histogram, sharing memory with it.
func (D *Data) View() []float64 {
	return D.histo
}

// Add adds the histograms a and b, which must have the same dividers, putting the result in
// the receiver. The result is normalized only if both a and b are.
func (D *Data) Add(a, b *Data) error {
	if !floats.Equal(a.dividers, b.dividers) {
		return fmt.Errorf("histo: dividers must match in added histograms")
	}
	an, bn := a.normalized, b.normalized
	a.UnNormalize()
	b.UnNormalize()
	histo := make([]float64, len(a.histo))
	floats.AddTo(histo, a.histo, b.histo)
	total := a.total + b.total
	if an {
		a.Normalize()
	}
	if bn && b != a {
		b.Normalize()
	}
	D.dividers = append(D.dividers[:0], a.dividers...)
	D.histo = histo
	D.total = total
	D.normalized = false
	if an && bn {
		D.Normalize()
	}
	return nil
}

// Sum returns the sum of the bins.
func (D *Data) Sum() float64 {
	return floats.Sum(D.histo)
}

// ReHisto replaces the contents of the histogram by the counts of rawdata, which is sorted
// in place.
func (D *Data) ReHisto(rawdata []float64) {
	sort.Float64s(rawdata)
	//stat.Histogram panics with values off limits, so we remove them first.
	maxi := sort.SearchFloat64s(rawdata, D.dividers[len(D.dividers)-1])
	mini := sort.SearchFloat64s(rawdata, D.dividers[0])
	rawdata = rawdata[mini:maxi]
	D.total = len(rawdata)
	D.normalized = false
	D.histo = stat.Histogram(nil, D.dividers, rawdata, nil)
}

// Analysis returns an analysis that histograms, with the given dividers, the values of
// f for every frame. It can be run in parallel with traj.PMap, and its results added with Merge.
func Analysis(name string, f func(*traj.Frame, *traj.Topology) (float64, error), dividers []float64) traj.Analysis[*Data] {
	fn := func(it *traj.FrameIterator) (*Data, error) {
		d, err := NewData(dividers, nil)
		if err != nil {
			return nil, err
		}
		top := it.Topology()
		err = it.Each(func(fr *traj.Frame) error {
			v, err := f(fr, top)
			if err != nil {
				return err
			}
			d.AddData(v)
			return nil
		})
		return d, err
	}
	return traj.Analysis[*Data]{Name: name, Cap: traj.Capability{Partition: true}, Func: fn}
}

// Merge adds the histograms built by the workers of a parallel analysis.
func Merge(parts []traj.Partial[*Data]) (*Data, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("histo: nothing to merge")
	}
	ret, err := NewData(parts[0].Data.dividers, nil)
	if err != nil {
		return nil, err
	}
	for _, p := range parts {
		if err := ret.Add(ret, p.Data); err != nil {
			return nil, fmt.Errorf("histo: worker %d: %w", p.Rank, err)
		}
	}
	return ret, nil
}
