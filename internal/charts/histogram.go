package charts

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const maxBins = 50

// Bin is one histogram bar over [Lo, Hi)
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count float64 `json:"count"`
}

// SturgesBins is ceil(log2 n) + 1, bounded to [1, 50]
func SturgesBins(n int) int {
	if n <= 1 {
		return 1
	}
	k := int(math.Ceil(math.Log2(float64(n)))) + 1
	if k > maxBins {
		return maxBins
	}
	return k
}

// Histogram splits values into equal-width bins spanning their range. bins <= 0
// picks the Sturges count. The last bin includes the maximum.
func Histogram(values []float64, bins int) []Bin {
	if len(values) == 0 {
		return nil
	}
	if bins <= 0 {
		bins = SturgesBins(len(values))
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return []Bin{{Lo: lo - 0.5, Hi: hi + 0.5, Count: float64(len(sorted))}}
	}

	dividers := make([]float64, bins+1)
	if math.IsInf(hi-lo, 0) {
		// the span overflows float64; step from per-bin fractions instead
		step := hi/float64(bins) - lo/float64(bins)
		for i := range dividers {
			dividers[i] = lo + float64(i)*step
		}
		dividers[bins] = hi
	} else {
		floats.Span(dividers, lo, hi)
	}
	// stat.Histogram bins are half-open; widen the top edge so hi lands in the last bin
	top := dividers[bins]
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(make([]float64, bins), dividers, sorted, nil)
	dividers[bins] = top

	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{Lo: dividers[i], Hi: dividers[i+1], Count: counts[i]}
	}
	return out
}

// KDE evaluates a Gaussian kernel density estimate at points evenly spaced
// over the data range, using Scott's bandwidth. scale multiplies the density;
// pass n times the bin width to overlay it on a histogram of counts. Returns
// nil when the data has fewer than two distinct values.
func KDE(values []float64, points int, scale float64) (xs, ys []float64) {
	n := len(values)
	if n < 2 || points < 2 {
		return nil, nil
	}
	sd := stat.StdDev(values, nil)
	if sd == 0 || math.IsNaN(sd) {
		return nil, nil
	}
	bw := sd * math.Pow(float64(n), -1.0/5.0)
	if math.IsInf(bw, 0) {
		return nil, nil
	}

	lo, hi := floats.Min(values), floats.Max(values)
	xs = make([]float64, points)
	floats.Span(xs, lo, hi)
	ys = make([]float64, points)

	kernels := make([]distuv.Normal, n)
	for i, v := range values {
		kernels[i] = distuv.Normal{Mu: v, Sigma: bw}
	}
	for p, x := range xs {
		var sum float64
		for _, k := range kernels {
			sum += k.Prob(x)
		}
		ys[p] = sum / float64(n) * scale
	}
	return xs, ys
}
