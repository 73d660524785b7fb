package charts

import (
	"bytes"
	"encoding/json"
	"image/png"
	"math"
	"testing"

	"creditdash/adapters/tabular"
	"creditdash/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, body string) *dataset.Dataset {
	t.Helper()
	r := tabular.NewReader(tabular.DefaultCoercionConfig())
	ds, err := r.Decode(dataset.Source{Kind: dataset.SourceKindUpload, Name: "t.csv", Key: "t"}, []byte(body))
	require.NoError(t, err)
	return ds
}

func TestPrepareCorrelationMatrix_DropsIncompleteRowsAcrossAllColumns(t *testing.T) {
	// only rows 0 and 2 are complete; the gap in real_estate drops row 1
	// even though real_estate is not numeric
	ds := load(t, "age,monthly_inc,real_estate\n20,1000,yes\n30,9000,\n40,3000,no\nNA,4000,yes\n")

	m, err := PrepareCorrelationMatrix(ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "monthly_inc"}, m.Columns)
	assert.Equal(t, 2, m.Rows)
	assert.InDelta(t, 1.0, m.At(0, 1), 1e-9)

	values, err := PrepareDistribution(ds, "monthly_inc")
	require.NoError(t, err)
	assert.Equal(t, []float64{1000, 3000}, values)
}

func TestPrepareCorrelationMatrix_Pearson(t *testing.T) {
	ds := load(t, "a,b,c\n1,10,5\n2,8,1\n3,6,4\n4,4,2\n")
	m, err := PrepareCorrelationMatrix(ds)
	require.NoError(t, err)
	require.Equal(t, 3, m.Size())
	assert.InDelta(t, 1.0, m.At(0, 0), 1e-12)
	assert.InDelta(t, -1.0, m.At(0, 1), 1e-12)
	assert.Equal(t, m.At(0, 2), m.At(2, 0))
}

func TestPrepareCorrelationMatrix_NoData(t *testing.T) {
	_, err := PrepareCorrelationMatrix(load(t, "name,city\na,b\nc,d\n"))
	assert.ErrorIs(t, err, ErrNoNumericData)

	_, err = PrepareCorrelationMatrix(load(t, "age,name\n1,\nNA,b\n"))
	assert.ErrorIs(t, err, ErrNoNumericData, "no complete row")
}

func TestPrepareCorrelationMatrix_ConstantColumnIsNaN(t *testing.T) {
	m, err := PrepareCorrelationMatrix(load(t, "a,b\n1,7\n2,7\n3,7\n"))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(m.At(0, 1)))
	assert.True(t, math.IsNaN(m.At(1, 1)))
	assert.InDelta(t, 1.0, m.At(0, 0), 1e-12)

	raw, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "null")
}

func TestPrepareDistribution_Unavailable(t *testing.T) {
	ds := load(t, "age,name\n1,a\n")
	_, err := PrepareDistribution(ds, "name")
	assert.ErrorIs(t, err, ErrColumnUnavailable)
	_, err = PrepareDistribution(ds, "monthly_inc")
	assert.ErrorIs(t, err, ErrColumnUnavailable)
}

func TestSturgesBins(t *testing.T) {
	assert.Equal(t, 1, SturgesBins(0))
	assert.Equal(t, 1, SturgesBins(1))
	assert.Equal(t, 2, SturgesBins(2))
	assert.Equal(t, 11, SturgesBins(1000))
	assert.Equal(t, 50, SturgesBins(1<<60))
}

func TestHistogram(t *testing.T) {
	bins := Histogram([]float64{0, 1, 2, 3, 4, 4}, 4)
	require.Len(t, bins, 4)
	assert.Equal(t, 0.0, bins[0].Lo)
	assert.Equal(t, 4.0, bins[3].Hi)

	var total float64
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, 6.0, total)
	assert.Equal(t, 3.0, bins[3].Count, "maximum lands in the last bin")

	single := Histogram([]float64{5, 5}, 0)
	require.Len(t, single, 1)
	assert.Equal(t, 2.0, single[0].Count)
}

func TestHistogram_SpanBeyondFloatRange(t *testing.T) {
	values := []float64{-1.7e308, 1.7e308, 0}
	bins := Histogram(values, 0)
	require.Len(t, bins, 3)
	assert.Equal(t, -1.7e308, bins[0].Lo)
	assert.Equal(t, 1.7e308, bins[2].Hi)
	for i, b := range bins {
		assert.False(t, math.IsNaN(b.Lo) || math.IsInf(b.Lo, 0), "bin %d lower edge", i)
		assert.Less(t, b.Lo, b.Hi)
		assert.Equal(t, 1.0, b.Count)
	}

	xs, ys := KDE(values, 50, 1)
	assert.Nil(t, xs, "bandwidth overflows, no curve")
	assert.Nil(t, ys)

	d, err := NewDistribution("age", "Age Distribution", values)
	require.NoError(t, err)
	_, err = json.Marshal(d)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, d.RenderPNG(&buf))
}

func TestKDE(t *testing.T) {
	values := []float64{1, 2, 2, 3, 3, 3, 4, 4, 5}
	xs, ys := KDE(values, 50, 1)
	require.Len(t, xs, 50)
	require.Len(t, ys, 50)
	assert.Equal(t, 1.0, xs[0])
	assert.Equal(t, 5.0, xs[49])

	peak := 0
	for i := range ys {
		assert.Greater(t, ys[i], 0.0)
		if ys[i] > ys[peak] {
			peak = i
		}
	}
	assert.InDelta(t, 3.0, xs[peak], 0.2)

	xs, ys = KDE([]float64{2, 2, 2}, 50, 1)
	assert.Nil(t, xs)
	assert.Nil(t, ys)
}

func TestDistribution_RenderPNG(t *testing.T) {
	d, err := NewDistribution("age", "Age Distribution", []float64{21, 25, 33, 33, 40, 52, 61})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, d.RenderPNG(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())

	_, err = NewDistribution("age", "Age Distribution", nil)
	assert.ErrorIs(t, err, ErrNoNumericData)
}

func TestHeatmap(t *testing.T) {
	m, err := PrepareCorrelationMatrix(load(t, "a,b\n1,4\n2,3\n3,1\n"))
	require.NoError(t, err)

	h := NewHeatmap(m)
	require.Len(t, h.Rows, 2)
	assert.Equal(t, "1.00", h.Rows[0][0].Label)
	assert.Equal(t, "#b40426", h.Rows[0][0].Background)
	assert.Equal(t, "#ffffff", h.Rows[0][0].Foreground)

	assert.Equal(t, "#dddddd", hex(CoolWarm(0)))
	assert.Equal(t, "#3b4cc0", hex(CoolWarm(-1)))
	assert.Equal(t, "#f5f5f5", hex(CoolWarm(math.NaN())))
}
