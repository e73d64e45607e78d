package processor

import (
	"MinWageDiD/src/errs"
	"bytes"
	"math"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitOLSDiDFixture(t *testing.T) {
	df := didFrame()
	d, err := BuildDesign(df, []Column{NJ, Post, NJPost})
	require.NoError(t, err)
	y, err := FloatColumn(df, FTE)
	require.NoError(t, err)

	res, err := FitOLS(d, y)
	require.NoError(t, err)

	want := []float64{8, 2, 1, 1}
	require.Len(t, res.Coef, len(want))
	for j, w := range want {
		assert.InDelta(t, w, res.Coef[j], 1e-9, d.Names[j])
	}

	// 4个观测、4个参数：恰好拟合
	assert.Equal(t, 0, res.DFResid)
	assert.Equal(t, 3, res.DFModel)
	assert.InDelta(t, 1.0, res.RSquared, 1e-12)
	assert.True(t, math.IsNaN(res.StdErr[0]))
	assert.True(t, math.IsNaN(res.PValue[3]))
	assert.True(t, math.IsNaN(res.FValue))

	again, err := FitOLS(d, y)
	require.NoError(t, err)
	assert.Equal(t, res.Coef, again.Coef)
}

func TestFitOLSRecoversExactCoefficients(t *testing.T) {
	const n = 20
	x1 := make([]float64, n)
	x2 := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x1[i] = float64(i)
		x2[i] = float64((i * i) % 7)
		y[i] = 3 + 2*x1[i] - 0.5*x2[i]
	}
	df := dataframe.New(
		series.New(x1, series.Float, "x1"),
		series.New(x2, series.Float, "x2"),
	)
	d, err := BuildDesign(df, []Column{"x1", "x2"})
	require.NoError(t, err)

	res, err := FitOLS(d, y)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, res.Coef[0], 1e-9)
	assert.InDelta(t, 2.0, res.Coef[1], 1e-9)
	assert.InDelta(t, -0.5, res.Coef[2], 1e-9)
	assert.InDelta(t, 1.0, res.RSquared, 1e-9)
	assert.Equal(t, n-3, res.DFResid)
}

func TestFitOLSInference(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	y := []float64{2.1, 3.9, 6.2, 7.8, 10.1, 12.2, 13.8, 16.1, 18.0, 19.9}
	df := dataframe.New(series.New(x, series.Float, "x"))
	d, err := BuildDesign(df, []Column{"x"})
	require.NoError(t, err)

	res, err := FitOLS(d, y)
	require.NoError(t, err)

	// 简单回归的闭式解
	var sx, sy, sxx, sxy float64
	for i := range x {
		sx += x[i]
		sy += y[i]
		sxx += x[i] * x[i]
		sxy += x[i] * y[i]
	}
	nf := float64(len(x))
	slope := (nf*sxy - sx*sy) / (nf*sxx - sx*sx)
	icept := (sy - slope*sx) / nf
	assert.InDelta(t, icept, res.Coef[0], 1e-10)
	assert.InDelta(t, slope, res.Coef[1], 1e-10)

	var ssr float64
	for i := range x {
		r := y[i] - icept - slope*x[i]
		ssr += r * r
	}
	sigma2 := ssr / (nf - 2)
	sxxc := sxx - sx*sx/nf
	assert.InDelta(t, math.Sqrt(sigma2/sxxc), res.StdErr[1], 1e-10)
	assert.InDelta(t, res.Coef[1]/res.StdErr[1], res.TValue[1], 1e-9)

	// 单个回归变量时 F = t²
	assert.InDelta(t, res.TValue[1]*res.TValue[1], res.FValue, 1e-6*res.FValue)
	assert.InDelta(t, res.PValue[1], res.FPValue, 1e-9)

	assert.Less(t, res.ConfLow[1], res.Coef[1])
	assert.Greater(t, res.ConfHigh[1], res.Coef[1])
	assert.InDelta(t, res.Coef[1]-res.ConfLow[1], res.ConfHigh[1]-res.Coef[1], 1e-12)

	assert.InDelta(t, -2*res.LogLik+4, res.AIC, 1e-9)
	assert.InDelta(t, -2*res.LogLik+2*math.Log(nf), res.BIC, 1e-9)
	assert.Greater(t, res.CondNo, 1.0)
}

func TestFitOLSDummyTrapIsSingular(t *testing.T) {
	df := njminFrame()
	d, err := BuildDesign(df, Brand.Levels)
	require.NoError(t, err)
	y := []float64{20, 21, 18, 25, 17, 19, 30, 22}

	_, err = FitOLS(d, y)
	require.ErrorIs(t, err, errs.ErrSingularMatrix)

	// 去掉基准类别后可以求解
	d, err = BuildDesign(df, Brand.Indicators())
	require.NoError(t, err)
	_, err = FitOLS(d, y)
	require.NoError(t, err)
}

func TestFitOLSInputErrors(t *testing.T) {
	d, err := BuildDesign(didFrame(), []Column{NJ})
	require.NoError(t, err)

	_, err = FitOLS(d, []float64{1, 2, 3})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = FitOLS(d, []float64{1, nan, 3, 4})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	d, err = BuildDesign(didFrame(), []Column{NJ, Post, NJPost, FTE})
	require.NoError(t, err)
	_, err = FitOLS(d, []float64{1, 2, 3, 4})
	assert.ErrorIs(t, err, errs.ErrSingularMatrix)
}

func TestRenderReport(t *testing.T) {
	p, err := NewDataProcessor(njminFrame(), NJMin)
	require.NoError(t, err)
	_, err = p.Impute(FTE, DEMP)
	require.NoError(t, err)
	res, err := p.Fit(Model1)
	require.NoError(t, err)

	labels := []string{"intercept", "New Jersey", "After April 92", "NJ after April 92"}
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, res, "FTE", labels))

	out := buf.String()
	assert.Contains(t, out, "OLS Regression Results: Model 1")
	assert.Contains(t, out, "Dep. Variable:")
	assert.Contains(t, out, "No. Observations:")
	assert.Contains(t, out, "NJ after April 92")
	assert.Contains(t, out, "P>|t|")
	assert.Contains(t, out, "R-squared:")
}

func TestRenderLabelMismatch(t *testing.T) {
	d, err := BuildDesign(didFrame(), []Column{NJ, Post, NJPost})
	require.NoError(t, err)
	res, err := FitOLS(d, []float64{10, 12, 8, 9})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = Render(&buf, res, "FTE", []string{"intercept", "New Jersey", "After April 92"})
	require.ErrorIs(t, err, errs.ErrLabelMismatch)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Zero(t, buf.Len())

	require.NoError(t, Render(&buf, res, "FTE", d.Labels(nil)))
	assert.Contains(t, buf.String(), "nan")
	assert.Contains(t, buf.String(), "zero residual degrees of freedom")
}
