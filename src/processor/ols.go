package processor

import (
	"MinWageDiD/src/errs"
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// 机器精度，用于数值秩判断
var machEps = math.Nextafter(1, 2) - 1

// OLSResult 一次 OLS 拟合的结果，创建后不再修改
type OLSResult struct {
	Model    string
	Response Column
	Names    []string // 设计矩阵列名，Names[0] 为截距

	Coef     []float64
	StdErr   []float64
	TValue   []float64
	PValue   []float64
	ConfLow  []float64 // 95% 置信区间
	ConfHigh []float64

	NObs    int
	DFModel int
	DFResid int

	SSR         float64
	RSquared    float64
	AdjRSquared float64
	FValue      float64
	FPValue     float64
	LogLik      float64
	AIC         float64
	BIC         float64
	CondNo      float64
}

// FitOLS 求解 min ||y - Xβ||²
//
// 系数由 Householder QR 求得，(X'X)⁻¹ 由 Cholesky 分解求得。
// X 的数值秩小于列数时返回 SingularMatrix。残差自由度为0时
// 仍返回系数，推断统计量为 NaN。
func FitOLS(d *Design, y []float64) (*OLSResult, error) {
	n, p := d.Dims()
	if len(y) != n {
		return nil, errs.InvalidInput("response has %d values, design has %d rows", len(y), n)
	}
	for i, v := range y {
		if math.IsNaN(v) {
			return nil, errs.InvalidInput("response has a missing value at row %d", i)
		}
	}
	if n < p {
		return nil, errs.Singular("%d observations for %d parameters", n, p)
	}

	sv, err := singularValues(d.X)
	if err != nil {
		return nil, err
	}
	tol := sv[0] * float64(max(n, p)) * machEps
	rank := 0
	for _, s := range sv {
		if s > tol {
			rank++
		}
	}
	if rank < p {
		return nil, errs.Singular("design matrix has rank %d but %d columns (%v)", rank, p, d.Names)
	}

	var qr mat.QR
	qr.Factorize(d.X)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, mat.NewVecDense(n, y)); err != nil {
		return nil, asSingular(err, "QR solve")
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, d.X.T())
	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return nil, errs.Singular("X'X is not positive definite")
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, asSingular(err, "invert X'X")
	}

	var fitted mat.VecDense
	fitted.MulVec(d.X, &beta)

	ybar := stat.Mean(y, nil)
	var ssr, sst float64
	for i, v := range y {
		r := v - fitted.AtVec(i)
		ssr += r * r
		c := v - ybar
		sst += c * c
	}

	res := &OLSResult{
		Names:    append([]string(nil), d.Names...),
		Coef:     make([]float64, p),
		StdErr:   make([]float64, p),
		TValue:   make([]float64, p),
		PValue:   make([]float64, p),
		ConfLow:  make([]float64, p),
		ConfHigh: make([]float64, p),
		NObs:     n,
		DFModel:  p - 1,
		DFResid:  n - p,
		SSR:      ssr,
		CondNo:   sv[0] / sv[len(sv)-1],
	}

	sigma2 := math.NaN()
	var tdist distuv.StudentsT
	var tcrit float64
	if res.DFResid > 0 {
		sigma2 = ssr / float64(res.DFResid)
		tdist = distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(res.DFResid)}
		tcrit = tdist.Quantile(0.975)
	}

	for j := 0; j < p; j++ {
		b := beta.AtVec(j)
		res.Coef[j] = b
		se := math.Sqrt(cov.At(j, j) * sigma2)
		res.StdErr[j] = se
		if res.DFResid == 0 {
			res.TValue[j] = math.NaN()
			res.PValue[j] = math.NaN()
			res.ConfLow[j] = math.NaN()
			res.ConfHigh[j] = math.NaN()
			continue
		}
		t := b / se
		res.TValue[j] = t
		res.PValue[j] = 2 * tdist.Survival(math.Abs(t))
		res.ConfLow[j] = b - tcrit*se
		res.ConfHigh[j] = b + tcrit*se
	}

	res.RSquared = math.NaN()
	if sst > 0 {
		res.RSquared = 1 - ssr/sst
	}

	res.AdjRSquared, res.FValue, res.FPValue = math.NaN(), math.NaN(), math.NaN()
	if res.DFResid > 0 {
		res.AdjRSquared = 1 - float64(n-1)/float64(res.DFResid)*(1-res.RSquared)
		if res.DFModel > 0 {
			ess := sst - ssr
			res.FValue = (ess / float64(res.DFModel)) / (ssr / float64(res.DFResid))
			if math.IsInf(res.FValue, 1) {
				res.FPValue = 0
			} else {
				fdist := distuv.F{D1: float64(res.DFModel), D2: float64(res.DFResid)}
				res.FPValue = fdist.Survival(res.FValue)
			}
		}
	}

	half := float64(n) / 2
	res.LogLik = -half*math.Log(2*math.Pi) - half*math.Log(ssr/float64(n)) - half
	res.AIC = -2*res.LogLik + 2*float64(p)
	res.BIC = -2*res.LogLik + float64(p)*math.Log(float64(n))

	return res, nil
}

// singularValues 返回 X 的奇异值(降序)
func singularValues(x mat.Matrix) ([]float64, error) {
	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDNone); !ok {
		return nil, errs.Singular("SVD of design matrix did not converge")
	}
	sv := svd.Values(nil)
	if len(sv) == 0 || sv[0] == 0 {
		return nil, errs.Singular("design matrix is zero")
	}
	return sv, nil
}

// asSingular 把 gonum 的条件数错误转换为 SingularMatrix
func asSingular(err error, op string) error {
	var cond mat.Condition
	if errors.As(err, &cond) {
		return errs.Singular("%s: condition number %.3g", op, float64(cond))
	}
	return err
}
