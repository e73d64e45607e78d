package processor

import (
	"MinWageDiD/src/errs"
	"math"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"
)

// Design 设计矩阵，第0列为截距(全1)，Names 与列一一对应
type Design struct {
	X     *mat.Dense
	Names []string
}

// BuildDesign 按给定顺序取列，保持行顺序，并在最前面加一列1
func BuildDesign(df dataframe.DataFrame, cols []Column) (*Design, error) {
	n := df.Nrow()
	if n == 0 {
		return nil, errs.InvalidInput("empty table")
	}

	p := len(cols) + 1
	x := mat.NewDense(n, p, nil)
	names := make([]string, 0, p)

	names = append(names, Intercept)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
	}

	for j, c := range cols {
		vals, err := FloatColumn(df, c)
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			if math.IsNaN(v) {
				return nil, errs.InvalidInput("column %q has a missing value at row %d", c, i)
			}
			x.Set(i, j+1, v)
		}
		names = append(names, string(c))
	}

	return &Design{X: x, Names: names}, nil
}

// Dims 返回行数和列数(含截距)
func (d *Design) Dims() (n, p int) {
	return d.X.Dims()
}

// Labels 用显示名称函数生成报告标签，顺序与列一致
func (d *Design) Labels(label func(string) string) []string {
	return displayLabels(d.Names, label)
}

// 截距保留原名
func displayLabels(names []string, label func(string) string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		if i == 0 || label == nil {
			out[i] = name
			continue
		}
		out[i] = label(name)
	}
	return out
}
