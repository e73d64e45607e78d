package processor

import (
	"MinWageDiD/src/errs"
	"math"

	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"
)

// Impute 用列均值替换缺失值
//
// 均值只在非缺失值上计算。整列缺失时均值无定义，返回 InvalidInput，
// 不做零值填充。对已无缺失的列重复调用不会改变数据。
func (p *DataProcessor) Impute(cols ...Column) (map[Column]float64, error) {
	df := p.df
	means := make(map[Column]float64, len(cols))

	for _, c := range cols {
		vals, err := FloatColumn(df, c)
		if err != nil {
			return nil, err
		}

		observed := make([]float64, 0, len(vals))
		for _, v := range vals {
			if !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}
		if len(observed) == 0 {
			return nil, errs.InvalidInput("column %q has no observed values, mean is undefined", c)
		}

		mean := stat.Mean(observed, nil)
		for i, v := range vals {
			if math.IsNaN(v) {
				vals[i] = mean
			}
		}

		df = df.Mutate(series.New(vals, series.Float, string(c)))
		if df.Err != nil {
			return nil, errs.InvalidInput("impute %q: %v", c, df.Err)
		}
		means[c] = mean
	}

	p.df = df
	return means, nil
}
