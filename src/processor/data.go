// data.go
package processor

import (
	"MinWageDiD/src/errs"
	"MinWageDiD/src/utils"

	"github.com/go-gota/gota/dataframe"
)

// DataProcessor 持有共享的数据表，插补会直接修改它，
// 之后构建的每个模型都看到修改后的数据
type DataProcessor struct {
	df     dataframe.DataFrame
	schema Schema
}

// NewDataProcessor 校验数据表后创建处理器
func NewDataProcessor(df dataframe.DataFrame, schema Schema) (*DataProcessor, error) {
	if err := schema.Validate(df); err != nil {
		return nil, err
	}
	return &DataProcessor{df: df, schema: schema}, nil
}

// DF 返回当前数据表
func (p *DataProcessor) DF() dataframe.DataFrame {
	return p.df
}

// MissingCounts 统计各列缺失值个数
func (p *DataProcessor) MissingCounts(cols ...Column) map[Column]int {
	if len(cols) == 0 {
		cols = p.schema.Columns
	}
	counts := make(map[Column]int, len(cols))
	for _, c := range cols {
		if !utils.HasColumn(p.df, string(c)) {
			continue
		}
		counts[c] = utils.CountNaN(p.df.Col(string(c)).Float())
	}
	return counts
}

// Describe 返回必需列的描述统计
func (p *DataProcessor) Describe() dataframe.DataFrame {
	return p.df.Select(p.schema.Names()).Describe()
}

// Response 取出因变量
func (p *DataProcessor) Response(c Column) ([]float64, error) {
	return FloatColumn(p.df, c)
}

// Design 按模型定义构建设计矩阵
func (p *DataProcessor) Design(m ModelSpec) (*Design, error) {
	cols, err := p.schema.Expand(m)
	if err != nil {
		return nil, err
	}
	return BuildDesign(p.df, cols)
}

// Fit 构建设计矩阵并拟合 OLS
func (p *DataProcessor) Fit(m ModelSpec) (*OLSResult, error) {
	d, err := p.Design(m)
	if err != nil {
		return nil, err
	}
	y, err := p.Response(m.Response)
	if err != nil {
		return nil, err
	}
	res, err := FitOLS(d, y)
	if err != nil {
		return nil, err
	}
	res.Model = m.Name
	res.Response = m.Response
	return res, nil
}

// FloatColumn 读取数值列，列不存在时报 InvalidInput
func FloatColumn(df dataframe.DataFrame, c Column) ([]float64, error) {
	if !utils.HasColumn(df, string(c)) {
		return nil, errs.InvalidInput("missing column %q", c)
	}
	return df.Col(string(c)).Float(), nil
}
