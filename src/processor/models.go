package processor

// ModelSpec 一个回归模型：因变量和有序的回归项
type ModelSpec struct {
	Name     string
	Response Column
	Terms    []Term
}

var didTerms = []Term{NJ, Post, NJPost}

// Model1 基础双重差分：地区、时期及其交互项
var Model1 = ModelSpec{
	Name:     "Model 1",
	Response: FTE,
	Terms:    didTerms,
}

// Model2 加入品牌虚拟变量
var Model2 = ModelSpec{
	Name:     "Model 2",
	Response: FTE,
	Terms:    append(append([]Term{}, didTerms...), Brand),
}

// Model3 再加入直营和子区域
var Model3 = ModelSpec{
	Name:     "Model 3",
	Response: FTE,
	Terms:    append(append([]Term{}, didTerms...), Brand, CoOwned, SubRegion),
}

// DefaultModels 按顺序返回三个模型
func DefaultModels() []ModelSpec {
	return []ModelSpec{Model1, Model2, Model3}
}
