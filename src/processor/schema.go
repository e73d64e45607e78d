package processor

import (
	"MinWageDiD/src/errs"
	"MinWageDiD/src/utils"
	"strings"

	"github.com/go-gota/gota/dataframe"
)

// Column 数据表中的一列，所有环节都通过这些常量引用列名
type Column string

// njmin3 数据集用到的列
const (
	FTE      Column = "fte"             // 全职等效雇佣人数(因变量)
	DEMP     Column = "demp"            // 雇佣变化
	NJ       Column = "NJ"              // 新泽西(处理组)
	Post     Column = "POST_APRIL92"    // 1992年4月之后
	NJPost   Column = "NJ_POST_APRIL92" // 交互项
	BK       Column = "bk"              // Burger King
	KFC      Column = "kfc"             // KFC
	Roys     Column = "roys"            // Roy Rogers
	Wendys   Column = "wendys"          // Wendy's
	CoOwned  Column = "co_owned"        // 公司直营
	CentralJ Column = "centralj"        // 新泽西中部
	SouthJ   Column = "southj"          // 新泽西南部
)

// Intercept 设计矩阵第0列的名称
const Intercept = "intercept"

func (c Column) String() string { return string(c) }

// Indicators 单列作为回归项时就是它本身
func (c Column) Indicators() []Column { return []Column{c} }

// Term 回归式中的一项：单列或一组互斥的虚拟变量
type Term interface {
	Indicators() []Column
}

// Group 一组互斥的 one-hot 指示列
//
// Exhaustive 为 true 表示每条记录恰好属于其中一类，此时展开时去掉
// Reference 列，避免和截距项完全共线。为 false 表示基准类别没有对应的
// 列(全为0的记录)，展开时保留全部列。
type Group struct {
	Name       string
	Levels     []Column
	Reference  Column
	Exhaustive bool
}

// Indicators 返回 drop-one 编码后的列
func (g Group) Indicators() []Column {
	out := make([]Column, 0, len(g.Levels))
	for _, l := range g.Levels {
		if g.Exhaustive && l == g.Reference {
			continue
		}
		out = append(out, l)
	}
	return out
}

var (
	// Brand 四个连锁品牌，以 Roy Rogers 为基准
	Brand = Group{
		Name:       "brand",
		Levels:     []Column{BK, KFC, Roys, Wendys},
		Reference:  Roys,
		Exhaustive: true,
	}

	// SubRegion 新泽西中部/南部，基准为北部及宾夕法尼亚
	SubRegion = Group{
		Name:   "subregion",
		Levels: []Column{CentralJ, SouthJ},
	}
)

// Schema 数据集需要的列和分类变量组
type Schema struct {
	Columns []Column
	Groups  []Group
}

// NJMin Card & Krueger 数据集
var NJMin = Schema{
	Columns: []Column{FTE, DEMP, NJ, Post, NJPost, BK, KFC, Roys, Wendys, CoOwned, CentralJ, SouthJ},
	Groups:  []Group{Brand, SubRegion},
}

// Names 返回列名字符串，供读取时做表头规范化
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = string(c)
	}
	return names
}

// Validate 检查数据表是否包含全部必需列
func (s Schema) Validate(df dataframe.DataFrame) error {
	if df.Err != nil {
		return errs.InvalidInput("dataframe: %v", df.Err)
	}
	var missing []string
	for _, c := range s.Columns {
		if !utils.HasColumn(df, string(c)) {
			missing = append(missing, string(c))
		}
	}
	if len(missing) > 0 {
		return errs.InvalidInput("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Expand 把模型的回归项展开成列，同时检查重复列和虚拟变量陷阱
func (s Schema) Expand(m ModelSpec) ([]Column, error) {
	var cols []Column
	seen := make(map[Column]bool)
	for _, t := range m.Terms {
		for _, c := range t.Indicators() {
			if seen[c] {
				return nil, errs.InvalidInput("%s: column %q appears more than once", m.Name, c)
			}
			if c == m.Response {
				return nil, errs.InvalidInput("%s: response %q used as a regressor", m.Name, c)
			}
			seen[c] = true
			cols = append(cols, c)
		}
	}

	for _, g := range s.Groups {
		if !g.Exhaustive {
			continue
		}
		all := true
		for _, l := range g.Levels {
			if !seen[l] {
				all = false
				break
			}
		}
		if all {
			return nil, errs.InvalidInput("%s: all %d levels of group %q appear with an intercept (dummy variable trap)",
				m.Name, len(g.Levels), g.Name)
		}
	}
	return cols, nil
}

// CheckExclusive 统计违反 one-hot 互斥约束的行数
func CheckExclusive(df dataframe.DataFrame, g Group) (int, error) {
	sums := make([]float64, df.Nrow())
	for _, l := range g.Levels {
		if !utils.HasColumn(df, string(l)) {
			return 0, errs.InvalidInput("group %s: missing column %q", g.Name, l)
		}
		for i, v := range df.Col(string(l)).Float() {
			sums[i] += v
		}
	}

	violations := 0
	for _, s := range sums {
		switch {
		case g.Exhaustive && s != 1:
			violations++
		case !g.Exhaustive && s > 1:
			violations++
		}
	}
	return violations, nil
}
