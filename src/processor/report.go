package processor

import (
	"MinWageDiD/src/errs"
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"
)

// 条件数超过该值时在报告中提示多重共线性
const CondNoWarn = 1000

// Render 输出单个模型的系数表和拟合统计
//
// labels 的数量必须与系数个数一致，否则返回 ErrLabelMismatch 且不输出任何内容。
func Render(w io.Writer, r *OLSResult, yName string, labels []string) error {
	if len(labels) != len(r.Coef) {
		return fmt.Errorf("%w: %d labels for %d coefficients", errs.ErrLabelMismatch, len(labels), len(r.Coef))
	}

	nameWidth := len("intercept")
	for _, l := range labels {
		nameWidth = max(nameWidth, len(l))
	}
	width := nameWidth + 6*12
	sep := strings.Repeat("=", width)
	thin := strings.Repeat("-", width)

	var buf bytes.Buffer
	title := "OLS Regression Results"
	if r.Model != "" {
		title += ": " + r.Model
	}
	fmt.Fprintln(&buf, sep)
	fmt.Fprintf(&buf, "%*s\n", (width+len(title))/2, title)
	fmt.Fprintln(&buf, sep)

	left := [][2]string{
		{"Dep. Variable:", yName},
		{"Model:", "OLS"},
		{"No. Observations:", fmt.Sprintf("%d", r.NObs)},
		{"Df Residuals:", fmt.Sprintf("%d", r.DFResid)},
		{"Df Model:", fmt.Sprintf("%d", r.DFModel)},
		{"Covariance Type:", "nonrobust"},
	}
	right := [][2]string{
		{"R-squared:", fmtStat(r.RSquared, 3)},
		{"Adj. R-squared:", fmtStat(r.AdjRSquared, 3)},
		{"F-statistic:", fmtStat(r.FValue, 3)},
		{"Prob (F-statistic):", fmtStat(r.FPValue, 3)},
		{"Log-Likelihood:", fmtStat(r.LogLik, 2)},
		{"AIC:", fmtStat(r.AIC, 1)},
		{"BIC:", fmtStat(r.BIC, 1)},
	}
	for i := 0; i < len(right); i++ {
		var l [2]string
		if i < len(left) {
			l = left[i]
		}
		fmt.Fprintf(&buf, "%-20s%16s    %-20s%16s\n", l[0], l[1], right[i][0], right[i][1])
	}

	fmt.Fprintln(&buf, sep)
	fmt.Fprintf(&buf, "%-*s%12s%12s%12s%12s%12s%12s\n",
		nameWidth, "", "coef", "std err", "t", "P>|t|", "[0.025", "0.975]")
	fmt.Fprintln(&buf, thin)
	for j, l := range labels {
		fmt.Fprintf(&buf, "%-*s%12s%12s%12s%12s%12s%12s\n",
			nameWidth, l,
			fmtStat(r.Coef[j], 4),
			fmtStat(r.StdErr[j], 3),
			fmtStat(r.TValue[j], 3),
			fmtStat(r.PValue[j], 3),
			fmtStat(r.ConfLow[j], 3),
			fmtStat(r.ConfHigh[j], 3))
	}
	fmt.Fprintln(&buf, sep)
	fmt.Fprintf(&buf, "Cond. No. %s\n", fmtStat(r.CondNo, 3))
	if r.CondNo > CondNoWarn {
		fmt.Fprintln(&buf, "Note: the condition number is large, which may indicate strong multicollinearity.")
	}
	if r.DFResid == 0 {
		fmt.Fprintln(&buf, "Note: zero residual degrees of freedom, inference statistics are undefined.")
	}
	fmt.Fprintln(&buf)

	_, err := w.Write(buf.Bytes())
	return err
}

// Labels 与 Design.Labels 相同，按拟合时的列名生成标签
func (r *OLSResult) Labels(label func(string) string) []string {
	return displayLabels(r.Names, label)
}

func fmtStat(v float64, prec int) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return fmt.Sprintf("%.*f", prec, v)
}
