package datapush

import (
	"MinWageDiD/src/processor"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// SummarySheet 汇总各模型双重差分估计量的工作表
const SummarySheet = "DiD"

// Report 一个模型的结果及其显示标签
type Report struct {
	Result *processor.OLSResult
	Labels []string
	YName  string
}

// ExportExcel 每个模型一个工作表，最后附一张双重差分估计量汇总表
func ExportExcel(filePath string, reports []Report) error {
	if len(reports) == 0 {
		return fmt.Errorf("没有可导出的回归结果")
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for i, rep := range reports {
		sheet := sheetName(rep.Result, i)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		if err := writeModelSheet(f, sheet, rep, bold); err != nil {
			return fmt.Errorf("写入工作表 %s 失败: %w", sheet, err)
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	if err := writeSummarySheet(f, reports, bold); err != nil {
		return fmt.Errorf("写入汇总表失败: %w", err)
	}
	f.SetActiveSheet(0)

	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("保存Excel文件失败: %w", err)
	}
	return nil
}

func sheetName(r *processor.OLSResult, i int) string {
	if r.Model != "" {
		return r.Model
	}
	return fmt.Sprintf("Model %d", i+1)
}

func writeModelSheet(f *excelize.File, sheet string, rep Report, bold int) error {
	r := rep.Result
	if len(rep.Labels) != len(r.Coef) {
		return fmt.Errorf("%d labels for %d coefficients", len(rep.Labels), len(r.Coef))
	}

	header := []any{"Variable", "Coef", "Std Err", "t", "P>|t|", "[0.025", "0.975]"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "G1", bold); err != nil {
		return err
	}

	row := 2
	for j, label := range rep.Labels {
		vals := []any{label,
			cellValue(r.Coef[j]), cellValue(r.StdErr[j]), cellValue(r.TValue[j]),
			cellValue(r.PValue[j]), cellValue(r.ConfLow[j]), cellValue(r.ConfHigh[j])}
		if err := setRow(f, sheet, row, vals); err != nil {
			return err
		}
		row++
	}

	row++
	stats := [][]any{
		{"Dep. Variable", rep.YName},
		{"No. Observations", r.NObs},
		{"Df Model", r.DFModel},
		{"Df Residuals", r.DFResid},
		{"R-squared", cellValue(r.RSquared)},
		{"Adj. R-squared", cellValue(r.AdjRSquared)},
		{"F-statistic", cellValue(r.FValue)},
		{"Prob (F-statistic)", cellValue(r.FPValue)},
		{"Log-Likelihood", cellValue(r.LogLik)},
		{"AIC", cellValue(r.AIC)},
		{"BIC", cellValue(r.BIC)},
		{"Cond. No.", cellValue(r.CondNo)},
	}
	for _, s := range stats {
		if err := setRow(f, sheet, row, s); err != nil {
			return err
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellStyle(sheet, cell, cell, bold); err != nil {
			return err
		}
		row++
	}

	return f.SetColWidth(sheet, "A", "A", 24)
}

// writeSummarySheet 每个模型一行，取交互项 NJ_POST_APRIL92 的估计
func writeSummarySheet(f *excelize.File, reports []Report, bold int) error {
	header := []any{"Model", "DiD estimate", "Std Err", "P>|t|", "R-squared", "No. Observations"}
	if err := f.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "F1", bold); err != nil {
		return err
	}

	for i, rep := range reports {
		r := rep.Result
		vals := []any{sheetName(r, i), "", "", "", cellValue(r.RSquared), r.NObs}
		for j, name := range r.Names {
			if name == string(processor.NJPost) {
				vals[1], vals[2], vals[3] = cellValue(r.Coef[j]), cellValue(r.StdErr[j]), cellValue(r.PValue[j])
				break
			}
		}
		if err := setRow(f, SummarySheet, i+2, vals); err != nil {
			return err
		}
	}
	return f.SetColWidth(SummarySheet, "A", "F", 18)
}

func setRow(f *excelize.File, sheet string, row int, vals []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &vals)
}

// cellValue NaN 和 Inf 不能写成数值单元格
func cellValue(v float64) any {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 0):
		if v > 0 {
			return "inf"
		}
		return "-inf"
	}
	return v
}
