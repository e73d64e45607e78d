// reader.go
package file

import (
	"MinWageDiD/src/errs"
	"MinWageDiD/src/utils"
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// DefaultNaNValues 读取时视为缺失的单元格内容
var DefaultNaNValues = []string{"", "NA", "NaN", "nan", ".", "<nil>"}

// ReadOptions 读取选项
type ReadOptions struct {
	// 数值列。表头按不区分大小写匹配后统一改成这里的写法，并按 Float 解析
	Columns []string

	Sheet     string   // xlsx 工作表名，空则取第一个
	Encoding  string   // 文本编码(IANA 名称)，空则按 UTF-8
	Delimiter rune     // 分隔符，0 表示逗号
	NaNValues []string // 缺失值标记，nil 使用 DefaultNaNValues
}

// ReadTable 把 csv 或 xlsx 文件读成 DataFrame，保持行顺序和列名
func ReadTable(path string, opts ReadOptions) (dataframe.DataFrame, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		records, err = readXLSXRecords(path, opts.Sheet)
	default:
		records, err = readCSVRecords(path, opts)
	}
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return loadRecords(path, records, opts)
}

func readCSVRecords(path string, opts ReadOptions) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.DataAccess(path, err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if opts.Encoding != "" {
		enc, err := ianaindex.IANA.Encoding(opts.Encoding)
		if err != nil || enc == nil {
			return nil, errs.DataAccess(path, fmt.Errorf("unsupported encoding %q", opts.Encoding))
		}
		r = transform.NewReader(r, enc.NewDecoder())
	}

	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, errs.DataAccess(path, err)
	}
	if len(records) == 0 {
		return nil, errs.DataAccess(path, errors.New("no header row"))
	}
	return records, nil
}

// readXLSXRecords 第一行为表头，后面每行一条记录
func readXLSXRecords(path, sheetName string) ([][]string, error) {
	xlFile, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, errs.DataAccess(path, err)
	}
	if len(xlFile.Sheets) == 0 {
		return nil, errs.DataAccess(path, errors.New("excel文件中没有工作表"))
	}

	sheet := xlFile.Sheets[0]
	if sheetName != "" {
		s, ok := xlFile.Sheet[sheetName]
		if !ok {
			return nil, errs.DataAccess(path, fmt.Errorf("sheet %q not found", sheetName))
		}
		sheet = s
	}
	if len(sheet.Rows) == 0 {
		return nil, errs.DataAccess(path, fmt.Errorf("sheet %q has no rows", sheet.Name))
	}

	var headers []string
	for _, cell := range sheet.Rows[0].Cells {
		headers = append(headers, cell.String())
	}
	// 去掉表头末尾的空列
	for len(headers) > 0 && strings.TrimSpace(headers[len(headers)-1]) == "" {
		headers = headers[:len(headers)-1]
	}
	if len(headers) == 0 {
		return nil, errs.DataAccess(path, errors.New("empty header row"))
	}

	records := [][]string{headers}
	for _, row := range sheet.Rows[1:] {
		if row == nil {
			continue
		}
		rec := make([]string, len(headers))
		empty := true
		for i, cell := range row.Cells {
			if i >= len(headers) { // 确保不超出列数范围
				break
			}
			rec[i] = cell.String()
			if rec[i] != "" {
				empty = false
			}
		}
		if !empty {
			records = append(records, rec)
		}
	}
	return records, nil
}

// loadRecords 规范化表头后交给 gota
func loadRecords(path string, records [][]string, opts ReadOptions) (dataframe.DataFrame, error) {
	header := records[0]
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	types := make(map[string]series.Type, len(opts.Columns))
	for _, c := range opts.Columns {
		if idx := utils.IndexFold(header, c); idx >= 0 {
			header[idx] = c
			types[c] = series.Float
		}
	}

	nanValues := opts.NaNValues
	if nanValues == nil {
		nanValues = DefaultNaNValues
	}
	if err := checkNumeric(records, types, nanValues); err != nil {
		return dataframe.DataFrame{}, errs.DataAccess(path, err)
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(nanValues),
		dataframe.WithTypes(types),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, errs.DataAccess(path, df.Err)
	}
	return df, nil
}

// checkNumeric 数值列中除缺失值标记外必须都能解析为浮点数，
// 否则 gota 会把它当作缺失值
func checkNumeric(records [][]string, types map[string]series.Type, nanValues []string) error {
	header := records[0]
	for i, name := range header {
		if _, ok := types[name]; !ok {
			continue
		}
		for row, rec := range records[1:] {
			if i >= len(rec) {
				continue
			}
			v := rec[i]
			if utils.Contains(nanValues, v) {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return fmt.Errorf("column %q row %d: %q is not numeric", name, row+1, v)
			}
		}
	}
	return nil
}
