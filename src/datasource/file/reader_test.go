package file

import (
	"MinWageDiD/src/errs"
	"MinWageDiD/src/utils"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var numericCols = []string{"fte", "demp", "NJ", "POST_APRIL92", "NJ_POST_APRIL92"}

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func TestReadCSVNormalizesHeaders(t *testing.T) {
	path := writeTemp(t, "njmin3.csv", []byte(
		"\ufeffnj,post_april92,NJ_POST_APRIL92,FTE,demp,chain\n"+
			"1,0,0,15.5,NA,bk\n"+
			"1,1,1,,2,kfc\n"+
			"0,0,0,20,-1.5,roys\n"))

	df, err := ReadTable(path, ReadOptions{Columns: numericCols})
	require.NoError(t, err)

	assert.Equal(t, 3, df.Nrow())
	for _, c := range numericCols {
		assert.True(t, utils.HasColumn(df, c), c)
		assert.Equal(t, series.Float, df.Col(c).Type(), c)
	}
	assert.True(t, utils.HasColumn(df, "chain"))

	fte := df.Col("fte").Float()
	assert.Equal(t, 15.5, fte[0])
	assert.True(t, math.IsNaN(fte[1]))
	assert.Equal(t, 20.0, fte[2])
	assert.True(t, math.IsNaN(df.Col("demp").Float()[0]))
	assert.Equal(t, []string{"bk", "kfc", "roys"}, df.Col("chain").Records())
}

func TestReadCSVMissingFile(t *testing.T) {
	_, err := ReadTable(filepath.Join(t.TempDir(), "nope.csv"), ReadOptions{})
	require.ErrorIs(t, err, errs.ErrDataAccess)
}

func TestReadCSVMalformed(t *testing.T) {
	path := writeTemp(t, "bad.csv", []byte("NJ,fte\n1,2\n3\n"))
	_, err := ReadTable(path, ReadOptions{Columns: numericCols})
	require.ErrorIs(t, err, errs.ErrDataAccess)

	empty := writeTemp(t, "empty.csv", nil)
	_, err = ReadTable(empty, ReadOptions{})
	require.ErrorIs(t, err, errs.ErrDataAccess)
}

func TestReadCSVRejectsNonNumeric(t *testing.T) {
	path := writeTemp(t, "typo.csv", []byte(
		"NJ,fte,demp,chain\n"+
			"1,20,1,bk\n"+
			"1,2O.5,NA,kfc\n"+
			"0,18,,roys\n"))

	_, err := ReadTable(path, ReadOptions{Columns: numericCols})
	require.ErrorIs(t, err, errs.ErrDataAccess)
	assert.Contains(t, err.Error(), `column "fte" row 2: "2O.5" is not numeric`)

	// 非必需列允许文本
	ok := writeTemp(t, "ok.csv", []byte("NJ,fte,chain\n1,20,bk\n0,NaN,kfc\n"))
	df, err := ReadTable(ok, ReadOptions{Columns: numericCols})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(df.Col("fte").Float()[1]))
}

func TestReadCSVDelimiterAndEncoding(t *testing.T) {
	// windows-1252 编码，0xE9 为 é
	content := []byte("NJ;fte;caf\xe9\n1;10;x\n0;8;y\n")
	path := writeTemp(t, "latin.csv", content)

	df, err := ReadTable(path, ReadOptions{
		Columns:   numericCols,
		Delimiter: ';',
		Encoding:  "windows-1252",
	})
	require.NoError(t, err)
	assert.True(t, utils.HasColumn(df, "café"))
	assert.Equal(t, []float64{10, 8}, df.Col("fte").Float())

	_, err = ReadTable(path, ReadOptions{Encoding: "no-such-charset"})
	assert.ErrorIs(t, err, errs.ErrDataAccess)
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "njmin3.xlsx")
	f := excelize.NewFile()
	rows := [][]any{
		{"NJ", "POST_APRIL92", "FTE"},
		{1, 0, 12.5},
		{0, 1, nil},
		{0, 0, 9},
	}
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	df, err := ReadTable(path, ReadOptions{Columns: numericCols})
	require.NoError(t, err)
	assert.Equal(t, 3, df.Nrow())
	fte := df.Col("fte").Float()
	assert.Equal(t, 12.5, fte[0])
	assert.True(t, math.IsNaN(fte[1]))
	assert.Equal(t, 9.0, fte[2])
	assert.Equal(t, []float64{1, 0, 0}, df.Col("NJ").Float())

	_, err = ReadTable(path, ReadOptions{Sheet: "Sheet1"})
	require.NoError(t, err)

	_, err = ReadTable(path, ReadOptions{Sheet: "missing"})
	assert.ErrorIs(t, err, errs.ErrDataAccess)
}
