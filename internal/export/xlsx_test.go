package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteWorkbook(path, buildTestReport()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t,
		[]string{SheetTechnology, SheetCapacity, SheetAssumptions, SheetTables, SheetStreets, SheetSweep},
		f.GetSheetList())

	cell := func(sheet, ref string) string {
		t.Helper()
		v, err := f.GetCellValue(sheet, ref)
		require.NoError(t, err)
		return v
	}

	t.Run("technology", func(t *testing.T) {
		assert.Equal(t, "Test 400", cell(SheetTechnology, "B2"))
		assert.Equal(t, "Fixed", cell(SheetTechnology, "B4"))
	})

	t.Run("capacity", func(t *testing.T) {
		assert.Equal(t, "DC capacity", cell(SheetCapacity, "A2"))
		assert.Equal(t, "0.0032", cell(SheetCapacity, "B2"))
		assert.Equal(t, "8", cell(SheetCapacity, "B4"))
	})

	t.Run("assumptions", func(t *testing.T) {
		assert.Equal(t, "0.024", cell(SheetAssumptions, "B2"))
		assert.Equal(t, "1", cell(SheetAssumptions, "B3"))
		assert.Equal(t, "2P", cell(SheetAssumptions, "B4"))
		assert.Equal(t, "28", cell(SheetAssumptions, "B5"))
		assert.Equal(t, "4", cell(SheetAssumptions, "B7"))
		assert.Equal(t, "Modules to order", cell(SheetAssumptions, "A13"))
		assert.Equal(t, "8", cell(SheetAssumptions, "B13"))
	})

	t.Run("tables", func(t *testing.T) {
		rows, err := f.GetRows(SheetTables)
		require.NoError(t, err)
		require.Len(t, rows, 5)
		assert.Equal(t, []string{"2", "1", "1", "2", "1", "4", "2", "2"}, rows[2])
	})

	t.Run("streets", func(t *testing.T) {
		rows, err := f.GetRows(SheetStreets)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, []string{"1", "1", "5", "9", "0", "12", "4"}, rows[1])
	})

	t.Run("sweep", func(t *testing.T) {
		rows, err := f.GetRows(SheetSweep)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "yes", rows[1][6])
		assert.Equal(t, "2", rows[2][0])
		assert.Equal(t, "1600", rows[2][4])
	})
}

func TestWriteWorkbook_DefaultRacking(t *testing.T) {
	rep := buildTestReport()
	rep.Racking = ""

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteWorkbook(path, rep))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(SheetTechnology, "B4")
	require.NoError(t, err)
	assert.Equal(t, "Fixed", v)
}

func TestWriteWorkbook_Tracker(t *testing.T) {
	rep := buildTestReport()
	rep.Racking = "Tracker"

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteWorkbook(path, rep))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(SheetAssumptions, "B4")
	require.NoError(t, err)
	assert.Equal(t, "1P", v)
}
