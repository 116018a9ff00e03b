package scheduling

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteWorkbookOneSheetPerDay(t *testing.T) {
	day1 := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	rows := []Row{
		{Start: day1.Add(time.Hour), Court: 1, Group: "Grup A", Side1: "Ali", Side2: "Veli"},
		{Start: day1, Court: 2, Group: "Grup B", Side1: "Ayşe", Side2: "Fatma"},
		{Start: day1, Court: 1, Group: "Grup A", Side1: "Can", Side2: "Cem", Referee: "Ali"},
		{Start: day2, Court: 1, Round: "Final", Side1: "Ali", Side2: "Can"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"02.05.2026", "03.05.2026"}, f.GetSheetList())

	first, err := f.GetRows("02.05.2026")
	require.NoError(t, err)
	require.Len(t, first, 4)
	assert.Equal(t, "Saat", first[0][0])
	assert.Equal(t, []string{"09:00", "1", "", "Grup A", "", "Can", "Cem", "Ali"}, first[1])
	assert.Equal(t, "2", first[2][1])
	assert.Equal(t, "10:00", first[3][0])

	second, err := f.GetRows("03.05.2026")
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "Final", second[1][4])
}

func TestWriteWorkbookEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Sheet1"}, f.GetSheetList())
}
