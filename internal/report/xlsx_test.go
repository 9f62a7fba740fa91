package report_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/geo-attendance/internal/attendance"
	"github.com/example/geo-attendance/internal/report"
	"github.com/example/geo-attendance/internal/testfixtures"
)

func TestWriteXLSX(t *testing.T) {
	records := []attendance.Record{
		testfixtures.NewRecord(testfixtures.WithRecordID("b"), testfixtures.WithRecordName("Bob"), testfixtures.WithRecordPoint(testfixtures.OutsidePoint())),
		testfixtures.NewRecord(testfixtures.WithRecordID("a"), testfixtures.WithRecordName("Alice"), testfixtures.WithRecordNote("present")),
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteXLSX(&buf, records))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(report.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"ID", "Name", "Result", "Latitude", "Longitude", "Accuracy (m)", "Submitted At", "In Zone"}, rows[0])
	assert.Equal(t, "b", rows[1][0])
	assert.Equal(t, "Bob", rows[1][1])
	assert.Equal(t, "no", rows[1][7])
	assert.Equal(t, "Alice", rows[2][1])
	assert.Equal(t, "present", rows[2][2])
	assert.Equal(t, records[1].SubmittedAt, rows[2][6])
	assert.Equal(t, "yes", rows[2][7])
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(report.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
