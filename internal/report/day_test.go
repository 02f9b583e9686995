package report

import (
	"bytes"
	"testing"

	"gymbook/internal/models"
	"gymbook/internal/slots"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const day = "2024-05-01"

func TestDayReport_Write(t *testing.T) {
	snap := slots.BuildSnapshot(
		[]models.CourseBooking{{CourseName: "Yoga", CoachName: "Li", SlotTime: day + " 09:00:00"}},
		[]models.CoachBooking{{CoachName: "Wang", SlotTime: day + " 10:15:00"}},
		slots.Meta{Scope: "self", Account: "m1"},
	)
	catalog := []slots.CandidateSlot{{Time: "09:00", Period: "上午"}, {Time: "18:30", Period: "傍晚"}}
	rec := slots.NewRecommender(12)
	rec.Catalog = catalog

	r := DayReport{
		Date:        day,
		Snapshot:    snap,
		Capacity:    12,
		Catalog:     catalog,
		Suggestions: rec.Suggest(snap, day, ""),
	}
	assert.Equal(t, "gymbook_2024-05-01.xlsx", r.Filename())

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{UsageSheet, SuggestionSheet}, f.GetSheetList())

	rows, err := f.GetRows(UsageSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"时间", "课程预约", "私教预约", "剩余名额", "详情"}, rows[0])
	assert.Equal(t, []string{"09:00", "1", "0", "11", "课程预约：Yoga（Li）"}, rows[1])
	assert.Equal(t, []string{"10:15", "0", "1", "11", "私教预约：Wang"}, rows[2])
	require.GreaterOrEqual(t, len(rows[3]), 4)
	assert.Equal(t, []string{"18:30", "0", "0", "12"}, rows[3][:4])

	rows, err = f.GetRows(SuggestionSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "18:30", rows[1][0])
	assert.Equal(t, "15", rows[1][2])
	assert.Equal(t, "否", rows[1][5])
	assert.Equal(t, "09:00", rows[2][0])
	assert.Equal(t, "是", rows[2][5])
}

func TestDayReport_EmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DayReport{Date: day}.Write(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(UsageSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSheetWriter_NoSheet(t *testing.T) {
	w := newSheetWriter()
	defer w.close()
	assert.ErrorIs(t, w.writeRow("x"), errNoSheet)
}
