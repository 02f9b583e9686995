package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gymbook/internal/slots"
)

// Sheet names of the day workbook.
const (
	UsageSheet      = "占用情况"
	SuggestionSheet = "推荐时段"
)

// DayReport collects what the day workbook shows.
type DayReport struct {
	Date        string
	Snapshot    *slots.Snapshot
	Capacity    int
	Catalog     []slots.CandidateSlot
	Suggestions []slots.Suggestion
}

// Filename is the suggested download name.
func (r DayReport) Filename() string {
	return fmt.Sprintf("gymbook_%s.xlsx", r.Date)
}

// Write renders the workbook to out. Usage rows cover every occupied slot of the day plus every
// catalog slot, in time order.
func (r DayReport) Write(out io.Writer) error {
	w := newSheetWriter()
	defer w.close()

	if err := r.writeUsage(w); err != nil {
		return fmt.Errorf("usage sheet: %w", err)
	}
	if err := r.writeSuggestions(w); err != nil {
		return fmt.Errorf("suggestion sheet: %w", err)
	}
	return w.save(out)
}

func (r DayReport) writeUsage(w *sheetWriter) error {
	if err := w.addSheet(UsageSheet); err != nil {
		return err
	}
	if err := w.writeHeader("时间", "课程预约", "私教预约", "剩余名额", "详情"); err != nil {
		return err
	}

	capacity := r.Capacity
	if capacity <= 0 {
		capacity = slots.DefaultCapacity
	}
	for _, t := range r.times() {
		u, _ := r.Snapshot.UsageAt(r.Date, t)
		details := strings.Join(r.Snapshot.ConflictDetails(r.Date, t), "；")
		if err := w.writeRow(t, u.CourseCount, u.CoachCount, r.Snapshot.Remaining(r.Date, t, capacity), details); err != nil {
			return err
		}
	}
	return nil
}

func (r DayReport) writeSuggestions(w *sheetWriter) error {
	if err := w.addSheet(SuggestionSheet); err != nil {
		return err
	}
	if err := w.writeHeader("时间", "时段", "分数", "原因", "剩余名额", "冲突"); err != nil {
		return err
	}
	for _, s := range r.Suggestions {
		conflict := "否"
		if s.Conflict {
			conflict = "是"
		}
		if err := w.writeRow(s.Time, s.Period, s.Score, s.Reason, s.Remaining, conflict); err != nil {
			return err
		}
	}
	return nil
}

func (r DayReport) times() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, t := range r.Snapshot.SlotsOn(r.Date) {
		add(t)
	}
	for _, c := range r.Catalog {
		add(c.Time)
	}
	sort.Strings(out)
	return out
}
