package slots

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	unknownCourse = "未知课程"
	unknownCoach  = "未知教练"
)

// ConflictSummary explains which of a member's bookings occupy a slot.
type ConflictSummary struct {
	Total             int      `json:"total"`
	Description       string   `json:"description"` // "课程预约1个，私教预约2个"
	Details           []string `json:"details"`
	HasCourseConflict bool     `json:"has_course_conflict"`
	HasCoachConflict  bool     `json:"has_coach_conflict"`
}

// HasConflict reports whether the slot already holds a booking of either kind.
func (s *Snapshot) HasConflict(date, hhmm string) bool {
	course, coach := s.usedAt(date, hhmm)
	return course > 0 || coach > 0
}

// ConflictDetails returns one line per booking in the slot, course bookings first.
func (s *Snapshot) ConflictDetails(date, hhmm string) []string {
	u, ok := s.UsageAt(date, hhmm)
	if !ok {
		return nil
	}

	details := make([]string, 0, u.Total())
	for i := range u.CourseItems {
		b := &u.CourseItems[i]
		name := b.CourseName
		if name == "" {
			name = unknownCourse
		}
		line := "课程预约：" + name
		if b.HasCoach() {
			line += "（" + b.CoachName + "）"
		}
		details = append(details, line)
	}
	for i := range u.CoachItems {
		b := &u.CoachItems[i]
		name := b.CoachName
		if name == "" {
			name = unknownCoach
		}
		line := "私教预约：" + name
		if b.HasPrice() {
			line += " ¥" + strconv.FormatFloat(*b.Price, 'f', -1, 64)
		}
		details = append(details, line)
	}
	return details
}

// ConflictSummary returns nil when the slot is free.
func (s *Snapshot) ConflictSummary(date, hhmm string) *ConflictSummary {
	course, coach := s.usedAt(date, hhmm)
	if course+coach == 0 {
		return nil
	}

	var parts []string
	if course > 0 {
		parts = append(parts, fmt.Sprintf("课程预约%d个", course))
	}
	if coach > 0 {
		parts = append(parts, fmt.Sprintf("私教预约%d个", coach))
	}

	return &ConflictSummary{
		Total:             course + coach,
		Description:       strings.Join(parts, "，"),
		Details:           s.ConflictDetails(date, hhmm),
		HasCourseConflict: course > 0,
		HasCoachConflict:  coach > 0,
	}
}

// ConflictMessage renders the summary as one sentence, or "" when there is no conflict.
func (s *Snapshot) ConflictMessage(date, hhmm string) string {
	summary := s.ConflictSummary(date, hhmm)
	if summary == nil {
		return ""
	}
	if summary.Total == 1 {
		return "该时段已有预约：" + summary.Details[0]
	}
	return fmt.Sprintf("该时段已有%d个预约（%s）", summary.Total, summary.Description)
}
