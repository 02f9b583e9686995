package database

import (
	"context"
	"database/sql"
	"fmt"

	"gymbook/internal/models"
	"gymbook/internal/source"
)

var (
	_ source.CourseLister = (*DB)(nil)
	_ source.CoachLister  = (*DB)(nil)
)

// CreateCourseBooking inserts a course booking and sets its ID.
func (db *DB) CreateCourseBooking(ctx context.Context, b *models.CourseBooking) error {
	res, err := db.ExecContext(ctx,
		`INSERT INTO course_bookings (account, course_name, coach_name, slot_time) VALUES (?, ?, ?, ?)`,
		b.Account, b.CourseName, nullString(b.CoachName), nullString(b.SlotTime),
	)
	if err != nil {
		return fmt.Errorf("insert course booking: %w", err)
	}
	b.ID, err = res.LastInsertId()
	return err
}

// CreateCoachBooking inserts a personal-training booking and sets its ID.
func (db *DB) CreateCoachBooking(ctx context.Context, b *models.CoachBooking) error {
	var price sql.NullFloat64
	if b.Price != nil {
		price = sql.NullFloat64{Float64: *b.Price, Valid: true}
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO coach_bookings (account, coach_name, price, slot_time) VALUES (?, ?, ?, ?)`,
		b.Account, b.CoachName, price, nullString(b.SlotTime),
	)
	if err != nil {
		return fmt.Errorf("insert coach booking: %w", err)
	}
	b.ID, err = res.LastInsertId()
	return err
}

// ListCourseBookings returns one page of course bookings in insertion order.
func (db *DB) ListCourseBookings(ctx context.Context, req source.ListRequest) (*source.CourseList, error) {
	req = req.Normalize()
	query := `SELECT id, account, course_name, coach_name, slot_time FROM course_bookings`
	args := []any{}
	if req.AccountFilter != "" {
		query += ` WHERE account = ?`
		args = append(args, req.AccountFilter)
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, req.Limit, req.Offset())

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query course bookings: %w", err)
	}
	defer rows.Close()

	out := &source.CourseList{List: []models.CourseBooking{}}
	for rows.Next() {
		var b models.CourseBooking
		var coach, slot sql.NullString
		if err := rows.Scan(&b.ID, &b.Account, &b.CourseName, &coach, &slot); err != nil {
			return nil, fmt.Errorf("scan course booking: %w", err)
		}
		b.CoachName = coach.String
		b.SlotTime = slot.String
		out.List = append(out.List, b)
	}
	return out, rows.Err()
}

// ListCoachBookings returns one page of personal-training bookings in insertion order.
func (db *DB) ListCoachBookings(ctx context.Context, req source.ListRequest) (*source.CoachList, error) {
	req = req.Normalize()
	query := `SELECT id, account, coach_name, price, slot_time FROM coach_bookings`
	args := []any{}
	if req.AccountFilter != "" {
		query += ` WHERE account = ?`
		args = append(args, req.AccountFilter)
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, req.Limit, req.Offset())

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query coach bookings: %w", err)
	}
	defer rows.Close()

	out := &source.CoachList{List: []models.CoachBooking{}}
	for rows.Next() {
		var b models.CoachBooking
		var price sql.NullFloat64
		var slot sql.NullString
		if err := rows.Scan(&b.ID, &b.Account, &b.CoachName, &price, &slot); err != nil {
			return nil, fmt.Errorf("scan coach booking: %w", err)
		}
		if price.Valid {
			b.Price = models.PriceOf(price.Float64)
		}
		b.SlotTime = slot.String
		out.List = append(out.List, b)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
