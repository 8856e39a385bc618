// Package gradestore keeps day-grained grade history per course, so a
// household can see movement over time even though the portal only
// ever shows the current value.
package gradestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/dp-pcs/noah-hw-mcp/lib/gradestore/db"
	"github.com/dp-pcs/noah-hw-mcp/lib/sqliteutil"
	"github.com/dp-pcs/noah-hw-mcp/lib/timezone"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

// Open opens the snapshot database at path, creating it and its schema
// on first use.
func Open(path string) (Store, error) {
	database, err := sqliteutil.OpenDB(db.Schema, path)
	if err != nil {
		return Store{}, err
	}
	return NewStore(database), nil
}

func (s Store) Close() error {
	return s.db.Close()
}

type CourseSnapshot struct {
	Course string
	Value  float64
}

type PushRequest struct {
	Time    time.Time
	Courses []CourseSnapshot
}

// Push records one snapshot per course. Pushing twice in one day
// replaces that day's snapshots instead of stacking them: a scrape is
// a reading, not an event.
func (s Store) Push(ctx context.Context, req PushRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	startOfToday := timezone.StartOfDay(req.Time)
	startOfTomorrow := startOfToday.AddDate(0, 0, 1)

	err = txqry.DeleteGradeSnapshotsIn(ctx, db.DeleteGradeSnapshotsInParams{
		After:  startOfToday.Unix(),
		Before: startOfTomorrow.Unix(),
	})
	if err != nil {
		return err
	}

	for _, course := range req.Courses {
		err := txqry.CreateCourse(ctx, course.Course)
		if err != nil {
			return err
		}
		courseId, err := txqry.GetCourseId(ctx, course.Course)
		if err != nil {
			return err
		}
		err = txqry.CreateGradeSnapshot(ctx, db.CreateGradeSnapshotParams{
			CourseID: courseId,
			Time:     req.Time.Unix(),
			Value:    course.Value,
		})
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

type GradeSnapshot struct {
	Time  time.Time
	Value float32
}

type CourseSnapshotSeries struct {
	Course    string
	Snapshots []GradeSnapshot
}

func (s Store) Pull(ctx context.Context) ([]CourseSnapshotSeries, error) {
	rows, err := s.qry.GetGradeSnapshots(ctx)
	if err != nil {
		return nil, err
	}

	var courses []CourseSnapshotSeries
	for _, r := range rows {
		if r.Course == "" {
			continue
		}

		var grades db.GetGradeSnapshotsRowGrades
		err = json.Unmarshal([]byte(r.Grades.(string)), &grades)
		if err != nil {
			slog.WarnContext(ctx, "failed to unmarshal db grades", "err", err)
			continue
		}

		snapshots := make([]GradeSnapshot, len(grades))
		for i, tuple := range grades {
			snapshots[i] = GradeSnapshot{
				Time:  time.Unix(int64(tuple[0]), 0),
				Value: float32(tuple[1]),
			}
		}
		sort.Slice(snapshots, func(i, j int) bool {
			return snapshots[i].Time.Before(snapshots[j].Time)
		})
		courses = append(courses, CourseSnapshotSeries{
			Course:    r.Course,
			Snapshots: snapshots,
		})
	}

	return courses, nil
}

// PullCourse returns the snapshot series of a single course.
func (s Store) PullCourse(ctx context.Context, course string) (CourseSnapshotSeries, error) {
	rows, err := s.qry.GetCourseGradeSnapshots(ctx, course)
	if err != nil {
		return CourseSnapshotSeries{}, err
	}

	series := CourseSnapshotSeries{Course: course}
	for _, r := range rows {
		series.Snapshots = append(series.Snapshots, GradeSnapshot{
			Time:  time.Unix(r.Time, 0),
			Value: float32(r.Value),
		})
	}
	return series, nil
}
