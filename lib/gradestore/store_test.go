package gradestore

import (
	"context"
	"testing"
	"time"

	"github.com/dp-pcs/noah-hw-mcp/lib/gradestore/db"
	"github.com/dp-pcs/noah-hw-mcp/lib/testutil"
	"github.com/dp-pcs/noah-hw-mcp/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "gradestore",
		DbSchema: db.Schema,
	})
	defer cleanup()
	store := NewStore(res.DB)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	{
		series, err := store.Pull(ctx)
		require.NoError(t, err)
		require.Len(t, series, 0)
	}
	{
		err := store.Push(ctx, PushRequest{
			Time: timezone.Now(),
			Courses: []CourseSnapshot{
				{Course: "pre_algebra", Value: 88.5},
				{Course: "science_7", Value: 92},
			},
		})
		require.NoError(t, err)

		// a second push on the same day replaces, not stacks
		err = store.Push(ctx, PushRequest{
			Time: timezone.Now(),
			Courses: []CourseSnapshot{
				{Course: "pre_algebra", Value: 89},
				{Course: "science_7", Value: 92},
			},
		})
		require.NoError(t, err)

		err = store.Push(ctx, PushRequest{
			Time: timezone.Now().Add(time.Hour * 24),
			Courses: []CourseSnapshot{
				{Course: "pre_algebra", Value: 91},
			},
		})
		require.NoError(t, err)
	}
	{
		series, err := store.Pull(ctx)
		require.NoError(t, err)
		require.Len(t, series, 2)

		var prealgebra CourseSnapshotSeries
		var science CourseSnapshotSeries
		for _, c := range series {
			switch c.Course {
			case "pre_algebra":
				prealgebra = c
			case "science_7":
				science = c
			}
		}
		require.Len(t, prealgebra.Snapshots, 2)
		require.Len(t, science.Snapshots, 1)
		require.Equal(t, float32(89), prealgebra.Snapshots[0].Value)
		require.Equal(t, float32(91), prealgebra.Snapshots[1].Value)
	}
	{
		series, err := store.PullCourse(ctx, "pre_algebra")
		require.NoError(t, err)
		require.Len(t, series.Snapshots, 2)

		series, err = store.PullCourse(ctx, "unknown")
		require.NoError(t, err)
		require.Len(t, series.Snapshots, 0)
	}
}
