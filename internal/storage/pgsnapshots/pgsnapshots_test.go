package pgsnapshots

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/ShipReport/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "shipreport_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/shipreport_test?sslmode=disable"
	st, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func TestPGSnapshots_Flow(t *testing.T) {
	ctx := context.Background()
	st := startPostgres(t)
	day := models.Date(2026, time.January, 10)

	res, err := st.LookupIDs(ctx, day)
	require.NoError(t, err)
	require.Equal(t, models.SnapshotNotCollected, res.State)

	require.NoError(t, st.UpsertSnapshot(ctx, models.DailySnapshot{
		Date:     day,
		Count:    3,
		Total:    decimal.RequireFromString("1250.50"),
		OrderIDs: []string{"1", "2", "3"},
	}))

	res, err = st.LookupIDs(ctx, day)
	require.NoError(t, err)
	require.Equal(t, models.SnapshotCollected, res.State)
	require.Equal(t, []string{"1", "2", "3"}, res.IDs)

	snap, ok, err := st.GetSnapshot(ctx, day)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, snap.Count)
	require.True(t, decimal.RequireFromString("1250.50").Equal(snap.Total))
	require.Equal(t, day, snap.Date)

	// a rerun with nothing shipped overwrites the day
	require.NoError(t, st.UpsertSnapshot(ctx, models.DailySnapshot{Date: day, Total: decimal.Zero}))

	res, err = st.LookupIDs(ctx, day)
	require.NoError(t, err)
	require.Equal(t, models.SnapshotCollectedEmpty, res.State)
	require.Empty(t, res.IDs)

	snap, _, err = st.GetSnapshot(ctx, day)
	require.NoError(t, err)
	require.Equal(t, 0, snap.Count)
	require.True(t, snap.Total.IsZero())
}

func TestPGSnapshots_ListAndLegacyIDs(t *testing.T) {
	ctx := context.Background()
	st := startPostgres(t)

	for d := 1; d <= 3; d++ {
		require.NoError(t, st.UpsertSnapshot(ctx, models.DailySnapshot{
			Date:     models.Date(2026, time.February, d),
			Count:    d,
			Total:    decimal.NewFromInt(int64(d * 100)),
			OrderIDs: []string{"x"},
		}))
	}
	_, err := st.db.Exec(ctx, `UPDATE daily_stats SET order_ids = '[7, 8]'::jsonb WHERE date = '2026-02-02'`)
	require.NoError(t, err)

	list, err := st.ListSnapshots(ctx, models.Date(2026, time.February, 2), models.Date(2026, time.February, 3))
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, models.Date(2026, time.February, 2), list[0].Date)
	require.Equal(t, []string{"7", "8"}, list[0].OrderIDs)
	require.Equal(t, 3, list[1].Count)
}
