package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
)

func TestRecordRunInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewRunStoreWithPool(mock, "")
	require.NoError(t, err)

	started := time.Unix(1700000000, 0).UTC()
	result := crawler.CrawlResult{
		RunID:        "0190b8a4-run",
		Collected:    100,
		Created:      98,
		PagesVisited: 12,
		StartedAt:    started,
		FinishedAt:   started.Add(90 * time.Second),
		Status:       crawler.RunStatusSucceeded,
	}

	mock.ExpectExec("INSERT INTO crawl_runs").
		WithArgs(
			result.RunID,
			result.StartedAt,
			result.FinishedAt,
			"succeeded",
			100,
			98,
			12,
			"",
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.RecordRun(context.Background(), result))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRunPropagatesErrors(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewRunStoreWithPool(mock, "runs")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO runs").WillReturnError(errors.New("connection reset"))
	err = store.RecordRun(context.Background(), crawler.CrawlResult{RunID: "r1", Status: crawler.RunStatusAborted})
	require.ErrorContains(t, err, "insert crawl run")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRunRequiresID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewRunStoreWithPool(mock, "runs")
	require.NoError(t, err)
	require.Error(t, store.RecordRun(context.Background(), crawler.CrawlResult{}))

	var nilStore *RunStore
	require.Error(t, nilStore.RecordRun(context.Background(), crawler.CrawlResult{RunID: "x"}))
}

func TestEnsureTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewRunStoreWithPool(mock, "crawl_runs")
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS crawl_runs").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	require.NoError(t, store.EnsureTable(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRunStoreValidation(t *testing.T) {
	t.Parallel()

	_, err := NewRunStoreWithPool(nil, "runs")
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	_, err = NewRunStoreWithPool(mock, "runs; DROP TABLE x")
	require.ErrorContains(t, err, "invalid table name")

	_, err = NewRunStore(context.Background(), RunStoreConfig{})
	require.ErrorContains(t, err, "db.dsn")

	_, err = NewRunStore(context.Background(), RunStoreConfig{DSN: "postgres://u@localhost/db", Table: "bad-name"})
	require.ErrorContains(t, err, "invalid table name")
}
