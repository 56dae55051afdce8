package story

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSyncerWithMock(t *testing.T, routes map[string]string) (*Syncer, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv := newAPIServer(t, routes)
	return NewSyncer(sqlx.NewDb(db, "postgres"), NewClient(srv.URL), zap.NewNop().Sugar()), mock
}

func TestRunUpsertsStoriesInOneTransaction(t *testing.T) {
	syncer, mock := newSyncerWithMock(t, map[string]string{
		"/topstories.json": `[101, 102, 103]`,
		"/item/101.json":   `{"id":101,"by":"pg","title":"One","url":"u1","score":10,"descendants":1,"time":1714550400,"type":"story"}`,
		"/item/102.json":   `{"id":102,"by":"pg","title":"Hiring","time":1714550401,"type":"job"}`,
		"/item/103.json":   `{"id":103,"by":"dang","title":"Two","url":"u2","score":20,"descendants":2,"time":1714550402,"type":"story"}`,
	})

	mock.ExpectBegin()
	mock.ExpectExec(`insert into story`).
		WithArgs(int64(101), int64(1714550400), "pg", "One", "u1", int32(1), int32(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`insert into story`).
		WithArgs(int64(103), int64(1714550402), "dang", "Two", "u2", int32(2), int32(20)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, syncer.Run(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunSkipsDeletedAndDeadItems(t *testing.T) {
	syncer, mock := newSyncerWithMock(t, map[string]string{
		"/topstories.json": `[201, 202, 203]`,
		"/item/201.json":   `{"id":201,"type":"story","deleted":true,"time":1}`,
		"/item/202.json":   `{"id":202,"type":"story","dead":true,"time":1}`,
		"/item/203.json":   `null`,
	})

	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, syncer.Run(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRollsBackOnFetchError(t *testing.T) {
	syncer, mock := newSyncerWithMock(t, map[string]string{
		"/topstories.json": `[301, 302]`,
		"/item/301.json":   `{"id":301,"by":"pg","title":"One","url":"u1","score":10,"descendants":1,"time":1714550400,"type":"story"}`,
	})

	mock.ExpectBegin()
	mock.ExpectExec(`insert into story`).
		WithArgs(int64(301), int64(1714550400), "pg", "One", "u1", int32(1), int32(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := syncer.Run(context.Background())
	assert.ErrorContains(t, err, "fetch item 302")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunIngestsEveryReturnedStory(t *testing.T) {
	// the topstories list is ingested in full, no matter its length
	const n = 120
	ids := make([]string, n)
	routes := map[string]string{}
	for i := 0; i < n; i++ {
		id := int64(1000 + i)
		ids[i] = strconv.FormatInt(id, 10)
		routes[fmt.Sprintf("/item/%d.json", id)] = fmt.Sprintf(
			`{"id":%d,"by":"pg","title":"T","url":"u","score":1,"descendants":0,"time":1714550400,"type":"story"}`, id)
	}
	routes["/topstories.json"] = "[" + strings.Join(ids, ",") + "]"

	syncer, mock := newSyncerWithMock(t, routes)

	mock.ExpectBegin()
	for i := 0; i < n; i++ {
		mock.ExpectExec(`insert into story`).
			WithArgs(int64(1000+i), int64(1714550400), "pg", "T", "u", int32(0), int32(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, syncer.Run(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
