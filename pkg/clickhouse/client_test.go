package clickhouse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(ClientConfig{
		Host:         "ch",
		Port:         9000,
		Database:     "mandipulse",
		User:         "default",
		Password:     "p@ss",
		DialTimeout:  5 * time.Second,
		MaxExecTime:  30 * time.Second,
		AsyncInsert:  true,
		WaitForAsync: true,
	})
	assert.Equal(t, "clickhouse://default:p%40ss@ch:9000/mandipulse?async_insert=1&dial_timeout=5s&max_execution_time=30&wait_for_async_insert=1", dsn)
}

func TestBuildDSNHTTP(t *testing.T) {
	dsn := buildDSN(ClientConfig{Host: "ch", Port: 8123, Database: "d", User: "u", UseHTTP: true})
	assert.Equal(t, "http://u:@ch:8123/d", dsn)
}

func TestInitSchemaStopsAtFirstFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE DATABASE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("syntax"))

	c := NewClientFromDB(db, "mandipulse")
	err = c.InitSchema(context.Background(), []string{"CREATE DATABASE x", "CREATE TABLE y", "CREATE TABLE z"})
	assert.ErrorContains(t, err, "statement 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}
