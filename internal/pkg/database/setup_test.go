package database

import (
	"bytes"
	"context"
	"errors"
	stdlog "log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestNewLoggerSkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(stdlog.New(&buf, "", 0), logger.Warn)
	sql := func() (string, int64) { return "SELECT * FROM practitioners LIMIT 1", 0 }

	l.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), time.Now(), sql, errors.New("connection reset"))
	assert.Contains(t, buf.String(), "connection reset")
}

func TestDSN(t *testing.T) {
	t.Setenv("DB_USER", "portal")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_NAME", "aktp")

	assert.Equal(t, "portal:secret@tcp(db:3307)/aktp?charset=utf8mb4&parseTime=True&loc=UTC", DSN())
}
