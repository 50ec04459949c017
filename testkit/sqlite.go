package testkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ceyewan/fusebox/connector"
)

// NewSQLiteConnector 返回基于临时文件的 SQLite 连接器
// 数据库文件位于 t.TempDir()，测试结束后自动清理。
func NewSQLiteConnector(t *testing.T) connector.SQLiteConnector {
	t.Helper()

	conn, err := connector.NewSQLite(&connector.SQLiteConfig{
		Path: t.TempDir() + "/test.db",
	}, connector.WithLogger(NewLogger()))
	require.NoError(t, err)

	require.NoError(t, conn.Connect(context.Background()))
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

// NewSQLiteDB 返回已连接的 GORM 实例
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	return NewSQLiteConnector(t).GetClient()
}
