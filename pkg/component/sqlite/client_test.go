package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.db")
	client, err := New(context.Background(), NewOptions(path))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", client.Name())
	assert.Equal(t, path, client.Path())
	require.NoError(t, client.Ping(context.Background()))
	require.NoError(t, client.DB().AutoMigrate(&record{}))
	require.NoError(t, client.DB().Create(&record{Name: "a"}).Error)
	require.NoError(t, client.Close())

	// 重新打开已有文件时保留数据
	client, err = New(context.Background(), NewOptions(path))
	require.NoError(t, err)
	defer client.Close()

	var count int64
	require.NoError(t, client.DB().Model(&record{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestNewInvalidOptions(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)

	_, err = New(context.Background(), NewOptions(""))
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	opts := NewOptions("/tmp/a.db")
	assert.Equal(t, "/tmp/a.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", opts.DSN())
}
