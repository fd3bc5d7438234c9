package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func exerciseStore(t *testing.T, st Store) {
	t.Helper()

	_, err := st.Get("pdv_products")
	assert.ErrorIs(t, err, ErrNotExist)
	assert.False(t, st.Exists("pdv_products"))

	require.NoError(t, st.Put("pdv_products", []byte(`[{"id":1}]`)))
	require.NoError(t, st.Put("pdv_sales", []byte(`[]`)))
	require.NoError(t, st.Put("backups/pdv-backup-2024-01-01.json", []byte(`{}`)))

	got, err := st.Get("pdv_products")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(got))
	assert.True(t, st.Exists("pdv_products"))

	require.NoError(t, st.Put("pdv_products", []byte(`[]`)))
	got, err = st.Get("pdv_products")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	keys, err := st.Keys("pdv_")
	require.NoError(t, err)
	assert.Equal(t, []string{"pdv_products", "pdv_sales"}, keys)

	require.NoError(t, st.Delete("pdv_sales"))
	require.NoError(t, st.Delete("pdv_sales"))
	_, err = st.Get("pdv_sales")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	st := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, st.Put("k", buf))
	buf[0] = 'z'

	got, err := st.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestLocalStore(t *testing.T) {
	st, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, st)
}

func TestSQLStore(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "pdv.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	st, err := NewSQLStore(db)
	require.NoError(t, err)
	exerciseStore(t, st)
}

func TestOpenCachesAndRejectsUnknownDriver(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	a, err := Open("memory")
	require.NoError(t, err)
	b, err := Open("memory")
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = Open("floppy")
	assert.Error(t, err)
}
