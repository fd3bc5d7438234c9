package seeders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercadobetel/pdv/app/repositories"
	"github.com/mercadobetel/pdv/pkg/storage"
)

func TestRunAllIsIdempotent(t *testing.T) {
	db, err := repositories.Open(storage.NewMemoryStore())
	require.NoError(t, err)

	res, err := RunAll(db)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, Result{Name: "products", Created: 6}, res[0])
	assert.Equal(t, Result{Name: "customers", Created: 4}, res[1])

	p, err := db.ProductByBarcode("7894900011517")
	require.NoError(t, err)
	assert.Equal(t, "8.99", p.Price.StringFixed(2))

	res, err = RunAll(db)
	require.NoError(t, err)
	assert.Zero(t, res[0].Created)
	assert.Zero(t, res[1].Created)
	assert.Len(t, db.Products(), 6)
}
