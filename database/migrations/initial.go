package migrations

import (
	"gorm.io/gorm"

	"github.com/mercadobetel/pdv/pkg/migration"
	"github.com/mercadobetel/pdv/pkg/storage"
)

func init() {
	migration.Register("20260101000000_create_pdv_blobs_table", &CreateBlobsTable{})
}

// CreateBlobsTable creates the key/value table behind STORE_DRIVER=sql.
type CreateBlobsTable struct{}

func (m *CreateBlobsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&storage.Blob{})
}

func (m *CreateBlobsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&storage.Blob{})
}
