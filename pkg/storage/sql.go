package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Blob is the row the sql driver stores per key.
type Blob struct {
	Key       string `gorm:"column:blob_key;primaryKey;size:191"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (Blob) TableName() string { return "pdv_blobs" }

// SQLStore keeps blobs in the pdv_blobs table of any GORM dialect.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore makes sure the blob table exists and wraps db.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&Blob{}); err != nil {
		return nil, fmt.Errorf("storage/sql: migrate: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Get(key string) ([]byte, error) {
	var b Blob
	err := s.db.Where("blob_key = ?", key).Take(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("storage/sql: get %s: %w", key, err)
	}
	return b.Value, nil
}

func (s *SQLStore) Put(key string, value []byte) error {
	b := Blob{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blob_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&b).Error
	if err != nil {
		return fmt.Errorf("storage/sql: put %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(key string) error {
	if err := s.db.Where("blob_key = ?", key).Delete(&Blob{}).Error; err != nil {
		return fmt.Errorf("storage/sql: delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Exists(key string) bool {
	var n int64
	err := s.db.Model(&Blob{}).Where("blob_key = ?", key).Count(&n).Error
	return err == nil && n > 0
}

func (s *SQLStore) Keys(prefix string) ([]string, error) {
	var keys []string
	err := s.db.Model(&Blob{}).
		Where("blob_key LIKE ?", prefix+"%").
		Order("blob_key").
		Pluck("blob_key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("storage/sql: keys %s: %w", prefix, err)
	}
	return keys, nil
}
