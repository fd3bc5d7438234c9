// Package storage provides the key-value blob stores the PDV persists its
// collections to.
//
// Every driver stores opaque byte blobs under string keys:
//   - "local": one file per key under a root directory (default)
//   - "memory": process memory, for tests and demos
//   - "s3": S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//   - "redis": one Redis string per key
//   - "sql": a GORM-managed table (sqlite, postgres, mysql, sqlserver)
//   - "mongo": one MongoDB document per key
//
// Quick start:
//
//	st, err := storage.Open(config.StoreDriver())
//	_ = st.Put("pdv_products", data)
//	data, err := st.Get("pdv_products")
//	if errors.Is(err, storage.ErrNotExist) { ... }
package storage

import "errors"

// ErrNotExist is returned by Get when no blob is stored under the key.
var ErrNotExist = errors.New("storage: key does not exist")

// Store is the blob driver interface. Every driver must implement this.
type Store interface {
	// Get returns the blob stored under key, or ErrNotExist.
	Get(key string) ([]byte, error)

	// Put replaces the blob stored under key.
	Put(key string, value []byte) error

	// Delete removes key. Returns nil if the key did not exist.
	Delete(key string) error

	// Exists reports whether a blob is stored under key.
	Exists(key string) bool

	// Keys lists the keys that start with prefix.
	Keys(prefix string) ([]string, error)
}
