package storage

import (
	"fmt"
	"sync"

	"github.com/mercadobetel/pdv/config"
	"github.com/mercadobetel/pdv/pkg/database"
)

var (
	managerMu sync.RWMutex
	stores    = map[string]Store{}
)

// Open returns the store for driver, building and caching it on first use.
// Driver names: local, memory, s3, redis, sql, mongo.
//
//	st, err := storage.Open(config.StoreDriver())
func Open(driver string) (Store, error) {
	managerMu.RLock()
	st, ok := stores[driver]
	managerMu.RUnlock()
	if ok {
		return st, nil
	}

	st, err := build(driver)
	if err != nil {
		return nil, err
	}
	Register(driver, st)
	return st, nil
}

// Register plugs a Store in under name. Later Open(name) calls return it.
func Register(name string, st Store) {
	managerMu.Lock()
	stores[name] = st
	managerMu.Unlock()
}

// Reset forgets every opened store. Intended for tests.
func Reset() {
	managerMu.Lock()
	stores = map[string]Store{}
	managerMu.Unlock()
}

func build(driver string) (Store, error) {
	switch driver {
	case "local":
		return NewLocalStore(config.StoreLocalRoot())
	case "memory":
		return NewMemoryStore(), nil
	case "s3":
		return NewS3Store()
	case "redis":
		return NewRedisStore(config.RedisAddr(), config.RedisPassword())
	case "sql":
		db, err := database.Open(config.DatabaseDriver(), config.DatabaseDSN())
		if err != nil {
			return nil, err
		}
		return NewSQLStore(db)
	case "mongo":
		return NewMongoStore(config.MongoURI(), config.MongoDatabase())
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q (supported: local, memory, s3, redis, sql, mongo)", driver)
	}
}
