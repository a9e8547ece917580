package database

import (
	"context"
	"fmt"

	"guardpost/config"

	"github.com/valkey-io/valkey-go"
)

// Valkey database index organization. Each index gives logical separation
// for a cache category.
const (
	// GENERAL_CACHE_INDEX (DB 0) - order and shift read caches
	GENERAL_CACHE_INDEX = iota

	// USER_CACHE_INDEX (DB 1) - authenticated user lookups
	USER_CACHE_INDEX

	// EVENTS_CACHE_INDEX (DB 2) - notification pub/sub
	EVENTS_CACHE_INDEX
)

func (s *DB) initializeCacheDB(config config.Config) error {
	log := s.log.Function("initializeCacheDB")
	log.Info("initializing cache database")

	address := config.DatabaseCacheAddress
	port := config.DatabaseCachePort
	if address == "" || port == 0 {
		return log.Error("failed to initialize cache database: address or port is empty")
	}

	initAddress := []string{fmt.Sprintf("%s:%d", address, port)}

	var cacheDB Cache
	var err error

	cacheDB.General, err = valkey.NewClient(valkey.ClientOption{
		InitAddress: initAddress,
		SelectDB:    GENERAL_CACHE_INDEX,
	})
	if err != nil {
		return log.Err("failed to create general valkey client", err)
	}

	cacheDB.User, err = valkey.NewClient(valkey.ClientOption{
		InitAddress: initAddress,
		SelectDB:    USER_CACHE_INDEX,
	})
	if err != nil {
		return log.Err("failed to create user valkey client", err)
	}

	cacheDB.Events, err = valkey.NewClient(valkey.ClientOption{
		InitAddress: initAddress,
		SelectDB:    EVENTS_CACHE_INDEX,
	})
	if err != nil {
		return log.Err("failed to create events valkey client", err)
	}

	s.Cache = cacheDB

	return nil
}

// FlushAllCaches clears every cache database. Used when reseeding so stale
// reads cannot survive the reset.
func (s *DB) FlushAllCaches() error {
	log := s.log.Function("FlushAllCaches")

	clients := []valkey.Client{s.Cache.General, s.Cache.User, s.Cache.Events}
	for _, client := range clients {
		if client == nil {
			continue
		}
		ctx := context.Background()
		if err := client.Do(ctx, client.B().Flushdb().Build()).Error(); err != nil {
			return log.Err("failed to flush cache database", err)
		}
	}

	log.Info("All cache databases flushed")
	return nil
}
