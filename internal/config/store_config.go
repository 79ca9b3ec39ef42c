package config

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	storeDriverVar = "STORE_DRIVER"
	databaseURLVar = "DATABASE_URL"
	sqlitePathVar  = "SQLITE_PATH"
)

// Session store backends.
const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

type StoreConfig interface {
	GetStoreDriver() string
	GetDatabaseURL() string
	GetSQLitePath() string
}

type Store struct {
	v *viper.Viper
}

var _ StoreConfig = Store{}

func (s Store) GetStoreDriver() string {
	return strings.ToLower(strings.TrimSpace(s.v.GetString(storeDriverVar)))
}

func (s Store) GetDatabaseURL() string {
	return s.v.GetString(databaseURLVar)
}

func (s Store) GetSQLitePath() string {
	return s.v.GetString(sqlitePathVar)
}
