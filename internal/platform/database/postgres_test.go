package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostgresConfig_URLs(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db",
		Port:     5433,
		User:     "easy",
		Password: "p@ss",
		DBName:   "booking",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=db port=5433 user=easy password=p@ss dbname=booking sslmode=disable TimeZone=UTC", cfg.DSN())
	assert.Equal(t, "postgres://easy:p%40ss@db:5433/booking?sslmode=disable", cfg.DatabaseURL())
}
