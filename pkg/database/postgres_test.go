package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/cnquant/pkg/config"
)

func TestNew_Disabled(t *testing.T) {
	db, err := New(context.Background(), &config.Config{})

	assert.Nil(t, db)
	assert.True(t, errors.Is(err, ErrDisabled))
}

func TestNew_BadURL(t *testing.T) {
	_, err := New(context.Background(), &config.Config{
		Database: config.DatabaseConfig{URL: "://not a url"},
	})
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := New(context.Background(), &config.Config{
		Database: config.DatabaseConfig{URL: url, MaxConns: 2, MinConns: 1, MaxConnLifetime: time.Hour, MaxConnIdleTime: time.Minute},
	})
	require.NoError(t, err)
	defer db.Close()

	status := db.HealthCheck(context.Background())
	assert.True(t, status.Healthy)
	assert.Empty(t, status.Error)
}
