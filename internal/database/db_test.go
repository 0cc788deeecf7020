package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRejectsMalformedURL(t *testing.T) {
	pool, err := Connect(context.Background(), "://not-a-url", 5, 1, time.Hour, 30*time.Minute)

	require.Error(t, err)
	assert.Nil(t, pool)
	assert.Contains(t, err.Error(), "error parsing database config")
}
