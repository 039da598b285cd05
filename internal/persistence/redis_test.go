package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/staffdesk/roster-service/internal/config"
)

func TestNewRedis_FallsBackWhenUnreachable(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := NewRedis(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"}, zap.New(core))
	assert.Nil(t, r)
	assert.Equal(t, 1, logs.FilterMessage("redis unavailable; token revocation and login throttling kept in memory").Len())

	assert.Error(t, r.Ping(context.Background()))
	r.Close()
}

func TestNewRedis_NotConfigured(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	assert.Nil(t, NewRedis(context.Background(), config.RedisConfig{}, zap.New(core)))
	assert.Equal(t, 1, logs.Len())
}
