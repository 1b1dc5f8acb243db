package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/eco-report-api/pkg/config"
)

func TestOptions(t *testing.T) {
	opts := Options(config.RedisConfig{Host: "cache", Port: 6380, Password: "s3cret", DB: 2})
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 1, opts.MaxRetries)
}

func TestPingWithoutClient(t *testing.T) {
	assert.ErrorIs(t, Ping(context.Background(), nil), errNoClient)
}
