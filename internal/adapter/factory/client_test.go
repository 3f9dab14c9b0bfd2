package factory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/thushan/warden/internal/config"
)

func TestNewUpstreamTransport_Defaults(t *testing.T) {
	tr := NewUpstreamTransport(config.UpstreamConfig{})

	assert.Equal(t, DefaultResponseTimeout, tr.ResponseHeaderTimeout)
	assert.Equal(t, DefaultMaxIdleConns, tr.MaxIdleConnsPerHost)
	assert.True(t, tr.ForceAttemptHTTP2)
}

func TestNewUpstreamTransport_FromConfig(t *testing.T) {
	tr := NewUpstreamTransport(config.UpstreamConfig{
		URL:             "http://127.0.0.1:8080",
		ResponseTimeout: 5 * time.Second,
		MaxIdleConns:    8,
	})

	assert.Equal(t, 5*time.Second, tr.ResponseHeaderTimeout)
	assert.Equal(t, 8, tr.MaxIdleConns)
	assert.Equal(t, 8, tr.MaxIdleConnsPerHost)
}
