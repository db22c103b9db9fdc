package utils

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialAddress(t *testing.T) {
	tests := []struct {
		target string
		want   string
		err    bool
	}{
		{"http://authz.local", "authz.local:80", false},
		{"https://authz.local", "authz.local:443", false},
		{"http://authz.local:8080/path", "authz.local:8080", false},
		{"redis://cache:6380/0", "cache:6380", false},
		{"redis://cache", "cache:6379", false},
		{"broker-1:9092", "broker-1:9092", false},
		{"broker-1", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got, err := dialAddress(tt.target)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPingService(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	ctx := context.Background()
	assert.NoError(t, PingService(ctx, "http://"+ln.Addr().String(), time.Second))
	assert.NoError(t, PingService(ctx, ln.Addr().String(), time.Second))
	assert.NoError(t, PingAny(ctx, []string{"127.0.0.1:1", ln.Addr().String()}))

	assert.Error(t, PingService(ctx, "127.0.0.1:1", 200*time.Millisecond))
	assert.Error(t, PingAny(ctx, []string{"127.0.0.1:1"}))
	assert.Error(t, PingAny(ctx, nil))
}
