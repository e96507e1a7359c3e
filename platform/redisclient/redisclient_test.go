package redisclient

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

type redisCfg struct {
	url      string
	insecure bool
}

func (c redisCfg) GetRedisURL() string       { return c.url }
func (c redisCfg) GetRedisTLSInsecure() bool { return c.insecure }

func TestOptionsRequiresURL(t *testing.T) {
	if _, err := Options(redisCfg{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestOptionsAppliesInsecureTLS(t *testing.T) {
	opt, err := Options(redisCfg{url: "rediss://localhost:6380/2", insecure: true})
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatalf("expected insecure TLS config")
	}
	if opt.DB != 2 {
		t.Fatalf("expected db 2, got %d", opt.DB)
	}
}

func TestNewPings(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := New(context.Background(), redisCfg{url: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer client.Close()
}
