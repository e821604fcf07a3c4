package providers

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestNewRedisProvider(t *testing.T) {
	client := NewRedisProvider("localhost:6379", "password")
	if client == nil {
		t.Fatal("Expected redis client to be non-nil")
	}
	defer client.Close()

	if got := client.Options().Addr; got != "localhost:6379" {
		t.Errorf("Addr = %q", got)
	}
}

func TestPingRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	client := NewRedisProvider(mr.Addr(), "")
	defer client.Close()

	if err := PingRedis(context.Background(), client); err != nil {
		t.Fatalf("PingRedis: %v", err)
	}

	mr.Close()
	if err := PingRedis(context.Background(), client); err == nil {
		t.Fatal("expected error after server shutdown")
	}
}
