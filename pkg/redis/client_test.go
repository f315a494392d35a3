package redis

import (
	"testing"

	"github.com/therenansimoes/organizations/pkg/config"
)

func TestOptionsFromConfigRequiresURLOrAddress(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}
}

func TestOptionsFromConfigParsesURL(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:secret@localhost:6380/2", PoolSize: 5})
	if err != nil {
		t.Fatalf("options from url: %v", err)
	}
	if opts.Addr != "localhost:6380" {
		t.Fatalf("unexpected addr %q", opts.Addr)
	}
	if opts.DB != 2 {
		t.Fatalf("unexpected db %d", opts.DB)
	}
	if opts.PoolSize != 5 {
		t.Fatalf("expected pool size from config, got %d", opts.PoolSize)
	}
}

func TestOptionsFromConfigFallsBackToAddress(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{Address: "127.0.0.1:6379", Password: "pw", DB: 1})
	if err != nil {
		t.Fatalf("options from address: %v", err)
	}
	if opts.Addr != "127.0.0.1:6379" {
		t.Fatalf("unexpected addr %q", opts.Addr)
	}
	if opts.Password != "pw" {
		t.Fatal("expected password to be carried over")
	}
}

func TestAssignmentSnapshotKeyNamespacing(t *testing.T) {
	c := &Client{}
	key := c.AssignmentSnapshotKey("org-1")
	if key != "orgs:snapshot:assignments:org-1" {
		t.Fatalf("unexpected key %q", key)
	}
}
