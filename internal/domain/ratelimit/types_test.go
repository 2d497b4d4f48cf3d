package ratelimit

import (
	"testing"
	"time"
)

func TestFormatKey(t *testing.T) {
	t.Parallel()

	if got, want := FormatKey(KeyTypeIP, "192.168.1.1"), "ratelimit:ip:192.168.1.1"; got != want {
		t.Errorf("FormatKey() = %q, want %q", got, want)
	}
}

func TestPerMinute(t *testing.T) {
	t.Parallel()

	cfg := PerMinute(100)
	if cfg.Rate != 100 || cfg.Burst != 100 || cfg.Period != time.Minute {
		t.Errorf("PerMinute(100) = %+v", cfg)
	}
}
