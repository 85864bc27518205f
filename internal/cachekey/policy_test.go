package cachekey

import (
	"testing"
	"time"
)

func TestTTLForDefaults(t *testing.T) {
	set := PolicySet{"it-jobs": 30}

	if got := set.TTLFor("it-jobs"); got != 30*24*time.Hour {
		t.Errorf("it-jobs TTL = %v, want 720h", got)
	}
	want := time.Duration(DefaultTTLDays) * 24 * time.Hour
	if got := set.TTLFor(""); got != want {
		t.Errorf("empty tag TTL = %v, want %v", got, want)
	}
	if got := set.TTLFor("never-seen-jobs"); got != want {
		t.Errorf("unknown tag TTL = %v, want %v", got, want)
	}
}

func TestTTLForIgnoresNonPositive(t *testing.T) {
	set := PolicySet{"sales-jobs": 0, "retail-jobs": -7}
	want := time.Duration(DefaultTTLDays) * 24 * time.Hour
	if got := set.TTLFor("sales-jobs"); got != want {
		t.Errorf("zero-day policy TTL = %v, want default %v", got, want)
	}
	if got := set.TTLFor("retail-jobs"); got != want {
		t.Errorf("negative policy TTL = %v, want default %v", got, want)
	}
}

func TestTTLExpiryBoundary(t *testing.T) {
	set := PolicySet{"it-jobs": 7}
	ttl := set.TTLFor("it-jobs")

	stale := time.Now().Add(-8 * 24 * time.Hour)
	if time.Since(stale) <= ttl {
		t.Error("entry fetched 8 days ago should be past a 7-day TTL")
	}
	fresh := time.Now().Add(-6 * 24 * time.Hour)
	if time.Since(fresh) > ttl {
		t.Error("entry fetched 6 days ago should be within a 7-day TTL")
	}
}
