package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestLimiter_AllowsUpToMax(t *testing.T) {
	l := NewLimiter()
	limit := Limit{Max: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		res := l.Check("user_1", "create_card", limit)
		if !res.Allowed {
			t.Fatalf("Request %d should be allowed", i+1)
		}
		if res.Remaining != 3-(i+1) {
			t.Errorf("Request %d: expected remaining %d, got %d", i+1, 3-(i+1), res.Remaining)
		}
	}

	res := l.Check("user_1", "create_card", limit)
	if res.Allowed {
		t.Error("Request 4 should be rejected")
	}
	if res.Remaining != 0 {
		t.Errorf("Expected remaining 0 after rejection, got %d", res.Remaining)
	}
	if res.ResetIn <= 0 || res.ResetIn > time.Minute {
		t.Errorf("Expected ResetIn within the window, got %v", res.ResetIn)
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := NewLimiter()
	limit := Limit{Max: 1, Window: time.Minute}

	if !l.Check("user_1", "create_card", limit).Allowed {
		t.Fatal("First request for user_1 should be allowed")
	}
	if l.Check("user_1", "create_card", limit).Allowed {
		t.Fatal("Second request for user_1 should be rejected")
	}

	// Same action, different user.
	if !l.Check("user_2", "create_card", limit).Allowed {
		t.Error("user_2 should have its own window")
	}
	// Same user, different action.
	if !l.Check("user_1", "create_comment", limit).Allowed {
		t.Error("create_comment should have its own window")
	}
}

func TestLimiter_WindowResets(t *testing.T) {
	l := NewLimiter()
	limit := Limit{Max: 1, Window: 50 * time.Millisecond}

	if !l.Check("user_1", "create_card", limit).Allowed {
		t.Fatal("First request should be allowed")
	}
	if l.Check("user_1", "create_card", limit).Allowed {
		t.Fatal("Second request in the window should be rejected")
	}

	time.Sleep(60 * time.Millisecond)

	if !l.Check("user_1", "create_card", limit).Allowed {
		t.Error("Request after the window expired should be allowed")
	}
}

func TestLimiter_UnlimitedWhenMaxZero(t *testing.T) {
	l := NewLimiter()

	for i := 0; i < 100; i++ {
		if !l.Check("user_1", "unmetered", Limit{}).Allowed {
			t.Fatal("Zero-valued limit should allow everything")
		}
	}
}

func TestLimiter_ConcurrentChecksCountExactly(t *testing.T) {
	l := NewLimiter()
	limit := Limit{Max: 10, Window: time.Minute}

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Check("user_1", "create_card", limit).Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 10 {
		t.Errorf("Expected exactly 10 allowed across concurrent checks, got %d", allowed)
	}
}
