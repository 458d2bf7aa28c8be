package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"boardflow/internal/engine/ratelimit"
	"boardflow/internal/platform/config"
)

func TestRateLimitMiddleware(t *testing.T) {
	cfg := config.RateLimitConfig{
		Window:  time.Minute,
		Default: 100,
		Actions: map[string]int{"create_card": 2},
	}
	mw := NewRateLimitMiddleware(ratelimit.NewLimiter(), cfg)

	handler := mw.Handle("create_card")(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, requestWithClaims("org_1"))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i+1, rr.Code, http.StatusOK)
		}
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithClaims("org_1"))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("over-limit status = %d, want %d", rr.Code, http.StatusTooManyRequests)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("429 response is missing Retry-After")
	}
}

func TestRateLimitMiddlewareKeysByAction(t *testing.T) {
	cfg := config.RateLimitConfig{
		Window:  time.Minute,
		Default: 100,
		Actions: map[string]int{"create_card": 1, "move_card": 1},
	}
	mw := NewRateLimitMiddleware(ratelimit.NewLimiter(), cfg)

	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	create := mw.Handle("create_card")(ok)
	move := mw.Handle("move_card")(ok)

	rr := httptest.NewRecorder()
	create.ServeHTTP(rr, requestWithClaims("org_1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("create: status = %d, want %d", rr.Code, http.StatusOK)
	}

	// Exhausting create_card must not consume the move_card window.
	rr = httptest.NewRecorder()
	create.ServeHTTP(rr, requestWithClaims("org_1"))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second create: status = %d, want %d", rr.Code, http.StatusTooManyRequests)
	}

	rr = httptest.NewRecorder()
	move.ServeHTTP(rr, requestWithClaims("org_1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("move: status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestRateLimitMiddlewareUnauthenticatedFallsBackToAddr(t *testing.T) {
	cfg := config.RateLimitConfig{Window: time.Minute, Default: 1}
	mw := NewRateLimitMiddleware(ratelimit.NewLimiter(), cfg)

	handler := mw.Handle("login")(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	reqA := httptest.NewRequest("POST", "/", nil)
	reqA.RemoteAddr = "10.0.0.1:1234"
	reqB := httptest.NewRequest("POST", "/", nil)
	reqB.RemoteAddr = "10.0.0.2:1234"

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, reqA)
	if rr.Code != http.StatusOK {
		t.Fatalf("first addr: status = %d, want %d", rr.Code, http.StatusOK)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, reqA)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("repeat addr: status = %d, want %d", rr.Code, http.StatusTooManyRequests)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, reqB)
	if rr.Code != http.StatusOK {
		t.Fatalf("other addr: status = %d, want %d", rr.Code, http.StatusOK)
	}
}
