package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestHTTPChecker_StatusClasses(t *testing.T) {
	cases := []struct {
		status int
		up     bool
	}{
		{200, true},
		{204, true},
		{304, true},
		{404, false},
		{500, false},
	}
	for _, c := range cases {
		s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(c.status)
		}))

		out := NewHTTPChecker(2*time.Second).Check(context.Background(), s.URL)
		s.Close()

		if out.Success != c.up {
			t.Fatalf("status %d: want up=%v, got %+v", c.status, c.up, out)
		}
		if out.StatusCode != c.status {
			t.Fatalf("want status %d, got %d", c.status, out.StatusCode)
		}
		if !strings.HasPrefix(out.Message, strconv.Itoa(c.status)) {
			t.Fatalf("want message to start with %d, got %q", c.status, out.Message)
		}
		if out.LatencyMS < 0 {
			t.Fatalf("latency should be >= 0, got %f", out.LatencyMS)
		}
	}
}

func TestHTTPChecker_TimeoutSetsStatusZero(t *testing.T) {
	// Server sleeps longer than client timeout
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(200)
	}))
	defer s.Close()

	out := NewHTTPChecker(50*time.Millisecond).Check(context.Background(), s.URL)
	if out.Success {
		t.Fatalf("want failure due to timeout, got %+v", out)
	}
	if out.StatusCode != 0 {
		t.Fatalf("want status 0 on transport error, got %d", out.StatusCode)
	}
	if out.Message == "" {
		t.Fatalf("want non-empty error message")
	}
}

func TestHTTPChecker_BadURL(t *testing.T) {
	out := NewHTTPChecker(time.Second).Check(context.Background(), "://nope")
	if out.Success || out.Message == "" {
		t.Fatalf("want failure with message, got %+v", out)
	}
}
