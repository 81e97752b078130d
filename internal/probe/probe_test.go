package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mayvqt/StatusBot/internal/domain"
)

func TestHTTPChecker_2xxIsOnline(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	out := NewHTTPChecker(2 * time.Second).Check(context.Background(), ts.URL)
	if !out.Online {
		t.Fatalf("expected online for 204, got %+v", out)
	}
	if out.LatencyMS <= 0 {
		t.Fatalf("expected latency recorded, got %+v", out)
	}
}

func TestHTTPChecker_NonSuccessIsOffline(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusInternalServerError} {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		out := NewHTTPChecker(2 * time.Second).Check(context.Background(), ts.URL)
		ts.Close()
		if out.Online {
			t.Fatalf("expected offline for %d, got %+v", code, out)
		}
	}
}

func TestHTTPChecker_UnreachableIsOutcomeNotPanic(t *testing.T) {
	out := NewHTTPChecker(500 * time.Millisecond).Check(context.Background(), "http://127.0.0.1:1")
	if out.Online {
		t.Fatalf("expected offline: %+v", out)
	}
	if out.Reason == "" {
		t.Fatalf("expected a reason for the failure")
	}
}

func TestTCPChecker_OpenAndClosedPorts(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	chk := NewTCPChecker(time.Second)
	if out := chk.Check(context.Background(), ln.Addr().String()); !out.Online {
		t.Fatalf("expected online for open port: %+v", out)
	}

	addr := ln.Addr().String()
	ln.Close()
	if out := chk.Check(context.Background(), addr); out.Online {
		t.Fatalf("expected offline for closed port: %+v", out)
	}
}

func TestForKind(t *testing.T) {
	set := Set{
		HTTP: NewHTTPChecker(time.Second),
		TCP:  NewTCPChecker(time.Second),
		ICMP: NewICMPChecker(time.Second),
	}

	for _, kind := range []domain.EntityKind{domain.KindHTTP, domain.KindTCP, domain.KindICMP} {
		if _, err := ForKind(kind, set); err != nil {
			t.Fatalf("ForKind(%s): %v", kind, err)
		}
	}
	if _, err := ForKind(domain.EntityKind("gopher"), set); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
