package handlers

import (
	"context"
	"testing"
	"time"
)

type fakeWaiter struct {
	calls []time.Duration
	err   error
}

func (f *fakeWaiter) wait(ctx context.Context, d time.Duration) error {
	f.calls = append(f.calls, d)
	return f.err
}

func TestSleepValidation(t *testing.T) {
	tests := []struct {
		path   string
		status int
		body   string
		waited time.Duration
	}{
		{"/sleep/0", 200, "<html><body>Slept for 0 second(s)</body></html>", 0},
		{"/sleep/3", 200, "<html><body>Slept for 3 second(s)</body></html>", 3 * time.Second},
		{"/sleep/10", 200, "<html><body>Slept for 10 second(s)</body></html>", 10 * time.Second},
		{"/sleep/11", 400, "<html><body>Invalid sleep time (0–10 seconds allowed)</body></html>", -1},
		{"/sleep/-1", 400, "<html><body>Invalid sleep time (0–10 seconds allowed)</body></html>", -1},
		{"/sleep/abc", 400, "<html><body>Invalid sleep time (0–10 seconds allowed)</body></html>", -1},
		{"/sleep/", 400, "<html><body>Invalid sleep time (0–10 seconds allowed)</body></html>", -1},
		{"/sleep/1/2", 400, "<html><body>Invalid sleep time (0–10 seconds allowed)</body></html>", -1},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := &fakeWaiter{}
			h := &Sleep{Wait: w.wait}

			resp := h.ServeRequest(context.Background(), get(tt.path))
			if resp.Status != tt.status {
				t.Errorf("Status = %d, want %d", resp.Status, tt.status)
			}
			if string(resp.Body) != tt.body {
				t.Errorf("Body = %q, want %q", resp.Body, tt.body)
			}

			if tt.waited < 0 {
				if len(w.calls) != 0 {
					t.Errorf("waited %v on invalid input", w.calls)
				}
				return
			}
			if len(w.calls) != 1 || w.calls[0] != tt.waited {
				t.Errorf("waits = %v, want [%v]", w.calls, tt.waited)
			}
		})
	}
}

func TestSleepCustomMax(t *testing.T) {
	h := &Sleep{Max: 2 * time.Second, Wait: (&fakeWaiter{}).wait}

	if resp := h.ServeRequest(context.Background(), get("/sleep/3")); resp.Status != 400 {
		t.Errorf("Status = %d, want 400", resp.Status)
	}
	if resp := h.ServeRequest(context.Background(), get("/sleep/2")); resp.Status != 200 {
		t.Errorf("Status = %d, want 200", resp.Status)
	}
}

func TestSleepBlocks(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping real sleep in short mode")
	}

	h := &Sleep{}
	start := time.Now()
	resp := h.ServeRequest(context.Background(), get("/sleep/1"))
	elapsed := time.Since(start)

	if resp.Status != 200 {
		t.Fatalf("Status = %d, want 200", resp.Status)
	}
	if elapsed < time.Second {
		t.Errorf("returned after %v, want >= 1s", elapsed)
	}
}

func TestSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Sleep{}

	done := make(chan int, 1)
	go func() {
		done <- h.ServeRequest(ctx, get("/sleep/10")).Status
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case status := <-done:
		if status != 503 {
			t.Errorf("Status = %d, want 503", status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sleep not interrupted by cancellation")
	}
}

func TestSleepLimit(t *testing.T) {
	tests := []struct {
		name   string
		max    time.Duration
		path   string
		status int
	}{
		{"negative max uses default", -time.Second, "/sleep/10", 200},
		{"negative max rejects above default", -time.Second, "/sleep/11", 400},
		{"sub-second max allows only zero", 500 * time.Millisecond, "/sleep/0", 200},
		{"sub-second max rejects one", 500 * time.Millisecond, "/sleep/1", 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Sleep{Max: tt.max, Wait: (&fakeWaiter{}).wait}
			if resp := h.ServeRequest(context.Background(), get(tt.path)); resp.Status != tt.status {
				t.Errorf("Status = %d, want %d", resp.Status, tt.status)
			}
		})
	}
}
