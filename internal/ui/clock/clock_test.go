package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

func TestManualFiresInDeadlineOrder(t *testing.T) {
	t.Parallel()

	clk := NewManual(epoch)
	var got []string
	clk.AfterFunc(3*time.Second, func() { got = append(got, "c") })
	clk.AfterFunc(time.Second, func() { got = append(got, "a") })
	clk.AfterFunc(time.Second, func() { got = append(got, "b") })

	clk.Advance(2 * time.Second)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("fired = %v, want [a b]", got)
	}
	if clk.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", clk.Pending())
	}

	clk.Advance(time.Second)
	if len(got) != 3 || got[2] != "c" {
		t.Fatalf("fired = %v, want [a b c]", got)
	}
	if want := epoch.Add(3 * time.Second); !clk.Now().Equal(want) {
		t.Fatalf("Now() = %v, want %v", clk.Now(), want)
	}
}

func TestManualStop(t *testing.T) {
	t.Parallel()

	clk := NewManual(epoch)
	fired := false
	timer := clk.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Fatal("expected first Stop to report true")
	}
	if timer.Stop() {
		t.Fatal("expected second Stop to report false")
	}
	clk.Advance(time.Minute)
	if fired {
		t.Fatal("stopped timer fired")
	}
}

func TestManualFiresTimersScheduledDuringAdvance(t *testing.T) {
	t.Parallel()

	clk := NewManual(epoch)
	var at []time.Time
	clk.AfterFunc(time.Second, func() {
		at = append(at, clk.Now())
		clk.AfterFunc(time.Second, func() { at = append(at, clk.Now()) })
	})

	clk.Advance(5 * time.Second)
	if len(at) != 2 {
		t.Fatalf("fired %d callbacks, want 2", len(at))
	}
	if !at[0].Equal(epoch.Add(time.Second)) || !at[1].Equal(epoch.Add(2*time.Second)) {
		t.Fatalf("fired at %v", at)
	}
}

func TestRealAfterFunc(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	Real{}.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}
