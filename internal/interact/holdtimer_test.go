package interact

import (
	"testing"
	"time"

	"github.com/eccker/photoboth/internal/gesture"
)

func newTestTimer(t *testing.T) (*HoldTimer, *struct {
	countdowns []int
	cancels    int
	armed      int
}) {
	t.Helper()
	log := &struct {
		countdowns []int
		cancels    int
		armed      int
	}{}

	timer := NewHoldTimer(HoldTimerConfig{
		Symbol:   gesture.Peace,
		Duration: 3 * time.Second,
		Cooldown: 2 * time.Second,
	})
	timer.OnCountdown(func(s int) { log.countdowns = append(log.countdowns, s) })
	timer.OnCancel(func() { log.cancels++ })
	timer.OnArmed(func() { log.armed++ })
	return timer, log
}

func peace() []gesture.Symbol { return []gesture.Symbol{gesture.Peace} }
func fist() []gesture.Symbol  { return []gesture.Symbol{gesture.Fist} }

func TestHoldTimer_CountdownSequence(t *testing.T) {
	timer, log := newTestTimer(t)

	start := time.Now()
	timer.Update(peace(), start)
	timer.Update(peace(), start.Add(500*time.Millisecond))
	timer.Update(peace(), start.Add(1100*time.Millisecond))
	timer.Update(peace(), start.Add(1200*time.Millisecond))
	timer.Update(peace(), start.Add(2100*time.Millisecond))

	// ceil((3000-elapsed)/1000): 3, 3, 2, 2, 1 — emitted on change only.
	want := []int{3, 2, 1}
	if len(log.countdowns) != len(want) {
		t.Fatalf("countdowns = %v, want %v", log.countdowns, want)
	}
	for i, v := range want {
		if log.countdowns[i] != v {
			t.Errorf("countdowns[%d] = %d, want %d", i, log.countdowns[i], v)
		}
	}
	if timer.State() != TimerCounting {
		t.Errorf("state = %q, want counting", timer.State())
	}
}

func TestHoldTimer_ReleaseBeforeDuration(t *testing.T) {
	timer, log := newTestTimer(t)

	start := time.Now()
	timer.Update(peace(), start)
	timer.Update(peace(), start.Add(2999*time.Millisecond))

	// Symbol disappears just before the threshold.
	timer.Update(fist(), start.Add(3050*time.Millisecond))

	if log.armed != 0 {
		t.Errorf("armed fired after incomplete hold")
	}
	if log.cancels != 1 {
		t.Errorf("cancels = %d, want 1", log.cancels)
	}
	if timer.State() != TimerIdle {
		t.Errorf("state = %q, want idle", timer.State())
	}
}

func TestHoldTimer_ArmsOnceThenCoolsDown(t *testing.T) {
	timer, log := newTestTimer(t)

	start := time.Now()
	timer.Update(peace(), start)
	timer.Update(peace(), start.Add(3*time.Second))

	if log.armed != 1 {
		t.Fatalf("armed = %d, want 1", log.armed)
	}
	if timer.State() != TimerCooldown {
		t.Fatalf("state = %q, want cooldown", timer.State())
	}

	// The symbol is ignored entirely for the cooldown window.
	timer.Update(peace(), start.Add(3500*time.Millisecond))
	timer.Update(peace(), start.Add(4500*time.Millisecond))
	if log.armed != 1 {
		t.Errorf("armed re-fired during cooldown")
	}
	if timer.State() != TimerCooldown {
		t.Errorf("state = %q, want cooldown", timer.State())
	}

	// Cooldown expires; the first tick at/after expiry only returns to
	// idle, gestures are re-evaluated on the following tick.
	timer.Update(peace(), start.Add(5*time.Second))
	if timer.State() != TimerIdle {
		t.Fatalf("state = %q, want idle after cooldown", timer.State())
	}

	timer.Update(peace(), start.Add(5100*time.Millisecond))
	if timer.State() != TimerCounting {
		t.Errorf("state = %q, want counting on next tick", timer.State())
	}
}

func TestHoldTimer_NoHandsIsNotPresent(t *testing.T) {
	timer, log := newTestTimer(t)

	start := time.Now()
	timer.Update(nil, start)
	if timer.State() != TimerIdle {
		t.Errorf("state = %q, want idle with no hands", timer.State())
	}

	timer.Update(peace(), start.Add(time.Second))
	timer.Update(nil, start.Add(2*time.Second))
	if timer.State() != TimerIdle {
		t.Errorf("state = %q, want idle after hands vanished", timer.State())
	}
	if log.cancels != 1 {
		t.Errorf("cancels = %d, want 1", log.cancels)
	}
}

func TestHoldTimer_Reset(t *testing.T) {
	timer, _ := newTestTimer(t)

	start := time.Now()
	timer.Update(peace(), start)
	timer.Reset()
	if timer.State() != TimerIdle {
		t.Errorf("state = %q, want idle after reset", timer.State())
	}
}

func TestHoldTimer_Defaults(t *testing.T) {
	timer := NewHoldTimer(HoldTimerConfig{})
	if timer.config.Symbol != gesture.Peace {
		t.Errorf("default symbol = %q, want peace", timer.config.Symbol)
	}
	if timer.config.Duration != DefaultHoldDuration {
		t.Errorf("default duration = %v, want %v", timer.config.Duration, DefaultHoldDuration)
	}
	if timer.config.Cooldown != DefaultCooldown {
		t.Errorf("default cooldown = %v, want %v", timer.config.Cooldown, DefaultCooldown)
	}
}
