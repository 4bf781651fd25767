package session

import (
	"sync"
	"time"
)

// watchdog is the inactivity countdown. It is armed when a session
// starts, rearmed by every activity signal, and disarmed when the
// session ends. Expiry fires at most one callback per arming.
type watchdog struct {
	timeout time.Duration
	expire  func()

	mu    sync.Mutex
	timer *time.Timer
}

func newWatchdog(timeout time.Duration, expire func()) *watchdog {
	return &watchdog{timeout: timeout, expire: expire}
}

// arm starts (or restarts) the countdown.
func (w *watchdog) arm() {
	if w.timeout <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.timeout, w.expire)
}

// touch resets the countdown. An activity signal with no session in
// progress is ignored.
func (w *watchdog) touch() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer == nil {
		return
	}
	w.timer.Stop()
	w.timer = time.AfterFunc(w.timeout, w.expire)
}

// disarm cancels the countdown.
func (w *watchdog) disarm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// armed reports whether a countdown is in progress.
func (w *watchdog) armed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.timer != nil
}
