package loop

import (
	"sync"
	"time"
)

// Timer is a handle on a repeating callback.
type Timer interface {
	Stop()
}

// Scheduler creates repeating callbacks with a fixed period.
type Scheduler interface {
	Every(period time.Duration, fn func()) Timer
}

// TickerScheduler runs callbacks from a time.Ticker on its own goroutine.
type TickerScheduler struct{}

// Every starts a ticker goroutine calling fn once per period until Stop.
// Stop does not wait for an in-flight fn to return.
func (TickerScheduler) Every(period time.Duration, fn func()) Timer {
	t := &tickerTimer{
		ticker: time.NewTicker(period),
		done:   make(chan struct{}),
	}
	go t.run(fn)
	return t
}

type tickerTimer struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *tickerTimer) run(fn func()) {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			// A tick and Stop can be ready together; Stop wins.
			select {
			case <-t.done:
				return
			default:
			}
			fn()
		}
	}
}

func (t *tickerTimer) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}
