package immediateticker

import "time"

// ImmediateTicker fires once right away and then every interval, until Stop.
type ImmediateTicker struct {
	C    <-chan time.Time
	t    *time.Ticker
	done chan struct{}
}

func New(interval time.Duration) *ImmediateTicker {
	c := make(chan time.Time)
	it := &ImmediateTicker{
		C:    c,
		t:    time.NewTicker(interval),
		done: make(chan struct{}),
	}

	go func() {
		select {
		case c <- time.Now():
		case <-it.done:
			return
		}

		for {
			select {
			case tickTime := <-it.t.C:
				select {
				case c <- tickTime:
				case <-it.done:
					return
				}
			case <-it.done:
				return
			}
		}
	}()

	return it
}

// Stop must be called once; no ticks are delivered after it returns.
func (it *ImmediateTicker) Stop() {
	it.t.Stop()
	close(it.done)
}
