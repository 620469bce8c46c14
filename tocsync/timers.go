package tocsync

import "time"

// pending is a replace-on-retrigger timer handle. Arming it again before
// it fires drops the earlier deadline. An unarmed handle exposes a nil
// channel, which never fires in a select.
type pending struct {
	name  string
	delay time.Duration
	timer *time.Timer
	ch    <-chan time.Time
}

func newPending(name string, delay time.Duration) *pending {
	return &pending{name: name, delay: delay}
}

// arm (re)starts the timer.
func (p *pending) arm() {
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.NewTimer(p.delay)
	p.ch = p.timer.C
}

// C returns the channel that fires when the delay expires.
func (p *pending) C() <-chan time.Time {
	return p.ch
}

// armed reports whether a deadline is pending.
func (p *pending) armed() bool { return p.timer != nil }

// clear forgets the timer; call it after receiving from C or to cancel.
func (p *pending) clear() {
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = nil
	p.ch = nil
}

// timers groups the four reactive concerns of the loop.
type timers struct {
	scroll  *pending
	hash    *pending
	seed    *pending
	rebuild *pending
}

func newTimers(t TimingConfig) *timers {
	t.ApplyDefaults()
	return &timers{
		scroll:  newPending("scroll", t.ScrollDebounce),
		hash:    newPending("hash", t.HashSettle),
		seed:    newPending("seed", t.InitialSeed),
		rebuild: newPending("rebuild", t.RebuildSettle),
	}
}

func (t *timers) stopAll() {
	t.scroll.clear()
	t.hash.clear()
	t.seed.clear()
	t.rebuild.clear()
}
