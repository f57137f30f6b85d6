package core

import "sync/atomic"

// BusLock arbitrates the shared SPI bus between the main loop and the
// sample tick. It is a try-lock only: a caller that finds the bus busy
// drops its write instead of waiting, so the tick never stalls behind the
// main loop. There is no blocking acquire.
type BusLock struct {
	state   uint32
	dropped uint32
}

// TryLock takes the bus if it is free. The caller owns the bus only when
// it returns true and must release it with Unlock.
func (l *BusLock) TryLock() bool {
	return atomic.CompareAndSwapUint32(&l.state, 0, 1)
}

// Unlock releases the bus
func (l *BusLock) Unlock() {
	atomic.StoreUint32(&l.state, 0)
}

// Locked reports whether the bus is currently held
func (l *BusLock) Locked() bool {
	return atomic.LoadUint32(&l.state) != 0
}

// Dropped returns how many writes were abandoned because the bus was busy
func (l *BusLock) Dropped() uint32 {
	return atomic.LoadUint32(&l.dropped)
}

func (l *BusLock) noteDrop(source uint8) {
	n := atomic.AddUint32(&l.dropped, 1)
	RecordTiming(EvtBusDrop, source, n, 0)
}
