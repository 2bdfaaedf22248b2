package board

import (
	"sync/atomic"
	"time"
)

var lastEventTime int64

// nextEventTime returns a nanosecond timestamp strictly greater than any
// previously returned one, so events from one process keep their order.
func nextEventTime() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastEventTime)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastEventTime, last, now) {
			return now
		}
	}
}
