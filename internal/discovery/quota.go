package discovery

import (
	"sync"
	"time"
)

// dateLayout is the local calendar date used for quota resets.
const dateLayout = "2006-01-02"

// DailyQuota tracks how many new cameras were saved during the current
// local calendar day. The reset happens exactly once per date change,
// detected by comparing the last reset date string to "now" before each
// pass rather than by a timer.
type DailyQuota struct {
	mu            sync.Mutex
	limit         int
	used          int
	lastResetDate string

	// now is replaceable in tests to simulate date changes.
	now func() time.Time
}

// NewDailyQuota creates a quota with the given daily limit.
func NewDailyQuota(limit int) *DailyQuota {
	q := &DailyQuota{
		limit: limit,
		now:   time.Now,
	}
	q.lastResetDate = q.now().Format(dateLayout)
	return q
}

// CheckReset resets the counter when the local calendar date has changed
// since the last reset. Safe to call before every pass.
func (q *DailyQuota) CheckReset() {
	q.mu.Lock()
	defer q.mu.Unlock()

	today := q.now().Format(dateLayout)
	if today != q.lastResetDate {
		q.used = 0
		q.lastResetDate = today
	}
}

// Remaining returns how many saves the current day still allows.
func (q *DailyQuota) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.used >= q.limit {
		return 0
	}
	return q.limit - q.used
}

// Exhausted reports whether the daily limit has been reached.
func (q *DailyQuota) Exhausted() bool {
	return q.Remaining() == 0
}

// Consume records one save against the quota. Returns false when the limit
// was already reached and nothing was consumed.
func (q *DailyQuota) Consume() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.used >= q.limit {
		return false
	}
	q.used++
	return true
}

// Used returns the number of saves counted for the current day.
func (q *DailyQuota) Used() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.used
}
