package dispatch

import "sync"

// Record tracks which senders have been contacted in this process
// lifetime. Reservation is an atomic check-and-set so two concurrent
// events for the same sender cannot both win the right to send.
type Record struct {
	mu   sync.Mutex
	sent map[int64]struct{}
}

// NewRecord returns an empty dispatch record.
func NewRecord() *Record {
	return &Record{sent: make(map[int64]struct{})}
}

// Reserve atomically claims the one send attempt for a sender. It
// returns false when the sender is already claimed.
func (r *Record) Reserve(senderID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sent[senderID]; ok {
		return false
	}
	r.sent[senderID] = struct{}{}

	return true
}

// Release gives the claim back after a failed send, so a later
// matching message from the same sender may retrigger an attempt.
func (r *Record) Release(senderID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sent, senderID)
}

// Contacted reports whether a sender currently holds a claim.
func (r *Record) Contacted(senderID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.sent[senderID]
	return ok
}
