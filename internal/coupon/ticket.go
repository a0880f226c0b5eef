package coupon

import "sync/atomic"

// Tickets hands out the integers [0, total) to concurrent workers, each value
// exactly once. A ticket means "produce one accepted code"; it does not bound
// the number of attempts needed to get there.
type Tickets struct {
	next  atomic.Int64
	total int64
}

// NewTickets creates a distributor for total tickets.
func NewTickets(total int) *Tickets {
	return &Tickets{total: int64(total)}
}

// Claim returns the next unissued ticket, or false once all are issued.
func (t *Tickets) Claim() (int, bool) {
	n := t.next.Add(1) - 1
	if n >= t.total {
		return 0, false
	}
	return int(n), true
}

// Issued returns the number of tickets handed out so far.
func (t *Tickets) Issued() int {
	return int(min(t.next.Load(), t.total))
}

// Done reports whether every ticket has been issued.
func (t *Tickets) Done() bool {
	return t.next.Load() >= t.total
}
