package mqtt

import "log"

// pending is a message waiting for the connection to come back.
type pending struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog is a fixed-capacity FIFO of pending messages. When full the
// oldest message is dropped. Not safe for concurrent use.
type backlog struct {
	msgs    []pending
	head    int // next write position
	count   int
	dropped int // since last drain
}

func newBacklog(capacity int) *backlog {
	return &backlog{msgs: make([]pending, capacity)}
}

func (b *backlog) push(m pending) {
	n := len(b.msgs)
	if n == 0 {
		b.dropped++
		return
	}
	b.msgs[b.head] = m
	b.head = (b.head + 1) % n
	if b.count == n {
		if b.dropped == 0 {
			log.Printf("mqtt: backlog full (%d messages), dropping oldest", n)
		}
		b.dropped++
		return
	}
	b.count++
}

// drain returns the pending messages oldest first and empties the
// backlog.
func (b *backlog) drain() []pending {
	if b.count == 0 {
		return nil
	}
	n := len(b.msgs)
	out := make([]pending, b.count)
	start := (b.head - b.count + n) % n
	for i := range out {
		out[i] = b.msgs[(start+i)%n]
	}
	if b.dropped > 0 {
		log.Printf("mqtt: %d messages were dropped while disconnected", b.dropped)
	}
	b.head, b.count, b.dropped = 0, 0, 0
	return out
}

func (b *backlog) len() int {
	return b.count
}
