package rtc

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/ntp"
)

// DefaultNTPHost is used when no host is configured.
const DefaultNTPHost = "pool.ntp.org"

// NTP is a TimeSource that queries an NTP server.
type NTP struct {
	Host    string
	Timeout time.Duration
}

// ntpQuery is overridden in tests.
var ntpQuery = ntp.QueryWithOptions

// Time implements TimeSource. The query never takes longer than the
// configured timeout or the context deadline, whichever is sooner.
func (n NTP) Time(ctx context.Context) (time.Time, error) {
	host := n.Host
	if host == "" {
		host = DefaultNTPHost
	}
	timeout := n.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return time.Time{}, ctx.Err()
	}
	resp, err := ntpQuery(host, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return time.Time{}, fmt.Errorf("ntp %s: %w", host, err)
	}
	if err := resp.Validate(); err != nil {
		return time.Time{}, fmt.Errorf("ntp %s: %w", host, err)
	}
	return time.Now().Add(resp.ClockOffset), nil
}
