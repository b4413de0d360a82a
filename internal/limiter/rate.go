package limiter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rate is an allowance of Limit requests per Window.
type Rate struct {
	Limit  int64
	Window time.Duration
}

// Interval is the time needed to earn back one request.
func (r Rate) Interval() time.Duration {
	if r.Limit <= 0 {
		return 0
	}
	return r.Window / time.Duration(r.Limit)
}

func (r Rate) String() string {
	return fmt.Sprintf("%d/%s", r.Limit, r.Window)
}

// MinWindow is the finest window a quota store can count.
const MinWindow = time.Millisecond

func (r Rate) valid() bool {
	return r.Limit > 0 && r.Window >= MinWindow
}

// ParseRate parses "<n>/<period>". The period is a unit name whose first
// letter selects seconds, minutes, hours or days ("1/minute", "100/d"),
// or a Go duration ("5/30s").
func ParseRate(s string) (Rate, error) {
	num, period, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Rate{}, fmt.Errorf("rate %q: expected <n>/<period>", s)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
	if err != nil || n <= 0 {
		return Rate{}, fmt.Errorf("rate %q: invalid request count", s)
	}
	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" {
		return Rate{}, fmt.Errorf("rate %q: missing period", s)
	}
	if d, err := time.ParseDuration(period); err == nil {
		if d < MinWindow {
			return Rate{}, fmt.Errorf("rate %q: period must be at least %s", s, MinWindow)
		}
		return Rate{Limit: n, Window: d}, nil
	}

	var window time.Duration
	switch period[0] {
	case 's':
		window = time.Second
	case 'm':
		window = time.Minute
	case 'h':
		window = time.Hour
	case 'd':
		window = 24 * time.Hour
	default:
		return Rate{}, fmt.Errorf("rate %q: unknown period %q", s, period)
	}
	return Rate{Limit: n, Window: window}, nil
}
