package limiter

import (
	"context"
	"fmt"
	"time"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/types"
)

// BlackoutWindow rejects all requests whose hour of day falls in
// [StartHour, EndHour). A window with StartHour > EndHour wraps midnight.
type BlackoutWindow struct {
	StartHour int
	EndHour   int
	Location  *time.Location
}

// NewBlackoutWindow validates the hours and resolves the zone.
func NewBlackoutWindow(startHour, endHour int, timezone string) (*BlackoutWindow, error) {
	if startHour < 0 || startHour > 23 || endHour < 0 || endHour > 24 {
		return nil, fmt.Errorf("blackout hours out of range: [%d, %d)", startHour, endHour)
	}
	loc := time.Local
	if timezone != "" && timezone != "Local" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("blackout timezone: %w", err)
		}
		loc = l
	}
	return &BlackoutWindow{StartHour: startHour, EndHour: endHour, Location: loc}, nil
}

func (b *BlackoutWindow) Name() string { return "blackout_window" }

// Contains reports whether t falls inside the window.
func (b *BlackoutWindow) Contains(t time.Time) bool {
	h := t.In(b.location()).Hour()
	if b.StartHour <= b.EndHour {
		return h >= b.StartHour && h < b.EndHour
	}
	return h >= b.StartHour || h < b.EndHour
}

func (b *BlackoutWindow) Allow(_ context.Context, req Request) (types.Decision, error) {
	if !b.Contains(req.Now) {
		return types.Allow(b.Name(), "outside_blackout"), nil
	}
	return types.Deny(b.Name(), "blackout_window", b.until(req.Now)), nil
}

// until returns the time left before the window closes.
func (b *BlackoutWindow) until(now time.Time) time.Duration {
	local := now.In(b.location())
	end := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location()).
		Add(time.Duration(b.EndHour) * time.Hour)
	if !end.After(local) {
		end = end.AddDate(0, 0, 1)
	}
	return end.Sub(local)
}

func (b *BlackoutWindow) location() *time.Location {
	if b.Location == nil {
		return time.Local
	}
	return b.Location
}
