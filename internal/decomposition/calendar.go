package decomposition

import "time"

// CalendarProvider resolves business-calendar effects for the seasonal
// adjustment pipeline. The calendar data itself (holiday lists, regional
// classifications) is owned by an external collaborator; only this interface
// is part of the core.
type CalendarProvider interface {
	// TradingDays counts business days in [from, to] inclusive.
	TradingDays(from, to time.Time) int
	// HolidayFactor returns the multiplicative adjustment for a date;
	// 1 means no adjustment.
	HolidayFactor(date time.Time) float64
}
