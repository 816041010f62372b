package services

import (
	"time"

	"github.com/forecastsight/forecastsight-go/internal/config"
)

// StaticCalendar is a calendar provider backed by a fixed holiday-factor
// table. Trading days are weekdays that are not full holidays.
type StaticCalendar struct {
	holidayFactors map[string]float64
}

// NewStaticCalendar builds a calendar from configuration. Dates are keyed as
// YYYY-MM-DD; config validation has already checked the format.
func NewStaticCalendar(cfg config.CalendarConfig) *StaticCalendar {
	factors := make(map[string]float64, len(cfg.HolidayFactors))
	for date, factor := range cfg.HolidayFactors {
		factors[date] = factor
	}
	return &StaticCalendar{holidayFactors: factors}
}

// TradingDays counts weekdays in [from, to] inclusive whose holiday factor
// is non-zero. A single weekday therefore counts as one trading day.
func (c *StaticCalendar) TradingDays(from, to time.Time) int {
	count := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if c.HolidayFactor(d) == 0 {
			continue
		}
		count++
	}
	return count
}

// HolidayFactor returns the configured multiplicative factor for the date, or
// 1 when the date carries no calendar effect.
func (c *StaticCalendar) HolidayFactor(date time.Time) float64 {
	if factor, ok := c.holidayFactors[date.Format("2006-01-02")]; ok {
		return factor
	}
	return 1
}
