package models

import (
	"fmt"
	"time"
)

// TimePoint is a single observation in a time series.
type TimePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// TimeSeries is an ordered sequence of observations with strictly increasing
// timestamps. It is immutable once constructed: the constructor copies its
// input and all accessors return copies.
type TimeSeries struct {
	points []TimePoint
}

// NewTimeSeries validates and copies the given points into an immutable series.
// Timestamps must be strictly increasing; a fixed cadence is not required.
func NewTimeSeries(points []TimePoint) (*TimeSeries, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("time series requires at least one point")
	}
	copied := make([]TimePoint, len(points))
	copy(copied, points)
	for i := 1; i < len(copied); i++ {
		if !copied[i].Timestamp.After(copied[i-1].Timestamp) {
			return nil, fmt.Errorf("timestamps must be strictly increasing: index %d (%s) does not follow index %d (%s)",
				i, copied[i].Timestamp.Format(time.RFC3339), i-1, copied[i-1].Timestamp.Format(time.RFC3339))
		}
	}
	return &TimeSeries{points: copied}, nil
}

// NewTimeSeriesFromValues builds a series from raw values with a synthetic
// fixed cadence starting at start. Convenient for tests and detached series.
func NewTimeSeriesFromValues(values []float64, start time.Time, step time.Duration) (*TimeSeries, error) {
	points := make([]TimePoint, len(values))
	for i, v := range values {
		points[i] = TimePoint{Timestamp: start.Add(time.Duration(i) * step), Value: v}
	}
	return NewTimeSeries(points)
}

// Len returns the number of observations.
func (ts *TimeSeries) Len() int {
	return len(ts.points)
}

// At returns the observation at index i.
func (ts *TimeSeries) At(i int) TimePoint {
	return ts.points[i]
}

// Values returns a copy of the observation values in order.
func (ts *TimeSeries) Values() []float64 {
	values := make([]float64, len(ts.points))
	for i, p := range ts.points {
		values[i] = p.Value
	}
	return values
}

// Timestamps returns a copy of the observation timestamps in order.
func (ts *TimeSeries) Timestamps() []time.Time {
	stamps := make([]time.Time, len(ts.points))
	for i, p := range ts.points {
		stamps[i] = p.Timestamp
	}
	return stamps
}
