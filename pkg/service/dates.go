package service

import (
	"time"

	"github.com/example/shopfront/pkg/repository"
)

const DateLayout = "2006-01-02"

// ParseDateRange reads optional YYYY-MM-DD bounds in local time. The end
// date covers its whole day.
func ParseDateRange(start, end string) (repository.DateRange, error) {
	var rng repository.DateRange
	if start != "" {
		t, err := time.ParseInLocation(DateLayout, start, time.Local)
		if err != nil {
			return rng, validationf("start_date must be YYYY-MM-DD")
		}
		rng.Start = &t
	}
	if end != "" {
		t, err := time.ParseInLocation(DateLayout, end, time.Local)
		if err != nil {
			return rng, validationf("end_date must be YYYY-MM-DD")
		}
		t = t.Add(24*time.Hour - time.Second)
		rng.End = &t
	}
	if rng.Start != nil && rng.End != nil && rng.End.Before(*rng.Start) {
		return rng, validationf("end_date is before start_date")
	}
	return rng, nil
}
