// Package timeseries folds star events into per-period real and fake
// counts for the correlation engine.
package timeseries

import (
	"fmt"
	"sort"
	"time"

	"starguard/pkg/models"
)

// Supported bucketing granularities.
const (
	GranularityDay  = "day"
	GranularityWeek = "week"
)

// Bucket groups events into calendar-day or ISO-week periods and counts
// real and fake stars per period. Only periods with at least one event
// appear, in ascending period order.
func Bucket(events []*models.StarEvent, fake map[string]struct{}, granularity string) ([]models.TimeBucket, error) {
	keyFor, startFor, err := periodFuncs(granularity)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*models.TimeBucket)
	for _, ev := range events {
		ts := ev.StarredAt.UTC()
		key := keyFor(ts)
		bucket, ok := byKey[key]
		if !ok {
			bucket = &models.TimeBucket{PeriodKey: key, PeriodStart: startFor(ts)}
			byKey[key] = bucket
		}
		if _, flagged := fake[ev.Username]; flagged {
			bucket.Fake++
		} else {
			bucket.Real++
		}
	}

	out := make([]models.TimeBucket, 0, len(byKey))
	for _, bucket := range byKey {
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PeriodStart.Before(out[j].PeriodStart)
	})
	return out, nil
}

func periodFuncs(granularity string) (func(time.Time) string, func(time.Time) time.Time, error) {
	switch granularity {
	case GranularityDay:
		return dayKey, dayStart, nil
	case GranularityWeek:
		return weekKey, weekStart, nil
	default:
		return nil, nil, fmt.Errorf("unsupported granularity %q", granularity)
	}
}

func dayKey(ts time.Time) string {
	return ts.Format("2006-01-02")
}

func dayStart(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

// weekKey uses the ISO year, which can differ from the calendar year in
// the first and last days of January and December.
func weekKey(ts time.Time) string {
	year, week := ts.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

func weekStart(ts time.Time) time.Time {
	day := dayStart(ts)
	offset := int(day.Weekday()+6) % 7
	return day.AddDate(0, 0, -offset)
}
