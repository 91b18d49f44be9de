package domain

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// DateRange is an inclusive calendar-day range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// MonthRange spans the first to the last calendar day of the month.
func MonthRange(year int, month time.Month) DateRange {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return DateRange{Start: start, End: start.AddDate(0, 1, -1)}
}

// Merge returns the smallest range covering every input range.
func Merge(ranges ...DateRange) DateRange {
	var merged DateRange
	for i, current := range ranges {
		if i == 0 || current.Start.Before(merged.Start) {
			merged.Start = current.Start
		}
		if i == 0 || current.End.After(merged.End) {
			merged.End = current.End
		}
	}
	return merged
}

func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func (r DateRange) Equal(other DateRange) bool {
	return sameDay(r.Start, other.Start) && sameDay(r.End, other.End)
}

// SingleMonth reports whether the range covers exactly one calendar month.
func (r DateRange) SingleMonth() (int, time.Month, bool) {
	if r.Start.Day() != 1 {
		return 0, 0, false
	}
	if !r.Equal(MonthRange(r.Start.Year(), r.Start.Month())) {
		return 0, 0, false
	}
	return r.Start.Year(), r.Start.Month(), true
}

func (r DateRange) ToMap() map[string]any {
	return map[string]any{
		KeyStartDate: r.Start.Format(dateLayout),
		KeyEndDate:   r.End.Format(dateLayout),
	}
}

func (r DateRange) String() string {
	return r.Start.Format(dateLayout) + ".." + r.End.Format(dateLayout)
}

// DateRangeFromValue decodes a {start_date, end_date} record. Anything malformed yields false.
func DateRangeFromValue(raw any) (DateRange, bool) {
	var start, end any
	switch typed := raw.(type) {
	case DateRange:
		return typed, !typed.IsZero()
	case *DateRange:
		if typed == nil {
			return DateRange{}, false
		}
		return *typed, !typed.IsZero()
	case map[string]any:
		start, end = typed[KeyStartDate], typed[KeyEndDate]
	case Payload:
		start, end = typed[KeyStartDate], typed[KeyEndDate]
	case map[string]string:
		start, end = typed[KeyStartDate], typed[KeyEndDate]
	default:
		return DateRange{}, false
	}

	startDate, ok := parseDateValue(start)
	if !ok {
		return DateRange{}, false
	}
	endDate, ok := parseDateValue(end)
	if !ok {
		return DateRange{}, false
	}
	if endDate.Before(startDate) {
		return DateRange{}, false
	}

	return DateRange{Start: startDate, End: endDate}, true
}

// ParseDate accepts YYYY-MM-DD and RFC3339 timestamps.
func ParseDate(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	if parsed, err := time.Parse(dateLayout, trimmed); err == nil {
		return parsed, true
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return truncateDay(parsed), true
	}
	return time.Time{}, false
}

func FormatDate(value time.Time) string {
	return value.Format(dateLayout)
}

func parseDateValue(raw any) (time.Time, bool) {
	switch typed := raw.(type) {
	case string:
		return ParseDate(typed)
	case time.Time:
		if typed.IsZero() {
			return time.Time{}, false
		}
		return truncateDay(typed), true
	default:
		return time.Time{}, false
	}
}

func truncateDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
