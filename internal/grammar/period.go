// Package grammar holds the French date, merchant and keyword recognizers shared by planning stages.
package grammar

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/textnorm"
)

type PeriodKind int

const (
	PeriodNone PeriodKind = iota
	PeriodExplicit
	PeriodRelative
)

// MonthMention is one month name found in a message, with its year when stated.
type MonthMention struct {
	Month time.Month
	Year  int
	Token string
}

// Period is the outcome of date extraction for one message.
type Period struct {
	Kind        PeriodKind
	Range       domain.DateRange
	Mentions    []MonthMention
	MissingYear *MonthMention
	Ambiguous   bool
}

func (p Period) Found() bool {
	return p.Kind != PeriodNone
}

// YearPolicy picks a year for a month mentioned without one.
type YearPolicy func(month time.Month) (int, bool)

var monthTokens = []struct {
	token string
	month time.Month
}{
	{"janvier", time.January}, {"janv", time.January},
	{"fevrier", time.February}, {"fevr", time.February}, {"fev", time.February},
	{"mars", time.March},
	{"avril", time.April}, {"avr", time.April},
	{"mai", time.May},
	{"juin", time.June},
	{"juillet", time.July}, {"juil", time.July},
	{"aout", time.August},
	{"septembre", time.September}, {"sept", time.September},
	{"octobre", time.October}, {"oct", time.October},
	{"novembre", time.November}, {"nov", time.November},
	{"decembre", time.December}, {"dec", time.December},
}

var monthDisplayNames = map[time.Month]string{
	time.January:   "janvier",
	time.February:  "février",
	time.March:     "mars",
	time.April:     "avril",
	time.May:       "mai",
	time.June:      "juin",
	time.July:      "juillet",
	time.August:    "août",
	time.September: "septembre",
	time.October:   "octobre",
	time.November:  "novembre",
	time.December:  "décembre",
}

var numberWords = map[string]int{
	"un": 1, "deux": 2, "trois": 3, "quatre": 4, "cinq": 5, "six": 6,
	"sept": 7, "huit": 8, "neuf": 9, "dix": 10, "onze": 11, "douze": 12,
}

const yearPattern = `(?:19|20|21)\d{2}`

var (
	monthPattern = regexp.MustCompile(`\b(` + monthAlternation() + `)\b\.?(?:\s+(` + yearPattern + `)\b)?`)

	isoRangePattern = regexp.MustCompile(`\b(?:du|de)\s+(\d{4}-\d{2}-\d{2})\s+(?:au|a|jusqu'au)\s+(\d{4}-\d{2}-\d{2})\b`)
	dmyRangePattern = regexp.MustCompile(`\b(?:du|de)\s+(\d{1,2})[./](\d{1,2})[./](\d{4})\s+(?:au|a|jusqu'au)\s+(\d{1,2})[./](\d{1,2})[./](\d{4})\b`)

	lastMonthsPattern   = regexp.MustCompile(`\b(?:les\s+|des\s+|sur\s+les\s+)?(\d{1,2}|un|deux|trois|quatre|cinq|six|sept|huit|neuf|dix|onze|douze)\s+derniers\s+mois\b`)
	thisMonthPattern    = regexp.MustCompile(`\bce\s+mois(?:[- ]ci)?\b`)
	lastMonthPattern    = regexp.MustCompile(`\b(?:le\s+|du\s+)?mois\s+(?:dernier|passe)\b`)
	thisYearPattern     = regexp.MustCompile(`\bcette\s+annee\b`)
	lastYearPattern     = regexp.MustCompile(`\b(?:l'|de\s+l')?annee\s+(?:derniere|passee)\b`)
	ambiguousPattern    = regexp.MustCompile(`\b(?:mois|semaine|annee)\s+(?:suivante?|d'apres|d'avant|precedente?)\b|\bmeme\s+periode\b`)
	yearOnlyPattern     = regexp.MustCompile(`\b(?:en|pour|sur|durant|pendant|annee)\s+(` + yearPattern + `)\b`)
	trailingYearPattern = regexp.MustCompile(`^\s*(?:en\s+)?(` + yearPattern + `)\s*\??\s*$`)
)

func monthAlternation() string {
	tokens := make([]string, 0, len(monthTokens))
	for _, entry := range monthTokens {
		tokens = append(tokens, entry.token)
	}
	return strings.Join(tokens, "|")
}

// MonthFromToken maps a French month name or abbreviation to a month.
func MonthFromToken(token string) (time.Month, bool) {
	folded := strings.TrimSuffix(textnorm.Fold(token), ".")
	for _, entry := range monthTokens {
		if entry.token == folded {
			return entry.month, true
		}
	}
	return 0, false
}

// MonthName returns the French display name of a month.
func MonthName(month time.Month) string {
	return monthDisplayNames[month]
}

// TodayPolicy resolves a yearless month to the current year unless that month is still ahead.
func TodayPolicy(today time.Time) YearPolicy {
	return func(month time.Month) (int, bool) {
		if month > today.Month() {
			return 0, false
		}
		return today.Year(), true
	}
}

// NearestPolicy resolves a yearless month to the year closest to an anchor month.
func NearestPolicy(anchorYear int, anchorMonth time.Month) YearPolicy {
	return func(month time.Month) (int, bool) {
		anchor := anchorYear*12 + int(anchorMonth)
		best := anchorYear
		bestDistance := -1
		for _, candidate := range []int{anchorYear, anchorYear + 1, anchorYear - 1} {
			distance := candidate*12 + int(month) - anchor
			if distance < 0 {
				distance = -distance
			}
			if bestDistance < 0 || distance < bestDistance {
				best = candidate
				bestDistance = distance
			}
		}
		return best, true
	}
}

// ParsePeriod extracts the period of a message relative to today.
func ParsePeriod(message string, today time.Time) Period {
	return ParsePeriodWith(message, today, TodayPolicy(today))
}

// ParsePeriodWith extracts the period, using policy for months stated without a year.
// Explicit ranges win over month names, month names over relative phrases, relative phrases over a bare year.
func ParsePeriodWith(message string, today time.Time, policy YearPolicy) Period {
	folded := textnorm.Fold(message)
	period := Period{Ambiguous: ambiguousPattern.MatchString(folded)}

	if dateRange, ok := parseExplicitRange(folded); ok {
		period.Kind = PeriodExplicit
		period.Range = dateRange
		return period
	}

	masked := maskRelative(folded)
	mentions := findMonthMentions(masked)
	if len(mentions) > 0 {
		resolved, missing := resolveMentionYears(mentions, policy)
		period.Mentions = resolved
		if missing != nil {
			period.MissingYear = missing
			return period
		}
		ranges := make([]domain.DateRange, 0, len(resolved))
		for _, mention := range resolved {
			ranges = append(ranges, domain.MonthRange(mention.Year, mention.Month))
		}
		period.Kind = PeriodExplicit
		period.Range = domain.Merge(ranges...)
		return period
	}

	if dateRange, ok := parseRelative(folded, today); ok {
		period.Kind = PeriodRelative
		period.Range = dateRange
		return period
	}

	if match := yearOnlyPattern.FindStringSubmatch(folded); match != nil {
		year, _ := strconv.Atoi(match[1])
		period.Kind = PeriodExplicit
		period.Range = domain.DateRange{
			Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		}
	}

	return period
}

// HasExplicitPeriod reports whether a message states a period of any form.
func HasExplicitPeriod(message string) bool {
	period := ParsePeriodWith(message, time.Time{}, func(time.Month) (int, bool) { return 1, true })
	return period.Found() || period.MissingYear != nil
}

// HasAmbiguousRelative reports phrases such as "le mois suivant" whose anchor is unclear.
func HasAmbiguousRelative(message string) bool {
	return ambiguousPattern.MatchString(textnorm.Fold(message))
}

// ParseYearAnswer reads a bare year reply such as "2025".
func ParseYearAnswer(message string) (int, bool) {
	match := trailingYearPattern.FindStringSubmatch(textnorm.Fold(message))
	if match == nil {
		return 0, false
	}
	year, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// StripPeriod removes month, year and relative phrases from a folded message.
func StripPeriod(message string) string {
	folded := textnorm.Fold(message)
	for _, pattern := range []*regexp.Regexp{isoRangePattern, dmyRangePattern, lastMonthsPattern, thisMonthPattern, lastMonthPattern, thisYearPattern, lastYearPattern, ambiguousPattern, monthPattern, yearOnlyPattern} {
		folded = pattern.ReplaceAllString(folded, " ")
	}
	return textnorm.Collapse(folded)
}

func parseExplicitRange(folded string) (domain.DateRange, bool) {
	if match := isoRangePattern.FindStringSubmatch(folded); match != nil {
		start, okStart := domain.ParseDate(match[1])
		end, okEnd := domain.ParseDate(match[2])
		if okStart && okEnd && !end.Before(start) {
			return domain.DateRange{Start: start, End: end}, true
		}
	}
	if match := dmyRangePattern.FindStringSubmatch(folded); match != nil {
		start, okStart := dayMonthYear(match[1], match[2], match[3])
		end, okEnd := dayMonthYear(match[4], match[5], match[6])
		if okStart && okEnd && !end.Before(start) {
			return domain.DateRange{Start: start, End: end}, true
		}
	}
	return domain.DateRange{}, false
}

func dayMonthYear(rawDay, rawMonth, rawYear string) (time.Time, bool) {
	day, errDay := strconv.Atoi(rawDay)
	month, errMonth := strconv.Atoi(rawMonth)
	year, errYear := strconv.Atoi(rawYear)
	if errDay != nil || errMonth != nil || errYear != nil || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	value := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if value.Day() != day {
		return time.Time{}, false
	}
	return value, true
}

func maskRelative(folded string) string {
	return lastMonthsPattern.ReplaceAllStringFunc(folded, func(match string) string {
		return strings.Repeat(" ", len(match))
	})
}

func findMonthMentions(folded string) []MonthMention {
	matches := monthPattern.FindAllStringSubmatch(folded, -1)
	mentions := make([]MonthMention, 0, len(matches))
	for _, match := range matches {
		month, ok := MonthFromToken(match[1])
		if !ok {
			continue
		}
		mention := MonthMention{Month: month, Token: match[1]}
		if match[2] != "" {
			mention.Year, _ = strconv.Atoi(match[2])
		}
		mentions = append(mentions, mention)
	}
	return mentions
}

// resolveMentionYears lends stated years to neighbouring yearless months, then falls back to policy.
func resolveMentionYears(mentions []MonthMention, policy YearPolicy) ([]MonthMention, *MonthMention) {
	resolved := make([]MonthMention, len(mentions))
	copy(resolved, mentions)

	for i := range resolved {
		if resolved[i].Year != 0 {
			continue
		}
		if next, ok := nextWithYear(mentions, i); ok {
			resolved[i].Year = next.Year
			if resolved[i].Month > next.Month {
				resolved[i].Year--
			}
			continue
		}
		if previous, ok := previousWithYear(mentions, i); ok {
			resolved[i].Year = previous.Year
			if resolved[i].Month < previous.Month {
				resolved[i].Year++
			}
			continue
		}
		year, ok := policy(resolved[i].Month)
		if !ok {
			missing := resolved[i]
			return resolved, &missing
		}
		resolved[i].Year = year
	}

	return resolved, nil
}

func nextWithYear(mentions []MonthMention, index int) (MonthMention, bool) {
	for i := index + 1; i < len(mentions); i++ {
		if mentions[i].Year != 0 {
			return mentions[i], true
		}
	}
	return MonthMention{}, false
}

func previousWithYear(mentions []MonthMention, index int) (MonthMention, bool) {
	for i := index - 1; i >= 0; i-- {
		if mentions[i].Year != 0 {
			return mentions[i], true
		}
	}
	return MonthMention{}, false
}

func parseRelative(folded string, today time.Time) (domain.DateRange, bool) {
	currentMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	if match := lastMonthsPattern.FindStringSubmatch(folded); match != nil {
		count, ok := numberWords[match[1]]
		if !ok {
			parsed, err := strconv.Atoi(match[1])
			if err != nil || parsed <= 0 {
				return domain.DateRange{}, false
			}
			count = parsed
		}
		return domain.DateRange{
			Start: currentMonth.AddDate(0, -count, 0),
			End:   currentMonth.AddDate(0, 0, -1),
		}, true
	}
	if thisMonthPattern.MatchString(folded) {
		return domain.MonthRange(today.Year(), today.Month()), true
	}
	if lastMonthPattern.MatchString(folded) {
		previous := currentMonth.AddDate(0, -1, 0)
		return domain.MonthRange(previous.Year(), previous.Month()), true
	}
	if thisYearPattern.MatchString(folded) {
		return yearRange(today.Year()), true
	}
	if lastYearPattern.MatchString(folded) {
		return yearRange(today.Year() - 1), true
	}
	return domain.DateRange{}, false
}

func yearRange(year int) domain.DateRange {
	return domain.DateRange{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}
