package rfm

import (
	"time"
)

// Window boundaries are anchored to calendar half-years: the start of the
// half-year (Jan 1 or Jul 1) the reference month falls into, shifted back a
// number of years. The older window spans [olderStart, recentStart), the
// recent window [recentStart, reference).

// halfYearMonth returns January for H1 references and July for H2.
func halfYearMonth(t time.Time) time.Month {
	if t.Month() <= time.June {
		return time.January
	}
	return time.July
}

// WindowBounds computes the two window start instants for a reference
// instant. olderYears and recentYears are the lookback distances in years
// (5 and 2 by default).
func WindowBounds(reference time.Time, olderYears, recentYears int) (olderStart, recentStart time.Time) {
	anchor := halfYearMonth(reference)
	olderStart = time.Date(reference.Year()-olderYears, anchor, 1, 0, 0, 0, 0, time.UTC)
	recentStart = time.Date(reference.Year()-recentYears, anchor, 1, 0, 0, 0, 0, time.UTC)
	return olderStart, recentStart
}
