package models

import (
	"time"
)

/*
LOAD → raw per-region rows as read from the ingestion store.
*/

// Profile is one customer address/registration row. RegistrationDate is the
// zero time when the source value is missing.
type Profile struct {
	CustomerID       string
	RegistrationDate time.Time
	Source           string
}

// Transaction is one invoice line. CustomerID is derived from positions
// [2,12) of OrderReference during loading, then normalized.
type Transaction struct {
	OrderReference string
	OrderID        string
	CustomerID     string
	Gross          float64
	Tax1           float64
	Tax2           float64
	Tax3           float64
	Date           time.Time
}

// Net is the gross amount minus all tax components. Missing taxes are
// loaded as zero, so this never needs null handling.
func (t Transaction) Net() float64 {
	return t.Gross - t.Tax1 - t.Tax2 - t.Tax3
}

// EmailPreference maps a customer to an email type label.
type EmailPreference struct {
	CustomerID string
	EmailType  string
}

// GroupLabel is a pre-existing customer group assignment, merged read-only
// into the final table and never used for scoring.
type GroupLabel struct {
	CustomerID string
	Group      string
}

// RegionData bundles the four input tables of one region. SentinelIDs counts
// identifiers that collapsed to the all-zero sentinel during loading.
type RegionData struct {
	Region       string
	Profiles     []Profile
	Transactions []Transaction
	EmailPrefs   []EmailPreference
	Groups       []GroupLabel
	SentinelIDs  int
}

/*
COMPUTE → per-customer metrics and scores.
*/

// CustomerMetrics is the aggregator output for one customer: the blended
// 5-year frequency and monetary figures, recency in whole days (sentinel
// for customers without purchases) and the all-time net revenue.
type CustomerMetrics struct {
	CustomerID       string
	FrequencyBlended float64
	MonetaryBlended  float64
	RecencyDays      int
	LifetimeMonetary float64
}

// Scores holds the four ordinal scores of one customer.
type Scores struct {
	Monetary  int
	Frequency int
	Recency   int
	MF        int
}

// Segment is a named marketing classification bucket. The numbered labels
// keep exported files sorted by segment rank.
type Segment string

const (
	SegmentChampions        Segment = "01-Champions"
	SegmentLoyal            Segment = "02-Loyal Customers"
	SegmentCannotLose       Segment = "03-Cannot-Lose Customers"
	SegmentPotentiallyLoyal Segment = "04-Potentially Loyal Customers"
	SegmentNeedsAttention   Segment = "05-Needs Attention"
	SegmentAtRisk           Segment = "06-At-Risk Customers"
	SegmentNewCustomers     Segment = "07-New Customers"
	SegmentReactivated      Segment = "08-Reactivated Customers"
	SegmentPromising        Segment = "09-Promising Customers"
	SegmentChurning         Segment = "10-Churning Customers"
	SegmentDormant          Segment = "11-Dormant Customers"
	SegmentLost             Segment = "12-Lost Customers"
	SegmentProspects        Segment = "13-Prospects"
	SegmentNotClassified    Segment = "Not Classified"
	SegmentUnknown          Segment = "Unknown"
)

/*
OUTPUT → one row per customer in the exported region table.
*/

// OutputRow is the final per-customer result of one region run.
type OutputRow struct {
	CustomerID       string
	RegistrationDate time.Time
	EmailType        string
	FrequencyBlended float64
	MonetaryBlended  float64
	RecencyDays      int
	Scores           Scores
	Segment          Segment
	PriorGroup       string
}
