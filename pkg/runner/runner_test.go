package runner

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfm-segments/pkg/config"
	"rfm-segments/pkg/models"
	"rfm-segments/pkg/rfm"
)

var testRef = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func testCfg() *config.Config {
	return &config.Config{
		Regions: []string{"F01", "F02", "F03"},
		Output:  config.OutputConfig{Dir: "unused", Format: "csv"},
		Analysis: config.AnalysisConfig{
			IDWidth:             10,
			BlendWeight:         0.5,
			OlderYears:          5,
			RecentYears:         2,
			RecencySentinelDays: 9999,
			ReferenceDate:       "2024-03-01",
		},
		Bins: config.BinsConfig{
			Monetary:  rfm.DefaultMonetaryBins(),
			Frequency: rfm.DefaultFrequencyBins(),
			Recency:   rfm.DefaultRecencyBins(),
		},
	}
}

type fakeLoader struct {
	data map[string]models.RegionData
	fail map[string]error
}

func (f *fakeLoader) LoadRegion(_ context.Context, region string) (models.RegionData, error) {
	if err := f.fail[region]; err != nil {
		return models.RegionData{}, err
	}
	return f.data[region], nil
}

type fakeExporter struct {
	mu       sync.Mutex
	exported map[string]int
}

func (f *fakeExporter) Export(region string, rows []models.OutputRow) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exported == nil {
		f.exported = make(map[string]int)
	}
	f.exported[region] = len(rows)
	return "out/" + region + ".csv", nil
}

func recentOrder(customer, order string, daysBeforeRef int, net float64) models.Transaction {
	return models.Transaction{
		OrderID:    order,
		CustomerID: customer,
		Gross:      net,
		Date:       testRef.AddDate(0, 0, -daysBeforeRef),
	}
}

func TestRegion_EndToEndScenario(t *testing.T) {
	// Customer registered 2020-01-01, four distinct recent-window orders
	// totaling 900 net, none older, last order 10 days before reference.
	data := models.RegionData{
		Region: "F01",
		Profiles: []models.Profile{{
			CustomerID:       "0000000123",
			RegistrationDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		}},
		Transactions: []models.Transaction{
			recentOrder("0000000123", "O1", 100, 225),
			recentOrder("0000000123", "O2", 80, 225),
			recentOrder("0000000123", "O3", 40, 225),
			recentOrder("0000000123", "O4", 10, 225),
		},
		EmailPrefs: []models.EmailPreference{{CustomerID: "0000000123", EmailType: "newsletter"}},
		Groups:     []models.GroupLabel{{CustomerID: "0000000123", Group: "B2C"}},
	}

	rows, segments, err := Region(data, testCfg(), testRef)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, 4.0, row.FrequencyBlended)
	assert.Equal(t, 900.0, row.MonetaryBlended)
	assert.Equal(t, 10, row.RecencyDays)
	assert.Equal(t, models.Scores{Monetary: 4, Frequency: 3, Recency: 5, MF: 4}, row.Scores)
	assert.Equal(t, models.SegmentChampions, row.Segment)
	assert.Equal(t, "newsletter", row.EmailType)
	assert.Equal(t, "B2C", row.PriorGroup)
	assert.Equal(t, 1, segments[models.SegmentChampions])
}

func TestRegion_ZeroTransactionCustomerIsProspect(t *testing.T) {
	data := models.RegionData{
		Region:   "F01",
		Profiles: []models.Profile{{CustomerID: "0000000001"}},
	}
	rows, segments, err := Region(data, testCfg(), testRef)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, 9999, rows[0].RecencyDays)
	assert.Equal(t, 0.0, rows[0].MonetaryBlended)
	assert.Equal(t, models.SegmentProspects, rows[0].Segment)
	assert.Equal(t, 1, segments[models.SegmentProspects])
}

func TestRegion_NoProfilesIsAFailure(t *testing.T) {
	_, _, err := Region(models.RegionData{Region: "F01"}, testCfg(), testRef)
	assert.Error(t, err)
}

func TestBatch_RegionIsolation(t *testing.T) {
	okData := models.RegionData{
		Profiles: []models.Profile{{CustomerID: "0000000001"}},
	}
	loader := &fakeLoader{
		data: map[string]models.RegionData{"F01": okData, "F03": okData},
		fail: map[string]error{"F02": fmt.Errorf("connection refused")},
	}
	exporter := &fakeExporter{}

	manifest, err := Batch(context.Background(), loader, exporter, testCfg(), false)
	require.NoError(t, err)
	require.Len(t, manifest.Regions, 3)
	assert.NotEmpty(t, manifest.RunID)
	assert.Equal(t, 2, manifest.Succeeded())
	assert.Equal(t, 1, manifest.Failed())

	byRegion := make(map[string]RegionResult)
	for _, r := range manifest.Regions {
		byRegion[r.Region] = r
	}
	assert.NoError(t, byRegion["F01"].Err)
	assert.Equal(t, 1, byRegion["F01"].Rows)
	assert.Equal(t, "out/F01.csv", byRegion["F01"].OutputFile)
	require.Error(t, byRegion["F02"].Err)
	assert.Zero(t, byRegion["F02"].Rows, "a failed region contributes no rows")
	assert.Equal(t, 1, byRegion["F03"].Rows)

	// The broken region never reached the exporter.
	assert.NotContains(t, exporter.exported, "F02")
}

func TestBatch_CarriesSentinelTally(t *testing.T) {
	cfg := testCfg()
	cfg.Regions = []string{"F01"}
	loader := &fakeLoader{
		data: map[string]models.RegionData{"F01": {
			Profiles:    []models.Profile{{CustomerID: "0000000000"}},
			SentinelIDs: 3,
		}},
	}
	manifest, err := Batch(context.Background(), loader, &fakeExporter{}, cfg, false)
	require.NoError(t, err)
	require.Len(t, manifest.Regions, 1)
	assert.Equal(t, 3, manifest.Regions[0].SentinelIDs)
}
