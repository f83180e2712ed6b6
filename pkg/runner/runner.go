// Package runner coordinates per-region RFM runs and the multi-region batch.
package runner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"rfm-segments/pkg/config"
	"rfm-segments/pkg/models"
	"rfm-segments/pkg/rfm"
)

// Loader supplies one region's input tables. The database implementation
// lives in pkg/database; tests substitute their own.
type Loader interface {
	LoadRegion(ctx context.Context, region string) (models.RegionData, error)
}

// Exporter persists one region's output table.
type Exporter interface {
	Export(region string, rows []models.OutputRow) (string, error)
}

// RegionResult is one manifest entry. Err is set when the region failed; a
// failed region contributes no rows but never affects the other entries.
type RegionResult struct {
	Region      string
	Rows        int
	OutputFile  string
	SentinelIDs int
	Segments    map[models.Segment]int
	Err         error
}

// Manifest summarizes one batch run.
type Manifest struct {
	RunID     string
	Reference time.Time
	Regions   []RegionResult
}

func (m Manifest) Succeeded() int {
	n := 0
	for _, r := range m.Regions {
		if r.Err == nil {
			n++
		}
	}
	return n
}

func (m Manifest) Failed() int {
	return len(m.Regions) - m.Succeeded()
}

// Region runs the full pipeline for one region's data: aggregate → score →
// classify → merge email types and prior group labels. It is a pure function
// of its inputs; nothing is shared across regions.
func Region(data models.RegionData, cfg *config.Config, reference time.Time) ([]models.OutputRow, map[models.Segment]int, error) {
	if len(data.Profiles) == 0 {
		return nil, nil, fmt.Errorf("region %s: no customer profiles loaded", data.Region)
	}

	metrics := rfm.Aggregate(data.Profiles, data.Transactions, rfm.AggregateConfig{
		Reference:           reference,
		OlderYears:          cfg.Analysis.OlderYears,
		RecentYears:         cfg.Analysis.RecentYears,
		BlendWeight:         cfg.Analysis.BlendWeight,
		RecencySentinelDays: cfg.Analysis.RecencySentinelDays,
	})

	// Left-join lookups; the first row per customer wins.
	registration := make(map[string]time.Time, len(data.Profiles))
	for _, p := range data.Profiles {
		if _, hit := registration[p.CustomerID]; !hit {
			registration[p.CustomerID] = p.RegistrationDate
		}
	}
	emailType := make(map[string]string, len(data.EmailPrefs))
	for _, e := range data.EmailPrefs {
		if _, hit := emailType[e.CustomerID]; !hit {
			emailType[e.CustomerID] = e.EmailType
		}
	}
	priorGroup := make(map[string]string, len(data.Groups))
	for _, g := range data.Groups {
		if _, hit := priorGroup[g.CustomerID]; !hit {
			priorGroup[g.CustomerID] = g.Group
		}
	}

	rows := make([]models.OutputRow, 0, len(metrics))
	segments := make(map[models.Segment]int)
	for _, m := range metrics {
		scores := models.Scores{
			Monetary:  cfg.Bins.Monetary.Score(m.MonetaryBlended),
			Frequency: cfg.Bins.Frequency.Score(m.FrequencyBlended),
			Recency:   cfg.Bins.Recency.Score(float64(m.RecencyDays)),
		}
		scores.MF = rfm.MFScore(scores.Monetary, scores.Frequency)
		segment := rfm.Classify(scores, m.LifetimeMonetary)
		segments[segment]++

		rows = append(rows, models.OutputRow{
			CustomerID:       m.CustomerID,
			RegistrationDate: registration[m.CustomerID],
			EmailType:        emailType[m.CustomerID],
			FrequencyBlended: m.FrequencyBlended,
			MonetaryBlended:  m.MonetaryBlended,
			RecencyDays:      m.RecencyDays,
			Scores:           scores,
			Segment:          segment,
			PriorGroup:       priorGroup[m.CustomerID],
		})
	}
	return rows, segments, nil
}

// Batch processes all configured regions, each on its own goroutine over its
// own copy of the data. Failures are isolated: a broken region becomes a
// manifest entry, the others keep their results.
func Batch(ctx context.Context, loader Loader, exporter Exporter, cfg *config.Config, verbose bool) (Manifest, error) {
	reference, err := cfg.Reference()
	if err != nil {
		return Manifest{}, err
	}

	manifest := Manifest{
		RunID:     uuid.NewString(),
		Reference: reference,
		Regions:   make([]RegionResult, len(cfg.Regions)),
	}

	bar := progressbar.Default(int64(len(cfg.Regions)))
	var wg sync.WaitGroup
	for i, region := range cfg.Regions {
		wg.Add(1)
		go func(i int, region string) {
			defer wg.Done()
			manifest.Regions[i] = runRegion(ctx, loader, exporter, cfg, reference, region, verbose)
			_ = bar.Add(1)
		}(i, region)
	}
	wg.Wait()

	return manifest, nil
}

func runRegion(ctx context.Context, loader Loader, exporter Exporter, cfg *config.Config, reference time.Time, region string, verbose bool) RegionResult {
	result := RegionResult{Region: region}

	data, err := loader.LoadRegion(ctx, region)
	if err != nil {
		result.Err = fmt.Errorf("load: %w", err)
		return result
	}
	result.SentinelIDs = data.SentinelIDs
	if data.SentinelIDs > 0 {
		log.Printf("[WARN] %s: %d identifiers collapsed to the all-zero sentinel", region, data.SentinelIDs)
	}

	rows, segments, err := Region(data, cfg, reference)
	if err != nil {
		result.Err = err
		return result
	}
	result.Rows = len(rows)
	result.Segments = segments

	path, err := exporter.Export(region, rows)
	if err != nil {
		result.Err = fmt.Errorf("export: %w", err)
		return result
	}
	result.OutputFile = path

	if verbose {
		log.Printf("[INFO] %s -> customers=%d sentinel_ids=%d file=%s", region, len(rows), data.SentinelIDs, path)
	}
	return result
}
