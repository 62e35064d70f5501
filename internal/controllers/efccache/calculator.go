package efccache

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hydrograph/riverflow/internal/efc"
	"github.com/hydrograph/riverflow/pkg/config"
	"go.uber.org/zap"
)

// pulseClasses are the labels that constitute a high-flow pulse in the
// cached pulse summaries
var pulseClasses = map[efc.FlowClass]bool{
	efc.ClassHighFlowPulse: true,
	efc.ClassSmallFlood:    true,
	efc.ClassLargeFlood:    true,
}

// Calculator classifies a gauge's stored discharge series and writes the
// per-step labels and pulse summaries to the cache tables
type Calculator struct {
	db      *sql.DB
	logger  *zap.SugaredLogger
	gauge   config.GaugeData
	windows []int
}

// NewCalculator creates a calculator for one gauge. windows lists the
// trailing time ranges, in hours, to classify and cache.
func NewCalculator(db *sql.DB, logger *zap.SugaredLogger, gauge config.GaugeData, windows []int) *Calculator {
	return &Calculator{
		db:      db,
		logger:  logger,
		gauge:   gauge,
		windows: windows,
	}
}

// method returns the configured classification method, defaulting to advanced
func (c *Calculator) method() string {
	if c.gauge.Method != "" {
		return c.gauge.Method
	}
	return string(efc.MethodAdvanced)
}

// RefreshWindows classifies and caches every configured time window.
// A failure in one window does not stop the others.
func (c *Calculator) RefreshWindows(ctx context.Context) error {
	for _, hours := range c.windows {
		if err := c.refreshWindow(ctx, hours); err != nil {
			c.logger.Errorf("EFC cache refresh failed for gauge %s (%dh): %v", c.gauge.Name, hours, err)
			continue
		}
	}
	return nil
}

// refreshWindow classifies one trailing window and replaces its cache rows
func (c *Calculator) refreshWindow(ctx context.Context, hours int) error {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorf("EFC refresh panic recovered (gauge %s, %dh): %v", c.gauge.Name, hours, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	readings, err := c.fetchData(ctx, hours)
	if err != nil {
		return fmt.Errorf("fetch data failed: %w", err)
	}
	if len(readings) == 0 {
		c.logger.Debugf("No discharge data available for gauge %s (%dh)", c.gauge.Name, hours)
		return nil
	}

	series := efc.NewFlowSeries(readings)

	var thresholds efc.ThresholdSet
	if len(c.gauge.Thresholds) > 0 {
		thresholds = efc.ThresholdSet(c.gauge.Thresholds)
	}

	classified, diag, err := efc.Classify(series, c.method(), thresholds)
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}

	c.logger.Debugf("Classified gauge %s (%dh): %d steps, method=%s, active optional classes=%v",
		c.gauge.Name, hours, classified.Len(), diag.Method, diag.ActiveOptionalClasses)

	if err := c.storeLabels(ctx, hours, classified); err != nil {
		return err
	}
	return c.storePulses(ctx, hours, readings, classified)
}

// fetchData retrieves the gauge's discharge series for a trailing window.
// Windows beyond a week read from the daily aggregate.
func (c *Calculator) fetchData(ctx context.Context, hours int) ([]efc.FlowReading, error) {
	tableName := "discharge_1h"
	if hours > 168 {
		tableName = "discharge_1d"
	}

	query := fmt.Sprintf(`
		SELECT bucket, discharge_cms
		FROM %s
		WHERE gaugename = $1
		  AND bucket >= NOW() - INTERVAL '1 hour' * $2
		  AND discharge_cms IS NOT NULL
		ORDER BY bucket
	`, tableName)

	rows, err := c.db.QueryContext(ctx, query, c.gauge.Name, hours)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var readings []efc.FlowReading
	for rows.Next() {
		var r efc.FlowReading
		if err := rows.Scan(&r.Time, &r.DischargeCMS); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return readings, nil
}

// buildLabelInsert assembles one multi-row INSERT covering every label in
// the window, so the cache rewrite is a single statement
func buildLabelInsert(gauge string, hours int, classified *efc.ClassifiedSeries) (string, []any) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO efc_labels_cache (gaugename, hours, bucket, flow_class, computed_at) VALUES ")

	args := make([]any, 0, classified.Len()*4)
	for i := 0; i < classified.Len(); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 4
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, NOW())", base+1, base+2, base+3, base+4)
		args = append(args, gauge, hours, classified.Times[i], string(classified.Labels[i]))
	}
	return sb.String(), args
}

// storeLabels replaces the cached per-step labels for one window. The
// delete and the batched insert run in one transaction so the cache is
// never left partially repopulated.
func (c *Calculator) storeLabels(ctx context.Context, hours int, classified *efc.ClassifiedSeries) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin label cache transaction: %w", err)
	}
	defer tx.Rollback()

	deleteQuery := `DELETE FROM efc_labels_cache WHERE gaugename = $1 AND hours = $2`
	if _, err := tx.ExecContext(ctx, deleteQuery, c.gauge.Name, hours); err != nil {
		return fmt.Errorf("failed to delete old label cache: %w", err)
	}

	if classified.Len() > 0 {
		query, args := buildLabelInsert(c.gauge.Name, hours, classified)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert label cache: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit label cache: %w", err)
	}

	c.logger.Debugf("Cached %d EFC labels for gauge %s (%dh window)", classified.Len(), c.gauge.Name, hours)
	return nil
}

// pulseSummary is a contiguous run of identically-labeled pulse steps
type pulseSummary struct {
	StartTime time.Time
	EndTime   time.Time
	FlowClass efc.FlowClass
	PeakCMS   float64
	Steps     int
}

// pulseSummaries extracts the contiguous pulse runs from a classified series
func pulseSummaries(readings []efc.FlowReading, classified *efc.ClassifiedSeries) []pulseSummary {
	var summaries []pulseSummary
	var current *pulseSummary

	for i, label := range classified.Labels {
		if !pulseClasses[label] || (current != nil && current.FlowClass != label) {
			if current != nil {
				summaries = append(summaries, *current)
				current = nil
			}
			if !pulseClasses[label] {
				continue
			}
		}
		if current == nil {
			current = &pulseSummary{
				StartTime: readings[i].Time,
				FlowClass: label,
				PeakCMS:   readings[i].DischargeCMS,
			}
		}
		current.EndTime = readings[i].Time
		current.Steps++
		if readings[i].DischargeCMS > current.PeakCMS {
			current.PeakCMS = readings[i].DischargeCMS
		}
	}
	if current != nil {
		summaries = append(summaries, *current)
	}
	return summaries
}

// buildPulseInsert assembles one multi-row INSERT covering every pulse in
// the window
func buildPulseInsert(gauge string, hours int, pulses []pulseSummary) (string, []any) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO efc_pulses_cache " +
		"(gaugename, hours, start_time, end_time, flow_class, peak_discharge_cms, duration_steps, computed_at) VALUES ")

	args := make([]any, 0, len(pulses)*7)
	for i, p := range pulses {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 7
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, NOW())",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		args = append(args, gauge, hours, p.StartTime, p.EndTime, string(p.FlowClass), p.PeakCMS, p.Steps)
	}
	return sb.String(), args
}

// storePulses replaces the cached pulse summaries for one window, in one
// transaction like storeLabels
func (c *Calculator) storePulses(ctx context.Context, hours int, readings []efc.FlowReading, classified *efc.ClassifiedSeries) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin pulse cache transaction: %w", err)
	}
	defer tx.Rollback()

	deleteQuery := `DELETE FROM efc_pulses_cache WHERE gaugename = $1 AND hours = $2`
	if _, err := tx.ExecContext(ctx, deleteQuery, c.gauge.Name, hours); err != nil {
		return fmt.Errorf("failed to delete old pulse cache: %w", err)
	}

	pulses := pulseSummaries(readings, classified)
	if len(pulses) > 0 {
		query, args := buildPulseInsert(c.gauge.Name, hours, pulses)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert pulse cache: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pulse cache: %w", err)
	}

	c.logger.Debugf("Cached %d EFC pulses for gauge %s (%dh window)", len(pulses), c.gauge.Name, hours)
	return nil
}
