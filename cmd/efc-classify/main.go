package main

import (
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"gonum.org/v1/gonum/stat"

	"github.com/hydrograph/riverflow/internal/efc"
)

// PulseSummary describes one contiguous run of identically-labeled pulse steps
type PulseSummary struct {
	StartTime time.Time
	EndTime   time.Time
	FlowClass efc.FlowClass
	PeakCMS   float64
	Steps     int
}

// pulseClasses are the labels reported in the pulse table
var pulseClasses = map[efc.FlowClass]bool{
	efc.ClassHighFlowPulse: true,
	efc.ClassSmallFlood:    true,
	efc.ClassLargeFlood:    true,
	efc.ClassLowFlowPulse:  true,
}

func main() {
	// Command line flags
	var (
		input      = flag.String("input", "", "CSV input file (timestamp,discharge_cms); reads from the database when empty")
		dbHost     = flag.String("db-host", "localhost", "Database host")
		dbPort     = flag.Int("db-port", 5432, "Database port")
		dbUser     = flag.String("db-user", "postgres", "Database user")
		dbPass     = flag.String("db-pass", "", "Database password")
		dbName     = flag.String("db-name", "riverflow", "Database name")
		gauge      = flag.String("gauge", "", "Gauge name (required for database input)")
		hours      = flag.Int("hours", 8760, "Number of hours of data to analyze (database input)")
		method     = flag.String("method", "advanced", "Classification method: standard or advanced")
		thresholds = flag.String("thresholds", "", "Explicit thresholds as key=value pairs separated by ';' (e.g. 'high flow=120;extreme low flow=5'); derived from the series when empty")
		csvOutput  = flag.String("csv", "", "Optional CSV output file path for the labeled series")
	)
	flag.Parse()

	var readings []efc.FlowReading
	var err error
	if *input != "" {
		readings, err = readCSV(*input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading CSV: %v\n", err)
			os.Exit(1)
		}
	} else {
		if *gauge == "" {
			fmt.Fprintf(os.Stderr, "Error: -gauge is required for database input\n")
			os.Exit(1)
		}
		readings, err = fetchFromDB(*dbHost, *dbPort, *dbUser, *dbPass, *dbName, *gauge, *hours)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching data: %v\n", err)
			os.Exit(1)
		}
	}

	if len(readings) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no discharge readings to classify\n")
		os.Exit(1)
	}

	explicit, err := parseThresholds(*thresholds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing thresholds: %v\n", err)
		os.Exit(1)
	}

	times := make([]time.Time, len(readings))
	values := make([]float64, len(readings))
	for i, r := range readings {
		times[i] = r.Time
		values[i] = r.DischargeCMS
	}

	series, err := efc.NewFlowSeriesFromValues(times, values)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building series: %v\n", err)
		os.Exit(1)
	}

	classified, diag, err := efc.Classify(series, *method, explicit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error classifying: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Environmental Flow Component Classification\n")
	fmt.Printf("===========================================\n\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Method: %s\n", diag.Method)
	if *input != "" {
		fmt.Printf("  Input: %s\n", *input)
	} else {
		fmt.Printf("  Gauge: %s (%d hours)\n", *gauge, *hours)
	}
	fmt.Printf("  Thresholds derived: %v\n\n", diag.DerivedThresholds)

	displaySeriesStats(values)
	displayThresholds(diag, values)
	displayLabelCounts(classified)
	displayPulses(summarizePulses(readings, classified))

	if *csvOutput != "" {
		if err := exportCSV(*csvOutput, readings, classified); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
		} else {
			fmt.Printf("\nLabeled series exported to: %s\n", *csvOutput)
		}
	}
}

func readCSV(filename string) ([]efc.FlowReading, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 2

	var readings []efc.FlowReading
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row++

		ts, err := time.Parse(time.RFC3339, record[0])
		if err != nil {
			// Tolerate a single header row
			if row == 1 {
				continue
			}
			return nil, fmt.Errorf("bad timestamp %q: %w", record[0], err)
		}
		discharge, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad discharge %q: %w", record[1], err)
		}
		readings = append(readings, efc.FlowReading{Time: ts, DischargeCMS: discharge})
	}

	return readings, nil
}

func fetchFromDB(host string, port int, user, pass, name, gauge string, hours int) ([]efc.FlowReading, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, pass, name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	table := "discharge_1h"
	if hours > 7*24 {
		table = "discharge_1d"
	}

	query := fmt.Sprintf(`
		SELECT bucket, discharge_cms
		FROM %s
		WHERE gaugename = $1
		  AND bucket >= NOW() - INTERVAL '1 hour' * $2
		  AND discharge_cms IS NOT NULL
		ORDER BY bucket
	`, table)

	rows, err := db.Query(query, gauge, hours)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []efc.FlowReading
	for rows.Next() {
		var r efc.FlowReading
		if err := rows.Scan(&r.Time, &r.DischargeCMS); err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}

	return readings, rows.Err()
}

func parseThresholds(s string) (efc.ThresholdSet, error) {
	if s == "" {
		return nil, nil
	}

	set := make(efc.ThresholdSet)
	for _, pair := range strings.Split(s, ";") {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("malformed threshold pair %q, want key=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("bad threshold value in %q: %w", pair, err)
		}
		set[strings.TrimSpace(key)] = v
	}
	return set, nil
}

func displaySeriesStats(values []float64) {
	mean := stat.Mean(values, nil)
	stddev := stat.StdDev(values, nil)

	// Lag-1 autocorrelation indicates how smooth the hydrograph is
	autocorr := 0.0
	if len(values) > 2 {
		autocorr = stat.Correlation(values[:len(values)-1], values[1:], nil)
	}

	fmt.Printf("Series Statistics\n")
	fmt.Printf("=================\n\n")
	fmt.Printf("  Samples: %d\n", len(values))
	fmt.Printf("  Mean discharge: %.3f m³/s\n", mean)
	fmt.Printf("  Std deviation:  %.3f m³/s\n", stddev)
	fmt.Printf("  Lag-1 autocorrelation: %.4f\n\n", autocorr)
}

func displayThresholds(diag *efc.Diagnostics, values []float64) {
	fmt.Printf("Thresholds\n")
	fmt.Printf("==========\n\n")

	report := efc.ValidateThresholds(diag.Thresholds, values)
	fmt.Printf("%-32s | %10s | %s\n", "Key", "Value", "Range check")
	fmt.Printf("---------------------------------+------------+------------\n")
	for _, row := range report {
		check := "ok"
		if row.BelowRange {
			check = "below series range"
		} else if row.AboveRange {
			check = "above series range"
		}
		fmt.Printf("%-32s | %10.3f | %s\n", row.Key, row.Value, check)
	}

	if len(diag.ActiveOptionalClasses) > 0 {
		classes := make([]string, 0, len(diag.ActiveOptionalClasses))
		for _, c := range diag.ActiveOptionalClasses {
			classes = append(classes, string(c))
		}
		fmt.Printf("\nActive optional classes: %s\n", strings.Join(classes, ", "))
	}
	fmt.Println()
}

func displayLabelCounts(classified *efc.ClassifiedSeries) {
	counts := make(map[efc.FlowClass]int)
	for _, label := range classified.Labels {
		counts[label]++
	}

	classes := make([]string, 0, len(counts))
	for class := range counts {
		classes = append(classes, string(class))
	}
	sort.Strings(classes)

	fmt.Printf("Label Counts\n")
	fmt.Printf("============\n\n")
	total := len(classified.Labels)
	for _, class := range classes {
		n := counts[efc.FlowClass(class)]
		fmt.Printf("  %-20s %7d  (%5.1f%%)\n", class, n, 100*float64(n)/float64(total))
	}
	fmt.Println()
}

// summarizePulses extracts contiguous runs of identically-labeled pulse steps
func summarizePulses(readings []efc.FlowReading, classified *efc.ClassifiedSeries) []PulseSummary {
	var pulses []PulseSummary

	i := 0
	for i < len(classified.Labels) {
		label := classified.Labels[i]
		if !pulseClasses[label] {
			i++
			continue
		}

		j := i
		peak := readings[i].DischargeCMS
		for j < len(classified.Labels) && classified.Labels[j] == label {
			if readings[j].DischargeCMS > peak {
				peak = readings[j].DischargeCMS
			}
			j++
		}

		pulses = append(pulses, PulseSummary{
			StartTime: readings[i].Time,
			EndTime:   readings[j-1].Time,
			FlowClass: label,
			PeakCMS:   peak,
			Steps:     j - i,
		})
		i = j
	}

	return pulses
}

func displayPulses(pulses []PulseSummary) {
	fmt.Printf("Pulses\n")
	fmt.Printf("======\n\n")

	if len(pulses) == 0 {
		fmt.Printf("  (none)\n")
		return
	}

	fmt.Printf("%-20s | %-20s | %-16s | %10s | %6s\n", "Start", "End", "Class", "Peak(m³/s)", "Steps")
	fmt.Printf("---------------------+----------------------+------------------+------------+-------\n")
	for _, p := range pulses {
		fmt.Printf("%-20s | %-20s | %-16s | %10.3f | %6d\n",
			p.StartTime.Format("2006-01-02 15:04"),
			p.EndTime.Format("2006-01-02 15:04"),
			p.FlowClass, p.PeakCMS, p.Steps)
	}
}

func exportCSV(filename string, readings []efc.FlowReading, classified *efc.ClassifiedSeries) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Time", "Discharge_cms", "Class"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i, r := range readings {
		record := []string{
			r.Time.Format(time.RFC3339),
			fmt.Sprintf("%.3f", r.DischargeCMS),
			string(classified.Labels[i]),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}
