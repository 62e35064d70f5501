package restserver

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/hydrograph/riverflow/internal/constants"
	"github.com/hydrograph/riverflow/internal/efc"
	"github.com/hydrograph/riverflow/internal/log"
	"github.com/hydrograph/riverflow/pkg/config"
	"github.com/hydrograph/riverflow/pkg/responseformat"
)

// Handlers contains the HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// resolveGauge reads the gauge query parameter, falling back to the default
// gauge, and returns its configuration. Writes an error response and returns
// nil if the gauge is not configured.
func (h *Handlers) resolveGauge(w http.ResponseWriter, req *http.Request) *config.GaugeData {
	name := req.URL.Query().Get("gauge")
	if name == "" {
		name = h.controller.DefaultGauge
	}
	gauge := h.controller.gaugeByName(name)
	if gauge == nil {
		h.formatter.WriteError(w, req, http.StatusNotFound, "gauge not found")
		return nil
	}
	return gauge
}

// parseSpan parses the span path variable as a duration. Writes an error
// response and returns false on failure.
func (h *Handlers) parseSpan(w http.ResponseWriter, req *http.Request) (time.Duration, bool) {
	vars := mux.Vars(req)
	span, err := time.ParseDuration(vars["span"])
	if err != nil || span <= 0 {
		log.Errorf("invalid request: unable to parse duration: %v", vars["span"])
		h.formatter.WriteError(w, req, http.StatusBadRequest, "error: invalid span duration")
		return 0, false
	}
	return span, true
}

// GetEFCSpan handles requests for cached classification labels over a time span
func (h *Handlers) GetEFCSpan(w http.ResponseWriter, req *http.Request) {
	if !h.controller.DBEnabled {
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "database not enabled")
		return
	}

	gauge := h.resolveGauge(w, req)
	if gauge == nil {
		return
	}
	span, ok := h.parseSpan(w, req)
	if !ok {
		return
	}

	hours := int(math.Ceil(span.Hours()))
	window := h.controller.cacheWindowFor(hours)
	if window == 0 {
		h.formatter.WriteError(w, req, http.StatusNotFound, "no cached classification window covers the requested span")
		return
	}

	labels, err := h.controller.fetchLabelSpan(gauge.Name, span, window)
	if err != nil {
		log.Errorf("Error fetching cached labels: %v", err)
		if err.Error() == "time span exceeds maximum allowed duration of 1 year" {
			h.formatter.WriteError(w, req, http.StatusBadRequest, err.Error())
		} else {
			h.formatter.WriteError(w, req, http.StatusInternalServerError, "error fetching cached labels")
		}
		return
	}

	resp := EFCSpanResponse{
		Gauge:       gauge.Name,
		Method:      gaugeMethod(gauge),
		WindowHours: window,
		Labels:      transformLabels(labels),
	}

	err = h.formatter.WriteResponse(w, req, resp, map[string]string{
		"Cache-Control": "max-age=300",
	})
	if err != nil {
		log.Errorf("error encoding cached label response: %v", err)
	}
}

// GetEFCLatest handles requests for the most recent cached label for a gauge
func (h *Handlers) GetEFCLatest(w http.ResponseWriter, req *http.Request) {
	if !h.controller.DBEnabled {
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "database not enabled")
		return
	}

	gauge := h.resolveGauge(w, req)
	if gauge == nil {
		return
	}

	// The smallest cached window holds the freshest data
	window := h.controller.cacheWindowFor(1)
	if window == 0 {
		h.formatter.WriteError(w, req, http.StatusNotFound, "no cached classification windows configured")
		return
	}

	latest, err := h.controller.fetchLatestLabel(gauge.Name, window)
	if err != nil {
		log.Errorf("Error fetching latest cached label: %v", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "error fetching latest cached label")
		return
	}
	if latest == nil {
		h.formatter.WriteError(w, req, http.StatusNotFound, "no cached classification available for gauge")
		return
	}

	resp := EFCLatestResponse{
		Gauge:      gauge.Name,
		Time:       latest.Bucket,
		FlowClass:  latest.FlowClass,
		ComputedAt: latest.ComputedAt,
	}

	err = h.formatter.WriteResponse(w, req, resp, map[string]string{
		"Cache-Control": "max-age=60",
	})
	if err != nil {
		log.Errorf("error encoding latest label response: %v", err)
	}
}

// GetPulseSpan handles requests for cached high-flow pulses over a time span
func (h *Handlers) GetPulseSpan(w http.ResponseWriter, req *http.Request) {
	if !h.controller.DBEnabled {
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "database not enabled")
		return
	}

	gauge := h.resolveGauge(w, req)
	if gauge == nil {
		return
	}
	span, ok := h.parseSpan(w, req)
	if !ok {
		return
	}

	hours := int(math.Ceil(span.Hours()))
	window := h.controller.cacheWindowFor(hours)
	if window == 0 {
		h.formatter.WriteError(w, req, http.StatusNotFound, "no cached classification window covers the requested span")
		return
	}

	pulses, err := h.controller.fetchPulseSpan(gauge.Name, span, window)
	if err != nil {
		log.Errorf("Error fetching cached pulses: %v", err)
		if err.Error() == "time span exceeds maximum allowed duration of 1 year" {
			h.formatter.WriteError(w, req, http.StatusBadRequest, err.Error())
		} else {
			h.formatter.WriteError(w, req, http.StatusInternalServerError, "error fetching cached pulses")
		}
		return
	}

	resp := PulseSpanResponse{
		Gauge:       gauge.Name,
		WindowHours: window,
		Pulses:      transformPulses(pulses),
	}

	err = h.formatter.WriteResponse(w, req, resp, map[string]string{
		"Cache-Control": "max-age=300",
	})
	if err != nil {
		log.Errorf("error encoding cached pulse response: %v", err)
	}
}

// ClassifySpan handles on-demand classification of a gauge's discharge
// series over a time span. The method query parameter overrides the gauge's
// configured method.
func (h *Handlers) ClassifySpan(w http.ResponseWriter, req *http.Request) {
	if !h.controller.DBEnabled {
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "database not enabled")
		return
	}

	gauge := h.resolveGauge(w, req)
	if gauge == nil {
		return
	}
	span, ok := h.parseSpan(w, req)
	if !ok {
		return
	}

	method := req.URL.Query().Get("method")
	if method == "" {
		method = gaugeMethod(gauge)
	}

	series, err := h.fetchFlowSeries(gauge.Name, span)
	if err != nil {
		log.Errorf("Error fetching discharge series: %v", err)
		if err.Error() == "time span exceeds maximum allowed duration of 1 year" {
			h.formatter.WriteError(w, req, http.StatusBadRequest, err.Error())
		} else {
			h.formatter.WriteError(w, req, http.StatusInternalServerError, "error fetching discharge data")
		}
		return
	}
	if series.Len() == 0 {
		h.formatter.WriteError(w, req, http.StatusNotFound, "no discharge data for gauge over the requested span")
		return
	}

	classified, diag, err := efc.Classify(series, method, efc.ThresholdSet(gauge.Thresholds))
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, fmt.Sprintf("classification failed: %v", err))
		return
	}

	resp := ClassifyResponse{
		Gauge:             gauge.Name,
		Method:            string(diag.Method),
		DerivedThresholds: diag.DerivedThresholds,
		Thresholds:        map[string]float64(diag.Thresholds),
		Labels:            transformClassified(classified),
	}
	for _, class := range diag.ActiveOptionalClasses {
		resp.ActiveOptionalClasses = append(resp.ActiveOptionalClasses, string(class))
	}

	err = h.formatter.WriteResponse(w, req, resp, nil)
	if err != nil {
		log.Errorf("error encoding classification response: %v", err)
	}
}

// GetThresholds handles requests for the effective thresholds of a gauge and
// a range report of each threshold against the inspected series
func (h *Handlers) GetThresholds(w http.ResponseWriter, req *http.Request) {
	if !h.controller.DBEnabled {
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "database not enabled")
		return
	}

	gauge := h.resolveGauge(w, req)
	if gauge == nil {
		return
	}

	method := req.URL.Query().Get("method")
	if method == "" {
		method = gaugeMethod(gauge)
	}

	// Derivation wants a long record; use the trailing year
	series, err := h.fetchFlowSeries(gauge.Name, maxSpan)
	if err != nil {
		log.Errorf("Error fetching discharge series: %v", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "error fetching discharge data")
		return
	}

	thresholds := efc.ThresholdSet(gauge.Thresholds)
	derived := false
	if len(thresholds) == 0 {
		m, err := efc.ParseMethod(method)
		if err != nil {
			h.formatter.WriteError(w, req, http.StatusBadRequest, err.Error())
			return
		}
		thresholds, err = efc.DefaultThresholds(series, m)
		if err != nil {
			h.formatter.WriteError(w, req, http.StatusNotFound, fmt.Sprintf("cannot derive thresholds: %v", err))
			return
		}
		derived = true
	}

	resp := ThresholdsResponse{
		Gauge:      gauge.Name,
		Method:     method,
		Derived:    derived,
		Thresholds: map[string]float64(thresholds),
		Report:     efc.ValidateThresholds(thresholds, series.Values()),
	}

	err = h.formatter.WriteResponse(w, req, resp, nil)
	if err != nil {
		log.Errorf("error encoding threshold response: %v", err)
	}
}

// GetHealth handles liveness requests
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: constants.Version,
	}
	if err := h.formatter.WriteResponse(w, req, resp, nil); err != nil {
		log.Errorf("error encoding health response: %v", err)
	}
}

// fetchFlowSeries retrieves a gauge's discharge series over the trailing span
func (h *Handlers) fetchFlowSeries(gaugeName string, span time.Duration) (*efc.FlowSeries, error) {
	if span > maxSpan {
		return nil, fmt.Errorf("time span exceeds maximum allowed duration of 1 year")
	}
	return h.controller.DBClient.FetchFlowSeries(gaugeName, int(math.Ceil(span.Hours())))
}

// gaugeMethod returns the gauge's configured classification method,
// defaulting to advanced
func gaugeMethod(gauge *config.GaugeData) string {
	if gauge.Method == "" {
		return string(efc.MethodAdvanced)
	}
	return gauge.Method
}
