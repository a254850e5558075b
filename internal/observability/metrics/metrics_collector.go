// Package metrics provides metrics collection and exposition for replytune.
// It wraps the Prometheus SDK behind a name-keyed collector and registers
// the generation, reward, training and HTTP metrics on construction.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ============================================================================
// Metrics Collector
// ============================================================================

// MetricsCollector manages Prometheus metrics collection
type MetricsCollector struct {
	registry *prometheus.Registry

	namespace string
	subsystem string

	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec

	mu sync.RWMutex
}

// CollectorConfig defines metrics collector configuration
type CollectorConfig struct {
	// Namespace for all metrics
	Namespace string

	// Subsystem for metrics grouping
	Subsystem string

	// Enable default Go metrics
	EnableGoMetrics bool

	// Enable process metrics
	EnableProcessMetrics bool

	// Custom registry (optional)
	Registry *prometheus.Registry
}

// Reward scores live in [0, 1].
var scoreBuckets = []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(cfg CollectorConfig) *MetricsCollector {
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.EnableGoMetrics {
		registry.MustRegister(collectors.NewGoCollector())
	}
	if cfg.EnableProcessMetrics {
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	collector := &MetricsCollector{
		registry:   registry,
		namespace:  cfg.Namespace,
		subsystem:  cfg.Subsystem,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}

	collector.registerCoreMetrics()

	return collector
}

func (c *MetricsCollector) registerCoreMetrics() {
	// Generation
	c.RegisterCounter("generation_requests_total", "Total reply generation requests", []string{"outcome"})
	c.RegisterCounter("generation_fallbacks_total", "Total replies that fell back to the clarification text", []string{"reason"})
	c.RegisterHistogram("generation_duration_seconds", "Reply generation duration in seconds", []string{"outcome"}, prometheus.DefBuckets)

	// Reward
	c.RegisterCounter("reward_scores_total", "Total replies scored by the reward model", nil)
	c.RegisterHistogram("reward_total_score", "Distribution of total reward scores", nil, scoreBuckets)

	// Training
	c.RegisterCounter("policy_updates_total", "Total PPO policy updates applied", nil)
	c.RegisterHistogram("policy_update_loss", "Clipped surrogate loss of policy updates", nil,
		prometheus.LinearBuckets(-1, 0.1, 21))
	c.RegisterGauge("training_epoch_avg_reward", "Running average reward at the end of an epoch of the current run", []string{"epoch"})
	c.RegisterGauge("training_progress", "Fraction of training samples processed in the current run", nil)

	// Cache
	c.RegisterCounter("cache_hits_total", "Total number of cache hits", []string{"cache_name"})
	c.RegisterCounter("cache_misses_total", "Total number of cache misses", []string{"cache_name"})

	// HTTP
	c.RegisterCounter("http_requests_total", "Total number of HTTP requests", []string{"method", "path", "status"})
	c.RegisterHistogram("http_request_duration_seconds", "HTTP request duration in seconds", []string{"method", "path"}, prometheus.DefBuckets)
}

// ============================================================================
// Counter Operations
// ============================================================================

// RegisterCounter registers a new counter metric
func (c *MetricsCollector) RegisterCounter(name, help string, labels []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.counters[name]; exists {
		return
	}

	c.counters[name] = promauto.With(c.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: c.subsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// IncrementCounter increments a counter by 1
func (c *MetricsCollector) IncrementCounter(name string, labels prometheus.Labels) {
	c.AddCounter(name, 1, labels)
}

// AddCounter adds a value to a counter
func (c *MetricsCollector) AddCounter(name string, value float64, labels prometheus.Labels) {
	c.mu.RLock()
	counter, exists := c.counters[name]
	c.mu.RUnlock()

	if !exists {
		return
	}

	counter.With(labels).Add(value)
}

// ============================================================================
// Gauge Operations
// ============================================================================

// RegisterGauge registers a new gauge metric
func (c *MetricsCollector) RegisterGauge(name, help string, labels []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.gauges[name]; exists {
		return
	}

	c.gauges[name] = promauto.With(c.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: c.namespace,
			Subsystem: c.subsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// SetGauge sets a gauge value
func (c *MetricsCollector) SetGauge(name string, value float64, labels prometheus.Labels) {
	c.mu.RLock()
	gauge, exists := c.gauges[name]
	c.mu.RUnlock()

	if !exists {
		return
	}

	gauge.With(labels).Set(value)
}

// ============================================================================
// Histogram Operations
// ============================================================================

// RegisterHistogram registers a new histogram metric
func (c *MetricsCollector) RegisterHistogram(name, help string, labels []string, buckets []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.histograms[name]; exists {
		return
	}

	c.histograms[name] = promauto.With(c.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: c.namespace,
			Subsystem: c.subsystem,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}

// ObserveHistogram records a value in histogram
func (c *MetricsCollector) ObserveHistogram(name string, value float64, labels prometheus.Labels) {
	c.mu.RLock()
	histogram, exists := c.histograms[name]
	c.mu.RUnlock()

	if !exists {
		return
	}

	histogram.With(labels).Observe(value)
}

// ============================================================================
// HTTP Handler
// ============================================================================

// Handler returns HTTP handler for metrics exposition
func (c *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry exposes the underlying registry for gathering in tests and reports
func (c *MetricsCollector) Registry() *prometheus.Registry {
	return c.registry
}

// ============================================================================
// Domain Recorders
// ============================================================================

// RecordGeneration records one generator call. reason is empty for generated replies.
func (c *MetricsCollector) RecordGeneration(fallback bool, reason string, duration time.Duration) {
	outcome := "generated"
	if fallback {
		outcome = "fallback"
		c.IncrementCounter("generation_fallbacks_total", prometheus.Labels{"reason": reason})
	}
	c.IncrementCounter("generation_requests_total", prometheus.Labels{"outcome": outcome})
	c.ObserveHistogram("generation_duration_seconds", duration.Seconds(), prometheus.Labels{"outcome": outcome})
}

// RecordScore records one reward model evaluation
func (c *MetricsCollector) RecordScore(total float64) {
	c.IncrementCounter("reward_scores_total", nil)
	c.ObserveHistogram("reward_total_score", total, nil)
}

// RecordPolicyUpdate records one PPO step and its loss
func (c *MetricsCollector) RecordPolicyUpdate(loss float64) {
	c.IncrementCounter("policy_updates_total", nil)
	c.ObserveHistogram("policy_update_loss", loss, nil)
}

// ResetTraining clears the per-run training gauges. Only one run is active at a
// time, so the series describe the current run and the run ID stays in logs.
func (c *MetricsCollector) ResetTraining() {
	c.mu.RLock()
	epochs, exists := c.gauges["training_epoch_avg_reward"]
	c.mu.RUnlock()

	if exists {
		epochs.Reset()
	}
	c.SetGauge("training_progress", 0, nil)
}

// RecordEpoch records the running average reward at the end of an epoch
func (c *MetricsCollector) RecordEpoch(epoch int, avgReward float64) {
	c.SetGauge("training_epoch_avg_reward", avgReward, prometheus.Labels{"epoch": strconv.Itoa(epoch)})
}

// RecordProgress records the fraction of samples processed in the current run
func (c *MetricsCollector) RecordProgress(fraction float64) {
	c.SetGauge("training_progress", fraction, nil)
}

// RecordCacheHit records cache hit
func (c *MetricsCollector) RecordCacheHit(cacheName string) {
	c.IncrementCounter("cache_hits_total", prometheus.Labels{"cache_name": cacheName})
}

// RecordCacheMiss records cache miss
func (c *MetricsCollector) RecordCacheMiss(cacheName string) {
	c.IncrementCounter("cache_misses_total", prometheus.Labels{"cache_name": cacheName})
}

// RecordHTTPRequest records HTTP request metrics
func (c *MetricsCollector) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	c.IncrementCounter("http_requests_total", prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(statusCode),
	})
	c.ObserveHistogram("http_request_duration_seconds", duration.Seconds(), prometheus.Labels{
		"method": method,
		"path":   path,
	})
}

//Personal.AI order the ending
