package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filekeep_cache_lookups_total",
		Help: "Cache-aside lookups by cache and result (hit, miss).",
	}, []string{"cache", "result"})

	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filekeep_uploads_total",
		Help: "Upload attempts by outcome.",
	}, []string{"outcome"})

	uploadedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filekeep_uploaded_bytes_total",
		Help: "Bytes accepted into the object store.",
	})

	conversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filekeep_conversions_total",
		Help: "Conversion jobs by outcome (ok, failed, dropped, panic).",
	}, []string{"outcome"})

	conversionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "filekeep_conversion_duration_seconds",
		Help:    "Wall time of conversion jobs.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})
)
