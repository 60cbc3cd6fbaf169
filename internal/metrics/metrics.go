// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPCDuration observes every Connect call by procedure and result code.
	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "billed",
		Name:      "rpc_duration_seconds",
		Help:      "Duration of Connect RPCs.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"procedure", "code"})

	// ReceiptUploads counts receipt uploads by result: ok, rejected, error.
	ReceiptUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "billed",
		Name:      "receipt_uploads_total",
		Help:      "Receipt uploads by result.",
	}, []string{"result"})

	// ReceiptBytes observes the size of accepted receipts.
	ReceiptBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "billed",
		Name:      "receipt_size_bytes",
		Help:      "Size of uploaded receipts.",
		Buckets:   prometheus.ExponentialBuckets(16<<10, 4, 6),
	})

	// BillsSubmitted counts drafts committed through UpdateBill.
	BillsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "billed",
		Name:      "bills_submitted_total",
		Help:      "Bills committed by employees.",
	})

	// FormsOpen tracks the new-bill forms held by the HTML front.
	FormsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "billed",
		Name:      "web_forms_open",
		Help:      "New-bill forms currently held in memory.",
	})
)
