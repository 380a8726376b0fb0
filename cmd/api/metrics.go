package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
	"github.com/leaseworks/lease-engine/internal/domain/contract"
	"github.com/leaseworks/lease-engine/internal/domain/receipt"
)

var (
	recalculationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lease",
			Subsystem: "contract",
			Name:      "recalculation_duration_seconds",
			Help:      "Line item recalculation latency by edited field",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		},
		[]string{"field"},
	)

	allocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lease",
			Subsystem: "receipt",
			Name:      "allocations_total",
			Help:      "Allocation runs by mode",
		},
		[]string{"mode"},
	)

	allocationInvoices = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lease",
			Subsystem: "receipt",
			Name:      "allocation_invoice_count",
			Help:      "Invoices touched per allocation run",
			Buckets:   prometheus.LinearBuckets(1, 2, 10),
		},
		[]string{"mode"},
	)

	postingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lease",
			Subsystem: "ledger",
			Name:      "postings_total",
			Help:      "Vouchers posted",
		},
	)

	reversalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lease",
			Subsystem: "ledger",
			Name:      "reversals_total",
			Help:      "Vouchers reversed",
		},
	)

	approvalTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lease",
			Subsystem: "approval",
			Name:      "transitions_total",
			Help:      "Approval state transitions",
		},
		[]string{"from", "to"},
	)
)

type contractMetrics struct{}

func (contractMetrics) RecordRecalculation(_ context.Context, field contract.Field, duration time.Duration) {
	recalculationDuration.WithLabelValues(string(field)).Observe(duration.Seconds())
}

type receiptMetrics struct{}

func (receiptMetrics) RecordAllocation(_ context.Context, mode receipt.AllocationMode, invoices int) {
	allocationsTotal.WithLabelValues(string(mode)).Inc()
	allocationInvoices.WithLabelValues(string(mode)).Observe(float64(invoices))
}

func (receiptMetrics) RecordPosting(_ context.Context, _ string) {
	postingsTotal.Inc()
}

func (receiptMetrics) RecordReversal(_ context.Context, _ string) {
	reversalsTotal.Inc()
}

type approvalMetrics struct{}

func (approvalMetrics) RecordTransition(_ context.Context, from, to approval.Status) {
	approvalTransitions.WithLabelValues(from.String(), to.String()).Inc()
}
