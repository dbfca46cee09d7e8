package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mergesPaired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bets_merges_paired_total",
		Help: "Merge sessions that found a partner",
	})
	mergesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bets_merges_completed_total",
		Help: "Merge sessions resolved to completion",
	})
	mergesCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bets_merges_cancelled_total",
		Help: "Merge sessions cancelled before resolution",
	})
	nosheniaDone = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bets_noshenia_total",
		Help: "Completed noshenie draws",
	})
	labStints = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bets_lab_stints_total",
		Help: "Lab stints started",
	})
	shelterSales = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bets_shelter_sales_total",
		Help: "Completed shelter purchases",
	})
	promoRedemptions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bets_promo_redemptions_total",
		Help: "Successful promo code redemptions",
	})
)
