package appmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncCyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mercedesme_api_sync_cycles_total",
		Help: "Total sync cycles executed (throttled skips excluded)",
	})
	VehicleSyncFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mercedesme_api_vehicle_sync_failures_total",
		Help: "Total failed vehicle document fetches during sync",
	})

	TokenRefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mercedesme_api_token_refreshes_total",
		Help: "Total OAuth token refreshes attempted",
	})
	TokenRefreshFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mercedesme_api_token_refresh_failures_total",
		Help: "Total OAuth token refreshes that failed",
	})

	CommandsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mercedesme_api_commands_total",
		Help: "Total remote commands issued",
	})
	CommandSuccessesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mercedesme_api_command_successes_total",
		Help: "Total remote commands that reached SUCCESS",
	})
)

var (
	HTTPRequestCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mercedesme_api_http_request_count",
		Help: "The total number of HTTP requests served",
	}, []string{"method", "path", "status"})
	HTTPResponseTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "mercedesme_api_http_response_time",
		Help: "The response time distribution of the web API",
	}, []string{"method", "path", "status"})
)
