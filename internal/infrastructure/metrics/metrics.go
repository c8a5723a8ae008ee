package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Registry holds the storefront pipeline metrics on a private prometheus registry
type Registry struct {
	reg             *prometheus.Registry
	APICalls        *prometheus.CounterVec
	ThrottleRetries prometheus.Counter
	BudgetExhausts  prometheus.Counter
	ItemsScannedTot prometheus.Counter
	Accepted        *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	ProductsLive    prometheus.Gauge
	Runs            *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	apiCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_api_calls_total",
		Help: "PA-API call attempts by outcome",
	}, []string{"outcome"})
	throttleRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_throttle_retries_total",
		Help: "Retries scheduled after a throttling error",
	})
	budgetExhausts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_budget_exhausted_total",
		Help: "Calls refused because the run call budget was spent",
	})
	itemsScanned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_items_scanned_total",
		Help: "Search items examined by the filter",
	})
	productsAccepted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_products_accepted_total",
		Help: "Products merged into the storefront by relaxation tier",
	}, []string{"tier"})
	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_run_duration_seconds",
		Help:    "Wall time of one storefront build",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	})
	productsLive := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_products_published",
		Help: "Products in the last published storefront",
	})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_runs_total",
		Help: "Storefront builds by status",
	}, []string{"status"})

	r.MustRegister(apiCalls, throttleRetries, budgetExhausts, itemsScanned, productsAccepted, runDuration, productsLive, runs)
	return &Registry{
		reg:             r,
		APICalls:        apiCalls,
		ThrottleRetries: throttleRetries,
		BudgetExhausts:  budgetExhausts,
		ItemsScannedTot: itemsScanned,
		Accepted:        productsAccepted,
		RunDuration:     runDuration,
		ProductsLive:    productsLive,
		Runs:            runs,
	}
}

func (r *Registry) APICall(outcome string) { r.APICalls.WithLabelValues(outcome).Inc() }

func (r *Registry) ThrottleRetry() { r.ThrottleRetries.Inc() }

func (r *Registry) BudgetExhausted() { r.BudgetExhausts.Inc() }

func (r *Registry) ItemsScanned(n int) { r.ItemsScannedTot.Add(float64(n)) }

func (r *Registry) ProductsAccepted(tier string, n int) {
	r.Accepted.WithLabelValues(tier).Add(float64(n))
}

func (r *Registry) RunCompleted(duration time.Duration, products int, err error) {
	r.RunDuration.Observe(duration.Seconds())
	if err != nil {
		r.Runs.WithLabelValues("failed").Inc()
		return
	}
	r.Runs.WithLabelValues("ok").Inc()
	r.ProductsLive.Set(float64(products))
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// Push sends the current values to a Pushgateway under the given job name
func (r *Registry) Push(ctx context.Context, url, job string) error {
	return push.New(url, job).Gatherer(r.reg).PushContext(ctx)
}
