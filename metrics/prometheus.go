// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"code.vegaprotocol.io/betting/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "betting"

const (
	// Gauge ...
	Gauge instrument = iota
	// Counter ...
	Counter
	// Histogram ...
	Histogram
)

var (
	// ErrInstrumentNotSupported signals the specified instrument is not yet supported.
	ErrInstrumentNotSupported = errors.New("instrument type unsupported")
	// ErrInstrumentTypeMismatch signal the type of the instrument is not expected.
	ErrInstrumentTypeMismatch = errors.New("instrument is not of the expected type")
)

var (
	setupOnce sync.Once
	setupErr  error

	engineTime       *prometheus.CounterVec
	operationCounter *prometheus.CounterVec
	applyDuration    *prometheus.HistogramVec
	matchCounter     prometheus.Counter
	restingBets      prometheus.Gauge
	groupsResolved   *prometheus.CounterVec
	rakeCollected    *prometheus.CounterVec
	droppedEvents    prometheus.Counter
)

type instrument int

type instrumentOpts struct {
	opts    prometheus.Opts
	buckets []float64
	vectors []string
}

type mi struct {
	gaugeV     *prometheus.GaugeVec
	gauge      prometheus.Gauge
	counterV   *prometheus.CounterVec
	counter    prometheus.Counter
	histogramV *prometheus.HistogramVec
	histogram  prometheus.Histogram
}

type InstrumentOption func(o *instrumentOpts)

func Vectors(labels ...string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.vectors = labels
	}
}

func Help(help string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Help = help
	}
}

func Namespace(ns string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Namespace = ns
	}
}

func Buckets(b []float64) InstrumentOption {
	return func(o *instrumentOpts) {
		o.buckets = b
	}
}

// AddInstrument creates and registers a collector with the given registerer.
func AddInstrument(reg prometheus.Registerer, t instrument, name string, opts ...InstrumentOption) (*mi, error) {
	var col prometheus.Collector
	ret := mi{}
	opt := instrumentOpts{
		opts: prometheus.Opts{
			Name: name,
		},
	}
	// apply options
	for _, o := range opts {
		o(&opt)
	}
	switch t {
	case Gauge:
		o := prometheus.GaugeOpts(opt.opts)
		if len(opt.vectors) == 0 {
			ret.gauge = prometheus.NewGauge(o)
			col = ret.gauge
		} else {
			ret.gaugeV = prometheus.NewGaugeVec(o, opt.vectors)
			col = ret.gaugeV
		}
	case Counter:
		o := prometheus.CounterOpts(opt.opts)
		if len(opt.vectors) == 0 {
			ret.counter = prometheus.NewCounter(o)
			col = ret.counter
		} else {
			ret.counterV = prometheus.NewCounterVec(o, opt.vectors)
			col = ret.counterV
		}
	case Histogram:
		o := prometheus.HistogramOpts{
			Name:      opt.opts.Name,
			Namespace: opt.opts.Namespace,
			Help:      opt.opts.Help,
			Buckets:   opt.buckets,
		}
		if len(opt.vectors) == 0 {
			ret.histogram = prometheus.NewHistogram(o)
			col = ret.histogram
		} else {
			ret.histogramV = prometheus.NewHistogramVec(o, opt.vectors)
			col = ret.histogramV
		}
	default:
		return nil, ErrInstrumentNotSupported
	}
	if err := reg.Register(col); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (m mi) Gauge() (prometheus.Gauge, error) {
	if m.gauge == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.gauge, nil
}

func (m mi) Counter() (prometheus.Counter, error) {
	if m.counter == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.counter, nil
}

func (m mi) CounterVec() (*prometheus.CounterVec, error) {
	if m.counterV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.counterV, nil
}

func (m mi) HistogramVec() (*prometheus.HistogramVec, error) {
	if m.histogramV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.histogramV, nil
}

// Setup creates every collector on the registerer. Until it is called the
// recording functions do nothing.
func Setup(reg prometheus.Registerer) error {
	setupOnce.Do(func() {
		setupErr = setupMetrics(reg)
	})
	return setupErr
}

func setupMetrics(reg prometheus.Registerer) error {
	h, err := AddInstrument(reg, Counter, "engine_seconds_total",
		Namespace(namespace),
		Vectors("market", "engine", "fn"),
		Help("Time spent in each engine function"),
	)
	if err != nil {
		return err
	}
	if engineTime, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(reg, Counter, "operations_total",
		Namespace(namespace),
		Vectors("command", "result"),
		Help("Number of operations applied, by command and result"),
	)
	if err != nil {
		return err
	}
	if operationCounter, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(reg, Histogram, "operation_apply_seconds",
		Namespace(namespace),
		Vectors("command"),
		Buckets(prometheus.ExponentialBuckets(0.00001, 4, 10)),
		Help("Time taken to apply an operation"),
	)
	if err != nil {
		return err
	}
	if applyDuration, err = h.HistogramVec(); err != nil {
		return err
	}

	h, err = AddInstrument(reg, Counter, "matches_total",
		Namespace(namespace),
		Help("Number of matches created"),
	)
	if err != nil {
		return err
	}
	if matchCounter, err = h.Counter(); err != nil {
		return err
	}

	h, err = AddInstrument(reg, Gauge, "resting_bets",
		Namespace(namespace),
		Help("Number of bets resting in the order books"),
	)
	if err != nil {
		return err
	}
	if restingBets, err = h.Gauge(); err != nil {
		return err
	}

	h, err = AddInstrument(reg, Counter, "groups_resolved_total",
		Namespace(namespace),
		Vectors("outcome"),
		Help("Number of market groups resolved, by outcome"),
	)
	if err != nil {
		return err
	}
	if groupsResolved, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(reg, Counter, "rake_collected_total",
		Namespace(namespace),
		Vectors("asset"),
		Help("Rake collected, in asset units"),
	)
	if err != nil {
		return err
	}
	if rakeCollected, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(reg, Counter, "dropped_events_total",
		Namespace(namespace),
		Help("Number of events the Kafka sink could not queue"),
	)
	if err != nil {
		return err
	}
	droppedEvents, err = h.Counter()
	return err
}

// Start registers the collectors on the default registry and serves them
// over HTTP.
func Start(log *logging.Logger, conf Config) {
	if !conf.Enabled {
		return
	}
	if err := Setup(prometheus.DefaultRegisterer); err != nil {
		log.Panic("could not set up metrics", logging.Error(err))
	}
	mux := http.NewServeMux()
	mux.Handle(conf.Path, promhttp.Handler())
	go func() {
		err := http.ListenAndServe(fmt.Sprintf(":%d", conf.Port), mux)
		log.Error("metrics server stopped", logging.Error(err))
	}()
}

// OperationApplied records the outcome and duration of an operation.
func OperationApplied(command, result string, d time.Duration) {
	if operationCounter == nil || applyDuration == nil {
		return
	}
	operationCounter.WithLabelValues(command, result).Inc()
	applyDuration.WithLabelValues(command).Observe(d.Seconds())
}

func MatchesAdd(n int) {
	if matchCounter == nil {
		return
	}
	matchCounter.Add(float64(n))
}

func RestingBetsSet(n int) {
	if restingBets == nil {
		return
	}
	restingBets.Set(float64(n))
}

func GroupResolved(outcome string) {
	if groupsResolved == nil {
		return
	}
	groupsResolved.WithLabelValues(outcome).Inc()
}

func RakeCollectedAdd(asset string, amount float64) {
	if rakeCollected == nil {
		return
	}
	rakeCollected.WithLabelValues(asset).Add(amount)
}

func DroppedEventsAdd(n int) {
	if droppedEvents == nil {
		return
	}
	droppedEvents.Add(float64(n))
}
