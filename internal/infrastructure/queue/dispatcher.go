package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/estateline/crm-api/internal/api/metrics"
	"github.com/estateline/crm-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher resolves report addresses in the background. Jobs are routed to
// a fixed set of workers by consistent hashing on the report ID, so repeated
// submissions for the same report never race each other.
type Dispatcher struct {
	workers  []chan ports.GeocodeJob
	geocoder ports.Geocoder
	cache    ports.GeocodeCache
	reports  ports.ReportRepository
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, geocoder ports.Geocoder, cache ports.GeocodeCache, reports ports.ReportRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan ports.GeocodeJob, numWorkers),
		geocoder: geocoder,
		cache:    cache,
		reports:  reports,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.GeocodeJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands the job to the worker responsible for its report. The call
// never blocks the submitter: when the shard's buffer is full the job is
// dropped and logged, leaving the report without an address until it is
// edited or re-geocoded.
func (d *Dispatcher) Enqueue(job ports.GeocodeJob) {
	idx := d.shardIndex(job.ReportID)
	select {
	case d.workers[idx] <- job:
		metrics.GeocodeQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.log.Warn().
			Str("report_id", job.ReportID).
			Int("worker_id", idx).
			Msg("geocode queue full, job dropped")
	}
}

// shardIndex maps a report ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(reportID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(reportID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.GeocodeJob) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			outcome := d.process(ctx, job)
			metrics.GeocodeQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
			d.log.Debug().
				Str("report_id", job.ReportID).
				Str("outcome", outcome).
				Int("worker_id", id).
				Msg("geocode job done")
		}
	}
}

// process resolves one job: cache first, then the external geocoder, then
// persist the address on the report. Returns the outcome label.
func (d *Dispatcher) process(ctx context.Context, job ports.GeocodeJob) string {
	start := time.Now()
	lat, lng := job.Location.Latitude, job.Location.Longitude

	address, hit, err := d.cache.Get(ctx, lat, lng)
	if err != nil {
		d.log.Warn().Err(err).Str("report_id", job.ReportID).Msg("geocode cache read failed")
	}
	outcome := "cached"
	if hit {
		metrics.GeocodeCacheTotal.WithLabelValues("hit").Inc()
	} else {
		metrics.GeocodeCacheTotal.WithLabelValues("miss").Inc()
		address, err = d.geocoder.ReverseGeocode(ctx, lat, lng)
		if err != nil {
			metrics.GeocodeDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
			d.log.Error().Err(err).
				Str("report_id", job.ReportID).
				Float64("lat", lat).
				Float64("lng", lng).
				Msg("reverse geocode failed")
			return "error"
		}
		outcome = "resolved"
		if err := d.cache.Set(ctx, lat, lng, address); err != nil {
			d.log.Warn().Err(err).Str("report_id", job.ReportID).Msg("geocode cache write failed")
		}
	}

	if err := d.reports.SetAddress(ctx, job.ReportID, address); err != nil {
		metrics.GeocodeDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		d.log.Error().Err(err).Str("report_id", job.ReportID).Msg("storing geocoded address failed")
		return "error"
	}

	metrics.GeocodeDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return outcome
}
