package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/skillhub/client-registry/internal/api/metrics"
	"github.com/skillhub/client-registry/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// lastLoginUpdater is the slice of the client service the recorder needs.
type lastLoginUpdater interface {
	UpdateLastLogin(ctx context.Context, id string)
}

// LoginRecorder stamps last-login times off the request path. Logins are
// sharded by client id so updates for one client apply in order.
type LoginRecorder struct {
	workers []chan string
	clients lastLoginUpdater
	log     zerolog.Logger
}

// NewLoginRecorder creates a LoginRecorder with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewLoginRecorder(numWorkers int, clients lastLoginUpdater, log zerolog.Logger) *LoginRecorder {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	r := &LoginRecorder{
		workers: make([]chan string, numWorkers),
		clients: clients,
		log:     log,
	}
	for i := range r.workers {
		r.workers[i] = make(chan string, channelBuffer)
	}
	return r
}

var _ ports.LoginRecorder = (*LoginRecorder)(nil)

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (r *LoginRecorder) Start(ctx context.Context) {
	for i, ch := range r.workers {
		go r.runWorker(ctx, i, ch)
	}
}

// RecordLogin queues a last-login update for clientID. It never blocks: when
// the worker queue is full the update is dropped and logged.
func (r *LoginRecorder) RecordLogin(clientID string) {
	idx := r.shardIndex(clientID)
	select {
	case r.workers[idx] <- clientID:
		metrics.LoginQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(r.workers[idx])))
	default:
		metrics.LoginsDroppedTotal.Inc()
		r.log.Warn().Str("client_id", clientID).Int("worker_id", idx).Msg("login queue full, dropping last-login update")
	}
}

// shardIndex maps a client id deterministically to a worker index.
func (r *LoginRecorder) shardIndex(clientID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(clientID))
	return int(h.Sum32() % uint32(len(r.workers)))
}

func (r *LoginRecorder) runWorker(ctx context.Context, id int, ch <-chan string) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case clientID, ok := <-ch:
			if !ok {
				return
			}
			metrics.LoginQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

			start := time.Now()
			r.clients.UpdateLastLogin(ctx, clientID)
			metrics.LoginRecordDuration.Observe(time.Since(start).Seconds())

			r.log.Debug().Str("client_id", clientID).Int("worker_id", id).Msg("last login recorded")
		}
	}
}
