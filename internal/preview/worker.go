package preview

import (
	"github.com/sirupsen/logrus"

	"rovefs/internal/logging"
)

// Worker serves preview requests one at a time. Queued requests for the
// same tab are coalesced before building, so only the newest survives;
// anything already built is dropped later by the session's token check.
type Worker struct {
	requests chan Request
	results  chan Result
	quit     chan struct{}
	done     chan struct{}
	cache    *cache
	log      *logrus.Entry
}

func NewWorker(cacheSize int) *Worker {
	return &Worker{
		requests: make(chan Request, 16),
		results:  make(chan Result, 16),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		cache:    newCache(cacheSize),
		log:      logging.Component("preview"),
	}
}

func (w *Worker) Start() { go w.loop() }

func (w *Worker) Stop() {
	close(w.quit)
	<-w.done
}

// Results is the stream consumed by the UI bridge.
func (w *Worker) Results() <-chan Result { return w.results }

// Request never blocks the session; under pressure the oldest queued
// request is dropped in favor of the new one.
func (w *Worker) Request(req Request) {
	for {
		select {
		case w.requests <- req:
			return
		default:
			select {
			case <-w.requests:
			default:
			}
		}
	}
}

func (w *Worker) loop() {
	defer close(w.done)
	pending := make(map[int]Request)
	for {
		if len(pending) == 0 {
			select {
			case req := <-w.requests:
				pending[req.Tab] = req
			case <-w.quit:
				return
			}
		}
		// coalesce everything already queued; newest per tab wins
		draining := true
		for draining {
			select {
			case req := <-w.requests:
				pending[req.Tab] = req
			default:
				draining = false
			}
		}
		for tab, req := range pending {
			delete(pending, tab)
			res := w.build(req)
			select {
			case w.results <- res:
			case <-w.quit:
				return
			}
			break
		}
	}
}

func (w *Worker) build(req Request) Result {
	if res, ok := w.cache.get(req); ok {
		return res
	}
	res := Build(req)
	if res.Kind == KindError {
		w.log.WithField("path", req.Path).WithError(res.Err).Debug("preview failed")
		return res
	}
	w.cache.put(req, res)
	return res
}
