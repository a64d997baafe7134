// Package transfer implements the FTCP sender and receiver state machines
// described in spec §4.4/§4.5, built on the wire codecs and framed I/O adapter in
// the sibling protocol package.
package transfer

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aeldrin/ftcp/logger"
)

// ThroughputSource reports the cumulative number of bytes transferred so
// far. A Sender or Receiver satisfies this by exposing its running byte
// counter.
type ThroughputSource interface {
	// NbBytes returns the total bytes moved so far.
	NbBytes() uint64
}

// Throughput reports byte throughput over rolling windows, the way progress
// output in spec §6.5 is driven: 10s, 30s, and 300s rates plus a
// since-start average.
type Throughput interface {
	// Start begins the background sampling goroutine.
	Start()

	// Bps10s returns the bytes/sec rate over the last 10s window.
	Bps10s() float64
	// Bps30s returns the bytes/sec rate over the last 30s window.
	Bps30s() float64
	// Bps300s returns the bytes/sec rate over the last 300s window.
	Bps300s() float64
	// Average returns the bytes/sec rate since sampling started.
	Average() float64

	io.Closer
}

// window accumulates one rolling sample.
type window struct {
	bps        float64
	nbBytes    uint64
	create     time.Time
	lastSample time.Time
	interval   time.Duration
}

func (w *window) initialize(now time.Time, nbBytes uint64) {
	w.nbBytes = nbBytes
	w.lastSample = now
	w.create = now
}

func (w *window) sample(now time.Time, nbBytes uint64) bool {
	if w.lastSample.Add(w.interval).After(now) {
		return false
	}

	diff := int64(nbBytes - w.nbBytes)
	w.nbBytes = nbBytes
	w.lastSample = now
	if diff <= 0 {
		w.bps = 0
		return true
	}

	interval := int(w.interval / time.Millisecond)
	w.bps = float64(diff) * 1000 / float64(interval)

	return true
}

var errThroughputClosed = fmt.Errorf("throughput sampler closed")

type throughput struct {
	source  ThroughputSource
	ctx     logger.Context
	closed  bool
	started bool
	lock    sync.Mutex

	w10s, w30s, w300s window

	average uint64
	create  time.Time
}

// NewThroughput builds a Throughput sampler over source. ctx, if non-nil,
// tags any warnings the sampler logs with a connection id.
func NewThroughput(ctx logger.Context, source ThroughputSource) Throughput {
	t := &throughput{source: source, ctx: ctx}
	t.w10s.interval = 10 * time.Second
	t.w30s.interval = 30 * time.Second
	t.w300s.interval = 300 * time.Second
	return t
}

func (t *throughput) Close() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.closed = true
	t.started = false
	return nil
}

func (t *throughput) Bps10s() float64 {
	if !t.started {
		panic("throughput: Start must be called before reading a rate")
	}
	return t.w10s.bps
}

func (t *throughput) Bps30s() float64 {
	if !t.started {
		panic("throughput: Start must be called before reading a rate")
	}
	return t.w30s.bps
}

func (t *throughput) Bps300s() float64 {
	if !t.started {
		panic("throughput: Start must be called before reading a rate")
	}
	return t.w300s.bps
}

func (t *throughput) Average() float64 {
	if !t.started {
		panic("throughput: Start must be called before reading a rate")
	}
	return t.sampleAverage(time.Now())
}

func (t *throughput) sampleAverage(now time.Time) float64 {
	nbBytes := t.source.NbBytes()
	if nbBytes == 0 {
		return 0
	}

	if t.average == 0 {
		t.average = nbBytes
		t.create = now
		return 0
	}

	diff := int64(nbBytes - t.average)
	if diff <= 0 {
		return 0
	}

	duration := int64(now.Sub(t.create) / time.Millisecond)
	if duration <= 0 {
		return 0
	}

	return float64(diff) * 1000 / float64(duration)
}

func (t *throughput) doSample(now time.Time) {
	nbBytes := t.source.NbBytes()
	if nbBytes == 0 {
		return
	}

	if t.w10s.nbBytes == 0 {
		t.w10s.initialize(now, nbBytes)
		t.w30s.initialize(now, nbBytes)
		t.w300s.initialize(now, nbBytes)
		return
	}

	if !t.w10s.sample(now, nbBytes) {
		return
	}
	if !t.w30s.sample(now, nbBytes) {
		return
	}
	t.w300s.sample(now, nbBytes)
}

func (t *throughput) Start() {
	t.started = true

	go func() {
		for {
			if err := t.sample(); err != nil {
				if err == errThroughputClosed {
					return
				}
				logger.W(t.ctx, "throughput sampler ignoring sample error:", err)
			}
			time.Sleep(time.Second)
		}
	}()
}

func (t *throughput) sample() error {
	defer func() {
		if r := recover(); r != nil {
			logger.W(t.ctx, "throughput sampler recovered from", r)
		}
	}()

	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed {
		return errThroughputClosed
	}

	t.doSample(time.Now())
	return nil
}
