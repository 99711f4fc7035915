package metrics

import "time"

// Recorder provides methods for recording execution metrics.
type Recorder struct{}

// NewRecorder creates a new metrics recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordEnqueued records a record entering the queue.
func (r *Recorder) RecordEnqueued(kind string) {
	ExecutionsEnqueued.WithLabelValues(kind).Inc()
}

// RecordExecution records a terminal execution outcome.
func (r *Recorder) RecordExecution(kind, status string) {
	ExecutionsTotal.WithLabelValues(kind, status).Inc()
}

// RecordRetry records a retry attempt.
func (r *Recorder) RecordRetry(kind string) {
	RetriesTotal.WithLabelValues(kind).Inc()
}

// RecordRejection records a pre-queue signal rejection.
func (r *Recorder) RecordRejection(reason string) {
	RejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordQueueDepth records the current queue depth.
func (r *Recorder) RecordQueueDepth(depth int) {
	QueueDepth.Set(float64(depth))
}

// RecordPositionOpened records a position being opened.
func (r *Recorder) RecordPositionOpened() {
	PositionsOpen.Inc()
}

// RecordPositionClosed records a position close by order kind.
func (r *Recorder) RecordPositionClosed(kind string) {
	PositionsOpen.Dec()
	PositionsClosed.WithLabelValues(kind).Inc()
}

// RecordSlippage records realized slippage of a successful fill.
func (r *Recorder) RecordSlippage(pct float64) {
	SlippagePct.Observe(pct)
}

// RecordMonitorSweep records a completed monitor sweep.
func (r *Recorder) RecordMonitorSweep() {
	MonitorSweeps.Inc()
}

// RecordError records an internal error.
func (r *Recorder) RecordError(errorType string) {
	ErrorsTotal.WithLabelValues(errorType).Inc()
}

// Timer is a helper for measuring latency.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed duration.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// ObserveSubmit observes the elapsed time as venue submission latency.
func (t *Timer) ObserveSubmit() {
	SubmitLatency.Observe(t.Elapsed().Seconds())
}
