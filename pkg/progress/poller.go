package progress

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

const (
	defaultPollInterval = 2 * time.Second
	maxPollBackoff      = 30 * time.Second
)

// Poller is the polling Channel implementation: it fetches the job status
// at a fixed interval and delivers each observation as a snapshot. On
// transport failure it backs off exponentially while reporting the error on
// the state channel; RetryConnection cuts the backoff short.
type Poller struct {
	client       *Client
	collectionID string
	jobID        string
	interval     time.Duration
	logger       arbor.ILogger

	snapshots chan *JobSnapshot
	states    chan ConnectionState
	retryNow  chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup
	seq       sequencer
}

// NewPoller opens a polling channel for one job and starts delivering
// snapshots immediately. interval <= 0 selects the default.
func NewPoller(client *Client, collectionID, jobID string, interval time.Duration, logger arbor.ILogger) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		client:       client,
		collectionID: collectionID,
		jobID:        jobID,
		interval:     interval,
		logger:       logger,
		snapshots:    make(chan *JobSnapshot, 16),
		states:       make(chan ConnectionState, 16),
		retryNow:     make(chan struct{}, 1),
		ctx:          ctx,
		cancel:       cancel,
	}

	p.wg.Add(1)
	go p.loop()

	return p
}

// Snapshots returns the snapshot sequence. Closed after Close.
func (p *Poller) Snapshots() <-chan *JobSnapshot {
	return p.snapshots
}

// States returns the connection-state side channel. Closed after Close.
func (p *Poller) States() <-chan ConnectionState {
	return p.states
}

// RetryConnection forces the next poll to happen immediately, regardless of
// interval or backoff state
func (p *Poller) RetryConnection() {
	select {
	case p.retryNow <- struct{}{}:
	default:
	}
}

// Close stops polling. Synchronous: when it returns, the poll goroutine has
// exited and both channels are closed; no further values are delivered.
// Safe to call more than once and at any time.
func (p *Poller) Close() error {
	p.closeOnce.Do(func() {
		p.cancel()
		p.wg.Wait()
		close(p.snapshots)
		close(p.states)
	})
	return nil
}

func (p *Poller) loop() {
	defer p.wg.Done()

	backoff := p.interval
	connected := false

	for {
		snapshot, err := p.client.GetIndexingStatus(p.ctx, p.collectionID, p.jobID)
		if p.ctx.Err() != nil {
			// Closed while the request was in flight; drop the result
			return
		}

		if err != nil {
			connected = false
			p.emitState(ConnectionState{Status: StatusError, Message: err.Error()})
			p.logger.Debug().
				Err(err).
				Str("job_id", p.jobID).
				Dur("backoff", backoff).
				Msg("Poll failed, backing off")

			if !p.wait(backoff) {
				return
			}
			backoff *= 2
			if backoff > maxPollBackoff {
				backoff = maxPollBackoff
			}
			continue
		}

		backoff = p.interval
		if !connected {
			connected = true
			p.emitState(ConnectionState{Status: StatusConnected})
		}

		snapshot.ReceivedAt = p.seq.next()
		select {
		case p.snapshots <- snapshot:
		case <-p.ctx.Done():
			return
		}

		if !p.wait(p.interval) {
			return
		}
	}
}

// wait sleeps for d unless a manual retry or close cuts it short. Returns
// false when the poller is closing.
func (p *Poller) wait(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-p.retryNow:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// emitState delivers a connection-state change without ever blocking close
func (p *Poller) emitState(state ConnectionState) {
	select {
	case p.states <- state:
	case <-p.ctx.Done():
	default:
	}
}
