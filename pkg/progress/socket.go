package progress

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
)

const (
	initialDialBackoff = 1 * time.Second
	maxDialBackoff     = 30 * time.Second
)

// Socket is the push Channel implementation over a websocket. It subscribes
// to one job and delivers every pushed snapshot; on disconnect it redials
// with exponential backoff and resubscribes, resuming from the server's
// latest state. Interchangeable with Poller behind the Channel contract.
type Socket struct {
	url          string
	collectionID string
	jobID        string
	logger       arbor.ILogger

	snapshots chan *JobSnapshot
	states    chan ConnectionState
	retryNow  chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup
	seq       sequencer

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewSocket opens a push channel for one job. url is the websocket
// endpoint, e.g. "ws://localhost:8085/ws".
func NewSocket(url, collectionID, jobID string, logger arbor.ILogger) *Socket {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Socket{
		url:          url,
		collectionID: collectionID,
		jobID:        jobID,
		logger:       logger,
		snapshots:    make(chan *JobSnapshot, 16),
		states:       make(chan ConnectionState, 16),
		retryNow:     make(chan struct{}, 1),
		ctx:          ctx,
		cancel:       cancel,
	}

	s.wg.Add(1)
	go s.loop()

	return s
}

// Snapshots returns the snapshot sequence. Closed after Close.
func (s *Socket) Snapshots() <-chan *JobSnapshot {
	return s.snapshots
}

// States returns the connection-state side channel. Closed after Close.
func (s *Socket) States() <-chan ConnectionState {
	return s.states
}

// RetryConnection forces an immediate redial attempt, cutting any backoff
// wait short. No-op while already connected.
func (s *Socket) RetryConnection() {
	select {
	case s.retryNow <- struct{}{}:
	default:
	}
}

// Close disconnects and stops the channel. Synchronous: when it returns,
// the read goroutine has exited and both channels are closed. Safe at any
// time, including mid-reconnect.
func (s *Socket) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close() // unblocks a pending read
		}
		s.mu.Unlock()
		s.wg.Wait()
		close(s.snapshots)
		close(s.states)
	})
	return nil
}

func (s *Socket) loop() {
	defer s.wg.Done()

	backoff := initialDialBackoff

	for {
		if s.ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(s.ctx, s.url, nil)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.emitState(ConnectionState{Status: StatusError, Message: err.Error()})
			s.logger.Debug().
				Err(err).
				Str("url", s.url).
				Dur("backoff", backoff).
				Msg("WebSocket dial failed, backing off")

			if !s.wait(backoff) {
				return
			}
			backoff *= 2
			if backoff > maxDialBackoff {
				backoff = maxDialBackoff
			}
			continue
		}

		s.setConn(conn)
		if s.ctx.Err() != nil {
			// Closed while dialing; Close may have missed this connection
			conn.Close()
			return
		}

		subscribe := map[string]string{
			"type":          "subscribe",
			"collection_id": s.collectionID,
			"job_id":        s.jobID,
		}
		if err := conn.WriteJSON(subscribe); err != nil {
			s.setConn(nil)
			conn.Close()
			s.emitState(ConnectionState{Status: StatusError, Message: err.Error()})
			continue
		}

		backoff = initialDialBackoff
		s.emitState(ConnectionState{Status: StatusConnected})
		s.logger.Debug().
			Str("job_id", s.jobID).
			Msg("WebSocket subscribed to job")

		s.readLoop(conn)

		s.setConn(nil)
		conn.Close()

		if s.ctx.Err() != nil {
			return
		}
		s.emitState(ConnectionState{Status: StatusDisconnected})

		if !s.wait(backoff) {
			return
		}
	}
}

// readLoop consumes pushed messages until the connection breaks
func (s *Socket) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var envelope struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			s.logger.Debug().Err(err).Msg("Ignoring malformed push message")
			continue
		}
		if envelope.Type != "job_snapshot" {
			continue
		}

		var snapshot JobSnapshot
		if err := json.Unmarshal(envelope.Data, &snapshot); err != nil {
			s.logger.Debug().Err(err).Msg("Ignoring malformed snapshot payload")
			continue
		}
		if snapshot.JobID != s.jobID {
			continue
		}

		snapshot.ReceivedAt = s.seq.next()
		select {
		case s.snapshots <- &snapshot:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Socket) setConn(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}

func (s *Socket) wait(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-s.retryNow:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *Socket) emitState(state ConnectionState) {
	select {
	case s.states <- state:
	default:
	}
}
