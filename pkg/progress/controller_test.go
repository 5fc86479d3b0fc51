package progress

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func testLogger() arbor.ILogger {
	return arbor.NewLogger()
}

// controlServer records control requests and answers with scripted statuses
type controlServer struct {
	mu       sync.Mutex
	requests []string
	status   int // response status for every control call
	gate     chan struct{} // when set, handlers block until it is closed
}

func (c *controlServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.requests = append(c.requests, r.URL.Path)
		gate := c.gate
		status := c.status
		c.mu.Unlock()

		if gate != nil {
			<-gate
		}
		if status >= 400 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			w.Write([]byte(`{"status":"error","error":"job is not in a controllable state"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"success"}`))
	})
}

func (c *controlServer) recorded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.requests))
	copy(out, c.requests)
	return out
}

func newTestController(t *testing.T, initial *JobSnapshot, status int) (*Controller, *Engine, *controlServer) {
	t.Helper()

	cs := &controlServer{status: status}
	srv := httptest.NewServer(cs.handler())
	t.Cleanup(srv.Close)

	engine := NewEngine(testLogger())
	if initial != nil {
		engine.Apply(initial)
	}
	controller := NewController(NewClient(srv.URL), engine, "job_1", testLogger())
	return controller, engine, cs
}

func TestController_OptimisticPauseThenConfirm(t *testing.T) {
	controller, engine, cs := newTestController(t,
		snap(1, JobProcessing, doc("a", DocProcessing)), http.StatusOK)

	require.NoError(t, controller.Pause(context.Background()))

	// Paused immediately, before any snapshot
	assert.Equal(t, JobPaused, engine.State().Status)
	assert.Equal(t, []string{"/api/jobs/job_1/pause"}, cs.recorded())

	// A late snapshot still reporting processing is overridden back
	engine.Apply(snap(2, JobProcessing, doc("a", DocProcessing)))
	assert.Equal(t, JobPaused, engine.State().Status)

	// The confirming snapshot clears the pending command
	engine.Apply(snap(3, JobPaused, doc("a", DocProcessing)))
	assert.Equal(t, JobPaused, engine.State().Status)
	assert.Empty(t, engine.Pending())
}

func TestController_RollbackOnRejection(t *testing.T) {
	controller, engine, _ := newTestController(t,
		snap(1, JobProcessing, doc("a", DocProcessing)), http.StatusConflict)

	err := controller.Cancel(context.Background())

	var rejected *CommandRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, CommandCancel, rejected.Command)
	assert.Equal(t, http.StatusConflict, rejected.StatusCode)

	// Prior confirmed state restored exactly
	assert.Equal(t, JobProcessing, engine.State().Status)
	assert.Empty(t, engine.Pending())
}

func TestController_RollbackOnTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	engine := NewEngine(testLogger())
	engine.Apply(snap(1, JobProcessing, doc("a", DocProcessing)))
	controller := NewController(NewClient(srv.URL), engine, "job_1", testLogger())
	srv.Close() // every request now fails at the transport

	err := controller.Pause(context.Background())

	require.Error(t, err)
	assert.Equal(t, JobProcessing, engine.State().Status)
	assert.Empty(t, engine.Pending())
}

func TestController_InvalidTransitionRejectedLocally(t *testing.T) {
	tests := []struct {
		name    string
		initial JobStatus
		run     func(*Controller) error
	}{
		{"pause while paused", JobPaused, func(c *Controller) error { return c.Pause(context.Background()) }},
		{"pause while pending", JobPending, func(c *Controller) error { return c.Pause(context.Background()) }},
		{"resume while processing", JobProcessing, func(c *Controller) error { return c.Resume(context.Background()) }},
		{"cancel while completed", JobCompleted, func(c *Controller) error { return c.Cancel(context.Background()) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller, engine, cs := newTestController(t,
				snap(1, tt.initial, doc("a", DocIndexed)), http.StatusOK)

			err := tt.run(controller)

			var invalid *InvalidTransitionError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.initial, invalid.From)
			// Rejected before any network call
			assert.Empty(t, cs.recorded())
			assert.Empty(t, engine.Pending())
		})
	}
}

func TestController_RetryDocument(t *testing.T) {
	controller, engine, cs := newTestController(t,
		snap(1, JobProcessing, doc("a", DocFailed), doc("b", DocIndexed)), http.StatusOK)

	require.NoError(t, controller.RetryDocument(context.Background(), "a"))

	assert.Equal(t, []string{"/api/jobs/job_1/documents/a/retry"}, cs.recorded())
	// Optimistically pending again
	assert.Equal(t, DocPending, engine.State().Documents[0].Status)

	// Retrying a document that is not failed is rejected locally
	err := controller.RetryDocument(context.Background(), "b")
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Len(t, cs.recorded(), 1)
}

func TestController_RetryAllFailedPreservesOrder(t *testing.T) {
	controller, engine, cs := newTestController(t,
		snap(1, JobProcessing,
			doc("a", DocFailed),
			doc("b", DocIndexed),
			doc("c", DocFailed),
		), http.StatusOK)

	require.NoError(t, controller.RetryAllFailed(context.Background()))

	// A then C, never B
	assert.Equal(t, []string{
		"/api/jobs/job_1/documents/a/retry",
		"/api/jobs/job_1/documents/c/retry",
	}, cs.recorded())

	state := engine.State()
	assert.Equal(t, DocPending, state.Documents[0].Status)
	assert.Equal(t, DocIndexed, state.Documents[1].Status)
	assert.Equal(t, DocPending, state.Documents[2].Status)
}

func TestController_RetryAllFailedSingleInFlight(t *testing.T) {
	controller, _, cs := newTestController(t,
		snap(1, JobProcessing, doc("a", DocFailed)), http.StatusOK)

	gate := make(chan struct{})
	cs.mu.Lock()
	cs.gate = gate
	cs.mu.Unlock()

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		done <- controller.RetryAllFailed(context.Background())
	}()
	<-started

	// Wait for the bulk operation to reach the server
	require.Eventually(t, func() bool {
		return len(cs.recorded()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// A second bulk call while one is in flight is refused
	err := controller.RetryAllFailed(context.Background())
	assert.ErrorIs(t, err, ErrBulkRetryInFlight)

	close(gate)
	require.NoError(t, <-done)
}

func TestController_RetryAllFailedCollectsErrors(t *testing.T) {
	controller, engine, cs := newTestController(t,
		snap(1, JobProcessing, doc("a", DocFailed), doc("b", DocFailed)), http.StatusConflict)

	err := controller.RetryAllFailed(context.Background())

	require.Error(t, err)
	assert.Len(t, cs.recorded(), 2)
	// Both retries rolled back
	state := engine.State()
	assert.Equal(t, DocFailed, state.Documents[0].Status)
	assert.Equal(t, DocFailed, state.Documents[1].Status)

	var rejected *CommandRejectedError
	assert.True(t, errors.As(err, &rejected))
	assert.True(t, strings.Contains(err.Error(), "retry"))
}
