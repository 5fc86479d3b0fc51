package progress

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// pushServer upgrades connections and pushes the scripted snapshots to any
// client that subscribes to job_1
func pushServer(t *testing.T, script []*JobSnapshot) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Wait for the subscribe message
		var msg struct {
			Type  string `json:"type"`
			JobID string `json:"job_id"`
		}
		for msg.Type != "subscribe" {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := json.Unmarshal(data, &msg); err != nil {
				return
			}
		}
		if msg.JobID != "job_1" {
			return
		}

		for _, snapshot := range script {
			payload, _ := json.Marshal(map[string]interface{}{
				"type": "job_snapshot",
				"data": snapshot,
			})
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}

		// Keep the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSocket_DeliversPushedSnapshotsInOrder(t *testing.T) {
	script := []*JobSnapshot{
		snap(0, JobPending, doc("a", DocPending)),
		snap(0, JobProcessing, doc("a", DocProcessing)),
		snap(0, JobCompleted, doc("a", DocIndexed)),
	}
	srv := pushServer(t, script)
	defer srv.Close()

	socket := NewSocket(wsURL(srv), "col_1", "job_1", testLogger())
	defer socket.Close()

	var statuses []JobStatus
	var last uint64
	for i := 0; i < len(script); i++ {
		select {
		case snapshot := <-socket.Snapshots():
			require.Greater(t, snapshot.ReceivedAt, last)
			last = snapshot.ReceivedAt
			statuses = append(statuses, snapshot.Status)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for pushed snapshot")
		}
	}

	assert.Equal(t, []JobStatus{JobPending, JobProcessing, JobCompleted}, statuses)
}

func TestSocket_ReportsConnected(t *testing.T) {
	srv := pushServer(t, nil)
	defer srv.Close()

	socket := NewSocket(wsURL(srv), "col_1", "job_1", testLogger())
	defer socket.Close()

	select {
	case state := <-socket.States():
		assert.Equal(t, StatusConnected, state.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for connected state")
	}
}

func TestSocket_DialFailureSurfacesError(t *testing.T) {
	srv := pushServer(t, nil)
	srv.Close() // nothing listening

	socket := NewSocket(wsURL(srv), "col_1", "job_1", testLogger())
	defer socket.Close()

	select {
	case state := <-socket.States():
		assert.Equal(t, StatusError, state.Status)
		assert.NotEmpty(t, state.Message)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for error state")
	}
}

func TestSocket_CloseIsSynchronousAndIdempotent(t *testing.T) {
	srv := pushServer(t, []*JobSnapshot{
		snap(0, JobProcessing, doc("a", DocProcessing)),
	})
	defer srv.Close()

	socket := NewSocket(wsURL(srv), "col_1", "job_1", testLogger())

	select {
	case <-socket.Snapshots():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first snapshot")
	}

	require.NoError(t, socket.Close())
	require.NoError(t, socket.Close())

	for range socket.Snapshots() {
	}
	for range socket.States() {
	}
}
