package progress

// ConnectionStatus describes the health of a snapshot channel's transport
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusError        ConnectionStatus = "error"
)

// ConnectionState is the side-channel signal a Channel emits alongside
// snapshots. Message is set only when Status is StatusError.
type ConnectionState struct {
	Status  ConnectionStatus
	Message string
}

// Channel yields a live sequence of job snapshots for one job until closed.
//
// Both implementations (Poller and Socket) satisfy the same contract, so
// consumers and the reconciliation engine are transport-agnostic:
//
//   - Snapshots are delivered in arrival order with ReceivedAt already
//     assigned; the sequence never terminates on its own, only on Close.
//   - Transport failures surface on States and trigger automatic
//     reconnection with backoff; RetryConnection forces an immediate
//     attempt regardless of backoff state.
//   - Reconnecting resumes from the latest server state, never replaying
//     snapshots already delivered.
//   - Close is synchronous: when it returns, both channels are closed and
//     no further values will be delivered. Safe to call at any time,
//     including mid-reconnect; results of in-flight requests are dropped.
type Channel interface {
	Snapshots() <-chan *JobSnapshot
	States() <-chan ConnectionState
	RetryConnection()
	Close() error
}
