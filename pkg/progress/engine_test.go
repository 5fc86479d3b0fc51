package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_StaleDiscardedIsObservable(t *testing.T) {
	engine := NewEngine(testLogger())

	engine.Apply(snap(5, JobProcessing, doc("a", DocIndexed)))
	state := engine.Apply(snap(3, JobPending, doc("a", DocPending)))

	assert.Equal(t, uint64(1), engine.StaleDiscarded())
	// Displayed state untouched by the stale arrival
	assert.Equal(t, JobProcessing, state.Status)
	assert.Equal(t, DocIndexed, state.Documents[0].Status)
}

func TestEngine_AnomaliesAccumulate(t *testing.T) {
	engine := NewEngine(testLogger())

	engine.Apply(snap(1, JobCompleted, doc("a", DocIndexed)))
	engine.Apply(snap(2, JobProcessing, doc("a", DocIndexed)))
	engine.Apply(snap(3, JobPending, doc("a", DocIndexed)))

	anomalies := engine.Anomalies()
	require.Len(t, anomalies, 2)
	assert.Equal(t, string(JobCompleted), anomalies[0].From)
}

func TestEngine_StateBeforeFirstSnapshot(t *testing.T) {
	engine := NewEngine(testLogger())

	assert.Nil(t, engine.State())
	assert.Nil(t, engine.AddCommand(PendingCommand{Kind: CommandPause, TargetStatus: JobPaused}))
}

func TestEngine_RemoveCommandRestoresConfirmedState(t *testing.T) {
	engine := NewEngine(testLogger())
	engine.Apply(snap(1, JobProcessing, doc("a", DocProcessing)))
	confirmed := engine.State()

	cmd := PendingCommand{Kind: CommandCancel, TargetStatus: JobCancelled}
	assert.Equal(t, JobCancelled, engine.AddCommand(cmd).Status)

	restored := engine.RemoveCommand(cmd)
	assert.Equal(t, confirmed, restored)
}
