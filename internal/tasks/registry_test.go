package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusPtr(s Status) *Status { return &s }

func TestCreateStartsPending(t *testing.T) {
	r := NewRegistry()
	id := r.Create()

	snap := r.Get(id)
	require.NotNil(t, snap)
	assert.Equal(t, StatusPending, snap.Status)
	assert.Equal(t, 0.0, snap.Progress)
	assert.Nil(t, snap.EndTime)
}

func TestApplyUnknownTask(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Apply("nope", Update{Status: statusPtr(StatusProcessing)}))
	assert.Nil(t, r.Get("nope"))
}

func TestTerminalStatusAbsorbs(t *testing.T) {
	r := NewRegistry()
	id := r.Create()

	require.True(t, r.Apply(id, Update{Status: statusPtr(StatusCompleted)}))
	require.True(t, r.Apply(id, Update{Status: statusPtr(StatusProcessing)}))

	snap := r.Get(id)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.NotNil(t, snap.EndTime)
}

func TestErrorForcesFailed(t *testing.T) {
	r := NewRegistry()
	id := r.Create()

	r.Apply(id, Update{Status: statusPtr(StatusTranscribing)})
	r.Apply(id, Update{Error: "whisper exited 1"})

	snap := r.Get(id)
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "whisper exited 1", snap.Error)
	assert.NotNil(t, snap.EndTime)
}

type blankError struct{}

func (blankError) Error() string { return "" }

func TestFailWithBlankErrorStillTerminates(t *testing.T) {
	current := time.Now()
	r := NewRegistry()
	r.now = func() time.Time { return current }

	id := r.Create()
	h := NewHandle(r, id)
	h.SetStatus(StatusDownloading)
	h.Fail(blankError{})

	snap := r.Get(id)
	require.NotNil(t, snap)
	assert.Equal(t, StatusFailed, snap.Status)
	assert.NotNil(t, snap.EndTime)

	current = current.Add(2 * time.Hour)
	assert.Equal(t, 1, r.CleanOld(time.Hour))
	assert.Nil(t, r.Get(id))
}

func TestErrorAfterCompletionKeepsStatus(t *testing.T) {
	r := NewRegistry()
	id := r.Create()

	r.Apply(id, Update{Status: statusPtr(StatusCompleted)})
	r.Apply(id, Update{Error: "late failure"})

	snap := r.Get(id)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, "late failure", snap.Error)
}

func TestSnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	id := r.Create()
	r.AddLog(id, "info", "first")

	snap := r.Get(id)
	snap.Logs[0].Message = "mutated"
	snap.Status = StatusFailed

	fresh := r.Get(id)
	assert.Equal(t, "first", fresh.Logs[0].Message)
	assert.Equal(t, StatusPending, fresh.Status)
}

func TestAddLogMirrorsMessage(t *testing.T) {
	r := NewRegistry()
	id := r.Create()

	r.AddLog(id, "info", "downloading audio")
	snap := r.Get(id)
	require.Len(t, snap.Logs, 1)
	assert.Equal(t, "downloading audio", snap.Message)
	assert.Equal(t, "info", snap.Logs[0].Level)
}

func TestCleanOldRemovesOnlyExpiredTerminal(t *testing.T) {
	current := time.Now()
	r := NewRegistry()
	r.now = func() time.Time { return current }

	done := r.Create()
	r.Apply(done, Update{Status: statusPtr(StatusCompleted)})
	running := r.Create()
	r.Apply(running, Update{Status: statusPtr(StatusProcessing)})

	current = current.Add(2 * time.Hour)
	fresh := r.Create()
	r.Apply(fresh, Update{Status: statusPtr(StatusFailed)})

	removed := r.CleanOld(time.Hour)
	assert.Equal(t, 1, removed)
	assert.Nil(t, r.Get(done))
	assert.NotNil(t, r.Get(running))
	assert.NotNil(t, r.Get(fresh))
}

func TestRemove(t *testing.T) {
	r := NewRegistry()
	id := r.Create()
	r.Remove(id)
	assert.Nil(t, r.Get(id))
}
