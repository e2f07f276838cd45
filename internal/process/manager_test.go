package process

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *Manager {
	return NewManager([]string{"rm", "rmdir", "shutdown", "reboot"})
}

func TestRunForegroundSuccess(t *testing.T) {
	m := testManager()
	res, err := m.RunForeground(context.Background(), "echo hi", "", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hi\n", res.Stdout)
}

func TestRunForegroundRejectsDangerousCommand(t *testing.T) {
	m := testManager()
	_, err := m.RunForeground(context.Background(), "rm -rf /", "", nil)
	assert.Error(t, err, "expected dangerous command to be rejected")
}

func TestRunForegroundNonZeroExit(t *testing.T) {
	m := testManager()
	res, err := m.RunForeground(context.Background(), "exit 3", "", nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 3, res.ExitCode)
}

func TestRunForegroundCancellation(t *testing.T) {
	m := testManager()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()
	_, err := m.RunForeground(ctx, "sleep 5", "", nil)
	assert.Error(t, err, "expected cancellation to surface an error")
}

func TestStartBackgroundTransitionsToCompleted(t *testing.T) {
	m := testManager()
	r, err := m.StartBackground("echo background-hi", StartOptions{})
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.Status().IsTerminal() {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.True(t, r.Status().IsTerminal(), "expected record to reach a terminal status, got %s", r.Status())

	stdout, _ := r.Logs()
	assert.Equal(t, "background-hi\n", stdout)
}

func TestStartBackgroundRejectsDuplicateID(t *testing.T) {
	m := testManager()
	_, err := m.StartBackground("sleep 1", StartOptions{ID: "dup"})
	require.NoError(t, err)

	_, err = m.StartBackground("sleep 1", StartOptions{ID: "dup"})
	assert.Error(t, err, "expected ProcessExists conflict for a duplicate id")
}

func TestKillTransitionsRecordToKilled(t *testing.T) {
	m := testManager()
	r, err := m.StartBackground("sleep 10", StartOptions{})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, m.Kill(r.ID, nil))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.Status() == StatusKilled {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected record to reach killed status, got %s", r.Status())
}

func TestKillAllReturnsCount(t *testing.T) {
	m := testManager()
	_, err := m.StartBackground("sleep 10", StartOptions{ID: "a"})
	require.NoError(t, err)
	_, err = m.StartBackground("sleep 10", StartOptions{ID: "b"})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, m.KillAll())
}

func TestSubscribeReceivesOutputThenCompletion(t *testing.T) {
	m := testManager()
	r, err := m.StartBackground("echo sub-hi", StartOptions{})
	require.NoError(t, err)

	ch, cancel, ok := m.Subscribe(r.ID)
	require.True(t, ok, "expected Subscribe to find the record")
	defer cancel()

	var sawComplete bool
	deadline := time.After(2 * time.Second)
	for !sawComplete {
		select {
		case evt, open := <-ch:
			if !open {
				return
			}
			if evt.Type == "command_complete" {
				sawComplete = true
				assert.Equal(t, "sub-hi\n", evt.Stdout, "expected the command's output to be delivered with completion")
			}
		case <-deadline:
			t.Fatal("timed out waiting for command_complete event")
		}
	}
}

func TestSubscribeUnknownIDFails(t *testing.T) {
	m := testManager()
	_, _, ok := m.Subscribe("missing")
	assert.False(t, ok, "expected Subscribe to fail for an unknown id")
}
