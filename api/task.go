// Package api defines the contracts this tool consumes from the hosting
// vendor's REST API. The wire format lives behind these interfaces and is
// not part of this repository.
package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crcloud/crdeploy/remote"
)

// TaskStatus is the lifecycle state of a queued deployment task.
type TaskStatus int8

const (
	// StatusQueued means the task is waiting for a worker
	StatusQueued TaskStatus = iota
	// StatusRunning means the task is executing
	StatusRunning
	// StatusCompleted means the task finished successfully
	StatusCompleted
	// StatusError means the task failed on the server
	StatusError
)

func (s TaskStatus) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusError:
		return "error"
	default:
		return "queued"
	}
}

// Terminal reports whether the task will make no further progress.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// LogLine is one line of remote deployment output.
type LogLine struct {
	Text      string
	Timestamp time.Time
	// Stream is the source stream name, e.g. "stdout" or "stderr"
	Stream string
}

// TaskService queues and inspects deployment tasks for an app.
type TaskService interface {
	// QueueDeploy asks the platform to deploy the app and returns a task id.
	QueueDeploy(ctx context.Context) (int, error)

	// QueueRestart asks the platform to restart the app and returns a task id.
	QueueRestart(ctx context.Context) (int, error)

	// GetTask returns the current status of a task.
	GetTask(ctx context.Context, taskID int) (TaskStatus, error)

	// GetLogs returns ordered log lines newer than the given timestamp.
	GetLogs(ctx context.Context, since time.Time) ([]LogLine, error)
}

// CredentialsProvider fetches the ephemeral SFTP login for one sync
// session. The password is single-use and rotated by the platform after
// the session ends.
type CredentialsProvider interface {
	SFTPCredentials(ctx context.Context) (remote.Credentials, error)
}

// ErrTaskFailed is returned by WaitForTask when the task reaches the error
// state.
var ErrTaskFailed = errors.New("deployment task failed")

// LogSink receives log lines while a task is being waited on. May be nil.
type LogSink func(line LogLine)

// WaitForTask polls a task until it reaches a terminal state, forwarding
// any new log lines to sink between polls. Cancellation of ctx stops the
// wait; the task keeps running server-side.
func WaitForTask(ctx context.Context, ts TaskService, taskID int, interval time.Duration, sink LogSink) (TaskStatus, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	since := time.Time{}
	for {
		status, err := ts.GetTask(ctx, taskID)
		if err != nil {
			return status, fmt.Errorf("couldn't poll task %d: %w", taskID, err)
		}
		if sink != nil {
			lines, logsErr := ts.GetLogs(ctx, since)
			// Log fetch failures don't abort the wait; the task outcome matters more.
			if logsErr == nil {
				for _, line := range lines {
					sink(line)
					if line.Timestamp.After(since) {
						since = line.Timestamp
					}
				}
			}
		}
		if status.Terminal() {
			if status == StatusError {
				return status, fmt.Errorf("%w (task %d)", ErrTaskFailed, taskID)
			}
			return status, nil
		}
		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}
	}
}
