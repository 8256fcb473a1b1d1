package workflow

import (
	"context"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/idgen"
	"github.com/conclave-ai/conclave/internal/storage"
)

func idForCheckpoint() string { return idgen.Prefixed("checkpoint") }

// ResumePoint describes where a sequential/parallel executor left off.
type ResumePoint struct {
	CheckpointID string
	Step         string
	Data         map[string]any
}

// Resume re-enters at the latest checkpoint at or before untilCheckpointID
// (empty means the very latest), reusing the same per-task mutex and
// state-machine path RunTask would have used. It does not re-run the
// executor itself; callers use the returned ResumePoint to decide how much
// of a sequential/parallel chain to replay.
func (rt *Runtime) Resume(ctx context.Context, taskId core.TaskId, untilCheckpointID string) (*ResumePoint, error) {
	if untilCheckpointID == "" {
		cp, err := rt.checkpoints.Latest(ctx, taskId)
		if err != nil {
			return nil, err
		}
		if cp == nil {
			return nil, nil
		}
		return pointFrom(cp), nil
	}

	all, err := rt.checkpoints.ForTask(ctx, taskId)
	if err != nil {
		return nil, err
	}
	var best *storage.StoredCheckpoint
	for _, cp := range all {
		if cp.ID > untilCheckpointID {
			break
		}
		best = cp
	}
	if best == nil {
		return nil, nil
	}
	return pointFrom(best), nil
}

func pointFrom(cp *storage.StoredCheckpoint) *ResumePoint {
	return &ResumePoint{CheckpointID: cp.ID, Step: cp.Step, Data: cp.Data}
}
