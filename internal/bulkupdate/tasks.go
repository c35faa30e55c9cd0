package bulkupdate

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// TaskTypeApply is the queue task type for deferred bulk commits.
const TaskTypeApply = "bulk:apply"

// NewApplyTask wraps a commit payload as an Asynq task.
func NewApplyTask(in Input) (*asynq.Task, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeApply, data), nil
}

// ApplyJob processes TaskTypeApply tasks in the worker binary.
type ApplyJob struct {
	Svc    *Service
	Logger zerolog.Logger
}

// Handle applies a queued bulk commit synchronously. A malformed payload is
// dropped rather than retried.
func (j ApplyJob) Handle(ctx context.Context, t *asynq.Task) error {
	var in Input
	if err := json.Unmarshal(t.Payload(), &in); err != nil {
		j.Logger.Error().Err(err).Msg("bulk apply task payload malformed")
		return asynq.SkipRetry
	}
	result, err := j.Svc.apply(ctx, in)
	if err != nil {
		j.Logger.Error().Err(err).Str("field", in.Field).Str("op", in.Op).Msg("bulk apply failed")
		return err
	}
	j.Logger.Info().
		Str("field", in.Field).
		Str("op", in.Op).
		Int("applied", result.Applied).
		Int("excluded", len(result.Excluded)).
		Msg("bulk apply complete")
	return nil
}
