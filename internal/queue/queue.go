package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/maheshrc27/social-link-api/internal/transfer"
)

const (
	mirrorAvatarMaxRetry = 5
	mirrorAvatarTimeout  = time.Minute
)

// TaskEnqueuer is the part of *asynq.Client used to schedule tasks.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type AvatarQueue struct {
	client TaskEnqueuer
}

func NewAvatarQueue(client TaskEnqueuer) *AvatarQueue {
	return &AvatarQueue{client: client}
}

func NewMirrorAvatarTask(accountID string) (*asynq.Task, error) {
	payload, err := json.Marshal(transfer.MirrorAvatarPayload{AccountID: accountID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeMirrorAvatar, payload,
		asynq.MaxRetry(mirrorAvatarMaxRetry),
		asynq.Timeout(mirrorAvatarTimeout),
	), nil
}

// EnqueueAvatarMirror schedules a copy of the account's avatar into object
// storage.
func (q *AvatarQueue) EnqueueAvatarMirror(ctx context.Context, accountID string) error {
	task, err := NewMirrorAvatarTask(accountID)
	if err != nil {
		return err
	}

	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	slog.Info("avatar mirror scheduled", "account_id", accountID, "task_id", info.ID)
	return nil
}
