package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/maheshrc27/social-link-api/internal/service"
	"github.com/maheshrc27/social-link-api/internal/transfer"
)

func (j *Queue) HandleMirrorAvatarTask(ctx context.Context, task *asynq.Task) error {
	var payload transfer.MirrorAvatarPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.AccountID == "" {
		return fmt.Errorf("payload has no account id: %w", asynq.SkipRetry)
	}

	err := j.av.MirrorAvatar(ctx, payload.AccountID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrAvatarUnsupported),
		errors.Is(err, service.ErrAvatarTooLarge),
		errors.Is(err, service.ErrAvatarHostNotAllowed),
		errors.Is(err, service.ErrAccountNotFound):
		slog.Info("avatar mirror skipped", "account_id", payload.AccountID, "reason", err.Error())
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	default:
		slog.Info(err.Error())
		return err
	}
}

// Mux routes every task type this package handles.
func (j *Queue) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeMirrorAvatar, j.HandleMirrorAvatarTask)
	return mux
}
