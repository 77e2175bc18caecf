package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/social-link-api/internal/repository"
)

// HandshakeSweepJob removes correlation records whose lifetime has passed.
// Claim already refuses expired records, so the sweep only reclaims space.
type HandshakeSweepJob struct {
	hr  repository.HandshakeRepository
	now func() time.Time
}

func NewHandshakeSweepJob(hr repository.HandshakeRepository) *HandshakeSweepJob {
	return &HandshakeSweepJob{
		hr:  hr,
		now: time.Now,
	}
}

func (c *HandshakeSweepJob) SweepExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := c.hr.DeleteExpired(ctx, c.now())
	if err != nil {
		slog.Info(err.Error())
		return
	}

	if removed > 0 {
		slog.Info("expired handshakes removed", "count", removed)
	}
}

// Spec returns the cron spec that runs the sweep every interval.
func Spec(interval time.Duration) string {
	return "@every " + interval.String()
}
