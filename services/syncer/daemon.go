package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"doubansync-backend/lib/transform"
)

// RunDaemon syncs every user with a stored credential on a fixed
// interval, starting with an immediate pass. It blocks until the
// context is cancelled.
func (s Service) RunDaemon(ctx context.Context, interval time.Duration, kinds []transform.ContentType) {
	slog.InfoContext(ctx, "start daemon", "task", fmt.Sprintf("sync all users every %v", interval))

	s.syncAll(ctx, kinds)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.syncAll(ctx, kinds)
		case <-ctx.Done():
			return
		}
	}
}

func (s Service) syncAll(ctx context.Context, kinds []transform.ContentType) {
	userIDs, err := s.keychain.ListUserIDs(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list users", "err", err)
		return
	}

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return
		}
		report, err := s.SyncUser(ctx, userID, kinds)
		if err != nil {
			slog.WarnContext(ctx, "sync failed",
				"user_id", userID,
				"interrupted", report.Interrupted,
				"err", err)
		}
	}
}
