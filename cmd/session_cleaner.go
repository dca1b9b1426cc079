package main

import (
	"context"
	"time"
)

const sessionCleanerTimeout = 30 * time.Second

// runSessionCleaner periodically drops expired chat conversations and stale
// admin refresh sessions.
func (app *application) runSessionCleaner() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	runOnce := func() {
		ctx, cancel := context.WithTimeout(context.Background(), sessionCleanerTimeout)
		defer cancel()

		now := time.Now()

		if purged, err := app.sessionStore.PurgeExpired(ctx, now); err != nil {
			app.errorLog.Printf("session cleaner: purge conversations: %v", err)
		} else if purged > 0 {
			app.infoLog.Printf("session cleaner: purged %d expired conversations", purged)
		}

		if deleted, err := app.userRepo.DeleteExpiredSessions(ctx, now); err != nil {
			app.errorLog.Printf("session cleaner: purge auth sessions: %v", err)
		} else if deleted > 0 {
			app.infoLog.Printf("session cleaner: removed %d expired auth sessions", deleted)
		}
	}

	runOnce()
	for range ticker.C {
		runOnce()
	}
}
