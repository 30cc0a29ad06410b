package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ringside/internal/adapters/email"
	"ringside/internal/adapters/sms"
	"ringside/internal/adapters/storage/outbox"
	domainOutbox "ringside/internal/domain/outbox"
	"ringside/internal/domain/tryout"
)

// Retry backoff bounds.
const (
	RetryBaseDelay = 1 * time.Minute
	RetryMaxDelay  = 1 * time.Hour
	retryBatchSize = 100
)

// OutboxRetryDeps provides the dependencies for retrying outbox entries.
type OutboxRetryDeps struct {
	OutboxStore outbox.Store
	SMS         sms.Sender
	Email       email.Sender
	Now         func() time.Time
}

// OutboxRetryStats summarises one retry pass.
type OutboxRetryStats struct {
	Processed int
	Succeeded int
	Failed    int
	Skipped   int
}

// ExecuteOutboxRetry replays pending notifications whose backoff has elapsed.
// PRE: Deps are valid and store is connected
// POST: Every due entry was attempted once and saved with its new state
func ExecuteOutboxRetry(ctx context.Context, deps OutboxRetryDeps) (OutboxRetryStats, error) {
	var stats OutboxRetryStats
	entries, err := deps.OutboxStore.ListPending(ctx, retryBatchSize)
	if err != nil {
		return stats, fmt.Errorf("list retryable outbox entries: %w", err)
	}
	if len(entries) == 0 {
		return stats, nil
	}

	now := deps.Now()
	for _, entry := range entries {
		if !entry.Due(now, RetryBaseDelay, RetryMaxDelay) {
			stats.Skipped++
			continue
		}
		stats.Processed++
		entry.MarkAttempt(now)

		var err error
		switch entry.ActionType {
		case domainOutbox.ActionSMS:
			err = retrySMS(ctx, deps.SMS, entry)
		case domainOutbox.ActionEmail:
			err = retryEmail(ctx, deps.Email, entry)
		default:
			err = fmt.Errorf("%w: %s", domainOutbox.ErrUnknownActionType, entry.ActionType)
		}

		if err != nil {
			entry.MarkFailed(err)
			stats.Failed++
			slog.Error("outbox_retry_failed", "entry_id", entry.ID, "action", entry.ActionType, "attempt", entry.Attempts, "error", err)
		} else {
			entry.MarkSuccess()
			stats.Succeeded++
			slog.Info("outbox_retry_succeeded", "entry_id", entry.ID, "action", entry.ActionType, "attempt", entry.Attempts)
		}

		if saveErr := deps.OutboxStore.Save(ctx, entry); saveErr != nil {
			slog.Error("outbox_retry_save_failed", "entry_id", entry.ID, "error", saveErr)
		}
	}

	slog.Info("outbox_retry_complete", "processed", stats.Processed, "succeeded", stats.Succeeded, "failed", stats.Failed, "skipped", stats.Skipped)
	return stats, nil
}

func retrySMS(ctx context.Context, sender sms.Sender, entry domainOutbox.Entry) error {
	if sender == nil {
		return fmt.Errorf("no sms sender configured")
	}
	var req tryout.SMSRequest
	if err := json.Unmarshal([]byte(entry.Payload), &req); err != nil {
		return fmt.Errorf("unmarshal sms payload: %w", err)
	}
	_, err := sender.Send(ctx, req.Phone, req.Reminder())
	return err
}

func retryEmail(ctx context.Context, sender email.Sender, entry domainOutbox.Entry) error {
	if sender == nil {
		return fmt.Errorf("no email sender configured")
	}
	var p emailPayload
	if err := json.Unmarshal([]byte(entry.Payload), &p); err != nil {
		return fmt.Errorf("unmarshal email payload: %w", err)
	}
	_, err := sender.Send(ctx, email.SendRequest{To: p.To, Subject: p.Subject, HTML: p.HTML, Text: p.Text})
	return err
}

// DraftPurger deletes drafts untouched since a cutoff.
type DraftPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// BackgroundConfig holds configuration for the background worker.
type BackgroundConfig struct {
	Interval time.Duration // how often to run a pass
	DraftTTL time.Duration // drafts idle longer than this are purged; zero keeps them
	Enabled  bool
}

// DefaultBackgroundConfig returns sensible defaults.
func DefaultBackgroundConfig() BackgroundConfig {
	return BackgroundConfig{
		Interval: 5 * time.Minute,
		DraftTTL: 30 * 24 * time.Hour,
		Enabled:  true,
	}
}

// BackgroundDeps holds what each background pass touches.
type BackgroundDeps struct {
	Retry  OutboxRetryDeps
	Drafts DraftPurger // optional
}

// RunBackgroundPass retries the outbox and purges stale drafts once.
func RunBackgroundPass(ctx context.Context, deps BackgroundDeps, cfg BackgroundConfig) {
	if _, err := ExecuteOutboxRetry(ctx, deps.Retry); err != nil {
		slog.Error("outbox_retry_scheduler_error", "error", err)
	}
	if deps.Drafts == nil || cfg.DraftTTL <= 0 {
		return
	}
	n, err := deps.Drafts.PurgeBefore(ctx, deps.Retry.Now().Add(-cfg.DraftTTL))
	if err != nil {
		slog.Error("draft_purge_failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("drafts_purged", "count", n)
	}
}

// StartBackgroundWorker starts a goroutine that runs RunBackgroundPass on every tick.
// PRE: Context is valid, deps are initialized
// POST: Goroutine started; the returned stop function cancels it and waits for it to exit
func StartBackgroundWorker(ctx context.Context, deps BackgroundDeps, cfg BackgroundConfig) func() {
	if !cfg.Enabled || cfg.Interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				RunBackgroundPass(ctx, deps, cfg)
			}
		}
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}
