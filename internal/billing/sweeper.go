package billing

import (
	"context"
	"fmt"
	"time"

	"treinopp/internal/logger"
	"treinopp/internal/metrics"
	"treinopp/internal/notify"
)

const DefaultLookahead = 72 * time.Hour

// Sweeper queues due-date reminders and marks unpaid fees overdue.
type Sweeper struct {
	repo      Repository
	notifier  notify.Notifier
	lookahead time.Duration
}

func NewSweeper(repo Repository, notifier notify.Notifier, lookahead time.Duration) *Sweeper {
	if lookahead <= 0 {
		lookahead = DefaultLookahead
	}
	return &Sweeper{repo: repo, notifier: notifier, lookahead: lookahead}
}

// Run performs one sweep as of now. Fees are claimed before their reminders are
// queued, so concurrent sweeps never remind the same fee twice. A reminder that
// cannot be queued releases its claim and the next sweep retries it.
func (s *Sweeper) Run(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult
	today := truncateDay(now)

	overdue, err := s.repo.MarkOverdue(ctx, today)
	if err != nil {
		logger.Error("Fee sweep failed", "op", "mark_overdue", "error", err)
		return result, fmt.Errorf("mark overdue: %w", err)
	}
	result.Overdue = int(overdue)

	fees, err := s.repo.ClaimDue(ctx, today, truncateDay(now.Add(s.lookahead)), now)
	if err != nil {
		logger.Error("Fee sweep failed", "op", "claim_due", "error", err)
		return result, fmt.Errorf("claim due fees: %w", err)
	}

	var failed []string
	for _, f := range fees {
		recipient := notify.Recipient{Name: f.StudentName, Email: f.StudentEmail, PushToken: f.FCMToken}
		jobs := notify.FeeDueReminder(recipient, f.ID, f.AmountCents, f.DueDate)
		if len(jobs) == 0 {
			logger.Warn("Student has no contact for fee reminder", "fee_id", f.ID, "student_id", f.StudentID)
			failed = append(failed, f.ID)
			continue
		}
		if err := s.notifier.Enqueue(ctx, jobs...); err != nil {
			logger.Warn("Failed to queue fee reminder", "fee_id", f.ID, "error", err)
			failed = append(failed, f.ID)
			continue
		}
		result.Reminders++
	}
	result.Failed = len(failed)

	if err := s.repo.ReleaseClaims(ctx, failed); err != nil {
		logger.Error("Fee sweep failed", "op", "release_claims", "error", err)
		return result, fmt.Errorf("release claims: %w", err)
	}

	metrics.RecordFeeSweep(result.Reminders, result.Overdue)
	logger.Info("Fee sweep finished", "reminders", result.Reminders, "failed", result.Failed, "overdue", result.Overdue)
	return result, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
