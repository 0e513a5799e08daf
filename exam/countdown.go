package exam

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"simulacro-server/pkg/logger"
)

// DefaultTickInterval is how often the countdown re-checks the deadline.
const DefaultTickInterval = time.Second

// Countdown drives the deadline check for one in-progress simulacro. Each
// tick compares the wall clock against the absolute deadline, never a
// decremented counter, so a late tick still expires the session correctly.
// When the deadline passes it forces InProgress -> ShowingResults exactly
// once and returns; it also returns as soon as the session leaves InProgress
// for any other reason, or when ctx is canceled.
func Countdown(ctx context.Context, s *Session, tick time.Duration) {
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.Phase() != PhaseInProgress {
				return
			}
			if s.Remaining() <= 0 {
				if s.Finish(FinishReasonTimeout) {
					logger.Log.Info("simulacro expired",
						zap.String("session_id", s.ID()),
						zap.Int("answered", s.AnsweredCount()),
						zap.Int("total", len(s.Questions())))
				}
				return
			}
		}
	}
}

// FormatRemaining renders a duration as zero-padded minutes:seconds, clamped
// at 00:00 once the deadline has passed.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
