package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/infrastructure/db/database"
	"github.com/tablewise/restaurant-backoffice/internal/pkg/metrics"
)

const (
	maintenanceTimeout = 30 * time.Second
	// Paid access survives this long after the period end so a late renewal
	// webhook can still land.
	subscriptionGrace = 72 * time.Hour
)

// Transactor runs statements atomically.
type Transactor interface {
	ExecuteTransaction(ctx context.Context, stmts []database.Statement) error
}

// MaintenanceJob clears expired password reset tokens and expires lapsed
// subscriptions in a single transaction.
type MaintenanceJob struct {
	db  Transactor
	log zerolog.Logger
	now func() time.Time
}

func NewMaintenanceJob(db Transactor, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:  db,
		log: log.With().Str("job", "maintenance").Logger(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Run satisfies cron.Job.
func (j *MaintenanceJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), maintenanceTimeout)
	defer cancel()

	err := j.RunOnce(ctx)
	metrics.MaintenanceRunsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		j.log.Error().Err(err).Msg("maintenance run failed")
		return
	}
	j.log.Info().Msg("maintenance run completed")
}

func (j *MaintenanceJob) RunOnce(ctx context.Context) error {
	now := j.now()
	return j.db.ExecuteTransaction(ctx, []database.Statement{
		database.Stmt(
			`UPDATE users SET reset_token = NULL, reset_token_expiry = NULL, updated_at = ?
			 WHERE reset_token_expiry IS NOT NULL AND reset_token_expiry < ?`,
			now, now,
		),
		database.Stmt(
			`UPDATE users SET subscription_status = ?, subscription_plan = ?, updated_at = ?
			 WHERE subscription_status IN (?, ?) AND subscription_period_end < ?`,
			domain.SubscriptionExpired, domain.PlanFree, now,
			domain.SubscriptionActive, domain.SubscriptionPastDue, now.Add(-subscriptionGrace),
		),
	})
}
