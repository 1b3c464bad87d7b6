package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Patrick7854/kgl-groceries-system/internal/config"
	"github.com/Patrick7854/kgl-groceries-system/internal/repository/sheets"
	"github.com/Patrick7854/kgl-groceries-system/internal/service/reporting"
	"github.com/Patrick7854/kgl-groceries-system/pkg/clients/alerts"
)

// Scheduler runs the daily operational sweep: export the per-branch summary
// to the spreadsheet and raise low-stock and overdue-credit notices. Both
// sinks are optional; whichever is configured gets fed.
type Scheduler struct {
	cron         *cron.Cron
	reportingSvc *reporting.Service
	exportRepo   sheets.Repository
	alertClient  alerts.Client
	cfg          config.Config
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance. exportRepo and alertClient
// may be nil when the corresponding integration is disabled.
func NewScheduler(cfg config.Config, reportingSvc *reporting.Service, exportRepo sheets.Repository, alertClient alerts.Client, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []cron.Option{}
	if loc, err := time.LoadLocation(cfg.Reporting.Timezone); err == nil {
		opts = append(opts, cron.WithLocation(loc))
	} else {
		logger.Warn("invalid timezone, scheduler falls back to local time",
			zap.String("timezone", cfg.Reporting.Timezone), zap.Error(err))
	}

	return &Scheduler{
		cron:         cron.New(opts...),
		reportingSvc: reportingSvc,
		exportRepo:   exportRepo,
		alertClient:  alertClient,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start registers the daily sweep and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.Reporting.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.Reporting.CronSchedule, s.runDailySweep); err != nil {
		s.logger.Error("failed to schedule daily sweep", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runDailySweep() {
	s.logger.Info("running daily sweep")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	s.exportDailySummary(ctx)
	s.raiseLowStockNotices(ctx)
	s.raiseOverdueCreditNotices(ctx)
}

func (s *Scheduler) exportDailySummary(ctx context.Context) {
	if s.exportRepo == nil {
		return
	}

	rows, err := s.reportingSvc.DailySummaryRows(ctx, time.Now())
	if err != nil {
		s.logger.Error("failed to build daily summary", zap.Error(err))
		return
	}

	if err := s.exportRepo.AppendSummaryRows(ctx, rows); err != nil {
		s.logger.Error("failed to export daily summary", zap.Error(err))
		return
	}
	s.logger.Info("daily summary exported", zap.Int("rows", len(rows)))
}

func (s *Scheduler) raiseLowStockNotices(ctx context.Context) {
	if s.alertClient == nil {
		return
	}

	items, err := s.reportingSvc.LowStockLots(ctx)
	if err != nil {
		s.logger.Error("failed to list low stock lots", zap.Error(err))
		return
	}

	for _, item := range items {
		notice := alerts.Notice{
			Severity: alerts.SeverityWarning,
			Title:    "Low stock",
			Message:  fmt.Sprintf("%s at %s is down to %dkg, restock needed", item.Name, item.Branch, item.Tonnage),
			Branch:   string(item.Branch),
		}
		if err := s.alertClient.SendNotice(ctx, notice); err != nil {
			s.logger.Error("failed to send low stock notice", zap.Error(err))
		}
	}
}

func (s *Scheduler) raiseOverdueCreditNotices(ctx context.Context) {
	if s.alertClient == nil {
		return
	}

	overdue, err := s.reportingSvc.OverdueCredits(ctx, nil)
	if err != nil {
		s.logger.Error("failed to list overdue credits", zap.Error(err))
		return
	}

	for _, credit := range overdue {
		notice := alerts.Notice{
			Severity: alerts.SeverityWarning,
			Title:    "Overdue credit sale",
			Message: fmt.Sprintf("%s owes %.0f for %dkg %s, due %s",
				credit.BuyerName, credit.Amount, credit.Quantity, credit.ProduceName, credit.DueDate),
			Branch: string(credit.Branch),
		}
		if err := s.alertClient.SendNotice(ctx, notice); err != nil {
			s.logger.Error("failed to send overdue credit notice", zap.Error(err))
		}
	}
}
