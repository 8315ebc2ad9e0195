package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/tofa/academy-backend/internal/database"
	"github.com/tofa/academy-backend/internal/models"
)

// CronService manages the scheduled maintenance jobs: the nightly overdue
// sweep, import preview expiry and notification pruning.
type CronService struct {
	cron          *cron.Cron
	leadRepo      *database.LeadRepository
	tokenRepo     *database.RefreshTokenRepository
	notifRepo     *database.NotificationRepository
	importService *ImportService
	notification  *NotificationService
	previewTTL    time.Duration
}

// NewCronService creates a new CronService
func NewCronService(
	leadRepo *database.LeadRepository,
	tokenRepo *database.RefreshTokenRepository,
	notifRepo *database.NotificationRepository,
	importService *ImportService,
	notification *NotificationService,
	previewTTL time.Duration,
) *CronService {
	return &CronService{
		cron:          cron.New(),
		leadRepo:      leadRepo,
		tokenRepo:     tokenRepo,
		notifRepo:     notifRepo,
		importService: importService,
		notification:  notification,
		previewTTL:    previewTTL,
	}
}

// Start schedules and starts all jobs.
func (s *CronService) Start() error {
	// Nightly at 6 AM: flag overdue followups to the team leads.
	if _, err := s.cron.AddFunc("0 6 * * *", s.overdueSweepJob); err != nil {
		return fmt.Errorf("failed to schedule overdue sweep: %w", err)
	}

	// Hourly: expire stale import previews.
	if _, err := s.cron.AddFunc("0 * * * *", s.expireImportsJob); err != nil {
		return fmt.Errorf("failed to schedule import expiry: %w", err)
	}

	// Weekly on Sunday at 4 AM: prune read notifications and dead tokens.
	if _, err := s.cron.AddFunc("0 4 * * 0", s.pruneJob); err != nil {
		return fmt.Errorf("failed to schedule prune job: %w", err)
	}

	s.cron.Start()
	logrus.Info("cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logrus.Info("cron service stopped")
}

// overdueSweepJob notifies team leads about leads whose followup date has
// passed.
func (s *CronService) overdueSweepJob() {
	started := time.Now()

	overdue, err := s.leadRepo.ListOverdue(time.Now())
	if err != nil {
		logrus.WithField("error", err.Error()).Error("overdue sweep failed")
		return
	}
	if len(overdue) == 0 {
		return
	}

	// One digest per center rather than one notification per lead.
	perCenter := map[string]int{}
	for _, lead := range overdue {
		perCenter[lead.CenterID.String]++
	}
	for centerID, count := range perCenter {
		s.notification.NotifyTeamLeads(
			models.NotificationActivity,
			"Overdue followups",
			fmt.Sprintf("%d leads have followups past due", count),
			"/leads?bucket=overdue",
			centerID,
		)
	}

	logrus.WithFields(logrus.Fields{
		"overdue":  len(overdue),
		"duration": time.Since(started).String(),
	}).Info("overdue sweep completed")
}

// expireImportsJob sweeps import previews past their TTL.
func (s *CronService) expireImportsJob() {
	n, err := s.importService.ExpirePreviews(s.previewTTL)
	if err != nil {
		logrus.WithField("error", err.Error()).Error("import expiry sweep failed")
		return
	}
	if n > 0 {
		logrus.WithField("expired", n).Info("expired stale import previews")
	}
}

// pruneJob removes old read notifications and expired refresh tokens.
func (s *CronService) pruneJob() {
	cutoff := time.Now().AddDate(0, 0, -30)

	if n, err := s.notifRepo.DeleteReadOlderThan(cutoff); err != nil {
		logrus.WithField("error", err.Error()).Error("notification prune failed")
	} else if n > 0 {
		logrus.WithField("pruned", n).Info("pruned read notifications")
	}

	if n, err := s.tokenRepo.DeleteExpired(); err != nil {
		logrus.WithField("error", err.Error()).Error("refresh token prune failed")
	} else if n > 0 {
		logrus.WithField("pruned", n).Info("pruned expired refresh tokens")
	}
}

// RunOverdueSweepNow runs the overdue sweep immediately (manual trigger).
func (s *CronService) RunOverdueSweepNow() {
	s.overdueSweepJob()
}
