// Package services contains the domain operations that span several models:
// progress, certificates, statistics, notifications, file storage, email,
// backups and the maintenance flag.
package services

import (
	"coursehub/backend/config"
	"coursehub/backend/utils"

	"gorm.io/gorm"
)

type Services struct {
	Storage      *Storage
	Notifier     Notifier
	Mailer       Mailer
	Progress     *ProgressService
	Certificates *CertificateService
	Statistics   *StatisticsService
	Backups      *BackupService
	Maintenance  Maintenance
}

func New(db *gorm.DB, cfg *config.Config, logger *utils.Logger) (*Services, error) {
	maintenance, err := NewMaintenance(cfg, logger)
	if err != nil {
		return nil, err
	}
	mailer := NewMailer(cfg, logger)

	return &Services{
		Storage:     NewStorage(cfg),
		Notifier:    Notifier{},
		Mailer:      mailer,
		Progress:    &ProgressService{DB: db},
		Statistics:  &StatisticsService{DB: db},
		Backups:     NewBackupService(cfg, logger),
		Maintenance: maintenance,
		Certificates: &CertificateService{
			DB:       db,
			Dir:      cfg.CertificatesDir,
			Notifier: Notifier{},
			Mailer:   mailer,
			Logger:   logger,
		},
	}, nil
}

// RefreshProgress recomputes the enrollment and issues a certificate when
// the new progress qualifies.
func (s *Services) RefreshProgress(userID, courseID uint) (float64, error) {
	enrollment, err := s.Progress.Recompute(userID, courseID)
	if err != nil {
		return 0, err
	}
	if _, err := s.Certificates.IssueIfEligible(userID, courseID); err != nil {
		return enrollment.Progress, err
	}
	return enrollment.Progress, nil
}
