package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rmenon/pennywatch/internal/database"
)

// BackupJob runs the nightly cloud backup and rotation.
type BackupJob struct {
	service       *BackupService
	retentionDays int
	log           zerolog.Logger
}

// NewBackupJob creates the backup job.
func NewBackupJob(service *BackupService, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service:       service,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "cloud_backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string { return "cloud_backup" }

// Run creates and uploads one backup, then rotates old archives. Rotation
// failures are logged but do not fail the job since the backup itself landed.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := j.service.CreateAndUploadBackup(ctx); err != nil {
		return err
	}

	if err := j.service.RotateOldBackups(ctx, j.retentionDays); err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return nil
}

// MaintenanceJob keeps the sqlite databases healthy: integrity check, WAL
// checkpoint, and incremental vacuum on each.
type MaintenanceJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewMaintenanceJob creates the maintenance job.
func NewMaintenanceJob(databases []*database.DB, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		log:       log.With().Str("job", "db_maintenance").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string { return "db_maintenance" }

// Run performs one maintenance pass over every database. The first failure
// aborts the pass so a corrupt database surfaces loudly.
func (j *MaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, db := range j.databases {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("health check failed for %s: %w", db.Name(), err)
		}

		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
		}

		if _, err := db.Exec("PRAGMA incremental_vacuum"); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("Incremental vacuum failed")
		}

		j.log.Debug().Str("database", db.Name()).Msg("Maintenance pass complete")
	}

	return nil
}
