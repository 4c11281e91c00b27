package services

import (
	"context"
	"fmt"
	"time"

	"github.com/carlos-juma/branch.it-IMY220/internal/models"
	"github.com/carlos-juma/branch.it-IMY220/pkg/logger"
	"gorm.io/gorm"
)

// ReconcileReport counts the orphans one pass removed, by table.
type ReconcileReport struct {
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration"`
	Removed   map[string]int64 `json:"removed"`
}

func (r *ReconcileReport) Total() int64 {
	var n int64
	for _, v := range r.Removed {
		n += v
	}
	return n
}

// ReconcileService sweeps rows left behind by interrupted cascades.
type ReconcileService struct {
	db *gorm.DB
}

func NewReconcileService(db *gorm.DB) *ReconcileService {
	return &ReconcileService{db: db}
}

type orphanSweep struct {
	table string
	model interface{}
	where string
}

const projectGone = "project_id NOT IN (SELECT id FROM projects)"

// projectOwned lists the tables whose rows die with their project.
var projectOwned = []orphanSweep{
	{"files", &models.File{}, projectGone},
	{"commits", &models.Commit{}, projectGone},
	{"branches", &models.Branch{}, projectGone},
	{"messages", &models.Message{}, projectGone},
	{"project_collaborators", &models.ProjectCollaborator{}, projectGone},
}

var orphanSweeps = append(append([]orphanSweep{}, projectOwned[:4]...),
	orphanSweep{"project_collaborators", &models.ProjectCollaborator{}, "project_id NOT IN (SELECT id FROM projects) OR user_id NOT IN (SELECT id FROM users)"},
	orphanSweep{"user_friends", &models.UserFriend{}, "user_id NOT IN (SELECT id FROM users) OR friend_id NOT IN (SELECT id FROM users)"},
	orphanSweep{"friendships", &models.Friendship{}, "requester_id NOT IN (SELECT id FROM users) OR addressee_id NOT IN (SELECT id FROM users)"},
)

// Run removes project-owned rows whose project is gone and friendship rows
// whose users are gone. Projects with a dangling owner are kept.
func (s *ReconcileService) Run(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{StartedAt: time.Now(), Removed: make(map[string]int64, len(orphanSweeps))}

	for _, sweep := range orphanSweeps {
		res := s.db.WithContext(ctx).Where(sweep.where).Delete(sweep.model)
		if res.Error != nil {
			return report, fmt.Errorf("sweeping %s: %w", sweep.table, res.Error)
		}
		report.Removed[sweep.table] = res.RowsAffected
		if res.RowsAffected > 0 {
			reconcileRemovedTotal.WithLabelValues(sweep.table).Add(float64(res.RowsAffected))
		}
	}

	report.Duration = time.Since(report.StartedAt)
	logger.Info().Int64("removed", report.Total()).Dur("took", report.Duration).Msg("reconcile finished")
	return report, nil
}

// PurgeProject deletes whatever still references a removed project. It is a
// no-op when the project exists again or never left anything behind.
func (s *ReconcileService) PurgeProject(ctx context.Context, projectID uint) (int64, error) {
	var exists int64
	if err := s.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", projectID).Count(&exists).Error; err != nil {
		return 0, fmt.Errorf("checking project: %w", err)
	}
	if exists > 0 {
		return 0, nil
	}

	var removed int64
	for _, sweep := range projectOwned {
		res := s.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(sweep.model)
		if res.Error != nil {
			return removed, fmt.Errorf("purging %s: %w", sweep.table, res.Error)
		}
		if res.RowsAffected > 0 {
			reconcileRemovedTotal.WithLabelValues(sweep.table).Add(float64(res.RowsAffected))
		}
		removed += res.RowsAffected
	}
	return removed, nil
}

// ProcessTask is the TaskProcessor for maintenance tasks.
func (s *ReconcileService) ProcessTask(ctx context.Context, task *MaintenanceTask) error {
	switch task.Kind {
	case TaskTypeProjectCascade:
		removed, err := s.PurgeProject(ctx, task.ProjectID)
		if err != nil {
			return err
		}
		if removed > 0 {
			logger.Warn().Uint("project_id", task.ProjectID).Int64("removed", removed).Msg("cascade left rows behind")
		}
		return nil
	case TaskTypeReconcile:
		_, err := s.Run(ctx)
		return err
	default:
		return fmt.Errorf("unknown maintenance task %q", task.Kind)
	}
}
