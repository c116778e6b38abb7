package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// UnknownCategoryName labels tasks whose category no longer exists.
const UnknownCategoryName = "Unknown"

// CategoryCount is one row of a per-category breakdown.
type CategoryCount struct {
	CategoryID   uuid.UUID `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Count        int       `json:"count"`
}

// UserReport summarizes the tasks a user created or is assigned.
type UserReport struct {
	TotalTasks         int                       `json:"total_tasks"`
	TasksByStatus      map[domain.TaskStatus]int `json:"tasks_by_status"`
	TasksByCategory    []CategoryCount           `json:"tasks_by_category"`
	OverdueTasks       int                       `json:"overdue_tasks"`
	CompletedThisMonth int                       `json:"completed_this_month"`
}

// TeamMemberReport summarizes the tasks assigned to one team member.
type TeamMemberReport struct {
	UserID         uuid.UUID `json:"user_id"`
	UserName       string    `json:"user_name"`
	AssignedTasks  int       `json:"assigned_tasks"`
	CompletedTasks int       `json:"completed_tasks"`
	OverdueTasks   int       `json:"overdue_tasks"`
}

// ReportService aggregates task data.
type ReportService interface {
	GetUserReport(ctx context.Context, userID uuid.UUID) (*UserReport, error)

	// GetTeamReport returns one entry per existing user, in input order.
	// Unknown ids are skipped.
	GetTeamReport(ctx context.Context, userIDs []uuid.UUID) ([]TeamMemberReport, error)

	// GetCompletedTasksInPeriod counts completed tasks last updated within
	// [start, end]. An end before start is an empty range.
	GetCompletedTasksInPeriod(ctx context.Context, userID uuid.UUID, start, end time.Time) (int, error)
}

// Clock returns the current time.
type Clock func() time.Time

type reportServiceImpl struct {
	tasks      store.TaskStore
	categories store.CategoryStore
	users      store.UserStore
	now        Clock
	logger     *slog.Logger
}

// ReportOption configures a ReportService.
type ReportOption func(*reportServiceImpl)

// WithClock overrides the time source used for overdue and monthly counts.
func WithClock(now Clock) ReportOption {
	return func(s *reportServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// NewReportService creates a ReportService.
func NewReportService(
	tasks store.TaskStore,
	categories store.CategoryStore,
	users store.UserStore,
	logger *slog.Logger,
	opts ...ReportOption,
) (ReportService, error) {
	switch {
	case tasks == nil:
		return nil, newDependencyError("report_service", "task store")
	case categories == nil:
		return nil, newDependencyError("report_service", "category store")
	case users == nil:
		return nil, newDependencyError("report_service", "user store")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &reportServiceImpl{
		tasks:      tasks,
		categories: categories,
		users:      users,
		now:        time.Now,
		logger:     logger.With(slog.String("component", "report_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *reportServiceImpl) GetUserReport(ctx context.Context, userID uuid.UUID) (*UserReport, error) {
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.failed(ctx, "user_report", "failed to list tasks", err)
	}

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	report := &UserReport{
		TotalTasks:      len(tasks),
		TasksByStatus:   make(map[domain.TaskStatus]int, len(domain.AllTaskStatuses)),
		TasksByCategory: []CategoryCount{},
	}
	for _, status := range domain.AllTaskStatuses {
		report.TasksByStatus[status] = 0
	}

	// Breakdown rows keep the order in which categories are first seen.
	position := make(map[uuid.UUID]int)
	for _, task := range tasks {
		report.TasksByStatus[task.Status]++

		if task.IsOverdue(now) {
			report.OverdueTasks++
		}
		if task.Status == domain.TaskStatusCompleted && !task.UpdatedAt.Before(monthStart) {
			report.CompletedThisMonth++
		}

		if task.CategoryID == nil {
			continue
		}
		if i, ok := position[*task.CategoryID]; ok {
			report.TasksByCategory[i].Count++
			continue
		}
		name, err := s.categoryName(ctx, *task.CategoryID)
		if err != nil {
			return nil, s.failed(ctx, "user_report", "failed to resolve category", err)
		}
		position[*task.CategoryID] = len(report.TasksByCategory)
		report.TasksByCategory = append(report.TasksByCategory, CategoryCount{
			CategoryID:   *task.CategoryID,
			CategoryName: name,
			Count:        1,
		})
	}

	return report, nil
}

func (s *reportServiceImpl) GetTeamReport(ctx context.Context, userIDs []uuid.UUID) ([]TeamMemberReport, error) {
	now := s.now().UTC()
	reports := make([]TeamMemberReport, 0, len(userIDs))

	for _, id := range userIDs {
		user, err := s.users.GetByID(ctx, id)
		if errors.Is(err, store.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return nil, s.failed(ctx, "team_report", "failed to load user", err)
		}

		assigned, err := s.tasks.ListByAssignee(ctx, id)
		if err != nil {
			return nil, s.failed(ctx, "team_report", "failed to list tasks", err)
		}

		entry := TeamMemberReport{
			UserID:        user.ID,
			UserName:      user.Name,
			AssignedTasks: len(assigned),
		}
		for _, task := range assigned {
			if task.Status == domain.TaskStatusCompleted {
				entry.CompletedTasks++
			}
			if task.IsOverdue(now) {
				entry.OverdueTasks++
			}
		}
		reports = append(reports, entry)
	}

	return reports, nil
}

func (s *reportServiceImpl) GetCompletedTasksInPeriod(
	ctx context.Context,
	userID uuid.UUID,
	start, end time.Time,
) (int, error) {
	if start.IsZero() || end.IsZero() {
		return 0, ErrInvalidPeriod
	}
	if end.Before(start) {
		return 0, nil
	}

	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return 0, s.failed(ctx, "completed_in_period", "failed to list tasks", err)
	}

	count := 0
	for _, task := range tasks {
		if task.Status != domain.TaskStatusCompleted {
			continue
		}
		if task.UpdatedAt.Before(start) || task.UpdatedAt.After(end) {
			continue
		}
		count++
	}
	return count, nil
}

func (s *reportServiceImpl) categoryName(ctx context.Context, id uuid.UUID) (string, error) {
	category, err := s.categories.GetByID(ctx, id)
	if errors.Is(err, store.ErrCategoryNotFound) {
		return UnknownCategoryName, nil
	}
	if err != nil {
		return "", err
	}
	return category.Name, nil
}

func (s *reportServiceImpl) failed(ctx context.Context, op, message string, err error) error {
	logger.FromContextOrDefault(ctx, s.logger).Error(message,
		slog.String("error", err.Error()),
		slog.String("operation", op))
	return wrapError("report_service", op, message, err)
}
