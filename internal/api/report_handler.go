package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/redact"
	"github.com/phrazzld/taskflow-api/internal/service"
)

// ReportHandler serves aggregate task reports.
type ReportHandler struct {
	reports service.ReportService
	logger  *slog.Logger
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(reports service.ReportService, logger *slog.Logger) *ReportHandler {
	if reports == nil {
		// ALLOW-PANIC: constructor enforcing required dependency
		panic("report service cannot be nil for ReportHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{
		reports: reports,
		logger:  logger.With(slog.String("component", "report_handler")),
	}
}

// GetUserReport handles GET /reports/user.
func (h *ReportHandler) GetUserReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	report, err := h.reports.GetUserReport(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to build report")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, report)
}

// GetTeamReport handles POST /reports/team. Unknown users are left out.
func (h *ReportHandler) GetTeamReport(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}
	var req TeamReportRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	report, err := h.reports.GetTeamReport(r.Context(), req.UserIDs)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to build team report")
		return
	}
	if report == nil {
		report = []service.TeamMemberReport{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, report)
}

// GetCompletedTasks handles GET /reports/completed-tasks?start=&end=&user_id=.
// Bounds are inclusive; user_id defaults to the caller.
func (h *ReportHandler) GetCompletedTasks(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	query := r.URL.Query()

	if query.Get("start") == "" || query.Get("end") == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "start and end are required")
		return
	}
	start, err := parseDate(query.Get("start"))
	if err != nil {
		log.Debug("invalid start date", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid start date")
		return
	}
	end, err := parseDate(query.Get("end"))
	if err != nil {
		log.Debug("invalid end date", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid end date")
		return
	}

	userID := callerID
	if raw := query.Get("user_id"); raw != "" {
		userID, err = uuid.Parse(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid user_id")
			return
		}
	}

	count, err := h.reports.GetCompletedTasksInPeriod(r.Context(), userID, start, end)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to count completed tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CompletedTasksResponse{
		UserID: userID,
		Start:  start,
		End:    end,
		Count:  count,
	})
}
