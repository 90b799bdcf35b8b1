package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/payroll-sentinel/internal/common"
	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/Veraticus/payroll-sentinel/internal/risk"
	"github.com/Veraticus/payroll-sentinel/internal/service"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type assessmentRequest struct {
	CurrentBalance   *float64                  `json:"current_balance" binding:"required"`
	CompanyID        string                    `json:"company_id" binding:"required"`
	Obligations      []model.PayrollObligation `json:"obligations"`
	Inflows          []model.CashInflow        `json:"inflows"`
	SafetyMultiplier float64                   `json:"safety_multiplier"`
}

type assessmentResponse struct {
	Assessment *model.RiskAssessment `json:"assessment"`
	Summary    string                `json:"summary"`
	Alerts     []model.AlertTrigger  `json:"alerts"`
	RiskScore  int                   `json:"risk_score"`
}

type checkResponse struct {
	assessmentResponse
	Sent       []model.AlertHistoryEntry `json:"sent"`
	Suppressed map[string]int            `json:"suppressed"`
	Failed     int                       `json:"failed"`
}

type companyRequest struct {
	Name           string `json:"name" binding:"required"`
	SlackChannel   string `json:"slack_channel"`
	TelegramChatID int64  `json:"telegram_chat_id"`
	Active         *bool  `json:"active"`
}

type payrollRunRequest struct {
	PayDate       string                 `json:"pay_date" binding:"required"`
	Description   string                 `json:"description"`
	Status        model.PayrollRunStatus `json:"status"`
	Amount        float64                `json:"amount"`
	EmployeeCount int                    `json:"employee_count"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": s.clock().UTC()})
}

// handleAssess computes an assessment from the request body alone. Nothing is
// persisted and no alert is sent.
func (s *Server) handleAssess(c *gin.Context) {
	var req assessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("invalid request: %v", err))
		return
	}
	for _, o := range req.Obligations {
		if err := o.Validate(); err != nil {
			s.respondError(c, err)
			return
		}
	}
	for _, in := range req.Inflows {
		if err := in.Validate(); err != nil {
			s.respondError(c, err)
			return
		}
	}

	multiplier := req.SafetyMultiplier
	if multiplier == 0 {
		multiplier = s.safetyMultiplier
	}
	opts := []risk.Option{risk.WithClock(s.clock)}
	if multiplier != 0 {
		opts = append(opts, risk.WithSafetyMultiplier(multiplier))
	}
	assessor := risk.NewAssessor(opts...)

	obligations := append([]model.PayrollObligation(nil), req.Obligations...)
	sort.SliceStable(obligations, func(i, j int) bool {
		return obligations[i].Date.Before(obligations[j].Date)
	})

	assessment, err := assessor.Assess(req.CompanyID, *req.CurrentBalance, obligations, req.Inflows)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessmentResponse{
		Assessment: assessment,
		RiskScore:  risk.CalculateRiskScore(assessment),
		Summary:    risk.GenerateRiskSummary(assessment),
		Alerts:     risk.BuildAlertCandidates(assessment, assessment.AssessmentDate),
	})
}

func (s *Server) handleCheckCompany(c *gin.Context) {
	if s.checker == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "monitoring is not configured"})
		return
	}
	id := c.Param("id")
	if _, err := s.store.GetCompany(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}

	res, err := s.checker.CheckCompany(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	suppressed := make(map[string]int, len(res.Dispatch.Suppressed))
	for reason, n := range res.Dispatch.Suppressed {
		suppressed[string(reason)] = n
	}
	c.JSON(http.StatusOK, checkResponse{
		assessmentResponse: assessmentResponse{
			Assessment: res.Assessment,
			RiskScore:  res.Score,
			Summary:    res.Summary,
			Alerts:     res.Candidates,
		},
		Sent:       res.Dispatch.Sent,
		Suppressed: suppressed,
		Failed:     len(res.Dispatch.Failed),
	})
}

func (s *Server) handleListCompanies(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	companies, err := s.store.ListCompanies(c.Request.Context(), activeOnly)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies, "count": len(companies)})
}

func (s *Server) handleCreateCompany(c *gin.Context) {
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("invalid request: %v", err))
		return
	}

	company := &model.Company{
		Name:           req.Name,
		SlackChannel:   req.SlackChannel,
		TelegramChatID: req.TelegramChatID,
		Active:         req.Active == nil || *req.Active,
	}
	if err := s.store.CreateCompany(c.Request.Context(), company); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

func (s *Server) handleGetCompany(c *gin.Context) {
	company, err := s.store.GetCompany(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (s *Server) handleLatestAssessment(c *gin.Context) {
	record, err := s.store.GetLatestAssessment(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) handleListAlerts(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	alerts, err := s.store.ListAlerts(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

func (s *Server) handleListPayrollRuns(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	filter := service.PayrollRunFilter{
		Status: model.PayrollRunStatus(c.Query("status")),
		Limit:  limit,
	}
	if filter.From, err = parseDateQuery(c, "from"); err != nil {
		badRequest(c, err.Error())
		return
	}
	if filter.To, err = parseDateQuery(c, "to"); err != nil {
		badRequest(c, err.Error())
		return
	}

	runs, err := s.store.GetPayrollRuns(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payroll_runs": runs, "count": len(runs)})
}

func (s *Server) handleCreatePayrollRun(c *gin.Context) {
	var req payrollRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("invalid request: %v", err))
		return
	}
	payDate, err := time.Parse(time.DateOnly, req.PayDate)
	if err != nil {
		badRequest(c, fmt.Sprintf("pay_date must be YYYY-MM-DD: %v", err))
		return
	}
	if req.Status == "" {
		req.Status = model.PayrollRunDraft
	}

	run := &model.PayrollRun{
		CompanyID:     c.Param("id"),
		PayDate:       payDate,
		Amount:        req.Amount,
		EmployeeCount: req.EmployeeCount,
		Description:   req.Description,
		Status:        req.Status,
	}
	if err := s.store.SavePayrollRun(c.Request.Context(), run); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, run)
}

func parseLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return min(limit, maxListLimit), nil
}

func parseDateQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("%s must be YYYY-MM-DD", key), err)
	}
	return &t, nil
}
