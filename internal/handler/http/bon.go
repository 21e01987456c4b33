package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/bon-backend-go/internal/domain/bon"
	"github.com/cmlabs-hris/bon-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
)

type BonHandler interface {
	// Applications
	Submit(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	GetInstallments(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Decide(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)

	// Eligibility
	GetEligibility(w http.ResponseWriter, r *http.Request)

	// Installments
	ProcessPeriod(w http.ResponseWriter, r *http.Request)
	UpdateInstallmentStatus(w http.ResponseWriter, r *http.Request)
}

type bonHandlerImpl struct {
	bonService         bon.BonService
	installmentService bon.InstallmentService
}

func NewBonHandler(bonService bon.BonService, installmentService bon.InstallmentService) BonHandler {
	return &bonHandlerImpl{
		bonService:         bonService,
		installmentService: installmentService,
	}
}

// getActorID extracts the acting user from the verified JWT.
func getActorID(r *http.Request) (string, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user_id claim is missing or invalid")
	}

	return userID, nil
}

// ========== APPLICATIONS ==========

func (h *bonHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	var req bon.CreateBonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	created, result, err := h.bonService.Submit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if !result.IsValid {
		response.BusinessRuleViolation(w, result.Errors, result.Warnings)
		return
	}

	response.Created(w, "Bon application submitted", bon.SubmitBonResponse{
		Bon:      bon.ToBonResponse(created),
		Warnings: result.Warnings,
	})
}

func (h *bonHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := bon.BonFilter{Page: 1, Limit: 10}

	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page > 0 {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if search := r.URL.Query().Get("search"); search != "" {
		filter.Search = &search
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = &status
	}
	if employeeID := r.URL.Query().Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}

	bons, total, err := h.bonService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	responses := make([]bon.BonResponse, 0, len(bons))
	for _, b := range bons {
		responses = append(responses, bon.ToBonResponse(b))
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	response.SuccessWithMeta(w, responses, &response.Meta{
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

func (h *bonHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Bon ID is required", nil)
		return
	}

	b, err := h.bonService.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, bon.ToBonResponse(b))
}

func (h *bonHandlerImpl) GetInstallments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Bon ID is required", nil)
		return
	}

	cicilans, err := h.bonService.GetInstallments(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	responses := make([]bon.CicilanResponse, 0, len(cicilans))
	for _, c := range cicilans {
		responses = append(responses, bon.ToCicilanResponse(c))
	}

	response.Success(w, responses)
}

func (h *bonHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Bon ID is required", nil)
		return
	}

	var req bon.UpdateBonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	updated, err := h.bonService.Update(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Bon updated", bon.ToBonResponse(updated))
}

func (h *bonHandlerImpl) Decide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Bon ID is required", nil)
		return
	}

	var req bon.DecideBonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	actorID, err := getActorID(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	var decided bon.Bon
	switch req.Action {
	case bon.DecisionApprove:
		decided, err = h.bonService.Approve(r.Context(), id, actorID)
	case bon.DecisionReject:
		decided, err = h.bonService.Reject(r.Context(), id, actorID)
	}
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Bon decision recorded", bon.ToBonResponse(decided))
}

func (h *bonHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Bon ID is required", nil)
		return
	}

	if err := h.bonService.Cancel(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Bon cancelled", nil)
}

// ========== ELIGIBILITY ==========

func (h *bonHandlerImpl) GetEligibility(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeId")
	if employeeID == "" {
		response.BadRequest(w, "Employee ID is required", nil)
		return
	}

	var proposedAmount *decimal.Decimal
	if raw := r.URL.Query().Get("amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil || !amount.IsPositive() {
			response.BadRequest(w, "Invalid amount", nil)
			return
		}
		proposedAmount = &amount
	}

	result, err := h.bonService.GetEligibility(r.Context(), employeeID, proposedAmount)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== INSTALLMENTS ==========

func (h *bonHandlerImpl) ProcessPeriod(w http.ResponseWriter, r *http.Request) {
	var req bon.ProcessPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	processed, failed, err := h.installmentService.ProcessPeriod(r.Context(), req.Period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	responses := make([]bon.CicilanResponse, 0, len(processed))
	for _, c := range processed {
		responses = append(responses, bon.ToCicilanResponse(c))
	}

	response.SuccessWithMessage(w, "Installment period processed", bon.ProcessPeriodResponse{
		Period:    req.Period,
		Processed: responses,
		Failed:    failed,
	})
}

func (h *bonHandlerImpl) UpdateInstallmentStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Installment ID is required", nil)
		return
	}

	var req bon.UpdateCicilanStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	updated, err := h.installmentService.UpdateStatus(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Installment status updated", bon.ToCicilanResponse(updated))
}
