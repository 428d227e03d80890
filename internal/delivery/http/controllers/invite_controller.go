package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"collabcalendar/internal/delivery/http/helpers"
	"collabcalendar/internal/delivery/http/middleware"
	"collabcalendar/internal/domain"
)

// InviteAddressRequest is the request body for the calendar-scoped invite routes.
type InviteAddressRequest struct {
	Address string `json:"address"`
}

// Validate implements Validator.
func (i InviteAddressRequest) Validate() []string {
	var errs []string
	addr := strings.TrimSpace(i.Address)
	if addr == "" {
		errs = append(errs, "address is required")
	} else if !emailRegex.MatchString(addr) {
		errs = append(errs, "invalid address format")
	}
	return errs
}

// InviteTokenRequest is the request body for POST /invites/accept and /invites/decline.
type InviteTokenRequest struct {
	Token string `json:"token"`
}

// Validate implements Validator.
func (i InviteTokenRequest) Validate() []string {
	if strings.TrimSpace(i.Token) == "" {
		return []string{"token is required"}
	}
	return nil
}

// InviteResult describes the effect of an invite request. The token itself is
// only ever delivered by email.
type InviteResult struct {
	CalendarID string `json:"calendar_id"`
	Address    string `json:"address"`
	// Sent is true when a new token was issued and an email queued.
	Sent bool `json:"sent"`
}

// ListInvitesResponse is the data payload for GET /calendars/{calendarID}/invites.
type ListInvitesResponse struct {
	Invites    []*domain.Invite       `json:"invites"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListInvitesSuccessResponse is the success response envelope for GET /calendars/{calendarID}/invites (200).
type ListInvitesSuccessResponse struct {
	Data  ListInvitesResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

type InviteController struct {
	Logger  *slog.Logger
	Service domain.InviteService
}

// NewInviteController returns a controller for the invite endpoints.
func NewInviteController(logger *slog.Logger, svc domain.InviteService) *InviteController {
	return &InviteController{
		Logger:  logger,
		Service: svc,
	}
}

// InviteMember godoc
// @Summary Invite an address to a calendar
// @Description Creates a pending invite, or re-issues one that expired or was cancelled. Inviting an address that already has a pending invite is a no-op (200, sent=false). Requires owner or manager access.
// @Tags invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param calendarID path string true "Calendar ID"
// @Param body body InviteAddressRequest true "Address to invite"
// @Success 201 {object} helpers.APIResponse "data contains calendar_id, address, sent=true"
// @Success 200 {object} helpers.APIResponse "data contains calendar_id, address, sent=false"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: failed_precondition"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /calendars/{calendarID}/invites [post]
func (c *InviteController) InviteMember(w http.ResponseWriter, r *http.Request) {
	calendarID, userID, ok := c.calendarCaller(w, r)
	if !ok {
		return
	}
	var req InviteAddressRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	token, err := c.Service.InviteMember(r.Context(), calendarID, req.Address, userID)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	result := InviteResult{CalendarID: calendarID, Address: domain.NormalizeAddress(req.Address), Sent: token != ""}
	status := http.StatusOK
	if result.Sent {
		status = http.StatusCreated
	}
	helpers.WriteJSONSuccess(w, status, result)
}

// ResendInvite godoc
// @Summary Resend a pending invite
// @Description Replaces the token of a pending invite, extends its expiry and emails the address again. The previous link stops working.
// @Tags invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param calendarID path string true "Calendar ID"
// @Param body body InviteAddressRequest true "Invited address"
// @Success 200 {object} helpers.APIResponse "data contains calendar_id, address, sent=true"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: failed_precondition"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /calendars/{calendarID}/invites/resend [post]
func (c *InviteController) ResendInvite(w http.ResponseWriter, r *http.Request) {
	calendarID, userID, ok := c.calendarCaller(w, r)
	if !ok {
		return
	}
	var req InviteAddressRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if _, err := c.Service.ResendInvite(r.Context(), calendarID, req.Address, userID); err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, InviteResult{CalendarID: calendarID, Address: domain.NormalizeAddress(req.Address), Sent: true})
}

// RevokeInvite godoc
// @Summary Revoke a pending invite
// @Description Cancels the pending invite for the address. The link in the email stops working.
// @Tags invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param calendarID path string true "Calendar ID"
// @Param body body InviteAddressRequest true "Invited address"
// @Success 200 {object} helpers.APIResponse "data contains calendar_id, address, sent=false"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: failed_precondition"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /calendars/{calendarID}/invites [delete]
func (c *InviteController) RevokeInvite(w http.ResponseWriter, r *http.Request) {
	calendarID, userID, ok := c.calendarCaller(w, r)
	if !ok {
		return
	}
	var req InviteAddressRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.RevokeInvite(r.Context(), calendarID, req.Address, userID); err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, InviteResult{CalendarID: calendarID, Address: domain.NormalizeAddress(req.Address)})
}

// ListInvites godoc
// @Summary List a calendar's invites
// @Description Returns invites newest first. Pending invites past their expiry are reported as EXPIRED.
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param calendarID path string true "Calendar ID"
// @Param status query string false "PENDING, ACCEPTED, EXPIRED or CANCELLED"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListInvitesSuccessResponse "data contains invites and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /calendars/{calendarID}/invites [get]
func (c *InviteController) ListInvites(w http.ResponseWriter, r *http.Request) {
	calendarID, userID, ok := c.calendarCaller(w, r)
	if !ok {
		return
	}
	status, valid := domain.ParseInviteStatus(r.URL.Query().Get("status"))
	if !valid {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid status filter")
		return
	}
	params, err := helpers.ParsePagination(r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	invites, total, err := c.Service.ListInvites(r.Context(), calendarID, userID, status, params)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	if invites == nil {
		invites = []*domain.Invite{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListInvitesResponse{
		Invites:    invites,
		Pagination: helpers.NewPaginationMeta(params, total),
	})
}

// AcceptInvite godoc
// @Summary Accept an invite
// @Description Consumes the token from the invite email and adds the caller to the calendar. The caller's email must match the invited address.
// @Tags invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body InviteTokenRequest true "Invite token"
// @Success 200 {object} helpers.APIResponse "data is null"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: failed_precondition"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invites/accept [post]
func (c *InviteController) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req InviteTokenRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.AcceptInvite(r.Context(), req.Token, userID); err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, nil)
}

// DeclineInvite godoc
// @Summary Decline an invite
// @Description Cancels the invite behind the token. Works without a session so the link in the email can be used directly; when authenticated the caller's email must match the invited address.
// @Tags invites
// @Accept json
// @Produce json
// @Param body body InviteTokenRequest true "Invite token"
// @Success 200 {object} helpers.APIResponse "data is null"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: failed_precondition"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invites/decline [post]
func (c *InviteController) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req InviteTokenRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.DeclineInvite(r.Context(), req.Token, userID); err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, nil)
}

// calendarCaller reads the calendarID path value and the authenticated user.
func (c *InviteController) calendarCaller(w http.ResponseWriter, r *http.Request) (calendarID, userID string, ok bool) {
	calendarID = strings.TrimSpace(r.PathValue("calendarID"))
	if calendarID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing calendarID")
		return "", "", false
	}
	userID, ok = middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return "", "", false
	}
	return calendarID, userID, true
}

func (c *InviteController) fail(w http.ResponseWriter, r *http.Request, err error) {
	if _, _, known := helpers.StatusForError(err); !known {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	helpers.WriteDomainError(w, err)
}
