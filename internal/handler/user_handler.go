package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"userdir/internal/auth"
	apperrors "userdir/internal/errors"
	"userdir/internal/model"
	"userdir/internal/service"
	"userdir/internal/validation"
)

// UserHandler handles directory account endpoints.
type UserHandler struct {
	svc service.AccountService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.AccountService) *UserHandler {
	return &UserHandler{svc: svc}
}

// CreateUserRequest represents an account creation payload.
type CreateUserRequest struct {
	FirstName            string `json:"first_name" validate:"required,personname"`
	LastName             string `json:"last_name" validate:"required,personname"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8,strongpassword,uncompromised"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	Role                 string `json:"role" validate:"required,role"`
}

// Sanitize normalizes names, email, and role spelling before the rules run.
func (r *CreateUserRequest) Sanitize() {
	r.FirstName = validation.SanitizeName(r.FirstName)
	r.LastName = validation.SanitizeName(r.LastName)
	r.Email = validation.SanitizeEmail(r.Email)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

// UpdateUserRequest represents a partial account update. A field that is
// present is fully validated even though it is optional.
type UpdateUserRequest struct {
	FirstName            *string `json:"first_name" validate:"omitempty,personname"`
	LastName             *string `json:"last_name" validate:"omitempty,personname"`
	Email                *string `json:"email" validate:"omitempty,email"`
	Password             *string `json:"password" validate:"omitempty,min=8,strongpassword,uncompromised"`
	PasswordConfirmation *string `json:"password_confirmation"`
	Role                 *string `json:"role" validate:"omitempty,role"`
}

// Sanitize normalizes whichever fields are present.
func (r *UpdateUserRequest) Sanitize() {
	if r.FirstName != nil {
		*r.FirstName = validation.SanitizeName(*r.FirstName)
	}
	if r.LastName != nil {
		*r.LastName = validation.SanitizeName(*r.LastName)
	}
	if r.Email != nil {
		*r.Email = validation.SanitizeEmail(*r.Email)
	}
	if r.Role != nil {
		*r.Role = strings.ToLower(strings.TrimSpace(*r.Role))
	}
}

// CrossValidate makes the confirmation required exactly when a password is
// being set.
func (r *UpdateUserRequest) CrossValidate(add func(field, message string)) {
	if r.Password == nil {
		return
	}
	switch {
	case r.PasswordConfirmation == nil:
		add("password_confirmation", "is required when password is provided")
	case *r.PasswordConfirmation != *r.Password:
		add("password_confirmation", "must match the password")
	}
}

// CreateUserResponse is the created-with-warning shape: the account plus an
// optional secondary-failure detail for the credential email.
type CreateUserResponse struct {
	Account *model.Account           `json:"account"`
	Warning *apperrors.ErrorResponse `json:"warning,omitempty"`
}

// DeleteUserResponse confirms a soft deletion.
type DeleteUserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	DeletedAt time.Time `json:"deleted_at"`
}

// List godoc
// @Summary List accounts
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param per_page query int false "Page size (1-100)"
// @Param search query string false "Substring match on name or email"
// @Param role query string false "Exact role filter"
// @Success 200 {object} model.Page
// @Failure 401 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) List(c echo.Context) error {
	params := service.ListAccountsParams{
		Search: strings.TrimSpace(c.QueryParam("search")),
	}
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return apperrors.NewValidationError("page", "must be an integer")
		}
		if n < 1 {
			return apperrors.NewValidationError("page", "must be at least 1")
		}
		params.Page = n
	}
	if v := c.QueryParam("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return apperrors.NewValidationError("per_page", "must be an integer")
		}
		if n < 1 || n > 100 {
			return apperrors.NewValidationError("per_page", "must be between 1 and 100")
		}
		params.PerPage = n
	}
	if v := c.QueryParam("role"); v != "" {
		role, err := model.ParseRole(v)
		if err != nil {
			return apperrors.NewValidationError("role", "must be either administrator or reviewer")
		}
		params.Role = role
	}

	page, err := h.svc.List(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Create godoc
// @Summary Create an account
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateUserRequest true "Account payload"
// @Success 201 {object} CreateUserResponse
// @Success 207 {object} CreateUserResponse "Created, credential email failed"
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return apperrors.NewValidationError("role", "must be either administrator or reviewer")
	}

	result, err := h.svc.Create(c.Request().Context(), service.CreateAccountInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      role,
	})
	if err != nil {
		return err
	}

	resp := CreateUserResponse{Account: result.Account}
	if result.NotifyErr != nil {
		httpErr := apperrors.MapErrorToHTTP(result.NotifyErr)
		warning := httpErr.ToErrorResponse()
		resp.Warning = &warning
		return c.JSON(http.StatusMultiStatus, resp)
	}
	return c.JSON(http.StatusCreated, resp)
}

// Update godoc
// @Summary Update an account
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Param request body UpdateUserRequest true "Partial account payload"
// @Success 200 {object} model.Account
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	input := service.UpdateAccountInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	}
	if req.Role != nil {
		role, err := model.ParseRole(*req.Role)
		if err != nil {
			return apperrors.NewValidationError("role", "must be either administrator or reviewer")
		}
		input.Role = &role
	}

	account, err := h.svc.Update(c.Request().Context(), id, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// Delete godoc
// @Summary Soft-delete an account
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} DeleteUserResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}

	account, err := h.svc.Delete(c.Request().Context(), id, auth.Principal(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, DeleteUserResponse{
		ID:        account.ID,
		Email:     account.Email,
		DeletedAt: account.DeletedAt.Time,
	})
}

// accountID parses the path id; a malformed id gets not-found semantics so
// the response does not distinguish it from a missing record.
func accountID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, apperrors.ErrAccountNotFound
	}
	return uint(id), nil
}
