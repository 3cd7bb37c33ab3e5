package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "userdir/internal/errors"
	"userdir/internal/model"
	"userdir/internal/service"
	"userdir/internal/validation"
)

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) List(ctx context.Context, params service.ListAccountsParams) (*model.Page, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page), args.Error(1)
}

func (m *MockAccountService) Get(ctx context.Context, id uint) (*model.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountService) Create(ctx context.Context, input service.CreateAccountInput) (*service.CreateResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CreateResult), args.Error(1)
}

func (m *MockAccountService) Update(ctx context.Context, id uint, input service.UpdateAccountInput) (*model.Account, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountService) Delete(ctx context.Context, id uint, actor *model.Account) (*model.Account, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validation.New(validation.NewStaticDenylist())
	return e
}

const createPayload = `{
	"first_name": "Ada",
	"last_name": "Lovelace",
	"email": "ada@example.com",
	"password": "Str0ng!Pass",
	"password_confirmation": "Str0ng!Pass",
	"role": "reviewer"
}`

func TestUserHandler_Create(t *testing.T) {
	account := &model.Account{
		ID:        7,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Role:      model.RoleReviewer,
	}

	t.Run("created with delivered credential email", func(t *testing.T) {
		svc := new(MockAccountService)
		svc.On("Create", mock.Anything, mock.AnythingOfType("service.CreateAccountInput")).
			Return(&service.CreateResult{Account: account}, nil)
		h := NewUserHandler(svc)

		e := newTestEcho()
		req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(createPayload))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		err := h.Create(e.NewContext(req, rec))

		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp CreateUserResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, account.Email, resp.Account.Email)
		assert.Nil(t, resp.Warning)
	})

	t.Run("created but credential email failed", func(t *testing.T) {
		svc := new(MockAccountService)
		svc.On("Create", mock.Anything, mock.AnythingOfType("service.CreateAccountInput")).
			Return(&service.CreateResult{
				Account:   account,
				NotifyErr: fmt.Errorf("%w: %v", apperrors.ErrEmailDeliveryFailed, errors.New("smtp timeout")),
			}, nil)
		h := NewUserHandler(svc)

		e := newTestEcho()
		req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(createPayload))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		err := h.Create(e.NewContext(req, rec))

		assert.NoError(t, err)
		assert.Equal(t, http.StatusMultiStatus, rec.Code)

		// The account is committed and returned alongside the warning;
		// the delivery failure never turns the creation into an error.
		var resp CreateUserResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, account.ID, resp.Account.ID)
		assert.Equal(t, account.Email, resp.Account.Email)
		assert.NotNil(t, resp.Warning)
		assert.Equal(t, "EMAIL_DELIVERY_FAILED", resp.Warning.Code)
		assert.Equal(t, "credential email could not be delivered", resp.Warning.Error)
	})

	t.Run("duplicate email surfaces as the service error", func(t *testing.T) {
		svc := new(MockAccountService)
		svc.On("Create", mock.Anything, mock.AnythingOfType("service.CreateAccountInput")).
			Return(nil, apperrors.ErrEmailAlreadyExists)
		h := NewUserHandler(svc)

		e := newTestEcho()
		req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(createPayload))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		err := h.Create(e.NewContext(req, rec))

		assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
	})
}

func TestUserHandler_List_PageBounds(t *testing.T) {
	tests := []struct {
		name  string
		query string
		field string
	}{
		{name: "explicit zero page", query: "page=0", field: "page"},
		{name: "negative page", query: "page=-3", field: "page"},
		{name: "explicit zero page size", query: "per_page=0", field: "per_page"},
		{name: "page size above bound", query: "per_page=101", field: "per_page"},
		{name: "non-numeric page size", query: "per_page=lots", field: "per_page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAccountService)
			h := NewUserHandler(svc)

			e := newTestEcho()
			req := httptest.NewRequest(http.MethodGet, "/users?"+tt.query, nil)
			rec := httptest.NewRecorder()

			err := h.List(e.NewContext(req, rec))

			var vErr *apperrors.ValidationError
			assert.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Fields, tt.field)
			svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
		})
	}
}

func TestUserHandler_List_OmittedParamsDefer(t *testing.T) {
	// Absent paging params reach the service as zero values so the
	// service-side defaults apply; only explicitly supplied values are
	// bound-checked in the handler.
	svc := new(MockAccountService)
	svc.On("List", mock.Anything, service.ListAccountsParams{}).
		Return(&model.Page{Items: []model.Account{}, Page: 1, PerPage: 20}, nil)
	h := NewUserHandler(svc)

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	rec := httptest.NewRecorder()

	err := h.List(e.NewContext(req, rec))

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
