package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"userdir/internal/auth"
	apperrors "userdir/internal/errors"
	"userdir/internal/model"
	"userdir/internal/notify"
	"userdir/internal/repository"
)

const (
	bcryptCost = 10

	defaultPerPage = 20
	maxPerPage     = 100
)

// CreateAccountInput is a validated, sanitized create payload.
type CreateAccountInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      model.Role
}

// UpdateAccountInput is a partial update: nil fields are left untouched.
type UpdateAccountInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
	Role      *model.Role
}

// ListAccountsParams filter and page a listing.
type ListAccountsParams struct {
	Page    int
	PerPage int
	Search  string
	Role    model.Role
}

// CreateResult carries the created account together with the secondary
// notification outcome. NotifyErr set means the account exists but the
// credential email did not go out.
type CreateResult struct {
	Account   *model.Account
	NotifyErr error
}

// AccountService owns the account lifecycle: create, read, update, soft
// delete. It is the only writer of the account store.
type AccountService interface {
	List(ctx context.Context, params ListAccountsParams) (*model.Page, error)
	Get(ctx context.Context, id uint) (*model.Account, error)
	Create(ctx context.Context, input CreateAccountInput) (*CreateResult, error)
	Update(ctx context.Context, id uint, input UpdateAccountInput) (*model.Account, error)
	Delete(ctx context.Context, id uint, actor *model.Account) (*model.Account, error)
}

type accountService struct {
	repo          repository.AccountRepository
	sessions      auth.SessionStore
	notifier      notify.Notifier
	audit         auth.AuditSink
	notifyTimeout time.Duration
}

// NewAccountService wires the lifecycle service.
func NewAccountService(
	repo repository.AccountRepository,
	sessions auth.SessionStore,
	notifier notify.Notifier,
	audit auth.AuditSink,
	notifyTimeout time.Duration,
) AccountService {
	return &accountService{
		repo:          repo,
		sessions:      sessions,
		notifier:      notifier,
		audit:         audit,
		notifyTimeout: notifyTimeout,
	}
}

// lookupState is the three-way result of an unscoped account lookup. Absent
// and Deleted collapse to the same not-found error outwardly but are kept
// apart for the audit trail.
type lookupState int

const (
	lookupAbsent lookupState = iota
	lookupDeleted
	lookupActive
)

func (s *accountService) lookup(ctx context.Context, id uint) (*model.Account, lookupState, error) {
	account, err := s.repo.FindByIDIncludingDeleted(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, lookupAbsent, nil
		}
		return nil, lookupAbsent, err
	}
	if account.Deleted() {
		return account, lookupDeleted, nil
	}
	return account, lookupActive, nil
}

func (s *accountService) List(ctx context.Context, params ListAccountsParams) (*model.Page, error) {
	if params.Page == 0 {
		params.Page = 1
	}
	if params.PerPage == 0 {
		params.PerPage = defaultPerPage
	}
	if params.Page < 1 {
		return nil, apperrors.NewValidationError("page", "must be at least 1")
	}
	if params.PerPage < 1 || params.PerPage > maxPerPage {
		return nil, apperrors.NewValidationError("per_page", fmt.Sprintf("must be between 1 and %d", maxPerPage))
	}

	accounts, total, err := s.repo.List(ctx, repository.ListParams{
		Page:    params.Page,
		PerPage: params.PerPage,
		Search:  params.Search,
		Role:    params.Role,
	})
	if err != nil {
		return nil, err
	}
	return &model.Page{
		Items:   accounts,
		Total:   total,
		Page:    params.Page,
		PerPage: params.PerPage,
	}, nil
}

func (s *accountService) Get(ctx context.Context, id uint) (*model.Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// Create persists the account and then attempts the credential email. A
// failed or timed-out send is reported in the result, never rolled back:
// losing the account over a relay hiccup is worse than re-sending a mail.
func (s *accountService) Create(ctx context.Context, input CreateAccountInput) (*CreateResult, error) {
	taken, err := s.repo.EmailTaken(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &model.Account{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         input.Role,
	}
	if err := s.repo.CreateUnique(ctx, account); err != nil {
		return nil, err
	}

	result := &CreateResult{Account: account}

	nctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()
	if err := s.notifier.Send(nctx, account, input.Password); err != nil {
		result.NotifyErr = fmt.Errorf("%w: %v", apperrors.ErrEmailDeliveryFailed, err)
		s.recordAudit(ctx, auth.AuditEvent{
			Action:   "credential_email_failed",
			TargetID: account.ID,
			Reason:   err.Error(),
		})
	}
	return result, nil
}

// Update rewrites only the provided fields. An email change re-checks
// uniqueness excluding the record itself, so re-submitting the current email
// is a no-op rather than a conflict.
func (s *accountService) Update(ctx context.Context, id uint, input UpdateAccountInput) (*model.Account, error) {
	account, state, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	switch state {
	case lookupAbsent:
		return nil, apperrors.ErrAccountNotFound
	case lookupDeleted:
		s.recordAudit(ctx, auth.AuditEvent{
			Action:   "update_rejected",
			TargetID: account.ID,
			Reason:   "target already deleted",
		})
		return nil, apperrors.ErrAccountNotFound
	}

	fields := map[string]interface{}{}
	if input.FirstName != nil {
		fields["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		fields["last_name"] = *input.LastName
	}
	if input.Email != nil {
		taken, err := s.repo.EmailTakenByOther(ctx, *input.Email, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		fields["email"] = *input.Email
	}
	if input.Role != nil {
		fields["role"] = *input.Role
	}
	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		fields["password_hash"] = string(hash)
	}
	if len(fields) == 0 {
		return nil, apperrors.ErrNoUpdateData
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete soft-deletes the account and then revokes its sessions as an
// immediately-following compensating step. The session middleware also
// rejects deactivated principals, so a session surviving a registry outage
// is still unusable.
func (s *accountService) Delete(ctx context.Context, id uint, actor *model.Account) (*model.Account, error) {
	if actor != nil && actor.ID == id {
		return nil, apperrors.ErrSelfDeletion
	}

	account, state, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	switch state {
	case lookupAbsent:
		return nil, apperrors.ErrAccountNotFound
	case lookupDeleted:
		// Delete is a one-time transition, not idempotent at the boundary.
		s.recordAudit(ctx, auth.AuditEvent{
			Action:   "delete_rejected",
			TargetID: account.ID,
			Reason:   "target already deleted",
		})
		return nil, apperrors.ErrAccountNotFound
	}

	if err := s.repo.SoftDelete(ctx, account); err != nil {
		return nil, err
	}
	if err := s.sessions.Revoke(ctx, account.ID); err != nil {
		s.recordAudit(ctx, auth.AuditEvent{
			Action:   "session_revocation_failed",
			TargetID: account.ID,
			Reason:   err.Error(),
		})
	}

	event := auth.AuditEvent{Action: "account_deleted", TargetID: account.ID}
	if actor != nil {
		event.PrincipalID = actor.ID
	}
	s.recordAudit(ctx, event)

	return account, nil
}

func (s *accountService) recordAudit(ctx context.Context, event auth.AuditEvent) {
	if s.audit != nil {
		s.audit.Record(ctx, event)
	}
}
