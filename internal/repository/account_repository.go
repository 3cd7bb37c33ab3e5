package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "userdir/internal/errors"
	"userdir/internal/model"
)

// ListParams bound and filter an account listing.
type ListParams struct {
	Page    int
	PerPage int
	Search  string
	Role    model.Role
}

// AccountRepository defines account persistence operations. Lookups exclude
// soft-deleted rows unless the method name says otherwise.
type AccountRepository interface {
	CreateUnique(ctx context.Context, account *model.Account) error
	FindByID(ctx context.Context, id uint) (*model.Account, error)
	FindByIDIncludingDeleted(ctx context.Context, id uint) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByEmailIncludingDeleted(ctx context.Context, email string) (*model.Account, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	EmailTakenByOther(ctx context.Context, email string, exceptID uint) (bool, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	SoftDelete(ctx context.Context, account *model.Account) error
	List(ctx context.Context, params ListParams) ([]model.Account, int64, error)
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository builds a GORM-backed repository.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// MySQL error numbers for a deadlock victim and a lock-wait timeout. Two
// concurrent creates of an absent email both acquire compatible gap locks on
// the locked count, then deadlock on insert; InnoDB rolls one back with 1213.
const (
	mysqlErrLockTimeout = 1205
	mysqlErrDeadlock    = 1213
)

func retriableLockError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return false
	}
	return mysqlErr.Number == mysqlErrDeadlock || mysqlErr.Number == mysqlErrLockTimeout
}

// withLockRetry reruns the transaction once after a deadlock or lock-wait
// rollback. The retry's locked count then sees the winner's committed row,
// so the loser of a create race resolves to ErrEmailAlreadyExists instead of
// surfacing the driver error.
func withLockRetry(op func() error) error {
	err := op()
	if retriableLockError(err) {
		err = op()
	}
	return err
}

// CreateUnique inserts the account after a locking uniqueness check against
// non-deleted rows. The locked read and the insert share one transaction so
// two concurrent creates with the same email cannot both succeed.
func (r *accountRepository) CreateUnique(ctx context.Context, account *model.Account) error {
	return withLockRetry(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			err := tx.Model(&model.Account{}).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("email = ?", account.Email).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				return apperrors.ErrEmailAlreadyExists
			}
			return tx.Create(account).Error
		})
	})
}

func (r *accountRepository) FindByID(ctx context.Context, id uint) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByIDIncludingDeleted looks the account up without soft-delete scoping,
// letting callers distinguish "never existed" from "already deleted".
func (r *accountRepository) FindByIDIncludingDeleted(ctx context.Context, id uint) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).Unscoped().First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByEmailIncludingDeleted prefers the live row when both a live and a
// soft-deleted account carry the email.
func (r *accountRepository) FindByEmailIncludingDeleted(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Unscoped().
		Where("email = ?", email).
		Order("CASE WHEN deleted_at IS NULL THEN 0 ELSE 1 END").
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// EmailTaken reports whether a non-deleted account holds the email.
func (r *accountRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

// EmailTakenByOther is the update-scoped check: non-deleted rows only, and
// the record's own id is excluded so re-submitting the current email passes.
func (r *accountRepository) EmailTakenByOther(ctx context.Context, email string, exceptID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("email = ? AND id <> ?", email, exceptID).
		Count(&count).Error
	return count > 0, err
}

// UpdateFields rewrites only the given columns. When the email changes, the
// uniqueness re-check (excluding the row itself) and the write share one
// transaction with a locking read.
func (r *accountRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return withLockRetry(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if email, ok := fields["email"]; ok {
				var count int64
				err := tx.Model(&model.Account{}).
					Clauses(clause.Locking{Strength: "UPDATE"}).
					Where("email = ? AND id <> ?", email, id).
					Count(&count).Error
				if err != nil {
					return err
				}
				if count > 0 {
					return apperrors.ErrEmailAlreadyExists
				}
			}
			return tx.Model(&model.Account{}).Where("id = ?", id).Updates(fields).Error
		})
	})
}

// SoftDelete marks the account deleted; GORM fills account.DeletedAt.
func (r *accountRepository) SoftDelete(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Delete(account).Error
}

// List returns one page of non-deleted accounts, newest first. Search is a
// case-insensitive substring over the full name and email; the role filter
// is an exact match.
func (r *accountRepository) List(ctx context.Context, params ListParams) ([]model.Account, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Account{})

	if params.Search != "" {
		like := "%" + strings.ToLower(params.Search) + "%"
		q = q.Where(
			"LOWER(CONCAT(first_name, ' ', last_name)) LIKE ? OR LOWER(email) LIKE ?",
			like, like,
		)
	}
	if params.Role != "" {
		q = q.Where("role = ?", params.Role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var accounts []model.Account
	err := q.Order("created_at DESC").
		Offset((params.Page - 1) * params.PerPage).
		Limit(params.PerPage).
		Find(&accounts).Error
	if err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}
