package repository

import (
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	apperrors "userdir/internal/errors"
)

func TestRetriableLockError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retriable bool
	}{
		{
			name:      "deadlock victim",
			err:       &mysql.MySQLError{Number: mysqlErrDeadlock, Message: "Deadlock found when trying to get lock"},
			retriable: true,
		},
		{
			name:      "lock wait timeout",
			err:       &mysql.MySQLError{Number: mysqlErrLockTimeout, Message: "Lock wait timeout exceeded"},
			retriable: true,
		},
		{
			name:      "other mysql error",
			err:       &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"},
			retriable: false,
		},
		{
			name:      "non-driver error",
			err:       errors.New("connection refused"),
			retriable: false,
		},
		{
			name:      "nil",
			err:       nil,
			retriable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retriable, retriableLockError(tt.err))
		})
	}
}

func TestWithLockRetry(t *testing.T) {
	t.Run("deadlock victim retries and resolves to a conflict", func(t *testing.T) {
		// Two concurrent creates of the same absent email gap-lock each
		// other into a deadlock; the victim's rerun counts the winner's
		// committed row.
		calls := 0
		err := withLockRetry(func() error {
			calls++
			if calls == 1 {
				return &mysql.MySQLError{Number: mysqlErrDeadlock, Message: "Deadlock found when trying to get lock"}
			}
			return apperrors.ErrEmailAlreadyExists
		})

		assert.Equal(t, 2, calls)
		assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
	})

	t.Run("success runs once", func(t *testing.T) {
		calls := 0
		err := withLockRetry(func() error {
			calls++
			return nil
		})

		assert.Equal(t, 1, calls)
		assert.NoError(t, err)
	})

	t.Run("business error is not retried", func(t *testing.T) {
		calls := 0
		err := withLockRetry(func() error {
			calls++
			return apperrors.ErrEmailAlreadyExists
		})

		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
	})

	t.Run("second deadlock is surfaced", func(t *testing.T) {
		calls := 0
		err := withLockRetry(func() error {
			calls++
			return &mysql.MySQLError{Number: mysqlErrDeadlock, Message: "Deadlock found when trying to get lock"}
		})

		var mysqlErr *mysql.MySQLError
		assert.Equal(t, 2, calls)
		assert.ErrorAs(t, err, &mysqlErr)
	})
}
