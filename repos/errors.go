package repos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"syscall"

	"github.com/automate/teams-server/models"
	pkgerrors "github.com/pkg/errors"
	"github.com/uptrace/bun/driver/pgdriver"
)

const uniqueViolation = "23505"

// classify maps driver errors onto the models storage sentinels and adds
// the failed action as context.
func classify(err error, action string) error {
	if err == nil {
		return nil
	}

	var sentinel error
	var pgErr pgdriver.Error
	var netErr net.Error

	switch {
	case errors.Is(err, sql.ErrNoRows):
		sentinel = models.ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation:
		sentinel = models.ErrDuplicate
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.As(err, &netErr):
		sentinel = models.ErrUnavailable
	default:
		return pkgerrors.Wrap(err, action)
	}

	return pkgerrors.Wrap(&classified{sentinel: sentinel, cause: err}, action)
}

type classified struct {
	sentinel error
	cause    error
}

func (e *classified) Error() string {
	return e.sentinel.Error() + ": " + e.cause.Error()
}

func (e *classified) Unwrap() []error {
	return []error{e.sentinel, e.cause}
}
