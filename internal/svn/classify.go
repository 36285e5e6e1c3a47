package svn

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/thomas-vilte/svnreview/internal/errors"
)

// classify maps an executor failure onto the adapter error taxonomy by inspecting its
// text. Order matters: authentication wins over connection, connection over not found.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "authentication"), strings.Contains(msg, "authorization"):
		return errors.ErrSVNAuthentication.WithError(err)
	case strings.Contains(msg, "connection"), strings.Contains(msg, "network"):
		return errors.ErrSVNConnection.WithError(err)
	case strings.Contains(msg, "not found"), strings.Contains(msg, "no such"):
		return errors.ErrSVNNotFound.WithError(err)
	default:
		return errors.ErrSVNConnection.WithMessage(err.Error())
	}
}

func timeoutError(d time.Duration) *errors.AppError {
	return errors.ErrSVNTimeout.WithMessage(fmt.Sprintf("SVN operation timed out after %dms", d.Milliseconds()))
}

// contextError converts a cancelled caller context into an adapter error.
func contextError(err error, d time.Duration) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return timeoutError(d).WithError(err)
	}
	return err
}
