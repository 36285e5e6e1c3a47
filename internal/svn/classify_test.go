package svn

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thomas-vilte/svnreview/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		msg      string
		expected *errors.AppError
	}{
		{"svn: E170001: Authentication failed", errors.ErrSVNAuthentication},
		{"Authorization failed for /repo", errors.ErrSVNAuthentication},
		{"authentication error over network", errors.ErrSVNAuthentication},
		{"Connection refused", errors.ErrSVNConnection},
		{"NETWORK unreachable", errors.ErrSVNConnection},
		{"connection lost: path not found", errors.ErrSVNConnection},
		{"svn: E160013: path not found", errors.ErrSVNNotFound},
		{"No such revision 999", errors.ErrSVNNotFound},
		{"something odd happened", errors.ErrSVNConnection},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := classify(stderrors.New(tt.msg))

			assert.ErrorIs(t, err, tt.expected)
		})
	}

	t.Run("unmatched text becomes the message", func(t *testing.T) {
		err := classify(stderrors.New("something odd happened"))

		assert.Equal(t, "something odd happened", errors.Message(err))
	})

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, classify(nil))
	})
}
