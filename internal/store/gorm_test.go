package store

import (
	"database/sql/driver"
	"errors"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateRecordNotFound(t *testing.T) {
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
}

func TestTranslateConnectionFailuresAreTransient(t *testing.T) {
	connRefused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

	for _, err := range []error{driver.ErrBadConn, connRefused} {
		got := translate(err)
		assert.ErrorIs(t, got, ErrUnavailable, "%v", err)
		assert.True(t, IsTransient(got), "%v", err)
	}
}

func TestTranslatePassesThroughOtherErrors(t *testing.T) {
	boom := errors.New("constraint violation")
	got := translate(boom)
	assert.ErrorIs(t, got, boom)
	assert.False(t, IsTransient(got))
}
