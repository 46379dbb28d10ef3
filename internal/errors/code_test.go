package errors

import (
	"testing"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeForbidden, "admin role required")
	assert.Equal(t, int32(ErrCodeForbidden), err.Code)
	assert.Equal(t, "FORBIDDEN", err.Reason)

	se := kerrors.FromError(Newf(ErrCodeOrderNotFound, "order %s not found", "o-1"))
	assert.Equal(t, "order o-1 not found", se.Message)
}

func TestHTTPStatus(t *testing.T) {
	cases := map[int]int{
		404:                         404,
		ErrCodeUnauthorized:         401,
		ErrCodeForbidden:            403,
		ErrCodeOrderNotFound:        404,
		ErrCodeInvalidArgument:      400,
		ErrCodeGatewayUnavailable:   502,
		ErrCodePayoutGenerateFailed: 500,
		999999:                      500,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(code), "code %d", code)
	}
}
