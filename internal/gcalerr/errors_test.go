package gcalerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFound(t *testing.T) {
	err := &NotFoundError{Resource: "event ev1"}
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", err)))
	assert.False(t, IsNotFound(errors.New("boom")))
	assert.False(t, IsNotFound(nil))
}

func TestIsAuth(t *testing.T) {
	err := &AuthError{Op: "refresh", Err: errors.New("invalid_grant")}
	assert.True(t, IsAuth(err))
	assert.True(t, IsAuth(fmt.Errorf("get service: %w", err)))
	assert.False(t, IsAuth(&NotFoundError{Resource: "token file"}))
}

func TestUnwrapChains(t *testing.T) {
	inner := errors.New("disk full")
	pe := &PersistenceError{Path: "/tmp/token.json", Err: inner}
	assert.True(t, errors.Is(pe, inner))

	re := &RemoteServiceError{Op: "insert", StatusCode: 500, Err: inner}
	assert.True(t, errors.Is(re, inner))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "token file not found",
		(&NotFoundError{Resource: "token file"}).Error())
	assert.Equal(t, "invalid summary: must not be empty",
		(&ValidationError{Field: "summary", Reason: "must not be empty"}).Error())
	assert.Contains(t,
		(&RemoteServiceError{Op: "get", StatusCode: 503, Err: errors.New("unavailable")}).Error(),
		"HTTP 503")
}
