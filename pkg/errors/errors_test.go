package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCodeWalksChain(t *testing.T) {
	inner := WithCode(CodeAlreadyClaimed, "request already claimed")
	outer := fmt.Errorf("accept: %w", inner)

	assert.True(t, HasCode(outer, CodeAlreadyClaimed))
	assert.False(t, HasCode(outer, CodeNotFound))
	assert.Equal(t, CodeAlreadyClaimed, GetCode(outer))
}

func TestStorageWrapsCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := Storage(cause, "save alert failed")

	assert.Equal(t, CodeStorageUnavailable, err.Code)
	assert.Equal(t, "StorageUnavailable", err.Kind())
	assert.Equal(t, cause, Cause(err))
	assert.Nil(t, Storage(nil, "noop"))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, 400, HTTPStatus(CodeValidation))
	assert.Equal(t, 403, HTTPStatus(CodeUnauthorized))
	assert.Equal(t, 404, HTTPStatus(CodeNotFound))
	assert.Equal(t, 409, HTTPStatus(CodeDuplicateResponse))
	assert.Equal(t, 503, HTTPStatus(CodeStorageUnavailable))
	assert.Equal(t, 500, HTTPStatus(0))
	assert.Equal(t, 500, HTTPStatus(42))
}

func TestNotFoundCarriesID(t *testing.T) {
	err := NotFound("alert", "a-1")
	assert.Equal(t, "alert not found", err.Error())
	assert.Equal(t, []KeyValue{{Key: "id", Value: "a-1"}}, err.Context)
}
