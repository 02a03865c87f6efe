package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryFromCode(t *testing.T) {
	tests := []struct {
		code string
		want Category
	}{
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeIndexCorrupt, CategoryIndex},
		{ErrCodeUpstreamTimeout, CategoryUpstream},
		{ErrCodeInvalidQuery, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
		{"bogus", CategoryInternal},
	}
	for _, tt := range tests {
		err := New(tt.code, "msg", nil)
		assert.Equal(t, tt.want, err.Category, "code %s", tt.code)
	}
}

func TestNew_RetryableFlags(t *testing.T) {
	assert.True(t, New(ErrCodeUpstreamTimeout, "", nil).Retryable)
	assert.True(t, New(ErrCodeUpstreamUnavailable, "", nil).Retryable)
	assert.False(t, New(ErrCodeIndexWrite, "", nil).Retryable)
	assert.False(t, New(ErrCodeDocDecode, "", nil).Retryable)
}

func TestDocDecode_IsFatal(t *testing.T) {
	err := New(ErrCodeDocDecode, "stored type literal unknown", nil)
	assert.True(t, IsFatal(err))
	assert.Equal(t, SeverityFatal, err.Severity)
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeUpstreamUnavailable, cause)

	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "connection refused", err.Message)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(ErrCodeIndexEmpty, "no searchable segments", nil)
	b := New(ErrCodeIndexEmpty, "different message", nil)
	c := New(ErrCodeIndexCorrupt, "meta missing", nil)

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}

func TestIs_MatchesThroughWrapping(t *testing.T) {
	inner := New(ErrCodeInvalidQuery, "bad query", nil)
	outer := fmt.Errorf("search: %w", inner)

	assert.True(t, stderrors.Is(outer, New(ErrCodeInvalidQuery, "", nil)))
}

func TestError_FormatsCodeAndMessage(t *testing.T) {
	err := New(ErrCodeIndexEmpty, "no searchable segments", nil)
	assert.Equal(t, "[ERR_202_INDEX_EMPTY] no searchable segments", err.Error())
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, GetCode(InternalError("boom", nil)))
	assert.Equal(t, "", GetCode(stderrors.New("plain")))
}
