package errors

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIncludesCallSite(t *testing.T) {
	err := New("boom %d", 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "errors_test.go")
	assert.Contains(t, err.Error(), "boom 42")
}

func TestWrapfNilReturnsNil(t *testing.T) {
	assert.NoError(t, Wrapf(nil, "context"))
}

func TestWrapfPreservesWrappedError(t *testing.T) {
	err := Wrapf(io.EOF, "reading response")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, io.EOF))
	assert.Contains(t, err.Error(), "reading response")
}
