package abi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRejectsNonSoSuffix(t *testing.T) {
	_, err := Load("/plugins/example.txt")
	require.ErrorIs(t, err, ErrLoadFailed)
	assert.Contains(t, err.Error(), "not a .so file")
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/example.so")
	assert.ErrorIs(t, err, ErrLoadFailed)
}

func TestSafeInitRecoversFromPanic(t *testing.T) {
	tbl := &Table{
		BaseName:     BaseName,
		MajorVersion: SupportedMajorVersion,
		Init: func() (map[string]string, error) {
			panic("boom")
		},
		HandleMessage: func(string) string { return "" },
	}
	_, err := SafeInit(tbl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestSafeInitPropagatesOrdinaryError(t *testing.T) {
	wantErr := errors.New("init failed")
	tbl := &Table{
		Init: func() (map[string]string, error) { return nil, wantErr },
	}
	_, err := SafeInit(tbl)
	assert.ErrorIs(t, err, wantErr)
}

func TestSafeHandleMessageRecoversFromPanic(t *testing.T) {
	tbl := &Table{
		HandleMessage: func(string) string {
			panic("handler exploded")
		},
	}
	_, err := SafeHandleMessage(tbl, "fn:ping")
	assert.Error(t, err)
}

func TestSafeHandleMessageReturnsOutput(t *testing.T) {
	tbl := &Table{
		HandleMessage: func(msg string) string { return "echo:" + msg },
	}
	out, err := SafeHandleMessage(tbl, "fn:ping")
	require.NoError(t, err)
	assert.Equal(t, "echo:fn:ping", out)
}
