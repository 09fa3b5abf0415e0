package ftp

import (
	"context"
	"io"
	"net"
	"net/textproto"
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/ftpstore/ftpstore/pkg/storage"
)

type fakeNetError struct{}

func (fakeNetError) Error() string   { return "fake network error" }
func (fakeNetError) Timeout() bool   { return true }
func (fakeNetError) Temporary() bool { return true }

var _ net.Error = fakeNetError{}

func protoError(code int) error {
	return &textproto.Error{Code: code, Msg: "server says no"}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: false},
		{name: "not exist", err: storage.ErrNotExist, want: false},
		{name: "421 service not available", err: protoError(421), want: true},
		{name: "450 file busy", err: protoError(450), want: true},
		{name: "426 transfer aborted", err: protoError(426), want: true},
		{name: "550 file unavailable", err: protoError(550), want: false},
		{name: "530 not logged in", err: protoError(530), want: false},
		{name: "200 series", err: protoError(226), want: false},
		{name: "wrapped 450", err: errors.Wrap(protoError(450), "list /x"), want: true},
		{name: "wrapped 550", err: errors.Wrap(protoError(550), "list /x"), want: false},
		{name: "net error", err: fakeNetError{}, want: true},
		{name: "wrapped net error", err: errors.Wrap(fakeNetError{}, "connect"), want: true},
		{name: "eof", err: io.EOF, want: true},
		{name: "unexpected eof", err: io.ErrUnexpectedEOF, want: true},
		{name: "connection reset", err: syscall.ECONNRESET, want: true},
		{name: "broken pipe", err: syscall.EPIPE, want: true},
		{name: "plain error", err: errors.New("something else"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryable(tt.err))
		})
	}
}

func TestTranslateNotExist(t *testing.T) {
	assert.ErrorIs(t, translateNotExist(protoError(550)), storage.ErrNotExist)
	assert.ErrorIs(t, translateNotExist(protoError(553)), storage.ErrNotExist)
	assert.ErrorIs(t, translateNotExist(errors.Wrap(protoError(550), "list /x")), storage.ErrNotExist)

	// Anything else passes through untouched. In particular a 450 busy
	// reply must stay retryable instead of becoming a permanent miss.
	busy := protoError(450)
	assert.Equal(t, busy, translateNotExist(busy))
	assert.True(t, isRetryable(translateNotExist(busy)))
	plain := errors.New("boom")
	assert.Equal(t, plain, translateNotExist(plain))
	assert.NoError(t, translateNotExist(nil))
}

func TestDiscardable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "not exist", err: storage.ErrNotExist, want: false},
		{name: "550 reply keeps the connection", err: protoError(550), want: false},
		{name: "450 reply keeps the connection", err: protoError(450), want: false},
		{name: "421 drops the connection", err: protoError(421), want: true},
		{name: "net error drops the connection", err: fakeNetError{}, want: true},
		{name: "eof drops the connection", err: io.EOF, want: true},
		{name: "plain error drops the connection", err: errors.New("boom"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, discardable(tt.err))
		})
	}
}
