package ftp

import (
	"context"
	"errors"
	"io"
	"net"
	"net/textproto"
	"syscall"

	"github.com/jlaffaye/ftp"

	"github.com/ftpstore/ftpstore/pkg/storage"
)

// ErrActiveModeUnsupported is returned by NewProvider when the settings
// ask for active-mode transfers, which the transport cannot do.
var ErrActiveModeUnsupported = errors.New("active transfer mode is not supported, transfers are always passive")

// isRetryable reports whether err looks transient: a 4xx FTP reply, a
// dropped or timed-out connection, or a short read. 5xx replies, missing
// paths, local filesystem failures and canceled contexts are final.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, storage.ErrNotExist) {
		return false
	}
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		// RFC 959 4yz replies are transient negative completions,
		// including 421 service-not-available.
		return protoErr.Code >= 400 && protoErr.Code < 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNABORTED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	return false
}

// translateNotExist maps the replies servers send for a missing path onto
// storage.ErrNotExist. Only the permanent 55x replies qualify; 450 means
// the file is busy right now and stays retryable.
func translateNotExist(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch protoErr.Code {
		case ftp.StatusFileUnavailable, ftp.StatusBadFileName:
			return storage.ErrNotExist
		}
	}
	return err
}

// discardable reports whether err means the control connection itself is
// in doubt and must be re-dialed before the next command. Regular FTP
// replies other than 421 leave the connection usable.
func discardable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, storage.ErrNotExist) {
		return false
	}
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return protoErr.Code == ftp.StatusNotAvailable
	}
	return true
}
