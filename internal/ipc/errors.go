package ipc

import "codeberg.org/mutker/displayctl/internal/errors"

const (
	ErrSocketInit  = errors.ErrorCode("ipc_socket_init_failed")
	ErrSocketClose = errors.ErrorCode("ipc_socket_close_failed")
	ErrConnect     = errors.ErrorCode("ipc_connect_failed")
	ErrBadResponse = errors.ErrorCode("ipc_bad_response")
	ErrRemote      = errors.ErrorCode("ipc_remote_error")
)
