package ftp

import "errors"

// Protocol and filesystem errors for the FTP engine.
var (
	// ErrPathEscape is returned when a resolved path falls outside the
	// session's root directory.
	ErrPathEscape = errors.New("path escapes user root")

	// ErrNotDirectory is returned when CWD targets a non-directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrIsDirectory is returned when DELE targets a directory.
	ErrIsDirectory = errors.New("is a directory")

	// ErrNoDataEndpoint describes a transfer attempted without a preceding
	// PORT command. The transfer handlers answer that case with 425 directly
	// and do not return this error.
	ErrNoDataEndpoint = errors.New("no data endpoint declared")
)
