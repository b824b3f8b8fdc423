package ftp

import (
	"fmt"
	"strings"
)

// maxCommandLength is the maximum accepted length of a control line.
const maxCommandLength = 4096

// ParseCommand splits a control line into verb and argument. The verb is
// the first whitespace-delimited token, compared upper-case; the argument
// is the left-trimmed remainder and keeps embedded spaces (filenames).
// CR and LF must already be stripped by the caller.
func ParseCommand(line string) (verb, arg string, err error) {
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return "", "", fmt.Errorf("empty command line")
	}

	if i := strings.IndexAny(trimmed, " \t"); i >= 0 {
		verb = trimmed[:i]
		arg = strings.TrimLeft(trimmed[i+1:], " \t")
	} else {
		verb = trimmed
	}

	return strings.ToUpper(verb), arg, nil
}

// recognizedVerbs are FTP commands (RFC 959 and later extensions) the server
// knows about but does not implement. They are answered with 202 rather than 500.
var recognizedVerbs = map[string]struct{}{
	"ABOR": {},
	"ACCT": {},
	"ALLO": {},
	"APPE": {},
	"CDUP": {},
	"FEAT": {},
	"HELP": {},
	"MDTM": {},
	"MODE": {},
	"NLST": {},
	"OPTS": {},
	"PASV": {},
	"REST": {},
	"SITE": {},
	"SIZE": {},
	"SMNT": {},
	"STAT": {},
	"STOU": {},
	"STRU": {},
	"TYPE": {},
}

// IsRecognized reports whether verb is a known-but-unimplemented command.
func IsRecognized(verb string) bool {
	_, ok := recognizedVerbs[verb]
	return ok
}
