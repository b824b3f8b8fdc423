package ftp

import "fmt"

// Reply is a single-line control-channel reply: a three-digit code and a
// text, terminated by CRLF. Multi-line replies are not produced.
type Reply struct {
	Code int
	Text string
}

// String formats the reply as a protocol line including the CRLF terminator.
func (r Reply) String() string {
	return fmt.Sprintf("%03d %s\r\n", r.Code, r.Text)
}
