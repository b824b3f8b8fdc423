package ftp

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// commandHandlers maps verbs available in StateAuthenticated to their
// handler methods. USER, PASS, and QUIT are dispatched specially because
// they are legal before authentication.
var commandHandlers = map[string]func(*sessionConn, string){
	"PORT": (*sessionConn).handlePORT,
	"LIST": (*sessionConn).handleLIST,
	"RETR": (*sessionConn).handleRETR,
	"STOR": (*sessionConn).handleSTOR,
	"CWD":  (*sessionConn).handleCWD,
	"PWD":  (*sessionConn).handlePWD,
	"MKD":  (*sessionConn).handleMKD,
	"RMD":  (*sessionConn).handleRMD,
	"DELE": (*sessionConn).handleDELE,
	"RNFR": (*sessionConn).handleRNFR,
	"RNTO": (*sessionConn).handleRNTO,
	"NOOP": (*sessionConn).handleNOOP,
	"SYST": (*sessionConn).handleSYST,
}

// dispatch routes a parsed command to its handler, applying the state
// machine's gating rules.
func (sc *sessionConn) dispatch(verb, arg string) {
	// An RNFR source survives only into the immediately following command.
	sc.pendingRename = sc.sess.TakeRenameSource()
	if verb == "RNFR" {
		sc.pendingRename = ""
	}

	switch verb {
	case "USER":
		sc.handleUSER(arg)
		return
	case "PASS":
		sc.handlePASS(arg)
		return
	case "QUIT":
		sc.handleQUIT()
		return
	}

	if sc.sess.State() != StateAuthenticated {
		sc.reply(530, "Not logged in.")
		return
	}

	if handler, ok := commandHandlers[verb]; ok {
		handler(sc, arg)
		return
	}

	if IsRecognized(verb) {
		sc.reply(202, "Command not implemented.")
		return
	}

	sc.reply(500, "Syntax error, command unrecognized.")
}

func (sc *sessionConn) handleUSER(arg string) {
	if arg == "" {
		sc.reply(501, "Syntax error in parameters or arguments.")
		return
	}

	if _, ok := sc.cfg.Users.Lookup(arg); !ok {
		// The previously named user does not survive a failed USER.
		if sc.sess.State() == StateUserNamed {
			sc.sess.Reset()
		}
		sc.reply(530, "Not logged in.")
		return
	}

	sc.sess.SetNamed(arg)
	sc.sandbox = nil
	sc.reply(331, "Username OK, need password.")
}

func (sc *sessionConn) handlePASS(arg string) {
	if sc.sess.State() != StateUserNamed {
		sc.reply(503, "Bad sequence of commands.")
		return
	}

	username := sc.sess.Username()
	if !sc.cfg.Users.Verify(username, arg) {
		sc.logger.Warn("authentication failed", slog.String("user", username))
		sc.cfg.Collector.AuthAttempt(username, false)
		sc.sess.Reset()
		sc.reply(530, "Not logged in.")
		return
	}

	// The jail is <server-root>/<username>, created at first login.
	root := filepath.Join(sc.cfg.Root, username)
	if err := os.MkdirAll(root, 0o777); err != nil {
		sc.logger.Error("creating user directory failed",
			slog.String("user", username),
			slog.String("error", err.Error()))
		sc.sess.Reset()
		sc.reply(451, "Requested action aborted: local error in processing.")
		return
	}

	canonical, err := filepath.EvalSymlinks(root)
	if err != nil {
		sc.logger.Error("resolving user directory failed",
			slog.String("user", username),
			slog.String("error", err.Error()))
		sc.sess.Reset()
		sc.reply(451, "Requested action aborted: local error in processing.")
		return
	}

	sc.sess.SetAuthenticated(canonical)
	sc.sandbox = NewSandbox(canonical)
	sc.logger.Info("authentication successful", slog.String("user", username))
	sc.cfg.Collector.AuthAttempt(username, true)
	sc.reply(230, "User logged in, proceed.")
}

// handleQUIT replies 221 and flags the session; closing the socket is left
// to the dispatcher so the reply is flushed exactly once.
func (sc *sessionConn) handleQUIT() {
	sc.reply(221, "Service closing control connection.")
	sc.quitting = true
}

func (sc *sessionConn) handlePORT(arg string) {
	ep, err := ParseEndpoint(arg)
	if err != nil {
		sc.reply(501, "Syntax error in parameters or arguments.")
		return
	}

	sc.sess.SetDataEndpoint(ep)
	sc.reply(200, "PORT command successful.")
}

func (sc *sessionConn) handleCWD(arg string) {
	if arg == "" {
		sc.reply(501, "Syntax error in parameters or arguments.")
		return
	}

	path, err := sc.sandbox.Resolve(sc.sess.CurrentDir(), arg)
	if err != nil {
		sc.replyFSError(err)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		sc.replyFSError(err)
		return
	}
	if !info.IsDir() {
		sc.replyFSError(ErrNotDirectory)
		return
	}

	sc.sess.SetCurrentDir(path)
	sc.reply(200, "directory changed to "+sc.sess.VirtualPath(path))
}

func (sc *sessionConn) handlePWD(arg string) {
	sc.reply(257, sc.sess.VirtualPath(sc.sess.CurrentDir())+"/")
}

func (sc *sessionConn) handleMKD(arg string) {
	if arg == "" {
		sc.reply(501, "Syntax error in parameters or arguments.")
		return
	}

	path, err := sc.sandbox.Resolve(sc.sess.CurrentDir(), arg)
	if err != nil {
		sc.replyFSError(err)
		return
	}

	if err := os.Mkdir(path, 0o755); err != nil {
		sc.replyFSError(err)
		return
	}

	sc.reply(257, sc.sess.VirtualPath(path)+" created.")
}

func (sc *sessionConn) handleRMD(arg string) {
	if arg == "" {
		sc.reply(501, "Syntax error in parameters or arguments.")
		return
	}

	path, err := sc.sandbox.Resolve(sc.sess.CurrentDir(), arg)
	if err != nil {
		sc.replyFSError(err)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		sc.replyFSError(err)
		return
	}
	if !info.IsDir() {
		sc.replyFSError(ErrNotDirectory)
		return
	}

	if err := os.Remove(path); err != nil {
		sc.replyFSError(err)
		return
	}

	sc.reply(250, "Requested file action okay, completed.")
}

func (sc *sessionConn) handleDELE(arg string) {
	if arg == "" {
		sc.reply(501, "Syntax error in parameters or arguments.")
		return
	}

	path, err := sc.sandbox.Resolve(sc.sess.CurrentDir(), arg)
	if err != nil {
		sc.replyFSError(err)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		sc.replyFSError(err)
		return
	}
	if info.IsDir() {
		sc.replyFSError(ErrIsDirectory)
		return
	}

	if err := os.Remove(path); err != nil {
		sc.replyFSError(err)
		return
	}

	sc.reply(250, "Requested file action okay, completed.")
}

func (sc *sessionConn) handleRNFR(arg string) {
	if arg == "" {
		sc.reply(501, "Syntax error in parameters or arguments.")
		return
	}

	path, err := sc.sandbox.Resolve(sc.sess.CurrentDir(), arg)
	if err != nil {
		sc.replyFSError(err)
		return
	}

	if _, err := os.Stat(path); err != nil {
		sc.replyFSError(err)
		return
	}

	sc.sess.SetRenameSource(path)
	sc.reply(350, "Requested file action pending further information.")
}

func (sc *sessionConn) handleRNTO(arg string) {
	if sc.pendingRename == "" {
		sc.reply(503, "Bad sequence of commands.")
		return
	}

	if arg == "" {
		sc.reply(501, "Syntax error in parameters or arguments.")
		return
	}

	dest, err := sc.sandbox.Resolve(sc.sess.CurrentDir(), arg)
	if err != nil {
		sc.replyFSError(err)
		return
	}

	if err := os.Rename(sc.pendingRename, dest); err != nil {
		sc.replyFSError(err)
		return
	}

	sc.reply(250, "Requested file action okay, completed.")
}

func (sc *sessionConn) handleNOOP(arg string) {
	sc.reply(200, "OK.")
}

func (sc *sessionConn) handleSYST(arg string) {
	sc.reply(215, "UNIX Type: L8")
}

func (sc *sessionConn) handleLIST(arg string) {
	ep := sc.sess.TakeDataEndpoint()
	if ep == nil {
		sc.reply(425, "Can't open data connection.")
		return
	}

	sc.startTransfer(&transfer{
		kind: TransferList,
		dir:  sc.sess.CurrentDir(),
	}, *ep)
}

func (sc *sessionConn) handleRETR(arg string) {
	if arg == "" {
		sc.reply(501, "Syntax error in parameters or arguments.")
		return
	}

	ep := sc.sess.TakeDataEndpoint()
	if ep == nil {
		sc.reply(425, "Can't open data connection.")
		return
	}

	path, err := sc.sandbox.Resolve(sc.sess.CurrentDir(), arg)
	if err != nil {
		sc.replyFSError(err)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		sc.replyFSError(err)
		return
	}
	if info.IsDir() {
		sc.replyFSError(ErrIsDirectory)
		return
	}

	file, err := os.Open(path)
	if err != nil {
		sc.replyFSError(err)
		return
	}

	sc.startTransfer(&transfer{
		kind: TransferRetr,
		file: file,
	}, *ep)
}

func (sc *sessionConn) handleSTOR(arg string) {
	if arg == "" {
		sc.reply(501, "Syntax error in parameters or arguments.")
		return
	}

	ep := sc.sess.TakeDataEndpoint()
	if ep == nil {
		sc.reply(425, "Can't open data connection.")
		return
	}

	dest, err := sc.sandbox.Resolve(sc.sess.CurrentDir(), arg)
	if err != nil {
		sc.replyFSError(err)
		return
	}

	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		sc.replyFSError(ErrIsDirectory)
		return
	}

	temp := filepath.Join(filepath.Dir(dest),
		fmt.Sprintf("tmp_%d_%s", time.Now().Unix(), filepath.Base(dest)))

	sc.startTransfer(&transfer{
		kind:     TransferStor,
		destPath: dest,
		tempPath: temp,
	}, *ep)
}

// startTransfer emits the preliminary reply, establishes the active-mode
// data connection, and hands the snapshot to a worker. The endpoint has
// already been consumed by the caller.
func (sc *sessionConn) startTransfer(t *transfer, ep Endpoint) {
	sc.reply(150, "File status okay; about to open data connection.")

	conn, err := DialActive(ep, sc.cfg.SourcePort)
	if err != nil {
		sc.logger.Warn("data connection failed",
			slog.String("endpoint", ep.Addr()),
			slog.String("error", err.Error()))
		sc.cfg.Collector.DataConnectionFailed()
		if t.file != nil {
			t.file.Close()
		}
		sc.reply(451, "Requested action aborted: local error in processing.")
		return
	}

	t.data = conn
	sc.transfer = startWorker(t, sc.completeTransfer)
}

// completeTransfer writes the final reply for a worker. It runs on the
// worker goroutine; a failed write here means the peer is gone and the
// reply is discarded.
func (sc *sessionConn) completeTransfer(kind TransferKind, bytes int64, err error) {
	if err != nil {
		sc.logger.Warn("transfer failed",
			slog.String("kind", kind.String()),
			slog.Int64("bytes", bytes),
			slog.String("error", err.Error()))
		sc.cfg.Collector.TransferCompleted(kind.String(), bytes, false)

		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			_ = sc.conn.WriteLine(Reply{Code: 550, Text: "Requested action not taken."}.String())
		} else {
			_ = sc.conn.WriteLine(Reply{Code: 451, Text: "Requested action aborted: local error in processing."}.String())
		}
		return
	}

	sc.logger.Info("transfer complete",
		slog.String("kind", kind.String()),
		slog.Int64("bytes", bytes))
	sc.cfg.Collector.TransferCompleted(kind.String(), bytes, true)
	_ = sc.conn.WriteLine(Reply{Code: 226, Text: "Transfer complete."}.String())
}

// replyFSError maps filesystem and sandbox errors to their reply codes.
// Sandbox violations surface as 550 like any other unavailable path.
func (sc *sessionConn) replyFSError(err error) {
	switch {
	case errors.Is(err, ErrPathEscape):
		sc.reply(550, "Path not allowed.")
	case errors.Is(err, fs.ErrNotExist):
		sc.reply(550, "No such file or directory.")
	case errors.Is(err, fs.ErrPermission):
		sc.reply(550, "Permission denied.")
	case errors.Is(err, ErrNotDirectory):
		sc.reply(550, "Not a directory.")
	case errors.Is(err, ErrIsDirectory):
		sc.reply(550, "Not a plain file.")
	default:
		sc.reply(550, "Requested action not taken.")
	}
}
