// Package ftp implements the RFC 959 subset protocol engine: the session
// state machine, command dispatch, the path sandbox, and active-mode
// transfers.
package ftp

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/infodancer/ftpd/internal/logging"
	"github.com/infodancer/ftpd/internal/metrics"
	"github.com/infodancer/ftpd/internal/server"
	"github.com/infodancer/ftpd/internal/userdb"
)

// Config holds the protocol engine's dependencies.
type Config struct {
	// Root is the canonical server root; per-user jails live directly
	// under it.
	Root string

	// Users is the credential store consulted by USER/PASS.
	Users *userdb.Store

	// SourcePort is the local port active-mode data connections are
	// dialed from; 0 selects an ephemeral port.
	SourcePort int

	// Collector records server metrics.
	Collector metrics.Collector
}

// Handler creates the FTP protocol handler for the given configuration.
func Handler(cfg Config) server.ConnectionHandler {
	if cfg.Collector == nil {
		cfg.Collector = &metrics.NoopCollector{}
	}

	return func(ctx context.Context, conn *server.Connection) {
		handleConnection(ctx, conn, cfg)
	}
}

// sessionConn binds one control connection to its session state and the
// engine dependencies. It is confined to the connection's command loop;
// only completeTransfer runs on a worker goroutine, and it touches nothing
// but the connection's serialized writer.
type sessionConn struct {
	cfg    Config
	conn   *server.Connection
	logger *slog.Logger

	sess    *Session
	sandbox *Sandbox

	// transfer is the in-flight worker, joined before the next command is
	// dispatched so replies stay ordered per session.
	transfer *transferHandle

	// pendingRename is the RNFR source taken at dispatch time.
	pendingRename string

	quitting bool
	fatal    bool
}

// handleConnection manages a single control connection.
func handleConnection(ctx context.Context, conn *server.Connection, cfg Config) {
	logger := logging.FromContext(ctx)

	cfg.Collector.SessionOpened()
	defer cfg.Collector.SessionClosed()

	sc := &sessionConn{
		cfg:    cfg,
		conn:   conn,
		logger: logger,
		sess:   NewSession(),
	}

	// A worker may still be streaming when the loop exits; let it finish
	// best-effort and discard its reply against the closed peer.
	defer sc.joinTransfer()

	logger.Info("session started")
	defer func() {
		logger.Info("session ended", slog.String("user", sc.sess.Username()))
	}()

	sc.reply(220, "Service ready for new user.")
	if sc.fatal {
		return
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("context cancelled, closing session")
			return
		default:
		}

		if err := conn.SetCommandTimeout(); err != nil {
			logger.Error("failed to set command timeout", slog.String("error", err.Error()))
			return
		}

		line, err := conn.Reader().ReadString('\n')
		if err != nil {
			if err == io.EOF {
				logger.Debug("client closed connection")
			} else {
				logger.Debug("read error", slog.String("error", err.Error()))
			}
			return
		}

		if err := conn.ResetIdleTimeout(); err != nil {
			logger.Error("failed to reset idle timeout", slog.String("error", err.Error()))
			return
		}

		// The previous transfer's final reply must precede any reply for
		// this command.
		sc.joinTransfer()

		line = strings.TrimRight(line, "\r\n")

		if len(line) > maxCommandLength {
			sc.reply(500, "Syntax error, command unrecognized.")
			if sc.fatal {
				return
			}
			continue
		}

		verb, arg, err := ParseCommand(line)
		if err != nil {
			sc.reply(500, "Syntax error, command unrecognized.")
			if sc.fatal {
				return
			}
			continue
		}

		logArg := arg
		if verb == "PASS" {
			logArg = "***"
		}
		logger.Debug("command received",
			slog.String("verb", verb),
			slog.String("arg", logArg))

		cfg.Collector.CommandProcessed(verb)

		sc.dispatch(verb, arg)

		if sc.fatal {
			// A control write failed; the session is unrecoverable.
			return
		}
		if sc.quitting {
			return
		}
	}
}

// joinTransfer waits for the in-flight worker, if any. The worker writes
// its own final reply before the handle is marked done.
func (sc *sessionConn) joinTransfer() {
	if sc.transfer == nil {
		return
	}
	sc.transfer.wait()
	sc.transfer = nil
}

// reply writes a single reply on the control channel. Write failures are
// fatal to the session.
func (sc *sessionConn) reply(code int, text string) {
	if err := sc.conn.WriteLine(Reply{Code: code, Text: text}.String()); err != nil {
		sc.logger.Warn("control write failed", slog.String("error", err.Error()))
		sc.fatal = true
	}
}
