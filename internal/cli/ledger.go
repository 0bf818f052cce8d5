package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/keyledger/internal/engine"
	"github.com/roach88/keyledger/internal/store"
)

// openStore opens the ledger database named by flag or configuration.
func openStore(opts *RootOptions, flag string) (*store.Store, error) {
	path := opts.dbPath(flag)
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no database: pass --db or set KEYLEDGER_DB")
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	slog.Debug("ledger opened", "path", st.Path())
	return st, nil
}

// startEngine opens the store, loads the projection and runs the engine
// until the returned stop function is called.
func startEngine(ctx context.Context, opts *RootOptions, flag string) (*engine.Engine, func(), error) {
	st, err := openStore(opts, flag)
	if err != nil {
		return nil, nil, err
	}

	var engOpts []engine.EngineOption
	if opts.Config != nil {
		engOpts = append(engOpts, engine.WithHistorySize(opts.Config.HistorySize))
	}
	if opts.Metrics != nil {
		engOpts = append(engOpts, engine.WithMetrics(opts.Metrics))
	}
	eng := engine.New(st, engOpts...)
	if err := eng.Load(ctx); err != nil {
		st.Close()
		return nil, nil, WrapExitError(ExitCommandError, "failed to load ledger", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- eng.Run(runCtx) }()

	stop := func() {
		cancel()
		<-done
		st.Close()
	}
	return eng, stop, nil
}

// readPassphrase reads the first line of r. Only the line terminator is
// removed; the seed pipeline normalizes the rest.
func readPassphrase(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
