package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipcast/internal/config"
	"clipcast/internal/daemon"
	"clipcast/internal/ipc"
	"clipcast/internal/lock"
	"clipcast/internal/logging"
	"clipcast/internal/planner"
	"clipcast/internal/registry"
	"clipcast/internal/store"
	"clipcast/internal/testsupport"
)

type nopUploader struct{}

func (nopUploader) PostItem(context.Context, *store.Item) error { return nil }

type cliTestEnv struct {
	cfg        *config.Config
	store      *store.Store
	socketPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	locks := lock.NewManager(cfg.LockDir(), time.Duration(cfg.Locks.ValiditySeconds)*time.Second, logging.NewNop())

	d, err := daemon.New(cfg, "", daemon.Deps{
		Store:    st,
		Locks:    locks,
		Uploader: nopUploader{},
		Registry: registry.NewStoreRegistry(st),
		Planner:  planner.New(cfg, st, logging.NewNop()),
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	srv, err := ipc.NewServer(context.Background(), cfg.SocketPath(), d, logging.NewNop())
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
		d.Stop()
	})

	return &cliTestEnv{cfg: cfg, store: st, socketPath: cfg.SocketPath()}
}

func runCommand(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--socket", env.socketPath))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("command %v failed: %v\noutput: %s", args, err, out.String())
	}
	return out.String()
}

func TestQueueAddAndListCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	path := filepath.Join(t.TempDir(), "cli demo.mp4")
	testsupport.WriteFile(t, path, 64)

	out := runCommand(t, env, "queue", "add", "alpha", path)
	if !strings.Contains(out, "Queued cli_demo") {
		t.Fatalf("unexpected add output: %s", out)
	}

	out = runCommand(t, env, "queue", "list", "alpha")
	if !strings.Contains(out, "cli_demo") || !strings.Contains(out, "pending") {
		t.Fatalf("unexpected list output: %s", out)
	}
}

func TestStatusCommandReportsDaemonState(t *testing.T) {
	env := setupCLITestEnv(t)

	out := runCommand(t, env, "status")
	if !strings.Contains(out, "Daemon") {
		t.Fatalf("unexpected status output: %s", out)
	}
	if !strings.Contains(out, "not running") {
		t.Fatalf("expected a not-running daemon, got: %s", out)
	}
}

func TestQueueListEmptyQueue(t *testing.T) {
	env := setupCLITestEnv(t)

	out := runCommand(t, env, "queue", "list", "alpha")
	if !strings.Contains(out, "Queue is empty") {
		t.Fatalf("unexpected output: %s", out)
	}
}
