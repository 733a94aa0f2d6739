// Command clipcastd is the long-running scheduler process. It owns the
// per-account posting workers, the planner cron, the inbox watcher, and the
// IPC control socket.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"clipcast/internal/config"
	"clipcast/internal/daemon"
	"clipcast/internal/ipc"
	"clipcast/internal/lock"
	"clipcast/internal/logging"
	"clipcast/internal/planner"
	"clipcast/internal/registry"
	"clipcast/internal/store"
	"clipcast/internal/uploader"
	"clipcast/internal/verifier"
	"clipcast/internal/watcher"
)

func main() {
	configFlag := flag.String("config", "", "configuration file path")
	socketFlag := flag.String("socket", "", "control socket path override")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, cfgPath, _, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return
	}

	locks := lock.NewManager(cfg.LockDir(), time.Duration(cfg.Locks.ValiditySeconds)*time.Second, logger)

	var vf *verifier.Verifier
	if cfg.Publisher.ListingURL != "" {
		source := verifier.NewListingSource(cfg.Publisher.ListingURL, time.Duration(cfg.Publisher.RequestTimeout)*time.Second)
		vf = verifier.New(cfg, source, logger)
	}

	d, err := daemon.New(cfg, cfgPath, daemon.Deps{
		Store:    st,
		Locks:    locks,
		Uploader: uploader.NewHTTP(cfg, logger),
		Verifier: vf,
		Registry: registry.NewStoreRegistry(st),
		Planner:  planner.New(cfg, st, logger),
		Watcher:  watcher.New(cfg, st, logger),
	}, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	socketPath := cfg.SocketPath()
	if *socketFlag != "" {
		socketPath = *socketFlag
	}
	ipcServer, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		logger.Error("start ipc server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Warn("daemon start", logging.Error(err))
	}

	<-ctx.Done()
	logger.Info("clipcastd shutting down")
}
