package daemon

import (
	"context"

	"clipcast/internal/logging"
	"clipcast/internal/worker"
)

// Reconcile aligns the running workers with the registry's active accounts:
// workers without a desired account are stopped, desired accounts without a
// worker are started. The whole pass runs under one mutex so overlapping
// polls can never race worker lifecycles.
func (d *Daemon) Reconcile(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}

	desired := map[string]bool{}
	accounts, err := d.registry.ListActiveAccounts(ctx)
	if err != nil {
		// A broken registry must not leave workers posting for accounts
		// that may have been deactivated.
		d.logger.Warn("registry unavailable, treating as zero active accounts",
			logging.Error(err))
	} else {
		for _, account := range accounts {
			desired[account] = true
		}
	}

	for account, w := range d.workers {
		if desired[account] {
			continue
		}
		d.logger.Info("stopping worker for deactivated account",
			logging.String(logging.FieldAccount, account))
		w.Stop()
		w.Join(joinTimeout)
		delete(d.workers, account)
	}

	for account := range desired {
		if _, ok := d.workers[account]; ok {
			continue
		}
		w := worker.New(d.cfg, account, d.store, d.locks, d.uploader, d.verifier, d.logger)
		if err := w.Start(ctx); err != nil {
			// Skipped this pass; the next poll retries.
			d.logger.Error("worker start failed",
				logging.String(logging.FieldAccount, account), logging.Error(err))
			continue
		}
		d.logger.Info("started worker",
			logging.String(logging.FieldAccount, account))
		d.workers[account] = w
	}
}

// WorkerAccounts returns the accounts that currently have a running worker.
func (d *Daemon) WorkerAccounts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	accounts := make([]string, 0, len(d.workers))
	for account := range d.workers {
		accounts = append(accounts, account)
	}
	return accounts
}
