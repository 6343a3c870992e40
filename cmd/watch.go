package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/linkbox/internal/dashboard"
)

// Watch prints change events for the signed-in account until interrupted or signed out.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := r.session(ctx)
	if err != nil {
		return err
	}

	feed, err := dashboard.NewSynchronizer(r.store, r.logger).Open(ctx, s)
	if err != nil {
		return err
	}
	defer feed.Close()

	watch := dashboard.NewGate(r.auth, r.logger).Watch()
	defer watch.Close()

	asJSON := cmd.Bool("json")
	if !asJSON {
		r.writePlain("Watching bookmarks of %s (ctrl+c to stop)\n", s.Identity())
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-watch.C():
			if !ok {
				return nil
			}
			if !c.SignedIn() || c.Session.Owner() != s.Owner() {
				r.logger.Info("session changed, stopping watch")
				return nil
			}
		case e, ok := <-feed.C():
			if !ok {
				return nil
			}
			if asJSON {
				if err := r.writeJSON(e, false); err != nil {
					return err
				}
				continue
			}
			r.writePlain("%s  %-6s %s\n", e.At.Local().Format(time.TimeOnly), e.Kind, e.ID)
		}
	}
}
