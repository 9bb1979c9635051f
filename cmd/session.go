package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/climdash/core"
	"github.com/huangsam/climdash/core/registry"
	"github.com/huangsam/climdash/internal/apiclient"
	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/internal/iocache"
	"github.com/huangsam/climdash/internal/outwriter"
	"github.com/huangsam/climdash/internal/surface"
	"github.com/huangsam/climdash/schema"
)

// dashboard is everything one command needs to drive the controller.
type dashboard struct {
	ctrl   *core.Controller
	client *apiclient.Client
	board  *outwriter.Board
	errs   *surface.ErrorSurface
	stores *iocache.StoreManagerImpl
}

// openDashboard wires stores, backend client, panels and controller from cfg.
// With quiet set no spinner is drawn, which keeps stdout free for protocols.
func openDashboard(quiet bool) (*dashboard, error) {
	stores, err := iocache.InitStores(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize persistence: %w", err)
	}

	errs := surface.NewErrorSurface(os.Stderr, cfg.NoticeDuration,
		surface.WithColor(cfg.UseColors),
		surface.WithEmoji(cfg.UseEmojis),
	)

	var indicator contract.LoadingIndicator
	if !quiet {
		indicator = surface.NewSpinner(os.Stderr, cfg.UseEmojis)
	}
	client := apiclient.NewFromConfig(cfg, indicator)

	board := outwriter.NewBoard(cfg)
	for _, kind := range schema.AllChartKinds {
		board.Mount(registry.TargetName(kind))
	}
	reg := registry.New(board,
		registry.WithRetry(cfg.RetryAttempts, cfg.RetryDelay),
		registry.WithReporter(errs),
	)

	ctrl := core.NewController(client, reg,
		core.WithReporter(errs),
		core.WithStores(stores),
		core.WithSaver(outwriter.NewDirSaver("", cfg.UseEmojis)),
	)
	return &dashboard{ctrl: ctrl, client: client, board: board, errs: errs, stores: stores}, nil
}

// Close waits for background persistence and releases the stores.
func (d *dashboard) Close() {
	d.ctrl.Wait()
	d.stores.Close()
	d.errs.Close()
}

// ensureRendered restores the saved workspace, falling back to the default
// dataset when there is none or it cannot be shown.
func (d *dashboard) ensureRendered(ctx context.Context) error {
	savedAt, err := d.ctrl.Restore(ctx)
	if err == nil {
		contract.LogInfo(cfg.UseEmojis, "♻️", fmt.Sprintf("Restored workspace saved at %s", savedAt.Format(contract.DateTimeFormat)))
		return nil
	}
	if !errors.Is(err, iocache.ErrNoSnapshot) {
		contract.LogWarn("Could not restore workspace", err)
	}
	return d.ctrl.Bootstrap(ctx)
}

// withDashboard opens a dashboard, optionally renders it, runs fn and closes it.
func withDashboard(render bool, fn func(ctx context.Context, d *dashboard) error) error {
	d, err := openDashboard(false)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := rootCtx
	if render {
		if err := d.ensureRendered(ctx); err != nil && !d.anyRendered() {
			return d.result(err)
		}
	}
	return d.result(fn(ctx, d))
}

// ErrReported marks a failure the error surface has already shown.
var ErrReported = errors.New("failure already reported")

// result hides err behind ErrReported when the error surface showed it.
func (d *dashboard) result(err error) error {
	if err != nil && len(d.errs.Diagnostics()) > 0 {
		return fmt.Errorf("%w: %w", ErrReported, err)
	}
	return err
}

// anyRendered reports whether at least one chart is displayed.
func (d *dashboard) anyRendered() bool {
	for _, st := range d.ctrl.Registry().Status() {
		if st.Rendered {
			return true
		}
	}
	return false
}
