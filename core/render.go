package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/climdash/core/registry"
	"github.com/huangsam/climdash/core/shape"
	"github.com/huangsam/climdash/internal/iocache"
	"github.com/huangsam/climdash/schema"
)

// renderRaw validates every present section of raw and renders the valid ones.
// Validation failures are reported per kind; render failures are reported by
// the registry. The returned error joins both.
func (c *Controller) renderRaw(ctx context.Context, action string, toks registry.Tokens, raw *schema.RawBundle) error {
	res := shape.ValidateBundle(raw)
	for _, kind := range schema.AllChartKinds {
		if err, ok := res.Errors[kind]; ok {
			_ = c.fail(err)
		}
	}
	if len(raw.Present()) == 0 {
		return c.fail(&schema.ShapeError{Kind: "bundle", Err: schema.ErrEmptySeries, Detail: "response carries no chart data"})
	}

	c.phase(action, schema.RenderingPhase, nil)
	renderErr := c.registry.RenderBundle(ctx, toks, res.Bundle)
	return errors.Join(res.Err(), renderErr)
}

// renderSection validates one section of raw and commits it under tok.
func (c *Controller) renderSection(ctx context.Context, action string, tok registry.Token, raw *schema.RawBundle) error {
	value, err := shape.Validate(raw, tok.Kind)
	if err != nil {
		return c.fail(err)
	}
	c.phase(action, schema.RenderingPhase, nil)
	_, err = c.registry.Commit(ctx, tok, value)
	return err
}

// persistAsync stores the rendered state in the background. With remote set,
// the bundle is also saved as a backend session. Failures are reported and
// never touch what is displayed.
func (c *Controller) persistAsync(ctx context.Context, remote bool) {
	bundle, err := c.registry.ReadBackBundle()
	if bundle == nil {
		if err != nil && !errors.Is(err, schema.ErrNoChart) {
			c.reportKind(err.Error(), schema.PersistenceKind)
		}
		return
	}
	now := c.now()
	gen := c.persistGen.Add(1)
	ctx = context.WithoutCancel(ctx)

	c.persist.Add(1)
	go func() {
		defer c.persist.Done()
		c.persistMu.Lock()
		defer c.persistMu.Unlock()
		if gen < c.persistDone {
			return
		}
		c.persistDone = gen
		if remote && c.backend != nil {
			id, err := c.backend.SaveSession(ctx, bundle)
			if err != nil {
				c.reportKind(fmt.Sprintf("save session: %v", err), schema.PersistenceKind)
			} else {
				c.mu.Lock()
				c.sessionID = id
				c.mu.Unlock()
			}
		}
		if err := iocache.SaveWorkspace(c.workspace(), bundle, now); err != nil {
			c.reportKind(err.Error(), schema.PersistenceKind)
		}
	}()
}
