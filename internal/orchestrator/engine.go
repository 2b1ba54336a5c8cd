// Package orchestrator owns the embed lifecycle: it compiles the grid into
// composite specs, embeds one renderer instance per cell, tracks aggregate
// readiness, and wires every live view into the interaction bus.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dyluth/drey/internal/bus"
	"github.com/dyluth/drey/internal/compiler"
	"github.com/dyluth/drey/internal/gridplan"
	"github.com/dyluth/drey/pkg/renderer"
	"github.com/dyluth/drey/pkg/vizspec"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Options configure an Engine. Renderer and Build are required; everything
// else is optional.
type Options struct {
	Renderer     renderer.Renderer
	Build        vizspec.SingleViewBuilder
	EmbedOptions renderer.EmbedOptions

	// OnClick is the click-passthrough callback (may be nil).
	OnClick renderer.ClickHandler

	// RemoteRedis enables cross-process selection linking when non-nil.
	// The bus of every embed cycle is bridged onto the selection channel of
	// RemoteInstanceName.
	RemoteRedis        *redis.Options
	RemoteInstanceName string
}

// Engine is the render orchestrator. It is safe for concurrent use; all
// cycle state is guarded by a single mutex and the readiness flag is
// single-writer.
type Engine struct {
	renderer  renderer.Renderer
	build     vizspec.SingleViewBuilder
	embedOpts renderer.EmbedOptions
	onClick   renderer.ClickHandler

	remoteOpts     *redis.Options
	remoteInstance string

	readiness *Readiness

	mu          sync.Mutex
	cycleID     string
	cycleCancel context.CancelFunc
	plan        gridplan.Plan
	bus         *bus.Bus
	handles     []renderer.Handle // aligned with grid cell order, nil gaps for failed embeds
	instances   []*ViewInstance
}

// NewEngine creates an engine. Returns an error when the renderer or the
// single-view builder is missing.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Renderer == nil {
		return nil, fmt.Errorf("renderer cannot be nil")
	}
	if opts.Build == nil {
		return nil, fmt.Errorf("single-view builder cannot be nil")
	}
	if opts.RemoteRedis != nil && opts.RemoteInstanceName == "" {
		return nil, fmt.Errorf("remote instance name cannot be empty when remote linking is enabled")
	}

	return &Engine{
		renderer:       opts.Renderer,
		build:          opts.Build,
		embedOpts:      opts.EmbedOptions,
		onClick:        opts.OnClick,
		remoteOpts:     opts.RemoteRedis,
		remoteInstance: opts.RemoteInstanceName,
		readiness:      NewReadiness(),
	}, nil
}

// Rebuild starts a new embed cycle: it recomputes the grid plan, compiles
// one composite spec per cell, tears the prior cycle's instances and bus
// down, and issues every embed in parallel. It returns once the cycle is
// launched; completion is observed through Ready/AwaitReady.
//
// A Rebuild arriving before the prior cycle reached readiness supersedes it:
// late completions of the old cycle are discarded. The in-flight embed calls
// themselves are not cancelled; they are allowed to finish and their results
// dropped.
func (e *Engine) Rebuild(ctx context.Context, assignment vizspec.ChannelAssignment, cfg vizspec.VizConfig, rows []vizspec.Row) error {
	plan := gridplan.Compute(assignment.Rows, assignment.Columns, cfg.DefaultAggregated)
	specs, err := compiler.Compile(plan, compiler.Input{
		Assignment: assignment,
		Config:     cfg,
		Rows:       rows,
		Build:      e.build,
	})
	if err != nil {
		return fmt.Errorf("failed to compile composite specs: %w", err)
	}

	interval := bus.ThrottleInterval(plan.Row.Count, plan.Col.Count, len(rows), cfg.ThrottleDivisor)

	e.mu.Lock()
	e.readiness.SetUnready()
	e.teardownLocked()

	cycle := uuid.New().String()
	cycleCtx, cancel := context.WithCancel(context.Background())
	e.cycleID = cycle
	e.cycleCancel = cancel
	e.plan = plan
	b := bus.New(interval)
	e.bus = b
	e.handles = make([]renderer.Handle, len(specs))
	e.instances = make([]*ViewInstance, 0, len(specs))
	e.mu.Unlock()

	if e.remoteOpts != nil {
		bridge, err := bus.NewBridge(e.remoteOpts, e.remoteInstance, b)
		if err != nil {
			log.Printf("[Orchestrator] Remote linking disabled: %v", err)
		} else {
			go func() {
				defer bridge.Close()
				if err := bridge.Run(cycleCtx); err != nil {
					log.Printf("[Orchestrator] Remote bridge stopped: %v", err)
				}
			}()
		}
	}

	e.logEvent("embed_cycle_started", map[string]interface{}{
		"cycle_id":    cycle,
		"view_count":  len(specs),
		"row_count":   plan.Row.Count,
		"col_count":   plan.Col.Count,
		"throttle_ms": interval.Milliseconds(),
	})

	// The config bag owns ShowActions and is re-read on every cycle; the
	// remaining embed options are fixed at engine construction.
	embedOpts := e.embedOpts
	embedOpts.ShowActions = cfg.ShowActions

	// Fire every per-cell embed without waiting for one another; the
	// aggregate-ready transition is a fan-in over all pending completions.
	var wg sync.WaitGroup
	var failedMu sync.Mutex
	failed := 0

	for i, spec := range specs {
		wg.Add(1)
		go func(idx int, spec *vizspec.CompositeSpec) {
			defer wg.Done()

			handle, err := e.renderer.Embed(ctx, AnchorID(cycle, idx), spec, embedOpts)
			if err != nil {
				// The cell contributes no handle and no listeners; sibling
				// cells are unaffected.
				log.Printf("[Orchestrator] Embed failed for view %d: %v", idx, err)
				failedMu.Lock()
				failed++
				failedMu.Unlock()
				return
			}

			e.mu.Lock()
			if e.cycleID != cycle {
				// Superseded while embedding; the result is discarded.
				e.mu.Unlock()
				return
			}
			e.handles[idx] = handle
			vi := newViewInstance(idx, handle, b, e.onClick)
			e.instances = append(e.instances, vi)
			e.mu.Unlock()

			if err := vi.attach(); err != nil {
				// The cell still counts as ready and keeps its export
				// capability; it just does not participate in cross-filter.
				log.Printf("[Orchestrator] Signal wiring failed for view %d: %v", idx, err)
			}
		}(i, spec)
	}

	go func() {
		wg.Wait()

		failedMu.Lock()
		nFailed := failed
		failedMu.Unlock()

		// The ready transition must be atomic with the stale-cycle check:
		// a superseding rebuild between the two would flip readiness for a
		// grid that no longer exists.
		e.mu.Lock()
		current := e.cycleID == cycle
		if current && nFailed == 0 {
			e.readiness.SetReady()
		}
		e.mu.Unlock()

		if !current {
			return
		}

		if nFailed > 0 {
			// Every issued embed has settled, but the grid is incomplete:
			// readiness is withheld for this cycle and the caller's own
			// timeout applies.
			e.logEvent("embed_cycle_incomplete", map[string]interface{}{
				"cycle_id":     cycle,
				"failed_cells": nFailed,
			})
			return
		}

		e.logEvent("embed_cycle_ready", map[string]interface{}{
			"cycle_id":   cycle,
			"view_count": len(specs),
		})
	}()

	return nil
}

// Ready reports whether the current cycle has reached aggregate readiness.
func (e *Engine) Ready() bool {
	return e.readiness.Ready()
}

// AwaitReady blocks until the current cycle is ready or the context is
// cancelled. Returns immediately when already ready.
func (e *Engine) AwaitReady(ctx context.Context) error {
	return e.readiness.Await(ctx)
}

// SetUnready forces the readiness flag down, re-arming AwaitReady for the
// next ready transition.
func (e *Engine) SetUnready() {
	e.readiness.SetUnready()
}

// Handles returns the current cycle's renderer handles, aligned with grid
// cell order. Cells whose embed failed or has not completed yet hold nil.
func (e *Engine) Handles() []renderer.Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]renderer.Handle, len(e.handles))
	copy(out, e.handles)
	return out
}

// ViewCount returns the current grid's cell count, zero before the first
// rebuild.
func (e *Engine) ViewCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handles)
}

// Bus returns the current cycle's interaction bus, nil before the first
// rebuild.
func (e *Engine) Bus() *bus.Bus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bus
}

// Teardown cancels the current cycle's subscriptions and bus. The engine can
// be rebuilt afterwards.
func (e *Engine) Teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.readiness.SetUnready()
	e.teardownLocked()
}

// teardownLocked tears the prior cycle down. Subscriptions are cancelled
// before anything new is created, otherwise stale instances leak cross-talk
// between geometries. Caller holds e.mu.
func (e *Engine) teardownLocked() {
	if e.cycleCancel != nil {
		e.cycleCancel()
		e.cycleCancel = nil
	}
	for _, vi := range e.instances {
		vi.teardown()
	}
	e.instances = nil
	if e.bus != nil {
		e.bus.Close()
		e.bus = nil
	}
	e.handles = nil
	e.cycleID = ""
}

// AnchorID returns the anchor identifier for one cell of an embed cycle.
func AnchorID(cycleID string, viewIndex int) string {
	short := cycleID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("drey-view-%s-%d", short, viewIndex)
}

// logEvent logs a structured event in JSON format.
func (e *Engine) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "orchestrator"
	data["event_type"] = eventType

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Orchestrator] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
