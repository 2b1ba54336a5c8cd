package viewgrid

import (
	"context"
	"fmt"

	"github.com/dyluth/drey/internal/orchestrator"
	"github.com/dyluth/drey/pkg/renderer"
	"github.com/dyluth/drey/pkg/vizspec"
	"github.com/redis/go-redis/v9"
)

// Options configure a ViewGrid. Renderer is required. Build defaults to
// nothing: the host must supply the single-view builder it wants (the
// reference builder lives in internal/singleview and is used by the CLI).
type Options struct {
	// Renderer embeds composite specs and returns live handles.
	Renderer renderer.Renderer

	// Build is the consumed single-view builder.
	Build vizspec.SingleViewBuilder

	// EmbedOptions are passed through to every embed call.
	EmbedOptions renderer.EmbedOptions

	// OnClick receives the point-selection payload and the native click
	// event whenever a non-empty point selection coincides with a click.
	OnClick renderer.ClickHandler

	// RemoteRedis and RemoteInstanceName enable cross-process selection
	// linking when RemoteRedis is non-nil: every process bridging onto the
	// same instance name stays selection-linked.
	RemoteRedis        *redis.Options
	RemoteInstanceName string
}

// ViewGrid is the view handle façade over one orchestrated grid of views.
type ViewGrid struct {
	engine *orchestrator.Engine
}

// New creates a ViewGrid. Returns an error when the renderer or builder is
// missing.
func New(opts Options) (*ViewGrid, error) {
	engine, err := orchestrator.NewEngine(orchestrator.Options{
		Renderer:           opts.Renderer,
		Build:              opts.Build,
		EmbedOptions:       opts.EmbedOptions,
		OnClick:            opts.OnClick,
		RemoteRedis:        opts.RemoteRedis,
		RemoteInstanceName: opts.RemoteInstanceName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}
	return &ViewGrid{engine: engine}, nil
}

// Update re-reads the channel assignment, configuration and row set and
// starts a new embed cycle. It returns once the cycle is launched;
// completion is observed through Ready/AwaitReady.
func (g *ViewGrid) Update(ctx context.Context, assignment vizspec.ChannelAssignment, cfg vizspec.VizConfig, rows []vizspec.Row) error {
	return g.engine.Rebuild(ctx, assignment, cfg, rows)
}

// Ready reports whether every view of the current grid has completed its
// first embed.
func (g *ViewGrid) Ready() bool {
	return g.engine.Ready()
}

// AwaitReady blocks until the grid is ready or the context is cancelled.
// This is a level-triggered wait: it returns immediately when the grid is
// already ready.
func (g *ViewGrid) AwaitReady(ctx context.Context) error {
	return g.engine.AwaitReady(ctx)
}

// SetUnready forces the readiness flag down so the next AwaitReady waits for
// a fresh ready transition.
func (g *ViewGrid) SetUnready() {
	g.engine.SetUnready()
}

// ViewCount returns the number of cells in the current grid, zero before the
// first Update.
func (g *ViewGrid) ViewCount() int {
	return g.engine.ViewCount()
}

// Teardown cancels all signal listeners and bus subscriptions. The grid can
// be updated again afterwards.
func (g *ViewGrid) Teardown() {
	g.engine.Teardown()
}
