package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dyluth/drey/internal/singleview"
	"github.com/dyluth/drey/internal/testutil"
	"github.com/dyluth/drey/pkg/renderer"
	"github.com/dyluth/drey/pkg/vizspec"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func dim(id string) vizspec.FieldDescriptor {
	return vizspec.FieldDescriptor{FieldID: id, AnalyticType: vizspec.AnalyticTypeDimension}
}

func measure(id string) vizspec.FieldDescriptor {
	return vizspec.FieldDescriptor{FieldID: id, AnalyticType: vizspec.AnalyticTypeMeasure, Aggregation: vizspec.AggregationSum}
}

var testRows = []vizspec.Row{
	{"region": "north", "sales": 10, "profit": 2, "units": 5},
	{"region": "south", "sales": 20, "profit": 4, "units": 7},
}

func newTestEngine(t *testing.T, fake *testutil.FakeRenderer, opts ...func(*Options)) *Engine {
	t.Helper()
	o := Options{Renderer: fake, Build: singleview.Build}
	for _, fn := range opts {
		fn(&o)
	}
	e, err := NewEngine(o)
	require.NoError(t, err)
	t.Cleanup(e.Teardown)
	return e
}

func awaitReady(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.AwaitReady(ctx))
}

// twoViewAssignment compiles to a 1x2 grid: two measures on columns.
func twoViewAssignment() vizspec.ChannelAssignment {
	return vizspec.ChannelAssignment{
		Rows:    []vizspec.FieldDescriptor{dim("region")},
		Columns: []vizspec.FieldDescriptor{measure("sales"), measure("profit")},
	}
}

func TestNewEngine(t *testing.T) {
	t.Run("requires a renderer", func(t *testing.T) {
		_, err := NewEngine(Options{Build: singleview.Build})
		require.Error(t, err)
	})

	t.Run("requires a builder", func(t *testing.T) {
		_, err := NewEngine(Options{Renderer: testutil.NewFakeRenderer()})
		require.Error(t, err)
	})

	t.Run("remote linking requires an instance name", func(t *testing.T) {
		_, err := NewEngine(Options{
			Renderer:    testutil.NewFakeRenderer(),
			Build:       singleview.Build,
			RemoteRedis: &redis.Options{},
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "instance name")
	})
}

func TestRebuildReadiness(t *testing.T) {
	t.Run("single view becomes ready", func(t *testing.T) {
		fake := testutil.NewFakeRenderer()
		e := newTestEngine(t, fake)

		a := vizspec.ChannelAssignment{Columns: []vizspec.FieldDescriptor{measure("sales")}}
		require.NoError(t, e.Rebuild(context.Background(), a, vizspec.DefaultVizConfig(), testRows))

		awaitReady(t, e)
		require.True(t, e.Ready())
		require.Equal(t, 1, e.ViewCount())
		require.Len(t, fake.EmbedCalls(), 1)
		require.True(t, strings.HasPrefix(fake.EmbedCalls()[0].Anchor, "drey-view-"))
	})

	t.Run("readiness waits for the slowest cell", func(t *testing.T) {
		fake := testutil.NewFakeRenderer()
		release := fake.GateView(1)
		e := newTestEngine(t, fake)

		require.NoError(t, e.Rebuild(context.Background(), twoViewAssignment(), vizspec.DefaultVizConfig(), testRows))

		// The ungated cell settles, the gated one holds the aggregate down.
		require.Eventually(t, func() bool {
			return e.Handles()[0] != nil
		}, 2*time.Second, 5*time.Millisecond)
		require.False(t, e.Ready())
		require.Nil(t, e.Handles()[1])

		release()
		awaitReady(t, e)
		for _, h := range e.Handles() {
			require.NotNil(t, h)
		}
	})

	t.Run("a failed embed withholds readiness", func(t *testing.T) {
		fake := testutil.NewFakeRenderer()
		fake.FailView(1)
		e := newTestEngine(t, fake)

		require.NoError(t, e.Rebuild(context.Background(), twoViewAssignment(), vizspec.DefaultVizConfig(), testRows))

		require.Eventually(t, func() bool {
			return len(fake.EmbedCalls()) == 2 && e.Handles()[0] != nil
		}, 2*time.Second, 5*time.Millisecond)

		time.Sleep(50 * time.Millisecond)
		require.False(t, e.Ready())
		require.Nil(t, e.Handles()[1], "the failed cell holds no handle")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		require.Error(t, e.AwaitReady(ctx))
	})

	t.Run("rebuild drops readiness immediately", func(t *testing.T) {
		fake := testutil.NewFakeRenderer()
		e := newTestEngine(t, fake)

		require.NoError(t, e.Rebuild(context.Background(), twoViewAssignment(), vizspec.DefaultVizConfig(), testRows))
		awaitReady(t, e)

		release := fake.GateView(0)
		defer release()
		require.NoError(t, e.Rebuild(context.Background(), twoViewAssignment(), vizspec.DefaultVizConfig(), testRows))
		require.False(t, e.Ready())
	})

	t.Run("a superseding rebuild discards the old cycle", func(t *testing.T) {
		fake := testutil.NewFakeRenderer()
		release := fake.GateView(0)
		e := newTestEngine(t, fake)

		a := vizspec.ChannelAssignment{Columns: []vizspec.FieldDescriptor{measure("sales")}}
		require.NoError(t, e.Rebuild(context.Background(), a, vizspec.DefaultVizConfig(), testRows))
		require.NoError(t, e.Rebuild(context.Background(), a, vizspec.DefaultVizConfig(), testRows))

		release()
		awaitReady(t, e)

		// Both cycles issued their embed; only the second cycle's result
		// survives.
		require.Len(t, fake.EmbedCalls(), 2)
		require.Equal(t, 1, e.ViewCount())
		require.NotNil(t, e.Handles()[0])
	})

	t.Run("rejects an invalid config", func(t *testing.T) {
		fake := testutil.NewFakeRenderer()
		e := newTestEngine(t, fake)

		cfg := vizspec.DefaultVizConfig()
		cfg.GeomType = "hexbin"
		err := e.Rebuild(context.Background(), twoViewAssignment(), cfg, testRows)
		require.Error(t, err)
	})
}

func TestCrossFilterPropagation(t *testing.T) {
	selection := renderer.SelectionState{{"region": "north"}}

	setup := func(t *testing.T) (*testutil.FakeRenderer, *Engine) {
		t.Helper()
		fake := testutil.NewFakeRenderer()
		e := newTestEngine(t, fake)
		require.NoError(t, e.Rebuild(context.Background(), twoViewAssignment(), vizspec.DefaultVizConfig(), testRows))
		awaitReady(t, e)
		return fake, e
	}

	t.Run("a selection in one view lands in its sibling exactly once", func(t *testing.T) {
		fake, _ := setup(t)

		fake.Handle(0).FireSignal(renderer.SignalPoint, selection)

		require.Eventually(t, func() bool {
			return len(fake.Handle(1).StateWrites()) == 1
		}, 2*time.Second, 5*time.Millisecond)

		write := fake.Handle(1).StateWrites()[0]
		require.Equal(t, renderer.SignalPoint, write.Kind)
		require.Equal(t, selection, write.State)

		// The echo of the sibling's state write is swallowed: no write ever
		// lands back in the source and the sibling is written exactly once.
		time.Sleep(100 * time.Millisecond)
		require.Empty(t, fake.Handle(0).StateWrites())
		require.Len(t, fake.Handle(1).StateWrites(), 1)
	})

	t.Run("the bus tracks the driving view", func(t *testing.T) {
		fake, e := setup(t)

		fake.Handle(1).FireSignal(renderer.SignalBrush, selection)
		require.Equal(t, 1, e.Bus().ActiveSource())

		fake.Handle(1).FireSignal(renderer.SignalBrush, renderer.SelectionState{})
		require.Equal(t, -1, e.Bus().ActiveSource())
	})

	t.Run("empty selections are broadcast but never written into siblings", func(t *testing.T) {
		fake, _ := setup(t)

		fake.Handle(0).FireSignal(renderer.SignalPoint, selection)
		require.Eventually(t, func() bool {
			return len(fake.Handle(1).StateWrites()) == 1
		}, 2*time.Second, 5*time.Millisecond)

		fake.Handle(0).FireSignal(renderer.SignalPoint, renderer.SelectionState{})
		time.Sleep(100 * time.Millisecond)
		require.Len(t, fake.Handle(1).StateWrites(), 1, "the clear must not write into the sibling")
	})

	t.Run("hover rides the unthrottled side channel", func(t *testing.T) {
		fake, e := setup(t)

		fake.Handle(1).FireEvent("mouseover", nil)
		require.Equal(t, 1, e.Bus().Hover())
		fake.Handle(0).FireEvent("mouseover", nil)
		require.Equal(t, 0, e.Bus().Hover())
	})

	t.Run("teardown detaches views from the bus", func(t *testing.T) {
		fake, e := setup(t)

		e.Teardown()
		fake.Handle(0).FireSignal(renderer.SignalPoint, selection)

		time.Sleep(100 * time.Millisecond)
		require.Empty(t, fake.Handle(1).StateWrites())
		require.False(t, e.Ready())
	})
}

func TestClickPassthrough(t *testing.T) {
	selection := renderer.SelectionState{{"region": "south"}}

	t.Run("click with an active point selection reaches the host", func(t *testing.T) {
		fake := testutil.NewFakeRenderer()

		var gotSelection renderer.SelectionState
		var gotEvent map[string]any
		var mu sync.Mutex
		e := newTestEngine(t, fake, func(o *Options) {
			o.OnClick = func(sel renderer.SelectionState, event map[string]any) {
				mu.Lock()
				defer mu.Unlock()
				gotSelection = sel
				gotEvent = event
			}
		})

		a := vizspec.ChannelAssignment{Columns: []vizspec.FieldDescriptor{measure("sales")}}
		require.NoError(t, e.Rebuild(context.Background(), a, vizspec.DefaultVizConfig(), testRows))
		awaitReady(t, e)

		fake.Handle(0).FireSignal(renderer.SignalPoint, selection)
		fake.Handle(0).FireEvent("click", map[string]any{"x": 10})

		mu.Lock()
		defer mu.Unlock()
		require.Equal(t, selection, gotSelection)
		require.Equal(t, map[string]any{"x": 10}, gotEvent)
	})

	t.Run("click without a selection is dropped", func(t *testing.T) {
		fake := testutil.NewFakeRenderer()

		called := false
		e := newTestEngine(t, fake, func(o *Options) {
			o.OnClick = func(renderer.SelectionState, map[string]any) { called = true }
		})

		a := vizspec.ChannelAssignment{Columns: []vizspec.FieldDescriptor{measure("sales")}}
		require.NoError(t, e.Rebuild(context.Background(), a, vizspec.DefaultVizConfig(), testRows))
		awaitReady(t, e)

		fake.Handle(0).FireEvent("click", nil)
		require.False(t, called)
	})
}

func TestShowActionsFollowsTheConfig(t *testing.T) {
	fake := testutil.NewFakeRenderer()
	e := newTestEngine(t, fake)
	a := vizspec.ChannelAssignment{Columns: []vizspec.FieldDescriptor{measure("sales")}}

	cfg := vizspec.DefaultVizConfig()
	cfg.ShowActions = true
	require.NoError(t, e.Rebuild(context.Background(), a, cfg, testRows))
	awaitReady(t, e)
	require.True(t, fake.EmbedCalls()[0].Opts.ShowActions)

	// The flag is re-read on every cycle, not latched from the first one.
	cfg.ShowActions = false
	require.NoError(t, e.Rebuild(context.Background(), a, cfg, testRows))
	awaitReady(t, e)
	require.False(t, fake.EmbedCalls()[1].Opts.ShowActions)
}

func TestSignalWiringFailure(t *testing.T) {
	fake := testutil.NewFakeRenderer()
	fake.Handle(1).SignalErr = fmt.Errorf("view exposes no selection signals")
	e := newTestEngine(t, fake)

	require.NoError(t, e.Rebuild(context.Background(), twoViewAssignment(), vizspec.DefaultVizConfig(), testRows))

	// The cell still counts toward readiness and keeps its handle, so it
	// stays exportable.
	awaitReady(t, e)
	require.NotNil(t, e.Handles()[1])
	svg, err := e.Handles()[1].ToSVG()
	require.NoError(t, err)
	require.NotEmpty(t, svg)

	// It just does not participate in cross-filter: selections in siblings
	// never land in it.
	fake.Handle(0).FireSignal(renderer.SignalPoint, renderer.SelectionState{{"region": "north"}})
	time.Sleep(100 * time.Millisecond)
	require.Empty(t, fake.Handle(1).StateWrites())
}

func TestAnchorID(t *testing.T) {
	require.Equal(t, "drey-view-0123abcd-3", AnchorID("0123abcd-ffff-ffff", 3))
	require.Equal(t, "drey-view-short-0", AnchorID("short", 0))
}
