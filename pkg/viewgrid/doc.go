// Package viewgrid is drey's public control surface: it turns a channel
// assignment, a configuration bag and a row set into a grid of live linked
// views, and exposes the aggregate lifecycle (readiness) and per-view export
// operations to the surrounding application.
//
// # Usage example
//
//	grid, err := viewgrid.New(viewgrid.Options{
//		Renderer: myRenderer,               // anything implementing renderer.Renderer
//		Build:    singleview.Build,         // or a custom single-view builder
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer grid.Teardown()
//
//	if err := grid.Update(ctx, assignment, cfg, rows); err != nil {
//		log.Fatal(err)
//	}
//	if err := grid.AwaitReady(ctx); err != nil {
//		log.Fatal(err)
//	}
//	svgs, _ := grid.SVGData() // one entry per grid cell
//
// Update is re-run on every change of the assignment, the configuration or
// the data; drey re-reads all three, recomputes the grid plan and re-embeds
// every view, discarding results of any superseded cycle.
package viewgrid
