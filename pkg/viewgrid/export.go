package viewgrid

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Raster exports at double resolution; vector exports are scale-free.
const rasterExportScale = 2.0

// SVGData exports every live view as serialized vector markup, ordered by
// grid cell. Exports are gated on aggregate readiness: until every view of
// the current cycle has completed its embed, the list is empty, never
// partial, and that is not an error. A view whose export fails after
// readiness is logged and skipped.
func (g *ViewGrid) SVGData() ([]string, error) {
	if !g.engine.Ready() {
		return nil, nil
	}

	var out []string
	for i, h := range g.engine.Handles() {
		if h == nil {
			continue
		}
		svg, err := h.ToSVG()
		if err != nil {
			log.Printf("[ViewGrid] SVG export failed for view %d: %v", i, err)
			continue
		}
		out = append(out, svg)
	}
	return out, nil
}

// PNGData exports every live view as raster image data, ordered by grid
// cell, at 2x scale when hiRes is set. Same readiness gating and degradation
// rules as SVGData.
func (g *ViewGrid) PNGData(hiRes bool) ([][]byte, error) {
	if !g.engine.Ready() {
		return nil, nil
	}

	scale := 1.0
	if hiRes {
		scale = rasterExportScale
	}

	var out [][]byte
	for i, h := range g.engine.Handles() {
		if h == nil {
			continue
		}
		png, err := h.ToCanvas(scale)
		if err != nil {
			log.Printf("[ViewGrid] PNG export failed for view %d: %v", i, err)
			continue
		}
		out = append(out, png)
	}
	return out, nil
}

// DownloadSVG exports every view and saves each to dir as baseName.svg,
// suffixing filenames with the view index when more than one view exists.
// Returns the written file paths in grid cell order.
func (g *ViewGrid) DownloadSVG(dir, baseName string) ([]string, error) {
	svgs, err := g.SVGData()
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(svgs))
	for i, svg := range svgs {
		path := filepath.Join(dir, exportFilename(baseName, "svg", i, len(svgs)))
		if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// DownloadPNG exports every view at 2x scale and saves each to dir as
// baseName.png, suffixing filenames with the view index when more than one
// view exists. Returns the written file paths in grid cell order.
func (g *ViewGrid) DownloadPNG(dir, baseName string) ([]string, error) {
	pngs, err := g.PNGData(true)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(pngs))
	for i, png := range pngs {
		path := filepath.Join(dir, exportFilename(baseName, "png", i, len(pngs)))
		if err := os.WriteFile(path, png, 0644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// exportFilename builds the per-view filename, index-suffixed only when the
// export covers more than one view.
func exportFilename(baseName, ext string, index, total int) string {
	if total > 1 {
		return fmt.Sprintf("%s-%d.%s", baseName, index, ext)
	}
	return fmt.Sprintf("%s.%s", baseName, ext)
}
