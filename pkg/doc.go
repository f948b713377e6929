// Package pkg provides the libraries behind superviolin, a tool for drawing
// Violin SuperPlots.
//
// # Overview
//
// A SuperPlot shows one violin per experimental condition. Each violin is
// divided into horizontal stripes, one per biological replicate, whose widths
// are proportional to that replicate's share of the condition's density. A
// marker per replicate sits at the replicate's centre, and a summary skeleton
// (centre line and error bar) is drawn across the violin.
//
// The pkg directory is organized into four areas:
//
//  1. [dataset] - Loading tidy and untidy tables (CSV, Excel) and grouping
//     observations by condition and replicate
//  2. [violin] - Plot geometry (density, stacking, outlines, skeletons) and
//     output sinks
//  3. [stats] - Normality checks, two-group and multi-group tests, posthoc
//     comparisons
//  4. [pipeline] - Orchestration (load → layout → render) shared by the CLI
//     and the HTTP server
//
// # Architecture
//
// The typical data flow:
//
//	CSV / Excel table
//	         ↓
//	    [dataset] package (load, melt, group)
//	         ↓
//	    [violin/density] package (shared grid + per-replicate KDE)
//	         ↓
//	    [violin/stack] + [violin/geometry] + [violin/skeleton]
//	         ↓
//	    [violin/layout] package (positioned violins, axis, brackets)
//	         ↓
//	    [violin/sink] package → SVG/PNG/PDF/JSON
//
// # Quick Start
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Path:    "cells.csv",
//	    Columns: dataset.Columns{Condition: "drug", Value: "area", Replicate: "day"},
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	os.WriteFile("cells.svg", result.Artifacts[pipeline.FormatSVG], 0o644)
//
// # Supporting Packages
//
// [cache] - File, Redis and no-op caches for layouts, artifacts and
// statistics, keyed by content hashes.
//
// [config] - TOML preferences files (project and user level).
//
// [errors] - Coded errors shared by every entry point.
//
// [observability] - Hooks for pipeline stages, cache access and HTTP
// requests.
//
// [buildinfo] - Version information set at link time.
//
// # Testing
//
//	go test ./pkg/...             # All tests
//	go test ./pkg/violin/...      # Geometry and sinks
//	go test -run Example ./pkg/...
package pkg
