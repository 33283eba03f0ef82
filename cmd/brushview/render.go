// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/signal"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/gogpu/brushview"
	"github.com/gogpu/brushview/scene"
)

// renderFrame renders one frame of the demo scene to a PNG file.
func renderFrame(ctx *cli.Context) error {
	logger := setupLogging(ctx)

	cfg := brushview.DefaultConfig()
	if path := ctx.String("config"); path != "" {
		var err error
		if cfg, err = brushview.LoadConfig(path); err != nil {
			return err
		}
	}
	// Explicit flags override the file.
	if ctx.IsSet("width") || ctx.String("config") == "" {
		cfg.Width = ctx.Int("width")
	}
	if ctx.IsSet("height") || ctx.String("config") == "" {
		cfg.Height = ctx.Int("height")
	}
	if ctx.IsSet("backend") || ctx.String("config") == "" {
		cfg.Backend = ctx.String("backend")
	}

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	r, err := brushview.New(opts...)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.LoadMaterials(demoMaterials()); err != nil {
		return err
	}

	var flags scene.RenderFlags
	if ctx.Bool("fullbright") {
		flags |= scene.FlagFullBright
	}
	if ctx.Bool("shownodraw") {
		flags |= scene.FlagShowNoDraw
	}
	if ctx.Bool("noskybox") {
		flags |= scene.FlagHideSkybox
	}
	if ctx.Bool("notransparent") {
		flags |= scene.FlagHideTransparent
	}
	if ctx.Bool("beyondsky") {
		flags |= scene.FlagBeyondSky
	}
	frame := demoFrame(cfg.Width, cfg.Height, ctx.Float64("time"), flags)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	img, err := r.Render(runCtx, frame)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	out := ctx.String("out")
	if err := writePNG(out, img); err != nil {
		return err
	}

	var buf bytes.Buffer
	writeStats(&buf, r.Stats())
	logger.Info("frame statistics\n" + buf.String())
	fmt.Printf("wrote %s (%dx%d, %s backend)\n", out, cfg.Width, cfg.Height, r.Backend())
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// writeStats prints per-pass frame statistics as a table.
func writeStats(w io.Writer, st brushview.Stats) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Pass", "Triangles", "Draws", "Fragments"})
	names := [brushview.NumPasses]string{"sky", "opaque", "transparent"}
	for p, name := range names {
		table.Append([]string{
			name,
			fmt.Sprintf("%d", st.Triangles[p]),
			fmt.Sprintf("%d", st.Draws[p]),
			fmt.Sprintf("%d", st.Fragments[p]),
		})
	}
	table.SetFooter([]string{st.Backend, fmt.Sprintf("%d batches", st.Batches), fmt.Sprintf("%d post", st.PostPasses), st.FrameTime.String()})
	table.Render()
}
