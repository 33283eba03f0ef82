// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command brushview renders a procedural demo scene with the brushview
// renderer and lists the available GPU adapters.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "brushview"
	app.Usage = "render brush, model and sprite scenes"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render the demo scene to a PNG file",
			Description: `
Build a small procedural map (a lit floor, a sky ceiling, a spinning model,
a translucent window and an animated sprite) and render one frame of it.

Post-processing is configured with a YAML file passed to --config.`,
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 640,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 480,
					Usage: "frame height",
				},
				cli.Float64Flag{
					Name:  "time, t",
					Value: 0,
					Usage: "playback time in seconds",
				},
				cli.StringFlag{
					Name:  "backend, b",
					Value: "auto",
					Usage: "rendering backend: auto, gpu, software or noop",
				},
				cli.StringFlag{
					Name:  "config, c",
					Usage: "YAML renderer configuration",
				},
				cli.BoolFlag{
					Name:  "fullbright",
					Usage: "draw raw texture colors without lighting",
				},
				cli.BoolFlag{
					Name:  "shownodraw",
					Usage: "show hidden tool faces",
				},
				cli.BoolFlag{
					Name:  "noskybox",
					Usage: "skip the sky mask and skybox",
				},
				cli.BoolFlag{
					Name:  "notransparent",
					Usage: "skip transparency accumulation and resolve",
				},
				cli.BoolFlag{
					Name:  "beyondsky",
					Usage: "draw geometry behind sky faces",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the rendered frame",
				},
			},
			Action: renderFrame,
		},
		{
			Name:   "adapters",
			Usage:  "list available GPU adapters",
			Action: listAdapters,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "backend, b",
					Value: "gpu",
					Usage: "adapter source: gpu or noop",
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
