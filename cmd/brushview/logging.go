// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/gogpu/brushview"
)

// setupLogging enables brushview logging on stderr for -v and -vv.
func setupLogging(ctx *cli.Context) *slog.Logger {
	level := slog.LevelWarn
	if ctx.GlobalBool("v") {
		level = slog.LevelInfo
	}
	if ctx.GlobalBool("vv") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	brushview.SetLogger(logger)
	return logger
}
