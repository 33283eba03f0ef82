// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/gogpu/brushview"
)

func listAdapters(ctx *cli.Context) error {
	setupLogging(ctx)

	kind, err := brushview.ParseBackend(ctx.String("backend"))
	if err != nil {
		return err
	}
	adapters, err := brushview.ListAdapters(kind)
	if err != nil {
		return fmt.Errorf("list adapters: %w", err)
	}
	if len(adapters) == 0 {
		fmt.Println("no GPU adapters found; the software backend will be used")
		return nil
	}
	writeAdapters(os.Stdout, adapters)
	return nil
}

func writeAdapters(w io.Writer, adapters []brushview.AdapterInfo) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"#", "Adapter", "Backend", "Type"})
	for i, a := range adapters {
		table.Append([]string{fmt.Sprintf("%d", i), a.Name, a.Backend, a.Type})
	}
	table.Render()
}
