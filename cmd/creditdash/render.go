package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

type outputOptions struct {
	format string
}

// grid is a rectangular result ready for any output format
type grid struct {
	Header []string
	Rows   [][]string
	Footer string
}

func (o *outputOptions) validate() error {
	switch o.format {
	case "table", "json", "md", "markdown", "csv":
		return nil
	}
	return fmt.Errorf("unknown output format %q (want table, json, markdown or csv)", o.format)
}

// render writes g in the selected format. JSON output encodes payload
// instead, so values keep their types.
func (o *outputOptions) render(w io.Writer, g grid, payload any) error {
	if o.format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	header := make(table.Row, len(g.Header))
	for i, h := range g.Header {
		header[i] = h
	}
	t.AppendHeader(header)
	for _, r := range g.Rows {
		row := make(table.Row, len(r))
		for i, c := range r {
			row[i] = c
		}
		t.AppendRow(row)
	}

	switch o.format {
	case "md", "markdown":
		t.RenderMarkdown()
	case "csv":
		t.RenderCSV()
		return nil
	default:
		t.Render()
	}
	if g.Footer != "" {
		_, _ = fmt.Fprintln(w, g.Footer)
	}
	return nil
}
