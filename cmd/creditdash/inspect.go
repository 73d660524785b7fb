package main

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"creditdash/adapters/tabular"
	"creditdash/domain/dataset"
	"creditdash/internal/charts"
	"creditdash/internal/filter"
	"creditdash/internal/loader"
	"creditdash/internal/summary"

	"github.com/spf13/cobra"
)

// readDataset loads path through the same cache the server uses, so the CLI
// reports missing files and parse failures identically.
func readDataset(ctx context.Context, path string) (*dataset.Dataset, error) {
	cache := loader.NewCache(tabular.NewReader(tabular.DefaultCoercionConfig()), loader.DefaultOptions(), nil)
	return cache.Load(ctx, loader.PathSource(path))
}

// rowsGrid formats the given base rows, at most limit of them when limit > 0
func rowsGrid(ds *dataset.Dataset, rows []int, limit int) grid {
	g := grid{Header: append([]string{""}, ds.ColumnNames()...)}
	shown := rows
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	cols := ds.Columns()
	for _, r := range shown {
		cells := make([]string, 0, len(cols)+1)
		cells = append(cells, strconv.Itoa(r))
		for _, col := range cols {
			cells = append(cells, col.Format(r))
		}
		g.Rows = append(g.Rows, cells)
	}
	if len(shown) < len(rows) {
		g.Footer = fmt.Sprintf("(%d of %d rows shown)", len(shown), len(rows))
	}
	return g
}

func rowsPayload(ds *dataset.Dataset, rows []int, limit int) []map[string]dataset.Value {
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]map[string]dataset.Value, 0, len(rows))
	for _, r := range rows {
		rec := make(map[string]dataset.Value, ds.NumColumns())
		for _, col := range ds.Columns() {
			rec[col.Name] = col.Values[r]
		}
		out = append(out, rec)
	}
	return out
}

func newRawCmd(opts *outputOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "raw FILE",
		Short: "Print the dataset's rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			ds, err := readDataset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rows := filter.All(ds).RowIndices()
			w := cmd.OutOrStdout()
			if opts.format != "json" {
				fmt.Fprintf(w, "Dataset has %d rows and %d columns.\n", ds.NumRows(), ds.NumColumns())
			}
			return opts.render(w, rowsGrid(ds, rows, limit), rowsPayload(ds, rows, limit))
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows to print (0 for all)")
	return cmd
}

func newSummaryCmd(opts *outputOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary FILE",
		Short: "Print descriptive statistics and column types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			ds, err := readDataset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			report := summary.Summarize(ds)
			return opts.render(cmd.OutOrStdout(), summaryGrid(report), report)
		},
	}
}

func summaryGrid(report *summary.Report) grid {
	g := grid{Header: []string{"column", "dtype", "count", "mean", "std", "min", "25%", "50%", "75%", "max", "unique", "top", "freq"}}
	for _, col := range report.Columns {
		row := []string{col.Name, col.DType}
		if n := col.Numeric; n != nil {
			row = append(row, strconv.Itoa(n.Count))
			for _, v := range []float64{n.Mean, n.Std, n.Min, n.P25, n.P50, n.P75, n.Max} {
				row = append(row, formatStat(v))
			}
			row = append(row, "", "", "")
		} else {
			c := col.Categorical
			row = append(row, strconv.Itoa(c.Count), "", "", "", "", "", "", "",
				strconv.Itoa(c.Unique), c.Top, strconv.Itoa(c.Freq))
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}

func formatStat(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', 4, 64)
}

func newFilterCmd(opts *outputOptions) *cobra.Command {
	var (
		limit  int
		ranges []string
		equals []string
		sets   []string
	)

	cmd := &cobra.Command{
		Use:   "filter FILE",
		Short: "Print the rows matching every given condition",
		Long: `Print the rows matching every given condition.

Example: creditdash filter data.csv --range age=30:50 --eq real_estate=1 --in dependents=0,1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			ds, err := readDataset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			preds, err := parsePredicates(ds, ranges, equals, sets)
			if err != nil {
				return err
			}
			view := filter.Apply(ds, preds)
			w := cmd.OutOrStdout()
			if opts.format != "json" {
				fmt.Fprintf(w, "%d records match your criteria.\n", view.Len())
			}
			return opts.render(w, rowsGrid(ds, view.RowIndices(), limit), rowsPayload(ds, view.RowIndices(), limit))
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows to print (0 for all)")
	cmd.Flags().StringArrayVar(&ranges, "range", nil, "Inclusive numeric range, COLUMN=MIN:MAX (repeatable)")
	cmd.Flags().StringArrayVar(&equals, "eq", nil, "Exact match, COLUMN=VALUE (repeatable)")
	cmd.Flags().StringArrayVar(&sets, "in", nil, "Set membership, COLUMN=V1,V2,... (repeatable)")
	return cmd
}

func newCorrCmd(opts *outputOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "corr FILE",
		Short: "Print the Pearson correlation matrix of the numeric columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			ds, err := readDataset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			m, err := charts.PrepareCorrelationMatrix(ds)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No numeric columns available for heatmap.")
				return nil
			}
			return opts.render(cmd.OutOrStdout(), corrGrid(m), m)
		},
	}
}

func corrGrid(m *charts.Matrix) grid {
	g := grid{Header: append([]string{""}, m.Columns...)}
	for i, name := range m.Columns {
		row := []string{name}
		for j := range m.Columns {
			v := m.At(i, j)
			if math.IsNaN(v) {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(v, 'f', 2, 64))
		}
		g.Rows = append(g.Rows, row)
	}
	g.Footer = fmt.Sprintf("(%d complete rows)", m.Rows)
	return g
}
