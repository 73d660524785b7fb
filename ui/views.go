package ui

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"creditdash/domain/dataset"
	"creditdash/internal/charts"
	"creditdash/internal/filter"
	"creditdash/internal/session"
	"creditdash/internal/summary"

	"github.com/gin-gonic/gin"
)

const kaggleURL = "https://www.kaggle.com/datasets/adilshamim8/credit-risk-benchmark-dataset"

type navItem struct {
	Key, Label, Path string
}

var navigation = []navItem{
	{"raw", "Raw Data", "/raw"},
	{"filter", "Filter Data", "/filter"},
	{"summary", "Summary", "/summary"},
	{"graphs", "Graphs & Charts", "/graphs"},
}

// distributionCharts are the histograms shown on the Graphs view, when present
var distributionCharts = []struct {
	Column, Title string
}{
	{"age", "Age Distribution"},
	{"monthly_inc", "Monthly Income Distribution"},
}

// page is the data every template receives
type page struct {
	Title  string
	Active string
	Nav    []navItem
	Source sourceInfo
	Body   any
}

type sourceInfo struct {
	Name     string
	IsUpload bool
}

func (s *Server) newPage(active, title string, sess *session.Session, body any) page {
	p := page{Title: title, Active: active, Nav: navigation, Body: body}
	if sess != nil {
		p.Source = sourceInfo{Name: sess.SourceName, IsUpload: sess.IsUpload}
	}
	return p
}

// table is one page of rows ready for display
type table struct {
	Columns []string
	Rows    []tableRow
	Total   int
	Page    int
	Pages   int
	First   int
	Last    int
	PrevURL string
	NextURL string
}

type tableRow struct {
	Index int
	Cells []string
}

// newTable renders the requested page of the given base rows
func newTable(ds *dataset.Dataset, rows []int, pageNum, size int, query url.Values, path string) table {
	t := table{Columns: ds.ColumnNames(), Total: len(rows), Page: 1, Pages: 1}
	if len(rows) > 0 {
		t.Pages = (len(rows) + size - 1) / size
	}
	if pageNum > t.Pages {
		pageNum = t.Pages
	}
	if pageNum > 1 {
		t.Page = pageNum
	}

	lo := (t.Page - 1) * size
	hi := min(lo+size, len(rows))
	cols := ds.Columns()
	for _, r := range rows[lo:hi] {
		row := tableRow{Index: r, Cells: make([]string, len(cols))}
		for j, col := range cols {
			row.Cells[j] = col.Format(r)
		}
		t.Rows = append(t.Rows, row)
	}
	if hi > lo {
		t.First, t.Last = lo+1, hi
	}

	link := func(p int) string {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(p))
		return path + "?" + q.Encode()
	}
	if t.Page > 1 {
		t.PrevURL = link(t.Page - 1)
	}
	if t.Page < t.Pages {
		t.NextURL = link(t.Page + 1)
	}
	return t
}

func pageParam(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// resolveSession loads the session's dataset, rendering the error page when
// the source failed to load
func (s *Server) resolveSession(c *gin.Context, view string) (*session.Session, bool) {
	sess := s.sessions.Resolve(c.Request.Context(), c.Writer, c.Request)
	if !sess.Ready() {
		s.renderLoadError(c, view, sess)
		return nil, false
	}
	return sess, true
}

type rawBody struct {
	Rows, Columns int
	About         template.HTML
	KaggleURL     string
	Table         table
}

func (s *Server) handleRaw(c *gin.Context) {
	sess, ok := s.resolveSession(c, "raw")
	if !ok {
		return
	}
	ds := sess.Dataset
	body := rawBody{
		Rows:      ds.NumRows(),
		Columns:   ds.NumColumns(),
		About:     s.about,
		KaggleURL: kaggleURL,
		Table:     newTable(ds, filter.All(ds).RowIndices(), pageParam(c), s.pageSize, nil, "/raw"),
	}
	s.metrics.ObserveView("raw")
	s.renderTemplate(c, http.StatusOK, "raw", s.newPage("raw", "Raw Dataset", sess, body))
}

type filterBody struct {
	Bindings []filter.Binding
	Matched  int
	Table    table
}

func (s *Server) handleFilter(c *gin.Context) {
	sess, ok := s.resolveSession(c, "filter")
	if !ok {
		return
	}
	ds := sess.Dataset
	query := c.Request.URL.Query()
	bindings, view := s.applyControls(ds, query)

	query.Del("page")
	body := filterBody{
		Bindings: bindings,
		Matched:  view.Len(),
		Table:    newTable(ds, view.RowIndices(), pageParam(c), s.pageSize, query, "/filter"),
	}
	s.metrics.ObserveView("filter")
	s.renderTemplate(c, http.StatusOK, "filter", s.newPage("filter", "Filter Dataset", sess, body))
}

// applyControls binds the filter widgets to the request and filters ds.
// Widget state comes only from the query, so it resets whenever the user
// navigates to the view through the menu.
func (s *Server) applyControls(ds *dataset.Dataset, query url.Values) ([]filter.Binding, *filter.View) {
	widgets := s.controls.Resolve(ds)
	bindings := filter.Bind(widgets, filter.ParseSelection(query, widgets))
	view := filter.Apply(ds, filter.Predicates(bindings))
	s.metrics.ObserveFilterRows(view.Len())
	return bindings, view
}

type statRow struct {
	Label  string
	Values []string
}

type summaryBody struct {
	NumericColumns     []string
	NumericRows        []statRow
	CategoricalColumns []string
	CategoricalRows    []statRow
	Types              []summary.ColumnSummary
}

func (s *Server) handleSummary(c *gin.Context) {
	sess, ok := s.resolveSession(c, "summary")
	if !ok {
		return
	}
	report := summary.Summarize(sess.Dataset)
	s.metrics.ObserveView("summary")
	s.renderTemplate(c, http.StatusOK, "summary", s.newPage("summary", "Summary Statistics", sess, newSummaryBody(report)))
}

func newSummaryBody(report *summary.Report) summaryBody {
	body := summaryBody{Types: report.Columns}
	numericLabels := []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	body.NumericRows = make([]statRow, len(numericLabels))
	for i, l := range numericLabels {
		body.NumericRows[i].Label = l
	}
	categoricalLabels := []string{"count", "unique", "top", "freq"}
	body.CategoricalRows = make([]statRow, len(categoricalLabels))
	for i, l := range categoricalLabels {
		body.CategoricalRows[i].Label = l
	}

	for _, col := range report.Columns {
		if n := col.Numeric; n != nil {
			body.NumericColumns = append(body.NumericColumns, col.Name)
			for i, v := range []float64{float64(n.Count), n.Mean, n.Std, n.Min, n.P25, n.P50, n.P75, n.Max} {
				body.NumericRows[i].Values = append(body.NumericRows[i].Values, formatNumber(v))
			}
			continue
		}
		cat := col.Categorical
		body.CategoricalColumns = append(body.CategoricalColumns, col.Name)
		top := cat.Top
		if cat.Count == 0 {
			top = "NaN"
		}
		for i, v := range []string{strconv.Itoa(cat.Count), strconv.Itoa(cat.Unique), top, strconv.Itoa(cat.Freq)} {
			body.CategoricalRows[i].Values = append(body.CategoricalRows[i].Values, v)
		}
	}
	return body
}

type chartPanel struct {
	Column, Title, ImageURL string
	Notice                  string
}

type graphsBody struct {
	Distributions []chartPanel
	Heatmap       *charts.Heatmap
	HeatmapRows   int
	HeatmapNotice string
}

func (s *Server) handleGraphs(c *gin.Context) {
	sess, ok := s.resolveSession(c, "graphs")
	if !ok {
		return
	}
	ds := sess.Dataset
	body := graphsBody{}
	for _, dc := range distributionCharts {
		if !ds.HasColumn(dc.Column) {
			continue
		}
		panel := chartPanel{Column: dc.Column, Title: dc.Title}
		values, err := charts.PrepareDistribution(ds, dc.Column)
		switch {
		case err != nil:
			panel.Notice = "Column is not numeric; no distribution to plot."
		case len(values) == 0:
			panel.Notice = "No complete rows to plot."
		default:
			panel.ImageURL = "/charts/distribution/" + url.PathEscape(dc.Column) + "?v=" + url.QueryEscape(ds.ID.String())
		}
		body.Distributions = append(body.Distributions, panel)
	}

	m, err := charts.PrepareCorrelationMatrix(ds)
	if err != nil {
		body.HeatmapNotice = "No numeric columns available for heatmap."
	} else {
		body.Heatmap = charts.NewHeatmap(m)
		body.HeatmapRows = m.Rows
	}
	s.metrics.ObserveView("graphs")
	s.renderTemplate(c, http.StatusOK, "graphs", s.newPage("graphs", "Graphs & Charts", sess, body))
}

func chartTitle(column string) string {
	for _, dc := range distributionCharts {
		if dc.Column == column {
			return dc.Title
		}
	}
	return column + " Distribution"
}

func (s *Server) handleDistributionPNG(c *gin.Context) {
	sess := s.sessions.Resolve(c.Request.Context(), c.Writer, c.Request)
	if !sess.Ready() {
		c.Status(statusOf(sess.Err))
		return
	}
	column := c.Param("column")
	values, err := charts.PrepareDistribution(sess.Dataset, column)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	dist, err := charts.NewDistribution(column, chartTitle(column), values)
	if errors.Is(err, charts.ErrNoNumericData) {
		c.Status(http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := dist.RenderPNG(&buf); err != nil {
		s.logger.Error("chart render failed", "column", column, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	s.metrics.ObserveView("distribution")
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
