package ui

import (
	"errors"
	"net/http"
	"strconv"

	"creditdash/domain/dataset"
	"creditdash/internal/charts"
	apperrors "creditdash/internal/errors"
	"creditdash/internal/session"
	"creditdash/internal/summary"

	"github.com/gin-gonic/gin"
)

type columnInfo struct {
	Name  string             `json:"name"`
	Type  dataset.ColumnType `json:"type"`
	DType string             `json:"dtype"`
}

type rowsPage struct {
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Rows     []int             `json:"rows"`
	Data     [][]dataset.Value `json:"data"`
}

func (s *Server) apiSession(c *gin.Context) (*session.Session, bool) {
	sess := s.sessions.Resolve(c.Request.Context(), c.Writer, c.Request)
	if !sess.Ready() {
		apiError(c, sess.Err)
		return nil, false
	}
	return sess, true
}

func (s *Server) apiPage(c *gin.Context, ds *dataset.Dataset, rows []int) rowsPage {
	size := s.pageSize
	if n, err := strconv.Atoi(c.Query("page_size")); err == nil && n > 0 && n <= 10000 {
		size = n
	}
	p := rowsPage{Page: pageParam(c), PageSize: size, Rows: []int{}, Data: [][]dataset.Value{}}
	// compare in pages so a huge ?page= cannot overflow the row offset
	if p.Page-1 >= (len(rows)+size-1)/size {
		return p
	}
	lo := (p.Page - 1) * size
	hi := min(lo+size, len(rows))
	for _, r := range rows[lo:hi] {
		p.Rows = append(p.Rows, r)
		p.Data = append(p.Data, ds.Row(r))
	}
	return p
}

func columnInfos(ds *dataset.Dataset) []columnInfo {
	out := make([]columnInfo, 0, ds.NumColumns())
	for _, col := range ds.Columns() {
		out = append(out, columnInfo{Name: col.Name, Type: col.Type, DType: col.DType})
	}
	return out
}

func (s *Server) handleAPIDataset(c *gin.Context) {
	sess, ok := s.apiSession(c)
	if !ok {
		return
	}
	ds := sess.Dataset
	all := make([]int, ds.NumRows())
	for i := range all {
		all[i] = i
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      ds.ID,
		"source":  ds.Source,
		"rows":    ds.NumRows(),
		"columns": columnInfos(ds),
		"page":    s.apiPage(c, ds, all),
	})
}

func (s *Server) handleAPISummary(c *gin.Context) {
	sess, ok := s.apiSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, summary.Summarize(sess.Dataset))
}

func (s *Server) handleAPIFilter(c *gin.Context) {
	sess, ok := s.apiSession(c)
	if !ok {
		return
	}
	ds := sess.Dataset
	bindings, view := s.applyControls(ds, c.Request.URL.Query())
	preds := make([]string, len(bindings))
	for i, b := range bindings {
		preds[i] = b.Predicate().String()
	}
	c.JSON(http.StatusOK, gin.H{
		"total":      ds.NumRows(),
		"matched":    view.Len(),
		"predicates": preds,
		"columns":    ds.ColumnNames(),
		"page":       s.apiPage(c, ds, view.RowIndices()),
	})
}

func (s *Server) handleAPICorrelation(c *gin.Context) {
	sess, ok := s.apiSession(c)
	if !ok {
		return
	}
	m, err := charts.PrepareCorrelationMatrix(sess.Dataset)
	if errors.Is(err, charts.ErrNoNumericData) {
		c.JSON(http.StatusOK, gin.H{"available": false, "message": "No numeric columns available for heatmap."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true, "matrix": m})
}

func (s *Server) handleAPIDistribution(c *gin.Context) {
	sess, ok := s.apiSession(c)
	if !ok {
		return
	}
	column := c.Param("column")
	values, err := charts.PrepareDistribution(sess.Dataset, column)
	if err != nil {
		apiError(c, apperrors.New(apperrors.CodeNotFound, "no numeric column "+strconv.Quote(column)))
		return
	}
	dist, err := charts.NewDistribution(column, chartTitle(column), values)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"available": false, "column": column, "message": "No complete rows to plot."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true, "distribution": dist})
}
