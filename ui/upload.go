package ui

import (
	stderrors "errors"
	"io"
	"net/http"

	"creditdash/internal/errors"

	"github.com/gin-gonic/gin"
)

// multipart framing allowance on top of the file itself
const uploadOverhead = 1 << 20

func (s *Server) handleUpload(c *gin.Context) {
	if s.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes+uploadOverhead)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if stderrors.As(err, &tooBig) {
			s.renderError(c, errors.PayloadTooLarge(s.maxUploadBytes))
			return
		}
		s.renderError(c, errors.InvalidInput("choose a CSV, XLSX or JSON file to upload"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.renderError(c, errors.Wrap(err, "failed to open upload"))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		s.renderError(c, errors.Wrap(err, "failed to read upload"))
		return
	}

	sess, err := s.sessions.Upload(c.Request.Context(), c.Writer, c.Request, fh.Filename, data)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.logger.Info("upload received", "session", sess.ID, "file", fh.Filename, "bytes", len(data), "ok", sess.Ready())
	c.Redirect(http.StatusSeeOther, "/raw")
}

func (s *Server) handleClearUpload(c *gin.Context) {
	s.sessions.Clear(c.Writer, c.Request)
	c.Redirect(http.StatusSeeOther, "/raw")
}
