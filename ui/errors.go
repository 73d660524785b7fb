package ui

import (
	"creditdash/internal/errors"
	"creditdash/internal/session"

	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Status  int
	Code    string
	Message string
}

func statusOf(err error) int {
	return errors.HTTPStatus(err)
}

func newErrorBody(err error) errorBody {
	return errorBody{Status: statusOf(err), Code: errors.GetCode(err), Message: err.Error()}
}

// renderLoadError shows the session's load failure in place of the view
func (s *Server) renderLoadError(c *gin.Context, view string, sess *session.Session) {
	body := newErrorBody(sess.Err)
	s.logger.Warn("dataset unavailable", "view", view, "source", sess.SourceName, "code", body.Code)
	s.renderTemplate(c, body.Status, "error", s.newPage(view, "Dataset unavailable", sess, body))
}

// renderError shows a request failure that is not tied to a loaded session
func (s *Server) renderError(c *gin.Context, err error) {
	body := newErrorBody(err)
	_ = c.Error(err)
	s.renderTemplate(c, body.Status, "error", s.newPage("", "Request failed", nil, body))
}

// apiError writes the JSON error envelope
func apiError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusOf(err), gin.H{
		"error": gin.H{"code": errors.GetCode(err), "message": err.Error()},
	})
}
