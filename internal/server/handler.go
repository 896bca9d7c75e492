package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"NiftyImbalance/internal/analyzer"
	"NiftyImbalance/internal/config"
	"NiftyImbalance/internal/model"
)

// pageData is what index.html renders.
type pageData struct {
	StartDate string
	EndDate   string
	Error     string
	Report    *model.Report
	Version   int64 // cache-busting suffix for image URLs
}

// Index handles GET and POST on /.
func (s *Server) Index(c *gin.Context) {
	data := pageData{StartDate: s.opts.DefaultStart, EndDate: s.opts.DefaultEnd}

	if c.Request.Method != http.MethodPost {
		c.HTML(http.StatusOK, indexTemplate, data)
		return
	}
	if _, ok := c.GetPostForm("fetch_nifty"); !ok {
		c.HTML(http.StatusOK, indexTemplate, data)
		return
	}

	data.StartDate = formValue(c, "start_date", s.opts.DefaultStart)
	data.EndDate = formValue(c, "end_date", s.opts.DefaultEnd)

	start, end, err := parseRange(data.StartDate, data.EndDate)
	if err != nil {
		s.renderError(c, err, http.StatusBadRequest, err.Error(), data)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	report, err := s.pipeline.Run(ctx, start, end)
	if err != nil {
		var fe *analyzer.FetchError
		if errors.As(err, &fe) {
			s.renderError(c, err, http.StatusBadGateway, "Could not fetch market data. Try again later.", data)
			return
		}
		s.renderError(c, err, http.StatusInternalServerError, "Could not render the chart.", data)
		return
	}

	data.Report = report
	data.Version = report.CreatedAt.UnixNano()
	c.HTML(http.StatusOK, indexTemplate, data)
}

// formValue returns the trimmed form field, or def when it is absent or blank.
func formValue(c *gin.Context, key, def string) string {
	if v := strings.TrimSpace(c.PostForm(key)); v != "" {
		return v
	}
	return def
}

func parseRange(startStr, endStr string) (start, end time.Time, err error) {
	start, err = time.Parse(config.DateLayout, startStr)
	if err != nil {
		return start, end, fmt.Errorf("invalid start date %q, expected YYYY-MM-DD", startStr)
	}
	end, err = time.Parse(config.DateLayout, endStr)
	if err != nil {
		return start, end, fmt.Errorf("invalid end date %q, expected YYYY-MM-DD", endStr)
	}
	if !start.Before(end) {
		return start, end, fmt.Errorf("start date %s must be before end date %s", startStr, endStr)
	}
	return start, end, nil
}

func (s *Server) renderError(c *gin.Context, err error, status int, message string, data pageData) {
	s.logger.Error().
		Err(err).
		Str("request_id", c.GetString(RequestIDContextKey)).
		Int("status", status).
		Msg("index request failed")

	data.Error = message
	c.HTML(status, indexTemplate, data)
}
