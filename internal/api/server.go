package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	folio_errors "folio/internal"
	"folio/internal/domain"
	"folio/internal/ingest"
	"folio/internal/portfolio"
)

type Server struct {
	portfolio *portfolio.Service
	ingest    *ingest.Service
	logger    *slog.Logger
}

func NewServer(p *portfolio.Service, i *ingest.Service, logger *slog.Logger) *Server {
	return &Server{portfolio: p, ingest: i, logger: logger}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/portfolio/:id/history", s.history)
	r.GET("/portfolio/:id/snapshot", s.snapshot)
	r.POST("/portfolio/:id/import/:broker", s.importReport)
	return r
}

type seriesJSON struct {
	Title  string          `json:"title"`
	Values []domain.Value  `json:"values"`
	Min    decimal.Decimal `json:"min"`
	Max    decimal.Decimal `json:"max"`
}

func toSeriesJSON(l *domain.ValueList) seriesJSON {
	return seriesJSON{Title: l.Title, Values: l.Values(), Min: l.Min(), Max: l.Max()}
}

func (s *Server) history(c *gin.Context) {
	portfolioID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad portfolio id"})
		return
	}
	from, err := time.Parse(domain.DayLayout, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad from date"})
		return
	}
	to, err := time.Parse(domain.DayLayout, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad to date"})
		return
	}
	currency := domain.Currency(c.DefaultQuery("currency", string(domain.RUB)))
	brokerID := optionalInt64(c.Query("broker"))

	report, err := s.portfolio.Report(c.Request.Context(), portfolioID, brokerID,
		domain.NewTimeRange(from, to), currency)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"series": []seriesJSON{
		toSeriesJSON(report.Value),
		toSeriesJSON(report.Rate),
		toSeriesJSON(report.Cash),
		toSeriesJSON(report.Dividends),
		toSeriesJSON(report.Commissions),
	}})
}

func (s *Server) snapshot(c *gin.Context) {
	portfolioID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad portfolio id"})
		return
	}
	snap, err := s.portfolio.Snapshot(c.Request.Context(), portfolioID, optionalInt64(c.Query("broker")))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) importReport(c *gin.Context) {
	portfolioID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad portfolio id"})
		return
	}
	brokerID := optionalInt64(c.Query("broker_id"))
	if brokerID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "broker_id is required"})
		return
	}
	content, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	batchID, count, err := s.ingest.ImportReport(c.Request.Context(),
		c.Param("broker"), portfolioID, *brokerID, content)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batch": batchID, "movements": count})
}

// renderError maps the valuation error taxonomy onto status codes; anything
// unexpected is a 500.
func (s *Server) renderError(c *gin.Context, err error) {
	var (
		negative     folio_errors.ErrNegativePosition
		empty        folio_errors.ErrEmptyLedger
		badCurrency  folio_errors.ErrUnsupportedCurrency
		gap          folio_errors.ErrDataGap
		misaligned   folio_errors.ErrInconsistentSeries
	)
	switch {
	case errors.As(err, &empty):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &negative), errors.As(err, &badCurrency), errors.As(err, &gap):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &misaligned):
		s.logger.Error("series alignment bug", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func optionalInt64(s string) *int64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
