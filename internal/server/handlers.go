package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"StockLens/internal/format"
	"StockLens/internal/logger"
	"StockLens/internal/model"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

type displayFields struct {
	LatestPrice string `json:"latestPrice"`
	DayChange   string `json:"dayChange"`
	Trend7Day   string `json:"trend7Day"`
	Trend30Day  string `json:"trend30Day"`
	Volume      string `json:"volume"`
	High52Week  string `json:"high52Week,omitempty"`
	Low52Week   string `json:"low52Week,omitempty"`
}

type insightsResponse struct {
	model.StockInsights
	FromCache bool          `json:"fromCache"`
	Display   displayFields `json:"display"`
}

func newInsightsResponse(ins model.StockInsights, fromCache bool) insightsResponse {
	d := displayFields{
		LatestPrice: format.Currency(ins.LatestPrice),
		DayChange:   format.Percent(ins.DayChange.Percentage),
		Trend7Day:   format.Percent(ins.Trend7Day.Percentage),
		Trend30Day:  format.Percent(ins.Trend30Day.Percentage),
		Volume:      format.LargeNumber(float64(ins.Volume)),
	}
	if ins.High52Week != nil {
		d.High52Week = format.Currency(*ins.High52Week)
	}
	if ins.Low52Week != nil {
		d.Low52Week = format.Currency(*ins.Low52Week)
	}
	return insightsResponse{StockInsights: ins, FromCache: fromCache, Display: d}
}

func (s *Server) getHealth(c *gin.Context) {
	body := gin.H{"status": "ok", "queueDepth": 0}
	if s.Queue != nil {
		body["queueDepth"] = s.Queue.Pending()
		body["minInterval"] = s.Queue.Interval().String()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) getInsights(c *gin.Context) {
	res, err := s.Insights.Get(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newInsightsResponse(res.Insights, res.FromCache))
}

type sessionRequest struct {
	UserID string `json:"userId"`
}

func (s *Server) createSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must be JSON with a userId."})
		return
	}
	token, err := s.Sessions.Login(strings.TrimSpace(req.UserID))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.Sessions.Logout(bearerToken(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := s.Sessions.Lookup(bearerToken(c))
		if !ok {
			s.fail(c, model.ErrNotAuthenticated)
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func (s *Server) listWatchlist(c *gin.Context) {
	items, err := s.Watchlist.ListSymbols(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type watchlistRequest struct {
	Symbol string `json:"symbol"`
}

func (s *Server) addToWatchlist(c *gin.Context) {
	var req watchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must be JSON with a symbol."})
		return
	}
	symbol, err := model.NormalizeSymbol(req.Symbol)
	if err != nil {
		s.fail(c, err)
		return
	}
	item, err := s.Watchlist.AddSymbol(c.Request.Context(), c.GetString(userIDKey), symbol)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Server) removeFromWatchlist(c *gin.Context) {
	symbol, err := model.NormalizeSymbol(c.Param("symbol"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.Watchlist.RemoveSymbol(c.Request.Context(), c.GetString(userIDKey), symbol); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// fail writes err as {"error": message} with its mapped status.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	entry := s.log.WithFields(logger.Fields{"path": c.FullPath(), "status": status}).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Info("request rejected")
	}
	c.JSON(status, gin.H{"error": model.UserMessage(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrProviderData):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicateSymbol):
		return http.StatusConflict
	case errors.Is(err, model.ErrProviderRateLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, model.ErrJobTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, model.ErrTransport), errors.Is(err, model.ErrParse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
