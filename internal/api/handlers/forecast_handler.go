package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
)

type ForecastService interface {
	Forecast(ctx context.Context, scope domain.Scope, scopeID *string, horizon int) (*domain.ForecastResult, error)
	Latest(ctx context.Context, scope domain.Scope, scopeID *string, limit int) ([]domain.ForecastPoint, error)
}

type RecommendationService interface {
	Recommend(ctx context.Context, scope domain.Scope, scopeID *string, periods int) (*domain.RecommendationResult, error)
}

type ForecastHandler struct {
	forecasts       ForecastService
	recommendations RecommendationService
	defaultHorizon  int
}

func NewForecastHandler(forecasts ForecastService, recommendations RecommendationService, defaultHorizon int) *ForecastHandler {
	if defaultHorizon <= 0 {
		defaultHorizon = 30
	}
	return &ForecastHandler{
		forecasts:       forecasts,
		recommendations: recommendations,
		defaultHorizon:  defaultHorizon,
	}
}

// Predict handles GET /predict?scope=&scope_id=&periods=
func (h *ForecastHandler) Predict(c *gin.Context) {
	scope, scopeID, err := parseScope(c)
	if err != nil {
		respondError(c, err)
		return
	}

	periods, err := parseInt(c, "periods", h.defaultHorizon, domain.ErrInvalidHorizon)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.forecasts.Forecast(c.Request.Context(), scope, scopeID, periods)
	if err != nil {
		if errors.Is(err, domain.ErrPersistenceWrite) && result != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":    err.Error(),
				"forecast": result,
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Recommendation handles GET /recommendation?scope=&scope_id=&periods=
func (h *ForecastHandler) Recommendation(c *gin.Context) {
	scope, scopeID, err := parseScope(c)
	if err != nil {
		respondError(c, err)
		return
	}

	periods, err := parseInt(c, "periods", h.defaultHorizon, domain.ErrInvalidFilter)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.recommendations.Recommend(c.Request.Context(), scope, scopeID, periods)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Latest handles GET /forecasts?scope=&scope_id=&limit=
func (h *ForecastHandler) Latest(c *gin.Context) {
	scope, scopeID, err := parseScope(c)
	if err != nil {
		respondError(c, err)
		return
	}

	limit, err := parseInt(c, "limit", h.defaultHorizon, domain.ErrInvalidFilter)
	if err != nil {
		respondError(c, err)
		return
	}

	points, err := h.forecasts.Latest(c.Request.Context(), scope, scopeID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]storedForecastResponse, 0, len(points))
	for _, p := range points {
		data = append(data, storedForecastResponse{
			Date:           p.Date.Format(domain.DateLayout),
			PredictedValue: p.PredictedValue,
			LowerBound:     p.LowerBound,
			UpperBound:     p.UpperBound,
			ModelMetadata:  p.ModelMetadata,
			CreatedAt:      p.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"scope":    scope,
		"scope_id": domainScopeID(scope, scopeID),
		"data":     data,
		"total":    len(data),
	})
}

type storedForecastResponse struct {
	Date           string               `json:"date"`
	PredictedValue float64              `json:"predicted_value"`
	LowerBound     float64              `json:"lower_bound"`
	UpperBound     float64              `json:"upper_bound"`
	ModelMetadata  domain.ModelMetadata `json:"model_metadata"`
	CreatedAt      time.Time            `json:"created_at"`
}

func domainScopeID(scope domain.Scope, scopeID *string) *string {
	if !scope.RequiresID() {
		return nil
	}
	return scopeID
}
