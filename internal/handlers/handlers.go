// Package handlers contains the HTTP handlers for the API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/murmurapp/backend/internal/errors"
	"github.com/murmurapp/backend/internal/feed"
	"github.com/murmurapp/backend/internal/progression"
	"github.com/murmurapp/backend/internal/store"
	"github.com/murmurapp/backend/internal/votes"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	aggregator *feed.Aggregator
	ledger     *votes.Ledger
	curve      progression.Curve
}

// NewHandlers creates a new handlers instance
func NewHandlers(aggregator *feed.Aggregator, ledger *votes.Ledger, curve progression.Curve) *Handlers {
	return &Handlers{
		aggregator: aggregator,
		ledger:     ledger,
		curve:      curve,
	}
}

// respondError translates domain errors into the API error envelope.
// Transient backend failures come back as 503, clearly distinct from an
// empty result.
func respondError(c *gin.Context, err error) {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		e := apierrors.NotFound("resource")
		c.JSON(e.Status, gin.H{"error": e})
	case store.IsTransient(err):
		e := apierrors.ServiceUnavailable("backing store")
		c.JSON(e.Status, gin.H{"error": e})
	default:
		e := apierrors.InternalError("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": e})
	}
}
