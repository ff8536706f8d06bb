package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

// respondError maps domain errors onto HTTP statuses with itemized bodies.
// Nothing is swallowed: every failure reaches the caller in readable form.
func respondError(c *gin.Context, err error) {
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "MissingFields",
			"fields": validation.Fields,
		})
		return
	}

	var conflict *domain.StockConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{
			"error":    "StockConflict",
			"verdicts": conflict.Verdicts,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "NotFound"})
	case errors.Is(err, domain.ErrOutOfStock):
		c.JSON(http.StatusConflict, gin.H{"error": "OutOfStock"})
	case errors.Is(err, domain.ErrDuplicateSubmission):
		c.JSON(http.StatusConflict, gin.H{"error": "DuplicateSubmission"})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "InvalidTransition"})
	case errors.Is(err, domain.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "InvalidToken"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "PersistenceError", "message": err.Error()})
	}
}
