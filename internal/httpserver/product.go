package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type productReader interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type stockReader interface {
	GetLevels(ctx context.Context, productID string) ([]domain.StockLevel, error)
}

type productResponse struct {
	Product *domain.Product     `json:"product"`
	Stock   []domain.StockLevel `json:"stock"`
}

// getProductHandler serves the product detail page: the product itself
// plus per-size availability so the size picker can disable sold-out rows.
func getProductHandler(products productReader, stocks stockReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := products.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		levels, err := stocks.GetLevels(c.Request.Context(), product.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		if levels == nil {
			levels = []domain.StockLevel{}
		}
		c.JSON(http.StatusOK, productResponse{Product: product, Stock: levels})
	}
}
