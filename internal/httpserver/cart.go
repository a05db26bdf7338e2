package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vereau-cart/internal/domain"
	"vereau-cart/internal/pricing"
)

type cartResponse struct {
	Lines    []domain.LineItem `json:"lineItems"`
	Count    int               `json:"count"`
	Subtotal string            `json:"subtotal"`
	Total    string            `json:"total"`
}

// toCartResponse normalizes the payable total once, on the aggregate.
// Per-line amounts stay raw so the displayed lines always sum to the subtotal.
func toCartResponse(cart *domain.Cart) (cartResponse, error) {
	subtotal := cart.Subtotal()
	total, err := pricing.Normalize(subtotal)
	if err != nil {
		return cartResponse{}, err
	}
	lines := cart.Lines
	if lines == nil {
		lines = []domain.LineItem{}
	}
	return cartResponse{
		Lines:    lines,
		Count:    cart.Count(),
		Subtotal: subtotal.StringFixed(2),
		Total:    total.StringFixed(2),
	}, nil
}

func getCartHandler(store CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := store.Get(c.Request.Context(), currentUser(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "load cart failed"})
			return
		}
		resp, err := toCartResponse(cart)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart total invalid"})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

type addItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	SizeID    string `json:"sizeId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

func addItemHandler(store CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cart, err := store.AddProduct(c.Request.Context(), currentUser(c), req.ProductID, req.SizeID, req.Quantity)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "product or size not found"})
			case errors.Is(err, domain.ErrQuantityOutOfRange):
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "quantity out of range"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "add to cart failed"})
			}
			return
		}
		resp, err := toCartResponse(cart)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart total invalid"})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

type updateItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func updateItemHandler(store CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		index, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line index"})
			return
		}
		var req updateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cart, err := store.UpdateQuantity(c.Request.Context(), currentUser(c), index, req.Quantity)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrQuantityOutOfRange):
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "quantity out of range"})
			case errors.Is(err, domain.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "line not found"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			}
			return
		}
		resp, err := toCartResponse(cart)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart total invalid"})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func removeItemHandler(store CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		index, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line index"})
			return
		}

		cart, err := store.Remove(c.Request.Context(), currentUser(c), index)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "line not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "remove failed"})
			return
		}
		resp, err := toCartResponse(cart)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart total invalid"})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
