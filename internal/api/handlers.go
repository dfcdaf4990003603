package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dirawatch/internal/database"
	"dirawatch/internal/models"
)

// Store is the read and workflow surface the handlers need
type Store interface {
	ListListings(ctx context.Context, q database.ListingQuery) ([]models.Listing, error)
	GetListing(ctx context.Context, id uint) (*models.Listing, error)
	GetPriceHistory(ctx context.Context, listingID uint) ([]models.PriceHistory, error)
	UpdateStatus(ctx context.Context, id uint, status models.ListingStatus, note *string) error
	ListNeighborhoodStats(ctx context.Context, city string) ([]models.NeighborhoodStats, error)
	Summary(ctx context.Context, since time.Time) (*models.ListingSummary, error)
}

// FilterSummary describes the active search criteria
type FilterSummary interface {
	Summary() []string
}

type Handler struct {
	store   Store
	filters FilterSummary
	logger  *logrus.Logger
	now     func() time.Time
}

type StatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Note   *string `json:"note"`
}

// listingResponse adds decoded images to a stored listing
type listingResponse struct {
	models.Listing
	Images []string `json:"images"`
}

func NewHandler(store Store, filters FilterSummary, logger *logrus.Logger) *Handler {
	return &Handler{
		store:   store,
		filters: filters,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetListings(c *gin.Context) {
	q := database.ListingQuery{
		Status:       c.Query("status"),
		City:         c.Query("city"),
		Neighborhood: c.Query("neighborhood"),
		Sort:         c.DefaultQuery("sort", "score"),
	}

	var err error
	if q.MinScore, err = optionalFloat(c, "min_score"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_score"})
		return
	}
	if q.MaxPrice, err = optionalFloat(c, "max_price"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_price"})
		return
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		q.Limit = limit
	}
	if q.Status != "" && !models.ListingStatus(q.Status).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	listings, err := h.store.ListListings(c.Request.Context(), q)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get listings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listings"})
		return
	}

	out := make([]listingResponse, len(listings))
	for i := range listings {
		out[i] = listingResponse{Listing: listings[i], Images: listings[i].Images()}
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetListing(c *gin.Context) {
	id, ok := listingID(c)
	if !ok {
		return
	}

	listing, err := h.store.GetListing(c.Request.Context(), id)
	if err != nil {
		h.handleStoreError(c, err, "Failed to get listing")
		return
	}
	c.JSON(http.StatusOK, listingResponse{Listing: *listing, Images: listing.Images()})
}

func (h *Handler) GetPriceHistory(c *gin.Context) {
	id, ok := listingID(c)
	if !ok {
		return
	}

	history, err := h.store.GetPriceHistory(c.Request.Context(), id)
	if err != nil {
		h.handleStoreError(c, err, "Failed to get price history")
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := listingID(c)
	if !ok {
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	status := models.ListingStatus(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	if err := h.store.UpdateStatus(c.Request.Context(), id, status, req.Note); err != nil {
		h.handleStoreError(c, err, "Failed to update status")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"listing_id": id,
		"status":     status,
	}).Info("Listing status updated")
	c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
}

func (h *Handler) GetNeighborhoodStats(c *gin.Context) {
	stats, err := h.store.ListNeighborhoodStats(c.Request.Context(), c.Query("city"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get neighborhood stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get neighborhood stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetStats(c *gin.Context) {
	summary, err := h.store.Summary(c.Request.Context(), h.now().Add(-24*time.Hour))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stats"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) GetFilters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"filters": h.filters.Summary()})
}

func (h *Handler) handleStoreError(c *gin.Context, err error, msg string) {
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}
	h.logger.WithError(err).Error(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func listingID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing id"})
		return 0, false
	}
	return uint(id), true
}

func optionalFloat(c *gin.Context, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
