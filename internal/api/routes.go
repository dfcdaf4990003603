package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with CORS and every route registered
func NewRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
	}))
	SetupRoutes(router, handler)
	return router
}

func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", handler.Health)

	api := router.Group("/api")
	{
		api.GET("/listings", handler.GetListings)
		api.GET("/listings/:id", handler.GetListing)
		api.GET("/listings/:id/price-history", handler.GetPriceHistory)
		api.POST("/listings/:id/status", handler.UpdateStatus)
		api.GET("/neighborhood-stats", handler.GetNeighborhoodStats)
		api.GET("/stats", handler.GetStats)
		api.GET("/filters", handler.GetFilters)
	}
}
