package server

import (
	"net/http"

	handler "auction-bidsync/services/bidding/handler"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// SetupRouter configures all Gin routes of the viewer API
func SetupRouter(svc handler.SessionServiceInterface) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware)
	router.Use(RequestLoggerMiddleware)

	sessionHandler := handler.NewSessionHandler(svc)

	sess := router.Group("/session")
	{
		sess.GET("", sessionHandler.GetSessionHandler)
		sess.GET("/members", sessionHandler.GetMembersHandler)
		sess.POST("/bids", sessionHandler.PlaceBidHandler)
		sess.POST("/refresh", sessionHandler.RefreshHandler)
		sess.POST("/leave", sessionHandler.LeaveHandler)
	}

	return router
}

// WithCORS lets a browser UI on one of origins call the viewer API
func WithCORS(h http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: origins,
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})
	return c.Handler(h)
}
