package server

import (
	"github.com/gin-gonic/gin"

	"droscher.com/DramGargoyle/pkg/auth"
)

// NewRouter registers every API route. AddUser sits outside the JWT group so
// a user record can be created before its first authenticated call; the
// admin group takes the automation token instead of a user identity.
func NewRouter(authManager *auth.Manager, users *UserServer, whiskeys *WhiskeyServer, cabinets *CabinetServer, pours *PourServer, admin *AdminServer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api/v1")

	api.POST("/users", users.AddUser)

	authed := api.Group("", authManager.Middleware())
	{
		authed.GET("/users/me", users.GetCurrentUser)

		authed.GET("/whiskeys/search", whiskeys.FindWhiskey)
		authed.POST("/whiskeys", whiskeys.AddWhiskey)

		authed.POST("/cabinets", cabinets.AddCabinet)
		authed.GET("/cabinets", cabinets.ListCabinets)
		authed.GET("/cabinets/:id", cabinets.GetCabinet)
		authed.GET("/cabinets/:id/stats", cabinets.GetCabinetStats)
		authed.GET("/cabinets/:id/bottles", cabinets.ListBottles)
		authed.POST("/cabinets/:id/bottles", cabinets.AddBottle)

		authed.POST("/bottles/:id/open", pours.OpenBottle)
		authed.POST("/bottles/:id/pours", pours.RecordPour)
		authed.GET("/bottles/:id/pours", pours.ListBottlePours)
		authed.PUT("/bottles/:id/fill-level", pours.AdjustFillLevel)
		authed.POST("/bottles/:id/fill-level/recalculate", pours.RecalculateFillLevel)
		authed.GET("/bottles/:id/fill-level/history", pours.GetFillLevelHistory)

		authed.DELETE("/pours/:id", pours.DeletePour)

		authed.GET("/sessions", pours.ListSessions)
		authed.GET("/sessions/:id", pours.GetSession)
	}

	automated := api.Group("/admin", authManager.AutomationMiddleware())
	{
		automated.POST("/sweep-orphans", admin.SweepOrphans)
		automated.POST("/aggregate-ratings", admin.AggregateRatings)
	}

	return router
}
