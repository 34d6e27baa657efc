package routes

import (
	"fmt"
	"net/http"

	"github.com/jane4246/coffee-advisory/auth"
	"github.com/jane4246/coffee-advisory/contacts"
	"github.com/jane4246/coffee-advisory/diagnoses"
	"github.com/jane4246/coffee-advisory/home"
	"github.com/jane4246/coffee-advisory/live"
	"github.com/jane4246/coffee-advisory/middleware"
	"github.com/jane4246/coffee-advisory/objects"
	"github.com/jane4246/coffee-advisory/ratelim"
	"github.com/jane4246/coffee-advisory/tips"
	"github.com/julienschmidt/httprouter"
)

func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func AddHealthRoutes(router *httprouter.Router) {
	router.GET("/health", Index)
}

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rl.Limit(auth.Register))
	router.POST("/api/auth/login", rl.Limit(auth.Login))
}

func AddDiagnosisRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/diagnoses", diagnoses.GetDiagnoses)
	router.GET("/api/diagnoses/:id", diagnoses.GetDiagnosis)
	router.POST("/api/diagnoses", rl.Limit(middleware.OptionalAuth(diagnoses.CreateDiagnosis)))
}

func AddTipRoutes(router *httprouter.Router) {
	router.GET("/api/farming-tips", tips.GetFarmingTips)
	router.POST("/api/farming-tips", middleware.Authenticate(tips.CreateFarmingTip))
}

func AddContactRoutes(router *httprouter.Router) {
	router.GET("/api/emergency-contacts", contacts.GetEmergencyContacts)
	router.POST("/api/emergency-contacts", middleware.Authenticate(contacts.CreateEmergencyContact))
}

func AddObjectRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/objects/upload", rl.Limit(objects.RequestUploadURL))
	router.PUT("/api/objects/uploads/:id", rl.Limit(objects.UploadObject))
	router.PUT("/api/plant-images", objects.SetPlantImage)
	router.GET("/objects/*path", objects.ServeObject)
}

func AddHomeRoutes(router *httprouter.Router) {
	router.GET("/api/home/:section", middleware.OptionalAuth(home.GetHomeContent))
}

func AddLiveRoutes(router *httprouter.Router, hub *live.Hub) {
	router.GET("/ws/diagnoses", hub.Handler())
}
