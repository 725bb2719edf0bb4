package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/logger"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/service"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/transport/rest/handler"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/transport/rest/middleware"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService
	SurveyService   *service.SurveyService
	PurchaseService *service.PurchaseService
	ResponseService *service.ResponseService
	ReportService   *service.ReportService
	WSHub           *ws.Hub
	AllowedOrigins  []string
	Logger          *logger.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	surveyHandler := handler.NewSurveyHandler(c.SurveyService, c.PurchaseService)
	catalogHandler := handler.NewCatalogHandler(c.SurveyService, c.PurchaseService)
	purchaseHandler := handler.NewPurchaseHandler(c.PurchaseService)
	takeHandler := handler.NewTakeHandler(c.ResponseService)
	reportHandler := handler.NewReportHandler(c.ReportService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.PurchaseService, c.AllowedOrigins, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	r.Use(middleware.CORS(c.AllowedOrigins))
	r.Use(middleware.RequestLogger(c.Logger.Component("http")))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/auth/guest", authHandler.Guest).Methods("POST", "OPTIONS")
	v1.HandleFunc("/take/{publicId}", takeHandler.Form).Methods("GET", "OPTIONS")
	v1.HandleFunc("/take/{publicId}", takeHandler.Submit).Methods("POST", "OPTIONS")
	v1.HandleFunc("/take/{publicId}/complete", takeHandler.Complete).Methods("GET", "OPTIONS")

	// Catalog reads are public; staff also see unpublished surveys
	catalogRoutes := v1.NewRoute().Subrouter()
	catalogRoutes.Use(authMW.OptionalStaff)
	catalogRoutes.HandleFunc("/catalog", catalogHandler.List).Methods("GET", "OPTIONS")
	catalogRoutes.HandleFunc("/catalog/{slug}", catalogHandler.Get).Methods("GET", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/purchases/{publicId}", wsHandler.PurchaseWS).Methods("GET")

	// Staff routes
	staffRoutes := v1.NewRoute().Subrouter()
	staffRoutes.Use(authMW.RequireStaff)

	staffRoutes.HandleFunc("/surveys", surveyHandler.Create).Methods("POST", "OPTIONS")
	staffRoutes.HandleFunc("/surveys", surveyHandler.List).Methods("GET", "OPTIONS")
	staffRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.Get).Methods("GET", "OPTIONS")
	staffRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.Update).Methods("PUT", "OPTIONS")
	staffRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.Delete).Methods("DELETE", "OPTIONS")
	staffRoutes.HandleFunc("/surveys/{surveyId}/codes", surveyHandler.CreateCode).Methods("POST", "OPTIONS")
	staffRoutes.HandleFunc("/surveys/{surveyId}/codes", surveyHandler.ListCodes).Methods("GET", "OPTIONS")

	// Purchaser routes
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/catalog/{slug}/purchase", catalogHandler.Purchase).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/purchases", purchaseHandler.List).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/purchases/{publicId}", purchaseHandler.Get).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/reports/{publicId}", reportHandler.Get).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/reports/{publicId}", reportHandler.Generate).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/reports/{publicId}/export.xlsx", reportHandler.Export).Methods("GET", "OPTIONS")

	return r
}
