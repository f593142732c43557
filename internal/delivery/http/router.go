package http

import (
	"net/http"

	"telehealth-service/internal/delivery/http/handler"
	"telehealth-service/internal/delivery/http/middleware"
	"telehealth-service/internal/infrastructure/metrics"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	authHandler         *handler.AuthHandler
	appointmentHandler  *handler.AppointmentHandler
	availabilityHandler *handler.AvailabilityHandler
	doctorHandler       *handler.DoctorHandler
	auditLogHandler     *handler.AuditLogHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
	metrics             *metrics.Collector
	bookingPerMinute    int
}

func NewRouter(
	authHandler *handler.AuthHandler,
	appointmentHandler *handler.AppointmentHandler,
	availabilityHandler *handler.AvailabilityHandler,
	doctorHandler *handler.DoctorHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	metrics *metrics.Collector,
	bookingPerMinute int,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		authHandler:         authHandler,
		appointmentHandler:  appointmentHandler,
		availabilityHandler: availabilityHandler,
		doctorHandler:       doctorHandler,
		auditLogHandler:     auditLogHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
		metrics:             metrics,
		bookingPerMinute:    bookingPerMinute,
	}
}

// Setup registers every route. CORS wraps the whole router so preflight
// requests are answered before mux looks for a matching method.
func (r *Router) Setup() http.Handler {
	// Operational endpoints
	r.router.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)
	r.router.Handle("/metrics", r.metrics.Handler()).Methods(http.MethodGet)

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register/patient", r.authHandler.RegisterPatient).Methods(http.MethodPost)
	auth.HandleFunc("/register/doctor", r.authHandler.RegisterDoctor).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	// Patient routes
	patient := api.PathPrefix("/appointment").Subrouter()
	patient.Use(r.authMiddleware.Authenticate)
	patient.Use(middleware.RequirePatient)
	patient.Handle("/book", middleware.BookingRateLimit(r.bookingPerMinute)(http.HandlerFunc(r.appointmentHandler.Book))).Methods(http.MethodPost)
	patient.HandleFunc("/cancel/{id}", r.appointmentHandler.Cancel).Methods(http.MethodPut)
	patient.HandleFunc("/my-appointments", r.appointmentHandler.GetMyAppointments).Methods(http.MethodGet)

	// Doctor routes
	doctorAppointment := api.PathPrefix("/appointment").Subrouter()
	doctorAppointment.Use(r.authMiddleware.Authenticate)
	doctorAppointment.Use(middleware.RequireDoctor)
	doctorAppointment.HandleFunc("/confirm/{id}", r.appointmentHandler.Confirm).Methods(http.MethodPatch)
	doctorAppointment.HandleFunc("/doctor-cancel/{id}", r.appointmentHandler.DoctorCancel).Methods(http.MethodPut)
	doctorAppointment.HandleFunc("/doctor-appointments", r.appointmentHandler.GetDoctorAppointments).Methods(http.MethodGet)

	doctor := api.NewRoute().Subrouter()
	doctor.Use(r.authMiddleware.Authenticate)
	doctor.Use(middleware.RequireDoctor)
	doctor.HandleFunc("/appointments/{id}/complete", r.appointmentHandler.Complete).Methods(http.MethodPost)
	doctor.HandleFunc("/doctor/availability", r.availabilityHandler.SetMyAvailability).Methods(http.MethodPut)
	doctor.HandleFunc("/doctor/my-patients", r.doctorHandler.GetMyPatients).Methods(http.MethodGet)

	// Any authenticated role
	authenticated := api.PathPrefix("/doctors").Subrouter()
	authenticated.Use(r.authMiddleware.Authenticate)
	authenticated.HandleFunc("", r.doctorHandler.SearchDoctors).Methods(http.MethodGet)
	authenticated.HandleFunc("/{id}", r.doctorHandler.GetBookableDoctor).Methods(http.MethodGet)
	authenticated.HandleFunc("/{id}/availability", r.availabilityHandler.GetAvailability).Methods(http.MethodGet)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)

	// Doctor management (admin)
	admin.HandleFunc("/doctors", r.doctorHandler.GetAllDoctors).Methods(http.MethodGet)
	admin.HandleFunc("/doctors/pending", r.doctorHandler.GetPendingDoctors).Methods(http.MethodGet)
	admin.HandleFunc("/doctors/{id}", r.doctorHandler.GetDoctor).Methods(http.MethodGet)
	admin.HandleFunc("/doctors/{id}/verify", r.doctorHandler.VerifyDoctor).Methods(http.MethodPatch)
	admin.HandleFunc("/doctors/{id}/availability", r.availabilityHandler.SetDoctorAvailability).Methods(http.MethodPatch)

	// Reporting (admin)
	admin.HandleFunc("/appointments", r.appointmentHandler.GetAllAppointments).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	r.router.Use(r.metrics.HTTPMiddleware)

	return r.corsMiddleware.Handle(r.router)
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
