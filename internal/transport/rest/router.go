package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/staff-management/internal/accessrequest"
	"github.com/frahmantamala/staff-management/internal/attachment"
	"github.com/frahmantamala/staff-management/internal/auth"
	"github.com/frahmantamala/staff-management/internal/carpass"
	"github.com/frahmantamala/staff-management/internal/cookie"
	"github.com/frahmantamala/staff-management/internal/employee"
	"github.com/frahmantamala/staff-management/internal/idrequest"
	"github.com/frahmantamala/staff-management/internal/incident"
	"github.com/frahmantamala/staff-management/internal/settings"
	"github.com/frahmantamala/staff-management/internal/transport"
	"github.com/frahmantamala/staff-management/internal/transport/middleware"
	"github.com/frahmantamala/staff-management/internal/transport/swagger"
	"github.com/frahmantamala/staff-management/internal/user"
)

// Handlers groups every route handler; a nil handler leaves its routes out.
type Handlers struct {
	Health        *HealthHandler
	Auth          *auth.Handler
	User          *user.Handler
	Employee      *employee.Handler
	Incident      *incident.Handler
	CarPass       *carpass.Handler
	IDRequest     *idrequest.Handler
	AccessRequest *accessrequest.Handler
	Settings      *settings.Handler
	Attachment    *attachment.Handler
	OpenAPI       *swagger.Document
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, gate *auth.Gate, cookies *cookie.Codec, logger *slog.Logger) {
	base := transport.NewBaseHandler(logger, cookies)

	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	if h.Health != nil {
		router.Get("/health", h.Health.Health)
		router.Get("/ping", h.Health.Ping)
	}
	if h.OpenAPI != nil {
		router.Handle(swagger.DocumentPath, h.OpenAPI)
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Group(func(r chi.Router) {
		r.Use(middleware.CSRF(cookies, logger))

		if h.Auth != nil {
			r.Group(func(pr chi.Router) {
				pr.Use(middleware.Honeypot(logger))
				pr.Get("/login", h.Auth.LoginPage)
				pr.Post("/login", h.Auth.Login)
				pr.Post("/logout", h.Auth.Logout)
				pr.Post("/signup", h.Auth.Signup)
				pr.Get("/verify", h.Auth.VerifyPage)
				pr.Post("/verify", h.Auth.Verify)
				pr.Post("/onboarding", h.Auth.Onboarding)
				pr.Post("/reset-password", h.Auth.ResetPassword)
				pr.Post("/theme", h.Auth.Theme)
			})
		}

		r.Route("/dashboard", func(dr chi.Router) {
			dr.Use(middleware.RequireSession(gate, base))
			dr.Use(middleware.UserContext)

			if h.User != nil {
				dr.Get("/", h.User.Me)
				dr.Get("/me", h.User.Me)
			}

			if h.Employee != nil {
				dr.Route("/employees", func(er chi.Router) {
					er.Use(middleware.RequireRoles(gate, base, auth.RoleAdmin, auth.RoleHR))
					er.Get("/", h.Employee.List)
					er.Get("/export", h.Employee.Export)
					er.Get("/{id}", h.Employee.Detail)
					er.Post("/editor", h.Employee.Editor)
				})
			}

			if h.Incident != nil {
				dr.Route("/incidents", func(ir chi.Router) {
					ir.Use(middleware.RequirePermission(gate, base, "incident:read:any"))
					ir.Get("/", h.Incident.List)
					ir.Get("/{id}", h.Incident.Detail)
					ir.Post("/editor", h.Incident.Editor)
				})
			}

			// Request modules resolve own/any scope per call.
			if h.CarPass != nil {
				dr.Get("/car-passes", h.CarPass.List)
				dr.Get("/car-passes/{id}", h.CarPass.Detail)
				dr.Post("/car-passes/editor", h.CarPass.Editor)
			}
			if h.IDRequest != nil {
				dr.Get("/id-requests", h.IDRequest.List)
				dr.Get("/id-requests/{id}", h.IDRequest.Detail)
				dr.Post("/id-requests/editor", h.IDRequest.Editor)
			}
			if h.AccessRequest != nil {
				dr.Get("/access-requests", h.AccessRequest.List)
				dr.Get("/access-requests/{id}", h.AccessRequest.Detail)
				dr.Post("/access-requests/editor", h.AccessRequest.Editor)
			}

			dr.Route("/settings", func(sr chi.Router) {
				sr.Use(middleware.RequireRoles(gate, base, auth.RoleAdmin))
				if h.Settings != nil {
					for _, kind := range settings.Kinds {
						sr.Get("/"+string(kind), h.Settings.List(kind))
						sr.Post("/"+string(kind)+"/editor", h.Settings.Editor(kind))
					}
				}
				if h.User != nil {
					sr.Get("/roles", h.User.Roles)
					sr.Post("/roles/editor", h.User.RoleEditor)
					sr.Get("/users", h.User.Users)
					sr.Post("/users/editor", h.User.UserEditor)
				}
			})
		})

		if h.Attachment != nil {
			r.With(middleware.RequireSession(gate, base)).Get("/attachments/{id}", h.Attachment.Download)
		}
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		base.WriteError(w, http.StatusNotFound, "Page not found")
	})
}
