// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// forum API. Routes live under /api/v1, grouped by resource, with CSRF
// protection on every state-changing group and RequireAuth only where a
// session is a precondition rather than a store-level decision.
package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"threadpress/internal/handlers"
	"threadpress/internal/middleware"
	"threadpress/internal/session"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessionStore *session.Store, auth *handlers.Auth, forum *handlers.Forum, users *handlers.Users, health *handlers.Health) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))

	// Operational endpoints — no auth, no CSRF.
	r.Get("/health", health.Check)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CSRF)

		// Authentication.
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", auth.Register)
			r.Post("/login", auth.Login)
			r.Post("/logout", auth.Logout)
			r.With(middleware.RequireAuth).Get("/me", auth.Me)
		})

		// Categories — reads are public, management is admin-gated in the
		// store layer.
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", forum.ListCategories)
			r.With(middleware.RequireAuth).Post("/", forum.CreateCategory)

			r.Route("/{categoryID}", func(r chi.Router) {
				r.Get("/", forum.GetCategory)
				r.Get("/threads", forum.ListThreads)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAuth)
					r.Put("/", forum.UpdateCategory)
					r.Delete("/", forum.DeleteCategory)
					r.Post("/move-up", forum.MoveCategoryUp)
					r.Post("/move-down", forum.MoveCategoryDown)
				})
			})
		})

		// Threads and their posts.
		r.Route("/threads", func(r chi.Router) {
			r.With(middleware.RequireAuth).Post("/", forum.CreateThread)

			r.Route("/{threadID}", func(r chi.Router) {
				r.Get("/", forum.GetThread)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAuth)
					r.Put("/", forum.UpdateThread)
					r.Delete("/", forum.DeleteThread)
					r.Post("/posts", forum.CreatePost)
					r.Delete("/posts/{postID}", forum.DeletePost)
				})
			})
		})

		// Posts addressed directly (edits only; deletes go through the
		// owning thread).
		r.With(middleware.RequireAuth).Put("/posts/{postID}", forum.UpdatePost)

		// Profiles and role administration.
		r.Get("/users/{username}", users.Profile)
		r.With(middleware.RequireAuth).Put("/me", users.UpdateMe)
		r.With(middleware.RequireAuth).Put("/users/{userID}/role", users.SetRole)
	})

	return r
}
