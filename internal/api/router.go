package api

import (
	"net/http"

	"github.com/Rrens/teamspace/internal/api/handler"
	customMiddleware "github.com/Rrens/teamspace/internal/api/middleware"
	"github.com/Rrens/teamspace/internal/audit"
	"github.com/Rrens/teamspace/internal/authz"
	"github.com/Rrens/teamspace/internal/config"
	"github.com/Rrens/teamspace/internal/domain"
	"github.com/Rrens/teamspace/internal/rbac"
	"github.com/Rrens/teamspace/internal/repository/postgres"
	"github.com/Rrens/teamspace/internal/repository/redis"
	"github.com/Rrens/teamspace/internal/security"
	"github.com/Rrens/teamspace/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// NewRouter creates and configures the HTTP router. auditStore receives
// the audit trail; it is either the postgres repository or the embedded
// sqlite store depending on configuration.
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client, auditStore domain.AuditRepository) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", customMiddleware.WorkspaceHeader},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	// Initialize security components
	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	orgRepo := postgres.NewOrganizationRepository(db)
	workspaceRepo := postgres.NewWorkspaceRepository(db)
	invitationRepo := postgres.NewInvitationRepository(db)
	taskRepo := postgres.NewTaskRepository(db)

	// Authorization: one registry for the life of the process
	registry := rbac.NewRegistry()
	resolverOpts := []authz.ResolverOption{authz.WithStrictRoles(cfg.Authz.StrictRoleResolution)}
	if cfg.Authz.RoleCacheTTL > 0 {
		resolverOpts = append(resolverOpts, authz.WithIdentityCache(redis.NewIdentityCache(redisClient, cfg.Authz.RoleCacheTTL)))
	} else {
		log.Info().Msg("identity cache disabled")
	}
	resolver := authz.NewResolver(userRepo, workspaceRepo, resolverOpts...)
	gate := authz.NewGate(registry, resolver)
	recorder := audit.NewRecorder(auditStore, cfg.Authz.AuditWriteTimeout)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, cfg.Auth.BcryptCost)
	orgService := service.NewOrganizationService(orgRepo, userRepo, gate, recorder)
	workspaceService := service.NewWorkspaceService(workspaceRepo, orgRepo, gate, recorder)
	invitationService := service.NewInvitationService(invitationRepo, userRepo, workspaceRepo, gate, recorder, cfg.Authz.InvitationTTL)
	taskService := service.NewTaskService(taskRepo)
	adminService := service.NewAdminService(userRepo, gate, recorder)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, registry)
	orgHandler := handler.NewOrganizationHandler(orgService)
	workspaceHandler := handler.NewWorkspaceHandler(workspaceService)
	invitationHandler := handler.NewInvitationHandler(invitationService)
	taskHandler := handler.NewTaskHandler(taskService)
	adminHandler := handler.NewAdminHandler(adminService)

	// Auth middleware
	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager)
	authorizer := customMiddleware.NewAuthorizer(gate, cfg.App.IsProduction())
	orgGate := authorizer.RequireOrganizationPermission
	wsGate := authorizer.RequireWorkspacePermission
	sysGate := authorizer.RequirePermission

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(map[string]handler.Pinger{
			"database": db,
			"redis":    redisClient,
		}))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(authorizer.RequireActive)
			if cfg.Security.RateLimit.Enabled {
				rateLimiter := redis.NewRateLimiter(
					redisClient,
					cfg.Security.RateLimit.RequestsPerMinute,
					cfg.Security.RateLimit.Burst,
				)
				r.Use(customMiddleware.NewRateLimitMiddleware(rateLimiter).Limit)
			}

			r.Get("/auth/me", authHandler.Me)

			r.Route("/organizations", func(r chi.Router) {
				r.Post("/", orgHandler.Create)

				r.Route("/current", func(r chi.Router) {
					r.With(orgGate(rbac.PermViewOrganization)).Get("/", orgHandler.Get)
					r.With(orgGate(rbac.PermManageOrganization)).Patch("/", orgHandler.Update)

					r.With(orgGate(rbac.PermViewMembers)).Get("/members", orgHandler.ListMembers)
					r.With(orgGate(rbac.PermManageOrganizationMembers)).Patch("/members/{userID}/role", orgHandler.UpdateMemberRole)
					r.With(orgGate(rbac.PermManageOrganizationMembers)).Patch("/members/{userID}/status", orgHandler.UpdateMemberStatus)

					r.With(orgGate(rbac.PermViewAuditLogs)).Get("/audit-logs", orgHandler.ListAuditLogs)

					r.With(orgGate(rbac.PermInviteOrganizationMembers)).Post("/invitations", invitationHandler.InviteToOrganization)
					r.With(orgGate(rbac.PermInviteOrganizationMembers)).Get("/invitations", invitationHandler.ListForOrganization)
				})
			})

			r.Route("/invitations", func(r chi.Router) {
				r.Get("/", invitationHandler.ListMine)
				r.Post("/{invitationID}/accept", invitationHandler.Accept)
				r.Post("/{invitationID}/decline", invitationHandler.Decline)
			})

			// Workspace routes
			r.Route("/workspaces", func(r chi.Router) {
				r.Get("/", workspaceHandler.List)
				r.With(orgGate(rbac.PermCreateWorkspaces)).Post("/", workspaceHandler.Create)

				r.Route("/{workspaceID}", func(r chi.Router) {
					r.With(wsGate(rbac.PermViewWorkspaces)).Get("/", workspaceHandler.Get)
					r.With(wsGate(rbac.PermManageWorkspace)).Patch("/", workspaceHandler.Update)
					r.With(orgGate(rbac.PermDeleteWorkspaces)).Delete("/", workspaceHandler.Delete)

					r.Route("/members", func(r chi.Router) {
						r.With(wsGate(rbac.PermViewMembers)).Get("/", workspaceHandler.ListMembers)
						r.With(wsGate(rbac.PermViewWorkspaces)).Delete("/me", workspaceHandler.Leave)
						r.With(wsGate(rbac.PermManageWorkspaceMembers)).Patch("/{userID}", workspaceHandler.UpdateMemberRole)
						r.With(wsGate(rbac.PermManageWorkspaceMembers)).Delete("/{userID}", workspaceHandler.RemoveMember)
					})

					r.With(wsGate(rbac.PermInviteWorkspaceMembers)).Post("/invitations", invitationHandler.InviteToWorkspace)

					r.Route("/tasks", func(r chi.Router) {
						r.With(wsGate(rbac.PermViewTasks)).Get("/", taskHandler.List)
						r.With(wsGate(rbac.PermCreateTasks)).Post("/", taskHandler.Create)

						r.Route("/{taskID}", func(r chi.Router) {
							r.Use(wsGate(rbac.PermViewTasks))

							r.Get("/", taskHandler.Get)
							r.With(authorizer.RequireOwnershipOrRole(taskHandler.Owners, rbac.RoleManager)).Patch("/", taskHandler.Update)
							r.With(authorizer.RequireOwnershipOrRole(taskHandler.Owners, rbac.RoleManager)).Delete("/", taskHandler.Delete)
						})
					})
				})
			})

			// System administration
			r.Route("/admin/users", func(r chi.Router) {
				r.With(sysGate(rbac.PermViewAllUsers)).Get("/", adminHandler.ListUsers)
				r.With(sysGate(rbac.PermManageSystemRoles)).Patch("/{userID}/role", adminHandler.UpdateUserRole)
				r.With(sysGate(rbac.PermManageAllUsers)).Patch("/{userID}/status", adminHandler.UpdateUserStatus)
			})
		})
	})

	return r
}
