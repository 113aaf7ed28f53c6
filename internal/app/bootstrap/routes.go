// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	apifeature "github.com/soundcircle/soundcircle/internal/app/features/api"
	authgooglefeature "github.com/soundcircle/soundcircle/internal/app/features/authgoogle"
	dashboardfeature "github.com/soundcircle/soundcircle/internal/app/features/dashboard"
	errorsfeature "github.com/soundcircle/soundcircle/internal/app/features/errors"
	groupsfeature "github.com/soundcircle/soundcircle/internal/app/features/groups"
	healthfeature "github.com/soundcircle/soundcircle/internal/app/features/health"
	homefeature "github.com/soundcircle/soundcircle/internal/app/features/home"
	invitesfeature "github.com/soundcircle/soundcircle/internal/app/features/invites"
	loginfeature "github.com/soundcircle/soundcircle/internal/app/features/login"
	logoutfeature "github.com/soundcircle/soundcircle/internal/app/features/logout"
	tracksfeature "github.com/soundcircle/soundcircle/internal/app/features/tracks"
	userstore "github.com/soundcircle/soundcircle/internal/app/store/users"
	"github.com/soundcircle/soundcircle/internal/app/system/auth"
	"github.com/soundcircle/soundcircle/internal/app/system/filestore"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. SoundCircle initializes the template
// engine, applies session middleware, and mounts feature routers for the
// public pages, authentication, groups, invites, tracks, and the JSON API.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionTTL, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fresh user data is fetched on each request so disabled accounts and
	// profile changes take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	// File storage backend for uploaded tracks.
	store, err := filestore.New(filestore.Config{
		Type:      appCfg.StorageType,
		LocalPath: appCfg.StorageLocalPath,
		LocalURL:  appCfg.BaseURL + "/files",
	})
	if err != nil {
		logger.Error("storage init failed", zap.Error(err))
		return nil, err
	}

	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	mountFiles(r, sessionMgr, appCfg.StorageLocalPath)

	// Public pages
	homeHandler := homefeature.NewHandler(logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, appCfg.GoogleClientID != "", logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))
	r.Mount("/signup", loginfeature.SignupRoutes(loginHandler))

	googleHandler := authgooglefeature.NewHandler(
		deps.MongoDatabase,
		sessionMgr,
		appCfg.GoogleClientID,
		appCfg.GoogleClientSecret,
		appCfg.BaseURL,
		secure,
		logger,
	)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)
	r.NotFound(errorsHandler.NotFound)

	// Dashboard
	dashboardHandler := dashboardfeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	// Groups
	groupsHandler := groupsfeature.NewHandler(deps.MongoDatabase, errLog, appCfg.BaseURL, logger)
	r.Mount("/groups", groupsfeature.Routes(groupsHandler, sessionMgr))

	// Invite links (public; the handler bounces to login as needed)
	invitesHandler := invitesfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/invite", invitesfeature.Routes(invitesHandler))

	// Tracks and the library
	tracksHandler := tracksfeature.NewHandler(deps.MongoDatabase, errLog, store, appCfg.BaseURL, logger)
	r.Mount("/tracks", tracksfeature.Routes(tracksHandler, sessionMgr))
	r.Mount("/library", tracksfeature.LibraryRoutes(tracksHandler, sessionMgr))

	// JSON API
	apiHandler := apifeature.NewHandler(deps.MongoDatabase, store, appCfg.BaseURL, logger)
	r.Mount("/api", apifeature.Routes(apiHandler))

	return r, nil
}

// mountFiles serves uploaded blobs, addressed by their unguessable storage
// path, to signed-in users. The raw URLs mirror the upload API's fileUrl
// field; group membership is enforced on the curated access path
// /tracks/{id}/download.
func mountFiles(r chi.Router, sessionMgr *auth.SessionManager, dir string) {
	r.Group(func(gr chi.Router) {
		gr.Use(sessionMgr.RequireSignedIn)
		gr.Handle("/files/*", fileserver.Handler("/files", dir))
	})
}
