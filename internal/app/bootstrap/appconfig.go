// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (HTTP ports, TLS,
// logging, CORS). AppConfig is everything specific to SoundCircle:
// database connection strings, session cookies, file storage, and the
// Google OAuth credentials.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase string // Database name within MongoDB

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: soundcircle-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionTTL    time.Duration // How long a session cookie stays valid

	// File storage configuration
	StorageType      string // Storage backend: "local" (S3 support can slot in later)
	StorageLocalPath string // Local storage path (e.g., "./uploads/tracks")

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Base URL used to build invite links and OAuth callbacks
	BaseURL string // e.g., "https://soundcircle.app" or "http://localhost:8080"
}
