package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

var (
	RepoPath        = "."
	ContentDir      = "content"
	MediaDir        = "public/assets"
	PublicMediaPath = "/assets"
	ConfigFile      = "postlint.yml"

	// Server settings
	ServerAddr    = ":8080"
	SessionSecret = "postlint-dev-secret"

	// Cache settings
	CacheConcurrency = 20

	// Logging
	LogLevel  = "info"
	LogFormat = "text"

	// Git settings
	GitBaseRef = ""
)

var OauthConf *oauth2.Config

// Init loads .env (when present) and the process environment. It reports
// whether a .env file was read.
func Init() bool {
	envLoaded := godotenv.Load() == nil

	// Helper to get env with default
	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	RepoPath = getEnv("REPO_PATH", RepoPath)
	ContentDir = getEnv("CONTENT_DIR", ContentDir)
	MediaDir = getEnv("MEDIA_DIR", MediaDir)
	PublicMediaPath = getEnv("PUBLIC_MEDIA_PATH", PublicMediaPath)
	ConfigFile = getEnv("POSTLINT_CONFIG", ConfigFile)

	ServerAddr = getEnv("SERVER_ADDR", ServerAddr)
	SessionSecret = getEnv("SESSION_SECRET", SessionSecret)

	LogLevel = getEnv("LOG_LEVEL", LogLevel)
	LogFormat = getEnv("LOG_FORMAT", LogFormat)

	GitBaseRef = getEnv("GIT_BASE_REF", GitBaseRef)

	if cc := os.Getenv("CACHE_CONCURRENCY"); cc != "" {
		if val, err := strconv.Atoi(cc); err == nil && val > 0 {
			CacheConcurrency = val
		}
	}

	OauthConf = nil
	if clientID := os.Getenv("GITHUB_CLIENT_ID"); clientID != "" {
		redirectURL := getEnv("GITHUB_REDIRECT_URL", GetAppURL()+"/auth/callback")
		OauthConf = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
			Scopes:       []string{"read:user"},
			Endpoint:     github.Endpoint,
			RedirectURL:  redirectURL,
		}
	}

	return envLoaded
}

func GetAppURL() string {
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:8080"
	}
	return appURL
}

// AuthEnabled reports whether the API sits behind the GitHub login.
func AuthEnabled() bool {
	return OauthConf != nil
}

// ContentPath is the absolute-or-relative directory holding collections.
func ContentPath() string {
	return filepath.Join(RepoPath, ContentDir)
}

func MediaPath() string {
	return filepath.Join(RepoPath, MediaDir)
}

// SettingsPath resolves the lint settings file against the repo root.
func SettingsPath() string {
	if filepath.IsAbs(ConfigFile) {
		return ConfigFile
	}
	return filepath.Join(RepoPath, ConfigFile)
}
