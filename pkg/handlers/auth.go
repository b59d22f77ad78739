package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"postlint/pkg/config"
	"postlint/pkg/logging"
)

const (
	sessionTokenKey = "access_token"
	sessionStateKey = "oauth_state"
)

// AuthRequired gates routes behind the GitHub login. Without OAuth settings the
// API is open, which is how the tool runs locally.
func AuthRequired(c *gin.Context) {
	if !config.AuthEnabled() {
		c.Next()
		return
	}
	session := sessions.Default(c)
	token := session.Get(sessionTokenKey)
	if token == nil {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		} else {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
		}
		return
	}
	c.Next()
}

func LoginPage(c *gin.Context) {
	if !config.AuthEnabled() {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.Redirect(http.StatusFound, "/login/github")
}

func GithubLogin(c *gin.Context) {
	if !config.AuthEnabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "GitHub login is not configured"})
		return
	}
	state, err := newState()
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to start login")
		return
	}
	session := sessions.Default(c)
	session.Set(sessionStateKey, state)
	if err := session.Save(); err != nil {
		c.String(http.StatusInternalServerError, "Failed to start login")
		return
	}
	url := config.OauthConf.AuthCodeURL(state, oauth2.AccessTypeOnline)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func AuthCallback(c *gin.Context) {
	if !config.AuthEnabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "GitHub login is not configured"})
		return
	}
	session := sessions.Default(c)
	expected, _ := session.Get(sessionStateKey).(string)
	if expected == "" || c.Query("state") != expected {
		c.String(http.StatusBadRequest, "OAuth state mismatch")
		return
	}

	token, err := config.OauthConf.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		logging.For("auth").WithError(err).Warn("oauth exchange failed")
		c.String(http.StatusInternalServerError, "OAuth Exchange Failed")
		return
	}

	session.Delete(sessionStateKey)
	session.Set(sessionTokenKey, token.AccessToken)
	if err := session.Save(); err != nil {
		c.String(http.StatusInternalServerError, "Failed to save session")
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Redirect(http.StatusFound, "/login")
}

func newState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
