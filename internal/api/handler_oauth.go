package api

import (
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/semmidev/keeper/internal/infrastructure/logger"
)

// OAuthHandler walks an operator through the Google consent screen and shows
// the refresh token to put into the gdrive upload target.
type OAuthHandler struct {
	logger *logger.Logger
	config *oauth2.Config
	state  string
}

func NewOAuthHandler(log *logger.Logger, config *oauth2.Config) *OAuthHandler {
	return &OAuthHandler{
		logger: log,
		config: config,
		state:  uuid.NewString(),
	}
}

type oauthTokenResponse struct {
	RefreshToken string        `json:"refreshToken"`
	Token        *oauth2.Token `json:"token"`
}

func (h *OAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	authURL := h.config.AuthCodeURL(h.state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	log := LoggerFromContext(h.logger, r.Context())
	query := r.URL.Query()

	if query.Get("state") != h.state {
		writeJSON(w, log, http.StatusBadRequest, errorResponse{Error: "Invalid OAuth state"})
		return
	}

	code := query.Get("code")
	if code == "" {
		writeJSON(w, log, http.StatusBadRequest, errorResponse{Error: "Missing code parameter"})
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		log.Errorf("Google OAuth token exchange failed: %v", err)
		writeJSON(w, log, http.StatusBadGateway, errorResponse{Error: "Token exchange failed", Detail: err.Error()})
		return
	}

	if token.RefreshToken == "" {
		writeJSON(w, log, http.StatusBadGateway, errorResponse{
			Error:  "No refresh token returned",
			Detail: "revoke the app's access in the Google account and authorize again",
		})
		return
	}

	log.Infof("Google Drive authorized; copy the refresh token into the gdrive upload target")
	writeJSON(w, log, http.StatusOK, oauthTokenResponse{RefreshToken: token.RefreshToken, Token: token})
}
