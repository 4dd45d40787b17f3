package web

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/justestif/myvibelytics/internal/analytics"
	"github.com/justestif/myvibelytics/internal/auth"
	"github.com/justestif/myvibelytics/internal/db"
	"github.com/justestif/myvibelytics/internal/generate"
	"github.com/justestif/myvibelytics/internal/playlist"
	"github.com/justestif/myvibelytics/internal/spotify"
)

const appTitle = "MyVibeLytics"

// Authorizer runs the Spotify authorization-code flow.
type Authorizer interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, r *http.Request, state string) (*auth.TokenState, error)
}

// Tokens gives handlers access to stored credentials.
type Tokens interface {
	Store() auth.Store
	Disconnect(ctx context.Context, userID string, state *auth.TokenState) error
}

// Generator produces playlists and analytics for a user.
type Generator interface {
	Generate(ctx context.Context, userID string) (*playlist.Result, error)
	Profile(ctx context.Context, userID string) (*analytics.Profile, error)
	History(ctx context.Context, userID string) ([]db.GeneratedPlaylist, error)
	PlaylistCount(ctx context.Context, userID string) (int, error)
}

// UserRepository records Spotify profiles on login.
type UserRepository interface {
	Upsert(ctx context.Context, user *db.User) error
}

// ProfileFunc fetches the profile of the account that owns accessToken.
type ProfileFunc func(ctx context.Context, accessToken string) (*spotify.Profile, error)

// Pinger reports backing store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators used by Handlers. Users and DB may be nil.
type Deps struct {
	Auth      Authorizer
	Tokens    Tokens
	Generator Generator
	Sessions  SessionManager
	Templates *Templates
	Users     UserRepository
	Profiles  ProfileFunc
	DB        Pinger
	Logger    *zap.Logger
}

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps Deps) *Handlers {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Profiles == nil {
		deps.Profiles = func(ctx context.Context, accessToken string) (*spotify.Profile, error) {
			return spotify.NewFromToken(ctx, accessToken).CurrentProfile(ctx)
		}
	}
	return &Handlers{Deps: deps}
}

type sessionKey struct{}

// RequireSession redirects anonymous requests to the home page.
func (h *Handlers) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromRequest(h.Sessions, r)
		if session == nil {
			setFlash(w, "info", "Log in with Spotify to continue.")
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, session)))
	})
}

func currentSession(r *http.Request) *Session {
	session, _ := r.Context().Value(sessionKey{}).(*Session)
	return session
}

// pageData builds the common page fields and consumes any pending flash.
func (h *Handlers) pageData(w http.ResponseWriter, r *http.Request, title string, session *Session) PageData {
	data := PageData{
		Title:       title,
		Flash:       popFlash(w, r),
		CurrentPath: r.URL.Path,
	}
	if session != nil {
		data.User = &UserData{ID: session.UserID, Connected: h.connected(r.Context(), session.UserID)}
	}
	return data
}

func (h *Handlers) connected(ctx context.Context, userID string) bool {
	state, err := h.Tokens.Store().Read(ctx, userID)
	return err == nil && state.AccessToken != ""
}

func (h *Handlers) render(w http.ResponseWriter, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.Templates.Render(w, page, data); err != nil {
		h.Logger.Error("rendering template", zap.String("page", page), zap.Error(err))
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	session := sessionFromRequest(h.Sessions, r)

	h.render(w, "home", HomePageData{
		PageData:      h.pageData(w, r, appTitle, session),
		Authenticated: session != nil,
	})
}

// Login initiates the Spotify OAuth flow (GET /auth/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	state, err := auth.GenerateState()
	if err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})

	http.Redirect(w, r, h.Auth.AuthURL(state), http.StatusTemporaryRedirect)
}

// Callback handles the OAuth callback from Spotify (GET /callback).
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil {
		http.Error(w, "Missing state cookie", http.StatusBadRequest)
		return
	}
	clearCookie(w, stateCookieName)

	ctx := r.Context()
	state, err := h.Auth.Exchange(ctx, r, stateCookie.Value)
	switch {
	case errors.Is(err, auth.ErrStateMismatch):
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	case errors.Is(err, auth.ErrAuthorizationDenied):
		setFlash(w, "error", "Spotify authorization was cancelled.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	case err != nil:
		h.Logger.Warn("token exchange failed", zap.Error(err))
		http.Error(w, "Failed to get token", http.StatusInternalServerError)
		return
	}

	profile, err := h.Profiles(ctx, state.AccessToken)
	if err != nil {
		h.Logger.Warn("fetching spotify profile", zap.Error(err))
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}
	log := h.Logger.With(zap.String("user_id", profile.ID))

	if h.Users != nil {
		user := &db.User{
			ID:          profile.ID,
			DisplayName: profile.DisplayName,
			Email:       profile.Email,
		}
		if profile.AvatarURL != "" {
			user.AvatarURL = &profile.AvatarURL
		}
		if err := h.Users.Upsert(ctx, user); err != nil {
			log.Error("saving user", zap.Error(err))
			http.Error(w, "Failed to save user", http.StatusInternalServerError)
			return
		}
	}

	if err := h.Tokens.Store().Write(ctx, profile.ID, state); err != nil {
		log.Error("saving token state", zap.Error(err))
		http.Error(w, "Failed to save credentials", http.StatusInternalServerError)
		return
	}

	session, err := h.Sessions.Create(ctx, profile.ID)
	if err != nil {
		log.Error("creating session", zap.Error(err))
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	setSessionCookie(w, session)

	log.Info("spotify account connected")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout clears the session and redirects to home (POST /auth/logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if session := sessionFromRequest(h.Sessions, r); session != nil {
		h.Sessions.Delete(r.Context(), session.ID)
	}

	clearCookie(w, sessionCookieName)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Disconnect clears the stored Spotify credentials (POST /spotify/disconnect).
// The session stays valid so the user can reconnect.
func (h *Handlers) Disconnect(w http.ResponseWriter, r *http.Request) {
	session := currentSession(r)
	ctx := r.Context()

	state, err := h.Tokens.Store().Read(ctx, session.UserID)
	if err == nil {
		err = h.Tokens.Disconnect(ctx, session.UserID, state)
	}
	if err != nil {
		h.Logger.Error("disconnecting spotify", zap.String("user_id", session.UserID), zap.Error(err))
		setFlash(w, "error", "Could not disconnect your Spotify account.")
	} else {
		setFlash(w, "success", "Spotify account disconnected.")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Dashboard renders listening analytics (GET /dashboard).
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	session := currentSession(r)
	data := DashboardPageData{PageData: h.pageData(w, r, "Your Vibe | "+appTitle, session)}

	profile, err := h.Generator.Profile(r.Context(), session.UserID)
	if err != nil {
		h.Logger.Warn("building profile", zap.String("user_id", session.UserID), zap.Error(err))
		data.Flash = &FlashMessage{Type: "error", Message: userMessage(err)}
	}
	data.Profile = profile

	h.render(w, "dashboard", data)
}

// CreatePlaylist generates a playlist (POST /playlists). HTMX requests get
// the result fragment; other requests are redirected to the history page.
func (h *Handlers) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	session := currentSession(r)
	htmx := r.Header.Get("HX-Request") == "true"

	result, err := h.Generator.Generate(r.Context(), session.UserID)
	if err != nil {
		h.Logger.Warn("generating playlist", zap.String("user_id", session.UserID), zap.Error(err))
		flash := &FlashMessage{Type: "error", Message: userMessage(err)}
		if htmx {
			h.renderPartial(w, "flash", flash)
			return
		}
		setFlash(w, flash.Type, flash.Message)
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	if htmx {
		h.renderPartial(w, "playlist_result", PlaylistResultData{Result: result, Skipped: result.Skipped()})
		return
	}
	setFlash(w, "success", "Created "+result.Playlist.Name+".")
	http.Redirect(w, r, "/playlists", http.StatusSeeOther)
}

func (h *Handlers) renderPartial(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.Templates.RenderPartial(w, name, data); err != nil {
		h.Logger.Error("rendering partial", zap.String("partial", name), zap.Error(err))
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// Playlists lists generated playlists (GET /playlists).
func (h *Handlers) Playlists(w http.ResponseWriter, r *http.Request) {
	session := currentSession(r)
	data := HistoryPageData{PageData: h.pageData(w, r, "Your Playlists | "+appTitle, session)}

	playlists, err := h.Generator.History(r.Context(), session.UserID)
	if err != nil {
		h.Logger.Error("listing playlists", zap.String("user_id", session.UserID), zap.Error(err))
		data.Flash = &FlashMessage{Type: "error", Message: "Could not load your playlists."}
	}
	data.Playlists = playlists

	total, err := h.Generator.PlaylistCount(r.Context(), session.UserID)
	if err != nil {
		h.Logger.Warn("counting playlists", zap.String("user_id", session.UserID), zap.Error(err))
		total = len(playlists)
	}
	data.Total = max(total, len(playlists))

	h.render(w, "history", data)
}

// Healthz reports liveness and, when configured, database reachability.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		if err := h.DB.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// userMessage maps domain errors to notification text.
func userMessage(err error) string {
	var (
		createErr   *playlist.CreateError
		populateErr *playlist.PopulateError
	)
	switch {
	case errors.Is(err, auth.ErrNoToken),
		errors.Is(err, auth.ErrNoRefreshToken),
		errors.Is(err, auth.ErrRefreshFailed):
		return "Your Spotify connection expired. Please reconnect your account."
	case errors.Is(err, generate.ErrSpotifyUnauthorized):
		return "Spotify no longer accepts your connection. Please reconnect your account."
	case errors.Is(err, playlist.ErrNoSeedMaterial):
		return "Listen to a few more tracks on Spotify before generating a playlist."
	case errors.Is(err, playlist.ErrNoRecommendations):
		return "Spotify didn't return any new recommendations. Try again later."
	case errors.As(err, &createErr):
		return "Could not create the playlist: " + createErr.Message
	case errors.As(err, &populateErr):
		return "Could not add tracks to the playlist: " + populateErr.Message
	default:
		return "Something went wrong. Please try again."
	}
}
