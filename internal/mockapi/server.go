// Package mockapi is an in-memory development backend that speaks the album
// review REST contract under /api.
package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"albumreviews/internal/validator"
)

const maxRequestBytes = 1 << 20

// Config tunes the backend.
type Config struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AllowedOrigin string
	BcryptCost    int
	Seed          bool
}

// Server wires HTTP handlers to the catalogue.
type Server struct {
	data    *Catalogue
	tokens  *Tokens
	metrics *Metrics
	log     zerolog.Logger
	origin  string
}

// New builds a server over a fresh catalogue, seeded when cfg.Seed is set.
func New(cfg Config, logger zerolog.Logger) (*Server, error) {
	if len(cfg.JWTSecret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 characters")
	}

	s := &Server{
		data:    NewCatalogue(cfg.BcryptCost),
		tokens:  NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		metrics: NewMetrics(),
		log:     logger,
		origin:  cfg.AllowedOrigin,
	}
	if cfg.Seed {
		if err := Seed(s.data); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Catalogue exposes the backing data, mainly for tests and seeding.
func (s *Server) Catalogue() *Catalogue { return s.data }

// Handler returns the full HTTP stack: recovery, request logging, CORS and
// the routed API.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, detailResponse{Detail: "Not found."})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, detailResponse{Detail: "Method \"" + r.Method + "\" not allowed."})
	})
	router.Use(s.metrics.Instrument)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods(http.MethodGet)
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(CSRF(), s.identify)

	api.HandleFunc("/register/", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/login/", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/logout/", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/verify-token/", s.handleVerifyToken).Methods(http.MethodPost)

	api.HandleFunc("/users/", s.handleListUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/me/", s.handleMe).Methods(http.MethodGet)
	api.HandleFunc("/users/me/", s.handleUpdateMe).Methods(http.MethodPatch, http.MethodPut)
	api.HandleFunc("/users/change-password/", s.handleChangePassword).Methods(http.MethodPost)
	api.HandleFunc("/users/{id:[0-9]+}/", s.handleGetUser).Methods(http.MethodGet)

	api.HandleFunc("/artists/", s.handleListArtists).Methods(http.MethodGet)
	api.HandleFunc("/artists/", s.handleCreateArtist).Methods(http.MethodPost)
	api.HandleFunc("/artists/{id:[0-9]+}/", s.handleGetArtist).Methods(http.MethodGet)
	api.HandleFunc("/artists/{id:[0-9]+}/", s.handleUpdateArtist).Methods(http.MethodPut)
	api.HandleFunc("/artists/{id:[0-9]+}/", s.handleDeleteArtist).Methods(http.MethodDelete)
	api.HandleFunc("/artists/{id:[0-9]+}/albums/", s.handleArtistAlbums).Methods(http.MethodGet)

	api.HandleFunc("/albums/", s.handleListAlbums).Methods(http.MethodGet)
	api.HandleFunc("/albums/", s.handleCreateAlbum).Methods(http.MethodPost)
	api.HandleFunc("/albums/{id:[0-9]+}/", s.handleGetAlbum).Methods(http.MethodGet)
	api.HandleFunc("/albums/{id:[0-9]+}/", s.handleUpdateAlbum).Methods(http.MethodPut)
	api.HandleFunc("/albums/{id:[0-9]+}/", s.handleDeleteAlbum).Methods(http.MethodDelete)
	api.HandleFunc("/albums/{id:[0-9]+}/reviews/", s.handleAlbumReviews).Methods(http.MethodGet)

	api.HandleFunc("/reviews/", s.handleListReviews).Methods(http.MethodGet)
	api.HandleFunc("/reviews/", s.handleCreateReview).Methods(http.MethodPost)
	api.HandleFunc("/reviews/{id:[0-9]+}/", s.handleGetReview).Methods(http.MethodGet)
	api.HandleFunc("/reviews/{id:[0-9]+}/", s.handleUpdateReview).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/reviews/{id:[0-9]+}/", s.handleDeleteReview).Methods(http.MethodDelete)
	api.HandleFunc("/reviews/{id:[0-9]+}/toggle_like/", s.handleToggleLike).Methods(http.MethodPost)
	api.HandleFunc("/reviews/{id:[0-9]+}/like_status/", s.handleLikeStatus).Methods(http.MethodGet)

	api.HandleFunc("/likes/", s.handleListLikes).Methods(http.MethodGet)
	api.HandleFunc("/likes/", s.handleCreateLike).Methods(http.MethodPost)
	api.HandleFunc("/likes/{id:[0-9]+}/", s.handleDeleteLike).Methods(http.MethodDelete)

	var handler http.Handler = router
	handler = CORS(s.origin)(handler)
	handler = RequestLogging(s.log)(handler)
	handler = Recovery(s.log)(handler)
	return handler
}

type claimsKey struct{}

// identify resolves the Authorization header. A missing header leaves the
// request anonymous; a bad token is rejected outright, except on the
// sign-in endpoints, which never look at it.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := parseTokenHeader(r.Header.Get("Authorization"))
		if token == "" || r.URL.Path == "/api/login/" || r.URL.Path == "/api/register/" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := s.tokens.Verify(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, detailResponse{Detail: "Invalid token."})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func claimsFrom(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey{}).(*Claims)
	return claims
}

// viewerID is the signed-in user's ID, 0 when anonymous.
func viewerID(r *http.Request) int64 {
	if claims := claimsFrom(r.Context()); claims != nil {
		return claims.UserID
	}
	return 0
}

// requireUser answers 401 for anonymous requests.
func requireUser(w http.ResponseWriter, r *http.Request) (*Claims, bool) {
	claims := claimsFrom(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, detailResponse{Detail: "Authentication credentials were not provided."})
		return nil, false
	}
	return claims, true
}

type detailResponse struct {
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// writeFieldErrors answers 400 in the per-field list shape.
func writeFieldErrors(w http.ResponseWriter, err error) {
	var fields validator.FieldErrors
	if !errors.As(err, &fields) {
		writeJSON(w, http.StatusBadRequest, detailResponse{Detail: err.Error()})
		return
	}
	body := make(map[string][]string, len(fields))
	for field, msg := range fields {
		body[field] = []string{msg}
	}
	writeJSON(w, http.StatusBadRequest, body)
}

// writeStoreError maps catalogue errors to responses.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, detailResponse{Detail: "Not found."})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, detailResponse{Detail: "You do not have permission to perform this action."})
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, detailResponse{Detail: "A server error occurred."})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, detailResponse{Detail: "JSON parse error - " + err.Error()})
		return false
	}
	return true
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

// queryID parses an optional numeric query parameter.
func queryID(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{key: {"A valid integer is required."}})
		return 0, false
	}
	return id, true
}
