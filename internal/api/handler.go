package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"bloomelein/m/domain"
	"bloomelein/m/internal/catalog"
	"bloomelein/m/internal/database"
	"bloomelein/m/internal/draft"
	"bloomelein/m/internal/receipt"
)

type ctxKey string

const (
	ctxUsername  ctxKey = "username"
	ctxStaffName ctxKey = "staffName"
)

// StaffStore is the staff persistence the handlers need.
type StaffStore interface {
	FindStaff(ctx context.Context, username string) (domain.Staff, error)
	ListStaff(ctx context.Context) ([]domain.Staff, error)
}

// Deps bundles everything the HTTP layer is built from.
type Deps struct {
	Staff          StaffStore
	Secret         string
	Profile        *catalog.Profile
	Composer       *receipt.Composer
	Drafts         *draft.MemoryStore
	Limiter        *StaffRateLimiter
	AllowedOrigins []string
	Now            func() time.Time
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	staff    StaffStore
	secret   string
	profile  *catalog.Profile
	composer *receipt.Composer
	drafts   *draft.MemoryStore
	limiter  *StaffRateLimiter
	origins  []string
	now      func() time.Time
}

// New constructs a Handler.
func New(deps Deps) *Handler {
	h := &Handler{
		staff:    deps.Staff,
		secret:   deps.Secret,
		profile:  deps.Profile,
		composer: deps.Composer,
		drafts:   deps.Drafts,
		limiter:  deps.Limiter,
		origins:  deps.AllowedOrigins,
		now:      deps.Now,
	}
	if h.now == nil {
		h.now = time.Now
	}
	if len(h.origins) == 0 {
		h.origins = []string{"*"}
	}
	return h
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(requestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Get("/profile", h.showProfile)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.login)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Get("/staff", h.listStaff)

		pr.With(h.rateLimit).Post("/receipts", h.createReceipt)

		pr.Route("/drafts", func(r chi.Router) {
			r.Post("/", h.createDraft)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.showDraft)
				r.Put("/", h.updateDraft)
				r.Delete("/", h.deleteDraft)
				r.Post("/items", h.addDraftItem)
				r.Delete("/items", h.clearDraftItems)
				r.Delete("/items/last", h.removeLastDraftItem)
				r.With(h.rateLimit).Post("/receipt", h.composeDraft)
			})
		})

		pr.Route("/counter", func(r chi.Router) {
			r.Get("/", h.showCounter)
			r.Post("/reset", h.resetCounter)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) showProfile(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.profile)
}

// Authentication helpers

type authClaims struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(staff domain.Staff) (string, error) {
	now := h.now()
	claims := authClaims{
		Username: staff.Username,
		Name:     staff.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		}, jwt.WithTimeFunc(h.now))
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok || claims.Username == "" {
			respondError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUsername, claims.Username)
		ctx = context.WithValue(ctx, ctxStaffName, claims.Name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUsername(r *http.Request) string {
	v, _ := r.Context().Value(ctxUsername).(string)
	return v
}

func currentStaffName(r *http.Request) string {
	v, _ := r.Context().Value(ctxStaffName).(string)
	return v
}

// Auth handlers

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	Staff domain.Staff `json:"staff"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	staff, err := h.staff.FindStaff(r.Context(), req.Username)
	if errors.Is(err, database.ErrStaffNotFound) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to look up staff")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(staff.Password), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.generateToken(staff)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}

	staff.Password = ""
	respondJSON(w, http.StatusOK, authResponse{Token: token, Staff: staff})
}

func (h *Handler) listStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.staff.ListStaff(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list staff")
		return
	}
	respondJSON(w, http.StatusOK, staff)
}

// Counter handlers

func (h *Handler) showCounter(w http.ResponseWriter, r *http.Request) {
	state, err := h.composer.Counter().State(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to read receipt counter")
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (h *Handler) resetCounter(w http.ResponseWriter, r *http.Request) {
	if err := h.composer.Counter().Reset(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to reset receipt counter")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// Helpers

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

type validationResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

func respondValidation(w http.ResponseWriter, err *receipt.ValidationError) {
	respondJSON(w, http.StatusBadRequest, validationResponse{Error: "invalid order", Details: err.Problems})
}
