package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"

	"github.com/anujaroke/Task-Vault/internal/auth"
	"github.com/anujaroke/Task-Vault/internal/metrics"
	"github.com/anujaroke/Task-Vault/internal/middleware"
	"github.com/anujaroke/Task-Vault/internal/repo"
)

// pgUniqueViolation is the Postgres error code for a unique constraint violation.
const pgUniqueViolation = "23505"

var validate = validator.New()

// ==========================
// Auth Handler
// ==========================
// Credential failures never carry a message: login and register redirect back
// to their forms, leaking nothing about which half of the credentials was wrong
// or whether a username is taken.
type AuthHandler struct {
	Users  *repo.UserRepo
	Codec  *auth.Codec
	Render *Renderer

	// SessionTTL bounds both the token expiry and the cookie MaxAge.
	SessionTTL time.Duration

	// SecureCookie marks the token cookie Secure; set when serving TLS.
	SecureCookie bool
}

type credentialsInput struct {
	Username string `validate:"required,max=64"`
	Password string `validate:"required,max=128"`
}

// ==========================
// Login Form
// ==========================
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.Render.Render(w, "login.html", nil)
}

// ==========================
// Login
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	input := credentialsInput{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if err := validate.Struct(input); err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	user, err := h.Users.GetByUsername(r.Context(), input.Username)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("login: get user", "err", err)
		}
		metrics.IncLogin("failure")
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	if !auth.VerifyPassword(input.Password, user.PasswordHash) {
		metrics.IncLogin("failure")
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	token, err := h.Codec.Issue(user.ID, user.Username)
	if err != nil {
		slog.Error("login: issue token", "err", err)
		http.Error(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	metrics.IncLogin("success")
	http.Redirect(w, r, "/", http.StatusFound)
}

// ==========================
// Register Form
// ==========================
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.Render.Render(w, "register.html", nil)
}

// ==========================
// Register
// ==========================
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/register", http.StatusFound)
		return
	}

	input := credentialsInput{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if err := validate.Struct(input); err != nil {
		http.Redirect(w, r, "/register", http.StatusFound)
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		slog.Error("register: hash password", "err", err)
		http.Error(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if _, err := h.Users.Create(r.Context(), input.Username, hash); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			// Username taken; back to the form with no hint that it exists.
			http.Redirect(w, r, "/register", http.StatusFound)
			return
		}
		slog.Error("register: create user", "err", err)
		http.Error(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/login", http.StatusFound)
}

// ==========================
// Logout
// ==========================
// Clears the cookie only. The token itself stays valid until expiry; there is
// no server-side revocation list.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusFound)
}
