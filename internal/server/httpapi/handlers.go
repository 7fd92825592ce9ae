package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gezielcarvalho/ascauth/internal/common"
)

// profileCacheTTL bounds how stale a cached profile may be.
const profileCacheTTL = 5 * time.Minute

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	CPassword string `json:"c_password"`
	Name      string `json:"name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid input"})
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	fieldErrors := map[string][]string{}
	if req.Email == "" {
		fieldErrors["email"] = append(fieldErrors["email"], "The email field is required.")
	} else if !validEmail(req.Email) {
		fieldErrors["email"] = append(fieldErrors["email"], "The email must be a valid email address.")
	}
	if req.Password == "" {
		fieldErrors["password"] = append(fieldErrors["password"], "The password field is required.")
	} else if len(req.Password) < s.minPasswordLength {
		fieldErrors["password"] = append(fieldErrors["password"],
			fmt.Sprintf("The password must be at least %d characters.", s.minPasswordLength))
	}
	if req.CPassword == "" {
		fieldErrors["c_password"] = append(fieldErrors["c_password"], "The c_password field is required.")
	} else if req.CPassword != req.Password {
		fieldErrors["c_password"] = append(fieldErrors["c_password"], "The c_password and password must match.")
	}
	if req.Name == "" {
		fieldErrors["name"] = append(fieldErrors["name"], "The name field is required.")
	}
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, fieldErrorResponse{Error: fieldErrors})
		return
	}

	user, err := s.credentials.Create(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrDuplicateEmail):
			writeJSON(w, http.StatusUnprocessableEntity, fieldErrorResponse{Error: map[string][]string{
				"email": {"The email has already been taken."},
			}})
		case errors.Is(err, common.ErrWeakPassword):
			writeJSON(w, http.StatusUnprocessableEntity, fieldErrorResponse{Error: map[string][]string{
				"password": {fmt.Sprintf("The password must be at least %d characters.", s.minPasswordLength)},
			}})
		default:
			s.logger.Error(r.Context(), "registration failed", "error", err)
			writeServerError(w)
		}
		return
	}

	issued, err := s.tokens.Issue(r.Context(), user)
	if err != nil {
		s.logger.Error(r.Context(), "token issue failed", "error", err)
		writeServerError(w)
		return
	}

	s.logger.Info(r.Context(), "user registered", "user_id", user.ID)
	writeJSON(w, http.StatusOK, successResponse{Success: tokenPayload{Token: issued.Signed, Name: user.Name}})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid input"})
		return
	}

	user, err := s.credentials.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		if isAuthFailure(err) {
			writeUnauthorized(w)
			return
		}
		s.logger.Error(r.Context(), "login failed", "error", err)
		writeServerError(w)
		return
	}

	issued, err := s.tokens.Issue(r.Context(), user)
	if err != nil {
		s.logger.Error(r.Context(), "token issue failed", "error", err)
		writeServerError(w)
		return
	}

	s.logger.Info(r.Context(), "user logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, successResponse{Success: tokenPayload{Token: issued.Signed, Name: user.Name}})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	if err := s.tokens.Revoke(r.Context(), token.ID); err != nil {
		if isAuthFailure(err) {
			writeUnauthorized(w)
			return
		}
		s.logger.Error(r.Context(), "logout failed", "error", err)
		writeServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Successfully logged out"})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	user, err := s.credentials.Get(r.Context(), token.UserID)
	if err != nil {
		s.logger.Error(r.Context(), "refresh failed", "error", err)
		writeServerError(w)
		return
	}

	issued, err := s.tokens.Refresh(r.Context(), token)
	if err != nil {
		if isAuthFailure(err) {
			writeUnauthorized(w)
			return
		}
		s.logger.Error(r.Context(), "refresh failed", "error", err)
		writeServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: tokenPayload{Token: issued.Signed, Name: user.Name}})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) handlePassword(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid input"})
		return
	}

	err := s.credentials.ChangePassword(r.Context(), token.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrWeakPassword):
			writeJSON(w, http.StatusUnprocessableEntity, fieldErrorResponse{Error: map[string][]string{
				"new_password": {fmt.Sprintf("The password must be at least %d characters.", s.minPasswordLength)},
			}})
		case isAuthFailure(err):
			writeUnauthorized(w)
		default:
			s.logger.Error(r.Context(), "password change failed", "error", err)
			writeServerError(w)
		}
		return
	}

	if s.cache != nil {
		_ = s.cache.Del(r.Context(), profileCacheKey(token.UserID))
	}

	s.logger.Info(r.Context(), "password changed, all tokens revoked", "user_id", token.UserID)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Password updated"})
}

type userProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	key := profileCacheKey(token.UserID)
	if s.cache != nil {
		if cached, err := s.cache.Get(r.Context(), key); err == nil && cached != "" {
			var profile userProfile
			if err := json.Unmarshal([]byte(cached), &profile); err == nil {
				w.Header().Set("X-Cache", "HIT")
				writeJSON(w, http.StatusOK, profile)
				return
			}
		}
	}

	user, err := s.credentials.Get(r.Context(), token.UserID)
	if err != nil {
		s.logger.Error(r.Context(), "profile lookup failed", "error", err)
		writeServerError(w)
		return
	}

	profile := userProfile{ID: user.ID, Email: user.Email, Name: user.Name}
	if s.cache != nil {
		if data, err := json.Marshal(profile); err == nil {
			_ = s.cache.Set(r.Context(), key, data, profileCacheTTL)
		}
	}

	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleProtected(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "This is a protected route"})
}

func (s *Server) handleUnprotected(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "This is an unprotected route"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			s.logger.Error(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Server Error"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func profileCacheKey(userID string) string {
	return "user_profile:" + userID
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
