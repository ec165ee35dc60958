package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mvaleed/carfleet/internal/domain"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *domain.User `json:"user"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, signInResponse{
		AccessToken: result.AccessToken,
		ExpiresIn:   result.ExpiresInSeconds,
		User:        redactPassword(result.User),
	})
}

type meResponse struct {
	UserID uuid.UUID   `json:"user_id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := getUserClaims(r.Context())
	if claims == nil {
		s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Code: "UNAUTHORIZED"})
		return
	}
	s.writeJSON(w, http.StatusOK, meResponse{UserID: claims.UserID, Email: claims.Email, Role: claims.Role})
}

// registerUser pins self-registered accounts to the least privileged role.
func registerUser(u *domain.User) {
	u.Role = domain.RoleUser
}

// redactPassword keeps password hashes out of responses.
func redactPassword(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	out := *u
	out.Password = ""
	return &out
}
