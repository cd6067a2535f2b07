package mockapi

import (
	"errors"
	"net/http"
	"strings"

	"albumreviews/internal/api"
	"albumreviews/internal/validator"
)

type authResponse struct {
	Message  string `json:"message,omitempty"`
	Token    string `json:"token"`
	Username string `json:"username"`
	UserID   int64  `json:"userId"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.Credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Username and password are required"})
		return
	}

	user, err := s.data.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Username already taken"})
			return
		}
		s.writeStoreError(w, r, err)
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("account created")
	writeJSON(w, http.StatusCreated, authResponse{
		Message:  "Account created successfully",
		Token:    token,
		Username: user.Username,
		UserID:   user.ID,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.Credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Username and password are required"})
		return
	}

	user, err := s.data.Authenticate(req.Username, req.Password)
	if err != nil {
		s.metrics.logins.WithLabelValues("rejected").Inc()
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Invalid credentials"})
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.metrics.logins.WithLabelValues("accepted").Inc()
	writeJSON(w, http.StatusOK, authResponse{Token: token, Username: user.Username, UserID: user.ID})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireUser(w, r)
	if !ok {
		return
	}
	s.tokens.Revoke(claims)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

func (s *Server) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireUser(w, r)
	if !ok {
		return
	}
	user, err := s.data.User(claims.UserID)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, detailResponse{Detail: "Invalid token."})
		return
	}
	writeJSON(w, http.StatusOK, api.TokenStatus{Valid: true, Username: user.Username, UserID: user.ID})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.Users(r.URL.Query().Get("search")))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.data.User(pathID(r))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireUser(w, r)
	if !ok {
		return
	}
	user, err := s.data.User(claims.UserID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req api.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	user, err := s.data.UpdateUser(claims.UserID, req)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"A user with that username already exists."}})
			return
		}
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req api.PasswordChange
	if !decodeJSON(w, r, &req) {
		return
	}

	v := validator.New()
	v.Check(req.OldPassword != "", "old_password", "This field is required.")
	v.Check(req.NewPassword != "", "new_password", "This field is required.")
	v.Check(len(req.NewPassword) >= 6 || req.NewPassword == "", "new_password", "This password is too short.")
	if err := v.Err(); err != nil {
		writeFieldErrors(w, err)
		return
	}

	if err := s.data.ChangePassword(claims.UserID, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, ErrWrongPassword) {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"old_password": {"Wrong password."}})
			return
		}
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Password updated successfully"})
}
