package rest

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/validation"
)

const maxBodyBytes = 1 << 20

type userBody struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

type registerResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	TestURL string `json:"testUrl,omitempty"`
}

type verifyResponse struct {
	Status int    `json:"status"`
	URL    string `json:"url"`
}

type sessionResponse struct {
	OK          bool     `json:"ok"`
	AccessToken string   `json:"accessToken"`
	User        userBody `json:"user"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type meResponse struct {
	User userBody `json:"user"`
}

func toUserBody(id services.Identity) userBody {
	return userBody{ID: id.ID, Name: id.Name, Email: id.Email, Verified: id.Verified}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &validation.Error{Fields: map[string]error{"body": err}}
	}
	return nil
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req validation.Registration
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.auth.Register(r.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		OK:      true,
		Message: "Registered: verify email",
		TestURL: res.DeliveryRef,
	})
}

func (s *Server) verifyEmail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := validation.Verification{Token: q.Get("token"), AccountID: q.Get("id")}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.auth.VerifyEmail(r.Context(), req.Token, req.AccountID); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Status: http.StatusOK,
		URL:    strings.TrimRight(s.opts.AppURL, "/") + "/login",
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req validation.Login
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	session, err := s.auth.Login(r.Context(), req.Email, req.Password, r.UserAgent())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeSession(w, session)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	session, err := s.auth.Rotate(r.Context(), refreshCookie(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeSession(w, session)
}

func (s *Server) writeSession(w http.ResponseWriter, session *services.Session) {
	s.setRefreshCookie(w, session.RefreshToken)
	writeJSON(w, http.StatusOK, sessionResponse{
		OK:          true,
		AccessToken: session.AccessToken,
		User:        toUserBody(session.Account),
	})
}

// logout always clears the cookie. A store failure is still reported so the
// caller can tell the session may survive on the server.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	err := s.auth.Logout(r.Context(), refreshCookie(r))
	s.clearRefreshCookie(w)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	id, _ := r.Context().Value(identityKey).(*services.Identity)
	if id == nil {
		s.writeError(w, r, common.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: toUserBody(*id)})
}
