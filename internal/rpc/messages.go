package rpc

import "time"

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type RegisterResponse struct {
	AccountID   string `json:"accountId"`
	Message     string `json:"message"`
	DeliveryRef string `json:"testUrl,omitempty"`
}

type VerifyEmailRequest struct {
	Token     string `json:"token"`
	AccountID string `json:"id"`
}

type VerifyEmailResponse struct {
	URL string `json:"url"`
}

type LoginRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	ClientContext string `json:"clientContext,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LogoutResponse struct{}

type WhoAmIRequest struct{}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
}

type SessionResponse struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
	User             User      `json:"user"`
}

type WhoAmIResponse struct {
	User User `json:"user"`
}
