package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// RefreshTokenCookieName is the cookie that carries the opaque refresh token
// for HTTP clients.
const RefreshTokenCookieName = "refreshToken"
