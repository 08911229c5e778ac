package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistration_Validate(t *testing.T) {
	tests := []struct {
		name    string
		in      Registration
		wantErr string
	}{
		{"ok", Registration{Email: " alice@example.com ", Password: "Secret123!", Name: "Alice"}, ""},
		{"missing email", Registration{Password: "Secret123!"}, "email"},
		{"bad email", Registration{Email: "alice", Password: "Secret123!"}, "email"},
		{"missing password", Registration{Email: "alice@example.com"}, "password"},
		{"weak password", Registration{Email: "alice@example.com", Password: "password"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRequest))

			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.wantErr)
		})
	}
}

func TestRegistration_TrimsEmail(t *testing.T) {
	r := Registration{Email: "  bob@example.com\n", Password: "Secret123!"}
	require.NoError(t, r.Validate())
	assert.Equal(t, "bob@example.com", r.Email)
}

func TestLogin_Validate(t *testing.T) {
	ok := Login{Email: "alice@example.com", Password: "x"}
	require.NoError(t, ok.Validate())

	empty := Login{}
	err := empty.Validate()
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestVerification_Validate(t *testing.T) {
	ok := Verification{Token: "abc", AccountID: "5f0c3a5e-2f7e-4c4e-9d0a-0c1f4c6f1a11"}
	require.NoError(t, ok.Validate())

	bad := Verification{Token: "abc", AccountID: "42"}
	require.ErrorIs(t, bad.Validate(), ErrInvalidRequest)
}
