package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	if err != nil || got != "hello world" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	if out.String() != "Name?\n> " {
		t.Fatalf("unexpected prompt %q", out.String())
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	if err == nil {
		t.Fatal("expected EOF")
	}
}

func TestGetPassword(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })

	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }
	var out bytes.Buffer
	pw, err := GetPassword(&out, "Password")
	require.NoError(t, err)
	require.Equal(t, []byte("s3cret"), pw)
	require.Equal(t, "Password: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err = GetPassword(&out, "Password")
	require.Error(t, err)
}

func TestParseVerificationLink(t *testing.T) {
	tests := []struct {
		name      string
		link      string
		wantToken string
		wantID    string
		wantErr   bool
	}{
		{name: "full link", link: "http://localhost:3000/verify-email?token=abc&id=42", wantToken: "abc", wantID: "42"},
		{name: "surrounding spaces", link: "  https://app/verify?id=1&token=t  ", wantToken: "t", wantID: "1"},
		{name: "missing id", link: "https://app/verify?token=t", wantErr: true},
		{name: "not a link", link: "%zz", wantErr: true},
		{name: "empty", link: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, id, err := parseVerificationLink(tt.link)
			if tt.wantErr {
				require.ErrorIs(t, err, errBadLink)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantToken, token)
			require.Equal(t, tt.wantID, id)
		})
	}
}
