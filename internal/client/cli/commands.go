package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/cryptox"
)

// explain turns client errors into something a person can act on.
func explain(err error) string {
	switch {
	case errors.Is(err, client.ErrUnavailable):
		return "Server is unavailable, try again later"
	case errors.Is(err, client.ErrAlreadyExists):
		return "An account with this email already exists"
	case errors.Is(err, client.ErrNotVerified):
		return "Please verify your email before logging in"
	case errors.Is(err, client.ErrUnauthorized):
		return "Invalid email or password"
	case errors.Is(err, client.ErrNotLoggedIn):
		return "You are not logged in"
	case errors.Is(err, client.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, errBadLink):
		return err.Error()
	default:
		return "Error: " + err.Error()
	}
}

func (a *App) fail(ctx context.Context, op string, err error) error {
	a.logger.Debug(ctx, op+" failed", "error", err)
	fmt.Fprintln(a.out, explain(err))
	return err
}

func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	name, err := GetSimpleText(a.reader, "Name (optional)", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out, "Password")
	if err != nil {
		return err
	}
	defer cryptox.Wipe(password)

	link, err := a.client.Register(ctx, email, string(password), name)
	if err != nil {
		return a.fail(ctx, "register", err)
	}

	fmt.Fprintln(a.out, "Registered. Check your inbox for the verification link.")
	if link != "" {
		fmt.Fprintln(a.out, "Verification link:", link)
	}
	return nil
}

// Verify accepts the link from the verification email, either as an
// argument or at the prompt.
func (a *App) Verify(ctx context.Context, link string) error {
	if link == "" {
		var err error
		link, err = GetSimpleText(a.reader, "Paste the verification link", a.out)
		if err != nil {
			return err
		}
	}

	token, id, err := parseVerificationLink(link)
	if err != nil {
		return a.fail(ctx, "verify", err)
	}
	if err := a.client.VerifyEmail(ctx, token, id); err != nil {
		return a.fail(ctx, "verify", err)
	}

	fmt.Fprintln(a.out, "Email verified. You can log in now.")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out, "Password")
	if err != nil {
		return err
	}
	defer cryptox.Wipe(password)

	user, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return a.fail(ctx, "login", err)
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", user.Email)
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	user, err := a.client.WhoAmI(ctx)
	if err != nil {
		return a.fail(ctx, "whoami", err)
	}

	fmt.Fprintf(a.out, "id:       %s\nemail:    %s\nname:     %s\nverified: %t\n", user.ID, user.Email, user.Name, user.Verified)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out.")
	if err != nil {
		a.logger.Warn(ctx, "server-side logout failed", "error", err)
	}
	return err
}
