package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"slidegenie/internal/auth"
	"slidegenie/internal/domain/models"
	"slidegenie/internal/forms"
	"slidegenie/internal/gateway"
	"slidegenie/internal/routes"
)

const passwordEnv = "SLIDEGENIE_PASSWORD"

// password takes the password from the environment when set, so scripts
// need not pass it on the command line.
func (a *app) password(label string) string {
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw
	}
	return a.prompt(label, "")
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "academic email address")
	remember := fs.Bool("remember", true, "keep the session after this command exits")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if err := a.guard(routes.Login); err != nil {
		return err
	}

	form := forms.LoginForm{
		Email:      a.prompt("Email", *email),
		RememberMe: *remember,
	}
	form.Password = a.password("Password")
	if err := form.Validate(); err != nil {
		return err
	}

	resp, err := a.api.Login(ctx, form.Credentials())
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if err := a.session.Login(resp, form.RememberMe); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	a.logger.Info("signed in", "user_id", resp.User.ID, "remember", form.RememberMe)
	a.success("Signed in as %s <%s>", resp.User.Name, resp.User.Email)
	if !form.RememberMe {
		a.warn("The session was not saved; later commands will ask you to sign in again.")
	}
	return nil
}

func runLogout(ctx context.Context, a *app, args []string) error {
	if _, err := parseArgs(newFlagSet("logout"), args); err != nil {
		return err
	}
	if a.session.IsAuthenticated() {
		// the local session ends even if the backend call fails
		if err := a.api.Logout(ctx); err != nil {
			a.logger.Warn("logout request failed", "error", err)
		}
	}
	if err := a.session.Logout(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	a.success("Signed out")
	return nil
}

func runWhoami(ctx context.Context, a *app, args []string) error {
	if _, err := parseArgs(newFlagSet("whoami"), args); err != nil {
		return err
	}
	if err := a.guard(routes.Settings); err != nil {
		return err
	}
	u, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	if err := a.session.SetUser(*u); err != nil {
		a.logger.Warn("could not update stored user", "error", err)
	}

	a.heading("Account")
	fmt.Fprintf(a.out, "Name:        %s\n", u.Name)
	fmt.Fprintf(a.out, "Email:       %s\n", u.Email)
	if u.Institution != "" {
		fmt.Fprintf(a.out, "Institution: %s\n", u.Institution)
	}
	if u.Role != "" {
		fmt.Fprintf(a.out, "Role:        %s\n", u.Role)
	}
	verified := "no"
	if u.EmailVerified {
		verified = "yes"
	}
	fmt.Fprintf(a.out, "Verified:    %s\n", verified)
	return nil
}

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("register")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "academic email address")
	institution := fs.String("institution", "", "university or institute")
	role := fs.String("role", "", "student, researcher or professor")
	accept := fs.Bool("accept-terms", false, "accept the terms of service")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if err := a.guard(routes.Register); err != nil {
		return err
	}

	form := forms.RegisterForm{
		Name:        a.prompt("Name", *name),
		Email:       a.prompt("Email", *email),
		Institution: a.prompt("Institution", *institution),
		AcceptTerms: *accept,
	}
	form.Role = models.AcademicRole(a.prompt("Role (student/researcher/professor)", *role))
	form.Password = a.password("Password")
	form.ConfirmPassword = form.Password
	if os.Getenv(passwordEnv) == "" {
		form.ConfirmPassword = a.prompt("Confirm password", "")
	}

	strength := forms.PasswordStrength(form.Password)
	a.printf(colorBlue, "Password strength: %s", strength.Label)
	for _, r := range strength.Requirements {
		mark := colorRed + "✗"
		if r.Met {
			mark = colorGreen + "✓"
		}
		fmt.Fprintf(a.out, "  %s %s%s\n", mark, r.Text, colorReset)
	}
	if err := form.Validate(); err != nil {
		return err
	}

	resp, err := a.api.Register(ctx, form.Credentials())
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if err := a.session.Login(resp, true); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	a.logger.Info("registered", "user_id", resp.User.ID)
	a.success("Welcome, %s. Check %s for a verification email.", resp.User.Name, resp.User.Email)
	return nil
}

func runForgotPassword(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("forgot-password")
	email := fs.String("email", "", "academic email address")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if err := a.guard(routes.ForgotPassword); err != nil {
		return err
	}
	form := forms.ForgotPasswordForm{Email: a.prompt("Email", *email)}
	if err := form.Validate(); err != nil {
		return err
	}
	msg, err := a.api.ForgotPassword(ctx, strings.TrimSpace(form.Email))
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "If an account exists, a reset link is on its way."
	}
	a.success("%s", msg)
	return nil
}

func runResetPassword(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("reset-password")
	token := fs.String("token", "", "token from the reset email")
	verify := fs.Bool("verify-email", false, "treat the token as an email verification token instead")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if *verify {
		if *token == "" {
			return fmt.Errorf("usage: slidegenie %s", commands["reset-password"].usage)
		}
		msg, err := a.api.VerifyEmail(ctx, *token)
		if err != nil {
			return err
		}
		a.success("Email verified. %s", msg)
		return nil
	}

	if err := a.guard(routes.ResetPassword); err != nil {
		return err
	}
	form := forms.ResetPasswordForm{Token: a.prompt("Reset token", *token)}
	form.Password = a.password("New password")
	form.ConfirmPassword = form.Password
	if os.Getenv(passwordEnv) == "" {
		form.ConfirmPassword = a.prompt("Confirm password", "")
	}
	if err := form.Validate(); err != nil {
		return err
	}
	msg, err := a.api.ResetPassword(ctx, form.Token, form.Password)
	if err != nil {
		return err
	}
	a.success("Password updated. %s", msg)
	return nil
}

func runOAuth(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("oauth-url")
	providerName := fs.String("provider", "google", "google or microsoft")
	remember := fs.Bool("remember", true, "keep the session after this command exits")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if err := a.guard(routes.Login); err != nil {
		return err
	}

	var (
		provider *auth.OAuthProvider
		backend  gateway.OAuthProvider
	)
	switch *providerName {
	case "google":
		provider, backend = auth.NewGoogle(a.cfg.GoogleClientID, a.cfg.OAuthRedirectURL), gateway.OAuthGoogle
	case "microsoft":
		provider, backend = auth.NewMicrosoft(a.cfg.MicrosoftClientID, a.cfg.OAuthRedirectURL), gateway.OAuthMicrosoft
	default:
		return fmt.Errorf("unknown provider %q", *providerName)
	}

	req, err := provider.AuthURL()
	if err != nil {
		return err
	}
	a.heading("Sign in with " + provider.Name)
	fmt.Fprintln(a.out, "Open this address in your browser:")
	fmt.Fprintf(a.out, "\n  %s\n\n", req.URL)
	callback := a.prompt("Paste the address you were redirected to", "")
	if callback == "" {
		return fmt.Errorf("no callback address given")
	}
	code, err := auth.CodeFromCallback(callback, req.State)
	if err != nil {
		return err
	}

	resp, err := a.api.ExchangeOAuthCode(ctx, backend, code)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if err := a.session.Login(resp, *remember); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	a.logger.Info("signed in", "user_id", resp.User.ID, "provider", provider.Name)
	a.success("Signed in as %s <%s>", resp.User.Name, resp.User.Email)
	return nil
}
