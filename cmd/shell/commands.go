package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vmedis/go-mobile-shell/auth"
	"github.com/vmedis/go-mobile-shell/menuaccess"
)

type LoginCmd struct {
	Domain   string `arg:"" help:"Tenant domain (subdomain)."`
	Username string `arg:"" help:"Username."`
	Password string `arg:"" help:"Password."`
}

func (l *LoginCmd) Run(ctx context.Context, app *App) error {
	user, err := app.Auth.Authenticate(ctx, l.Domain, l.Username, l.Password)
	if err != nil {
		// Transport failures are logged but not shown as a login rejection;
		// the user just tries again.
		if auth.IsNetworkError(err) {
			app.Log.Error().Err(err).Msg("login failed with a network error")
			fmt.Println("Could not reach the server. Please try again.")
			return nil
		}
		var credErr *auth.CredentialsError
		if errors.As(err, &credErr) {
			switch credErr.Hint {
			case auth.HintWrongPassword:
				return errors.New("password salah")
			case auth.HintUsernameNotFound:
				return errors.New("username salah")
			}
			return err
		}
		return err
	}

	app.Controller.Login(*user)
	fmt.Printf("Logged in as %s (%s)\n", user.DisplayName(), user.DomainInfo())
	return nil
}

type SessionsCmd struct{}

func (s *SessionsCmd) Run(app *App) error {
	all := app.Store.All()
	if len(all) == 0 {
		fmt.Println("No stored sessions.")
		return nil
	}
	for _, sess := range all {
		marker := " "
		if sess.Active {
			marker = "*"
		}
		fmt.Printf("%s %s  %s @ %s  (last used %s)\n",
			marker, sess.ID, sess.DisplayName(), sess.DomainInfo(),
			sess.LastAccessTime.Format("2006-01-02 15:04"))
	}
	fmt.Printf("%d of %d slots used\n", app.Store.Len(), app.Store.Capacity())
	return nil
}

type SwitchCmd struct {
	SessionID string `arg:"" help:"Session id to activate (see 'sessions')."`
}

func (s *SwitchCmd) Run(app *App) error {
	if !app.Controller.SwitchAccount(s.SessionID) {
		return fmt.Errorf("no session with id %q", s.SessionID)
	}
	user := app.Controller.CurrentUser()
	fmt.Printf("Switched to %s (%s)\n", user.DisplayName(), user.DomainInfo())
	return nil
}

type LogoutCmd struct {
	All bool `help:"Log out of every stored account."`
}

func (l *LogoutCmd) Run(app *App) error {
	if l.All {
		app.Controller.LogoutAll()
		fmt.Println("Logged out of all accounts.")
		return nil
	}
	app.Controller.Logout()
	if user := app.Controller.CurrentUser(); user != nil {
		fmt.Printf("Logged out. Now using %s (%s)\n", user.DisplayName(), user.DomainInfo())
		return nil
	}
	fmt.Println("Logged out.")
	return nil
}

type URLCmd struct {
	Destination string `arg:"" optional:"" default:"mobile" help:"Destination menu for the web surface."`
}

func (u *URLCmd) Run(ctx context.Context, app *App) error {
	user := app.Controller.CurrentUser()
	if user == nil {
		return errors.New("not logged in")
	}
	entry := app.Bridge.EntryURLWithFallback(ctx, user, u.Destination)
	fmt.Println(entry.String())
	return nil
}

type MenuCmd struct{}

func (m *MenuCmd) Run(app *App) error {
	user := app.Controller.CurrentUser()
	if user == nil {
		return errors.New("not logged in")
	}

	tabs := app.Controller.AccessibleTabs()
	names := make([]string, 0, len(tabs))
	for _, tab := range menuaccess.FixedTabs() {
		if tabs.Contains(tab) {
			names = append(names, tab)
		}
	}
	fmt.Printf("Tabs: %s\n", strings.Join(names, ", "))

	for _, node := range app.Controller.FilteredMenu() {
		if node.IsLeaf() {
			fmt.Printf("- %s (%s)\n", node.Title, node.Route)
			continue
		}
		fmt.Printf("- %s\n", node.Title)
		for _, child := range node.Children {
			fmt.Printf("    - %s (%s)\n", child.Title, child.Route)
		}
	}
	return nil
}

type ResetPasswordCmd struct {
	Domain string `arg:"" help:"Tenant domain."`
	Email  string `arg:"" help:"Registered email address."`
}

func (r *ResetPasswordCmd) Run(ctx context.Context, app *App) error {
	result, err := app.Auth.RequestPasswordReset(ctx, r.Domain, r.Email)
	if err != nil {
		return err
	}
	fmt.Println(result.Message)
	return nil
}

type RegisterCmd struct {
	Domain   string `arg:"" help:"Tenant domain."`
	FullName string `required:"" help:"Full name."`
	Username string `required:"" help:"Username."`
	Email    string `required:"" help:"Email address."`
	WhatsApp string `help:"WhatsApp number."`
	Password string `required:"" help:"Password."`
}

func (r *RegisterCmd) Run(ctx context.Context, app *App) error {
	result, err := app.Auth.Register(ctx, auth.Registration{
		Domain:   r.Domain,
		FullName: r.FullName,
		Username: r.Username,
		Email:    r.Email,
		WhatsApp: r.WhatsApp,
		Password: r.Password,
	})
	if err != nil {
		return err
	}
	if result.Message != "" {
		fmt.Println(result.Message)
	} else {
		fmt.Printf("Registered %s\n", result.Username)
	}
	return nil
}
