package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/Shivanand-hulikatti/eventhub/internal/cli"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/session"
	"github.com/Shivanand-hulikatti/eventhub/internal/validation"
)

func newRoot(a *app) *cli.Command {
	return &cli.Command{
		Name:        "eventhub",
		Description: "Discover events, buy tickets and manage the events you organize.",
		Usage:       "eventhub [--config FILE] [--log-level LEVEL] <command> [flags]",
		Stderr:      a.io.err,
		Subcommands: []*cli.Command{
			loginCommand(a),
			registerCommand(a),
			logoutCommand(a),
			whoamiCommand(a),
			eventsCommand(a),
			ticketsCommand(a),
			dashboardCommand(a),
			uploadCommand(a),
		},
		Examples: []cli.Example{
			{Description: "Log in and list free events in Kuala Lumpur", Command: "eventhub login me@example.com && eventhub events list --price free --location 'Kuala Lumpur'"},
			{Description: "Browse interactively", Command: "eventhub events browse"},
		},
	}
}

func loginCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "login",
		Summary: "Log in and remember the session",
		Usage:   "eventhub login <email>",
		Run: func(ctx context.Context, args []string) error {
			if err := cli.ExactArgs("login", args, 1, "<email>"); err != nil {
				return err
			}
			password, err := a.promptSecret("Password: ")
			if err != nil {
				return err
			}
			creds := model.Credentials{Email: args[0], Password: password}
			if err := validation.Credentials(ctx, &creds); err != nil {
				return err
			}

			if !a.session.Login(ctx, creds.Email, creds.Password) {
				return fmt.Errorf("login failed: %w", a.session.Err())
			}
			user, _ := a.session.User()
			fmt.Fprintf(a.io.out, "Logged in as %s (%s)\n", user.Name, user.Role)
			return nil
		},
	}
}

func registerCommand(a *app) *cli.Command {
	var name, email, role string
	return &cli.Command{
		Name:    "register",
		Summary: "Create an account and log in",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("register", pflag.ContinueOnError)
			fs.StringVar(&name, "name", "", "full name")
			fs.StringVar(&email, "email", "", "email address")
			fs.StringVar(&role, "role", string(model.RoleAttendee), "attendee or organizer")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			parsedRole, err := model.ParseRole(role)
			if err != nil {
				return err
			}
			password, err := a.promptSecret("Choose a password: ")
			if err != nil {
				return err
			}
			req := model.AccountRequest{Name: name, Email: email, Password: password, Role: parsedRole}
			if err := validation.Account(ctx, &req); err != nil {
				return err
			}

			if !a.session.Register(ctx, req.Name, req.Email, req.Password, req.Role) {
				err := a.session.Err()
				if errors.Is(err, session.ErrAccountCreatedLoginFailed) {
					return fmt.Errorf("%w\nThe account exists; try 'eventhub login %s'", err, req.Email)
				}
				return fmt.Errorf("registration failed: %w", err)
			}
			fmt.Fprintf(a.io.out, "Welcome, %s! You are registered as an %s.\n", req.Name, req.Role)
			return nil
		},
	}
}

func logoutCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "logout",
		Summary: "Forget the stored session",
		Run: func(ctx context.Context, args []string) error {
			a.session.Logout(ctx)
			fmt.Fprintln(a.io.out, "Logged out.")
			return nil
		},
	}
}

func whoamiCommand(a *app) *cli.Command {
	var asJSON bool
	return &cli.Command{
		Name:    "whoami",
		Summary: "Show the logged-in user",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("whoami", pflag.ContinueOnError)
			fs.BoolVar(&asJSON, "json", false, "output as JSON")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			user, err := a.requireUser()
			if err != nil {
				return err
			}
			if asJSON {
				return cli.WriteJSON(a.io.out, user)
			}
			fmt.Fprintf(a.io.out, "%s <%s>\nrole: %s\nid:   %s\n", user.Name, user.Email, user.Role, user.ID)
			return nil
		},
	}
}

func ticketsCommand(a *app) *cli.Command {
	var asJSON bool
	return &cli.Command{
		Name:    "tickets",
		Summary: "List your tickets",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("tickets", pflag.ContinueOnError)
			fs.BoolVar(&asJSON, "json", false, "output as JSON")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if _, err := a.requireUser(); err != nil {
				return err
			}
			tickets, err := a.client.MyTickets(ctx)
			if err != nil {
				return fmt.Errorf("fetch tickets: %w", err)
			}
			if asJSON {
				return cli.WriteJSON(a.io.out, tickets)
			}
			if len(tickets) == 0 {
				fmt.Fprintln(a.io.out, "No tickets yet. Find something with 'eventhub events list'.")
				return nil
			}
			return writeTicketTable(a.io.out, tickets)
		},
	}
}

// dashboardCommand shows the signed-in user's tickets and, for organizers,
// the events they run.
func dashboardCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "dashboard",
		Summary: "Your tickets and, for organizers, your events",
		Run: func(ctx context.Context, args []string) error {
			user, err := a.requireUser()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.io.out, "Welcome back, %s\n\n", user.Name)

			tickets, err := a.client.MyTickets(ctx)
			if err != nil {
				return fmt.Errorf("fetch tickets: %w", err)
			}
			fmt.Fprintf(a.io.out, "My tickets (%d)\n", len(tickets))
			if len(tickets) > 0 {
				if err := writeTicketTable(a.io.out, tickets); err != nil {
					return err
				}
			}

			if !user.IsOrganizer() {
				return nil
			}
			events, err := a.client.ListOrganizedEvents(ctx)
			if err != nil {
				return fmt.Errorf("fetch organized events: %w", err)
			}
			fmt.Fprintf(a.io.out, "\nMy events (%d)\n", len(events))
			if len(events) > 0 {
				return writeEventTable(a.io.out, events)
			}
			return nil
		},
	}
}

func uploadCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "upload",
		Summary: "Upload an event image (max 5MB)",
		Usage:   "eventhub upload <file>",
		Run: func(ctx context.Context, args []string) error {
			if err := cli.ExactArgs("upload", args, 1, "<file>"); err != nil {
				return err
			}
			if _, err := a.requireOrganizer(); err != nil {
				return err
			}
			result, err := a.uploadImage(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.io.out, "%s\n%s\n", result.FilePath, a.client.ImageURL(result.FilePath))
			return nil
		},
	}
}
