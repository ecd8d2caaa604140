package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-learn-admin/admin"
	"github.com/jrsteele09/go-learn-admin/gateway"
	"github.com/jrsteele09/go-learn-admin/internal/config"
	"github.com/jrsteele09/go-learn-admin/internal/utils"
	"github.com/rs/zerolog/log"
)

const (
	envEmail    = "ADMIN_EMAIL"
	envPassword = "ADMIN_PASSWORD"
)

// loginFlags are shared by every command that needs a session.
type loginFlags struct {
	baseURL  *string
	email    *string
	password *string
}

func addLoginFlags(fs *flag.FlagSet, cfg config.APIConfig) loginFlags {
	return loginFlags{
		baseURL:  fs.String("url", cfg.GetBaseURL(), "API base URL"),
		email:    fs.String("email", os.Getenv(envEmail), "Admin email"),
		password: fs.String("password", os.Getenv(envPassword), "Admin password"),
	}
}

func registerCommands(r *CommandRegistry, cfg config.Config) {
	r.Register(whoamiCommand(cfg))
	r.Register(requestCommand(cfg))
	r.Register(listCommand(cfg))
	r.Register(resetPasswordCommand(cfg))
	r.Register(confirmResetCommand(cfg))
}

// newConsole builds a console from cfg, with -url taking precedence. A forced
// logout mid-command is reported on stderr; the command then fails with the
// gateway's error.
func newConsole(cfg config.APIConfig, lf loginFlags) (*admin.Console, error) {
	return admin.NewFromConfig(cfg,
		admin.WithBaseURL(*lf.baseURL),
		admin.WithOnSessionExpired(func(error) {
			fmt.Fprintln(os.Stderr, "Session expired, please log in again.")
		}),
	)
}

func login(ctx context.Context, cfg config.APIConfig, lf loginFlags) (*admin.Console, error) {
	console, err := newConsole(cfg, lf)
	if err != nil {
		return nil, err
	}
	if err := console.Login(ctx, *lf.email, *lf.password); err != nil {
		return nil, err
	}
	log.Debug().Str("email", *lf.email).Msg("logged in")
	return console, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func whoamiCommand(cfg config.Config) *Command {
	cmd := &Command{
		Name:        "whoami",
		Description: "Log in and show the claims of the issued access token",
		Usage:       "admin whoami [-url URL] [-email EMAIL] [-password PASSWORD]",
		Examples:    []string{"ADMIN_PASSWORD=secret admin whoami -email admin@example.com"},
	}
	cmd.Run = func(args []string) error {
		fs := cmd.NewFlagSet()
		lf := addLoginFlags(fs, cfg)
		if err := fs.Parse(args); err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()
		console, err := login(ctx, cfg, lf)
		if err != nil {
			return err
		}
		return printWhoami(console, os.Stdout)
	}
	return cmd
}

func printWhoami(console *admin.Console, out io.Writer) error {
	claims, err := console.Claims()
	if err != nil {
		return err
	}
	token, err := console.Token()
	if err != nil {
		return err
	}

	expires := "never"
	if !token.Expiry.IsZero() {
		expires = token.Expiry.Format(time.RFC3339)
	}
	table := NewTableWriter(out, "Claim", "Value")
	table.AddRow("subject", claims.Subject)
	table.AddRow("email", claims.Email)
	table.AddRow("issued", claims.IssuedAt.Format(time.RFC3339))
	table.AddRow("token type", token.Type())
	table.AddRow("expires", expires)
	table.AddRow("valid", strconv.FormatBool(token.Valid()))
	table.Print()
	return nil
}

func requestCommand(cfg config.Config) *Command {
	cmd := &Command{
		Name:        "request",
		Description: "Send an authenticated request and print the response body",
		Usage:       "admin request [-X METHOD] [-d JSON] PATH",
		Examples: []string{
			"admin request /questions/tests/",
			"admin request -X POST -d '{\"name\":\"Listening\",\"level\":2}' /step/skills/",
			"admin request -X DELETE /step/skills/1/",
		},
	}
	cmd.Run = func(args []string) error {
		fs := cmd.NewFlagSet()
		lf := addLoginFlags(fs, cfg)
		method := fs.String("X", "GET", "HTTP method")
		data := fs.String("d", "", "JSON request body, '-' reads stdin")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			cmd.PrintUsage()
			return fmt.Errorf("expected exactly one path")
		}

		var body any
		switch *data {
		case "":
		case "-":
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			body = json.RawMessage(b)
		default:
			body = json.RawMessage(*data)
		}

		ctx, cancel := commandContext()
		defer cancel()
		console, err := login(ctx, cfg, lf)
		if err != nil {
			return err
		}

		resp, err := console.Gateway().Send(ctx, gateway.Request{
			Method: strings.ToUpper(*method),
			Path:   fs.Arg(0),
			Body:   body,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "HTTP %d\n", resp.StatusCode)
		if len(resp.Body) > 0 {
			fmt.Println(string(resp.Body))
		}
		return resp.Err()
	}
	return cmd
}

func listCommand(cfg config.Config) *Command {
	cmd := &Command{
		Name:        "list",
		Description: "List a content collection: tests, lessons or skills",
		Usage:       "admin list [-url URL] [-email EMAIL] [-password PASSWORD] COLLECTION",
		Examples:    []string{"admin list lessons"},
	}
	cmd.Run = func(args []string) error {
		fs := cmd.NewFlagSet()
		lf := addLoginFlags(fs, cfg)
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			cmd.PrintUsage()
			return fmt.Errorf("expected a collection name")
		}

		ctx, cancel := commandContext()
		defer cancel()
		console, err := login(ctx, cfg, lf)
		if err != nil {
			return err
		}
		return printCollection(ctx, console, fs.Arg(0), os.Stdout)
	}
	return cmd
}

func printCollection(ctx context.Context, console *admin.Console, name string, out io.Writer) error {
	id := func(v int64) string { return strconv.FormatInt(v, 10) }

	switch name {
	case "tests":
		items, err := console.QuestionTests.List(ctx)
		if err != nil {
			return err
		}
		table := NewTableWriter(out, "ID", "Title", "Minutes", "Published", "Created")
		for _, t := range items {
			created := ""
			if at := utils.Value(t.CreatedAt); !at.IsZero() {
				created = at.Format(time.DateTime)
			}
			table.AddRow(id(t.ID), t.Title, strconv.Itoa(t.DurationMinutes), strconv.FormatBool(t.IsPublished), created)
		}
		table.Print()
	case "lessons":
		items, err := console.IELTSLessons.List(ctx)
		if err != nil {
			return err
		}
		table := NewTableWriter(out, "ID", "Title", "Section", "Order")
		for _, l := range items {
			table.AddRow(id(l.ID), l.Title, l.Section, strconv.Itoa(l.Order))
		}
		table.Print()
	case "skills":
		items, err := console.STEPSkills.List(ctx)
		if err != nil {
			return err
		}
		table := NewTableWriter(out, "ID", "Name", "Level")
		for _, s := range items {
			table.AddRow(id(s.ID), s.Name, strconv.Itoa(s.Level))
		}
		table.Print()
	default:
		return fmt.Errorf("unknown collection %q (use tests, lessons or skills)", name)
	}
	return nil
}

func resetPasswordCommand(cfg config.Config) *Command {
	cmd := &Command{
		Name:        "reset-password",
		Description: "Ask the API to email a password reset token",
		Usage:       "admin reset-password [-url URL] EMAIL",
		Examples:    []string{"admin reset-password admin@example.com"},
	}
	cmd.Run = func(args []string) error {
		fs := cmd.NewFlagSet()
		lf := addLoginFlags(fs, cfg)
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			cmd.PrintUsage()
			return fmt.Errorf("expected an email address")
		}

		ctx, cancel := commandContext()
		defer cancel()
		console, err := newConsole(cfg, lf)
		if err != nil {
			return err
		}
		if err := console.RequestPasswordReset(ctx, fs.Arg(0)); err != nil {
			return err
		}
		fmt.Println("If the account exists, a reset email has been sent.")
		return nil
	}
	return cmd
}

func confirmResetCommand(cfg config.Config) *Command {
	cmd := &Command{
		Name:        "confirm-reset",
		Description: "Set a new password with a reset token",
		Usage:       "admin confirm-reset [-url URL] -token TOKEN -new-password PASSWORD",
		Examples:    []string{"admin confirm-reset -token 3f2a... -new-password Changed123"},
	}
	cmd.Run = func(args []string) error {
		fs := cmd.NewFlagSet()
		lf := addLoginFlags(fs, cfg)
		token := fs.String("token", "", "Reset token from the email")
		newPassword := fs.String("new-password", "", "New password")
		if err := fs.Parse(args); err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()
		console, err := newConsole(cfg, lf)
		if err != nil {
			return err
		}
		if err := console.ConfirmPasswordReset(ctx, *token, *newPassword); err != nil {
			return err
		}
		fmt.Println("Password changed, you can now log in.")
		return nil
	}
	return cmd
}
