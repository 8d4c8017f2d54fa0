package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PoojaS1511/Updated-CMS-sub000/internal/bootstrap"
	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
)

type whoamiOptions struct {
	Subject string
	Email   string
	Claims  map[string]any
	Timeout time.Duration
}

func runWhoAmI(cmdCtx *commandContext, args []string) error {
	opts, err := parseWhoAmIFlags(args)
	if err != nil {
		return err
	}
	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		resolver, buildErr := bootstrap.BuildRoleResolver(bootstrap.AuthConfig{
			Auth:   cmdCtx.Config.Auth,
			DB:     db,
			Logger: cmdCtx.Logger,
		})
		if buildErr != nil {
			return buildErr
		}
		id, resolveErr := resolver.Resolve(ctx, domainauth.Session{
			SubjectID: opts.Subject,
			Email:     opts.Email,
			Claims:    opts.Claims,
		})
		if resolveErr != nil {
			return fmt.Errorf("resolve identity: %w", resolveErr)
		}
		return printIdentity(cmdCtx.Out, id)
	})
}

func parseWhoAmIFlags(args []string) (whoamiOptions, error) {
	var opts whoamiOptions
	var claims string
	fs := newFlagSet("whoami", &opts.Timeout, defaultLookupTimeout, "the directory lookups")
	fs.StringVar(&opts.Subject, "subject", "", "Provider subject ID")
	fs.StringVar(&opts.Email, "email", "", "Email address on the session")
	fs.StringVar(&claims, "claims", "", "Session claims as a JSON object")
	if err := parseWithTimeout(fs, args, &opts.Timeout); err != nil {
		return whoamiOptions{}, err
	}

	opts.Subject = strings.TrimSpace(opts.Subject)
	opts.Email = strings.TrimSpace(opts.Email)
	if opts.Subject == "" && opts.Email == "" {
		return whoamiOptions{}, errors.New("--subject or --email is required")
	}
	if claims != "" {
		if err := json.Unmarshal([]byte(claims), &opts.Claims); err != nil {
			return whoamiOptions{}, fmt.Errorf("--claims: %w", err)
		}
	}
	return opts, nil
}

func printIdentity(w io.Writer, id domainauth.Identity) error {
	if err := writef(w, "Role: %s\nHome: %s\n", id.Role, domainauth.HomePath(&id)); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(id); err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	return nil
}
