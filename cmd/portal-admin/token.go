package main

import (
	"context"
	"fmt"
	"io"

	redisadapter "github.com/PoojaS1511/Updated-CMS-sub000/internal/adapters/redis"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/bootstrap"
)

type tokenStore interface {
	Load(ctx context.Context) (string, error)
	Delete(ctx context.Context) error
	Key() string
}

func runClearToken(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultLookupTimeout)
	defer cancel()

	client, err := bootstrap.ConnectRedis(ctx, bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", cerr)
		}
	}()

	return clearToken(ctx, cmdCtx.Out, redisadapter.NewTokenStoreWithKey(client, cmdCtx.Config.Auth.TokenKey))
}

func clearToken(ctx context.Context, w io.Writer, store tokenStore) error {
	tok, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if tok == "" {
		return writef(w, "No persisted token at %s\n", store.Key())
	}
	if err := store.Delete(ctx); err != nil {
		return err
	}
	return writef(w, "Deleted persisted token at %s\n", store.Key())
}
