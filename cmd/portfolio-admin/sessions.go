package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openfolio/portfolio-api/internal/bootstrap"
	domainauth "github.com/openfolio/portfolio-api/internal/domain/auth"
	"github.com/openfolio/portfolio-api/internal/util"
)

const (
	adminSessionKeyPrefix = "admin_session:"
	sessionScanBatchSize  = 100
	defaultSessionTimeout = time.Minute
)

type listSessionsOptions struct {
	Timeout time.Duration
}

type revokeSessionsOptions struct {
	Timeout time.Duration
	ID      string
	All     bool
	Yes     bool
}

type sessionRow struct {
	key     string
	session domainauth.AdminSession
	ttl     time.Duration
}

func runListSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseListSessionsFlags(args)
	if err != nil {
		return err
	}

	return withRedis(cmdCtx, opts.Timeout, func(ctx context.Context, client redis.UniversalClient) error {
		rows, scanErr := scanAdminSessions(ctx, client)
		if scanErr != nil {
			return scanErr
		}

		if len(rows) == 0 {
			return writeln(os.Stdout, "No active admin sessions.")
		}

		sort.Slice(rows, func(i, j int) bool {
			return rows[i].session.ExpiresAt.Before(rows[j].session.ExpiresAt)
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		if _, werr := fmt.Fprintln(w, "SESSION ID\tUSER ID\tEMAIL\tROLE\tEXPIRES\tTTL"); werr != nil {
			return fmt.Errorf("write session header: %w", werr)
		}
		for _, row := range rows {
			sess := row.session
			if _, werr := fmt.Fprintf(
				w,
				"%s\t%s\t%s\t%s\t%s\t%s\n",
				sess.ID,
				sess.UserID,
				sess.Email,
				sess.Role,
				sess.ExpiresAt.UTC().Format(time.RFC3339),
				util.FormatTTL(row.ttl),
			); werr != nil {
				return fmt.Errorf("write session row: %w", werr)
			}
		}
		if flushErr := w.Flush(); flushErr != nil {
			return fmt.Errorf("flush session table: %w", flushErr)
		}
		return writef(os.Stdout, "\n%d active session(s).\n", len(rows))
	})
}

func runRevokeSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseRevokeSessionsFlags(args)
	if err != nil {
		return err
	}

	return withRedis(cmdCtx, opts.Timeout, func(ctx context.Context, client redis.UniversalClient) error {
		var keys []string
		if opts.All {
			rows, scanErr := scanAdminSessions(ctx, client)
			if scanErr != nil {
				return scanErr
			}
			for _, row := range rows {
				keys = append(keys, row.key)
			}
		} else {
			keys = append(keys, adminSessionKeyPrefix+opts.ID)
		}

		if len(keys) == 0 {
			return writeln(os.Stdout, "No admin sessions to revoke.")
		}

		target := fmt.Sprintf("%d admin session(s)", len(keys))
		if confirmErr := confirmAction(opts.Yes, "revoke", target); confirmErr != nil {
			return confirmErr
		}

		deleted, delErr := client.Del(ctx, keys...).Result()
		if delErr != nil {
			return fmt.Errorf("delete session keys: %w", delErr)
		}

		cmdCtx.Logger.Info("admin sessions revoked", "requested", len(keys), "deleted", deleted)
		return writef(os.Stdout, "Revoked %d of %d session(s).\n", deleted, len(keys))
	})
}

// scanAdminSessions walks the session keyspace with SCAN so the CLI never
// blocks the server with a KEYS call. Keys that disappear or fail to
// decode mid-scan are skipped with a warning.
func scanAdminSessions(ctx context.Context, client redis.UniversalClient) ([]sessionRow, error) {
	var rows []sessionRow

	iter := client.Scan(ctx, 0, adminSessionKeyPrefix+"*", sessionScanBatchSize).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		raw, err := client.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // expired between SCAN and GET
			}
			return nil, fmt.Errorf("get session %q: %w", key, err)
		}

		var sess domainauth.AdminSession
		if unmarshalErr := json.Unmarshal([]byte(raw), &sess); unmarshalErr != nil {
			if werr := writef(os.Stderr, "warning: skipping undecodable session key %q: %v\n", key, unmarshalErr); werr != nil {
				return nil, werr
			}
			continue
		}

		ttl, ttlErr := client.TTL(ctx, key).Result()
		if ttlErr != nil {
			return nil, fmt.Errorf("ttl for session %q: %w", key, ttlErr)
		}

		rows = append(rows, sessionRow{key: key, session: sess, ttl: ttl})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan admin sessions: %w", err)
	}

	return rows, nil
}

func parseListSessionsFlags(args []string) (listSessionsOptions, error) {
	fs := flag.NewFlagSet("list-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := listSessionsOptions{
		Timeout: defaultSessionTimeout,
	}

	fs.DurationVar(
		&opts.Timeout,
		"timeout",
		defaultSessionTimeout,
		"Maximum duration to wait for the session scan to complete",
	)

	if err := fs.Parse(args); err != nil {
		return listSessionsOptions{}, err
	}

	if opts.Timeout <= 0 {
		return listSessionsOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}

func parseRevokeSessionsFlags(args []string) (revokeSessionsOptions, error) {
	fs := flag.NewFlagSet("revoke-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := revokeSessionsOptions{
		Timeout: defaultSessionTimeout,
	}

	fs.DurationVar(
		&opts.Timeout,
		"timeout",
		defaultSessionTimeout,
		"Maximum duration to wait for revocation to complete",
	)
	fs.StringVar(&opts.ID, "id", "", "Session ID to revoke")
	fs.BoolVar(&opts.All, "all", false, "Revoke every active admin session")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return revokeSessionsOptions{}, err
	}

	if opts.Timeout <= 0 {
		return revokeSessionsOptions{}, errors.New("--timeout must be greater than zero")
	}

	opts.ID = strings.TrimSpace(opts.ID)
	if opts.All == (opts.ID != "") {
		return revokeSessionsOptions{}, errors.New("exactly one of --id or --all is required")
	}

	return opts, nil
}

func withRedis(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, redis.UniversalClient) error,
) error {
	ctx, stop := signalContext(cmdCtx.Ctx)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
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

	return f(ctx, client)
}
