// ABOUTME: Shared wiring for commands: API client, state store and session
// ABOUTME: Each command opens what it needs and closes it on exit

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/markalston/bookshelf/internal/client"
	"github.com/markalston/bookshelf/internal/config"
	"github.com/markalston/bookshelf/internal/debuglog"
	"github.com/markalston/bookshelf/internal/kvstore"
	"github.com/markalston/bookshelf/internal/session"
)

// app bundles the long-lived collaborators of one command invocation.
type app struct {
	cfg      *config.Config
	client   *client.Client
	kv       kvstore.Store
	sessions *session.Store
}

// openApp loads config, opens the state store and restores the session.
// The client carries the session token when one exists.
func openApp(ctx context.Context) (*app, error) {
	c, err := currentConfig()
	if err != nil {
		return nil, err
	}
	kv, err := kvstore.Open(c.StateBackend, c.StateDir)
	if err != nil {
		return nil, errors.Wrap(err, "open state store")
	}
	sessions, err := session.Open(ctx, kv)
	if err != nil {
		kv.Close()
		return nil, err
	}

	opts := []client.Option{client.WithTimeout(c.Timeout), client.WithSOCKS5(c.Proxy)}
	if sess := sessions.Current(); sess != nil {
		opts = append(opts, client.WithToken(sess.Token))
	}
	api, err := client.New(GetAPIURL(), opts...)
	if err != nil {
		kv.Close()
		return nil, err
	}

	debuglog.Log("opened app api=%s backend=%s", api.BaseURL(), c.StateBackend)
	return &app{cfg: c, client: api, kv: kv, sessions: sessions}, nil
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		debuglog.Error("close state store", err)
	}
}

// requireSession returns the session or prints the standard hint.
func (a *app) requireSession(w io.Writer) (*session.Session, bool) {
	sess, err := a.sessions.Require()
	if err != nil {
		fmt.Fprintln(w, "Error: not logged in. Run 'bookshelf login' first.")
		return nil, false
	}
	return sess, true
}
