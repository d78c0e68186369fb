// Package cli implements the kachery command-line client: content-addressed
// store and load against a gateway, with a local index of stored hashes.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kachery/gateway/internal/client/config"
	"github.com/kachery/gateway/internal/client/gateway"
	"github.com/kachery/gateway/internal/client/index"
)

type App struct {
	config *config.Config
	client *gateway.Client
	index  *index.Index
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	idx, err := index.Open(context.Background(), c.IndexDSN)
	if err != nil {
		return nil, fmt.Errorf("index init error: %w", err)
	}
	return &App{
		config: c,
		client: gateway.NewClient(c.GatewayURL, c.APIKey),
		index:  idx,
		out:    os.Stdout,
	}, nil
}

func (a *App) Close() error { return a.index.Close() }

// Run dispatches the subcommand given in args (usually os.Args[1:], with
// configuration flags already consumed by the config loader).
func (a *App) Run(ctx context.Context, args []string) error {
	cmd, rest := splitCommand(args)
	switch cmd {
	case "store":
		return a.runStore(ctx, rest)
	case "load":
		return a.runLoad(ctx, rest)
	case "list":
		return a.runList(ctx)
	case "":
		return fmt.Errorf("usage: store <file> | load <hash> [out-file] | list")
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// splitCommand returns the first non-flag argument and everything after it,
// skipping flags and their values.
func splitCommand(args []string) (string, []string) {
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			if !strings.Contains(args[i], "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
			}
			continue
		}
		return args[i], args[i+1:]
	}
	return "", nil
}

func (a *App) runStore(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: store <file>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	hash, err := a.client.Store(ctx, a.config.Zone, data)
	if err != nil {
		return err
	}

	if err := a.index.Record(ctx, &index.Entry{
		Hash:     hash,
		Size:     int64(len(data)),
		Zone:     a.config.Zone,
		StoredAt: time.Now().UnixMilli(),
	}); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "sha1://%s\n", hash)
	return nil
}

func (a *App) runLoad(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: load <hash> [out-file]")
	}
	hash := strings.TrimPrefix(args[0], "sha1://")

	data, found, err := a.client.Load(ctx, a.config.Zone, hash)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("content %s not found in zone %q", hash, a.config.Zone)
	}

	if len(args) >= 2 {
		return os.WriteFile(args[1], data, 0o600)
	}
	_, err = a.out.Write(data)
	return err
}

func (a *App) runList(ctx context.Context) error {
	entries, err := a.index.List(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(a.out, "sha1://%s\t%d\t%s\n", e.Hash, e.Size, e.Zone)
	}
	return nil
}
