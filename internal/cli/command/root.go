// Package command provides CLI command definitions for chatmesh-cli.
//
// It uses urfave/cli/v2 for command parsing.
package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/chatmesh-go/internal/cli/connection"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "chatmesh-cli",
		Usage:   "ChatMesh gateway command-line tool",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			AuthCommand(),
			TokenCommand(),
			StatusCommand(),
			SessionsCommand(),
			SendCommand(),
			LogoutCommand(),
			ContactsCommand(),
			ChatsCommand(),
		},
		Before: func(c *cli.Context) error {
			mgr := connection.NewManager()
			mgr.Connect(&connection.Connection{
				Server:     c.String("server"),
				Credential: c.String("token"),
			})
			c.App.Metadata["connMgr"] = mgr
			return nil
		},
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "ChatMesh gateway address (e.g., localhost:3000)",
			EnvVars: []string{"CHATMESH_SERVER"},
			Value:   "localhost:3000",
		},
		&cli.StringFlag{
			Name:    "token",
			Aliases: []string{"t"},
			Usage:   "Bearer credential for protected endpoints",
			EnvVars: []string{"CHATMESH_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server string
	Token  string
	Output string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Server: c.String("server"),
		Token:  c.String("token"),
		Output: c.String("output"),
	}
}

// GetConnectionManager retrieves the connection manager from context.
func GetConnectionManager(c *cli.Context) *connection.Manager {
	if mgr, ok := c.App.Metadata["connMgr"].(*connection.Manager); ok {
		return mgr
	}
	return connection.NewManager()
}

// EnsureConnected returns an HTTP client for the configured gateway.
func EnsureConnected(c *cli.Context) (*connection.HTTPClient, error) {
	mgr := GetConnectionManager(c)
	if !mgr.IsConnected() {
		return nil, fmt.Errorf("no gateway configured; pass --server or set CHATMESH_SERVER")
	}
	return mgr.Client(), nil
}

// RequireCredential returns a client and fails early when no bearer
// credential is configured.
func RequireCredential(c *cli.Context) (*connection.HTTPClient, error) {
	if c.String("token") == "" {
		return nil, fmt.Errorf("this command needs a bearer credential; pass --token or set CHATMESH_TOKEN")
	}
	return EnsureConnected(c)
}
