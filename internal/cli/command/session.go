package command

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/chatmesh-go/internal/cli/connection"
	"github.com/yndnr/chatmesh-go/internal/cli/output"
)

type statusResult struct {
	ClientID     string `json:"id_cliente"`
	SessionState string `json:"session_state"`
	Connected    bool   `json:"connected"`
	Info         *struct {
		Name   string `json:"name"`
		Number string `json:"number"`
	} `json:"info"`
}

// StatusCommand reports the caller's session state.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show the session state for the credential's client",
		Action: statusAction,
	}
}

func statusAction(c *cli.Context) error {
	client, err := RequireCredential(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/status")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result statusResult
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	formatter := output.NewFormatter(output.Format(flags.Output))
	if output.Format(flags.Output) != output.FormatTable {
		return formatter.Format(os.Stdout, result)
	}

	table := &output.Table{
		Headers: []string{"CLIENT ID", "STATE", "CONNECTED"},
		Rows: [][]string{{
			result.ClientID,
			result.SessionState,
			strconv.FormatBool(result.Connected),
		}},
	}
	return formatter.Format(os.Stdout, table)
}

// SessionsCommand lists the sessions visible to the credential.
func SessionsCommand() *cli.Command {
	return &cli.Command{
		Name:    "sessions",
		Aliases: []string{"sess"},
		Usage:   "List sessions visible to this credential",
		Action:  sessionsAction,
	}
}

func sessionsAction(c *cli.Context) error {
	client, err := RequireCredential(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/my-sessions")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Sessions []statusResult `json:"sessions"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	formatter := output.NewFormatter(output.Format(flags.Output))
	if output.Format(flags.Output) != output.FormatTable {
		return formatter.Format(os.Stdout, result)
	}

	table := &output.Table{
		Headers: []string{"CLIENT ID", "STATE", "CONNECTED"},
	}
	for _, s := range result.Sessions {
		table.Rows = append(table.Rows, []string{
			s.ClientID, s.SessionState, strconv.FormatBool(s.Connected),
		})
	}
	if err := formatter.Format(os.Stdout, table); err != nil {
		return err
	}
	fmt.Printf("\nTotal: %d sessions\n", len(result.Sessions))
	return nil
}

// LogoutCommand ends the authenticated session.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "End the session and forget its stored identity",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Skip confirmation",
			},
		},
		Action: logoutAction,
	}
}

func logoutAction(c *cli.Context) error {
	if !c.Bool("force") {
		fmt.Print("End the session and forget its stored identity? [y/N] ")
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	client, err := RequireCredential(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Post(ctx, "/logout", nil)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}

	fmt.Println("Session closed.")
	return nil
}
