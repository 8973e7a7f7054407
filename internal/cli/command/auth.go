package command

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/chatmesh-go/internal/cli/connection"
	"github.com/yndnr/chatmesh-go/internal/cli/output"
)

// AuthCommand starts a handshake for a client and prints the code.
func AuthCommand() *cli.Command {
	return &cli.Command{
		Name:      "auth",
		Usage:     "Start a session handshake and print the pairing code",
		ArgsUsage: "CLIENT_ID",
		Action:    authAction,
	}
}

func authAction(c *cli.Context) error {
	clientID := c.Args().First()
	if clientID == "" {
		return fmt.Errorf("CLIENT_ID argument is required")
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/auth?id_cliente="+url.QueryEscape(clientID))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Status        string `json:"status"`
		ClientID      string `json:"id_cliente"`
		QRCode        string `json:"qr_code"`
		SessionKey    string `json:"session_key"`
		KeyExpiresIn  int64  `json:"key_expires_in"`
		Authenticated bool   `json:"authenticated"`
		SessionState  string `json:"session_state"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	if output.Format(flags.Output) == output.FormatJSON {
		return (&output.JSONFormatter{}).Format(os.Stdout, result)
	}

	if result.Authenticated {
		fmt.Printf("Client %s is already authenticated (state: %s)\n",
			clientID, result.SessionState)
		return nil
	}

	fmt.Printf("Pairing code for %s:\n\n  %s\n\n", result.ClientID, result.QRCode)
	fmt.Printf("Session key (valid %ds, single use):\n\n  %s\n\n",
		result.KeyExpiresIn, result.SessionKey)
	fmt.Println("Scan the code, then exchange the key with: chatmesh-cli token")
	return nil
}

// TokenCommand exchanges a session key for a bearer credential.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:      "token",
		Usage:     "Exchange a session key for a bearer credential",
		ArgsUsage: "CLIENT_ID SESSION_KEY",
		Action:    tokenAction,
	}
}

func tokenAction(c *cli.Context) error {
	clientID := c.Args().Get(0)
	sessionKey := c.Args().Get(1)
	if clientID == "" || sessionKey == "" {
		return fmt.Errorf("CLIENT_ID and SESSION_KEY arguments are required")
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Post(ctx, "/get-token", map[string]string{
		"id_cliente":  clientID,
		"session_key": sessionKey,
	})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Status    string `json:"status"`
		Token     string `json:"token"`
		ExpiresIn string `json:"expires_in"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	if output.Format(flags.Output) == output.FormatJSON {
		return (&output.JSONFormatter{}).Format(os.Stdout, result)
	}

	if result.Status == "pending" {
		fmt.Println("Session is not connected yet; scan the pairing code and retry.")
		return nil
	}

	fmt.Printf("Bearer credential (valid %s):\n\n  %s\n\n", result.ExpiresIn, result.Token)
	fmt.Println("Export it with: export CHATMESH_TOKEN=<credential>")
	return nil
}
