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

// SendCommand delivers a message through the session.
func SendCommand() *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "Send a message",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "to",
				Usage:    "Destination address",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "message",
				Aliases:  []string{"m"},
				Usage:    "Message body",
				Required: true,
			},
		},
		Action: sendAction,
	}
}

func sendAction(c *cli.Context) error {
	client, err := RequireCredential(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Post(ctx, "/send-message", map[string]string{
		"to":      c.String("to"),
		"message": c.String("message"),
	})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Status    string `json:"status"`
		MessageID string `json:"message_id"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	fmt.Printf("Delivered (message id: %s)\n", result.MessageID)
	return nil
}

// ContactsCommand lists the session's contacts.
func ContactsCommand() *cli.Command {
	return &cli.Command{
		Name:   "contacts",
		Usage:  "List contacts",
		Action: contactsAction,
	}
}

func contactsAction(c *cli.Context) error {
	client, err := RequireCredential(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/contacts")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Contacts []struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			Number    string `json:"number"`
			IsBlocked bool   `json:"is_blocked"`
		} `json:"contacts"`
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
		Headers: []string{"ID", "NAME", "NUMBER", "BLOCKED"},
	}
	for _, contact := range result.Contacts {
		table.Rows = append(table.Rows, []string{
			contact.ID, contact.Name, contact.Number,
			strconv.FormatBool(contact.IsBlocked),
		})
	}
	return formatter.Format(os.Stdout, table)
}

// ChatsCommand lists the session's chats.
func ChatsCommand() *cli.Command {
	return &cli.Command{
		Name:   "chats",
		Usage:  "List chats",
		Action: chatsAction,
	}
}

func chatsAction(c *cli.Context) error {
	client, err := RequireCredential(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/chats")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Chats []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			IsGroup     bool   `json:"is_group"`
			UnreadCount int    `json:"unread_count"`
		} `json:"chats"`
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
		Headers: []string{"ID", "NAME", "GROUP", "UNREAD"},
	}
	for _, chat := range result.Chats {
		table.Rows = append(table.Rows, []string{
			chat.ID, chat.Name,
			strconv.FormatBool(chat.IsGroup),
			strconv.Itoa(chat.UnreadCount),
		})
	}
	return formatter.Format(os.Stdout, table)
}
