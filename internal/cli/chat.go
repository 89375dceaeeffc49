package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/coder/websocket"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var chatServerURL string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a running switchboard server from the terminal",
	Long: "Creates a session against a running server and bridges the terminal\n" +
		"to its websocket channel. Type 'exit' to end the session.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatServerURL, "server", "http://localhost:8000", "base URL of the switchboard server")
}

func runChat(ctx context.Context) error {
	sessionID, err := createSession(chatServerURL)
	if err != nil {
		return err
	}
	fmt.Printf("session %s\n", color.YellowString(sessionID))

	wsURL := strings.Replace(chatServerURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	conn, _, err := websocket.Dial(ctx, wsURL+"/ws/"+sessionID, nil)
	if err != nil {
		return fmt.Errorf("connect websocket: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	agentColor := color.New(color.FgCyan)
	promptColor := color.New(color.FgGreen, color.Bold)

	// Print server frames as they arrive; the first one is the greeting.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			agentColor.Printf("agent> %s\n", string(data))
			promptColor.Print("you> ")
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-done:
			fmt.Println("session ended")
			return nil
		case <-ctx.Done():
			return nil
		default:
		}

		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := conn.Write(ctx, websocket.MessageText, []byte(line)); err != nil {
			<-done
			fmt.Println("session ended")
			return nil
		}
	}
}

func createSession(baseURL string) (string, error) {
	resp, err := http.Post(baseURL+"/api/session", "application/json", nil)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("create session: unexpected status %s", resp.Status)
	}

	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode session response: %w", err)
	}
	if body.SessionID == "" {
		return "", fmt.Errorf("server returned empty session id")
	}
	return body.SessionID, nil
}
