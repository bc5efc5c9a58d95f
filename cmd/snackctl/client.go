package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// apiClient is a thin HTTP client for the backend.
type apiClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func newAPIClient() *apiClient {
	return &apiClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(serverURL, "/"),
	}
}

func (c *apiClient) post(path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) login(email, password string) error {
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	err := c.post("/api/login", map[string]string{"username": email, "password": password}, &resp)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	c.token = resp.AccessToken
	return nil
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API server is up",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient()
			resp, err := c.httpClient.Get(c.baseURL + "/health")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("health check failed: %s", resp.Status)
			}
			fmt.Println("ok")
			return nil
		},
	}
}

func chatCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open an interactive ordering conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient()
			if err := c.login(email, password); err != nil {
				return err
			}

			var conv struct {
				ID uint `json:"id"`
			}
			err := c.post("/api/conversations", map[string]string{"title": "Nouvelle commande"}, &conv)
			if err != nil {
				return fmt.Errorf("create conversation: %w", err)
			}

			fmt.Println("Assistant SnackZinabi — tapez votre message, Ctrl-D pour quitter.")
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					break
				}
				message := strings.TrimSpace(scanner.Text())
				if message == "" {
					continue
				}

				var resp struct {
					Response string `json:"response"`
				}
				err := c.post("/api/chat-rag", map[string]interface{}{
					"message":         message,
					"conversation_id": conv.ID,
				}, &resp)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					continue
				}
				fmt.Println(resp.Response)
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Subscribe to committed orders like a kitchen display",
		RunE: func(cmd *cobra.Command, args []string) error {
			wsURL := strings.Replace(strings.TrimRight(serverURL, "/"), "http", "ws", 1) + "/api/ws/commandes"
			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if err != nil {
				return fmt.Errorf("connect %s: %w", wsURL, err)
			}
			defer conn.Close()

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			go func() {
				<-interrupt
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				conn.Close()
			}()

			fmt.Println("En attente de commandes...")
			for {
				var frame struct {
					Type     string `json:"type"`
					Commande struct {
						ID     uint   `json:"ID"`
						Plat   string `json:"plat"`
						Viande string `json:"viande"`
						Taille string `json:"taille"`
						Table  int    `json:"table"`
					} `json:"commande"`
				}
				if err := conn.ReadJSON(&frame); err != nil {
					return nil
				}
				if frame.Type != "new_commande" {
					continue
				}
				fmt.Printf("[commande #%d] %s %s (%s) — table %d\n",
					frame.Commande.ID, frame.Commande.Plat, frame.Commande.Viande,
					frame.Commande.Taille, frame.Commande.Table)
			}
		},
	}
}
