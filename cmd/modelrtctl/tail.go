package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// newTailEventsCmd opens the daemon's duplex /v1/stream websocket, sends
// one install or generate frame for --model/--prompt, and prints every
// frame it receives. The daemon streams events only for a request sent on
// the same connection: without --model no frame is sent and no events
// arrive.
func newTailEventsCmd(rf *rootFlags) *cobra.Command {
	var modelID, prompt, kind string
	cmd := &cobra.Command{
		Use:   "tail-events",
		Short: "Attach to the daemon's websocket stream and print events as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			wsURL := strings.Replace(rf.serverAddr, "http://", "ws://", 1)
			wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
			u, err := url.Parse(wsURL)
			if err != nil {
				return err
			}
			u.Path = "/v1/stream"

			conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
			if err != nil {
				return err
			}
			defer conn.Close()

			if modelID != "" {
				if err := conn.WriteJSON(map[string]string{
					"type":    kind,
					"modelId": modelID,
					"prompt":  prompt,
				}); err != nil {
					return err
				}
			}

			for {
				_, raw, err := conn.ReadMessage()
				if err != nil {
					return nil
				}
				var pretty json.RawMessage
				if err := json.Unmarshal(raw, &pretty); err == nil {
					fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
				}
			}
		},
	}
	cmd.Flags().StringVar(&modelID, "model", "", "model to install or generate for; without it no request is sent and no events arrive")
	cmd.Flags().StringVar(&prompt, "prompt", "", "prompt text, when --model starts a generate frame")
	cmd.Flags().StringVar(&kind, "kind", "install", "frame kind to send when --model is set: install|generate")
	return cmd
}
