package cli

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/maheshmm7/DriveGaurdAI/pkg/log"
	websocketPkg "github.com/maheshmm7/DriveGaurdAI/pkg/websocket"
	"github.com/spf13/cobra"
)

func newStreamCommand() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "stream [images...]",
		Short: "Send image files as frames to a running server over WebSocket",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := websocketPkg.Dial(url, nil, log.NewLogger())
			if err != nil {
				return err
			}
			defer client.Close()

			return runStream(client, args, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "ws://localhost:3000/api/v1/detect/ws", "WebSocket endpoint of the detection server")

	return cmd
}

// runStream sends each file as one frame and prints the answers in order.
// Server-side frame errors are reported per file and do not stop the run.
func runStream(client websocketPkg.IWebsocket, paths []string, out io.Writer) error {
	enc := jsoniter.NewEncoder(out)
	failed := 0

	for _, path := range paths {
		result := Result{File: path}

		frame, err := os.ReadFile(path)
		if err != nil {
			result.Error = err.Error()
		} else {
			answer, err := client.SendFrame(frame)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			result.Status = answer.Status
			result.EyeStates = answer.EyeStates
			result.Faces = answer.Faces
			result.Error = answer.Error
		}

		if result.Error != "" {
			failed++
		}
		if err := enc.Encode(result); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d frames failed", failed, len(paths))
	}
	return nil
}
