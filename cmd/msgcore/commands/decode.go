package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"msgcore/internal/domain"
	"msgcore/internal/services/decode"
)

type decodeOutput struct {
	Message *domain.WebMessage `json:"message,omitempty"`
	Error   string             `json:"error,omitempty"`
	Nack    int                `json:"nack,omitempty"`
}

func decodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [file|-]",
		Short: "Decode one JSON envelope or an array of them",
		Long: "Reads message nodes ({tag, attrs, content (base64), children}) from a file\n" +
			"or stdin and prints one decoded result per envelope as JSON.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if meID == "" {
				return fmt.Errorf("--me required")
			}
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			nodes, err := parseNodes(raw)
			if err != nil {
				return err
			}
			acc, err := openAccount()
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			for _, res := range acc.Decoder.DecodeBatch(cmd.Context(), nodes) {
				out := decodeOutput{Message: res.Message}
				if res.Err != nil {
					out.Error = res.Err.Error()
					var fe *decode.FatalDecodeError
					if errors.As(res.Err, &fe) {
						out.Nack = int(fe.Reason)
					}
				}
				if err := enc.Encode(out); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}

// parseNodes accepts a single node object or an array of nodes.
func parseNodes(raw []byte) ([]domain.Node, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("no input")
	}
	if raw[0] == '[' {
		var nodes []domain.Node
		if err := json.Unmarshal(raw, &nodes); err != nil {
			return nil, fmt.Errorf("parse envelopes: %w", err)
		}
		return nodes, nil
	}
	var n domain.Node
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("parse envelope: %w", err)
	}
	return []domain.Node{n}, nil
}
