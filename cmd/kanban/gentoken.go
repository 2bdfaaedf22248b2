package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"kanban/api"
	"kanban/config"
)

func newGenTokenCmd() *cobra.Command {
	var (
		count  int
		prefix string
		start  int
		output string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "gen-token [user-id]",
		Short: "Print test-mode JWTs signed with TEST_JWT_SECRET",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return errors.New("count must be at least 1")
			}
			if start < 1 {
				return errors.New("start index must be at least 1")
			}
			if len(args) > 0 && count > 1 {
				return errors.New("explicit user ID cannot be provided when generating multiple tokens")
			}
			cfg, err := config.Read()
			if err != nil {
				return err
			}
			tokens, err := generateTokens(cfg.Auth.TestJWTSecret, count, prefix, start, ttl, args)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			if output != "" {
				if err := writeTokens(output, tokens); err != nil {
					return fmt.Errorf("write tokens: %w", err)
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), tokens[0])
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 1, "number of tokens to generate")
	cmd.Flags().StringVar(&prefix, "prefix", "kanban-user", "prefix for generated user IDs when count > 1")
	cmd.Flags().IntVar(&start, "start", 1, "starting index for generated user IDs when count > 1")
	cmd.Flags().StringVar(&output, "output", "", "file to write generated tokens as a JSON array")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

func generateTokens(secret string, count int, prefix string, start int, ttl time.Duration, args []string) ([]string, error) {
	tokens := make([]string, count)
	for i := 0; i < count; i++ {
		var userID string
		switch {
		case len(args) > 0:
			userID = args[0]
		case count == 1:
			userID = prefix
		default:
			userID = fmt.Sprintf("%s-%d", prefix, start+i)
		}
		tok, err := api.SignTestToken(secret, userID, ttl)
		if err != nil {
			return nil, err
		}
		tokens[i] = tok
	}
	return tokens, nil
}

func writeTokens(path string, tokens []string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := sonic.Marshal(tokens)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
