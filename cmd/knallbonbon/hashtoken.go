package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	scrypt "github.com/elithrar/simple-scrypt"
	"github.com/spf13/cobra"
)

func newHashTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-token [token]",
		Short: "Print the scrypt hash of an admin token for ADMIN_TOKEN_HASH",
		Long:  "Hashes the token given as argument, or read from stdin when omitted.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read token: %w", err)
				}
				token = line
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("token must not be empty")
			}
			hash, err := scrypt.GenerateFromPassword([]byte(token), scrypt.DefaultParams)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
}
