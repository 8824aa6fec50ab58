package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fieldlookup/internal/config"
)

func newSecretCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage the password of the configured connection",
	}
	cmd.AddCommand(
		newSecretSetCmd(r),
		newSecretDeleteCmd(r),
	)
	return cmd
}

// secretKey returns the secret store key of the configured connection.
func (r *runner) secretKey(cmd *cobra.Command) (string, error) {
	if r.secrets == nil {
		return "", errors.New("no secret store available")
	}
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return "", err
	}
	return cfg.Connection.SecretKey(), nil
}

func newSecretSetCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Store the connection password read from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := r.secretKey(cmd)
			if err != nil {
				return err
			}
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				return errors.New("empty password")
			}
			if err := r.secrets.Set(key, []byte(password)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "stored", key)
			return nil
		},
	}
}

func newSecretDeleteCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored connection password",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := r.secretKey(cmd)
			if err != nil {
				return err
			}
			if err := r.secrets.Delete(key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", key)
			return nil
		},
	}
}
