package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"timeclock/internal/attendance"
	"timeclock/internal/auth"
	"timeclock/internal/roster"
)

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash of a password (read from stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordArg(args)
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var in roster.Input

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin employee, e.g. to bootstrap a new database",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if in.Password == "" {
				if in.Password, err = passwordArg(nil); err != nil {
					return err
				}
			}
			in.Role = attendance.RoleAdmin
			e, err := a.roster.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Admin created.\nID: %d\nEmail: %s\n", e.ID, e.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (read from stdin when omitted)")
	cmd.Flags().StringVar(&in.DiscordID, "discord-id", "", "Discord user id to link")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func passwordArg(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("error reading password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
