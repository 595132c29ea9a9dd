package cmd

import (
	"errors"
	"fmt"

	"github.com/frahmantamala/employee-management/internal/auth"
	"github.com/spf13/cobra"
)

var hashCost int

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for an operator password",
	Long:  `Print a bcrypt hash suitable for security.operators[].password_hash.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == "" {
			return errors.New("password must not be empty")
		}
		hash, err := auth.HashPassword(args[0], hashCost)
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

func init() {
	hashPasswordCmd.Flags().IntVar(&hashCost, "cost", 0, "bcrypt cost (0 uses the default)")
	rootCmd.AddCommand(hashPasswordCmd)
}
