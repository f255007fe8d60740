package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wellnest/internal/db"
	"github.com/wellnest/internal/service"
)

var (
	newUsername string
	newPassword string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create an account with a bcrypt-hashed password",
	RunE: func(cmd *cobra.Command, args []string) error {
		if newUsername == "" || newPassword == "" {
			return errors.New("--username and --password are required")
		}
		if err := openDatabase(); err != nil {
			return err
		}

		user, err := service.NewUserService(db.DB).Register(cmd.Context(), newUsername, newPassword)
		if err != nil {
			if errors.Is(err, service.ErrUserExists) {
				fmt.Fprintf(cmd.OutOrStdout(), "用户 %s 已存在，无需创建\n", newUsername)
				return nil
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "用户创建成功: %s (id=%d)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&newUsername, "username", "", "Account username")
	createUserCmd.Flags().StringVar(&newPassword, "password", "", "Account password (at least 8 characters)")
}
