// Copyright (C) 2026 The Reel Authors.
//
// This file is part of Reel.
//
// Reel is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Reel is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Reel.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/defsub/reel/auth"
	g "github.com/defsub/reel/lib/gorm"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "user admin",
	Long:  `Add users, change passwords and grant or revoke admin access.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doit()
	},
}

var user, email, pass string
var add, change, admin, revoke, list bool

// promptPass asks for a password when none was given on the command line.
func promptPass(min int) (string, error) {
	validate := func(input string) error {
		if len(input) < min {
			return fmt.Errorf("password must be at least %d characters", min)
		}
		return nil
	}
	prompt := promptui.Prompt{
		Label:    "Password",
		Mask:     '*',
		Validate: validate,
	}
	p, err := prompt.Run()
	if err != nil {
		return "", err
	}
	confirm := promptui.Prompt{
		Label: "Confirm",
		Mask:  '*',
	}
	c, err := confirm.Run()
	if err != nil {
		return "", err
	}
	if p != c {
		return "", errors.New("passwords do not match")
	}
	return p, nil
}

func promptLine(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("required")
			}
			return nil
		},
	}
	s, err := prompt.Run()
	return strings.TrimSpace(s), err
}

func doit() error {
	cfg, db, err := openDB()
	if err != nil {
		return err
	}
	defer g.Close(db)
	a := auth.NewAuth(cfg, db)
	err = a.Open()
	if err != nil {
		return err
	}

	if list {
		for _, u := range a.Users() {
			role := "user"
			if u.IsAdmin {
				role = "admin"
			}
			fmt.Printf("%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, role)
		}
		return nil
	}

	if user == "" {
		user, err = promptLine("Username")
		if err != nil {
			return err
		}
	}
	if (add || change) && pass == "" {
		pass, err = promptPass(cfg.Auth.MinPasswordLength)
		if err != nil {
			return err
		}
	}

	if add {
		if email == "" {
			email, err = promptLine("Email")
			if err != nil {
				return err
			}
		}
		u, err := a.AddUser(user, email, pass, admin)
		if err != nil {
			return err
		}
		fmt.Printf("added %s (%d)\n", u.Username, u.ID)
		return nil
	}

	u, err := a.UserByName(user)
	if err != nil {
		return err
	}
	if change {
		if err := a.SetPassword(&u, pass); err != nil {
			return err
		}
	}
	if admin || revoke {
		if err := a.SetAdmin(&u, admin && !revoke); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	userCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	userCmd.Flags().StringVarP(&user, "user", "u", "", "user")
	userCmd.Flags().StringVarP(&email, "email", "e", "", "email")
	userCmd.Flags().StringVarP(&pass, "pass", "p", "", "pass")
	userCmd.Flags().BoolVarP(&add, "add", "a", false, "add")
	userCmd.Flags().BoolVarP(&change, "change", "n", false, "change password")
	userCmd.Flags().BoolVar(&admin, "admin", false, "grant admin")
	userCmd.Flags().BoolVar(&revoke, "revoke", false, "revoke admin")
	userCmd.Flags().BoolVarP(&list, "list", "l", false, "list users")
	rootCmd.AddCommand(userCmd)
}
