package main

import (
	"context"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginPassword  string
	signupPassword string
	signupName     string
)

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Log in and store the session locally",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		password, err := resolvePassword(loginPassword)
		if err != nil {
			return err
		}
		user, err := a.sessions.Login(ctx, args[0], password)
		if err != nil {
			return err
		}
		fmt.Printf("logged in as %s <%s>\n", user.Name, user.Email)
		return nil
	}),
}

var signupCmd = &cobra.Command{
	Use:   "signup [email]",
	Short: "Create an account and log in",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		password, err := resolvePassword(signupPassword)
		if err != nil {
			return err
		}
		user, err := a.sessions.Signup(ctx, args[0], password, signupName)
		if err != nil {
			return err
		}
		fmt.Printf("account created for %s <%s>\n", user.Name, user.Email)
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the session and clear local credentials",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		if err := a.sessions.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session state",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		status, err := a.sessions.CheckAuth(ctx)
		if err != nil {
			return err
		}
		if user := a.sessions.User(); user != nil {
			fmt.Printf("%s <%s> (%s)\n", user.Name, user.Email, status)
			return nil
		}
		fmt.Println(status)
		return nil
	}),
}

func init() {
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (prompted when omitted)")
	signupCmd.Flags().StringVarP(&signupPassword, "password", "p", "", "password (prompted when omitted)")
	signupCmd.Flags().StringVarP(&signupName, "name", "n", "", "display name")
	_ = signupCmd.MarkFlagRequired("name")
}

func resolvePassword(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Print("password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}
