package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"roombook/api"
	"roombook/storage"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
	}

	cmd.AddCommand(authLoginCmd())
	cmd.AddCommand(authStatusCmd())
	cmd.AddCommand(authLogoutCmd())
	return cmd
}

func authLoginCmd() *cobra.Command {
	var username string
	var password string
	var authFile string
	authFileDefault := os.Getenv("ROOMBOOK_AUTH_FILE")

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to the booking service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if authFile != "" {
				fileUser, filePassword, err := readAuthFile(authFile)
				if err != nil {
					return err
				}
				if username == "" {
					username = fileUser
				}
				if password == "" {
					password = filePassword
				}
			}

			if username == "" {
				fmt.Print("Username: ")
				reader := bufio.NewReader(os.Stdin)
				value, err := reader.ReadString('\n')
				if err != nil {
					return err
				}
				username = strings.TrimSpace(value)
			}
			if password == "" {
				fmt.Print("Password: ")
				bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Println()
				if err != nil {
					return err
				}
				password = strings.TrimSpace(string(bytes))
			}
			if username == "" || password == "" {
				return fmt.Errorf("username and password are required")
			}

			resp, err := client.Login(cmd.Context(), username, password)
			if err != nil {
				if errors.Is(err, api.ErrUnauthorized) {
					return fmt.Errorf("login failed: wrong username or password")
				}
				return err
			}

			creds := storage.NewCredentials(resp, time.Now())
			if creds.Username == "" {
				creds.Username = username
			}
			if creds.Role == "" {
				if profile, err := client.Profile(cmd.Context()); err == nil {
					creds.Role = profile.Role
					creds.FullName = profile.FullName
					creds.Email = profile.Email
				} else {
					logger.Warn("profile lookup failed", "error", err)
				}
			}
			if err := storage.SaveCredentials(creds); err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(creds)
			}
			fmt.Printf("Logged in as %s (%s).\n", creds.Username, dash(creds.Role))
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().StringVar(&authFile, "auth-file", authFileDefault, "Load credentials from file (default: $ROOMBOOK_AUTH_FILE)")
	return cmd
}

func authStatusCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check auth status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if credentials == nil || credentials.AccessToken == "" {
				fmt.Println("Not logged in.")
				return nil
			}

			if credentials.AccessTokenExpired(time.Now()) {
				fmt.Printf("Token expired for %s. Run 'roombook auth login' to re-authenticate.\n", credentials.Username)
				return nil
			}

			// Cached profile fields are display-only; --refresh asks the backend.
			if refresh {
				profile, err := client.Profile(cmd.Context())
				if err != nil {
					return err
				}
				credentials.FullName = profile.FullName
				credentials.Role = profile.Role
				credentials.Email = profile.Email
				if err := storage.SaveCredentials(credentials); err != nil {
					return err
				}
			}

			if outputJSON {
				return writeJSON(credentials)
			}
			fmt.Printf("Logged in as %s (%s).\n", credentials.Username, dash(credentials.Role))
			if credentials.FullName != "" {
				fmt.Printf("Name: %s\n", credentials.FullName)
			}
			if claims, err := api.ParseTokenClaims(credentials.AccessToken); err == nil && !claims.ExpiresAt.IsZero() {
				fmt.Printf("Token expires: %s\n", claims.ExpiresAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Reload the profile from the backend")
	return cmd
}

func authLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Logout and clear credentials and cached lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logout(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}

	return cmd
}

// logout removes the saved session and every cached list snapshot.
func logout() error {
	if err := storage.ClearCredentials(); err != nil {
		return err
	}
	db, err := storage.OpenCacheDB()
	if err != nil {
		logger.Warn("snapshot cache unavailable", "error", err)
		return nil
	}
	defer db.Close()
	cleared, err := storage.ClearSnapshots(db)
	if err != nil {
		return fmt.Errorf("clear cached lists: %w", err)
	}
	logger.Debug("cached lists cleared", "count", cleared)
	return nil
}

func readAuthFile(path string) (string, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var username string
	var password string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "[username]":
			if scanner.Scan() {
				username = strings.TrimSpace(scanner.Text())
			}
		case "[password]":
			if scanner.Scan() {
				password = strings.TrimSpace(scanner.Text())
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", "", err
	}
	return username, password, nil
}
