package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/terrain-ouvert/datahub/internal/auth"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthMintCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthWhoamiCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token issued by the identity provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = promptInput("Access token: ")
			}
			claims, err := inspectToken(token)
			if err != nil {
				return err
			}
			return saveToken(token, claims)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "JWT access token")

	return cmd
}

func newAuthMintCmd() *cobra.Command {
	var (
		userID int64
		email  string
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Sign a development token with the server secret and store it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("a signing secret is required (--secret or JWT_SECRET)")
			}
			token, err := auth.Mint(userID, email, secret, ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			claims, err := auth.ParseClaims(token, secret)
			if err != nil {
				return err
			}
			return saveToken(token, claims)
		},
	}

	cmd.Flags().Int64Var(&userID, "user-id", 0, "user id carried by the token")
	cmd.Flags().StringVar(&email, "email", "", "email carried by the token")
	cmd.Flags().StringVar(&secret, "secret", "", "server JWT secret (default $JWT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			viper.Set("auth.token", "")
			viper.Set("auth.email", "")
			viper.Set("auth.user_id", 0)

			if _, err := writeConfig(); err != nil {
				return fmt.Errorf("failed to clear credentials: %w", err)
			}

			fmt.Println("Logged out successfully")
			return nil
		},
	}
}

func newAuthWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity carried by the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := viper.GetString("auth.token")
			if token == "" {
				return fmt.Errorf("not authenticated")
			}
			claims, err := inspectToken(token)
			if err != nil {
				return err
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(claims)
			}

			fmt.Printf("User ID:  %d\n", claims.UserID)
			fmt.Printf("Email:    %s\n", claims.Email)
			if claims.ExpiresAt != nil {
				fmt.Printf("Expires:  %s\n", claims.ExpiresAt.Time.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

// inspectToken decodes the claims without checking the signature; the
// server does that on every request.
func inspectToken(token string) (*auth.Claims, error) {
	claims := &auth.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("malformed token: %w", err)
	}
	if claims.UserID <= 0 {
		return nil, fmt.Errorf("token carries no user id")
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("token expired at %s", claims.ExpiresAt.Time.Format(time.RFC3339))
	}
	return claims, nil
}

func saveToken(token string, claims *auth.Claims) error {
	viper.Set("auth.token", token)
	viper.Set("auth.email", claims.Email)
	viper.Set("auth.user_id", claims.UserID)

	if _, err := writeConfig(); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Printf("Logged in as %s (user %d)\n", claims.Email, claims.UserID)
	return nil
}

func promptInput(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
