package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sentinelfetch/pkg/auth"
)

var showGuide bool

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Sentinel Hub OAuth credentials",
	Long: `Manage stored Sentinel Hub OAuth client credentials.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables are read but never written

Never share your client secret or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store an OAuth client securely",
	Long: `Store a Sentinel Hub OAuth client ID and secret in the system keychain
or the encrypted credentials file.

Without a name the credentials are stored as "default", which is used
when no --account is given.`,
	Example: `  # Store the default client
  sentinelfetch auth login

  # Store a second client and use it later with --account
  sentinelfetch auth login research`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove stored credentials",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credentials",
	Long:  `List stored OAuth clients with the secret masked.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)

	loginCmd.Flags().BoolVar(&showGuide, "guide", false, "show how to create an OAuth client first")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := auth.DefaultName
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	out := cmd.OutOrStdout()
	if showGuide {
		auth.ShowClientSetupGuide(out)
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	if manager.Exists(name) {
		fmt.Fprintf(out, "Credentials '%s' already exist. Replace them? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	creds, err := promptCredentials(out, reader, name)
	if err != nil {
		return err
	}

	if err := manager.Store(creds); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	newConsole().PrintSuccess("Credentials saved: %s", name)
	if name != auth.DefaultName {
		fmt.Fprintf(out, "\nUse them with:\n  sentinelfetch fetch --account %s\n", name)
	}
	return nil
}

// promptCredentials reads the client ID and secret. The secret is read
// without echo when stdin is a terminal.
func promptCredentials(out io.Writer, reader *bufio.Reader, name string) (*auth.Credentials, error) {
	fmt.Fprint(out, "Client ID: ")
	id, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read client ID: %w", err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("client ID is required")
	}

	fmt.Fprint(out, "Client secret: ")
	secret, err := readSecret(reader)
	fmt.Fprintln(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret: %w", err)
	}
	if secret == "" {
		return nil, errors.New("client secret is required")
	}

	return &auth.Credentials{
		Name:         name,
		ClientID:     id,
		ClientSecret: secret,
		LastModified: time.Now(),
	}, nil
}

func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := auth.DefaultName
	if len(args) > 0 {
		name = args[0]
	}

	if err := manager.Delete(name); err != nil {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}

	newConsole().PrintSuccess("Credentials removed: %s", name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	all, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list credentials: %w", err)
	}

	console := newConsole()
	if len(all) == 0 {
		console.PrintInfo("No stored credentials", "Use 'sentinelfetch auth login' to add some")
		return nil
	}

	console.PrintHighlight("Stored Credentials")
	printCredentials(cmd.OutOrStdout(), all)
	return nil
}

func printCredentials(w io.Writer, all []*auth.Credentials) {
	for i, creds := range all {
		sanitized := auth.Sanitize(creds)
		fmt.Fprintf(w, "\n%d. Name: %s\n", i+1, sanitized.Name)
		fmt.Fprintf(w, "   Client ID: %s\n", sanitized.ClientID)
		fmt.Fprintf(w, "   Client Secret: %s\n", sanitized.ClientSecret)
		if !sanitized.LastModified.IsZero() {
			fmt.Fprintf(w, "   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
	}
}
