package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"

	"registry-console/pkg/events"
	"registry-console/pkg/units"
	"registry-console/pkg/validators"
)

func newLoginCmd() *cobra.Command {
	var passwordStdin bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(viper.GetString(keyUsername))
			if username == "" {
				return errors.New("username is required, use --username or REGISTRY_USERNAME")
			}
			if !validators.ValidUsername(username) {
				return errors.Errorf("invalid username %q", username)
			}

			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), passwordStdin)
			if err != nil {
				return err
			}

			pair, err := a.client.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if err := a.store.SetTokens(pair.Token, pair.RefreshToken); err != nil {
				return err
			}
			a.logger.Info("logged in", zap.String("username", username))
			a.publish(events.SessionEvent{MsgType: events.Login, UserName: username})
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s as %s\n", a.serverUrl, username)
			return nil
		},
	}
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

// readPassword prefers REGISTRY_PASSWORD, then stdin, then an interactive prompt.
func readPassword(in io.Reader, prompt io.Writer, fromStdin bool) (string, error) {
	if pw := viper.GetString(keyPassword); pw != "" {
		return pw, nil
	}
	if fromStdin {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return "", errors.Wrap(err, "read password")
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no password given, use --password-stdin or REGISTRY_PASSWORD")
	}
	fmt.Fprint(prompt, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", errors.Wrap(err, "read password")
	}
	return string(pw), nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session tokens and forget them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.store.Token()
			if err != nil {
				return err
			}
			refresh, err := a.store.RefreshToken()
			if err != nil {
				return err
			}
			if token != "" {
				if err := a.client.Logout(cmd.Context(), token, refresh); err != nil {
					a.logger.Warn("server side logout failed", zap.Error(err))
				}
			}
			if err := a.store.Clear(); err != nil {
				return err
			}
			a.publish(events.SessionEvent{MsgType: events.Logout})
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.client.Self(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintf(w, "Username:\t%s\n", u.Username)
			fmt.Fprintf(w, "Email:\t%s\n", u.Email)
			fmt.Fprintf(w, "Role:\t%s\n", u.Role)
			fmt.Fprintf(w, "Namespaces:\t%d / %s\n", u.NamespaceCount, countLimit(u.NamespaceLimit))
			if u.LastLogin != nil {
				fmt.Fprintf(w, "Last login:\t%s\n", formatTime(*u.LastLogin))
			}
			return w.Flush()
		},
	}
}

func countLimit(n int64) string {
	if n == 0 {
		return "unlimited"
	}
	return fmt.Sprint(n)
}

// sizeUsage renders "used / limit".
func sizeUsage(used, limit int64) string {
	return units.FormatBytes(used) + " / " + units.FormatQuota(limit)
}
