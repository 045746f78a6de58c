package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"registry-console/pkg/events"
	"registry-console/pkg/session"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and keep alive the stored session",
	}
	cmd.AddCommand(newSessionStatusCmd(), newSessionRefreshCmd(), newSessionWatchCmd())
	return cmd
}

func newSessionStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session is stored and when it expires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.store.Token()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if token == "" {
				fmt.Fprintln(out, "Not logged in")
				return nil
			}
			w := newTable(out)
			fmt.Fprintf(w, "Server:\t%s\n", a.serverUrl)
			fmt.Fprintf(w, "Token file:\t%s\n", a.store.Path())
			exp, err := session.TokenExpiry(token)
			switch {
			case err != nil:
				fmt.Fprintf(w, "Expires:\tunknown (%v)\n", err)
			case exp.IsZero():
				fmt.Fprintf(w, "Expires:\tnever\n")
			case exp.Before(time.Now()):
				fmt.Fprintf(w, "Expires:\texpired %s ago\n", time.Since(exp).Round(time.Second))
			default:
				fmt.Fprintf(w, "Expires:\tin %s (%s)\n", time.Until(exp).Round(time.Second), formatTime(exp))
			}
			return w.Flush()
		},
	}
}

func newSessionRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Trade the refresh token for a new token pair once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sessions.Refresh(cmd.Context(), a.serverUrl); err != nil {
				a.refreshFailed(err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session refreshed")
			return nil
		},
	}
}

func newSessionWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the session alive until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sessions.Setup(a.serverUrl, a.refreshFailed); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Refreshing the session in the background, press Ctrl+C to stop")

			done := make(chan struct{})
			setupSigHandler(func() {
				a.logger.Info("Catch up signal. Stop refreshing...")
				close(done)
			})
			select {
			case <-done:
			case <-cmd.Context().Done():
			}
			a.sessions.Teardown()
			return nil
		},
	}
}

// refreshFailed ends the session when the server turned the refresh down or
// nothing is left to refresh with. Transport errors keep the tokens so the
// next tick can retry.
func (a *app) refreshFailed(err error) {
	a.logger.Warn("session refresh failed", zap.Error(err))
	a.publish(events.SessionEvent{MsgType: events.RefreshError, Error: err.Error()})
	var se *session.StatusError
	if refresh, _ := a.store.RefreshToken(); refresh != "" && !errors.As(err, &se) {
		return
	}
	a.requireLogin("users/login")
}

func setupSigHandler(f func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		signal.Stop(sigs)
		f()
	}()
}
