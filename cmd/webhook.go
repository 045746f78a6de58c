package cmd

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"registry-console/pkg/registry-go/model"
	"registry-console/pkg/validators"
)

func newWebhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage webhooks of a namespace or of the whole registry",
	}
	cmd.AddCommand(newWebhookListCmd(), newWebhookCreateCmd(), newWebhookDeleteCmd())
	return cmd
}

// namespaceId resolves --namespace; an empty name selects the registry wide hooks.
func namespaceId(cmd *cobra.Command, name string) (int64, error) {
	if name == "" {
		return 0, nil
	}
	ns, err := a.client.FindNamespace(cmd.Context(), name)
	if err != nil {
		return 0, err
	}
	return ns.Id, nil
}

func newWebhookListCmd() *cobra.Command {
	var namespace string
	pf := &pageFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List webhooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := namespaceId(cmd, namespace)
			if err != nil {
				return err
			}
			list, err := a.client.ListWebhooks(cmd.Context(), id, pf.pagination())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tURL\tENABLED\tSSL VERIFY\tRETRIES\tCREATED")
			for _, h := range list.Items {
				fmt.Fprintf(w, "%d\t%s\t%t\t%t\t%d\t%s\n",
					h.Id, h.Url, h.Enable, h.SslVerify, h.RetryTimes, formatTime(h.CreatedAt))
			}
			fmt.Fprintf(w, "\ntotal %d\n", list.Total)
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&namespace, "namespace", "", "namespace name; empty for registry wide hooks")
	pf.register(cmd)
	return cmd
}

func newWebhookCreateCmd() *cobra.Command {
	var (
		namespace string
		secret    string
		events    []string
		form      = model.WebhookForm{SslVerify: true, Enable: true, RetryTimes: 3, RetryDuration: 5}
	)
	cmd := &cobra.Command{
		Use:   "create URL",
		Short: "Register a webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form.Url = args[0]
			if secret != "" {
				form.Secret = &secret
			}
			for _, e := range events {
				switch e {
				case "namespace":
					on := true
					form.EventNamespace = &on
				case "repository":
					form.EventRepository = true
				case "tag":
					form.EventTag = true
				case "artifact":
					form.EventArtifact = true
				case "member":
					form.EventMember = true
				default:
					return errors.Errorf("unknown event %q", e)
				}
			}
			if err := validators.Struct(form); err != nil {
				return err
			}
			nsId, err := namespaceId(cmd, namespace)
			if err != nil {
				return err
			}
			id, err := a.client.CreateWebhook(cmd.Context(), nsId, form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Webhook created (id %d)\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&namespace, "namespace", "", "namespace name; empty for a registry wide hook")
	cmd.Flags().StringVar(&secret, "secret", "", "secret sent with every delivery")
	cmd.Flags().StringSliceVar(&events, "events", []string{"repository", "tag", "artifact"}, "events to deliver: namespace, repository, tag, artifact, member")
	cmd.Flags().BoolVar(&form.SslVerify, "ssl-verify", true, "verify the receiver's certificate")
	cmd.Flags().BoolVar(&form.Enable, "enable", true, "deliver events right away")
	cmd.Flags().IntVar(&form.RetryTimes, "retry-times", 3, "delivery attempts after a failure (0-10)")
	cmd.Flags().IntVar(&form.RetryDuration, "retry-duration", 5, "seconds between attempts (0-10)")
	return cmd
}

func newWebhookDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.Errorf("invalid webhook id %q", args[0])
			}
			if err := a.client.DeleteWebhook(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Webhook %d deleted\n", id)
			return nil
		},
	}
}

func newEndpointCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "endpoint",
		Short: "Print the registry endpoint used by docker push and pull",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint, err := a.client.GetEndpoint(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), endpoint)
			return nil
		},
	}
}
