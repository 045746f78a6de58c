package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"registry-console/pkg/registry-go/model"
	"registry-console/pkg/validators"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Administer users",
	}
	cmd.AddCommand(newUserListCmd(), newUserCreateCmd(), newUserUpdateCmd(), newUserDeleteCmd())
	return cmd
}

func newUserListCmd() *cobra.Command {
	pf := &pageFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.client.ListUsers(cmd.Context(), pf.pagination())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tSTATUS\tNAMESPACES\tLAST LOGIN")
			for _, u := range list.Items {
				lastLogin := "-"
				if u.LastLogin != nil {
					lastLogin = formatTime(*u.LastLogin)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d / %s\t%s\n",
					u.Id, u.Username, u.Email, u.Role, u.Status,
					u.NamespaceCount, countLimit(u.NamespaceLimit), lastLogin)
			}
			fmt.Fprintf(w, "\ntotal %d\n", list.Total)
			return w.Flush()
		},
	}
	pf.register(cmd)
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var (
		email          string
		role           string
		namespaceLimit int64
		passwordStdin  bool
	)
	cmd := &cobra.Command{
		Use:   "create USERNAME",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), passwordStdin)
			if err != nil {
				return err
			}
			form := model.UserForm{
				Username: args[0],
				Password: password,
				Email:    email,
				Role:     model.UserRole(role),
			}
			if cmd.Flags().Changed("namespace-limit") {
				form.NamespaceLimit = model.Limit(namespaceLimit)
			}
			if err := validators.Struct(form); err != nil {
				return err
			}
			if err := a.client.ValidatePassword(cmd.Context(), password); err != nil {
				return err
			}
			id, err := a.client.CreateUser(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s created (id %d)\n", form.Username, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", string(model.RoleUser), "Admin or User")
	cmd.Flags().Int64Var(&namespaceLimit, "namespace-limit", 0, "maximum namespaces the user may own; 0 is unlimited")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the new user's password from stdin")
	return cmd
}

func newUserUpdateCmd() *cobra.Command {
	var (
		email          string
		role           string
		namespaceLimit int64
		setPassword    bool
		passwordStdin  bool
	)
	cmd := &cobra.Command{
		Use:   "update USERNAME",
		Short: "Change email, role, namespace quota or password of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			form := model.UserUpdateForm{Role: model.UserRole(role)}
			if flags.Changed("email") {
				form.Email = &email
			}
			if flags.Changed("namespace-limit") {
				form.NamespaceLimit = model.Limit(namespaceLimit)
			}
			if setPassword || passwordStdin {
				password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), passwordStdin)
				if err != nil {
					return err
				}
				form.Password = &password
			}
			if err := validators.Struct(form); err != nil {
				return err
			}
			if form.Password != nil {
				if err := a.client.ValidatePassword(cmd.Context(), *form.Password); err != nil {
					return err
				}
			}

			u, err := a.client.FindUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.client.UpdateUser(cmd.Context(), u.Id, form); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s updated\n", u.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "new email address")
	cmd.Flags().StringVar(&role, "role", "", "Admin or User")
	cmd.Flags().Int64Var(&namespaceLimit, "namespace-limit", 0, "maximum namespaces the user may own; 0 is unlimited")
	cmd.Flags().BoolVar(&setPassword, "password", false, "prompt for a new password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the new password from stdin")
	return cmd
}

func newUserDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete USERNAME",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.client.FindUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.client.DeleteUser(cmd.Context(), u.Id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s deleted\n", u.Username)
			return nil
		},
	}
}
