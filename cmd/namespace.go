package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"registry-console/pkg/registry-go/model"
	"registry-console/pkg/units"
	"registry-console/pkg/validators"
)

func newNamespaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "namespace",
		Aliases: []string{"ns"},
		Short:   "Manage namespaces",
	}
	cmd.AddCommand(
		newNamespaceListCmd(),
		newNamespaceGetCmd(),
		newNamespaceCreateCmd(),
		newNamespaceUpdateCmd(),
		newNamespaceDeleteCmd(),
	)
	return cmd
}

func newNamespaceListCmd() *cobra.Command {
	pf := &pageFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List namespaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.client.ListNamespaces(cmd.Context(), pf.pagination())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tVISIBILITY\tSIZE\tREPOSITORIES\tTAGS\tCREATED")
			for _, ns := range list.Items {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d / %s\t%d / %s\t%s\n",
					ns.Id, ns.Name, ns.Visibility,
					sizeUsage(ns.Size, ns.SizeLimit),
					ns.RepositoryCount, countLimit(ns.RepositoryLimit),
					ns.TagCount, countLimit(ns.TagLimit),
					formatTime(ns.CreatedAt))
			}
			fmt.Fprintf(w, "\ntotal %d\n", list.Total)
			return w.Flush()
		},
	}
	pf.register(cmd)
	return cmd
}

func newNamespaceGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Show one namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := a.client.FindNamespace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ns, err := a.client.GetNamespace(cmd.Context(), found.Id)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintf(w, "ID:\t%d\n", ns.Id)
			fmt.Fprintf(w, "Name:\t%s\n", ns.Name)
			if ns.Description != nil {
				fmt.Fprintf(w, "Description:\t%s\n", *ns.Description)
			}
			fmt.Fprintf(w, "Visibility:\t%s\n", ns.Visibility)
			fmt.Fprintf(w, "Size:\t%s\n", sizeUsage(ns.Size, ns.SizeLimit))
			fmt.Fprintf(w, "Repositories:\t%d / %s\n", ns.RepositoryCount, countLimit(ns.RepositoryLimit))
			fmt.Fprintf(w, "Tags:\t%d / %s\n", ns.TagCount, countLimit(ns.TagLimit))
			fmt.Fprintf(w, "Created:\t%s\n", formatTime(ns.CreatedAt))
			fmt.Fprintf(w, "Updated:\t%s\n", formatTime(ns.UpdatedAt))
			return w.Flush()
		},
	}
}

type namespaceFlags struct {
	description     string
	visibility      string
	sizeLimit       string
	repositoryLimit int64
	tagLimit        int64
}

func (f *namespaceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.description, "description", "", "namespace description")
	cmd.Flags().StringVar(&f.visibility, "visibility", "", "public or private")
	cmd.Flags().StringVar(&f.sizeLimit, "size-limit", "", "storage quota, e.g. 10GiB; 0 is unlimited")
	cmd.Flags().Int64Var(&f.repositoryLimit, "repository-limit", 0, "maximum number of repositories; 0 is unlimited")
	cmd.Flags().Int64Var(&f.tagLimit, "tag-limit", 0, "maximum number of tags; 0 is unlimited")
}

// form only sets the limits whose flags were given, so "--tag-limit 0" resets
// a limit to unlimited while an omitted flag leaves it alone.
func (f *namespaceFlags) form(cmd *cobra.Command, name string) (model.NamespaceForm, error) {
	flags := cmd.Flags()
	form := model.NamespaceForm{
		Name:       name,
		Visibility: model.Visibility(f.visibility),
	}
	if flags.Changed("description") {
		form.Description = &f.description
	}
	if flags.Changed("size-limit") {
		size, err := units.ParseBytes(f.sizeLimit)
		if err != nil {
			return form, err
		}
		form.SizeLimit = model.Limit(size)
	}
	if flags.Changed("repository-limit") {
		form.RepositoryLimit = model.Limit(f.repositoryLimit)
	}
	if flags.Changed("tag-limit") {
		form.TagLimit = model.Limit(f.tagLimit)
	}
	return form, validators.Struct(form)
}

func newNamespaceCreateCmd() *cobra.Command {
	nf := &namespaceFlags{}
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if nf.visibility == "" {
				nf.visibility = string(model.VisibilityPrivate)
			}
			form, err := nf.form(cmd, args[0])
			if err != nil {
				return err
			}
			id, err := a.client.CreateNamespace(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Namespace %s created (id %d)\n", form.Name, id)
			return nil
		},
	}
	nf.register(cmd)
	return cmd
}

func newNamespaceUpdateCmd() *cobra.Command {
	nf := &namespaceFlags{}
	cmd := &cobra.Command{
		Use:   "update NAME",
		Short: "Change description, visibility or quotas of a namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := a.client.FindNamespace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			form, err := nf.form(cmd, ns.Name)
			if err != nil {
				return err
			}
			if err := a.client.UpdateNamespace(cmd.Context(), ns.Id, form); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Namespace %s updated\n", ns.Name)
			return nil
		},
	}
	nf.register(cmd)
	return cmd
}

func newNamespaceDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a namespace and everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := a.client.FindNamespace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.client.DeleteNamespace(cmd.Context(), ns.Id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Namespace %s deleted\n", ns.Name)
			return nil
		},
	}
}
