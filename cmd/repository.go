package cmd

import (
	"fmt"
	"strings"

	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"registry-console/pkg/registry-go/model"
	"registry-console/pkg/units"
	"registry-console/pkg/validators"
)

// repositoryName accepts "busybox" or "library/busybox" for namespace library.
func repositoryName(namespace, name string) (string, error) {
	if !strings.Contains(name, "/") {
		name = namespace + "/" + name
	}
	if !strings.HasPrefix(name, namespace+"/") {
		return "", errors.Errorf("repository %q is not in namespace %q", name, namespace)
	}
	if !validators.ValidRepository(name) {
		return "", errors.Errorf("invalid repository name %q", name)
	}
	return name, nil
}

func newRepositoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "repository",
		Aliases: []string{"repo"},
		Short:   "Manage repositories of a namespace",
	}
	cmd.AddCommand(
		newRepositoryListCmd(),
		newRepositoryGetCmd(),
		newRepositoryCreateCmd(),
		newRepositoryUpdateCmd(),
		newRepositoryDeleteCmd(),
	)
	return cmd
}

func newRepositoryListCmd() *cobra.Command {
	pf := &pageFlags{}
	cmd := &cobra.Command{
		Use:   "list NAMESPACE",
		Short: "List repositories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.client.ListRepositories(cmd.Context(), args[0], pf.pagination())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tSIZE\tTAGS\tUPDATED")
			for _, r := range list.Items {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d / %s\t%s\n",
					r.Id, r.Name, sizeUsage(r.Size, r.SizeLimit),
					r.TagCount, countLimit(r.TagLimit), formatTime(r.UpdatedAt))
			}
			fmt.Fprintf(w, "\ntotal %d\n", list.Total)
			return w.Flush()
		},
	}
	pf.register(cmd)
	return cmd
}

func newRepositoryGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get NAMESPACE NAME",
		Short: "Show one repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := repositoryName(args[0], args[1])
			if err != nil {
				return err
			}
			found, err := a.client.FindRepository(cmd.Context(), args[0], name)
			if err != nil {
				return err
			}
			r, err := a.client.GetRepository(cmd.Context(), args[0], found.Id)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintf(w, "ID:\t%d\n", r.Id)
			fmt.Fprintf(w, "Name:\t%s\n", r.Name)
			if r.Description != nil {
				fmt.Fprintf(w, "Description:\t%s\n", *r.Description)
			}
			fmt.Fprintf(w, "Size:\t%s\n", sizeUsage(r.Size, r.SizeLimit))
			fmt.Fprintf(w, "Tags:\t%d / %s\n", r.TagCount, countLimit(r.TagLimit))
			fmt.Fprintf(w, "Created:\t%s\n", formatTime(r.CreatedAt))
			fmt.Fprintf(w, "Updated:\t%s\n", formatTime(r.UpdatedAt))
			return w.Flush()
		},
	}
}

type repositoryFlags struct {
	description string
	overview    string
	sizeLimit   string
	tagLimit    int64
}

func (f *repositoryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.description, "description", "", "repository description")
	cmd.Flags().StringVar(&f.overview, "overview", "", "longer markdown overview")
	cmd.Flags().StringVar(&f.sizeLimit, "size-limit", "", "storage quota, e.g. 1GiB; 0 is unlimited")
	cmd.Flags().Int64Var(&f.tagLimit, "tag-limit", 0, "maximum number of tags; 0 is unlimited")
}

func (f *repositoryFlags) form(cmd *cobra.Command, name string) (model.RepositoryForm, error) {
	flags := cmd.Flags()
	form := model.RepositoryForm{Name: name}
	if flags.Changed("description") {
		form.Description = &f.description
	}
	if flags.Changed("overview") {
		form.Overview = &f.overview
	}
	if flags.Changed("size-limit") {
		size, err := units.ParseBytes(f.sizeLimit)
		if err != nil {
			return form, err
		}
		form.SizeLimit = model.Limit(size)
	}
	if flags.Changed("tag-limit") {
		form.TagLimit = model.Limit(f.tagLimit)
	}
	return form, validators.Struct(form)
}

func newRepositoryCreateCmd() *cobra.Command {
	rf := &repositoryFlags{}
	cmd := &cobra.Command{
		Use:   "create NAMESPACE NAME",
		Short: "Create an empty repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := repositoryName(args[0], args[1])
			if err != nil {
				return err
			}
			form, err := rf.form(cmd, name)
			if err != nil {
				return err
			}
			id, err := a.client.CreateRepository(cmd.Context(), args[0], form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Repository %s created (id %d)\n", name, id)
			return nil
		},
	}
	rf.register(cmd)
	return cmd
}

func newRepositoryUpdateCmd() *cobra.Command {
	rf := &repositoryFlags{}
	cmd := &cobra.Command{
		Use:   "update NAMESPACE NAME",
		Short: "Change description, overview or quotas of a repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := repositoryName(args[0], args[1])
			if err != nil {
				return err
			}
			form, err := rf.form(cmd, name)
			if err != nil {
				return err
			}
			repo, err := a.client.FindRepository(cmd.Context(), args[0], name)
			if err != nil {
				return err
			}
			if err := a.client.UpdateRepository(cmd.Context(), args[0], repo.Id, form); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Repository %s updated\n", name)
			return nil
		},
	}
	rf.register(cmd)
	return cmd
}

func newRepositoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAMESPACE NAME",
		Short: "Delete a repository with all its tags",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := repositoryName(args[0], args[1])
			if err != nil {
				return err
			}
			repo, err := a.client.FindRepository(cmd.Context(), args[0], name)
			if err != nil {
				return err
			}
			if err := a.client.DeleteRepository(cmd.Context(), args[0], repo.Id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Repository %s deleted\n", name)
			return nil
		},
	}
}

func newTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Inspect and delete tags",
	}
	cmd.AddCommand(newTagListCmd(), newTagDeleteCmd())
	return cmd
}

func newTagListCmd() *cobra.Command {
	pf := &pageFlags{}
	cmd := &cobra.Command{
		Use:   "list NAMESPACE REPOSITORY",
		Short: "List tags of a repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := repositoryName(args[0], args[1])
			if err != nil {
				return err
			}
			list, err := a.client.ListTags(cmd.Context(), args[0], name, pf.pagination())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "TAG\tDIGEST\tSIZE\tPULLS\tPUSHED")
			for _, t := range list.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					t.Name, shortDigest(t.Artifact.Digest), units.FormatBytes(t.Artifact.BlobSize),
					t.Artifact.PullTimes, formatTime(t.Artifact.PushedAt))
			}
			fmt.Fprintf(w, "\ntotal %d\n", list.Total)
			return w.Flush()
		},
	}
	pf.register(cmd)
	return cmd
}

func newTagDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAMESPACE REPOSITORY TAG",
		Short: "Delete a tag",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := repositoryName(args[0], args[1])
			if err != nil {
				return err
			}
			if !validators.ValidTag(args[2]) {
				return errors.Errorf("invalid tag %q", args[2])
			}
			if err := a.client.ValidateReference(cmd.Context(), name+":"+args[2]); err != nil {
				return err
			}
			tag, err := a.client.FindTag(cmd.Context(), args[0], name, args[2])
			if err != nil {
				return err
			}
			if err := a.client.DeleteTag(cmd.Context(), args[0], tag.Id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tag %s:%s deleted\n", name, tag.Name)
			return nil
		},
	}
}

func newArtifactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifact",
		Short: "Inspect artifacts",
	}
	pf := &pageFlags{}
	listCmd := &cobra.Command{
		Use:   "list NAMESPACE REPOSITORY",
		Short: "List artifacts of a repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := repositoryName(args[0], args[1])
			if err != nil {
				return err
			}
			list, err := a.client.ListArtifacts(cmd.Context(), args[0], name, pf.pagination())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "DIGEST\tMEDIA TYPE\tSIZE\tPULLS\tLAST PULL\tPUSHED")
			for _, art := range list.Items {
				lastPull := "-"
				if art.LastPull != nil {
					lastPull = formatTime(*art.LastPull)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					shortDigest(art.Digest), art.MediaType, units.FormatBytes(art.BlobSize),
					art.PullTimes, lastPull, formatTime(art.PushedAt))
			}
			fmt.Fprintf(w, "\ntotal %d\n", list.Total)
			return w.Flush()
		},
	}
	pf.register(listCmd)
	cmd.AddCommand(listCmd)
	return cmd
}

// shortDigest keeps the algorithm and the first 12 hex characters. Anything
// that does not parse as a digest is shown as is.
func shortDigest(d string) string {
	h, err := v1.NewHash(d)
	if err != nil || len(h.Hex) <= 12 {
		return d
	}
	return h.Algorithm + ":" + h.Hex[:12]
}
