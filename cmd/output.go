package cmd

import (
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"registry-console/pkg/registry-go/model"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

type pageFlags struct {
	page  int
	limit int
	sort  string
	desc  bool
	name  string
}

func (f *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.limit, "limit", 20, "items per page")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort by field, e.g. name or created_at")
	cmd.Flags().BoolVar(&f.desc, "desc", false, "sort descending")
	cmd.Flags().StringVar(&f.name, "name", "", "filter by name")
}

func (f *pageFlags) pagination() model.Pagination {
	p := model.Pagination{Page: f.page, Limit: f.limit, Sort: f.sort, Name: f.name, Method: model.SortAsc}
	if f.desc {
		p.Method = model.SortDesc
	}
	return p
}
