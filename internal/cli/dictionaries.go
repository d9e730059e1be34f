package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"dictlookup/internal/print"
)

func newDictionariesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "dictionaries",
		Aliases: []string{"ls"},
		Short:   "Load and list the configured dictionaries",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			rows := make([][]string, 0, len(a.cfg.Dictionaries))
			for _, spec := range a.cfg.Dictionaries {
				d, err := a.catalog.Get(spec.Name)
				if err != nil {
					return err
				}
				fields := d.Schema().Fields
				attrs := make([]string, len(fields))
				for i := range fields {
					attrs[i] = fields[i].Name + ":" + fields[i].Type.String()
				}
				rows = append(rows, []string{spec.Name, spec.Format, strconv.Itoa(d.Len()), strings.Join(attrs, " ")})
			}
			opts := print.DefaultTableOptions()
			opts.Head, opts.Tail = len(rows), 0
			opts.MaxColWidth = 60
			_, err := fmt.Fprint(cmd.OutOrStdout(), print.Records("dictionaries", []string{"name", "format", "rows", "attributes"}, rows, opts))
			return err
		},
	}
}
