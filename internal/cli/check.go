package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"dictlookup/internal/array"
	"dictlookup/internal/reader"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load every dictionary and bind a reader for its configured attributes",
		Long: `Loads every configured dictionary and binds one reader per dictionary
over all configured attributes, using each attribute's declared type when one
is set. A declared type that disagrees with the loaded data fails here rather
than on the first lookup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, a)
		},
	}
}

func runCheck(cmd *cobra.Command, a *app) error {
	if len(a.cfg.Dictionaries) == 0 {
		return fmt.Errorf("no dictionaries configured")
	}
	if err := a.load(cmd.Context()); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, spec := range a.cfg.Dictionaries {
		d, err := a.catalog.Get(spec.Name)
		if err != nil {
			return err
		}
		sources := make([]string, len(spec.Attributes))
		fields := make([]array.Field, len(spec.Attributes))
		for i, attr := range spec.Attributes {
			// Loaded dictionaries name attributes by Name, not by source column.
			sources[i] = attr.Name
			t, declared, err := attr.DataType()
			if err != nil {
				return err
			}
			if !declared {
				f, err := d.Attribute(attr.Name)
				if err != nil {
					return err
				}
				t = f.Type
			}
			fields[i] = array.Field{Name: attr.Name, Type: t}
		}
		if _, err := reader.New(spec.Name, sources, fields, a.resolver(), reader.WithLogger(a.logger)); err != nil {
			return fmt.Errorf("dictionary %s: %w", spec.Name, err)
		}
		if _, err := fmt.Fprintf(out, "ok  %s  %d rows, %d attributes\n", spec.Name, d.Len(), len(fields)); err != nil {
			return err
		}
	}
	return nil
}
