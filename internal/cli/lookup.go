package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dictlookup/internal/array"
	"dictlookup/internal/dictionary"
	"dictlookup/internal/print"
	"dictlookup/internal/reader"
)

type lookupFlags struct {
	dictionary string
	attributes []string
	keys       string
	head       int
	tail       int
	stats      bool
}

func newLookupCmd(a *app) *cobra.Command {
	var flags lookupFlags
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Look up attributes for a batch of keys",
		Long: `Looks up attributes of one dictionary for a comma separated list of keys.

Each --attribute is "[result=]source[:type]". The result column is named after
source unless result is given; the type defaults to the dictionary's own type
and may be wrapped in nullable(...). Keys that are empty or "null" are never
found.`,
		Example: `  dictlookup -c dictionaries.yaml lookup --dictionary geo --attribute city --keys 1,2,3
  dictlookup -c dictionaries.yaml lookup --dictionary geo --attribute town=city:utf8 --keys 4,null`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLookup(cmd, a, flags)
		},
	}
	cmd.Flags().StringVarP(&flags.dictionary, "dictionary", "d", "", "dictionary to read")
	cmd.Flags().StringArrayVarP(&flags.attributes, "attribute", "a", nil, "attribute to fetch as [result=]source[:type]; repeatable")
	cmd.Flags().StringVarP(&flags.keys, "keys", "k", "", "comma separated keys")
	cmd.Flags().IntVar(&flags.head, "head", 10, "rows shown from the start of the batch")
	cmd.Flags().IntVar(&flags.tail, "tail", 10, "rows shown from the end of the batch")
	cmd.Flags().BoolVar(&flags.stats, "stats", false, "print attribute statistics over the found rows")
	_ = cmd.MarkFlagRequired("dictionary")
	return cmd
}

func runLookup(cmd *cobra.Command, a *app, flags lookupFlags) error {
	if err := a.load(cmd.Context(), flags.dictionary); err != nil {
		return err
	}
	d, err := a.catalog.Get(flags.dictionary)
	if err != nil {
		return err
	}
	sources, fields, err := parseAttributes(d, flags.attributes)
	if err != nil {
		return err
	}
	r, err := reader.New(flags.dictionary, sources, fields, a.resolver(), reader.WithLogger(a.logger))
	if err != nil {
		return err
	}
	keys, err := parseKeys(flags.keys)
	if err != nil {
		return err
	}
	res, err := r.Lookup(keys, keys.Len())
	if err != nil {
		return err
	}
	opts := print.DefaultTableOptions()
	opts.Head, opts.Tail, opts.Stats = flags.head, flags.tail, flags.stats
	_, err = fmt.Fprint(cmd.OutOrStdout(), print.Lookup(flags.dictionary, keys, res, opts))
	return err
}

// parseAttributes turns "[result=]source[:type]" flags into reader columns.
// No flags selects every attribute of d under its own name and type.
func parseAttributes(d *dictionary.Dictionary, specs []string) ([]string, []array.Field, error) {
	if len(specs) == 0 {
		fields := d.Schema().Fields
		sources := make([]string, len(fields))
		for i := range fields {
			sources[i] = fields[i].Name
		}
		return sources, append([]array.Field(nil), fields...), nil
	}
	sources := make([]string, len(specs))
	fields := make([]array.Field, len(specs))
	for i, spec := range specs {
		name, typ, hasType := strings.Cut(spec, ":")
		result, src, renamed := strings.Cut(name, "=")
		if !renamed {
			src = result
		}
		if result == "" || src == "" {
			return nil, nil, fmt.Errorf("invalid attribute %q: want [result=]source[:type]", spec)
		}
		sources[i] = src
		fields[i].Name = result
		if hasType {
			t, err := array.ParseDataType(typ)
			if err != nil {
				return nil, nil, fmt.Errorf("attribute %q: %w", spec, err)
			}
			fields[i].Type = t
			continue
		}
		f, err := d.Attribute(src)
		if err != nil {
			return nil, nil, err
		}
		fields[i].Type = f.Type
	}
	return sources, fields, nil
}

func parseKeys(raw string) (array.Column, error) {
	var parts []string
	if strings.TrimSpace(raw) != "" {
		parts = strings.Split(raw, ",")
	}
	b, err := array.NewBuilder(dictionary.KeyType, len(parts))
	if err != nil {
		return nil, err
	}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || strings.EqualFold(p, "null") {
			b.AppendNull()
			continue
		}
		if err := b.Parse(p); err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
	}
	return b.Build("key"), nil
}
