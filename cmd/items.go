package cmd

import (
	"encoding/json"
	"strings"

	"livesync/core/errors"
	"livesync/core/reconcile"
	"livesync/core/subscription"
	"livesync/feature/group"

	"github.com/spf13/cobra"
)

var itemFlags []string

func addItemFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&itemFlags, "item", "i", nil,
		"group item as name:kind[:publication[:param,...]] (kind is record, list or collection)")
	_ = cmd.MarkFlagRequired("item")
}

// parseItem parses one --item value. Params that are valid JSON are
// decoded, anything else is passed as a string.
func parseItem(spec string) (group.Definition, error) {
	parts := strings.SplitN(spec, ":", 4)
	name := parts[0]
	if name == "" {
		return group.Definition{}, errors.Newf("item %q has no name", spec)
	}

	var kind reconcile.Kind
	if len(parts) > 1 && parts[1] != "" {
		k, ok := subscription.ParseKind(parts[1])
		if !ok {
			return group.Definition{}, errors.Wrapf(group.ErrUnknownValueType, "item %q has kind %q", spec, parts[1])
		}
		kind = k
	}

	var publication string
	if len(parts) > 2 {
		publication = parts[2]
	}

	var opts []group.DefinitionOption
	if len(parts) > 3 && parts[3] != "" {
		raw := strings.Split(parts[3], ",")
		params := make([]any, len(raw))
		for i, p := range raw {
			params[i] = parseParam(p)
		}
		opts = append(opts, group.WithParams(params...))
	}

	d := group.ByPublication(name, kind, publication, opts...)
	return d, d.Err()
}

func parseParam(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

func parseItems(specs []string) ([]group.Definition, error) {
	defs := make([]group.Definition, 0, len(specs))
	for _, spec := range specs {
		d, err := parseItem(spec)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}
