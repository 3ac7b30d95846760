package cli

import (
	"github.com/spf13/cobra"

	"mxguide/internal/query"
)

func newQueryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "query <jsonpath>",
		Short: "Select nodes from the record store with a JSONPath expression",
		Long: `Evaluates an RFC 9535 JSONPath expression against the record store and
prints every selected node as compact JSON, one per line.

Examples:
  mxguide query '$.errors[?@.category == "Account"].code'
  mxguide --profile kb query '$.errors[?@.severity == "fatal"]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := query.Compile(args[0])
			if err != nil {
				return err
			}
			doc, err := a.store().Load()
			if err != nil {
				return err
			}
			nodes, err := q.SelectJSON(doc)
			if err != nil {
				return err
			}
			p := newPrinter("json", cmd.OutOrStdout())
			for _, n := range nodes {
				p.line("%s", n)
			}
			a.logger.Debug("query complete", "path", q.String(), "nodes", len(nodes))
			return nil
		},
	}
}
