package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	cverrors "github.com/vango-dev/cveboard/internal/errors"
	"github.com/vango-dev/cveboard/internal/routes"
	"github.com/vango-dev/cveboard/pkg/nav"
)

func matchCmd(configDir *string) *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "match <path>...",
		Short: "Show which route each URL path matches",
		Long: `Match URL paths against the route table. Paths include the base path.

Examples:
  cveboard match /cve/CVE-2024-3094
  cveboard match --base=/app/ /app/cve-list /app/nope`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configDir)
			if err != nil {
				return err
			}
			if base != "" {
				cfg.BasePath = base
			}

			table, err := routes.NewTable(cmd.Context(), routes.EmbeddedViews())
			if err != nil {
				return err
			}
			ctrl := nav.New(table, nav.WithBase(cfg.BasePath))
			defer ctrl.Close()

			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				m, err := ctrl.Match(path)
				if err != nil {
					failed++
					errorMsg(out, "%s: %s", path, cverrors.Classify(err).FormatCompact())
					continue
				}
				success(out, "%s → %s%s", path, m.Route.Name, formatParams(m.Params))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d paths did not match", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&base, "base", "b", "", "Base path (default from cveboard.json or BASE_URL)")

	return cmd
}

func formatParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := lo.Keys(params)
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + params[k]
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
