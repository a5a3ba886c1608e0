package cli

import (
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/medilabo/webapp/internal/config"
	"github.com/medilabo/webapp/pkg/cache"
	"github.com/medilabo/webapp/pkg/health"
	"github.com/medilabo/webapp/pkg/logger"
	"github.com/medilabo/webapp/pkg/session"
)

// routesCmd prints the route table. Sessions stay in memory so no Redis is
// needed.
func routesCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return printRoutes(cmd, cfg)
		},
	}
}

func printRoutes(cmd *cobra.Command, cfg *config.Config) error {
	mem := cache.NewMemory[session.Session](cache.WithSweepInterval(0))
	defer mem.Close()

	srv, err := build(cfg, logger.Discard(), session.NewCacheStore(mem), health.Checks{})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	err = chi.Walk(srv.app.Router(), func(method, route string, _ http.Handler, mws ...func(http.Handler) http.Handler) error {
		_, err := fmt.Fprintf(w, "%s\t%s\t%d\n", method, route, len(mws))
		return err
	})
	if err != nil {
		return err
	}
	return w.Flush()
}
