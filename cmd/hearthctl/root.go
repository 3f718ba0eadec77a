package main

import (
	"encoding/json"
	"io"

	"hearth/internal/app/bootstrap"
	"hearth/internal/platform/config"

	"github.com/spf13/cobra"
)

// appFactory builds the application for one command invocation.
type appFactory func(process string) (*bootstrap.App, error)

func defaultAppFactory(process string) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return bootstrap.Build(cfg, bootstrap.NewLogger(cfg, process))
}

type cli struct {
	build appFactory
}

func newRootCmd(build appFactory) *cobra.Command {
	c := &cli{build: build}
	root := &cobra.Command{
		Use:   "hearthctl",
		Short: "Household consensus and escalation engine",
		Long: `hearthctl drives the household escalation workflows: deceased votes,
investment and asset unlock requests, and role promotion requests.

Configuration is read from the environment (DB_DRIVER, POSTGRES_DSN,
SQLITE_DSN, REQUEST_COOLDOWN, REQUEST_THRESHOLD, SEALING_KEY, ...).

Examples:
  hearthctl migrate
  hearthctl import household.yaml
  hearthctl deceased start --family f1 --member m2 --initiator u1
  hearthctl request --workflow investment_unlock --family f1 --subject inv1 --requester u1
  hearthctl serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		c.migrateCmd(),
		c.importCmd(),
		c.serveCmd(),
		c.deceasedCmd(),
		c.requestCmd(),
		c.decisionCmd("approve", "Approve a pending request as an administrator"),
		c.decisionCmd("reject", "Reject a pending request as an administrator"),
		c.decisionCmd("ack", "Acknowledge a pending role request as an administrator"),
		c.statusCmd(),
		c.pendingCmd(),
		c.roleCmd(),
		c.inboxCmd(),
	)
	return root
}

// withApp builds the app, runs fn and closes the app.
func (c *cli) withApp(process string, fn func(app *bootstrap.App) error) error {
	app, err := c.build(process)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

func printJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
