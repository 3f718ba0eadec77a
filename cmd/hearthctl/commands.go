package main

import (
	"fmt"
	"os"

	httptransport "hearth/contexts/household-governance/escalation-engine/transport/http"
	"hearth/internal/app/bootstrap"

	"github.com/spf13/cobra"
)

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp("migrate", func(app *bootstrap.App) error {
				if err := app.Migrate(cmd.Context()); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return err
			})
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <household.yaml>",
		Short: "Upsert a household's members, roles and holdings from a YAML fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()
			return c.withApp("import", func(app *bootstrap.App) error {
				household, err := app.ImportHousehold(cmd.Context(), file)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported family %s: %d members, %d roles, %d holdings\n",
					household.FamilyID, len(household.Members), len(household.Roles), len(household.Holdings))
				return err
			})
		},
	}
}

func (c *cli) serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API with /metrics and /swagger/",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp("api", func(app *bootstrap.App) error {
				if migrate {
					if err := app.Migrate(cmd.Context()); err != nil {
						return err
					}
				}
				return app.Serve(cmd.Context())
			})
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Migrate the schema before serving")
	return cmd
}

func (c *cli) deceasedCmd() *cobra.Command {
	parent := &cobra.Command{
		Use:   "deceased",
		Short: "Deceased vote workflow",
	}

	var familyID, memberID, initiatorID string
	start := &cobra.Command{
		Use:   "start",
		Short: "Open a vote to mark a member deceased",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp("cli", func(app *bootstrap.App) error {
				out, err := app.Module.Handler.StartDeceasedVoteHandler(cmd.Context(), familyID, memberID,
					httptransport.StartDeceasedVoteRequest{InitiatorID: initiatorID})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	start.Flags().StringVar(&familyID, "family", "", "Family id")
	start.Flags().StringVar(&memberID, "member", "", "Member id")
	start.Flags().StringVar(&initiatorID, "initiator", "", "Initiating user id")
	markRequired(start, "family", "member", "initiator")

	var voterID, vote string
	cast := &cobra.Command{
		Use:   "vote",
		Short: "Cast an approved or denied ballot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp("cli", func(app *bootstrap.App) error {
				out, err := app.Module.Handler.CastVoteHandler(cmd.Context(), familyID, memberID,
					httptransport.CastVoteRequest{VoterID: voterID, Vote: vote})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cast.Flags().StringVar(&familyID, "family", "", "Family id")
	cast.Flags().StringVar(&memberID, "member", "", "Member id")
	cast.Flags().StringVar(&voterID, "voter", "", "Voting user id")
	cast.Flags().StringVar(&vote, "vote", "approved", "approved or denied")
	markRequired(cast, "family", "member", "voter")

	parent.AddCommand(start, cast)
	return parent
}

func (c *cli) requestCmd() *cobra.Command {
	var req httptransport.CreateRequestRequest
	var familyID string
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Record an unlock or role promotion request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp("cli", func(app *bootstrap.App) error {
				out, err := app.Module.Handler.CreateRequestHandler(cmd.Context(), familyID, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().StringVar(&req.Workflow, "workflow", "", "investment_unlock, asset_unlock or role_promotion")
	cmd.Flags().StringVar(&familyID, "family", "", "Family id")
	cmd.Flags().StringVar(&req.SubjectID, "subject", "", "Holding id; defaults to the requester for role_promotion")
	cmd.Flags().StringVar(&req.RequesterID, "requester", "", "Requesting user id")
	markRequired(cmd, "workflow", "family", "requester")
	return cmd
}

func (c *cli) decisionCmd(use string, short string) *cobra.Command {
	var familyID, counterID string
	var req httptransport.AdminDecisionRequest
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp("cli", func(app *bootstrap.App) error {
				handler := app.Module.Handler
				var (
					out httptransport.OutcomeResponse
					err error
				)
				switch use {
				case "approve":
					out, err = handler.ApproveHandler(cmd.Context(), familyID, counterID, req)
				case "reject":
					out, err = handler.RejectHandler(cmd.Context(), familyID, counterID, req)
				default:
					out, err = handler.AcknowledgeHandler(cmd.Context(), familyID, counterID, req)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().StringVar(&familyID, "family", "", "Family id")
	cmd.Flags().StringVar(&counterID, "counter", "", "Counter id")
	cmd.Flags().StringVar(&req.AdminID, "admin", "", "Administrator user id")
	markRequired(cmd, "family", "counter", "admin")
	return cmd
}

func (c *cli) statusCmd() *cobra.Command {
	var familyID, counterID string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a counter's progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp("cli", func(app *bootstrap.App) error {
				out, err := app.Module.Handler.CounterStatusHandler(cmd.Context(), familyID, counterID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().StringVar(&familyID, "family", "", "Family id")
	cmd.Flags().StringVar(&counterID, "counter", "", "Counter id")
	markRequired(cmd, "family", "counter")
	return cmd
}

func (c *cli) pendingCmd() *cobra.Command {
	var familyID string
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List a family's pending counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp("cli", func(app *bootstrap.App) error {
				out, err := app.Module.Handler.PendingCountersHandler(cmd.Context(), familyID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().StringVar(&familyID, "family", "", "Family id")
	markRequired(cmd, "family")
	return cmd
}

func (c *cli) roleCmd() *cobra.Command {
	var familyID, userID string
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Show a user's role in a family",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp("cli", func(app *bootstrap.App) error {
				out, err := app.Module.Handler.RoleHandler(cmd.Context(), familyID, userID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().StringVar(&familyID, "family", "", "Family id")
	cmd.Flags().StringVar(&userID, "user", "", "User id")
	markRequired(cmd, "family", "user")
	return cmd
}

func (c *cli) inboxCmd() *cobra.Command {
	var userID, readCounter string
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List a user's notifications, optionally marking a counter's as read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp("cli", func(app *bootstrap.App) error {
				handler := app.Module.Handler
				if readCounter != "" {
					if _, err := handler.MarkReadHandler(cmd.Context(), userID,
						httptransport.MarkReadRequest{CounterID: readCounter}); err != nil {
						return err
					}
				}
				out, err := handler.ListNotificationsHandler(cmd.Context(), userID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User id")
	cmd.Flags().StringVar(&readCounter, "read", "", "Mark notifications about this counter id as read")
	markRequired(cmd, "user")
	return cmd
}

func markRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		_ = cmd.MarkFlagRequired(name)
	}
}
