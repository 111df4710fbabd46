package main

import (
	"chat-relay/domain"
	"chat-relay/domain/chat"
	"chat-relay/services"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type app struct {
	open func(ctx context.Context) (services.IAccountService, func(), error)
}

// with opens the directory for the duration of one command.
func (a *app) with(cmd *cobra.Command, fn func(ctx context.Context, svc services.IAccountService) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, release, err := a.open(ctx)
	defer release()
	if err != nil {
		return err
	}
	return fn(ctx, svc)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "relayctl",
		Short:         "Operate the chat relay directory",
		Long:          "Manages accounts, tokens, blocks and reports in the directory used by the relay.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		registerCmd(a),
		tokenCmd(a),
		blockCmd(a),
		unblockCmd(a),
		blockedCmd(a),
		reportCmd(a),
		reportsCmd(a),
	)
	return root
}

func registerCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account and print its first token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.with(cmd, func(ctx context.Context, svc services.IAccountService) error {
				token, err := svc.Register(ctx, args[0], password)
				if err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Registered %s", args[0])
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func tokenCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "token <username>",
		Short: "Log in and print a bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.with(cmd, func(ctx context.Context, svc services.IAccountService) error {
				token, err := svc.Login(ctx, args[0], password)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func blockCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "block <blocker> <blocked>",
		Short: "Stop messages between two users, in both directions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.with(cmd, func(ctx context.Context, svc services.IAccountService) error {
				if err := svc.Block(ctx, domain.Identity(args[0]), domain.Identity(args[1])); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "%s blocked %s", args[0], args[1])
				return nil
			})
		},
	}
}

func unblockCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unblock <blocker> <blocked>",
		Short: "Remove a block",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.with(cmd, func(ctx context.Context, svc services.IAccountService) error {
				if err := svc.Unblock(ctx, domain.Identity(args[0]), domain.Identity(args[1])); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "%s unblocked %s", args[0], args[1])
				return nil
			})
		},
	}
}

func blockedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "blocked <identity>",
		Short: "List the users an identity blocked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.with(cmd, func(ctx context.Context, svc services.IAccountService) error {
				blocked, err := svc.Blocked(ctx, domain.Identity(args[0]))
				if err != nil {
					return err
				}
				for _, identity := range blocked {
					fmt.Fprintln(cmd.OutOrStdout(), identity)
				}
				return nil
			})
		},
	}
}

func reportCmd(a *app) *cobra.Command {
	var messageID string
	cmd := &cobra.Command{
		Use:   "report <reporter> <reported> <reason...>",
		Short: "File a report on behalf of a user",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id *uuid.UUID
			if messageID != "" {
				parsed, err := uuid.Parse(messageID)
				if err != nil {
					return fmt.Errorf("invalid message id: %w", err)
				}
				id = &parsed
			}
			return a.with(cmd, func(ctx context.Context, svc services.IAccountService) error {
				report, err := svc.Report(ctx, domain.Identity(args[0]), domain.Identity(args[1]),
					strings.Join(args[2:], " "), id)
				if err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Report %s recorded", report.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&messageID, "message", "", "id of the reported message")
	return cmd
}

func reportsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Browse recorded reports",
	}

	var reported string
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List the most recent reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.with(cmd, func(ctx context.Context, svc services.IAccountService) error {
				var filter *domain.Identity
				if reported != "" {
					filter = lo.ToPtr(domain.Identity(reported))
				}
				reports, err := svc.ListReports(ctx, filter, limit)
				if err != nil {
					return err
				}
				renderReports(cmd.OutOrStdout(), reports)
				return nil
			})
		},
	}
	list.Flags().StringVar(&reported, "reported", "", "only reports against this identity")
	list.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of reports")

	var searchLimit int
	search := &cobra.Command{
		Use:   "search <query...>",
		Short: "Full text search on report reasons (reported:<id> and reporter:<id> narrow it)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.with(cmd, func(ctx context.Context, svc services.IAccountService) error {
				reports, total, err := svc.SearchReports(ctx, strings.Join(args, " "), searchLimit)
				if err != nil {
					return err
				}
				renderReports(cmd.OutOrStdout(), reports)
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d matches\n", len(reports), total)
				return nil
			})
		},
	}
	search.Flags().IntVarP(&searchLimit, "limit", "n", 50, "maximum number of reports")

	cmd.AddCommand(list, search)
	return cmd
}

func renderReports(out io.Writer, reports []chat.Report) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "At", "Reporter", "Reported", "Message", "Reason"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, report := range reports {
		message := "-"
		if report.MessageID != nil {
			message = report.MessageID.String()[:8]
		}
		table.Append([]string{
			report.ID.String()[:8],
			report.CreatedAt.Local().Format(time.DateTime),
			report.Reporter.String(),
			report.Reported.String(),
			message,
			report.Reason,
		})
	}
	table.Render()
	if len(reports) == 0 {
		fmt.Fprintln(out, color.Gray.Sprint("no reports"))
	} else {
		fmt.Fprintln(out, color.Gray.Sprint(strconv.Itoa(len(reports))+" report(s)"))
	}
}

func success(out io.Writer, format string, args ...any) {
	fmt.Fprintln(out, color.Green.Sprintf(format, args...))
}
