package cli

import (
	"fmt"
	"io"
	"net/url"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"budget/internal/core"
	apphttp "budget/internal/http"
	"budget/internal/stats"
)

func newReportCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print projections of the demo data",
	}
	cmd.AddCommand(newBalanceReportCommand(rt), newDistributionReportCommand(rt))
	return cmd
}

func newBalanceReportCommand(rt *runtime) *cobra.Command {
	var accountID, month string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Print the daily balance of an account over one month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := rt.now()
			year, m, err := parseMonth(month, now)
			if err != nil {
				return err
			}
			app, err := NewApp(rt.cfg, rt.logger, nil, now)
			if err != nil {
				return err
			}
			a, err := app.Store.Account(accountID)
			if err != nil {
				return err
			}
			series, err := app.Stats.MonthlyBalance(cmd.Context(), accountID, year, m)
			if err != nil {
				return err
			}
			return printBalance(cmd.OutOrStdout(), a, year, m, series)
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "1", "account ID")
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current month)")
	return cmd
}

func printBalance(out io.Writer, a core.Account, year int, month time.Month, series []core.DailyBalance) error {
	fmt.Fprintf(out, "%s (%s) %s %d\n\n", a.Label, core.AccountTypeLabel(a.Type), month, year)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Day\tValidated\tProjected\t")
	for _, d := range series {
		fmt.Fprintf(tw, "%d\t%s\t%s\t\n", d.Day, core.FormatEuros(d.Validated), core.FormatEuros(d.Projected))
	}
	return tw.Flush()
}

func newDistributionReportCommand(rt *runtime) *cobra.Command {
	var accountID, from, to, direction string
	cmd := &cobra.Command{
		Use:   "distribution",
		Short: "Print totals per category over a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := rt.now()
			q, err := apphttp.ParseDistributionQuery(url.Values{
				"account":   {accountID},
				"from":      {from},
				"to":        {to},
				"direction": {direction},
			}, now)
			if err != nil {
				return err
			}
			app, err := NewApp(rt.cfg, rt.logger, nil, now)
			if err != nil {
				return err
			}
			groups, err := app.Stats.Distribution(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printDistribution(cmd.OutOrStdout(), q, groups)
		},
	}
	cmd.Flags().StringVar(&accountID, "account", stats.AllAccounts, `account ID or "all"`)
	cmd.Flags().StringVar(&from, "from", "", "first day as YYYY-MM-DD (default 30 days ago)")
	cmd.Flags().StringVar(&to, "to", "", "last day as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&direction, "direction", "DEBIT", "DEBIT or CREDIT")
	return cmd
}

func printDistribution(out io.Writer, q stats.DistributionQuery, groups []core.CategoryTotal) error {
	fmt.Fprintf(out, "%s, %s to %s, account %s\n\n", core.DirectionLabel(q.Direction), q.From, q.To, q.AccountID)
	if len(groups) == 0 {
		_, err := fmt.Fprintln(out, "No transactions in this period.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Category\tTotal\tShare")
	for _, g := range groups {
		share := "-"
		if g.Percent != nil {
			share = g.Percent.StringFixed(2) + " %"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", g.Label, core.FormatEuros(g.Total), share)
	}
	fmt.Fprintf(tw, "Total\t%s\t\n", core.FormatEuros(stats.GrandTotal(groups)))
	return tw.Flush()
}
