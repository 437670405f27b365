package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/civicline/incident-admin/internal/trust"
)

var (
	trustReason      string
	trustConcurrency int
	trustRate        float64
	listTier         string
	listFlagged      string
	listSearch       string
	listSortBy       string
	listDesc         bool
	auditLimit       int
)

var trustCmd = &cobra.Command{
	Use:   "trust",
	Short: "Reporter trust administration",
}

var trustOverrideCmd = &cobra.Command{
	Use:   "override <reporter-id> <score>",
	Short: "Manually set a reporter's trust score",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := strconv.Atoi(args[1])
		if err != nil {
			return eris.Wrapf(err, "parse score %q", args[1])
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		adm := trust.NewAdmin(st, cfg.Admin.Actor)
		if err := adm.ManualOverride(cmd.Context(), args[0], score, trustReason); err != nil {
			return err
		}

		fmt.Printf("reporter %s trust score set to %d (%s)\n", args[0], score, trust.Classify(score).Label())
		return nil
	},
}

var trustRecalcCmd = &cobra.Command{
	Use:   "recalc <reporter-id>",
	Short: "Recalculate one reporter's trust score from current activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		adm := trust.NewAdmin(st, cfg.Admin.Actor)
		score, err := adm.Recalculate(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("reporter %s recalculated: %d (%s)\n", args[0], score, trust.Classify(score).Label())
		return nil
	},
}

var trustRecalcAllCmd = &cobra.Command{
	Use:   "recalc-all",
	Short: "Recalculate trust scores for every reporter",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		opts := trust.SweepOptions{
			Concurrency: cfg.Sweep.Concurrency,
			RatePerSec:  cfg.Sweep.RatePerSec,
		}
		if trustConcurrency > 0 {
			opts.Concurrency = trustConcurrency
		}
		if trustRate > 0 {
			opts.RatePerSec = trustRate
		}

		adm := trust.NewAdmin(st, cfg.Admin.Actor)
		result, err := adm.RecalculateAll(cmd.Context(), opts)
		if err != nil {
			return err
		}

		fmt.Printf("updated %d reporters\n", result.Updated)
		for _, f := range result.Failed {
			fmt.Printf("  skipped %s: %s\n", f.ReporterID, f.Reason)
		}
		return nil
	},
}

var trustFlagCmd = &cobra.Command{
	Use:   "flag <reporter-id>",
	Short: "Flag a reporter for suspicious activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		adm := trust.NewAdmin(st, cfg.Admin.Actor)
		if err := adm.SetFlag(cmd.Context(), args[0], true, trustReason); err != nil {
			return err
		}

		fmt.Printf("reporter %s flagged\n", args[0])
		return nil
	},
}

var trustUnflagCmd = &cobra.Command{
	Use:   "unflag <reporter-id>",
	Short: "Clear a reporter's suspicious-activity flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		adm := trust.NewAdmin(st, cfg.Admin.Actor)
		if err := adm.SetFlag(cmd.Context(), args[0], false, ""); err != nil {
			return err
		}

		fmt.Printf("reporter %s unflagged\n", args[0])
		return nil
	},
}

var trustListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reporters with tier, flag, and search filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := trust.ListOptions{
			Search: listSearch,
			SortBy: listSortBy,
			Desc:   listDesc,
		}
		if listTier != "" {
			tier, ok := trust.ParseTier(listTier)
			if !ok {
				return eris.Errorf("unknown tier %q", listTier)
			}
			opts.Tier = &tier
		}
		switch listFlagged {
		case "":
		case "flagged":
			t := true
			opts.Flagged = &t
		case "unflagged":
			f := false
			opts.Flagged = &f
		default:
			return eris.Errorf("--flagged must be 'flagged' or 'unflagged', got %q", listFlagged)
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		adm := trust.NewAdmin(st, cfg.Admin.Actor)
		reporters, err := adm.List(cmd.Context(), opts)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSCORE\tTIER\tREPORTS\tVERIFIED\tFALSE\tFLAGGED")
		for _, r := range reporters {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%d\t%d\t%v\n",
				r.ID, r.Name, r.TrustScore, trust.Classify(r.TrustScore).Label(),
				r.ReportCount, r.VerifiedReports, r.FalseReports, r.Flagged)
		}
		return w.Flush()
	},
}

var trustAuditCmd = &cobra.Command{
	Use:   "audit <reporter-id>",
	Short: "Show the audit trail for a reporter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		adm := trust.NewAdmin(st, cfg.Admin.Actor)
		entries, err := adm.Audit(cmd.Context(), args[0], auditLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "AT\tACTION\tACTOR\tSCORE\tREASON")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d->%d\t%s\n",
				e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, e.Actor, e.OldScore, e.NewScore, e.Reason)
		}
		return w.Flush()
	},
}

func init() {
	trustOverrideCmd.Flags().StringVar(&trustReason, "reason", "", "required explanation for the change")
	trustFlagCmd.Flags().StringVar(&trustReason, "reason", "", "required explanation for the flag")
	trustRecalcAllCmd.Flags().IntVar(&trustConcurrency, "concurrency", 0, "parallel recalculations (default from config)")
	trustRecalcAllCmd.Flags().Float64Var(&trustRate, "rate", 0, "max records per second (0 = unthrottled)")
	trustListCmd.Flags().StringVar(&listTier, "tier", "", "filter by tier (new|basic|reliable|trusted|verified)")
	trustListCmd.Flags().StringVar(&listFlagged, "flagged", "", "filter by flag state (flagged|unflagged)")
	trustListCmd.Flags().StringVar(&listSearch, "search", "", "match name or email")
	trustListCmd.Flags().StringVar(&listSortBy, "sort", "name", "sort key (name|score|reports|created)")
	trustListCmd.Flags().BoolVar(&listDesc, "desc", false, "sort descending")
	trustAuditCmd.Flags().IntVar(&auditLimit, "limit", 50, "max entries to show")

	trustCmd.AddCommand(trustOverrideCmd, trustRecalcCmd, trustRecalcAllCmd,
		trustFlagCmd, trustUnflagCmd, trustListCmd, trustAuditCmd)
	rootCmd.AddCommand(trustCmd)
}
