package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"wakeup-planner/internal/planner"
)

type previewOptions struct {
	from      string
	to        string
	by        string
	today     string
	blockDays int
}

func newPreviewCmd() *cobra.Command {
	opts := previewOptions{}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the block schedule for a plan without saving it",
		Example: `  wakeplanner preview --from 08:00 --to 06:00 --by 2026-11-30
  wakeplanner preview --from 08:00 --to 06:00 --by 2026-11-30 --today 2026-11-01 --block-days 2`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPreview(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.from, "from", "", "current wake time, HH:MM")
	cmd.Flags().StringVar(&opts.to, "to", "", "target wake time, HH:MM")
	cmd.Flags().StringVar(&opts.by, "by", "", "target date, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.today, "today", "", "first day of the plan, YYYY-MM-DD (default: today)")
	cmd.Flags().IntVar(&opts.blockDays, "block-days", 0, "days per block (default 3)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("by")
	return cmd
}

func runPreview(cmd *cobra.Command, opts previewOptions) error {
	today := time.Now()
	if opts.today != "" {
		d, err := planner.ParseDate(opts.today)
		if err != nil {
			return err
		}
		today = d
	}

	policy := planner.DefaultPolicy()
	if opts.blockDays > 0 {
		policy.BlockDays = opts.blockDays
	}

	plan, err := planner.New(policy).Generate(planner.GenerateRequest{
		CurrentWakeTime: opts.from,
		TargetWakeTime:  opts.to,
		TargetDate:      opts.by,
	}, today)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s -> %s by %s, %d days\n\n", plan.CurrentWakeTime, plan.TargetWakeTime, plan.TargetDate, len(plan.Intervals))
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WAKE\tFROM\tTO\tDAYS")
	for _, b := range planner.GroupByWakeTime(plan.Intervals) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", b.WakeTime, b.StartDate, b.EndDate, b.DaysCount)
	}
	return tw.Flush()
}
