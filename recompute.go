package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/anonvote/models"
)

func init() {
	rootCmd.AddCommand(recomputeCmd)
}

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Revalidate every submission and retally once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		start := time.Now()
		res, err := newEngine(cfg, st, st).Run(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "run %s finished in %s\n", res.RunID, time.Since(start).Round(time.Millisecond))
		printTally(out, res)
		return nil
	},
}

func printTally(out io.Writer, res models.TallyResult) {
	s := res.Summary
	fmt.Fprintf(out, "%s countable votes from %s active credentials; cutoff %s points (rank %d x %.2f)\n\n",
		humanize.Comma(int64(s.CountableVotes)),
		humanize.Comma(int64(s.ActiveCredentials)),
		humanize.FormatFloat("#,###.##", s.Cutoff),
		s.EffectiveMaxRank, s.CutoffFraction,
	)
	printScoreboard(out, res.Race1, s.Cutoff)
	fmt.Fprintln(out)
	printScoreboard(out, res.Race2, 0)
}

func printScoreboard(out io.Writer, sb models.Scoreboard, cutoff float64) {
	fmt.Fprintf(out, "%s (%s)\n", sb.Race, sb.Method)
	if sb.Placeholder {
		fmt.Fprintln(out, "  no countable ballots")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, row := range sb.Rows {
		mark := ""
		if cutoff > 0 && float64(row.Points) >= cutoff {
			mark = "*"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%v%s\n",
			humanize.Ordinal(row.Position), row.Candidate, humanize.Comma(int64(row.Points)), row.RankCounts, mark)
	}
	tw.Flush()
}
