package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/anonvote/auth"
	"github.com/danielhkuo/anonvote/store"
)

func init() {
	rootCmd.AddCommand(auditCmd)
}

var auditCmd = &cobra.Command{
	Use:   "audit [FILE...]",
	Short: "Print SHA-256 digests of input files and the state of the store",
	Long: `audit prints a digest manifest for the given files (rosters, registry and
funnel exports) followed by registry, issuance and tally counts, so two
operators can confirm they are looking at the same election.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if len(args) > 0 {
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, d := range auth.DigestFiles(args) {
				if d.Err != nil {
					fmt.Fprintf(tw, "%s\t-\terror: %v\n", d.Path, d.Err)
					continue
				}
				size := "?"
				if info, err := os.Stat(d.Path); err == nil {
					size = humanize.Bytes(uint64(info.Size()))
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Path, size, d.SHA256)
			}
			tw.Flush()
			fmt.Fprintln(out)
		}

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		ctx := cmd.Context()

		creds, err := st.Credentials(ctx)
		if err != nil {
			return err
		}
		active := 0
		for _, c := range creds {
			if c.IsActive {
				active++
			}
		}
		issuances, err := st.Issuances(ctx)
		if err != nil {
			return err
		}
		subs, err := st.Submissions(ctx)
		if err != nil {
			return err
		}
		raw := 0
		for _, s := range subs {
			if !s.SecretDigested {
				raw++
			}
		}

		fmt.Fprintf(out, "credentials: %s (%s active)\n", humanize.Comma(int64(len(creds))), humanize.Comma(int64(active)))
		fmt.Fprintf(out, "issuances:   %s\n", humanize.Comma(int64(len(issuances))))
		fmt.Fprintf(out, "submissions: %s (%s awaiting validation)\n", humanize.Comma(int64(len(subs))), humanize.Comma(int64(raw)))

		res, err := st.LatestResult(ctx)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintln(out, "tally:       none yet")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "tally:       run %s, %s, inputs %s\n", res.RunID, humanize.Time(res.ComputedAt), res.InputsHash)
		return nil
	},
}
