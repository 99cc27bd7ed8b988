package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/anonvote/ingest"
	"github.com/danielhkuo/anonvote/models"
)

var importOpts struct {
	race1    string
	race2    int
	timezone string
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importRegistryCmd, importSubmissionsCmd)

	f := importSubmissionsCmd.Flags()
	f.StringVar(&importOpts.race1, "race1", "", "Race 1 columns as START:END, 0-based and END exclusive (default: header prefix match)")
	f.IntVar(&importOpts.race2, "race2", -1, "Race 2 column index (-1: header match)")
	f.StringVar(&importOpts.timezone, "tz", "UTC", "Time zone of funnel timestamps without an offset")
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load registry or submission exports into the store",
}

var importRegistryCmd = &cobra.Command{
	Use:   "registry FILE",
	Short: "Upsert public_id;public_key;is_active rows into the credential registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open registry: %w", err)
		}
		defer f.Close()

		records, err := ingest.ParseRegistry(f)
		if err != nil {
			return err
		}

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		active := 0
		for _, rec := range records {
			if err := st.Upsert(cmd.Context(), rec); err != nil {
				return err
			}
			if rec.IsActive {
				active++
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "imported %s credentials (%s active); run recompute to apply\n",
			humanize.Comma(int64(len(records))), humanize.Comma(int64(active)))
		return nil
	},
}

var importSubmissionsCmd = &cobra.Command{
	Use:   "submissions FILE",
	Short: "Append rows exported from the submission funnel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}

		var opts ingest.BindOptions
		if importOpts.race2 >= 0 {
			opts.Race2 = ingest.Column(importOpts.race2)
		}
		if importOpts.race1 != "" {
			r, err := parseRange(importOpts.race1)
			if err != nil {
				return err
			}
			opts.Race1 = &r
		}
		if opts.Location, err = time.LoadLocation(importOpts.timezone); err != nil {
			return fmt.Errorf("%w: time zone %q", models.ErrConfiguration, importOpts.timezone)
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open submissions: %w", err)
		}
		defer f.Close()

		subs, err := ingest.ReadSubmissions(f, opts)
		if err != nil {
			return err
		}

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		for i := range subs {
			if subs[i].ID == "" {
				subs[i].ID = uuid.NewString()
			}
			if err := st.AppendSubmission(cmd.Context(), &subs[i]); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "appended %s submissions; run recompute to validate them\n",
			humanize.Comma(int64(len(subs))))
		return nil
	},
}

func parseRange(s string) (ingest.Range, error) {
	start, end, ok := strings.Cut(s, ":")
	if !ok {
		return ingest.Range{}, fmt.Errorf("%w: race range %q is not START:END", models.ErrConfiguration, s)
	}
	a, errA := strconv.Atoi(strings.TrimSpace(start))
	b, errB := strconv.Atoi(strings.TrimSpace(end))
	if errA != nil || errB != nil {
		return ingest.Range{}, fmt.Errorf("%w: race range %q is not numeric", models.ErrConfiguration, s)
	}
	return ingest.Range{Start: a, End: b}, nil
}
