package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/anonvote/ingest"
	"github.com/danielhkuo/anonvote/issuer"
	"github.com/danielhkuo/anonvote/models"
	"github.com/danielhkuo/anonvote/store"
)

var issueOpts struct {
	resend     bool
	only       string
	deliveries string
}

func init() {
	rootCmd.AddCommand(issueCmd)
	issueCmd.Flags().BoolVar(&issueOpts.resend, "resend", false, "Reissue voters that already hold a credential")
	issueCmd.Flags().StringVar(&issueOpts.only, "only", "", "Issue to this roster email only (implies --resend)")
	issueCmd.Flags().StringVar(&issueOpts.deliveries, "deliveries", "", "Write credentials to this CSV for a mail merge instead of simulating delivery")
}

var issueCmd = &cobra.Command{
	Use:   "issue ROSTER",
	Short: "Issue credentials to every voter on a roster",
	Args:  cobra.ExactArgs(1),
	RunE:  runIssue,
}

func runIssue(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	voters, err := readRoster(args[0])
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	notifier, closeNotifier, err := deliveryNotifier(issueOpts.deliveries)
	if err != nil {
		return err
	}
	iss, err := newIssuer(cfg.MasterSecret, st, notifier)
	if err != nil {
		return err
	}

	res, err := iss.IssueBatch(cmd.Context(), voters, issuer.BatchOptions{
		Resend:     issueOpts.resend,
		Production: cfg.Production,
		Only:       issueOpts.only,
	})
	if cerr := closeNotifier(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "issued %s, skipped %s, failed %s (roster of %s)\n",
		humanize.Comma(int64(res.Issued)),
		humanize.Comma(int64(res.Skipped)),
		humanize.Comma(int64(res.Failed)),
		humanize.Comma(int64(len(voters))),
	)
	return nil
}

func readRoster(path string) ([]models.Voter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()
	return ingest.ParseRoster(f)
}

func newIssuer(masterSecret string, st store.Store, notifier issuer.Notifier) (*issuer.Issuer, error) {
	return issuer.New(issuer.Config{
		MasterSecret: masterSecret,
		Credentials:  st,
		Log:          st,
		Notifier:     notifier,
		Logger:       slog.Default(),
	})
}

// deliveryNotifier returns the log-only notifier for an empty path, or one
// that appends name, email, public id and private key rows to a new CSV
// file readable by the owner only.
func deliveryNotifier(path string) (issuer.Notifier, func() error, error) {
	if path == "" {
		return issuer.LogNotifier{Logger: slog.Default()}, func() error { return nil }, nil
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("create deliveries file: %w", err)
	}
	w := csv.NewWriter(f)
	w.Comma = ';'
	if err := w.Write([]string{"name", "email", "public_id", "private_key"}); err != nil {
		f.Close()
		return nil, nil, err
	}

	notify := issuer.NotifierFunc(func(ctx context.Context, voter models.Voter, cred models.Credential, production bool) error {
		if err := w.Write([]string{voter.Name, voter.Email, cred.PublicID, cred.PrivateKey}); err != nil {
			return err
		}
		w.Flush()
		return w.Error()
	})
	closer := func() error {
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return notify, closer, nil
}
