package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/anonvote/issuer"
	"github.com/danielhkuo/anonvote/models"
)

var reissueOpts struct {
	roster     string
	deliveries string
}

func init() {
	rootCmd.AddCommand(reissueCmd)
	reissueCmd.Flags().StringVar(&reissueOpts.roster, "roster", "", "Roster file the email must appear in")
	reissueCmd.Flags().StringVar(&reissueOpts.deliveries, "deliveries", "", "Write the new credential to this CSV instead of simulating delivery")
	reissueCmd.MarkFlagRequired("roster")
}

var reissueCmd = &cobra.Command{
	Use:   "reissue EMAIL",
	Short: "Revoke a voter's credential, issue a new one and recompute",
	Args:  cobra.ExactArgs(1),
	RunE:  runReissue,
}

func runReissue(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	voters, err := readRoster(reissueOpts.roster)
	if err != nil {
		return err
	}
	voter, ok := findVoter(voters, args[0])
	if !ok {
		return fmt.Errorf("%w: %s", issuer.ErrUnknownVoter, args[0])
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	notifier, closeNotifier, err := deliveryNotifier(reissueOpts.deliveries)
	if err != nil {
		return err
	}
	iss, err := newIssuer(cfg.MasterSecret, st, notifier)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	rec, err := iss.Reissue(ctx, voter, cfg.Production)
	if cerr := closeNotifier(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	// The revocation changed the registry; votes under the old id stop counting.
	res, err := newEngine(cfg, st, st).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "reissued %s as %s (generation %d); %d countable votes\n",
		rec.Email, rec.PublicID, rec.Generation, res.Summary.CountableVotes)
	return nil
}

func findVoter(voters []models.Voter, email string) (models.Voter, bool) {
	email = strings.TrimSpace(email)
	for _, v := range voters {
		if strings.EqualFold(strings.TrimSpace(v.Email), email) {
			return v, true
		}
	}
	return models.Voter{}, false
}
