package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ardanlabs/staking/business/chain"
)

// Validators lists validators by delegated tokens with their estimated APR.
//
//	validators [status] [count]
func Validators(ctx context.Context, args []string, env Env) error {
	status := chain.StatusBonded
	if s := arg(args, 0, ""); s != "" {
		var err error
		if status, err = chain.ParseBondStatus(s); err != nil {
			return err
		}
	}

	n, err := parseCount(arg(args, 1, ""), 10)
	if err != nil {
		return err
	}

	rows, err := env.Analytics.TopValidators(ctx, status, n)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tMONIKER\tOPERATOR\tTOKENS\tCOMMISSION\tAPR")

	for i, row := range rows {
		apr := row.Estimate.Percent()
		if row.Err != nil {
			apr = "n/a"
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			row.Validator.Moniker,
			row.Validator.OperatorAddress,
			env.display(row.Validator.Tokens),
			row.Validator.Commission,
			apr,
		)
	}

	return w.Flush()
}

// APR prints the yield estimate of a validator.
//
//	apr <validator>
func APR(ctx context.Context, args []string, env Env) error {
	validator := arg(args, 0, "")
	if validator == "" {
		return fmt.Errorf("validator operator address required")
	}

	est, err := env.Analytics.EstimateAPR(ctx, validator)
	if err != nil {
		return err
	}

	fmt.Printf("Validator:  %s (%s)\n", est.Validator.Moniker, est.Validator.OperatorAddress)
	fmt.Printf("Tokens:     %s\n", env.display(est.Validator.Tokens))
	fmt.Printf("Commission: %s\n", est.Validator.Commission)
	fmt.Printf("Share:      %s\n", est.Share)
	fmt.Printf("Inflation:  %s\n", est.Inflation)
	fmt.Printf("APR:        %s\n", est.Percent())

	return nil
}
