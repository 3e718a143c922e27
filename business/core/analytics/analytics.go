// Package analytics derives yield estimates for validators from chain state.
//
// The APR estimate is a first order approximation. It assumes rewards are
// distributed exactly in proportion to a validator's share of bonded tokens
// and ignores the community tax, the proposer bonus, and block reward
// variance. The inflation rate is supplied by configuration, not queried.
package analytics

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	"github.com/ardanlabs/staking/business/chain"
	"golang.org/x/sync/errgroup"
)

// DefaultInflation is used when no inflation rate is configured.
var DefaultInflation = math.LegacyMustNewDecFromStr("0.13")

// Config represents the settings for the analytics engine.
type Config struct {
	Querier     chain.Querier
	Inflation   math.LegacyDec
	Concurrency int
	EvHandler   chain.EventHandler
}

// Analytics computes validator yield estimates.
type Analytics struct {
	querier     chain.Querier
	inflation   math.LegacyDec
	concurrency int
	evHandler   chain.EventHandler
}

// New constructs the analytics engine for use.
func New(cfg Config) (*Analytics, error) {
	if cfg.Querier == nil {
		return nil, chain.NewConfigurationError("querier", "no querier provided")
	}

	inflation := cfg.Inflation
	if inflation.IsNil() {
		inflation = DefaultInflation
	}

	if inflation.IsNegative() {
		return nil, chain.NewConfigurationError("analytics.inflation", "inflation %s is negative", inflation)
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	a := Analytics{
		querier:     cfg.Querier,
		inflation:   inflation,
		concurrency: concurrency,
		evHandler:   ev,
	}

	return &a, nil
}

// =============================================================================

// Estimate represents the yield estimate for a validator.
type Estimate struct {
	Validator chain.Validator
	Inflation math.LegacyDec
	Share     math.LegacyDec
	APR       math.LegacyDec
}

// Percent renders the APR as a percentage with two decimals, like 117.00%.
// Half a basis point rounds away from zero, so 12.345% renders as 12.35%.
func (e Estimate) Percent() string {
	scaled := e.APR.MulInt64(10000)

	sign := ""
	if scaled.IsNegative() {
		sign = "-"
		scaled = scaled.Abs()
	}

	basis := scaled.Add(math.LegacyNewDecWithPrec(5, 1)).TruncateInt()
	if basis.IsZero() {
		sign = ""
	}

	whole := basis.QuoRaw(100)
	frac := basis.ModRaw(100)

	return fmt.Sprintf("%s%s.%02d%%", sign, whole, frac.Int64())
}

// Compute derives the estimate from a validator and the staking pool:
//
//	share = tokens / bonded tokens
//	apr   = (inflation / share) * (1 - commission)
func Compute(inflation math.LegacyDec, val chain.Validator, pool chain.Pool) (Estimate, error) {
	if val.Tokens.IsNil() || !val.Tokens.IsPositive() {
		return Estimate{}, &chain.AnalyticsError{Validator: val.OperatorAddress, Reason: "validator has no delegated tokens"}
	}

	if pool.BondedTokens.IsNil() || !pool.BondedTokens.IsPositive() {
		return Estimate{}, &chain.AnalyticsError{Validator: val.OperatorAddress, Reason: "staking pool has no bonded tokens"}
	}

	share := math.LegacyNewDecFromInt(val.Tokens).QuoInt(pool.BondedTokens)
	if share.IsZero() {
		return Estimate{}, &chain.AnalyticsError{Validator: val.OperatorAddress, Reason: "validator share of the pool rounds to zero"}
	}

	commission := val.Commission
	if commission.IsNil() {
		commission = math.LegacyZeroDec()
	}

	apr := inflation.Quo(share).Mul(math.LegacyOneDec().Sub(commission))

	est := Estimate{
		Validator: val,
		Inflation: inflation,
		Share:     share,
		APR:       apr,
	}

	return est, nil
}

// EstimateAPR fetches the validator and the staking pool and computes the
// yield estimate.
func (a *Analytics) EstimateAPR(ctx context.Context, address string) (Estimate, error) {
	var val chain.Validator
	var pool chain.Pool

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		val, err = a.querier.Validator(ctx, address)
		return err
	})

	g.Go(func() error {
		var err error
		pool, err = a.querier.Pool(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return Estimate{}, fmt.Errorf("estimate %s: %w", address, err)
	}

	est, err := Compute(a.inflation, val, pool)
	if err != nil {
		return Estimate{}, err
	}

	a.evHandler("analytics: estimate: validator[%s] share[%s] apr[%s]", address, est.Share, est.Percent())

	return est, nil
}

// =============================================================================

// Row represents one validator in a ranking. Err is set when its estimate
// could not be computed.
type Row struct {
	Validator chain.Validator
	Estimate  Estimate
	Err       error
}

// TopValidators returns the first n validators in the status ordered by
// descending delegated tokens, each with its yield estimate.
func (a *Analytics) TopValidators(ctx context.Context, status chain.BondStatus, n int) ([]Row, error) {
	vals, err := a.querier.Validators(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("top validators: %w", err)
	}

	if n > 0 && n < len(vals) {
		vals = vals[:n]
	}

	rows := make([]Row, len(vals))

	var g errgroup.Group
	g.SetLimit(a.concurrency)

	for i, val := range vals {
		rows[i].Validator = val

		g.Go(func() error {
			est, err := a.EstimateAPR(ctx, val.OperatorAddress)
			rows[i].Estimate = est
			rows[i].Err = err
			return nil
		})
	}

	g.Wait()

	return rows, nil
}
