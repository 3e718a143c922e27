// This program builds, signs, and broadcasts staking transactions and reports
// validator analytics for the accounts in the registry.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cosmossdk.io/math"
	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/staking/app/tooling/staking/commands"
	"github.com/ardanlabs/staking/business/chain"
	"github.com/ardanlabs/staking/business/core/analytics"
	"github.com/ardanlabs/staking/business/core/rewards"
	"github.com/ardanlabs/staking/business/core/txn"
	"github.com/ardanlabs/staking/business/sys/faucet"
	"github.com/ardanlabs/staking/business/sys/lcd"
	"github.com/ardanlabs/staking/business/sys/sdktx"
	"github.com/ardanlabs/staking/business/sys/tmws"
	"github.com/ardanlabs/staking/foundation/logger"
	"github.com/ardanlabs/staking/foundation/network"
	"github.com/ardanlabs/staking/foundation/registry"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Values in a .env file become environment variables before the
	// configuration is parsed.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Println("loading .env:", err)
		os.Exit(1)
	}

	// Construct the application logger. The level is read ahead of the
	// configuration so startup is logged at the requested level.
	log, err := logger.New("STAKING", os.Getenv("STAKING_LOG_LEVEL"))
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("staking", "ERROR", err)

		var ou *chain.OutcomeUnknownError
		if errors.As(err, &ou) {
			log.Errorw("staking", "status", "transaction may be on chain, check before retrying", "hash", ou.Hash)
		}

		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Args    conf.Args
		Network struct {
			Profile      string `conf:"default:testnet"`
			ProfilesFile string
		}
		Accounts struct {
			File string `conf:"default:zstaking/accounts.json"`
		}
		Fee struct {
			Amount int64  `conf:"default:5000"`
			Gas    uint64 `conf:"default:200000"`
		}
		Memo struct {
			Limit int `conf:"default:256"`
		}
		Web struct {
			Timeout time.Duration `conf:"default:30s"`
		}
		Confirm struct {
			Mode     string        `conf:"default:poll,help:poll or ws"`
			Attempts uint          `conf:"default:10"`
			Delay    time.Duration `conf:"default:3s"`
			Timeout  time.Duration `conf:"default:60s"`
		}
		Faucet struct {
			URL string `conf:"default:https://faucet.cosmos.network/"`
		}
		Rewards struct {
			MaxClaims int `conf:"default:0"`
		}
		Analytics struct {
			Inflation   string `conf:"default:0.13"`
			Concurrency int    `conf:"default:4"`
		}
		Log struct {
			Level string `conf:"default:info"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "staking transaction orchestration and validator analytics",
		},
	}

	const prefix = "STAKING"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Debugw("startup", "config", out)

	// =========================================================================
	// Network Support

	profile, err := network.Load(cfg.Network.Profile, cfg.Network.ProfilesFile)
	if err != nil {
		return chain.NewConfigurationError("network.profile", "%w", err)
	}

	log.Infow("startup", "network", profile.Name, "chainId", profile.ChainID, "rest", profile.RESTEndpoint)

	reg, err := registry.Load(cfg.Accounts.File)
	if err != nil {
		return fmt.Errorf("loading accounts, run the wallet generate command first: %w", err)
	}

	inflation, err := math.LegacyNewDecFromStr(cfg.Analytics.Inflation)
	if err != nil {
		return chain.NewConfigurationError("analytics.inflation", "%w", err)
	}

	// The core packages accept a function of this signature to allow the
	// application to log.
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "network", profile.Name)
	}

	// =========================================================================
	// Chain Support

	client, err := lcd.New(lcd.Config{
		BaseURL:   profile.RESTEndpoint,
		Timeout:   cfg.Web.Timeout,
		EvHandler: ev,
	})
	if err != nil {
		return err
	}

	var confirmer chain.Confirmer = lcd.NewPollConfirmer(client, cfg.Confirm.Attempts, cfg.Confirm.Delay)

	switch cfg.Confirm.Mode {
	case "poll":
	case "ws":
		ws, err := tmws.New(tmws.Config{
			RPCEndpoint: profile.RPCEndpoint,
			Timeout:     cfg.Confirm.Timeout,
			Fallback:    confirmer,
			EvHandler:   ev,
		})
		if err != nil {
			return err
		}
		confirmer = ws
	default:
		return chain.NewConfigurationError("confirm.mode", "unknown mode %q", cfg.Confirm.Mode)
	}

	// The codec builds the sign doc for the account sources and encodes
	// what the executor broadcasts.
	codec, err := sdktx.New(profile.AddressPrefix)
	if err != nil {
		return err
	}

	exec, err := txn.New(txn.Config{
		Querier:     client,
		Broadcaster: client,
		Confirmer:   confirmer,
		Encoder:     codec,
		ChainID:     profile.ChainID,
		Prefix:      profile.AddressPrefix,
		Denom:       profile.Denom,
		Fee: chain.FeePolicy{
			Denom:  profile.Denom,
			Amount: math.NewInt(cfg.Fee.Amount),
			Gas:    cfg.Fee.Gas,
		},
		MemoLimit: cfg.Memo.Limit,
		EvHandler: ev,
	})
	if err != nil {
		return err
	}

	agg, err := rewards.New(rewards.Config{
		Querier:   client,
		Claimer:   exec,
		MaxClaims: cfg.Rewards.MaxClaims,
		Memo:      commands.MemoClaim,
		EvHandler: ev,
	})
	if err != nil {
		return err
	}

	anl, err := analytics.New(analytics.Config{
		Querier:     client,
		Inflation:   inflation,
		Concurrency: cfg.Analytics.Concurrency,
		EvHandler:   ev,
	})
	if err != nil {
		return err
	}

	// The faucet only exists on test networks. Leaving the url empty
	// disables the faucet command.
	var fct *faucet.Client
	if cfg.Faucet.URL != "" {
		fct, err = faucet.New(faucet.Config{
			URL:       cfg.Faucet.URL,
			Denom:     profile.Denom,
			Timeout:   cfg.Web.Timeout,
			EvHandler: ev,
		})
		if err != nil {
			return err
		}
	}

	env := commands.Env{
		Log:       log,
		Profile:   profile,
		Registry:  reg,
		SignMode:  codec,
		Querier:   client,
		Executor:  exec,
		Rewards:   agg,
		Analytics: anl,
		Faucet:    fct,
	}

	// =========================================================================
	// Command Processing

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return processCommands(ctx, cfg.Args, env)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(ctx context.Context, args conf.Args, env commands.Env) error {
	rest := []string(args)
	if len(rest) > 0 {
		rest = rest[1:]
	}

	switch args.Num(0) {
	case "transfer":
		if err := commands.Transfer(ctx, rest, env); err != nil {
			return fmt.Errorf("transfer: %w", err)
		}
	case "stake":
		if err := commands.Stake(ctx, rest, env); err != nil {
			return fmt.Errorf("stake: %w", err)
		}
	case "claim":
		if err := commands.Claim(ctx, rest, env); err != nil {
			return fmt.Errorf("claim: %w", err)
		}
	case "validators":
		if err := commands.Validators(ctx, rest, env); err != nil {
			return fmt.Errorf("validators: %w", err)
		}
	case "apr":
		if err := commands.APR(ctx, rest, env); err != nil {
			return fmt.Errorf("apr: %w", err)
		}
	case "mining":
		if err := commands.Mining(ctx, rest, env); err != nil {
			return fmt.Errorf("mining: %w", err)
		}
	case "faucet":
		if err := commands.Faucet(ctx, rest, env); err != nil {
			return fmt.Errorf("faucet: %w", err)
		}
	default:
		fmt.Println("commands: transfer, stake, claim, validators, apr, mining, faucet")
		return fmt.Errorf("unknown command %q", args.Num(0))
	}

	return nil
}
