/*
Package verify implements storage root verification commands.
*/
package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nspcc-dev/starkroot/cli/options"
	"github.com/nspcc-dev/starkroot/pkg/config"
	"github.com/nspcc-dev/starkroot/pkg/core/accumulator"
	"github.com/nspcc-dev/starkroot/pkg/core/storage"
	"github.com/nspcc-dev/starkroot/pkg/rpcclient"
	"github.com/nspcc-dev/starkroot/pkg/services/metrics"
	"github.com/nspcc-dev/starkroot/pkg/services/verifier"
	"github.com/nspcc-dev/starkroot/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var (
	enginesFlag = cli.StringFlag{
		Name:  "engines, e",
		Usage: "comma-separated list of root computation engines (" + strings.Join(config.AllEngines(), ", ") + ")",
	}
	truncationFlag = cli.BoolFlag{
		Name:  "key-truncation",
		Usage: "drop high bits of keys wider than 251 bits instead of failing",
	}
)

// NewCommands returns verification commands.
func NewCommands() []cli.Command {
	verifyFlags := []cli.Flag{
		options.Config,
		options.ConfigFile,
		options.Debug,
		options.RPC[0],
		cli.StringSliceFlag{
			Name:  "contract, c",
			Usage: "contract address to verify, can be repeated (overrides configuration)",
		},
		cli.Uint64Flag{
			Name:  "start",
			Usage: "first block to process (overrides configuration)",
		},
		cli.Uint64Flag{
			Name:  "end",
			Usage: "first block not to process, 0 means current chain height (overrides configuration)",
		},
		enginesFlag,
		truncationFlag,
	}
	rootFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "in, i",
			Usage: "JSON file with an array of {\"key\", \"value\"} pairs, '-' for stdin",
		},
		enginesFlag,
		truncationFlag,
	}
	return []cli.Command{
		{
			Name:      "verify",
			Usage:     "Verify contract storage roots over a block range",
			UsageText: "starkroot verify [--config-path path] [-r endpoint] [-c address ...] [--start N] [--end M] [-e engines] [--key-truncation] [-d]",
			Description: `Fetches state updates of the given block range from the Starknet node,
   accumulates storage changes of the watched contracts and computes their
   storage roots with every configured engine after each block changing them.
   The command fails if engines disagree on any root. Last computed roots are
   printed on success.`,
			Action: verifyRange,
			Flags:  verifyFlags,
		},
		{
			Name:      "root",
			Usage:     "Compute storage root of the given key-value pairs",
			UsageText: "starkroot root -i pairs.json [-e engines] [--key-truncation]",
			Action:    computeRoot,
			Flags:     rootFlags,
		},
	}
}

func applyFlags(ctx *cli.Context, cfg *config.Verifier) error {
	if ep := ctx.String(options.RPCEndpointFlag); ep != "" {
		cfg.RPCEndpoint = ep
	}
	if cs := ctx.StringSlice("contract"); len(cs) != 0 {
		cfg.Contracts = cfg.Contracts[:0]
		for _, s := range cs {
			c, err := util.FeltDecodeString(s)
			if err != nil {
				return fmt.Errorf("invalid contract address %q: %w", s, err)
			}
			cfg.Contracts = append(cfg.Contracts, c)
		}
	}
	if ctx.IsSet("start") {
		cfg.StartBlock = ctx.Uint64("start")
	}
	if ctx.IsSet("end") {
		cfg.EndBlock = ctx.Uint64("end")
	}
	if es := ctx.String("engines"); es != "" {
		cfg.Engines = parseEngines(es)
	}
	if ctx.Bool("key-truncation") {
		cfg.KeyTruncation = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return cfg.CheckTarget()
}

func parseEngines(s string) []string {
	var res []string
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); e != "" {
			res = append(res, e)
		}
	}
	return res
}

func verifyRange(ctx *cli.Context) error {
	if ctx.NArg() != 0 {
		return cli.NewExitError(fmt.Errorf("unexpected arguments: %s", strings.Join(ctx.Args(), " ")), 1)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if err = applyFlags(ctx, &cfg.Verifier); err != nil {
		return cli.NewExitError(err, 1)
	}
	log, _, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer func() { _ = log.Sync() }()

	grace, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c, ec := options.GetRPCClient(ctx, cfg.Verifier.RPCEndpoint, rpcclient.Options{RequestTimeout: cfg.Verifier.RequestTimeout})
	if ec != nil {
		return ec
	}
	defer c.Close()

	if cfg.Verifier.EndBlock == 0 {
		height, err := c.BlockNumber(grace)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("failed to get chain height: %w", err), 1)
		}
		if height < cfg.Verifier.StartBlock {
			return cli.NewExitError(fmt.Errorf("start block %d is above chain height %d", cfg.Verifier.StartBlock, height), 1)
		}
		cfg.Verifier.EndBlock = height + 1
	}

	store, err := storage.NewStore(cfg.ApplicationConfiguration.DBConfiguration)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("could not initialize storage: %w", err), 1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close storage", zap.Error(err))
		}
	}()

	prometheus := metrics.NewPrometheusService(cfg.ApplicationConfiguration.Prometheus, log)
	pprof := metrics.NewPprofService(cfg.ApplicationConfiguration.Pprof, log)
	if err = prometheus.Start(); err != nil {
		return cli.NewExitError(fmt.Errorf("failed to start Prometheus service: %w", err), 1)
	}
	defer prometheus.ShutDown()
	if err = pprof.Start(); err != nil {
		return cli.NewExitError(fmt.Errorf("failed to start Pprof service: %w", err), 1)
	}
	defer pprof.ShutDown()

	ds := rpcclient.NewRetrying(c, rpcclient.RetryOptions{
		Attempts: cfg.Verifier.RetryAttempts,
		Delay:    cfg.Verifier.RetryDelay,
	}, log)
	svc, err := verifier.New(cfg.Verifier, ds, store, nil, log)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	err = svc.Run(grace)
	printRoots(ctx.App.Writer, cfg.Verifier.Contracts, svc)
	if err != nil {
		if errors.Is(err, verifier.ErrRootMismatch) {
			return cli.NewExitError(err, 2)
		}
		return cli.NewExitError(err, 1)
	}
	return nil
}

func printRoots(w io.Writer, contracts []util.Felt, svc *verifier.Service) {
	for _, c := range contracts {
		if r, ok := svc.Root(c); ok {
			fmt.Fprintf(w, "%s: %s\n", c, r)
		} else {
			fmt.Fprintf(w, "%s: no storage changes\n", c)
		}
	}
}

func computeRoot(ctx *cli.Context) error {
	in := ctx.String("in")
	if in == "" {
		return cli.NewExitError(errors.New("no input file specified, use '--in' or '-i'"), 1)
	}
	kvs, err := readPairs(in)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	engines := config.AllEngines()
	if es := ctx.String("engines"); es != "" {
		engines = parseEngines(es)
	}
	root, err := verifier.ComputeRoot(kvs, engines, ctx.Bool("key-truncation"))
	if err != nil {
		if errors.Is(err, verifier.ErrRootMismatch) {
			return cli.NewExitError(err, 2)
		}
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, root)
	return nil
}

func readPairs(in string) ([]accumulator.KeyValue, error) {
	var (
		data []byte
		err  error
	)
	if in == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(in)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pairs: %w", err)
	}
	var kvs []accumulator.KeyValue
	if err = json.Unmarshal(data, &kvs); err != nil {
		return nil, fmt.Errorf("failed to decode pairs: %w", err)
	}
	return kvs, nil
}
