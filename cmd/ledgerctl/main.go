package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/shopspring/decimal"

	"github.com/custard-wallet/custard_ledger/internal/config"
	"github.com/custard-wallet/custard_ledger/internal/infra"
	"github.com/custard-wallet/custard_ledger/internal/ledger"
	"github.com/custard-wallet/custard_ledger/internal/logging"
	"github.com/custard-wallet/custard_ledger/internal/wallet"
)

const usage = `ledgerctl: operate on the Postgres ledger.

Usage:
  ledgerctl schema [--db=<url>]
  ledgerctl balance <account> [--db=<url>]
  ledgerctl history <account> [--offset=<n>] [--limit=<n>] [--db=<url>]
  ledgerctl append <account> <kind> --delta=<amount> [--desc=<text>] [--db=<url>]
  ledgerctl verify <account>... [--db=<url>]

Options:
  -h --help         Show this screen.
  --version         Show version.
  --db=<url>        Postgres URL, defaults to DATABASE_URL.
  --offset=<n>      Entries to skip, newest first [default: 0].
  --limit=<n>       Page size, at most 500 [default: 20].
  --delta=<amount>  Signed quantity, e.g. --delta=-35.
  --desc=<text>     Entry description.
`

const maxHistoryLimit = 500

type opts struct {
	Schema      bool
	Balance     bool
	History     bool
	Append      bool
	Verify      bool
	Account     []string `docopt:"<account>"`
	Kind        string   `docopt:"<kind>"`
	Delta       string   `docopt:"--delta"`
	Description string   `docopt:"--desc"`
	DB          string   `docopt:"--db"`
	Offset      string   `docopt:"--offset"`
	Limit       string   `docopt:"--limit"`
	Help        bool     `docopt:"--help"`
	Version     bool     `docopt:"--version"`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	o, err := parseOpts(&docopt.Parser{HelpHandler: docopt.PrintHelpAndExit}, argv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, err := config.LoadOperator()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	logger := logging.New(cfg.LogLevel)
	if o.DB == "" {
		o.DB = cfg.DatabaseURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := infra.NewPostgresPool(ctx, o.DB, "ledgerctl")
	if err != nil {
		logger.Error("connect postgres", "error", err)
		return 1
	}
	defer pool.Close()
	pg := ledger.NewPostgresLedger(pool)

	if err := dispatch(ctx, pg, o); err != nil {
		logger.Error("ledgerctl failed", "error", err)
		return 1
	}
	return 0
}

func parseOpts(parser *docopt.Parser, argv []string) (opts, error) {
	var o opts
	parsed, err := parser.ParseArgs(usage, argv, "ledgerctl 1.0")
	if err != nil {
		return o, err
	}
	err = parsed.Bind(&o)
	return o, err
}

// dispatch runs one subcommand, printing to stdout.
func dispatch(ctx context.Context, pg *ledger.PostgresLedger, o opts) error {
	var account string
	if len(o.Account) > 0 {
		account = wallet.CanonicalAddress(o.Account[0])
	}

	switch {
	case o.Schema:
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		fmt.Println("schema applied")
	case o.Balance:
		b, err := pg.Balance(ctx, account)
		if err != nil {
			return err
		}
		fmt.Println(b.String())
	case o.History:
		offset, limit, err := pageArgs(o)
		if err != nil {
			return err
		}
		entries, err := pg.History(ctx, account, offset, limit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%6d  %s  %-12s %12s %12s  %s\n",
				e.Sequence, e.Timestamp.Format(time.RFC3339), e.Kind, e.Delta, e.BalanceAfter, e.Description)
		}
	case o.Append:
		kind, err := ledger.ParseKind(o.Kind)
		if err != nil {
			return err
		}
		delta, err := decimal.NewFromString(o.Delta)
		if err != nil {
			return fmt.Errorf("%w: delta %q", ledger.ErrInvalidInput, o.Delta)
		}
		e, err := pg.Append(ctx, ledger.AppendInput{AccountID: account, Description: o.Description, Delta: delta, Kind: kind})
		if err != nil {
			return err
		}
		fmt.Printf("appended %s sequence=%d balance=%s\n", e.ID, e.Sequence, e.BalanceAfter)
	case o.Verify:
		failed := 0
		for _, raw := range o.Account {
			rep, err := ledger.Verify(ctx, pg, wallet.CanonicalAddress(raw))
			if err != nil {
				return err
			}
			if rep.OK() {
				fmt.Printf("%s ok entries=%d balance=%s\n", rep.AccountID, rep.Entries, rep.Cached)
				continue
			}
			failed++
			for _, p := range rep.Problems {
				fmt.Printf("%s FAIL %s\n", rep.AccountID, p)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d account(s) failed verification", failed)
		}
	}
	return nil
}

func pageArgs(o opts) (offset, limit int, err error) {
	if offset, err = strconv.Atoi(o.Offset); err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("%w: --offset %q", ledger.ErrInvalidInput, o.Offset)
	}
	if limit, err = strconv.Atoi(o.Limit); err != nil || limit <= 0 {
		return 0, 0, fmt.Errorf("%w: --limit %q", ledger.ErrInvalidInput, o.Limit)
	}
	return offset, min(limit, maxHistoryLimit), nil
}
