// Command cartctl drives a single local cart from the terminal. The cart is
// kept on disk the way the storefront keeps it in browser storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/afero"

	domcart "example.com/rocketshoes/app/internal/domain/cart"
	domproduct "example.com/rocketshoes/app/internal/domain/product"
	"example.com/rocketshoes/app/internal/infra/catalog"
	"example.com/rocketshoes/app/internal/infra/config"
	"example.com/rocketshoes/app/internal/infra/logging"
	"example.com/rocketshoes/app/internal/infra/notify"
	"example.com/rocketshoes/app/internal/infra/persistence/file"
	cartuc "example.com/rocketshoes/app/internal/usecase/cart"
)

const usage = `usage: cartctl [flags] <command>

commands:
  list              show the cart
  add ID            add one unit of product ID
  remove ID         remove product ID from the cart
  amount ID N       set the amount of product ID to N

flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cartctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	cfg := config.Load()
	api := fs.String("api", cfg.CatalogBaseURL, "storefront API base URL")
	dir := fs.String("dir", defaultDir(), "directory holding the cart")
	timeout := fs.Duration("timeout", cfg.CatalogTimeout, "catalog request timeout")
	verbose := fs.Bool("v", false, "log debug output to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	level := "error"
	if *verbose {
		level = "debug"
	}
	log := logging.New(stderr, logging.Options{Service: "cartctl", Level: level, Format: "text"})

	storage, err := file.NewStorage(afero.NewOsFs(), *dir)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	client, err := catalog.NewClient(*api, *timeout)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	ctx := context.Background()
	store := cartuc.NewService(ctx, client, storage, notify.NewWriter(stdout), log)

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch {
	case cmd == "list" && len(rest) == 0:
		printCart(stdout, store.Cart())
		return 0

	case cmd == "add" && len(rest) == 1:
		id, ok := parseID(stderr, rest[0])
		if !ok {
			return 2
		}
		return exitCode(store.AddProduct(ctx, id))

	case cmd == "remove" && len(rest) == 1:
		id, ok := parseID(stderr, rest[0])
		if !ok {
			return 2
		}
		return exitCode(store.RemoveProduct(ctx, id))

	case cmd == "amount" && len(rest) == 2:
		id, ok := parseID(stderr, rest[0])
		if !ok {
			return 2
		}
		amount, err := strconv.ParseInt(rest[1], 10, 64)
		if err != nil {
			fmt.Fprintf(stderr, "invalid amount %q\n", rest[1])
			return 2
		}
		return exitCode(store.UpdateProductAmount(ctx, cartuc.UpdateAmountInput{ProductID: id, Amount: amount}))
	}

	fs.Usage()
	return 2
}

func exitCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}

func parseID(stderr io.Writer, s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintf(stderr, "invalid product id %q\n", s)
		return 0, false
	}
	return id, true
}

func printCart(w io.Writer, c domcart.Cart) {
	if c.Count() == 0 {
		fmt.Fprintln(w, "cart is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRODUCT\tPRICE\tAMOUNT\tSUBTOTAL")
	for _, item := range c.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n",
			item.ID,
			item.Title,
			domproduct.FormatPrice(item.PriceDecimal()),
			item.Amount,
			domproduct.FormatPrice(item.Subtotal()),
		)
	}
	fmt.Fprintf(tw, "\t\t\tTOTAL\t%s\n", domproduct.FormatPrice(c.Total()))
	_ = tw.Flush()
}

func defaultDir() string {
	if d := os.Getenv("ROCKETSHOES_HOME"); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rocketshoes"
	}
	return filepath.Join(home, ".rocketshoes")
}
