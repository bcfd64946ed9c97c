package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/faithpod/portal/core/report"
	"github.com/faithpod/portal/core/tenant"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db        *sqlx.DB
	resolver  tenant.Resolver
	tenantSvc *tenant.Service
	exports   report.Repository
	validate  *validator.Validate
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                    - run the audit log migrations (up, down, status, redo, reset, version...)")
	fmt.Fprintln(cli.out, "  resolve -host HOST                        - show the tenant and church API a host is routed to")
	fmt.Fprintln(cli.out, "  tenants list -email EMAIL                 - list tenants, as central admin EMAIL")
	fmt.Fprintln(cli.out, "  tenants create -email EMAIL -name NAME -tenant-email EMAIL -domain DOMAIN")
	fmt.Fprintln(cli.out, "                                            - provision a tenant; its admin password is prompted")
	fmt.Fprintln(cli.out, "  exports -tenant ID [-limit N]             - show the latest report exports of a tenant")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	resolveCmd := flag.NewFlagSet("resolve", flag.ContinueOnError)
	resolveHost := resolveCmd.String("host", "", "The host name a request is addressed to.")

	exportsCmd := flag.NewFlagSet("exports", flag.ContinueOnError)
	exportsTenant := exportsCmd.String("tenant", "", "The tenant id.")
	exportsLimit := exportsCmd.Int("limit", 20, "How many exports to show.")

	for _, fs := range []*flag.FlagSet{resolveCmd, exportsCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "resolve":
		if err := parse(resolveCmd, args[2:]); err != nil {
			return err
		}
		if *resolveHost == "" {
			resolveCmd.Usage()
			return errHelp
		}
		return cli.resolve(*resolveHost)
	case "tenants":
		return cli.tenants(args[2:])
	case "exports":
		if err := parse(exportsCmd, args[2:]); err != nil {
			return err
		}
		if !tenant.ValidID(*exportsTenant) {
			exportsCmd.Usage()
			return errHelp
		}
		return cli.listExports(*exportsTenant, *exportsLimit)
	default:
		cli.printUsage()
		return errHelp
	}
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

// readPassword prompts for a password without echoing it.
func (cli *commandLine) readPassword(prompt string) (string, error) {
	fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
