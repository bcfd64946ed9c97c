package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/access"
	"github.com/faithpod/portal/core/tenant"
)

func (cli *commandLine) tenants(args []string) error {
	listCmd := flag.NewFlagSet("tenants list", flag.ContinueOnError)
	listEmail := listCmd.String("email", "", "The central admin email. The password will be prompted next.")

	createCmd := flag.NewFlagSet("tenants create", flag.ContinueOnError)
	createEmail := createCmd.String("email", "", "The central admin email. The password will be prompted next.")
	createName := createCmd.String("name", "", "The church name.")
	createTenantEmail := createCmd.String("tenant-email", "", "The church contact email.")
	createDomain := createCmd.String("domain", "", "The tenant subdomain or full domain name.")

	for _, fs := range []*flag.FlagSet{listCmd, createCmd} {
		fs.SetOutput(cli.out)
	}

	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}

	switch args[0] {
	case "list":
		if err := parse(listCmd, args[1:]); err != nil {
			return err
		}
		if *listEmail == "" {
			listCmd.Usage()
			return errHelp
		}
		ctx, err := cli.centralLogin(*listEmail)
		if err != nil {
			return err
		}
		return cli.listTenants(ctx)
	case "create":
		if err := parse(createCmd, args[1:]); err != nil {
			return err
		}
		if *createEmail == "" || *createName == "" || *createTenantEmail == "" || *createDomain == "" {
			createCmd.Usage()
			return errHelp
		}
		nt := tenant.NewTenant{
			Name:   *createName,
			Email:  *createTenantEmail,
			Domain: *createDomain,
		}
		pwd, err := cli.readPassword("Enter tenant admin password:")
		if err != nil {
			return err
		}
		nt.Password = pwd
		if err = nt.Validate(cli.validate); err != nil {
			return err
		}
		ctx, err := cli.centralLogin(*createEmail)
		if err != nil {
			return err
		}
		return cli.createTenant(ctx, nt)
	default:
		cli.printUsage()
		return errHelp
	}
}

// centralLogin signs in to the central API and returns a context carrying the session token.
func (cli *commandLine) centralLogin(email string) (context.Context, error) {
	pwd, err := cli.readPassword("Enter admin password:")
	if err != nil {
		return nil, err
	}
	if pwd == "" {
		return nil, errHelp
	}

	ctx := tenant.WithContext(context.Background(), tenant.Context{})
	sess, err := cli.tenantSvc.Login(ctx, tenant.Credentials{
		Email:    core.CleanString(email, true /* lower */),
		Password: pwd,
	})
	if err != nil {
		return nil, errors.Wrap(err, "logging in")
	}
	return access.WithToken(ctx, sess.Token), nil
}

func (cli *commandLine) listTenants(ctx context.Context) error {
	tenants, err := cli.tenantSvc.QueryAll(ctx)
	if err != nil {
		return errors.Wrap(err, "querying tenants")
	}

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tDOMAINS")
	for _, t := range tenants {
		domains := make([]string, 0, len(t.Domains))
		for _, d := range t.Domains {
			domains = append(domains, d.Domain)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Email, strings.Join(domains, ","))
	}
	return w.Flush()
}

func (cli *commandLine) createTenant(ctx context.Context, nt tenant.NewTenant) error {
	t, err := cli.tenantSvc.Create(ctx, nt)
	if err != nil {
		return errors.Wrap(err, "creating tenant")
	}
	fmt.Fprintf(cli.out, "tenant %q created (id: %s)\n", t.Name, t.ID)
	return nil
}
