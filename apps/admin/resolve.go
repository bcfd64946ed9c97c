package main

import (
	"fmt"
)

// resolve prints where the gateway routes a request addressed to host.
func (cli *commandLine) resolve(host string) error {
	tc := cli.resolver.FromRequest(host, "")
	id := tc.ID
	if tc.IsCentral() {
		id = "(central)"
	}
	fmt.Fprintf(cli.out, "tenant: %s\n", id)
	fmt.Fprintf(cli.out, "api:    %s\n", cli.resolver.APIBaseURL(tc))
	return nil
}
