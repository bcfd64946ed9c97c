package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
)

func (cli *commandLine) listExports(tenantID string, limit int) error {
	recs, err := cli.exports.QueryExports(context.Background(), tenantID, limit)
	if err != nil {
		return errors.Wrap(err, "querying exports")
	}
	if len(recs) == 0 {
		fmt.Fprintf(cli.out, "no export for %s\n", tenantID)
		return nil
	}

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tUSER\tREPORT\tROWS\tTOTAL\tEMAILED TO")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s.%s\t%d\t%s\t%s\n",
			r.CreatedAt.Format(time.RFC3339), r.UserEmail, r.Kind, r.Format, r.Rows, r.Total.StringFixed(2), r.EmailedTo)
	}
	return w.Flush()
}
