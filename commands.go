package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evanofslack/clouddns-console/internal/zone"
)

func newCmdAccounts() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List the accounts the configured credentials can reach",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			a, err := newApp(path, false)
			if err != nil {
				return err
			}
			accounts, degraded, err := a.accounts.List(cmd.Context())
			if err != nil {
				return err
			}
			if degraded {
				fmt.Fprintln(os.Stderr, "warning: account listing is unavailable, showing the default account only")
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDEFAULT")
			for _, acct := range accounts {
				def := ""
				if acct.ID == a.accounts.Default() {
					def = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", acct.ID, acct.Name, def)
			}
			return w.Flush()
		},
	}
}

func newCmdDuplicate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duplicate OLD NEW",
		Short: "Copy every record of domain OLD onto a new domain NEW",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			accountID, _ := cmd.Flags().GetString("account")
			a, err := newApp(path, false)
			if err != nil {
				return err
			}
			sc, err := a.scope(cmd.Context(), accountID)
			if err != nil {
				return err
			}

			target, err := a.zones.Duplicate(cmd.Context(), sc, args[0], args[1])
			var partial *zone.PartialError
			if errors.As(err, &partial) {
				fmt.Fprintf(cmd.ErrOrStderr(), "domain %s (id %s) was created but is incomplete\n", partial.Target.Name, partial.Target.ID)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "duplicated %s to %s (id %s)\n", args[0], target.Name, target.ID)
			return nil
		},
	}
	cmd.Flags().String("account", "", "Account to operate on (default: the credentials' own account)")
	return cmd
}

func newCmdSetTTL() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-ttl DOMAIN TTL",
		Short: "Set the TTL of every record in DOMAIN, continuing past failures",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, err := zone.ParseTTL(args[1])
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("config")
			accountID, _ := cmd.Flags().GetString("account")
			a, err := newApp(path, false)
			if err != nil {
				return err
			}
			sc, err := a.scope(cmd.Context(), accountID)
			if err != nil {
				return err
			}

			report, err := a.zones.AdjustTTL(cmd.Context(), sc, args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d of %d records in %s\n", report.Updated, report.Attempted, report.Domain)
			for _, f := range report.Failures {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed %s %s %s: %s\n", f.Record.ID, f.Record.Type, f.Record.Name, f.Error)
			}
			return nil
		},
	}
	cmd.Flags().String("account", "", "Account to operate on (default: the credentials' own account)")
	return cmd
}
