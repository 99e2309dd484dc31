// Command `hostctl` is the end-user CLI for the hostd daemon.
//
// hostd is a caching hostname/address resolution service. The CLI
// communicates with a background daemon that performs lookups through the
// configured nameservers and caches the results.
//
// Usage:
//
//	hostctl resolve <host>...   - Resolve hostnames or address literals
//	hostctl resolve -1 <host>   - Print only the first resolved address
//	hostctl self                - Resolve the daemon host's own name
//	hostctl cache               - List cached entries
//	hostctl flush               - Empty the resolution cache
//	hostctl status              - Show daemon status
//
// Examples:
//
//	hostctl resolve example.com         - Forward lookup of a hostname
//	hostctl resolve 127.0.0.1           - Reverse lookup of an address
//	hostctl resolve -1 example.com      - First address only
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lc/hostd/internal/buildinfo"
	"github.com/lc/hostd/internal/config"
	"github.com/lc/hostd/pkg/client"
)

const _requestTimeout = 10 * time.Second

func main() {
	cfg, err := config.New().Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	cli := client.New(cfg.Socket.Path)

	root := &cobra.Command{
		Use:   "hostctl",
		Short: "hostd resolution CLI",
		Long: `hostctl talks to the hostd daemon, a caching hostname/address
resolution service. Results are cached by the daemon until flushed.`,
	}

	// ---- version command ----
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show version information for the hostctl CLI and daemon.`,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("version: %s\n", buildinfo.Version)
			fmt.Printf("commit: %s\n", buildinfo.Commit)
		},
	}

	// ---- resolve command ----
	var firstOnly bool
	resolveCmd := &cobra.Command{
		Use:   "resolve <host>...",
		Short: "Resolve hostnames or address literals",
		Long: `Resolve one or more hostnames or IP address literals.
A token that parses as an IP address takes the reverse-lookup path;
anything else is forward resolved.

Examples:
  hostctl resolve example.com          Forward lookup
  hostctl resolve 127.0.0.1            Reverse lookup
  hostctl resolve -1 example.com       Print only the first address`,
		Example: "hostctl resolve example.com 127.0.0.1",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), _requestTimeout)
			defer cancel()

			for _, host := range args {
				if firstOnly {
					addr, err := cli.ResolveOne(ctx, host)
					if err != nil {
						return err
					}
					fmt.Println(addr.Address)
					continue
				}

				entry, err := cli.Resolve(ctx, host)
				if err != nil {
					return err
				}
				printEntry(host, entry.Name, entry.Aliases, entry.Addresses)
			}
			return nil
		},
	}
	resolveCmd.Flags().BoolVarP(&firstOnly, "one", "1", false, "print only the first resolved address")

	// ---- self command ----
	selfCmd := &cobra.Command{
		Use:     "self",
		Short:   "Resolve the daemon host's own name",
		Example: "hostctl self",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), _requestTimeout)
			defer cancel()

			entry, err := cli.Self(ctx)
			if err != nil {
				return err
			}
			printEntry(entry.Name, entry.Name, entry.Aliases, entry.Addresses)
			return nil
		},
	}

	// ---- cache command ----
	cacheCmd := &cobra.Command{
		Use:     "cache",
		Short:   "List cached entries",
		Example: "hostctl cache",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			entries, err := cli.Cache(ctx)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				color.Yellow("Cache is empty.")
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Key", "Canonical Name", "Addresses"})
			table.SetHeaderColor(
				tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
				tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
				tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
			)
			table.SetBorder(false)
			table.SetColumnColor(
				tablewriter.Colors{tablewriter.FgHiWhiteColor},
				tablewriter.Colors{tablewriter.FgGreenColor},
				tablewriter.Colors{tablewriter.FgYellowColor},
			)

			for _, e := range entries {
				addrs := "-"
				if len(e.Addresses) > 0 {
					addrs = e.Addresses[0]
					if len(e.Addresses) > 1 {
						addrs = fmt.Sprintf("%s (+%d more)", addrs, len(e.Addresses)-1)
					}
				}
				table.Append([]string{e.Key, e.Name, addrs})
			}

			color.New(color.Bold).Println("CACHED ENTRIES:")
			table.Render()
			return nil
		},
	}

	// ---- flush command ----
	flushCmd := &cobra.Command{
		Use:     "flush",
		Short:   "Empty the resolution cache",
		Example: "hostctl flush",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			if err := cli.Flush(ctx); err != nil {
				return err
			}
			color.New(color.FgGreen, color.Bold).Println("✓ Cache flushed")
			return nil
		},
	}

	// ---- status command ----
	statusCmd := &cobra.Command{
		Use:     "status",
		Short:   "Show daemon status",
		Example: "hostctl status",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			st, err := cli.Status(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("entries: %d\n", st.Entries)
			fmt.Printf("hits:    %d\n", st.Hits)
			fmt.Printf("misses:  %d\n", st.Misses)
			fmt.Printf("uptime:  %s\n", st.Uptime.Round(time.Second))
			fmt.Printf("version: %s (%s)\n", st.Version, st.Commit)
			return nil
		},
	}

	root.AddCommand(resolveCmd, selfCmd, cacheCmd, flushCmd, statusCmd, versionCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// printEntry renders one resolved entry.
func printEntry(query, name string, aliases, addresses []string) {
	color.New(color.FgHiWhite, color.Bold).Printf("%s", query)
	if name != query {
		color.New(color.FgHiBlack).Printf(" → ")
		color.New(color.FgGreen, color.Bold).Printf("%s", name)
	}
	fmt.Println()

	for _, a := range aliases {
		color.New(color.FgYellow).Printf("  alias   %s\n", a)
	}
	for _, a := range addresses {
		color.New(color.FgHiGreen).Printf("  address %s\n", a)
	}
	if len(addresses) == 0 {
		color.New(color.FgHiBlack).Println("  (no addresses)")
	}
}
