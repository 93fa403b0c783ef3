package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the search cache",
}

// -- cache list --

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached searches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("cache"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		keywords, _ := cmd.Flags().GetString("keywords")
		country, _ := cmd.Flags().GetString("country")
		limit, _ := cmd.Flags().GetInt("limit")

		cache := store.NewCache(st, cfg.Store.CacheTTL())
		rows, err := cache.List(ctx, store.SearchFilter{Keywords: keywords, Country: country, Limit: limit})
		if err != nil {
			return eris.Wrap(err, "cache list")
		}

		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No cached searches found.")
			return nil
		}

		formatSearchList(cmd.OutOrStdout(), rows, cache.TTL(), time.Now())
		return nil
	},
}

// -- cache prune --

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired cached searches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("cache"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := store.NewCache(st, cfg.Store.CacheTTL()).Prune(ctx)
		if err != nil {
			return eris.Wrap(err, "cache prune")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired searches.\n", n)
		return nil
	},
}

func formatSearchList(w io.Writer, rows []model.CachedSearch, ttl time.Duration, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKEYWORDS\tCOUNTRY\tPAGE\tRESULTS\tCACHED\tSTATUS")
	for _, r := range rows {
		status := "fresh"
		if now.Sub(r.Timestamp) >= ttl {
			status = "expired"
		}
		country := r.Country
		if country == "" {
			country = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			shortID(r.Fingerprint), r.Keywords, country, r.Page, r.Results,
			r.Timestamp.Local().Format("2006-01-02 15:04"), status)
	}
	_ = tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	cacheListCmd.Flags().String("keywords", "", "filter by keywords (substring)")
	cacheListCmd.Flags().String("country", "", "filter by country")
	cacheListCmd.Flags().Int("limit", 50, "maximum rows to show")

	cacheCmd.AddCommand(cacheListCmd, cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}
