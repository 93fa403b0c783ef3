package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/export"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/pipeline"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Run the pipeline once and export the leads",
	Long:  "Sources leads for --keywords (optionally narrowed by --country) or a single --link, writes them to a CSV or XLSX file and optionally pushes them to Notion or Salesforce.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		keywords, _ := cmd.Flags().GetString("keywords")
		country, _ := cmd.Flags().GetString("country")
		link, _ := cmd.Flags().GetString("link")
		page, _ := cmd.Flags().GetInt("page")
		out, _ := cmd.Flags().GetString("out")
		formatName, _ := cmd.Flags().GetString("format")
		push, _ := cmd.Flags().GetStringSlice("push")

		format, err := export.ParseFormat(formatName)
		if err != nil {
			return err
		}
		pushers, err := initPushers(push)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx, "source")
		if err != nil {
			return err
		}
		defer env.Close()

		leads, err := env.Pipeline.Run(ctx, pipeline.Request{
			Link:     link,
			Keywords: keywords,
			Country:  country,
			Page:     page,
		})
		if err != nil {
			return err
		}

		path := exportPath(out, format)
		if err := writeExportFile(path, format, leads, cfg.Export.Placeholder); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d leads written to %s\n", len(leads), path)

		return pushLeads(ctx, cmd.OutOrStdout(), pushers, leads)
	},
}

// exportPath picks the output file. An empty out uses leads.<format>.
func exportPath(out string, format export.Format) string {
	if out != "" {
		return out
	}
	return strings.TrimSuffix(export.DefaultFileName, filepath.Ext(export.DefaultFileName)) + "." + string(format)
}

func writeExportFile(path string, format export.Format, leads []model.EnrichedProfile, placeholder string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = eris.Wrapf(cerr, "close %s", path)
		}
	}()
	return format.Write(f, leads, placeholder)
}

// pushLeads sends leads to every pusher. A failing target is logged and the
// rest still run; the first error is returned at the end.
func pushLeads(ctx context.Context, w io.Writer, pushers []export.Pusher, leads []model.EnrichedProfile) error {
	if len(leads) == 0 {
		return nil
	}
	var firstErr error
	for _, p := range pushers {
		res, err := p.Push(ctx, leads)
		if err != nil {
			zap.L().Error("push failed", zap.String("target", p.Name()), zap.Error(err))
			if firstErr == nil {
				firstErr = eris.Wrapf(err, "push to %s", p.Name())
			}
			continue
		}
		fmt.Fprintf(w, "%s: %d created, %d updated, %d failed (batch %s)\n",
			res.Target, res.Created, res.Updated, res.Failed, res.BatchID)
	}
	return firstErr
}

func init() {
	sourceCmd.Flags().String("keywords", "", "search keywords")
	sourceCmd.Flags().String("country", "", "country to narrow the search")
	sourceCmd.Flags().String("link", "", "LinkedIn profile link to source instead of searching")
	sourceCmd.Flags().Int("page", 1, "search results page")
	sourceCmd.Flags().String("out", "", "output file (default leads.csv or leads.xlsx)")
	sourceCmd.Flags().String("format", "csv", "export format: csv or xlsx")
	sourceCmd.Flags().StringSlice("push", nil, "push leads to: notion, salesforce")
	rootCmd.AddCommand(sourceCmd)
}
