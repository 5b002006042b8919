package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dgallion1/paperreview/internal/config"
	"github.com/dgallion1/paperreview/internal/pipeline"
	"github.com/dgallion1/paperreview/internal/report"
	"github.com/dgallion1/paperreview/internal/resultstore"
	"github.com/dgallion1/paperreview/internal/review"
	"github.com/dgallion1/paperreview/internal/sectioner"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "paperreview",
		Short: "Section academic papers and review them with an LLM",
		Long: `paperreview splits a paper (PDF, DOCX, Markdown, HTML or text) into its
sections and sends each reviewable section to an LLM for a neutral
verification checklist.

Configuration comes from the same environment variables and CONFIG_FILE
as the server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "Log pipeline progress to stderr")

	root.AddCommand(sectionsCmd())
	root.AddCommand(reviewCmd())
	return root
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func sectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sections <file>",
		Short: "Print the detected sections of a document without calling an LLM",
		Long: `Parse and section one document and print the result. Use this to check
what the reviewer will see before spending LLM calls.

Example:
  paperreview sections paper.pdf
  paperreview sections paper.pdf --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runSections(cmd.OutOrStdout(), pipeline.WorkerConfigFrom(cfg, newLogger(cmd)), args[0], asJSON)
		},
	}
	cmd.Flags().Bool("json", false, "Print sections as JSON")
	return cmd
}

func runSections(w io.Writer, wcfg pipeline.WorkerConfig, path string, asJSON bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	filename := filepath.Base(path)
	p, err := wcfg.Parser.ForFile(filename)
	if err != nil {
		return err
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return fmt.Errorf("parse %s: %w", filename, err)
	}
	pipeline.SectionDocument(doc, wcfg.Sectioner)

	if !asJSON {
		_, err := io.WriteString(w, report.RawText(doc))
		return err
	}
	type section struct {
		Title    string `json:"title"`
		Kind     string `json:"kind"`
		Eligible bool   `json:"eligible"`
		Content  string `json:"content"`
	}
	out := make([]section, len(doc.Sections))
	for i, s := range doc.Sections {
		out[i] = section{s.Title, string(s.Kind), sectioner.IsEligibleForReview(s.Title), s.Content}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review <files...>",
		Short: "Review documents and write PDF reports plus a batch summary",
		Long: `Run the full review pipeline in-process for each file and write
Report_<file>.pdf into the output directory, followed by Batch_Summary.csv.

Example:
  paperreview review paper1.pdf paper2.docx --out reports
  paperreview review *.pdf --out reports --zip --conference "ICML 2026"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, _ := cmd.Flags().GetString("out")
			zipped, _ := cmd.Flags().GetBool("zip")
			log := newLogger(cmd)

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("conference") {
				cfg.Conference, _ = cmd.Flags().GetString("conference")
			}
			if skip, _ := cmd.Flags().GetBool("no-first-pass"); skip {
				cfg.FirstPassEnabled = false
			}
			if err := cfg.ValidateReview(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			chain, err := review.NewChainFromConfig(cfg, log, nil)
			if err != nil {
				return err
			}
			defer chain.Close()
			store, closeStore, err := resultstore.Open(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			worker := pipeline.NewWorker(chain, store, log, pipeline.WorkerConfigFrom(cfg, log))
			return runReview(ctx, cmd.OutOrStdout(), worker, args, outDir, zipped)
		},
	}
	cmd.Flags().StringP("out", "o", "reports", "Directory for reports and the batch summary")
	cmd.Flags().Bool("zip", false, "Also write every report and the summary into "+report.ArchiveName)
	cmd.Flags().String("conference", "", "Conference the first pass checks relevance against")
	cmd.Flags().Bool("no-first-pass", false, "Skip the desk-reject check")
	return cmd
}

// runReview processes files one at a time and writes their reports. A file
// that fails still gets a summary row; only I/O on the output directory
// aborts the run.
func runReview(ctx context.Context, w io.Writer, worker *pipeline.Worker, files []string, outDir string, zipped bool) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	jobs := make([]*pipeline.Job, 0, len(files))
	var names report.ReportNames
	for _, path := range files {
		data, err := os.ReadFile(path)
		job := pipeline.NewJob(filepath.Base(path), data)
		jobs = append(jobs, job)
		if err != nil {
			job.AddError(err.Error())
			job.SetStatus(pipeline.StatusFailed, "reading")
			fmt.Fprintf(w, "%s: %v\n", job.Filename, err)
			continue
		}

		start := time.Now()
		worker.Process(ctx, job)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		snap := job.Snapshot()
		rep, body, ext := job.Result()
		if rep == nil {
			fmt.Fprintf(w, "%s: %s\n", job.Filename, pipeline.SummaryRow(job).Notes)
			continue
		}
		name := names.Next(rep.Filename, ext)
		if err := os.WriteFile(filepath.Join(outDir, name), body, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		fmt.Fprintf(w, "%s: %s (%s, %d/%d sections reviewed, %s)\n",
			job.Filename, rep.Decision, snap.Status,
			snap.Progress.SectionsReviewed, snap.Progress.EligibleSections,
			time.Since(start).Round(time.Millisecond))
	}

	var buf bytes.Buffer
	if err := report.WriteSummaryCSV(&buf, pipeline.BatchSummary(jobs)); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, report.SummaryName), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if zipped {
		buf.Reset()
		if err := pipeline.WriteBatchArchive(&buf, jobs); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(outDir, report.ArchiveName), buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write archive: %w", err)
		}
	}
	fmt.Fprintf(w, "wrote %d report(s) to %s\n", countReports(jobs), outDir)
	return nil
}

func countReports(jobs []*pipeline.Job) int {
	n := 0
	for _, j := range jobs {
		if r, _, _ := j.Result(); r != nil {
			n++
		}
	}
	return n
}
