package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/cogdistort/internal/artifact"
	"github.com/abhisek/cogdistort/internal/inference"
	"github.com/abhisek/cogdistort/internal/report"
	"github.com/abhisek/cogdistort/internal/samples"
	"github.com/abhisek/cogdistort/internal/store"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
)

var errNoInput = errors.New("no input: pass statements as arguments, --file or --examples")

// outputOpts selects what runClassify emits.
type outputOpts struct {
	format  string
	csvPath string
	chart   bool
	save    bool
}

var classifyCmd = &cobra.Command{
	Use:   "classify [statement...]",
	Short: "Classify one or more statements",
	Long: "Classify statements given as arguments, read one per line from --file\n" +
		"(\"-\" for stdin), or the built-in examples with --examples.",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}

		texts, err := gatherInputs(cmd, args)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case formatTable, formatCSV, formatJSON:
		default:
			return fmt.Errorf("unknown format %q: want table, csv or json", format)
		}
		csvPath, _ := cmd.Flags().GetString("csv")
		chart, _ := cmd.Flags().GetBool("chart")
		save, _ := cmd.Flags().GetBool("save")

		if cmd.Flags().Changed("workers") {
			env.cfg.Classify.Workers, _ = cmd.Flags().GetInt("workers")
		}
		if cmd.Flags().Changed("strict") {
			env.cfg.Classify.Strict, _ = cmd.Flags().GetBool("strict")
		}
		if cmd.Flags().Changed("keep-going") {
			env.cfg.Classify.KeepGoing, _ = cmd.Flags().GetBool("keep-going")
		}
		if err := env.cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		return runClassify(cmd, env, texts, outputOpts{
			format:  format,
			csvPath: csvPath,
			chart:   chart,
			save:    save,
		})
	},
}

func init() {
	classifyCmd.Flags().StringP("file", "f", "", "Read statements from a file, one per line (\"-\" for stdin)")
	classifyCmd.Flags().Bool("examples", false, "Classify the built-in example statements")
	classifyCmd.Flags().String("format", formatTable, "Output format: table, csv or json")
	classifyCmd.Flags().String("csv", "", "Also write results as CSV to this path")
	classifyCmd.Flags().Bool("chart", false, "Print the label distribution chart (table format only)")
	classifyCmd.Flags().Bool("save", false, "Save the run to the history database")
	classifyCmd.Flags().Int("workers", 1, "Number of statements classified in parallel")
	classifyCmd.Flags().Bool("strict", false, "Fail when the most probable class disagrees with the prediction")
	classifyCmd.Flags().Bool("keep-going", false, "Classify every statement and report failures at the end")
}

// gatherInputs collects statements from args, --file and --examples in that
// order. Blank lines are skipped.
func gatherInputs(cmd *cobra.Command, args []string) ([]string, error) {
	var texts []string
	for _, a := range args {
		if s := strings.TrimSpace(a); s != "" {
			texts = append(texts, s)
		}
	}

	if path, _ := cmd.Flags().GetString("file"); path != "" {
		lines, err := readLines(cmd, path)
		if err != nil {
			return nil, err
		}
		texts = append(texts, lines...)
	}

	if examples, _ := cmd.Flags().GetBool("examples"); examples {
		texts = append(texts, samples.Statements()...)
	}

	if len(texts) == 0 {
		return nil, errNoInput
	}
	return texts, nil
}

func readLines(cmd *cobra.Command, path string) ([]string, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return lines, nil
}

// runClassify loads the bundle, classifies texts and writes the requested
// outputs. In keep-going mode failed statements are reported on stderr and
// the command fails after all output is written.
func runClassify(cmd *cobra.Command, env *appEnv, texts []string, out outputOpts) error {
	loaded, err := env.loadBundle()
	if err != nil {
		return err
	}

	c := inference.New(loaded.Bundle, inference.Options{
		Logger:  env.logger,
		Strict:  env.cfg.Classify.Strict,
		Workers: env.cfg.Classify.Workers,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		results  []inference.Result
		runItems []store.RunResult
		failed   int
	)
	if env.cfg.Classify.KeepGoing {
		for i, o := range c.ClassifyEach(ctx, texts) {
			if o.Err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "statement %d: %v\n", i+1, o.Err)
				runItems = append(runItems, store.RunResult{Text: o.Result.Text, Error: o.Err.Error()})
				continue
			}
			results = append(results, o.Result)
			runItems = append(runItems, toRunResult(o.Result))
		}
	} else {
		results, err = c.ClassifyBatch(ctx, texts)
		if err != nil {
			return err
		}
		for _, r := range results {
			runItems = append(runItems, toRunResult(r))
		}
	}

	if err := writeResults(cmd, env, results, out); err != nil {
		return err
	}

	if out.save {
		if err := saveRun(cmd, env, loaded, runItems); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d statements failed", failed, len(texts))
	}
	return nil
}

func writeResults(cmd *cobra.Command, env *appEnv, results []inference.Result, out outputOpts) error {
	w := cmd.OutOrStdout()
	switch out.format {
	case formatCSV:
		if err := report.WriteCSV(w, results); err != nil {
			return err
		}
	case formatJSON:
		if err := report.WriteJSON(w, results); err != nil {
			return err
		}
	default:
		width := termWidth(w)
		sw := styled(w)
		fmt.Fprintln(sw, report.RenderTable(results, width))
		if out.chart {
			fmt.Fprintln(sw)
			fmt.Fprintln(sw, report.RenderChart(report.Frequencies(results), min(env.cfg.Report.ChartWidth, width)))
		}
	}

	if out.csvPath != "" {
		if err := report.WriteCSVFile(out.csvPath, results); err != nil {
			return fmt.Errorf("write results csv: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Results saved to %s\n", out.csvPath)
	}
	return nil
}

func saveRun(cmd *cobra.Command, env *appEnv, loaded *artifact.Loaded, items []store.RunResult) error {
	s, err := env.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	run := &store.Run{
		BundleName:   loaded.Info.Name,
		BundleSource: loaded.Info.Source,
		Capability:   string(loaded.Info.Capability),
		Results:      items,
	}
	if err := s.RunRepo().Save(cmd.Context(), run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	env.logger.Info("run saved", zap.String("id", run.ID), zap.Int("items", len(items)))
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %s\n", run.ID)
	return nil
}

func toRunResult(r inference.Result) store.RunResult {
	return store.RunResult{Text: r.Text, Label: r.Label, Confidence: r.Confidence}
}
