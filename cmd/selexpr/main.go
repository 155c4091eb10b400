package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/glesirok/selexpr/pkg/index"
	"github.com/glesirok/selexpr/pkg/processor"
	"github.com/spf13/cobra"
)

var (
	datasetFile   string
	selections    []string
	queries       string
	output        string
	reduction     string
	numericLabels int
	caseSensitive bool
	showLabels    bool
	listSources   bool
	dryRun        bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "selexpr",
		Short: "Evaluate selection expressions against labelled arrays",
		Long: `selexpr reads a dataset file and evaluates selection strings such as
"Sr(p) Ti(d)", "1:3", "O(s) - Ti(s)" or "kpoints_opt(Sr)" against its arrays.
Labels are matched case-insensitively; sources in the dataset can be selected
by name like any other label.`,
		Args:          cobra.ArbitraryArgs,
		RunE:          run,
		SilenceErrors: true,
	}

	rootCmd.Flags().StringVarP(&datasetFile, "dataset", "d", "", "Dataset file (required)")
	rootCmd.Flags().StringArrayVarP(&selections, "select", "s", nil, "Selection to evaluate, may be repeated")
	rootCmd.Flags().StringVarP(&queries, "queries", "q", "", "Query file or directory of query files")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Output file/directory for query results")
	rootCmd.Flags().StringVar(&reduction, "reduction", "", "Reduction over selected indices: sum, average or max (default from dataset)")
	rootCmd.Flags().IntVar(&numericLabels, "numeric-labels", -1, "Accept plain integers as indices into this dimension")
	rootCmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "Match labels case-sensitively")
	rootCmd.Flags().BoolVar(&showLabels, "labels", false, "Print the display labels instead of the values")
	rootCmd.Flags().BoolVar(&listSources, "sources", false, "List the sources of the dataset")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Dry-run mode: print query results without writing files")

	rootCmd.MarkFlagRequired("dataset")

	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	opts, err := selectorOptions()
	if err != nil {
		return err
	}

	proc, err := processor.NewProcessor(datasetFile, opts...)
	if err != nil {
		return fmt.Errorf("create processor: %w", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if listSources {
		return printYAML(proc.Selections())
	}

	if queries != "" {
		return processQueries(ctx, proc)
	}

	// 位置参数也作为选择
	texts := append(append([]string(nil), selections...), args...)
	if len(texts) == 0 {
		texts = []string{""}
	}
	for _, text := range texts {
		if err := evaluate(ctx, proc, text); err != nil {
			return err
		}
	}
	return nil
}

func selectorOptions() ([]index.Option, error) {
	var opts []index.Option
	if reduction != "" {
		r, ok := index.ReductionByName(reduction)
		if !ok {
			return nil, fmt.Errorf("unknown reduction: %s", reduction)
		}
		opts = append(opts, index.WithReduction(r))
	}
	if numericLabels >= 0 {
		opts = append(opts, index.WithNumericLabels(numericLabels))
	}
	if caseSensitive {
		opts = append(opts, index.WithCaseSensitive())
	}
	return opts, nil
}

func evaluate(ctx context.Context, proc *processor.Processor, text string) error {
	var (
		result any
		err    error
	)
	if showLabels {
		result, err = proc.Labels(ctx, text)
	} else {
		result, err = proc.Read(ctx, text)
	}
	if err != nil {
		return fmt.Errorf("select %q: %w", text, err)
	}

	color.Blue("# %s", displayName(text))
	return printYAML(result)
}

func displayName(text string) string {
	if text == "" {
		return "(default)"
	}
	return text
}

func printYAML(v any) error {
	data, err := processor.Encode(v)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func processQueries(ctx context.Context, proc *processor.Processor) error {
	info, err := os.Stat(queries)
	if err != nil {
		return fmt.Errorf("stat queries: %w", err)
	}

	if info.IsDir() {
		if err := proc.ProcessDirectory(ctx, queries, output, dryRun); err != nil {
			return err
		}
		if !dryRun {
			color.Green("✓ All query files processed successfully")
		}
		return nil
	}

	outputFile := output
	if outputFile == "" {
		outputFile = queries + processor.ResultSuffix
	}
	if err := proc.ProcessFile(ctx, queries, outputFile, dryRun); err != nil {
		return err
	}
	if !dryRun {
		color.Green("✓ Processed: %s → %s", queries, outputFile)
	}
	return nil
}
