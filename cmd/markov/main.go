package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"strings"

	"github.com/otac0n/markov/pkg/markov"
	"github.com/otac0n/markov/pkg/store"
)

const usage = `usage: markov [-config path] <command> [flags]

commands:
  train     train a model from a text file and save it
  generate  generate sequences from a saved model
  models    list saved models
  stats     show aggregate counts for a model
  export    write a model to a JSON file
  import    read a model from a JSON file
  delete    remove a saved model
`

func main() {
	configPath := flag.String("config", "markov.json", "path to the JSON config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	config, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(config.LogLevel)

	db, err := openDatabase(config.DatabasePath)
	if err != nil {
		logger.Error("error opening database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		logger.Error("error enabling WAL", slog.Any("error", err))
		os.Exit(1)
	}

	if err = store.SetupSchema(db); err != nil {
		logger.Error("error setting up schema", slog.Any("error", err))
		os.Exit(1)
	}

	st, err := store.New[string](db, store.StringCodec{})
	if err != nil {
		logger.Error("error creating store", slog.Any("error", err))
		os.Exit(1)
	}
	defer st.Close()
	st.SetLogger(logger)

	ctx := context.Background()
	switch cmd, args := flag.Arg(0), flag.Args()[1:]; cmd {
	case "train":
		err = runTrain(ctx, config, st, args)
	case "generate":
		err = runGenerate(ctx, config, st, args)
	case "models":
		err = runModels(ctx, st)
	case "stats":
		err = runStats(ctx, st, args)
	case "export":
		err = runExport(ctx, st, args)
	case "import":
		err = runImport(ctx, st, args)
	case "delete":
		err = runDelete(ctx, st, args)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", slog.String("command", flag.Arg(0)), slog.Any("error", err))
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// readSequences splits a training file into symbol sequences, one per line.
// In "words" mode the symbols are whitespace-separated fields; in "runes"
// mode every rune of the line is its own symbol.
func readSequences(path, mode string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var seqs [][]string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		var seq []string
		switch mode {
		case "runes":
			for _, r := range line {
				seq = append(seq, string(r))
			}
		default:
			seq = strings.Fields(line)
		}
		if len(seq) > 0 {
			seqs = append(seqs, seq)
		}
	}
	return seqs, scanner.Err()
}

func runTrain(ctx context.Context, config *Config, st *store.Store[string], args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	model := fs.String("model", "", "name to save the model under (required)")
	kind := fs.String("kind", store.KindBackoff, "model kind: backoff or chain")
	order := fs.Int("order", config.MaxOrder, "chain order (maximum order for backoff models)")
	desired := fs.Int("desired", config.DesiredNextStates, "backoff candidate threshold")
	mode := fs.String("mode", config.SplitMode, "input splitting: words or runes")
	_ = fs.Parse(args)

	if *model == "" || fs.NArg() != 1 {
		return fmt.Errorf("train requires -model and exactly one input file")
	}

	seqs, err := readSequences(fs.Arg(0), *mode)
	if err != nil {
		return fmt.Errorf("failed to read training data: %w", err)
	}

	switch *kind {
	case store.KindBackoff:
		b, err := markov.NewBackoffChain[string](*order, *desired)
		if err != nil {
			return err
		}
		for _, seq := range seqs {
			b.Add(seq)
		}
		return st.SaveBackoffChain(ctx, *model, b)
	case store.KindChain:
		c, err := markov.NewChain[string](*order)
		if err != nil {
			return err
		}
		for _, seq := range seqs {
			c.Add(seq)
		}
		return st.SaveChain(ctx, *model, c)
	default:
		return fmt.Errorf("unknown model kind '%s'", *kind)
	}
}

func runGenerate(ctx context.Context, config *Config, st *store.Store[string], args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	model := fs.String("model", "", "model to generate from (required)")
	count := fs.Int("count", 1, "number of sequences to generate")
	seed := fs.Uint64("seed", 0, "PRNG seed; 0 draws a fresh one")
	maxLen := fs.Int("max", config.MaxLength, "maximum symbols per sequence")
	mode := fs.String("mode", config.SplitMode, "output joining: words or runes")
	_ = fs.Parse(args)

	if *model == "" {
		return fmt.Errorf("generate requires -model")
	}

	info, err := st.Model(ctx, *model)
	if err != nil {
		return err
	}

	var gen interface {
		Generate(rnd markov.RandomSource) iter.Seq[string]
	}
	switch info.Kind {
	case store.KindBackoff:
		if gen, err = st.LoadBackoffChain(ctx, *model); err != nil {
			return err
		}
	default:
		if gen, err = st.LoadChain(ctx, *model); err != nil {
			return err
		}
	}

	var rnd markov.RandomSource
	if *seed != 0 {
		rnd = markov.NewSeededRand(*seed)
	} else {
		rnd = markov.NewRand()
	}

	separator := " "
	if *mode == "runes" {
		separator = ""
	}

	for i := 0; i < *count; i++ {
		var symbols []string
		for sym := range gen.Generate(rnd) {
			symbols = append(symbols, sym)
			if len(symbols) >= *maxLen {
				break
			}
		}
		fmt.Println(strings.Join(symbols, separator))
	}
	return nil
}

func runModels(ctx context.Context, st *store.Store[string]) error {
	models, err := st.Models(ctx)
	if err != nil {
		return err
	}
	for _, info := range models {
		if info.Kind == store.KindBackoff {
			fmt.Printf("%s\t%s\torder=%d\tdesired=%d\n", info.Name, info.Kind, info.Order, info.DesiredNextStates)
		} else {
			fmt.Printf("%s\t%s\torder=%d\n", info.Name, info.Kind, info.Order)
		}
	}
	return nil
}

func runStats(ctx context.Context, st *store.Store[string], args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	model := fs.String("model", "", "model to inspect (required)")
	_ = fs.Parse(args)

	if *model == "" {
		return fmt.Errorf("stats requires -model")
	}
	stats, err := st.Stats(ctx, *model)
	if err != nil {
		return err
	}
	fmt.Printf("transitions=%d total_weight=%d terminals=%d\n",
		stats.Transitions, stats.TotalWeight, stats.Terminals)
	return nil
}

func runExport(ctx context.Context, st *store.Store[string], args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	model := fs.String("model", "", "model to export (required)")
	out := fs.String("out", "", "output file; stdout when empty")
	_ = fs.Parse(args)

	if *model == "" {
		return fmt.Errorf("export requires -model")
	}
	if *out == "" {
		return st.ExportModel(ctx, *model, os.Stdout)
	}
	return st.ExportFile(ctx, *model, *out)
}

func runImport(ctx context.Context, st *store.Store[string], args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	in := fs.String("in", "", "input file; stdin when empty")
	_ = fs.Parse(args)

	if *in == "" {
		return st.ImportModel(ctx, os.Stdin)
	}
	f, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return st.ImportModel(ctx, f)
}

func runDelete(ctx context.Context, st *store.Store[string], args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	model := fs.String("model", "", "model to delete (required)")
	_ = fs.Parse(args)

	if *model == "" {
		return fmt.Errorf("delete requires -model")
	}
	return st.DeleteModel(ctx, *model)
}
