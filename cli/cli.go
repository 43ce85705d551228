package cli

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"
	"github.com/lab47/cleo"
	"github.com/mitchellh/cli"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	pyentropy "github.com/robince/pyentropy-svn"
)

type CLI struct {
	log hclog.Logger

	lc *cli.CLI
}

type Global struct {
	Config string `short:"c" long:"config" description:"path to configuration"`
	Debug  bool   `short:"D" long:"debug" description:"enable debug mode"`
}

func NewCLI(log hclog.Logger, args []string) (*CLI, error) {
	c := &CLI{
		log: log,
		lc:  cli.NewCLI("pyentropy", "alpha"),
	}

	c.lc.Args = args

	err := c.setupCommands()
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (c *CLI) Run() (int, error) {
	return c.lc.Run()
}

func (c *CLI) setupCommands() error {
	c.lc.Commands = map[string]cli.CommandFactory{
		"estimate": func() (cli.Command, error) {
			return cleo.Infer("estimate", "estimate entropy of a distribution", c.estimate), nil
		},
		"history": func() (cli.Command, error) {
			return cleo.Infer("history", "list recorded estimates", c.history), nil
		},
		"bench": func() (cli.Command, error) {
			return cleo.Infer("bench", "run repeated estimates while serving metrics", c.bench), nil
		},
	}

	return nil
}

func (c *CLI) newCalculator(cfgPath string, extra ...pyentropy.Option) (*pyentropy.Calculator, error) {
	var options []pyentropy.Option

	if cfgPath != "" {
		cfg, err := pyentropy.LoadConfig(cfgPath)
		if err != nil {
			return nil, errors.Wrapf(err, "loading configuration")
		}

		options = append(options, cfg.Options()...)
	}

	options = append(options, extra...)

	return pyentropy.NewCalculator(c.log, options...)
}

// readProbabilities parses whitespace separated floats, one
// distribution per file.
func readProbabilities(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	var out []float64

	sc := bufio.NewScanner(f)
	sc.Split(bufio.ScanWords)

	for sc.Scan() {
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %q", sc.Text())
		}

		out = append(out, v)
	}

	return out, sc.Err()
}

func (c *CLI) estimate(ctx context.Context, opts struct {
	Global
	File          string  `short:"f" long:"file" description:"file of whitespace separated probabilities" required:"true"`
	Trials        int     `short:"n" long:"trials" description:"number of observed trials" required:"true"`
	Variance      bool    `short:"V" long:"variance" description:"also estimate the posterior variance"`
	Verbose       bool    `short:"v" long:"verbose" description:"surface estimator status diagnostics"`
	Precision     float64 `long:"precision" description:"convergence tolerance (default 1e-6)"`
	PossibleWords int     `long:"possible-words" description:"prior bound on alphabet size (-1 for unconstrained)"`
}) error {
	p, err := readProbabilities(opts.File)
	if err != nil {
		return err
	}

	var extra []pyentropy.Option

	extra = append(extra, pyentropy.Verbose(opts.Verbose))

	if opts.Precision != 0 {
		extra = append(extra, pyentropy.WithPrecision(opts.Precision))
	}

	if opts.PossibleWords != 0 {
		extra = append(extra, pyentropy.WithPossibleWords(opts.PossibleWords))
	}

	calc, err := c.newCalculator(opts.Config, extra...)
	if err != nil {
		return err
	}

	defer calc.Close()

	tr := tabwriter.NewWriter(os.Stdout, 2, 2, 1, ' ', 0)
	defer tr.Flush()

	if opts.Variance {
		h, v, err := calc.EntropyVariance(p, opts.Trials, len(p))
		if err != nil {
			fmt.Fprintln(os.Stderr, color.RedString("estimate failed: %s", err))
			os.Exit(1)
		}

		fmt.Fprintf(tr, "ENTROPY (nats)\tVARIANCE\n")
		fmt.Fprintf(tr, "%.6f\t%.6g\n", h, v)

		return nil
	}

	h, err := calc.Entropy(p, opts.Trials, len(p))
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("estimate failed: %s", err))
		os.Exit(1)
	}

	fmt.Fprintf(tr, "ENTROPY (nats)\n")
	fmt.Fprintf(tr, "%.6f\n", h)

	return nil
}

func (c *CLI) history(ctx context.Context, opts struct {
	Global
	Path string `short:"p" long:"path" description:"history database" required:"true"`
}) error {
	hs, err := pyentropy.OpenHistory(c.log, opts.Path)
	if err != nil {
		return err
	}

	defer hs.Close()

	recs, err := hs.List()
	if err != nil {
		return err
	}

	tr := tabwriter.NewWriter(os.Stdout, 2, 2, 1, ' ', 0)
	defer tr.Flush()

	fmt.Fprintf(tr, "ID\tWHEN\tDIM\tTRIALS\tENTROPY\tVARIANCE\tDIAG\n")

	for _, rec := range recs {
		variance := "-"
		if rec.HasVariance {
			variance = fmt.Sprintf("%.6g", rec.Variance)
		}

		diag := fmt.Sprintf("%dw/%de", rec.Warnings, rec.Errors)
		if rec.Errors > 0 {
			diag = color.RedString(diag)
		}

		fmt.Fprintf(tr, "%s\t%s\t%d\t%d\t%.6f\t%s\t%s\n",
			rec.Id, rec.When.Format("2006-01-02 15:04:05"), rec.Dim, rec.Trials,
			rec.Entropy, variance, diag)
	}

	return nil
}

func (c *CLI) bench(ctx context.Context, opts struct {
	Global
	File    string `short:"f" long:"file" description:"file of whitespace separated probabilities" required:"true"`
	Trials  int    `short:"n" long:"trials" description:"number of observed trials" required:"true"`
	Count   int    `short:"r" long:"count" description:"number of estimates to run" default:"1000"`
	Workers int    `short:"w" long:"workers" description:"concurrent workers" default:"4"`
	Metrics string `long:"metrics" description:"address to serve metrics on" default:":2121"`
}) error {
	p, err := readProbabilities(opts.File)
	if err != nil {
		return err
	}

	// caching would defeat the point here
	calc, err := c.newCalculator(opts.Config, pyentropy.WithCacheSize(0))
	if err != nil {
		return err
	}

	defer calc.Close()

	if opts.Metrics != "" {
		http.Handle("/metrics", promhttp.Handler())
		go http.ListenAndServe(opts.Metrics, nil)

		c.log.Info("serving metrics", "addr", opts.Metrics)
	}

	var (
		wg   sync.WaitGroup
		errs = make([]error, opts.Workers)
	)

	per := opts.Count / opts.Workers

	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)

		go func(w int) {
			defer wg.Done()

			for i := 0; i < per; i++ {
				if _, err := calc.Entropy(p, opts.Trials, len(p)); err != nil {
					errs[w] = err
					return
				}
			}
		}(w)
	}

	wg.Wait()

	var failed []string
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err.Error())
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("bench workers failed: %s", strings.Join(failed, "; "))
	}

	fmt.Printf("ran %d estimates over %d workers\n", per*opts.Workers, opts.Workers)

	return nil
}
