package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/lifei6671/catalog"
	"github.com/lifei6671/catalog/cmd/catalint/checker"
	"github.com/lifei6671/catalog/metrics"
	"github.com/lifei6671/catalog/watcher"
)

var errIssues = errors.New("issues found")

const usage = `usage: catalint <command> [flags]

commands:
  check    check every locale in a directory against the default locale
  diff     compare the keys of two catalog files
  render   resolve and render one message
  fmt      rewrite a catalog file in canonical form
  watch    reload a directory on change, optionally serving metrics

Flags default from CATALINT_* environment variables, read from .env if present.`

func main() {
	// .env is optional: the variables may come from the environment.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "check":
		err = runCheck(args)
	case "diff":
		err = runDiff(args)
	case "render":
		err = runRender(args)
	case "fmt":
		err = runFmt(args)
	case "watch":
		err = runWatch(args)
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		if !errors.Is(err, errIssues) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

type common struct {
	dir      string
	config   string
	locale   string
	logLevel string
}

func (c *common) bind(fs *flag.FlagSet) {
	fs.StringVar(&c.dir, "d", envOr("CATALINT_DIR", "./i18n"), "directory of catalog files")
	fs.StringVar(&c.config, "c", os.Getenv("CATALINT_CONFIG"), "config file (.yaml, .yml or .toml)")
	fs.StringVar(&c.locale, "default", os.Getenv("CATALINT_DEFAULT_LOCALE"), "default locale, overrides the config file")
	fs.StringVar(&c.logLevel, "log-level", envOr("CATALINT_LOG_LEVEL", "warn"), "log level")
}

// setup returns the logger, the catalog options and the default locale.
func (c *common) setup() (zerolog.Logger, []catalog.Option, string, error) {
	logger := newLogger(c.logLevel)

	var cfg catalog.Config
	if c.config != "" {
		var err error
		if cfg, err = catalog.LoadConfig(c.config); err != nil {
			return logger, nil, "", err
		}
	}
	if c.locale != "" {
		cfg.DefaultLocale = c.locale
	}
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = catalog.DefaultLocale
	}

	opts := append(cfg.Options(), catalog.WithLogger(logger))
	return logger, opts, cfg.DefaultLocale, nil
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

///////////////////////////////////////////////////////////////////////////////
// check
///////////////////////////////////////////////////////////////////////////////

func runCheck(args []string) error {
	var c common
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	c.bind(fs)
	failOnError := fs.Bool("fail", false, "exit with code 1 if any issue found")
	_ = fs.Parse(args)

	_, opts, def, err := c.setup()
	if err != nil {
		return err
	}

	res, err := checker.CheckLocales(os.DirFS(c.dir), def, opts...)
	if err != nil {
		return err
	}

	printResult(res)

	if *failOnError && res.HasIssues() {
		return errIssues
	}
	return nil
}

func printResult(res *checker.Result) {
	fmt.Println("=== CATALOG CHECK RESULT ===")
	fmt.Println("Languages:", res.Languages)
	fmt.Println("Default:", res.DefaultLocale)
	fmt.Println("Total keys:", len(res.AllKeys))

	for _, lang := range res.Languages {
		fmt.Printf("\n--- [%s] ---\n", lang)

		printList("Missing keys", res.MissingKeys[lang])
		printList("Redundant keys", res.RedundantKeys[lang])

		if ps := res.Placeholders[lang]; len(ps) > 0 {
			fmt.Println("Placeholder mismatches:")
			for _, p := range ps {
				fmt.Printf("  - %s: missing %v, extra %v\n", p.Key, p.Missing, p.Extra)
			}
		}

		if errs := res.SyntaxErrors[lang]; len(errs) > 0 {
			keys := make([]string, 0, len(errs))
			for k := range errs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Println("Syntax errors:")
			for _, k := range keys {
				fmt.Printf("  - %s: %v\n", k, errs[k])
			}
		} else {
			fmt.Println("Syntax errors: None")
		}

		if ws := res.Warnings[lang]; len(ws) > 0 {
			fmt.Println("Warnings:")
			for _, w := range ws {
				fmt.Println("  -", w)
			}
		}
	}
}

func printList(title string, arr []string) {
	if len(arr) == 0 {
		fmt.Printf("%s: None\n", title)
		return
	}
	fmt.Printf("%s:\n", title)
	for _, k := range arr {
		fmt.Println("  -", k)
	}
}

///////////////////////////////////////////////////////////////////////////////
// diff
///////////////////////////////////////////////////////////////////////////////

func runDiff(args []string) error {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	locale := fs.String("l", catalog.DefaultLocale, "locale of both files")
	failOnDiff := fs.Bool("fail", false, "exit with code 1 if the files differ")
	_ = fs.Parse(args)

	if fs.NArg() != 2 {
		return errors.New("diff needs exactly two files: <old> <new>")
	}

	base, err := loadFile(*locale, fs.Arg(0))
	if err != nil {
		return err
	}
	other, err := loadFile(*locale, fs.Arg(1))
	if err != nil {
		return err
	}

	d := catalog.Diff(base, other)
	printList("Removed keys", d.Missing)
	printList("Added keys", d.Extra)
	for _, p := range d.Placeholders {
		fmt.Printf("Placeholders of %s: removed %v, added %v\n", p.Key, p.Missing, p.Extra)
	}

	if *failOnDiff && !d.Empty() {
		return errIssues
	}
	return nil
}

func loadFile(locale, path string) (*catalog.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := catalog.LoadReader(locale, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

///////////////////////////////////////////////////////////////////////////////
// render
///////////////////////////////////////////////////////////////////////////////

func runRender(args []string) error {
	var c common
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	c.bind(fs)
	locale := fs.String("l", "", "locale to render in (default: the default locale)")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("render needs a key, optionally followed by name=value pairs")
	}

	_, opts, def, err := c.setup()
	if err != nil {
		return err
	}
	reg, err := catalog.NewRegistry(opts...)
	if err != nil {
		return err
	}
	if err := reg.LoadDir(os.DirFS(c.dir)); err != nil {
		return err
	}

	vars := make(map[string]string)
	for _, kv := range fs.Args()[1:] {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("variable %q is not name=value", kv)
		}
		vars[name] = value
	}

	loc := *locale
	if loc == "" {
		loc = def
	}
	out, err := reg.Render(loc, fs.Arg(0), vars)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// fmt
///////////////////////////////////////////////////////////////////////////////

func runFmt(args []string) error {
	fs := flag.NewFlagSet("fmt", flag.ExitOnError)
	write := fs.Bool("w", false, "write result to the file instead of stdout")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("fmt needs exactly one file")
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	entries, errs := catalog.Parse(string(data))
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, e)
	}

	var buf bytes.Buffer
	if err := catalog.Format(&buf, entries); err != nil {
		return err
	}
	if !*write {
		_, err = os.Stdout.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

///////////////////////////////////////////////////////////////////////////////
// watch
///////////////////////////////////////////////////////////////////////////////

func runWatch(args []string) error {
	var c common
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	c.bind(fs)
	addr := fs.String("metrics", os.Getenv("CATALINT_METRICS_ADDR"), "serve Prometheus metrics on this address, e.g. :9090")
	debounce := fs.Duration("debounce", 200*time.Millisecond, "quiet period before a reload")
	_ = fs.Parse(args)

	logger, opts, _, err := c.setup()
	if err != nil {
		return err
	}

	collector := metrics.New()
	reg, err := catalog.NewRegistry(append(opts, catalog.WithObserver(collector))...)
	if err != nil {
		return err
	}
	if err := reg.LoadDir(os.DirFS(c.dir)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *addr != "" {
		h, err := metrics.Handler(collector)
		if err != nil {
			return err
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", h)
		srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			logger.Info().Str("addr", *addr).Msg("Serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Metrics server failed")
				stop()
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	w := watcher.New(reg, c.dir, watcher.WithLogger(logger), watcher.WithDebounce(*debounce))
	return w.Run(ctx)
}
