package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pitabwire/util"

	"github.com/pitabwire/translationtools"
	"github.com/pitabwire/translationtools/config"
	"github.com/pitabwire/translationtools/slugify"
)

const minArgsCommand = 2

func main() {
	if len(os.Args) < minArgsCommand {
		usage(os.Stderr)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := run(ctx, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		util.Log(ctx).WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string, out io.Writer) error {
	switch command {
	case "slugify":
		return cmdSlugify(args, out)
	case "fallbacks":
		return cmdFallbacks(ctx, args, out)
	case "help", "-h", "--help":
		usage(out)
		return nil
	default:
		usage(out)
		return fmt.Errorf("unknown command: %q", command)
	}
}

func usage(out io.Writer) {
	_, _ = fmt.Fprintln(out, "translationtools <command> [args]")
	_, _ = fmt.Fprintln(out, "")
	_, _ = fmt.Fprintln(out, "Commands:")
	_, _ = fmt.Fprintln(out, "  slugify <text> [--max N] [--unicode]")
	_, _ = fmt.Fprintln(out, "  fallbacks <code> [--site N] [--settings FILE]")
}

// parseInterspersed lets flags follow the positional arguments.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

func cmdSlugify(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("slugify", flag.ContinueOnError)
	maxLength := fs.Int("max", 0, "truncate the slug to N characters")
	unicode := fs.Bool("unicode", false, "keep non ASCII letters")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 1 {
		return errors.New("text is required")
	}

	text := strings.Join(positional, " ")
	slug := slugify.Slugify(text)
	if *unicode {
		slug = slugify.SlugifyUnicode(text)
	}
	if *maxLength > 0 {
		slug = slugify.Truncate(slug, *maxLength, "-")
	}

	_, err = fmt.Fprintln(out, slug)
	return err
}

func cmdFallbacks(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := config.FromEnv[config.ConfigurationDefault]()
	if err != nil {
		return err
	}
	cfg.DatabasePrimaryURL = nil
	cfg.DatabaseReplicaURL = nil

	fs := flag.NewFlagSet("fallbacks", flag.ContinueOnError)
	fs.IntVar(&cfg.SiteID, "site", cfg.SiteID, "site whose fallbacks are listed")
	fs.StringVar(&cfg.LanguageSettingsFile, "settings", cfg.LanguageSettingsFile, "TOML or YAML language settings")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 1 {
		return errors.New("language code is required")
	}

	_, tk, err := translationtools.NewToolkit(ctx, "translationtools",
		translationtools.WithConfig(&cfg),
		translationtools.WithInMemoryCache(config.DefaultCacheMaxAge),
	)
	if err != nil {
		return err
	}
	defer tk.Stop(ctx)

	reg := tk.Languages()
	code := positional[0]
	fallbacks := reg.FallbackLanguages(code, cfg.SiteID)

	_, err = fmt.Fprintf(out, "%s (%s): %s\n", code, reg.Name(code), strings.Join(fallbacks, " "))
	return err
}
