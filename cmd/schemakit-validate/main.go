// Command schemakit-validate checks JSON documents against a YAML schema.
//
// Usage:
//
//	schemakit-validate -schema user.yaml doc1.json doc2.json
//	cat doc.json | schemakit-validate -schema user.yaml
//
// Each document is validated independently; the exit code is non-zero when
// any document fails. With -dump, valid documents are re-serialized to
// stdout in canonical form.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/schemakit"
	"github.com/dmitrymomot/schemakit/schemafile"
)

type appConfig struct {
	LogLevel  slog.Level `env:"SCHEMAKIT_LOG_LEVEL" envDefault:"info"`
	LogFormat string     `env:"SCHEMAKIT_LOG_FORMAT" envDefault:"text"`
}

func main() {
	schemaPath := flag.String("schema", "", "path to the YAML schema file (required)")
	dump := flag.Bool("dump", false, "print valid documents in canonical JSON form")
	byAlias := flag.Bool("by-alias", false, "use serialization aliases when dumping")
	flag.Parse()

	// .env is optional; environment variables win over file values.
	_ = godotenv.Load()

	var cfg appConfig
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "schemakit-validate: %v\n", err)
		os.Exit(2)
	}

	log := newLogger(cfg)

	if *schemaPath == "" {
		fmt.Fprintln(os.Stderr, "schemakit-validate: -schema is required")
		flag.Usage()
		os.Exit(2)
	}

	plan, err := schemafile.LoadFile(*schemaPath)
	if err != nil {
		log.Error("failed to load schema", "path", *schemaPath, "error", err)
		os.Exit(2)
	}
	log.Debug("schema compiled", "record", plan.Name(), "tier", plan.Tier().String(), "fields", len(plan.Fields()))

	failed := 0
	if flag.NArg() == 0 {
		if !validateStream(log, plan, "stdin", os.Stdin, *dump, *byAlias) {
			failed++
		}
	}
	for _, path := range flag.Args() {
		if !validateFile(log, plan, path, *dump, *byAlias) {
			failed++
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func newLogger(cfg appConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func validateFile(log *slog.Logger, plan *schemakit.Plan, path string, dump, byAlias bool) bool {
	f, err := os.Open(path)
	if err != nil {
		log.Error("cannot open document", "path", path, "error", err)
		return false
	}
	defer f.Close()
	return validateStream(log, plan, path, f, dump, byAlias)
}

func validateStream(log *slog.Logger, plan *schemakit.Plan, name string, r io.Reader, dump, byAlias bool) bool {
	data, err := io.ReadAll(r)
	if err != nil {
		log.Error("cannot read document", "source", name, "error", err)
		return false
	}

	inst, err := plan.NewJSON(data)
	if err != nil {
		if verrs := schemakit.ExtractValidationErrors(err); verrs != nil {
			for _, field := range verrs.Fields() {
				for _, msg := range verrs.Get(field) {
					log.Warn("validation failed", "source", name, "field", field, "message", msg)
				}
			}
		} else {
			log.Error("cannot parse document", "source", name, "error", err)
		}
		return false
	}

	log.Info("document valid", "source", name, "record", plan.Name())
	if dump {
		opts := []schemakit.DumpOption{}
		if byAlias {
			opts = append(opts, schemakit.ByAlias())
		}
		out, err := inst.DumpJSON(opts...)
		if err != nil {
			log.Error("cannot serialize document", "source", name, "error", err)
			return false
		}
		fmt.Println(string(out))
	}
	return true
}
