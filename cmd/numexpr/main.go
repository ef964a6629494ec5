package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/zephyrtronium/numexpr"
)

func main() {
	log.SetFlags(0)
	var (
		confname, inname, kind, level string
		given                         [][2]string
		nl, echo, asJSON              bool
		prec                          uint
		limit                         int
	)
	addgiven := func(s string) error {
		d := strings.SplitN(s, "=", 2)
		if len(d) != 2 {
			return fmt.Errorf(`variable definitions must be "name=value", not %q`, s)
		}
		given = append(given, [2]string{strings.TrimSpace(d[0]), strings.TrimSpace(d[1])})
		return nil
	}
	flag.StringVar(&confname, "config", os.Getenv("NUMEXPR_CONFIG"), "YAML or TOML config file (default $NUMEXPR_CONFIG)")
	flag.StringVar(&inname, "in", "", "input file (default stdin if no args given)")
	flag.Func("given", "name=value variable definition (any number of times)", addgiven)
	flag.UintVar(&prec, "p", numexpr.DefaultDigits, "significant digits of decimal numbers")
	flag.StringVar(&kind, "number", "float", "kind of number literals: float, decimal, or rational")
	flag.IntVar(&limit, "limit", numexpr.DefaultRecursionLimit, "maximum depth of user function calls")
	flag.BoolVar(&nl, "n", false, "evaluate separate input lines as separate programs")
	flag.BoolVar(&echo, "echo", false, "print parse trees")
	flag.BoolVar(&asJSON, "json", false, "print results as JSON")
	flag.StringVar(&level, "log-level", "", "log level: debug, info, warn, or error")
	flag.Parse()

	conf := defaultConfig()
	if confname != "" {
		var err error
		conf, err = readConfig(confname)
		if err != nil {
			log.Fatalf("reading config %s: %v", confname, err)
		}
	}
	// Flags given explicitly override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			conf.Precision = prec
		case "number":
			conf.Number = kind
		case "limit":
			conf.RecursionLimit = limit
		case "log-level":
			conf.Logging.LogLevel = level
		}
	})
	initLogger(conf.Logging)

	k, err := numexpr.ParseKind(conf.Number)
	if err != nil {
		log.Fatal(err)
	}
	ctx := numexpr.NewContext(
		numexpr.Prec(conf.Precision),
		numexpr.NumberKind(k),
		numexpr.RecursionLimit(conf.RecursionLimit),
	)
	for nm, vl := range conf.Given {
		given = append([][2]string{{nm, vl}}, given...)
	}
	for _, d := range given {
		r, err := ctx.EvalString(d[1])
		if err != nil {
			log.Fatalf("setting %s: %v", d[0], err)
		}
		ctx.Set(d[0], r)
		slog.Debug("set variable", slog.String("name", d[0]), slog.String("value", r.String()))
	}

	var progs []string
	if in, err := infile(inname, flag.NArg() == 0); err != nil {
		log.Fatal(err)
	} else if in != nil {
		src, err := io.ReadAll(in)
		in.Close()
		if err != nil {
			log.Fatal(err)
		}
		progs = append(progs, split(string(src), nl)...)
	}
	for _, arg := range flag.Args() {
		progs = append(progs, split(arg, nl)...)
	}

	failed := false
	for _, src := range progs {
		if !run(ctx, src, echo, asJSON) {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

// run evaluates one program and prints its result. It reports whether the
// program succeeded.
func run(ctx *numexpr.Context, src string, echo, asJSON bool) bool {
	e, err := numexpr.ParseString(src)
	if err != nil {
		slog.Error("parse failed", slog.String("src", src), slog.String("error", err.Error()))
		fmt.Println("error:", err)
		return false
	}
	if echo {
		fmt.Printf("%v : ", e)
	}
	r, err := ctx.Eval(e)
	if err != nil {
		slog.Error("evaluation failed", slog.String("src", src), slog.String("error", err.Error()))
		fmt.Println("error:", err)
		return false
	}
	if asJSON {
		b, err := json.Marshal(r)
		if err != nil {
			fmt.Println("error:", err)
			return false
		}
		fmt.Println(string(b))
		return true
	}
	fmt.Println(r)
	return true
}

// split divides input into programs: one per non-blank line if lines is
// true, or the entire input otherwise.
func split(src string, lines bool) []string {
	if !lines {
		if strings.TrimSpace(src) == "" {
			return nil
		}
		return []string{src}
	}
	var r []string
	for _, l := range strings.Split(src, "\n") {
		if strings.TrimSpace(l) != "" {
			r = append(r, l)
		}
	}
	return r
}

func infile(inname string, std bool) (io.ReadCloser, error) {
	switch {
	case inname != "" && inname != "-":
		return os.Open(inname)
	case inname == "-", std:
		return io.NopCloser(os.Stdin), nil
	}
	return nil, nil
}
