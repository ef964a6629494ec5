package main

import (
	"log/slog"
	"reflect"
	"regexp"
	"testing"
)

func TestParseConfig(t *testing.T) {
	cases := []struct {
		name string
		data string
		ext  string
		want config
		err  string
	}{
		{
			name: "yaml",
			data: "precision: 30\nnumber: decimal\nrecursion_limit: 64\ngiven:\n  x: \"1/3\"\nlogging:\n  log_level: debug\n",
			ext:  ".yaml",
			want: config{
				Precision:      30,
				Number:         "decimal",
				RecursionLimit: 64,
				Given:          map[string]string{"x": "1/3"},
				Logging:        loggerConfig{LogLevel: "debug"},
			},
		},
		{
			name: "yml-defaults",
			data: "precision: 10\n",
			ext:  ".YML",
			want: config{Precision: 10, Number: "float", Logging: loggerConfig{LogLevel: "warn"}},
		},
		{
			name: "toml",
			data: "number = \"rational\"\n[given]\ny = \"2\"\n[logging]\nlog_to_file = true\nfilename = \"numexpr.log\"\nmax_size = 5\n",
			ext:  ".toml",
			want: config{
				Number: "rational",
				Given:  map[string]string{"y": "2"},
				Logging: loggerConfig{
					LogToFile: true,
					Filename:  "numexpr.log",
					MaxSize:   5,
					LogLevel:  "warn",
				},
			},
		},
		{
			name: "yaml-unknown",
			data: "precison: 30\n",
			ext:  ".yaml",
			err:  `precison`,
		},
		{
			name: "toml-unknown",
			data: "precison = 30\n",
			ext:  ".toml",
			err:  `unknown config keys`,
		},
		{
			name: "ext",
			data: "{}",
			ext:  ".json",
			err:  `unknown config file type ".json"`,
		},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			got, err := parseConfig([]byte(c.data), c.ext)
			if c.err != "" {
				if err == nil {
					t.Fatalf("expected error matching %q, got %+v", c.err, got)
				}
				if !regexp.MustCompile(c.err).MatchString(err.Error()) {
					t.Errorf("wrong error: want match for %q, got %q", c.err, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, c.want) {
				t.Errorf("wrong config:\nwant %+v\ngot  %+v", c.want, got)
			}
		})
	}
}

func TestLogLevelFromString(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := logLevelFromString(in); got != want {
			t.Errorf("logLevelFromString(%q): want %v, got %v", in, want, got)
		}
	}
}

func TestSplit(t *testing.T) {
	cases := []struct {
		src   string
		lines bool
		want  []string
	}{
		{"1+2", false, []string{"1+2"}},
		{"x = 1\nx + 1\n", false, []string{"x = 1\nx + 1\n"}},
		{"x = 1\n\nx + 1\n", true, []string{"x = 1", "x + 1"}},
		{"  \n", false, nil},
		{"  \n", true, nil},
	}
	for _, c := range cases {
		got := split(c.src, c.lines)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("split(%q, %t): want %q, got %q", c.src, c.lines, c.want, got)
		}
	}
}
