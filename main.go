package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfg "github.com/maastricht-university/voicecheck/config"
	"github.com/maastricht-university/voicecheck/orchestrator"
)

var errUsage = errors.New("usage: voicecheck <audio_file>")

type options struct {
	config     string
	logLevel   string
	denoise    bool
	outputs    string
	publishURL string
	dumpConfig bool
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		if err != errUsage {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var o options
	root := &cobra.Command{
		Use:           "voicecheck <audio_file>",
		Short:         "Estimate pitch, energy and speaking rate of a recording and flag deviations",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.dumpConfig {
				return printConfig(o, stdout)
			}
			if len(args) != 1 {
				fmt.Fprintln(stderr, errUsage.Error())
				return errUsage
			}
			return analyze(cmd, o, args[0], stdout, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	f := root.Flags()
	f.StringVar(&o.config, "config", "", "path to a YAML config file")
	f.StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.BoolVar(&o.denoise, "denoise", false, "apply noise-profile reduction before analysis")
	f.StringVar(&o.outputs, "outputs", "", "directory to persist the analysis record in")
	f.StringVar(&o.publishURL, "publish-url", "", "results service base URL")
	f.BoolVar(&o.dumpConfig, "print-config", false, "print the effective configuration as YAML and exit")
	return root
}

func printConfig(o options, stdout io.Writer) error {
	c, err := cfg.Load(o.config)
	if err != nil {
		return err
	}
	return cfg.Dump(stdout, c)
}

func analyze(cmd *cobra.Command, o options, path string, stdout, stderr io.Writer) error {
	var rec orchestrator.Record
	conf, err := cfg.Load(o.config)
	if err != nil {
		rec = orchestrator.Failed(err)
	} else {
		flags := cmd.Flags()
		if flags.Changed("denoise") {
			conf.Denoise.Enabled = o.denoise
		}
		if flags.Changed("outputs") {
			conf.Paths.Outputs = o.outputs
		}
		if flags.Changed("publish-url") {
			conf.Services.Results.URL = o.publishURL
		}
		if o.logLevel != "" {
			conf.Pipeline.LogLvl = o.logLevel
		}
		rec = orchestrator.NewPipeline(conf, newLogger(stderr, conf.Pipeline.LogLvl)).
			Run(context.Background(), path)
	}

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding record failed")
	}
	_, err = fmt.Fprintln(stdout, string(b))
	return err
}

func newLogger(w io.Writer, level string) *logrus.Logger {
	l := logrus.New()
	l.Out = w
	l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		l.WithField("level", level).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}
