// Command visemectl converts aligner output into viseme timelines without running the server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"lipsync/cfg"
	"lipsync/pkg/viseme"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:          "visemectl",
		Short:        "Phoneme to viseme timeline tools",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "cfg-path", "", "config file with language settings (bundled vi and en when empty)")

	loadLanguages := func(cmd *cobra.Command) (*viseme.Languages, error) {
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))

		langs := []cfg.LanguageConfig{{Code: "vi", Required: true}, {Code: "en", Required: true}}
		if cfgPath != "" {
			c, err := cfg.Load(cfgPath)
			if err != nil {
				return nil, err
			}
			langs = c.Languages
		}

		return cfg.BuildLanguages(langs, logger)
	}

	var (
		lang   string
		indent bool
	)

	convertCmd := &cobra.Command{
		Use:   "convert [alignment.json]",
		Short: "Convert an aligner JSON document into a viseme timeline",
		Long:  "Reads the aligner document from the given file or stdin (\"-\" or no argument) and prints the timeline as JSON.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			langs, err := loadLanguages(cmd)
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open alignment: %w", err)
				}
				defer f.Close()
				in = f
			}

			raw, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("failed to read alignment: %w", err)
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))

			tl, err := viseme.NewBuilder(langs, logger).Build(raw, lang)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if indent {
				enc.SetIndent("", "  ")
			}

			return enc.Encode(tl)
		},
	}
	convertCmd.Flags().StringVarP(&lang, "language", "l", "vi", "language of the aligned speech")
	convertCmd.Flags().BoolVar(&indent, "indent", false, "indent the output")

	languagesCmd := &cobra.Command{
		Use:   "languages",
		Short: "List configured languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			langs, err := loadLanguages(cmd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tPHONEMES\tMARKERS")

			for _, code := range langs.Codes() {
				p, err := langs.Get(code)
				if err != nil {
					return err
				}

				markers := string(p.Normalizer.Markers())
				if markers == "" {
					markers = "-"
				}

				fmt.Fprintf(w, "%s\t%d\t%s\n", p.Language, p.Dictionary.Len(), markers)
			}

			return w.Flush()
		},
	}

	rootCmd.AddCommand(convertCmd, languagesCmd)

	return rootCmd
}
