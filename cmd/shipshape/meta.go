package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/shipshape/internal/reportmeta"
	"github.com/dshills/shipshape/internal/store"
)

func newMetaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Show or update the report metadata",
	}
	cmd.AddCommand(newMetaShowCmd(a), newMetaSetCmd(a), newMetaTemplatesCmd(a))
	return cmd
}

func newMetaShowCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored metadata",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, _ []string) error {
		if err := a.openStore(); err != nil {
			return err
		}
		m := store.LoadMeta(cmd.Context(), a.stores.Meta, a.reportID(), a.log)
		var data []byte
		var err error
		switch format {
		case "yaml":
			data, err = yaml.Marshal(m)
		case "json":
			data, err = json.MarshalIndent(m, "", "  ")
			data = append(data, '\n')
		default:
			return exitError(exitInput, "unknown format: %s", format)
		}
		if err != nil {
			return exitError(exitOutput, "failed to marshal metadata: %v", err)
		}
		return a.writeOutput("", data)
	})
	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or json")
	return cmd
}

func newMetaSetCmd(a *app) *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "set [file.yaml|file.json]",
		Short: "Layer a metadata document over the stored metadata and save it",
		Long: `Layer a metadata document over the stored metadata and save it.

With --replace the document is layered over the template named by --template
instead. With no file, --replace resets the metadata to that template.`,
		Args: cobra.MaximumNArgs(1),
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !replace {
			return exitError(exitInput, "meta set needs a file or --replace")
		}
		if err := a.openStore(); err != nil {
			return err
		}
		ctx := cmd.Context()

		var base reportmeta.Meta
		if replace {
			var err error
			base, err = reportmeta.LoadBuiltin(a.settings.Report.Template)
			if err != nil {
				return exitError(exitInput, "%v", err)
			}
		} else {
			base = store.LoadMeta(ctx, a.stores.Meta, a.reportID(), a.log)
		}

		m := base
		if len(args) == 1 {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return exitError(exitInput, "failed to read metadata: %v", err)
			}
			m, err = reportmeta.Parse(base, data)
			if err != nil {
				return exitError(exitInput, "failed to parse metadata: %v", err)
			}
		}
		for _, p := range reportmeta.Validate(m) {
			fmt.Fprintf(a.errOut, "warning: %s\n", p)
		}
		if err := store.SaveMeta(ctx, a.stores.Meta, a.reportID(), m); err != nil {
			return exitError(exitStore, "failed to save metadata: %v", err)
		}
		a.log.Info().Msg("metadata saved")
		return nil
	})
	cmd.Flags().BoolVar(&replace, "replace", false, "Start from a built-in template instead of the stored metadata")
	cmd.Flags().String("template", reportmeta.DefaultTemplate, "Built-in template used with --replace")
	return cmd
}

func newMetaTemplatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the built-in metadata templates",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.run(func(*cobra.Command, []string) error {
		names, err := reportmeta.List()
		if err != nil {
			return err
		}
		return a.writeOutput("", []byte(strings.Join(names, "\n")+"\n"))
	})
	return cmd
}
