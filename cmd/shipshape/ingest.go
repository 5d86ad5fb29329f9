package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/shipshape/internal/inspection"
)

func newIngestCmd(a *app) *cobra.Command {
	var photos, out string
	cmd := &cobra.Command{
		Use:   "ingest <batch.json>",
		Short: "Normalize a batch file and fill capture times from photo EXIF data",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.run(func(_ *cobra.Command, args []string) error {
		b, err := loadBatch(a, args[0])
		if err != nil {
			return err
		}
		filled := 0
		if photos != "" {
			filled = inspection.FillCaptureTimes(b.Result, photos, a.log)
		}
		dest := out
		if dest == "" {
			dest = args[0]
		}
		if err := inspection.Save(dest, b.Result); err != nil {
			return exitError(exitOutput, "%v", err)
		}
		a.log.Info().Int("images", len(b.Result.Images)).Int("capture_times", filled).Str("path", dest).Msg("batch normalized")
		_, err = fmt.Fprintf(a.out, "%d images, %d capture times filled, %d problems repaired\n",
			len(b.Result.Images), filled, len(b.Problems))
		return err
	})
	cmd.Flags().StringVar(&photos, "photos", "", "Directory holding the photos named by image id")
	cmd.Flags().StringVar(&out, "out", "", "Write the normalized batch here (default: overwrite the input)")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var (
		location, comment string
		recs              []string
		out               string
	)
	cmd := &cobra.Command{
		Use:   "edit <batch.json> <image-id|#index>",
		Short: "Edit the location, comment or recommendations of one image record",
		Args:  cobra.ExactArgs(2),
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		target, err := parseTarget(args[1])
		if err != nil {
			return exitError(exitInput, "%v", err)
		}
		var e inspection.RecordEdit
		if cmd.Flags().Changed("location") {
			e.Location = &location
		}
		if cmd.Flags().Changed("comment") {
			e.Comment = &comment
		}
		if cmd.Flags().Changed("recommendation") {
			e.Recommendations = &recs
		}
		if e == (inspection.RecordEdit{}) {
			return exitError(exitInput, "nothing to edit: set --location, --comment or --recommendation")
		}

		b, err := loadBatch(a, args[0])
		if err != nil {
			return err
		}
		if err := b.Result.ApplyEdit(target, e); err != nil {
			if errors.Is(err, inspection.ErrNoSuchRecord) {
				return exitError(exitInput, "no image record %s in %s", target, args[0])
			}
			return err
		}
		dest := out
		if dest == "" {
			dest = args[0]
		}
		if err := inspection.Save(dest, b.Result); err != nil {
			return exitError(exitOutput, "%v", err)
		}
		a.log.Info().Str("target", target.String()).Str("path", dest).Msg("record updated")
		return nil
	})
	fl := cmd.Flags()
	fl.StringVar(&location, "location", "", "New location")
	fl.StringVar(&comment, "comment", "", "New comment")
	fl.StringArrayVar(&recs, "recommendation", nil, "Recommendation line (repeatable; replaces the list)")
	fl.StringVar(&out, "out", "", "Write the edited batch here (default: overwrite the input)")
	return cmd
}

// parseTarget accepts an image id or #<index>.
func parseTarget(s string) (inspection.Target, error) {
	if rest, ok := strings.CutPrefix(s, "#"); ok {
		i, err := strconv.Atoi(rest)
		if err != nil || i < 0 {
			return inspection.Target{}, fmt.Errorf("invalid record index %q", s)
		}
		return inspection.ByIndex(i), nil
	}
	if strings.TrimSpace(s) == "" {
		return inspection.Target{}, errors.New("empty image id")
	}
	return inspection.ByID(s), nil
}
