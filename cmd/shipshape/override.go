package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/shipshape/internal/findings"
	"github.com/dshills/shipshape/internal/store"
)

func newOverrideCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Hide, restore, edit, add or delete findings for a report",
	}
	cmd.AddCommand(
		overrideIDCmd(a, "hide", "Hide a finding; derived findings can be restored later", findings.Overrides.Hide),
		overrideIDCmd(a, "restore", "Restore a hidden finding", findings.Overrides.Restore),
		overrideIDCmd(a, "delete", "Delete a manual finding, or hide a derived one", findings.Overrides.Delete),
		newOverrideEditCmd(a),
		newOverrideAddCmd(a),
		newOverrideListCmd(a),
	)
	return cmd
}

func overrideIDCmd(a *app, use, short string, op func(findings.Overrides, string) findings.Overrides) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <finding-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		id := args[0]
		return updateOverrides(cmd, a, use, id, func(ov findings.Overrides) findings.Overrides {
			return op(ov, id)
		})
	})
	return cmd
}

func updateOverrides(cmd *cobra.Command, a *app, action, id string, fn func(findings.Overrides) findings.Overrides) error {
	if err := a.openStore(); err != nil {
		return err
	}
	if _, err := store.UpdateOverrides(cmd.Context(), a.stores.Overrides, a.reportID(), a.log, fn); err != nil {
		return exitError(exitStore, "failed to save overrides: %v", err)
	}
	a.log.Info().Str("action", action).Str("finding", id).Msg("override saved")
	return nil
}

// patchFlags registers the editable finding fields. Only flags set on the
// command line end up in the patch, so an empty value is an explicit clear.
type patchFlags struct {
	area, assignedTo, condition, severity, priority, deadline, text string
}

func (p *patchFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&p.area, "area", "", "Area or location")
	fl.StringVar(&p.assignedTo, "assigned-to", "", "Person or department responsible")
	fl.StringVar(&p.condition, "condition", "", "Condition category")
	fl.StringVar(&p.severity, "severity", "", "Severity: low, medium, high or critical")
	fl.StringVar(&p.priority, "priority", "", "Priority: low, medium, high or critical")
	fl.StringVar(&p.deadline, "deadline", "", "Rectification deadline")
	fl.StringVar(&p.text, "text", "", "Free-text description")
}

func (p *patchFlags) patch(cmd *cobra.Command) findings.Patch {
	var out findings.Patch
	set := func(name string, v string) *string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		return &v
	}
	out.Area = set("area", p.area)
	out.AssignedTo = set("assigned-to", p.assignedTo)
	out.Condition = set("condition", p.condition)
	out.Severity = set("severity", p.severity)
	out.Priority = set("priority", p.priority)
	out.Deadline = set("deadline", p.deadline)
	out.Text = set("text", p.text)
	return out
}

func newOverrideEditCmd(a *app) *cobra.Command {
	p := &patchFlags{}
	cmd := &cobra.Command{
		Use:   "edit <finding-id>",
		Short: "Edit fields of a finding",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		patch := p.patch(cmd)
		if patch == (findings.Patch{}) {
			return exitError(exitInput, "nothing to edit: set at least one field flag")
		}
		id := args[0]
		return updateOverrides(cmd, a, "edit", id, func(ov findings.Overrides) findings.Overrides {
			return ov.Edit(id, patch)
		})
	})
	p.register(cmd)
	return cmd
}

func newOverrideAddCmd(a *app) *cobra.Command {
	p := &patchFlags{}
	var photo string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a manual finding",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, _ []string) error {
		var id string
		err := updateOverrides(cmd, a, "add", "", func(ov findings.Overrides) findings.Overrides {
			ov, id = ov.AddManual(a.now(), p.patch(cmd), photo)
			return ov
		})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.out, id)
		return err
	})
	p.register(cmd)
	cmd.Flags().StringVar(&photo, "photo", "", "Image id the finding refers to")
	return cmd
}

func newOverrideListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the stored overrides as JSON",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, _ []string) error {
		if err := a.openStore(); err != nil {
			return err
		}
		ov := store.LoadOverrides(cmd.Context(), a.stores.Overrides, a.reportID(), a.log)
		data, err := json.MarshalIndent(ov, "", "  ")
		if err != nil {
			return exitError(exitOutput, "failed to marshal overrides: %v", err)
		}
		return a.writeOutput("", append(data, '\n'))
	})
	return cmd
}
