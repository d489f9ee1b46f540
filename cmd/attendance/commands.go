package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/attendance-tracker/internal/service"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

const countsHelp = `ATTENDED and MISSED must be whole numbers of zero or more;
the total recorded is ATTENDED + MISSED. Negative counts are rejected.`

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show every subject with its percentage and status",
		Args:    cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			renderList(cmd.OutOrStdout(), a.store.Subjects.List())
			return nil
		}),
	}
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME ATTENDED MISSED",
		Short: "Add a subject",
		Long:  "Add a subject. " + countsHelp,
		Args:  cobra.ExactArgs(3),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			view, err := a.store.Subjects.Add(cmd.Context(), service.SubjectInput{Name: args[0], Attended: args[1], Missed: args[2]})
			if err != nil {
				return err
			}
			renderSubject(cmd.OutOrStdout(), "Added", view)
			return nil
		}),
	}
}

func newEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit N NAME ATTENDED MISSED",
		Short: "Replace the name and counts of subject N",
		Long:  "Replace the name and counts of subject N. " + countsHelp,
		Args:  cobra.ExactArgs(4),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			index, err := subjectNumber(args[0])
			if err != nil {
				return err
			}
			view, err := a.store.Subjects.Update(cmd.Context(), index, service.SubjectInput{Name: args[1], Attended: args[2], Missed: args[3]})
			if err != nil {
				return err
			}
			renderSubject(cmd.OutOrStdout(), "Updated", view)
			return nil
		}),
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete N",
		Aliases: []string{"rm"},
		Short:   "Delete subject N after confirmation",
		Args:    cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			index, err := subjectNumber(args[0])
			if err != nil {
				return err
			}
			view, err := a.store.Subjects.Get(index)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !yes {
				fmt.Fprintf(out, "Delete %q? [y/N] ", view.Name)
				if !confirmed(cmd) {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			if err := a.store.Subjects.Remove(cmd.Context(), index); err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted %s\n", view.Name)
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newAttendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "attend N",
		Short: "Record an attended class for subject N",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			index, err := subjectNumber(args[0])
			if err != nil {
				return err
			}
			view, err := a.store.Subjects.IncrementAttendedAndTotal(cmd.Context(), index)
			if err != nil {
				return err
			}
			renderSubject(cmd.OutOrStdout(), "Attended", view)
			return nil
		}),
	}
}

func newMissCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "miss N",
		Short: "Record a missed class for subject N",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			index, err := subjectNumber(args[0])
			if err != nil {
				return err
			}
			view, err := a.store.Subjects.IncrementTotalOnly(cmd.Context(), index)
			if err != nil {
				return err
			}
			renderSubject(cmd.OutOrStdout(), "Missed", view)
			return nil
		}),
	}
}

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an attendance report as CSV or PDF",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			reportFormat, err := service.ParseFormat(format)
			if err != nil {
				return err
			}
			reports := service.NewReportService(a.store.Subjects, nil, nil, service.ReportConfig{}, a.logger, nil, nil, nil)
			payload, count, err := reports.Render(reportFormat)
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				path = "attendance." + string(reportFormat)
			}
			if err := os.WriteFile(path, payload, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d subjects to %s\n", count, path)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "report format: csv or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default attendance.<format>)")
	return cmd
}

// subjectNumber converts a 1-based subject number to a store index.
func subjectNumber(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject number must be a positive whole number, got %q", raw))
	}
	return n - 1, nil
}

func confirmed(cmd *cobra.Command) bool {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
