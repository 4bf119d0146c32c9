package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"procurement-portal/internal/models"
	"procurement-portal/internal/rfpflow"
	"procurement-portal/internal/routes"
)

func newRFPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rfp",
		Short: "Browse, draft and publish RFPs",
	}
	cmd.AddCommand(
		newRFPListCmd(),
		newRFPShowCmd(),
		newRFPDraftCmd(),
		newRFPReviewCmd(),
		newRFPEditCmd(),
		newRFPPublishCmd(),
	)
	return cmd
}

func newRFPListCmd() *cobra.Command {
	var status string
	var page, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List RFPs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireRole(cmd.Context()); err != nil {
				return err
			}

			result, err := client.ListRFPs(cmd.Context(), models.ListRFPsParams{Page: page, Limit: limit, Status: status})
			if err != nil {
				return describe("list rfps", err)
			}

			out := cmd.OutOrStdout()
			if len(result.Data) == 0 {
				fmt.Fprintln(out, "No RFPs found.")
				return nil
			}

			fmt.Fprintf(out, "%-38s  %-10s  %-12s  %s\n", "ID", "STATUS", "DEADLINE", "TITLE")
			fmt.Fprintf(out, "%-38s  %-10s  %-12s  %s\n", "--", "------", "--------", "-----")
			for _, r := range result.Data {
				deadline := ""
				if !r.SubmissionDeadline.IsZero() {
					deadline = r.SubmissionDeadline.Format("2006-01-02")
				}
				fmt.Fprintf(out, "%-38s  %-10s  %-12s  %s\n", r.ID, statusColor(r.Status).Sprint(r.Status), deadline, r.Title)
			}

			p := result.Pagination
			fmt.Fprintf(out, "\nPage %d of %d (%d total)\n", p.CurrentPage, p.TotalPages, p.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status, e.g. PUBLISHED or PUBLISHED,CLOSED")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "Items per page")
	return cmd
}

func statusColor(s models.RFPStatus) *color.Color {
	switch s {
	case models.RFPPublished:
		return color.New(color.FgGreen)
	case models.RFPClosed:
		return color.New(color.FgHiBlack)
	default:
		return color.New(color.FgYellow)
	}
}

func newRFPShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one RFP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireRole(cmd.Context()); err != nil {
				return err
			}
			rfp, err := client.GetRFP(cmd.Context(), args[0])
			if err != nil {
				return describe("get rfp", err)
			}
			printRFP(cmd.OutOrStdout(), rfp)
			return nil
		},
	}
}

func printRFP(out io.Writer, rfp *models.RFP) {
	color.New(color.Bold).Fprintln(out, rfp.Title)
	fmt.Fprintf(out, "ID:       %s\n", rfp.ID)
	fmt.Fprintf(out, "Status:   %s\n", statusColor(rfp.Status).Sprint(rfp.Status))
	fmt.Fprintf(out, "Budget:   %.2f\n", rfp.Budget)
	if !rfp.SubmissionDeadline.IsZero() {
		fmt.Fprintf(out, "Deadline: %s\n", rfp.SubmissionDeadline.Format("2006-01-02 15:04"))
	}
	if rfp.ShortDescription != "" {
		fmt.Fprintf(out, "\n%s\n", rfp.ShortDescription)
	}
	if rfp.LongDescription != "" {
		fmt.Fprintf(out, "\n%s\n", rfp.LongDescription)
	}
}

// openWorkflow restores the terminal's draft workflow. A finished workflow
// is replaced by a fresh one.
func openWorkflow(ctx context.Context) (*rfpflow.Controller, error) {
	ctl, err := rfpflow.Open(ctx, workflows, defaultWorkflow, client, rfpflow.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if ctl.State() == rfpflow.StatePublished {
		if err := workflows.Delete(ctx, defaultWorkflow); err != nil {
			return nil, err
		}
		return rfpflow.NewController(client, rfpflow.WithLogger(logger)), nil
	}
	return ctl, nil
}

func readForm(path string) (rfpflow.Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rfpflow.Form{}, fmt.Errorf("read form: %w", err)
	}
	var form rfpflow.Form
	if err := yaml.Unmarshal(data, &form); err != nil {
		return rfpflow.Form{}, fmt.Errorf("parse form %s: %w", path, err)
	}
	return form, nil
}

func newRFPDraftCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Submit an RFP form (YAML) and generate a draft for review",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := requireRole(ctx, models.RoleGPO); err != nil {
				return err
			}

			form, err := readForm(file)
			if err != nil {
				return err
			}
			return exclusive(ctx, func() error { return submitDraft(cmd, form) })
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with the RFP form")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// submitDraft sends form and prints the generated draft.
func submitDraft(cmd *cobra.Command, form rfpflow.Form) error {
	ctx := cmd.Context()
	ctl, err := openWorkflow(ctx)
	if err != nil {
		return err
	}
	if ctl.State() == rfpflow.StateReviewing {
		return fmt.Errorf("draft %s is under review; run 'portalctl rfp publish' or 'portalctl rfp edit'", ctl.Draft().ID)
	}

	if _, err := ctl.LoadCategories(ctx); err != nil {
		return describe("load categories", err)
	}

	draft, err := ctl.SubmitDraft(ctx, form)
	if saveErr := rfpflow.Save(ctx, workflows, defaultWorkflow, ctl); saveErr != nil {
		logger.Warn("save workflow failed", "error", saveErr)
	}

	var verr *rfpflow.ValidationError
	if errors.As(err, &verr) {
		out := cmd.ErrOrStderr()
		color.New(color.FgRed).Fprintln(out, "The form has problems:")
		for _, p := range verr.Problems {
			fmt.Fprintf(out, "  %s: %s\n", p.Field, p.Message)
		}
		return errors.New("draft not submitted")
	}
	if err != nil {
		return describe("create draft", err)
	}

	out := cmd.OutOrStdout()
	if ids := ctl.DraftIDs(); len(ids) > 1 {
		color.New(color.FgYellow).Fprintf(out, "Note: %d earlier draft(s) remain unpublished on the server: %s\n",
			len(ids)-1, strings.Join(ids[:len(ids)-1], ", "))
	}
	color.New(color.FgGreen).Fprintf(out, "Draft %s created.\n\n", draft.ID)
	printReview(out, ctl)
	return nil
}

// exclusive runs fn while no other portalctl process works on the draft.
func exclusive(ctx context.Context, fn func() error) error {
	err := rfpflow.Exclusive(ctx, workflows, defaultWorkflow, fn)
	if errors.Is(err, rfpflow.ErrBusy) {
		return errors.New("another portalctl command is working on the draft; try again shortly")
	}
	return err
}

func printReview(out io.Writer, ctl *rfpflow.Controller) {
	draft := ctl.Draft()
	printRFP(out, draft)

	form := ctl.Form()
	if total := form.WeightageTotal(); len(form.EvaluationMetrics) > 0 && math.Abs(total-100) > 0.001 {
		color.New(color.FgYellow).Fprintf(out, "\nWarning: evaluation metric weightages total %.0f%%, not 100%%.\n", total)
	}
	fmt.Fprintln(out, "\nRun 'portalctl rfp publish' to publish or 'portalctl rfp edit' to go back.")
}

func newRFPReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Show the draft awaiting publication",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := openWorkflow(cmd.Context())
			if err != nil {
				return err
			}
			if ctl.State() != rfpflow.StateReviewing {
				fmt.Fprintln(cmd.OutOrStdout(), "No draft is awaiting review. Run 'portalctl rfp draft -f form.yaml'.")
				return nil
			}
			printReview(cmd.OutOrStdout(), ctl)
			return nil
		},
	}
}

func newRFPEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Leave review and return to editing; the next draft creates a new server record",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctl, err := openWorkflow(ctx)
			if err != nil {
				return err
			}
			if err := ctl.BackToEdit(); err != nil {
				return errors.New("no draft under review")
			}
			if err := rfpflow.Save(ctx, workflows, defaultWorkflow, ctl); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Back to editing. Update your form file and run 'portalctl rfp draft' again.")
			return nil
		},
	}
}

func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func newRFPPublishCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish the draft under review",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := requireRole(ctx, models.RoleGPO); err != nil {
				return err
			}

			ctl, err := openWorkflow(ctx)
			if err != nil {
				return err
			}
			if ctl.State() != rfpflow.StateReviewing {
				return errors.New("no draft under review; run 'portalctl rfp draft' first")
			}

			if !yes {
				ok, err := confirm(cmd, fmt.Sprintf("Publish %q (%s)?", ctl.Draft().Title, ctl.Draft().ID))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Not published.")
					return nil
				}
			}

			draftID := ctl.Draft().ID
			return exclusive(ctx, func() error {
				// состояние могло измениться, пока ждали подтверждения
				ctl, err := openWorkflow(ctx)
				if err != nil {
					return err
				}
				if ctl.State() != rfpflow.StateReviewing || ctl.Draft().ID != draftID {
					return errors.New("the draft changed while waiting for confirmation; run 'portalctl rfp review'")
				}
				rfp, err := ctl.Publish(ctx)
				if err != nil {
					return describe("publish", err)
				}
				if err := workflows.Delete(ctx, defaultWorkflow); err != nil {
					logger.Warn("delete workflow failed", "error", err)
				}

				color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Published %s. Portal page: %s\n", rfp.ID, routes.RFPDetail(rfp.ID))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Publish without asking for confirmation")
	return cmd
}
