package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/saucecodee/praise/internal/app"
)

var periodCmd = &cobra.Command{
	Use:   "period",
	Short: "Inspect and transition quantification periods",
}

var periodCreateCmd = &cobra.Command{
	Use:   "create <name> <end-date>",
	Short: "Create an OPEN period ending at end-date (RFC 3339 or YYYY-MM-DD)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		endDate, err := parseEndDate(args[1])
		if err != nil {
			return err
		}
		return withService(cmd, func(svc *app.Service) error {
			period, err := svc.CreatePeriod(cmd.Context(), args[0], endDate)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), period.ID)
			return nil
		})
	},
}

var periodVerifyCmd = &cobra.Command{
	Use:   "verify <period-id>",
	Short: "Check whether the quantifier pool can cover the period",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		periodID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid period id: %w", err)
		}
		return withService(cmd, func(svc *app.Service) error {
			pool, err := svc.VerifyPoolSize(cmd.Context(), periodID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "quantifier pool: %d\nrequired:        %d\nsufficient:      %t\n",
				pool.QuantifierPoolSize, pool.RequiredPoolSize, pool.Sufficient())
			return nil
		})
	},
}

var periodAssignCmd = &cobra.Command{
	Use:   "assign <period-id>",
	Short: "Assign quantifiers and move the period to QUANTIFY",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		periodID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid period id: %w", err)
		}
		return withService(cmd, func(svc *app.Service) error {
			if err := svc.AssignQuantifiers(cmd.Context(), periodID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "quantifiers assigned")
			return nil
		})
	},
}

var periodCloseCmd = &cobra.Command{
	Use:   "close <period-id>",
	Short: "Close the period and store realized scores",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		periodID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid period id: %w", err)
		}
		return withService(cmd, func(svc *app.Service) error {
			if err := svc.ClosePeriod(cmd.Context(), periodID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "period closed")
			return nil
		})
	},
}

var periodDetailsCmd = &cobra.Command{
	Use:   "details <period-id>",
	Short: "Print the period detail view as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		periodID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid period id: %w", err)
		}
		as, _ := cmd.Flags().GetString("as")
		callerID, err := uuid.Parse(as)
		if err != nil {
			return fmt.Errorf("invalid --as user id: %w", err)
		}
		return withService(cmd, func(svc *app.Service) error {
			details, err := svc.GetPeriodDetails(cmd.Context(), periodID, callerID)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(details)
		})
	},
}

func withService(cmd *cobra.Command, fn func(svc *app.Service) error) error {
	svc, closeFn, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(svc)
}

func parseEndDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid end date %q: %w", s, err)
	}
	return t, nil
}

func init() {
	periodDetailsCmd.Flags().String("as", "", "user id whose view to render; non-admins see redacted scores")
	_ = periodDetailsCmd.MarkFlagRequired("as")

	periodCmd.AddCommand(periodCreateCmd, periodVerifyCmd, periodAssignCmd, periodCloseCmd, periodDetailsCmd)
}
