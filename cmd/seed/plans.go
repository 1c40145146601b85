package main

import (
	"fmt"

	"github.com/mansoorceksport/bluefin/internal/domain"
	"github.com/mansoorceksport/bluefin/internal/repository"
	"github.com/mansoorceksport/bluefin/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func boolPtr(b bool) *bool { return &b }

// defaultPlans is the launch catalog
var defaultPlans = []domain.PlanInput{
	{
		Name:        "Basic Plan",
		Description: "Perfect for light users and small families",
		Speed:       "50 Mbps",
		Validity:    30,
		Price:       499,
		Features:    []string{"Unlimited data", "24/7 customer support", "Free installation", "WiFi router included"},
		IsActive:    boolPtr(true),
	},
	{
		Name:        "Standard Plan",
		Description: "Ideal for medium usage households",
		Speed:       "100 Mbps",
		Validity:    30,
		Price:       799,
		Features:    []string{"Unlimited data", "24/7 priority support", "Free installation", "Premium WiFi router", "No data caps"},
		IsActive:    boolPtr(true),
	},
	{
		Name:        "Premium Plan",
		Description: "For heavy users and large families",
		Speed:       "200 Mbps",
		Validity:    30,
		Price:       1299,
		Features:    []string{"Unlimited data", "24/7 priority support", "Free installation", "High-end WiFi router", "No data caps", "Gaming optimized"},
		IsActive:    boolPtr(true),
	},
	{
		Name:        "Ultra Plan",
		Description: "Maximum speed for power users",
		Speed:       "500 Mbps",
		Validity:    30,
		Price:       1999,
		Features:    []string{"Unlimited data", "24/7 dedicated support", "Free installation", "Enterprise-grade router", "No data caps", "Gaming optimized", "4K streaming ready"},
		IsActive:    boolPtr(true),
	},
}

func plansCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Seed the default plan catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, closeFn, err := connect(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			plans := service.NewPlanService(repository.NewMongoPlanRepository(db))

			existing, err := plans.ListAll(ctx)
			if err != nil {
				return err
			}
			if len(existing) > 0 && !force {
				log.Info().Int("count", len(existing)).Msg("[Seed] plans already present, use --force to replace them")
				return nil
			}
			for _, p := range existing {
				if err := plans.Delete(ctx, p.ID); err != nil {
					return fmt.Errorf("delete plan %s: %w", p.ID, err)
				}
			}

			for _, input := range defaultPlans {
				plan, err := plans.Create(ctx, input)
				if err != nil {
					return fmt.Errorf("create plan %q: %w", input.Name, err)
				}
				log.Info().Str("plan_id", plan.ID).Str("name", plan.Name).Msg("[Seed] plan created")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete existing plans first")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every plan in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, closeFn, err := connect(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			plans, err := service.NewPlanService(repository.NewMongoPlanRepository(db)).ListAll(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(plans) == 0 {
				fmt.Fprintln(out, "No plans found.")
				return nil
			}
			for _, p := range plans {
				status := "active"
				if !p.IsActive {
					status = "inactive"
				}
				fmt.Fprintf(out, "%s  %-15s %-9s %4d days  %8.2f  %s\n", p.ID, p.Name, p.Speed, p.Validity, p.Price, status)
			}
			return nil
		},
	}
}
