package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	cbus "github.com/next-trace/scg-meal-bus/contract/bus"
	"github.com/next-trace/scg-meal-bus/meals"
	"github.com/next-trace/scg-meal-bus/memory"
	"github.com/next-trace/scg-meal-bus/servicebus"
	"github.com/next-trace/scg-meal-bus/store"
)

func demoCmd(g *globals) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a profile update, two meals and a delete against in-memory stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cbus.WithCorrelationID(cmd.Context(), "demo")

			s, err := memory.New(ctx, g.logger)
			if err != nil {
				return err
			}
			defer s.Close()

			today := time.Now().UTC()
			day := today.Format(store.DayLayout)

			if _, err := s.Bus.Send(ctx, meals.UpdateUserProfile{UserID: user, DisplayName: user, CalorieTarget: 2200}); err != nil {
				return err
			}

			var first store.Meal
			for i, meal := range []meals.LogMeal{
				{UserID: user, Name: "Porridge", EatenAt: today, Calories: 380, ProteinG: 12, CarbsG: 60, FatG: 8},
				{UserID: user, Name: "Chicken salad", EatenAt: today, Calories: 520, ProteinG: 42, CarbsG: 18, FatG: 28},
			} {
				res, err := servicebus.Send[meals.LogMeal, map[string]any](ctx, s.Bus, meal)
				if err != nil {
					return err
				}

				if i == 0 {
					first, _ = res["meal"].(store.Meal)
				}
			}

			if _, err := s.Bus.Send(ctx, meals.DeleteMeal{UserID: user, MealID: first.ID}); err != nil {
				return err
			}

			m, err := servicebus.Send[meals.GetDailyMacros, meals.Macros](ctx, s.Bus, meals.GetDailyMacros{UserID: user, Day: day})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")

			if err := enc.Encode(m); err != nil {
				return err
			}

			for _, msg := range s.Outbox.Messages() {
				fmt.Fprintf(out, "relayed %s key=%s\n", msg.Subject, msg.Key)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "demo-user", "user id to run the flow for")

	return cmd
}
