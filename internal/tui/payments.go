package tui

import (
	"context"
	"errors"

	"duebook/internal/core"
	"duebook/internal/log"
)

func (a *App) managePayments(ctx context.Context) error {
	a.println()
	a.println("--- Manage payments ---")
	if len(a.svc.Clients()) == 0 {
		a.println("No clients registered.")
		return nil
	}

	for {
		a.println()
		a.println("1. Record a client payment")
		a.println("2. View payments by month")
		a.println("3. Back to main menu")
		choice, err := a.askChoice(3)
		if errors.Is(err, errCancelled) || choice == 3 {
			return nil
		}
		if err != nil {
			return err
		}

		switch choice {
		case 1:
			err = a.recordPayment(ctx)
		case 2:
			err = a.viewMonth()
		}
		if err != nil && !errors.Is(err, errCancelled) {
			return err
		}
	}
}

func (a *App) recordPayment(ctx context.Context) error {
	a.println()
	a.println("Clients:")
	a.listClients(true)
	rec, err := a.askClient("ID of the client (0 to go back): ")
	if err != nil {
		return err
	}

	a.println()
	a.printf("Selected client: %s\n", rec.Name)
	a.printf("Monthly amount: %s\n", core.FormatAmount(rec.Amount))
	a.printf("First payment: %s\n", rec.StartDate)
	a.printf("Next payment: %s\n", rec.NextDueDate)
	a.println()
	a.println("1. Client paid (moves the next payment one month ahead)")
	a.println("2. Back")
	choice, err := a.askChoice(2)
	if err != nil || choice == 2 {
		return err
	}

	next, err := a.svc.MarkPaid(ctx, rec.ID)
	if a.applied(err) {
		a.printf("Payment recorded. Next payment: %s\n", next)
	}
	return nil
}

func (a *App) viewMonth() error {
	today := a.today()
	month, year := today.Month(), today.Year()
	nextMonth, nextYear := core.NextMonth(month, year)

	a.println()
	a.printf("1. This month (%s)\n", core.FormatMonth(month, year))
	a.printf("2. Next month (%s)\n", core.FormatMonth(nextMonth, nextYear))
	a.println("3. Enter a month")
	a.println("4. Back")
	choice, err := a.askChoice(4)
	if err != nil {
		return err
	}

	switch choice {
	case 2:
		month, year = nextMonth, nextYear
	case 3:
		if month, year, err = a.askMonth(); err != nil {
			return err
		}
	case 4:
		return nil
	}

	sum := a.svc.MonthSummary(month, year)
	a.logger.Debug("Month report shown",
		log.NewFields().WithPeriod(month, year).ToSlice()...)
	a.printSummary(sum)
	return nil
}

func (a *App) askMonth() (int, int, error) {
	for {
		s, err := a.ask("Month to view (MM/YYYY): ")
		if err != nil {
			return 0, 0, err
		}
		month, year, err := core.ParseMonth(s)
		if err == nil {
			return month, year, nil
		}
		a.println("Invalid format, use MM/YYYY (for example 03/2025).")
	}
}

func (a *App) printSummary(sum core.MonthSummary) {
	a.println()
	if sum.IsEmpty() {
		a.printf("No payments due in %s.\n", sum.Label())
		return
	}
	a.printf("Payments due in %s:\n", sum.Label())
	for _, rec := range sum.Records {
		a.printf("ID: %d | Name: %s | Amount: %s\n", rec.ID, rec.Name, core.FormatAmount(rec.Amount))
	}
	a.printf("Total for %s: %s\n", sum.Label(), core.FormatAmount(sum.Total))
}
