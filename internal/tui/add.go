package tui

import (
	"context"

	"duebook/internal/core"
	"duebook/internal/store"
)

func (a *App) addClient(ctx context.Context) error {
	a.println()
	a.println("--- Add client ---")
	a.println("Enter '0' or 'cancel' at any prompt to abandon without saving.")

	var (
		nr  store.NewRecord
		err error
	)

	if nr.Name, err = a.askName("Client name: "); err != nil {
		return err
	}

	useToday, err := a.askYesNo("Use today as the first payment date?")
	if err != nil {
		return err
	}
	if useToday {
		nr.StartDate = a.today()
	} else if nr.StartDate, err = a.askDate("First payment date"); err != nil {
		return err
	}

	inOneMonth, err := a.askYesNo("Is the next payment one month later?")
	if err != nil {
		return err
	}
	if inOneMonth {
		if nr.NextDueDate, err = nr.StartDate.NextDue(); err != nil {
			a.printf("One month after %s is out of range.\n", nr.StartDate)
			inOneMonth = false
		}
	}
	if !inOneMonth {
		if nr.NextDueDate, err = a.askNextDate(nr.StartDate); err != nil {
			return err
		}
	}

	if nr.Amount, err = a.askAmount("Monthly amount: "); err != nil {
		return err
	}
	if nr.Description, err = a.ask("Description: "); err != nil {
		return err
	}

	rec, err := a.svc.AddClient(ctx, nr)
	if !a.applied(err) {
		return nil
	}
	a.println()
	a.printf("Client added. ID: %d\n", rec.ID)
	a.printf("First payment: %s\n", rec.StartDate)
	a.printf("Next payment: %s\n", rec.NextDueDate)
	return nil
}

func (a *App) askNextDate(start core.Date) (core.Date, error) {
	for {
		d, err := a.askDate("Next payment date")
		if err != nil {
			return core.Date{}, err
		}
		if !d.Before(start.Time) {
			return d, nil
		}
		a.printf("The next payment cannot be before %s.\n", start)
	}
}
