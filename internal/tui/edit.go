package tui

import (
	"context"
	"errors"
	"strings"

	"duebook/internal/core"
	"duebook/internal/store"
)

func (a *App) editClient(ctx context.Context) error {
	a.println()
	a.println("--- Edit client ---")
	a.println("Enter '0' or 'cancel' at any prompt to abandon without saving.")
	if len(a.svc.Clients()) == 0 {
		a.println("No clients registered.")
		return nil
	}

	a.println("Clients:")
	a.listClients(false)
	rec, err := a.askClient("ID of the client to edit: ")
	if err != nil {
		return err
	}

	a.println()
	a.printf("Selected client: %s\n", rec.Name)
	a.println("1. Edit client")
	a.println("2. Delete client")
	action, err := a.askChoice(2)
	if err != nil {
		return err
	}

	if action == 2 {
		return a.deleteClient(ctx, rec)
	}
	return a.editLoop(ctx, rec.ID)
}

func (a *App) deleteClient(ctx context.Context, rec core.Record) error {
	ok, err := a.askYesNo("Delete client " + rec.Name + "?")
	if err != nil {
		return err
	}
	if !ok {
		return errCancelled
	}
	if a.applied(a.svc.DeleteClient(ctx, rec.ID)) {
		a.printf("Client %s deleted.\n", rec.Name)
	}
	return nil
}

// editLoop changes one field at a time until the user leaves with 0. A
// cancel inside a field prompt drops only that change.
func (a *App) editLoop(ctx context.Context, id int) error {
	for {
		rec, err := a.svc.Client(id)
		if err != nil {
			a.applied(err)
			return nil
		}

		a.println()
		a.printf("Editing client: %s\n", rec.Name)
		a.println("1. Name")
		a.println("2. Monthly amount")
		a.println("3. Description")
		a.println("4. Payment dates")
		choice, err := a.askChoice(4)
		if errors.Is(err, errCancelled) {
			a.println("Leaving edit mode.")
			return nil
		}
		if err != nil {
			return err
		}

		u, err := a.askUpdate(choice)
		if errors.Is(err, errCancelled) {
			a.println("Change cancelled.")
			continue
		}
		if err != nil {
			return err
		}

		if _, err := a.svc.UpdateClient(ctx, id, u); a.applied(err) {
			a.printf("%s updated.\n", capitalize(u.Field.String()))
			if u.Field == store.FieldStartDate {
				updated, _ := a.svc.Client(id)
				a.printf("Next payment: %s\n", updated.NextDueDate)
			}
		}
	}
}

func (a *App) askUpdate(choice int) (store.Update, error) {
	switch choice {
	case 1:
		name, err := a.askName("New name: ")
		return store.SetName(name), err
	case 2:
		amount, err := a.askAmount("New monthly amount: ")
		return store.SetAmount(amount), err
	case 3:
		desc, err := a.ask("New description: ")
		return store.SetDescription(desc), err
	default:
		return a.askDateUpdate()
	}
}

func (a *App) askDateUpdate() (store.Update, error) {
	a.println("Which date?")
	a.println("1. First payment date")
	a.println("2. Next payment date")
	which, err := a.askChoice(2)
	if err != nil {
		return store.Update{}, err
	}

	if which == 2 {
		next, err := a.askDate("New next payment date")
		return store.SetNextDueDate(next), err
	}

	start, err := a.askDate("New first payment date")
	if err != nil {
		return store.Update{}, err
	}
	cascade, err := a.askYesNo("Move the next payment to one month after it?")
	if err != nil {
		return store.Update{}, err
	}
	if cascade {
		return store.SetStartDate(start, true), nil
	}
	next, err := a.askDate("New next payment date")
	if err != nil {
		return store.Update{}, err
	}
	return store.SetStartAndNextDue(start, next), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
