// Package tui is the interactive text menu for managing client billing
// records. It parses and validates every answer before calling the service
// and treats "0" or "cancel" at any prompt as a request to abandon the
// current operation.
package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"duebook/internal/core"
	"duebook/internal/log"
	"duebook/internal/store"
)

// Service is the set of billing operations the menu drives.
type Service interface {
	AddClient(ctx context.Context, nr store.NewRecord) (core.Record, error)
	Client(id int) (core.Record, error)
	Clients() []core.Record
	UpdateClient(ctx context.Context, id int, u store.Update) (core.Record, error)
	DeleteClient(ctx context.Context, id int) error
	MarkPaid(ctx context.Context, id int) (core.Date, error)
	MonthSummary(month, year int) core.MonthSummary
}

type App struct {
	svc    Service
	in     *bufio.Scanner
	out    io.Writer
	logger *log.Logger

	// Now supplies the current day for defaults and the month report.
	Now func() time.Time
}

func New(svc Service, in io.Reader, out io.Writer, logger *log.Logger) *App {
	if logger == nil {
		logger = log.Discard()
	}
	return &App{
		svc:    svc,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: logger.WithComponent(log.ComponentTUI),
		Now:    time.Now,
	}
}

// Run shows the main menu until the user quits or input ends.
func (a *App) Run(ctx context.Context) error {
	a.logger.DebugContext(ctx, "Menu started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		a.println()
		a.println("==== MAIN MENU ====")
		a.println("1. Add client")
		a.println("2. Edit client")
		a.println("3. Manage payments")
		a.println("4. Quit")

		choice, err := a.readLine("Select an option: ")
		if err != nil {
			return a.stop(ctx, err)
		}

		switch choice {
		case "1":
			err = a.addClient(ctx)
		case "2":
			err = a.editClient(ctx)
		case "3":
			err = a.managePayments(ctx)
		case "4":
			return a.stop(ctx, nil)
		default:
			a.println("Invalid option, try again.")
			continue
		}

		if errors.Is(err, errCancelled) {
			a.println("Operation cancelled.")
			continue
		}
		if err != nil {
			return a.stop(ctx, err)
		}
	}
}

func (a *App) stop(ctx context.Context, err error) error {
	if err != nil && !errors.Is(err, io.EOF) {
		a.logger.ErrorContext(ctx, "Menu stopped", log.FieldError, err)
		return err
	}
	a.println("Exiting. Goodbye!")
	a.logger.DebugContext(ctx, "Menu closed")
	return nil
}

func (a *App) today() core.Date {
	return core.DateOf(a.Now())
}

// applied reports whether the service call changed the records. A save
// failure still counts as applied; the user is warned that it was not
// written.
func (a *App) applied(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, core.ErrPersistence):
		a.printf("Warning: the change was applied but could not be saved (%v).\n", err)
		return true
	case errors.Is(err, core.ErrNotFound):
		a.println("No client with that ID.")
	default:
		a.printf("Error: %v.\n", err)
	}
	return false
}

func (a *App) listClients(withDue bool) {
	for _, rec := range a.svc.Clients() {
		if withDue {
			a.printf("ID: %d | Name: %s | Next payment: %s\n", rec.ID, rec.Name, rec.NextDueDate)
		} else {
			a.printf("ID: %d | Name: %s\n", rec.ID, rec.Name)
		}
	}
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
