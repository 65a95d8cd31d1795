package tui

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"duebook/internal/core"
)

// errCancelled is returned by prompts when the user typed a cancel token.
var errCancelled = errors.New("cancelled")

func isCancel(s string) bool {
	switch strings.ToLower(s) {
	case "0", "cancel":
		return true
	}
	return false
}

// readLine prints label and returns the trimmed answer. io.EOF means the
// input is exhausted.
func (a *App) readLine(label string) (string, error) {
	a.printf("%s", label)
	if !a.in.Scan() {
		a.println()
		if err := a.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(a.in.Text()), nil
}

// ask is readLine with cancel token handling.
func (a *App) ask(label string) (string, error) {
	s, err := a.readLine(label)
	if err != nil {
		return "", err
	}
	if isCancel(s) {
		return "", errCancelled
	}
	return s, nil
}

func (a *App) askName(label string) (string, error) {
	for {
		s, err := a.ask(label)
		if err != nil {
			return "", err
		}
		if s != "" {
			return s, nil
		}
		a.println("The name cannot be empty.")
	}
}

// askYesNo treats an empty answer as yes.
func (a *App) askYesNo(label string) (bool, error) {
	for {
		s, err := a.ask(label + " (y/n, default y): ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(s) {
		case "", "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		a.println("Please answer y or n.")
	}
}

func (a *App) askDate(label string) (core.Date, error) {
	for {
		s, err := a.ask(label + " (DD/MM/YYYY): ")
		if err != nil {
			return core.Date{}, err
		}
		d, err := core.ParseDate(s)
		if err == nil {
			return d, nil
		}
		a.println("Invalid date, use DD/MM/YYYY.")
	}
}

func (a *App) askAmount(label string) (decimal.Decimal, error) {
	for {
		s, err := a.ask(label)
		if err != nil {
			return decimal.Zero, err
		}
		d, err := core.ParseAmount(s)
		if err == nil {
			return d, nil
		}
		if errors.Is(err, core.ErrNegativeAmount) {
			a.println("The amount cannot be negative.")
		} else {
			a.println("Invalid amount, it must be a number.")
		}
	}
}

// askChoice reads an option between 1 and last.
func (a *App) askChoice(last int) (int, error) {
	label := "Select an option (1-" + strconv.Itoa(last) + ", 0 to go back): "
	for {
		s, err := a.ask(label)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(s)
		if err == nil && n >= 1 && n <= last {
			return n, nil
		}
		a.println("Invalid option.")
	}
}

// askClient reads an id until it names an existing client.
func (a *App) askClient(label string) (core.Record, error) {
	for {
		s, err := a.ask(label)
		if err != nil {
			return core.Record{}, err
		}
		id, err := strconv.Atoi(s)
		if err != nil {
			a.println("Invalid ID.")
			continue
		}
		rec, err := a.svc.Client(id)
		if err == nil {
			return rec, nil
		}
		a.printf("No client with ID %d.\n", id)
	}
}
