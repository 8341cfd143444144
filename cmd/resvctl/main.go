// Command resvctl is an operator tool for inspecting reservations and
// correcting customer records against the same database as the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/yeremiapane/restaurant-reservation/config"
	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/services"
	"github.com/yeremiapane/restaurant-reservation/utils"
	"gorm.io/gorm"
)

const usage = `usage: resvctl <command> [flags]

commands:
  list             -phone P -workflow W
  customer-update  -id N [-name X] [-phone Y]`

var errUsage = errors.New(usage)

func main() {
	err := run(context.Background(), os.Args[1:], os.Stdout, openDB)
	if err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		utils.ErrorLogger.Errorf("resvctl: %v", err)
		os.Exit(1)
	}
}

func openDB() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return config.InitDB(cfg.DB)
}

func run(ctx context.Context, args []string, out io.Writer, open func() (*gorm.DB, error)) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "list":
		return runList(ctx, args[1:], out, open)
	case "customer-update":
		return runCustomerUpdate(ctx, args[1:], out, open)
	}
	return errUsage
}

func runList(ctx context.Context, args []string, out io.Writer, open func() (*gorm.DB, error)) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	phone := fs.String("phone", "", "reservation phone")
	workflow := fs.String("workflow", "", "workflow token")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *phone == "" || *workflow == "" {
		return fmt.Errorf("list: -phone and -workflow are required")
	}

	db, err := open()
	if err != nil {
		return err
	}
	svc := services.NewReservationService(db, services.NewCustomerService(db), nil)

	reservations, err := svc.FindAll(ctx, *phone, *workflow)
	if err != nil {
		return err
	}
	return renderReservations(out, reservations)
}

func runCustomerUpdate(ctx context.Context, args []string, out io.Writer, open func() (*gorm.DB, error)) error {
	fs := flag.NewFlagSet("customer-update", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	id := fs.Uint("id", 0, "customer id")
	name := fs.String("name", "", "new name")
	phone := fs.String("phone", "", "new phone")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *id == 0 {
		return fmt.Errorf("customer-update: -id is required")
	}

	var in services.UpdateCustomerInput
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			in.Name = name
		case "phone":
			in.Phone = phone
		}
	})

	db, err := open()
	if err != nil {
		return err
	}

	customer, err := services.NewCustomerService(db).Update(ctx, *id, in)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "customer %d updated: name=%q phone=%q\n", customer.ID, customer.Name, customer.Phone)
	return err
}

func renderReservations(out io.Writer, reservations []models.Reservation) error {
	table := tablewriter.NewWriter(out)
	table.Header("ID", "Name", "Phone", "Date", "Time", "Seats", "Status", "Cancellation Reason")
	for _, r := range reservations {
		reason := ""
		if r.CancellationReason != nil {
			reason = *r.CancellationReason
		}
		if err := table.Append([]string{
			strconv.FormatUint(uint64(r.ID), 10),
			r.Name,
			r.Phone,
			r.Date,
			r.Time,
			strconv.FormatUint(uint64(r.SeatCount), 10),
			string(r.Status),
			reason,
		}); err != nil {
			return err
		}
	}
	return table.Render()
}
