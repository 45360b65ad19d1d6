package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"jadwalpoli/internal/calendar"
	"jadwalpoli/internal/queue"
	"jadwalpoli/internal/schedule"
)

func scheduleCmd(load loader, logger *zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <doctor-code>",
		Short: "Print the upcoming practice days of a doctor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.directory.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			today := calendar.Day(time.Now().In(cfg.Location()))
			ds, err := schedule.Build(*res.Doctor, today)
			if errors.Is(err, schedule.ErrEmptySchedule) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\nJadwal belum tersedia\n", res.Doctor.Name)
				return nil
			}
			if err != nil {
				return err
			}
			printSchedule(cmd.OutOrStdout(), ds)
			if res.Stale {
				fmt.Fprintf(cmd.OutOrStdout(), "\n(snapshot from %s)\n", res.FetchedAt.In(cfg.Location()).Format(time.RFC3339))
			}
			return nil
		},
	}
}

func printSchedule(w io.Writer, ds *schedule.DoctorSchedule) {
	fmt.Fprintf(w, "%s (%s)\n", ds.Doctor.Name, ds.Doctor.Specialization)
	for _, clinic := range ds.Clinics {
		fmt.Fprintf(w, "\n%s\n", clinic.ClinicName)
		for _, occ := range clinic.Occurrences {
			today := ""
			if occ.IsToday {
				today = " (Hari ini)"
			}
			badge := ""
			if occ.Badge != "" {
				badge = " [" + occ.Badge + "]"
			}
			fmt.Fprintf(w, "  %s  %s%s  %s%s\n", occ.Date, occ.LongDate, today, occ.Hours, badge)
		}
	}
}

func queueCmd(load loader, logger *zerolog.Logger) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "queue <doctor-code> <clinic-code> <YYYY-MM-DD>",
		Short: "Watch the live queue of a clinic day until interrupted",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if _, err := calendar.ParseDate(args[2], cfg.Location()); err != nil {
				return err
			}
			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			key := queue.Key{DoctorCode: args[0], ClinicCode: args[1], Date: args[2]}
			out := cmd.OutOrStdout()

			if once {
				printQueue(out, a.poller.FetchOnce(cmd.Context(), key))
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := a.poller.Watch(ctx, key, func(v queue.View) { printQueue(out, v) })
			<-ctx.Done()
			w.Stop()
			w.Wait()
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "fetch a single snapshot and exit")
	return cmd
}

func printQueue(w io.Writer, v queue.View) {
	ts := v.FetchedAt.Format("15:04:05")
	switch {
	case v.Disabled:
		fmt.Fprintln(w, "queue disabled: doctor, clinic and date are required")
	case v.Loading || (v.Err == nil && v.Status == nil):
		fmt.Fprintln(w, "loading...")
	case v.Err != nil:
		fmt.Fprintf(w, "%s  error: %v\n", ts, v.Err)
	case v.NoQueue:
		fmt.Fprintf(w, "%s  no queue yet\n", ts)
	default:
		progress := "-"
		if v.Progress != nil {
			progress = fmt.Sprintf("%d%%", *v.Progress)
		}
		state := string(v.Status.State)
		if v.IsFinished {
			state = "finished"
		}
		fmt.Fprintf(w, "%s  %d/%d  waiting %d  %s  %s\n",
			ts, v.Status.CurrentNumber, v.Status.TotalQueue, v.Waiting, progress, state)
	}
}
