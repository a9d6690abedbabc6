package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/garystarr-surgi/invoice-lock/internal/lock"
	"github.com/garystarr-surgi/invoice-lock/internal/shared"
	"github.com/garystarr-surgi/invoice-lock/jobs"
)

// Enqueuer submits lock tasks.
type Enqueuer interface {
	EnqueueLockCheck(ctx context.Context, requestedBy string) (*asynq.TaskInfo, error)
	EnqueueDigest(ctx context.Context, requestedBy string) (*asynq.TaskInfo, error)
}

// StatusReader reads a customer's lock status.
type StatusReader interface {
	Status(ctx context.Context, customerID int64) (lock.Status, error)
}

// RoleAssigner grants roles to users.
type RoleAssigner interface {
	AssignRoleByName(ctx context.Context, email, roleName string) error
}

// Env opens the dependencies a command needs. Each opener returns a release
// func the command calls when done.
type Env struct {
	Queue     func(ctx context.Context) (Enqueuer, func(), error)
	Inspector func(ctx context.Context) (jobs.QueueInspector, func(), error)
	Status    func(ctx context.Context) (StatusReader, func(), error)
	Roles     func(ctx context.Context) (RoleAssigner, func(), error)
	Migrate   func(ctx context.Context) error
}

// NewRootCommand builds the lockctl command tree.
func NewRootCommand(env Env) *cobra.Command {
	var requestedBy string
	var asJSON bool

	root := &cobra.Command{
		Use:           "lockctl",
		Short:         "Operate the overdue invoice customer lock",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&requestedBy, "by", "lockctl", "name recorded as the requester of queued runs")
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON output")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Queue the overdue invoice lock check now",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return enqueue(cmd, env, asJSON, func(ctx context.Context, q Enqueuer) (*asynq.TaskInfo, error) {
					return q.EnqueueLockCheck(ctx, requestedBy)
				})
			},
		},
		&cobra.Command{
			Use:   "digest",
			Short: "Queue the locked customer digest now",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return enqueue(cmd, env, asJSON, func(ctx context.Context, q Enqueuer) (*asynq.TaskInfo, error) {
					return q.EnqueueDigest(ctx, requestedBy)
				})
			},
		},
		&cobra.Command{
			Use:   "queue",
			Short: "Show default queue counters",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				inspector, release, err := env.Inspector(cmd.Context())
				if err != nil {
					return err
				}
				defer release()
				health, err := jobs.DefaultQueueHealth(inspector)
				if err != nil {
					return fmt.Errorf("inspect queue: %w", err)
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), health)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "QUEUE\tPAUSED\tPENDING\tACTIVE\tSCHEDULED\tRETRY\tARCHIVED")
				fmt.Fprintf(tw, "%s\t%t\t%d\t%d\t%d\t%d\t%d\n", health.Queue, health.Paused, health.Pending,
					health.Active, health.Scheduled, health.Retry, health.Archived)
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "status <customer-id>",
			Short: "Print a customer's lock status",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid customer id %q", args[0])
				}
				reader, release, err := env.Status(cmd.Context())
				if err != nil {
					return err
				}
				defer release()
				status, err := reader.Status(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("lock status: %w", err)
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), status)
				}
				return printStatus(cmd.OutOrStdout(), id, status)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := env.Migrate(cmd.Context()); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "grant-unlocker <email>",
			Short: "Give a user the " + shared.RoleCustomerUnlocker + " role",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				roles, release, err := env.Roles(cmd.Context())
				if err != nil {
					return err
				}
				defer release()
				if err := roles.AssignRoleByName(cmd.Context(), args[0], shared.RoleCustomerUnlocker); err != nil {
					return fmt.Errorf("grant %s to %s: %w", shared.RoleCustomerUnlocker, args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s granted to %s\n", shared.RoleCustomerUnlocker, args[0])
				return nil
			},
		},
	)
	return root
}

func enqueue(cmd *cobra.Command, env Env, asJSON bool, fn func(context.Context, Enqueuer) (*asynq.TaskInfo, error)) error {
	queue, release, err := env.Queue(cmd.Context())
	if err != nil {
		return err
	}
	defer release()
	info, err := fn(cmd.Context(), queue)
	if err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]string{"id": info.ID, "type": info.Type, "queue": info.Queue})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "queued %s (%s) on %s\n", info.Type, info.ID, info.Queue)
	return nil
}

func printStatus(w io.Writer, id int64, status lock.Status) error {
	if !status.Locked {
		_, err := fmt.Fprintf(w, "customer %d is not locked\n", id)
		return err
	}
	tier := "Locked"
	if status.Status != nil && *status.Status != lock.TierNone {
		tier = string(*status.Status)
	}
	days := 0
	if status.DaysOverdue != nil {
		days = *status.DaysOverdue
	}
	_, err := fmt.Fprintf(w, "customer %d is %s, %d days overdue\n", id, tier, days)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
