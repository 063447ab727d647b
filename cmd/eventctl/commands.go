package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/geocoder89/eventmanager/internal/app"
	"github.com/geocoder89/eventmanager/internal/auth"
	"github.com/geocoder89/eventmanager/internal/cancellation"
	"github.com/geocoder89/eventmanager/internal/config"
	"github.com/geocoder89/eventmanager/internal/domain/event"
	"github.com/geocoder89/eventmanager/internal/domain/user"
	"github.com/geocoder89/eventmanager/internal/policy"
)

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Complete published events that have ended",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				n, err := rt.Lifecycle.CompleteExpired(ctx)
				if viper.GetBool("json") {
					if perr := printJSON(os.Stdout, map[string]any{"completed": n}); perr != nil {
						return perr
					}
				} else {
					fmt.Printf("completed %d event(s)\n", n)
				}
				return err
			})
		},
	}
}

func cancelCmd() *cobra.Command {
	var direct bool
	cmd := &cobra.Command{
		Use:   "cancel <event-id>",
		Short: "Cancel a published event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				if direct {
					e, err := rt.Lifecycle.Cancel(ctx, id)
					if err != nil {
						return err
					}
					fmt.Printf("event %s is %s\n", e.ID, e.Status)
					return nil
				}

				actor, err := resolveActor(ctx, rt)
				if err != nil {
					return err
				}
				req := cancellation.NewRequester(rt.Lifecycle, rt.Bus, rt.Config.CancelChannel, rt.Log)
				if err := req.Request(ctx, id, actor); err != nil {
					return err
				}
				fmt.Printf("cancellation of %s queued on %s\n", id, rt.Config.CancelChannel)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&direct, "direct", false, "apply the cancellation now instead of queueing it")
	return cmd
}

func listCmd() *cobra.Command {
	var status, category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events visible to the acting user",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilter(status, category)
			if err != nil {
				return err
			}
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				actor, err := resolveActor(ctx, rt)
				if err != nil {
					return err
				}
				events, err := rt.Lifecycle.List(ctx, filter, actor)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(os.Stdout, events)
				}
				renderEvents(os.Stdout, events)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "DRAFT, PUBLISHED, CANCELLED or COMPLETED")
	cmd.Flags().StringVar(&category, "category", "", "category code")
	return cmd
}

func tokenCmd() *cobra.Command {
	var email, role, userID string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.JWTAccessTTL
			}
			raw, err := mintToken(cfg.JWTSecret, ttl, userID, email, role)
			if err != nil {
				return err
			}
			fmt.Println(raw)
			fmt.Fprintln(cmd.ErrOrStderr(), grantsLine(user.Role(strings.ToUpper(role))))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "subject email")
	cmd.Flags().StringVar(&role, "role", string(user.RoleAdmin), "USER, ORGANIZER or ADMIN")
	cmd.Flags().StringVar(&userID, "user-id", "", "subject id")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_ACCESS_TTL)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func mintToken(secret string, ttl time.Duration, userID, email, role string) (string, error) {
	r := user.Role(strings.ToUpper(role))
	switch r {
	case user.RoleUser, user.RoleOrganizer, user.RoleAdmin:
	default:
		return "", fmt.Errorf("unknown role %q", role)
	}
	return auth.NewManager(secret, ttl).GenerateAccessToken(userID, email, string(r))
}

func grantsLine(role user.Role) string {
	perms := policy.PermissionsFor(role)
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = string(p)
	}
	return fmt.Sprintf("%s grants: %s", role, strings.Join(names, ", "))
}

func parseFilter(status, category string) (event.ListFilter, error) {
	var f event.ListFilter
	if status != "" {
		st := event.Status(strings.ToUpper(status))
		if !st.IsValid() {
			return f, fmt.Errorf("unknown status %q", status)
		}
		f.Status = &st
	}
	if category != "" {
		f.CategoryCode = &category
	}
	return f, nil
}

func renderEvents(w io.Writer, events []event.Event) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"ID", "Title", "Status", "Start", "End", "Seats", "Organizer"})
	for _, e := range events {
		end := ""
		if !e.EndDate.IsZero() {
			end = e.EndDate.Format(time.RFC3339)
		}
		tw.AppendRow(table.Row{
			e.ID,
			e.Title,
			e.Status,
			e.StartDate.Format(time.RFC3339),
			end,
			fmt.Sprintf("%d/%d", e.CurrentCapacity, e.MaxCapacity),
			e.OrganizerID,
		})
	}
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendFooter(table.Row{"", "", "", "", "", "", fmt.Sprintf("%d event(s)", len(events))})
	tw.Render()
}
