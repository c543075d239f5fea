package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/robby/cwp/internal/app"
	"github.com/robby/cwp/internal/domain"
)

func init() {
	showCmd.Flags().Bool("hidden", false, "show the hidden partition instead of the displayed one")
	sortCmd.Flags().Bool("desc", false, "sort descending")

	rootCmd.AddCommand(
		listsCmd,
		showCmd,
		itemCmd,
		createCmd,
		newWithCmd,
		removeCmd,
		renameCmd,
		selectCmd,
		memberCmd("add", "Add an item to a list", "Added", (*app.Tracker).AddToList),
		memberCmd("drop", "Remove an item from a list (from master: from every list)", "Removed", (*app.Tracker).RemoveFromList),
		memberCmd("pin", "Pin an item to the top of a list", "Pinned", (*app.Tracker).Pin),
		memberCmd("unpin", "Unpin an item", "Unpinned", (*app.Tracker).Unpin),
		memberCmd("hide", "Move an item to a list's hidden partition", "Hid", hide(true)),
		memberCmd("unhide", "Move an item back to a list's displayed partition", "Unhid", hide(false)),
		sortCmd,
		rebuildCmd,
		watchCmd,
	)
}

// mutate opens a session, applies fn and saves the result.
func mutate(cmd *cobra.Command, fn func(*app.Tracker) error) error {
	s, err := openSession(cmd.Context(), sessionOptions{})
	if err != nil {
		return err
	}
	if err := fn(s.tracker); err != nil {
		s.close()
		return err
	}
	return s.commit()
}

// inspect opens a session for reading only.
func inspect(cmd *cobra.Command, fn func(*app.Tracker) error) error {
	s, err := openSession(cmd.Context(), sessionOptions{})
	if err != nil {
		return err
	}
	defer s.close()
	return fn(s.tracker)
}

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Show every mission list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return inspect(cmd, func(t *app.Tracker) error {
			printLists(cmd.OutOrStdout(), t)
			return nil
		})
	},
}

func printLists(out io.Writer, t *app.Tracker) {
	cur := t.CurrentList()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "\tNAME\tACTIVE\tHIDDEN\tSORT")
	for _, l := range t.AllLists() {
		marker := ""
		if l == cur {
			marker = "*"
		}
		dir := "asc"
		if !l.Ascending() {
			dir = "desc"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s %s\n", marker, l.Name(), l.ActiveCount(), l.HiddenCount(), l.Criterion(), dir)
	}
	_ = w.Flush()
}

var showCmd = &cobra.Command{
	Use:   "show [list]",
	Short: "Show a list's items in display order",
	Long:  "Show a list's items in display order. Without a list name the current list is shown.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := firstArg(args)
		hidden, _ := cmd.Flags().GetBool("hidden")
		return inspect(cmd, func(t *app.Tracker) error {
			var (
				items []domain.Item
				err   error
			)
			if hidden {
				items, err = t.OrderedPartition(name, false)
			} else {
				items, err = t.OrderedView(name)
			}
			if err != nil {
				return err
			}
			printItems(cmd.OutOrStdout(), t, name, items)
			return nil
		})
	},
}

func printItems(out io.Writer, t *app.Tracker, list string, items []domain.Item) {
	if len(items) == 0 {
		_, _ = fmt.Fprintln(out, "No items")
		return
	}

	now := t.Now()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PIN\tID\tTITLE\tPLANET\tRANK\tREWARD\tREMAINING")
	for _, item := range items {
		pin := ""
		if v, ok := t.View(list, item.ID); ok && v.Pinned() {
			pin = fmt.Sprintf("%d", *v.Pin+1)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.0f\t%s\n",
			pin, shortID(item.ID), item.Title, item.Planet, item.Difficulty, item.Reward, remaining(item, now))
	}
	_ = w.Flush()
}

var itemCmd = &cobra.Command{
	Use:   "item <id>",
	Short: "Show one item and the lists holding it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect(cmd, func(t *app.Tracker) error {
			id, err := t.ResolveItem(args[0])
			if err != nil {
				return err
			}
			item, err := t.Item(id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "ID\t%s\n", item.ID)
			_, _ = fmt.Fprintf(w, "Title\t%s\n", item.Title)
			_, _ = fmt.Fprintf(w, "Type\t%s\n", item.Type)
			_, _ = fmt.Fprintf(w, "Planet\t%s\n", item.Planet)
			_, _ = fmt.Fprintf(w, "State\t%s\n", item.State)
			_, _ = fmt.Fprintf(w, "Rank\t%d\n", item.Difficulty)
			_, _ = fmt.Fprintf(w, "Reward\t%.0f\n", item.Reward)
			_, _ = fmt.Fprintf(w, "Remaining\t%s\n", remaining(item, t.Now()))
			_, _ = fmt.Fprintf(w, "Lists\t%s\n", strings.Join(t.ListsContaining(id), ", "))
			_ = w.Flush()
			if item.Note != "" {
				_, _ = fmt.Fprintf(out, "\n%s\n", item.Note)
			}
			return nil
		})
	},
}

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(t *app.Tracker) error {
			if err := t.CreateList(args[0]); err != nil {
				return err
			}
			cmd.Printf("Created %q\n", args[0])
			return nil
		})
	},
}

var newWithCmd = &cobra.Command{
	Use:   "new-with <name> <item>",
	Short: "Create a list holding one item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(t *app.Tracker) error {
			id, err := t.ResolveItem(args[1])
			if err != nil {
				return err
			}
			if err := t.NewListWithItem(args[0], id); err != nil {
				return err
			}
			cmd.Printf("Created %q with %s\n", args[0], shortID(id))
			return nil
		})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Delete a list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(t *app.Tracker) error {
			if err := t.RemoveList(args[0]); err != nil {
				return err
			}
			cmd.Printf("Removed %q\n", args[0])
			return nil
		})
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(t *app.Tracker) error {
			if err := t.RenameList(args[0], args[1]); err != nil {
				return err
			}
			cmd.Printf("Renamed %q to %q\n", args[0], args[1])
			return nil
		})
	},
}

var selectCmd = &cobra.Command{
	Use:   "select <name>",
	Short: "Associate a list with the active vessel",
	Long: `Make a list the current list and associate it with the configured vessel,
so it is selected whenever that vessel is active. Requires --vessel.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(t *app.Tracker) error {
			if t.Vessel() == uuid.Nil {
				return errors.New("select needs a vessel (--vessel or CWP_VESSEL)")
			}
			if err := t.Select(args[0]); err != nil {
				return err
			}
			cmd.Printf("Selected %q for vessel %s\n", t.CurrentList().Name(), t.Vessel())
			return nil
		})
	},
}

// memberCmd builds a "<verb> <list> <item>" command over a tracker operation.
func memberCmd(use, short, done string, op func(*app.Tracker, string, domain.ItemID) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <list> <item>",
		Short: short,
		Long:  short + ". The item is a full id or a unique prefix of one.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, func(t *app.Tracker) error {
				id, err := t.ResolveItem(args[1])
				if err != nil {
					return err
				}
				if err := op(t, args[0], id); err != nil {
					return err
				}
				cmd.Printf("%s %s in %q\n", done, shortID(id), args[0])
				return nil
			})
		},
	}
}

func hide(hidden bool) func(*app.Tracker, string, domain.ItemID) error {
	return func(t *app.Tracker, list string, id domain.ItemID) error {
		return t.SetHidden(list, id, hidden)
	}
}

var sortCmd = &cobra.Command{
	Use:   "sort <list> <criterion>",
	Short: "Set a list's sort order",
	Long: `Set a list's sort order. Pinned items always come first.

Criteria: planet, expiration, acceptance, reward, difficulty, type.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		criterion, err := domain.ParseCriterion(args[1])
		if err != nil {
			return err
		}
		desc, _ := cmd.Flags().GetBool("desc")
		return mutate(cmd, func(t *app.Tracker) error {
			if err := t.SetSort(args[0], criterion, !desc); err != nil {
				return err
			}
			dir := "ascending"
			if desc {
				dir = "descending"
			}
			cmd.Printf("Sorting %q by %s, %s\n", args[0], criterion, dir)
			return nil
		})
	},
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Discard every list and rebuild master from the item source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return mutate(cmd, func(t *app.Tracker) error {
			if err := t.Rebuild(cmd.Context()); err != nil {
				return err
			}
			cmd.Printf("Rebuilt master with %d items\n", t.Registry().Master().Len())
			return nil
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the lists in step with the item source until interrupted",
	Long: `Keep the lists in step with the item source until interrupted.

The source is refreshed every refresh_interval, source events are applied as
they arrive and the document is reloaded when it changes on disk. The lists
are saved on exit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		s, err := openSession(cmd.Context(), sessionOptions{
			OnChange: func(t *app.Tracker) {
				cur := t.CurrentList()
				_, _ = fmt.Fprintf(out, "%s  %d lists, master %d, current %q (%d shown)\n",
					t.Now().Format(time.TimeOnly), len(t.Names()), t.Registry().Master().Len(),
					cur.Name(), cur.ActiveCount())
			},
		})
		if err != nil {
			return err
		}
		defer s.close()
		return s.tracker.Run(cmd.Context())
	},
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func shortID(id domain.ItemID) string {
	return id.String()[:8]
}

func remaining(item domain.Item, now time.Time) string {
	if item.State != domain.StateActive {
		return item.State.String()
	}
	r := item.Remaining(now)
	switch {
	case r == domain.NoExpiry:
		return "-"
	case r <= 0:
		return "expired"
	default:
		return r.Round(time.Minute).String()
	}
}
