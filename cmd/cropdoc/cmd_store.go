package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cropdoc/internal/articulation"
	"cropdoc/internal/types"
)

// newOwnerCmd builds the "plans" or "lists" command group.
func newOwnerCmd(use, kindName string) *cobra.Command {
	kind, _ := types.ParseOwnerKind(kindName)
	group := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Manage %s", use),
	}

	group.AddCommand(&cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("Show all %s with their tasks", use),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			owners, err := st.ListAll(cmd.Context(), kind)
			if err != nil {
				return err
			}
			return articulation.RenderOwners(cmd.OutOrStdout(), owners)
		},
	})

	group.AddCommand(&cobra.Command{
		Use:   "show ID",
		Short: fmt.Sprintf("Show one %s with its tasks", kindName),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			owner, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return articulation.RenderOwners(cmd.OutOrStdout(), []types.Owner{owner})
		},
	})

	var area string
	create := &cobra.Command{
		Use:   "create " + createArg(kind),
		Short: fmt.Sprintf("Create a %s", kindName),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			title := strings.Join(args, " ")
			var meta map[string]string
			if kind == types.OwnerPlan {
				meta = map[string]string{"crop": title}
				if area != "" {
					meta["area"] = area
				}
			}
			owner, err := st.Create(cmd.Context(), kind, title, meta)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q (%s)\n", kindName, owner.Title, owner.ID)
			return nil
		},
	}
	if kind == types.OwnerPlan {
		create.Flags().StringVar(&area, "area", "", "Planted area, e.g. \"0.5 acres\"")
	}
	group.AddCommand(create)

	group.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: fmt.Sprintf("Delete a %s and its tasks", kindName),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	})
	return group
}

func newTasksCmd() *cobra.Command {
	group := &cobra.Command{
		Use:   "tasks",
		Short: "Manage tasks",
	}
	group.AddCommand(&cobra.Command{
		Use:   "add OWNER_ID TEXT",
		Short: "Append a task to a list or plan",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			task, err := st.AddTask(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task %s to %s\n", task.ID, args[0])
			return nil
		},
	})
	return group
}

func newRecentCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recently added tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			feed, err := st.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return articulation.RenderRecent(cmd.OutOrStdout(), feed)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of tasks (0 for all)")
	return cmd
}

func createArg(kind types.OwnerKind) string {
	if kind == types.OwnerPlan {
		return "CROP"
	}
	return "TITLE"
}
