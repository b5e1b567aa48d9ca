package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-receipts-must-flow/internal/cli"
	"github.com/Veraticus/the-receipts-must-flow/internal/service"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage spending categories",
		Long:  `List, add, and remove the categories the classifier may assign to line items.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(removeCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			a, err := newApp(cmd.Context(), needs{})
			if err != nil {
				return err
			}
			defer a.Close()

			set, err := a.engine.Categories(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string][]string{"categories": set.Names()})
			}
			return printLine(cmd, cli.FormatCategories(set.Names()))
		},
	}

	cmd.Flags().Bool("json", false, "Print categories as JSON")
	return cmd
}

func addCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), needs{})
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.engine.AddCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printLine(cmd, formatCategoryResult(res))
		},
	}
}

func removeCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a category",
		Long: `Remove a category. Rows already in the sheet keep their category; the
classifier simply stops offering it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")

			a, err := newApp(cmd.Context(), needs{})
			if err != nil {
				return err
			}
			defer a.Close()

			if !yes {
				reader := cli.NewNonBlockingReader(cmd.InOrStdin())
				ok, err := reader.Confirm(cmd.Context(), cmd.OutOrStdout(), fmt.Sprintf("Remove category %q?", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					return printLine(cmd, cli.FormatInfo("Nothing removed"))
				}
			}

			res, err := a.engine.RemoveCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printLine(cmd, formatCategoryResult(res))
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func formatCategoryResult(res service.CategoryResult) string {
	switch res.Status {
	case service.CategoryAdded:
		return cli.FormatSuccess(fmt.Sprintf("Added %q (%d categories)", res.Category, res.Categories.Len()))
	case service.CategoryExists:
		return cli.FormatWarning(fmt.Sprintf("%q already exists", res.Category))
	case service.CategoryRemoved:
		return cli.FormatSuccess(fmt.Sprintf("Removed %q (%d categories)", res.Category, res.Categories.Len()))
	case service.CategoryNotFound:
		return cli.FormatWarning(fmt.Sprintf("%q not found", res.Category))
	default:
		return cli.FormatInfo(string(res.Status))
	}
}
