package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func ocrCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ocr <image>",
		Short: "Extract raw text from a receipt image",
		Long:  `Run OCR on one image and print {"raw_text": ...}, exactly as the extract_receipt_text tool does.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), needs{llm: true})
			if err != nil {
				return err
			}
			defer a.Close()

			return printLine(cmd, a.tools.ExtractReceiptText(cmd.Context(), args[0]))
		},
	}
}

func structureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "structure [text|-]",
		Short: "Turn receipt text into categorized JSON",
		Long: `Send receipt text to the classifier together with the current categories and
print its output. Reads stdin when the argument is "-" or missing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := argOrStdin(cmd, args)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), needs{llm: true})
			if err != nil {
				return err
			}
			defer a.Close()

			return printLine(cmd, a.tools.StructureReceiptText(cmd.Context(), text))
		},
	}
}

func appendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "append [json|-]",
		Short: "Validate structured receipt JSON and append it to the sheet",
		Long:  `Validate a structured receipt document and append its rows. Reads stdin when the argument is "-" or missing.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := argOrStdin(cmd, args)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), needs{sheets: true})
			if err != nil {
				return err
			}
			defer a.Close()

			return printLine(cmd, a.tools.AppendToSheet(cmd.Context(), doc))
		},
	}
}

// argOrStdin returns the single argument, or all of stdin for "-" or no argument.
func argOrStdin(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func printLine(cmd *cobra.Command, s string) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), s)
	return err
}
