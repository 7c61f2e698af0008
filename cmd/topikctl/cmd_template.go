package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"topikbank/internal/auth"
	"topikbank/internal/exam"
	"topikbank/internal/importer"
)

var (
	templatePaper string
	templateRound int
	hashCost      int
)

var templateCmd = &cobra.Command{
	Use:   "template <out.xlsx>",
	Short: "Write a blank 50-question workbook for one paper",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplate,
}

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key <key>",
	Short: "Print the bcrypt hash to put in ADMIN_KEY_HASH",
	Args:  cobra.ExactArgs(1),
	RunE:  runHashKey,
}

func runTemplate(cmd *cobra.Command, args []string) error {
	paper := exam.ParsePaperType(templatePaper)
	if !paper.Valid() {
		return fmt.Errorf("unknown paper %q: use reading or listening", templatePaper)
	}
	var buf bytes.Buffer
	if err := importer.WriteTemplate(&buf, paper, templateRound); err != nil {
		return err
	}
	if err := os.WriteFile(args[0], buf.Bytes(), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s template to %s\n", paper.Label(), args[0])
	return nil
}

func runHashKey(cmd *cobra.Command, args []string) error {
	hash, err := auth.HashKey(args[0], hashCost)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
