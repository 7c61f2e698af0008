package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"topikbank/internal/app"
	"topikbank/internal/db"
	"topikbank/internal/exam"
	"topikbank/internal/importer"
	"topikbank/internal/sheet"
)

var previewCmd = &cobra.Command{
	Use:   "preview <workbook.xlsx>",
	Short: "Parse a workbook and print the draft exams as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

var importCmd = &cobra.Command{
	Use:   "import <workbook.xlsx>",
	Short: "Parse a workbook and store every valid exam",
	Long: `Parses every exam sheet of the workbook and saves the result.

Sheets that produce no valid question are reported and skipped. Each exam is
saved on its own, so one failure does not stop the rest.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runPreview(cmd *cobra.Command, args []string) error {
	batch, err := assembleFile(args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), batch)
}

func runImport(cmd *cobra.Command, args []string) error {
	batch, err := assembleFile(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, rej := range batch.Rejected {
		fmt.Fprintf(out, "rejected %q: %s\n", rej.Sheet, rej.Reason)
	}
	if len(batch.Exams) == 0 {
		return fmt.Errorf("%s: no importable sheets", args[0])
	}

	exams := make([]exam.Exam, 0, len(batch.Exams))
	for _, res := range batch.Exams {
		for _, re := range res.Errors {
			fmt.Fprintf(out, "%s\n", re.Error())
		}
		exams = append(exams, res.Exam)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	svc, closeDB, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	report := svc.SaveAll(ctx, exams)
	for _, se := range report.Errors {
		fmt.Fprintf(out, "failed %q: %s\n", se.Title, se.Error)
	}
	fmt.Fprintf(out, "saved %d exam(s), %d failed\n", report.Saved, report.Failed)
	if report.Failed > 0 {
		return fmt.Errorf("%d exam(s) could not be saved", report.Failed)
	}
	return nil
}

func assembleFile(path string) (importer.Batch, error) {
	wb, err := readWorkbookFile(path)
	if err != nil {
		return importer.Batch{}, err
	}
	opts := importer.Options{StrictAnswers: strict}
	return importer.NewAssembler(opts, cliLogger()).Assemble(wb), nil
}

func readWorkbookFile(path string) (*sheet.Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	wb, err := sheet.ReadWorkbook(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wb, nil
}

func openService(ctx context.Context) (*exam.Service, func(), error) {
	dbCfg, err := app.LoadConfig().DB()
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.Open(ctx, dbCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	return exam.NewService(conn), func() { _ = conn.Close() }, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
