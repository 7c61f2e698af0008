package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"topikbank/internal/importer"
)

var patchSheetName string

var patchCmd = &cobra.Command{
	Use:   "patch <exam-id> <corrections.xlsx|corrections.json>",
	Short: "Merge corrections into a stored exam",
	Long: `Applies a sparse correction file to an exam.

Only non-empty cells (or present JSON fields) overwrite the stored values.
Question numbers that do not exist in the exam are listed as missing.`,
	Args: cobra.ExactArgs(2),
	RunE: runPatch,
}

var exportCmd = &cobra.Command{
	Use:   "export <exam-id> <out.xlsx>",
	Short: "Write a stored exam to a workbook that re-imports unchanged",
	Args:  cobra.ExactArgs(2),
	RunE:  runExport,
}

func runPatch(cmd *cobra.Command, args []string) error {
	id, path := args[0], args[1]
	patches, err := loadPatches(cmd, path)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	svc, closeDB, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	current, err := svc.GetExam(ctx, id)
	if err != nil {
		return err
	}
	merged, report := importer.Merge(*current, patches)
	if report.Changed > 0 {
		if err := svc.SaveExam(ctx, &merged); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "changed %d question(s)", report.Changed)
	if len(report.ChangedNumbers) > 0 {
		fmt.Fprintf(out, ": %v", report.ChangedNumbers)
	}
	fmt.Fprintln(out)
	if len(report.Missing) > 0 {
		fmt.Fprintf(out, "not in exam: %v\n", report.Missing)
	}
	return nil
}

func loadPatches(cmd *cobra.Command, path string) ([]importer.Patch, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return importer.PatchesFromJSON(data)
	}

	wb, err := readWorkbookFile(path)
	if err != nil {
		return nil, err
	}
	s, ok := importer.SelectSheet(wb, patchSheetName)
	if !ok {
		return nil, fmt.Errorf("%s: no usable sheet", path)
	}
	patches, rowErrs := importer.PatchesFromSheet(s, importer.Options{StrictAnswers: strict})
	for _, re := range rowErrs {
		fmt.Fprintln(cmd.ErrOrStderr(), re.Error())
	}
	return patches, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	svc, closeDB, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	e, err := svc.GetExam(ctx, args[0])
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := importer.WriteWorkbook(&buf, *e); err != nil {
		return err
	}
	if err := os.WriteFile(args[1], buf.Bytes(), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d question(s) to %s\n", len(e.Questions), args[1])
	return nil
}
