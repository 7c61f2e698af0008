package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"topikbank/internal/importer"
)

func setupCLI(t *testing.T) (string, *bytes.Buffer, *cobra.Command) {
	t.Helper()
	logger = zap.NewNop()
	timeout = time.Minute
	strict = false
	patchSheetName = ""

	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(dir, "cli.db"))

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	return dir, &out, cmd
}

func writeSourceWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	name := "제91회 읽기"
	if err := f.SetSheetName("Sheet1", name); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	rows := [][]any{
		{"번호", "선택지1", "선택지2", "선택지3", "선택지4", "정답"},
		{1, "가다", "오다", "보다", "하다", "A"},
		{2, "먹고", "먹어서", "먹으면", "먹지만", "3"},
		{3, "빨리", "천천히", "조금", "많이", "②"},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(name, cell, &r); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
}

func TestPreviewPrintsBatch(t *testing.T) {
	dir, out, cmd := setupCLI(t)
	src := filepath.Join(dir, "source.xlsx")
	writeSourceWorkbook(t, src)

	if err := runPreview(cmd, []string{src}); err != nil {
		t.Fatalf("runPreview: %v", err)
	}
	var batch importer.Batch
	if err := json.Unmarshal(out.Bytes(), &batch); err != nil {
		t.Fatalf("decode preview: %v\n%s", err, out.String())
	}
	if len(batch.Exams) != 1 || len(batch.Exams[0].Exam.Questions) != 3 {
		t.Fatalf("unexpected batch: %+v", batch)
	}
	if got := batch.Exams[0].Exam.Questions[1].CorrectAnswer; got != 2 {
		t.Fatalf("expected answer index 2 for slot 2, got %d", got)
	}
}

func TestImportPatchExport(t *testing.T) {
	dir, out, cmd := setupCLI(t)
	src := filepath.Join(dir, "source.xlsx")
	writeSourceWorkbook(t, src)

	if err := runImport(cmd, []string{src}); err != nil {
		t.Fatalf("runImport: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "saved 1 exam(s), 0 failed") {
		t.Fatalf("unexpected import output: %s", out.String())
	}

	ctx := context.Background()
	svc, closeDB, err := openService(ctx)
	if err != nil {
		t.Fatalf("open service: %v", err)
	}
	page, err := svc.ListExams(ctx, 1, 10)
	closeDB()
	if err != nil || len(page.Items) != 1 {
		t.Fatalf("expected one stored exam, got %+v (%v)", page, err)
	}
	id := page.Items[0].ID

	patchFile := filepath.Join(dir, "fix.json")
	doc := `[{"id":2,"options":["먹고","먹어서","먹으면","먹는데"],"correctAnswer":3},{"id":40,"options":["a","b","c","d"]}]`
	if err := os.WriteFile(patchFile, []byte(doc), 0o644); err != nil {
		t.Fatalf("write patch: %v", err)
	}
	out.Reset()
	if err := runPatch(cmd, []string{id, patchFile}); err != nil {
		t.Fatalf("runPatch: %v", err)
	}
	if !strings.Contains(out.String(), "changed 1 question(s): [2]") || !strings.Contains(out.String(), "not in exam: [40]") {
		t.Fatalf("unexpected patch output: %s", out.String())
	}

	dst := filepath.Join(dir, "export.xlsx")
	out.Reset()
	if err := runExport(cmd, []string{id, dst}); err != nil {
		t.Fatalf("runExport: %v", err)
	}
	wb, err := readWorkbookFile(dst)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	rows := wb.Sheets[0].DataRows()
	if len(rows) != 3 {
		t.Fatalf("expected 3 exported rows, got %d", len(rows))
	}
	if got := rows[1].Cells[9]; got != "D" {
		t.Fatalf("patched answer should export as D, got %q", got)
	}
}

func TestTemplateCommand(t *testing.T) {
	dir, _, cmd := setupCLI(t)
	templatePaper = "listening"
	templateRound = 91
	dst := filepath.Join(dir, "template.xlsx")

	if err := runTemplate(cmd, []string{dst}); err != nil {
		t.Fatalf("runTemplate: %v", err)
	}
	wb, err := readWorkbookFile(dst)
	if err != nil {
		t.Fatalf("read template: %v", err)
	}
	if n := len(wb.Sheets[0].DataRows()); n != 50 {
		t.Fatalf("expected 50 template rows, got %d", n)
	}

	templatePaper = "writing"
	if err := runTemplate(cmd, []string{dst}); err == nil {
		t.Fatalf("expected error for unknown paper")
	}
}

func TestHashKeyCommand(t *testing.T) {
	_, out, cmd := setupCLI(t)
	hashCost = 4
	if err := runHashKey(cmd, []string{"short"}); err == nil {
		t.Fatalf("expected error for a short key")
	}
	if err := runHashKey(cmd, []string{"a-long-enough-admin-key"}); err != nil {
		t.Fatalf("runHashKey: %v", err)
	}
	if !strings.HasPrefix(out.String(), "$2a$04$") {
		t.Fatalf("unexpected hash output: %q", out.String())
	}
}
