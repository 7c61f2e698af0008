package asset

import (
	"context"
	"fmt"
	"io"

	"topikbank/internal/exam"
)

// Uploader stores one image and returns the URL it is served from.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
}

// File is one uploaded image. Open is called at most once.
type File struct {
	Name string
	Open func() (io.ReadCloser, error)
}

type Attached struct {
	File     string `json:"file"`
	Question int    `json:"question"`
	Option   int    `json:"option"`
	URL      string `json:"url"`
}

type Failure struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

type Report struct {
	Attached []Attached `json:"attached"`
	Failed   []Failure  `json:"failed"`
}

// AttachOptionImages uploads files one after another and records each URL on the question
// and option named by the file. Files that cannot be matched or uploaded are reported and
// skipped. Question existence is checked against the exam as it was when the call started.
func AttachOptionImages(ctx context.Context, state *State, files []File, up Uploader) Report {
	report := Report{Attached: []Attached{}, Failed: []Failure{}}
	snapshot := state.Snapshot()

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			for _, rest := range files[i:] {
				report.Failed = append(report.Failed, Failure{File: rest.Name, Reason: "cancelled"})
			}
			break
		}

		q, opt, ok := ParseFilename(f.Name)
		if !ok {
			report.Failed = append(report.Failed, Failure{File: f.Name, Reason: "file name does not encode a question and option"})
			continue
		}
		if opt < 1 || opt > exam.OptionCount {
			report.Failed = append(report.Failed, Failure{File: f.Name, Reason: fmt.Sprintf("option %d out of range 1-%d", opt, exam.OptionCount)})
			continue
		}
		if snapshot.QuestionIndex(q) < 0 {
			report.Failed = append(report.Failed, Failure{File: f.Name, Reason: fmt.Sprintf("question %d not in exam", q)})
			continue
		}

		url, err := attachOne(ctx, state, f, q, opt, up)
		if err != nil {
			report.Failed = append(report.Failed, Failure{File: f.Name, Reason: err.Error()})
			continue
		}
		report.Attached = append(report.Attached, Attached{File: f.Name, Question: q, Option: opt, URL: url})
	}
	return report
}

func attachOne(ctx context.Context, state *State, f File, q, opt int, up Uploader) (string, error) {
	if err := state.Dispatch(Action{Kind: ActionMarkInProgress, Question: q, Option: opt}); err != nil {
		return "", err
	}
	defer func() {
		_ = state.Dispatch(Action{Kind: ActionClearInProgress, Question: q, Option: opt})
	}()

	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()

	url, err := up.Upload(ctx, f.Name, rc)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	if err := state.Dispatch(Action{Kind: ActionSetOptionImage, Question: q, Option: opt, URL: url}); err != nil {
		return "", err
	}
	return url, nil
}
