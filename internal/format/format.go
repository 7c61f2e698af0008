// Package format holds the official per-slot question format of both TOPIK II papers.
//
// Every slot on a paper is described by one Entry. The table is built once at package
// initialisation and never changes afterwards; it decides which inputs a slot requires
// when a spreadsheet row is mapped into a question.
package format

import (
	"fmt"

	"topikbank/internal/exam"
)

// UIType is the discriminant that tells editors and renderers how a slot is laid out.
type UIType string

const (
	UIFillBlank      UIType = "fill_blank"
	UISimilarMeaning UIType = "similar_meaning"
	UIImageTopic     UIType = "image_topic"
	UIImageMatch     UIType = "image_match"
	UIPassageMatch   UIType = "passage_match"
	UIOrdering       UIType = "ordering"
	UIPassageBlank   UIType = "passage_blank"
	UIHeadline       UIType = "headline"
	UIMainIdea       UIType = "main_idea"
	UIInsertion      UIType = "insertion"
	UIGroupPassage   UIType = "group_passage"
	UIListenPicture  UIType = "listen_picture"
	UIListenDialog   UIType = "listen_dialog"
	UIListenGroup    UIType = "listen_group"
)

const DefaultScore = 2

var (
	InsertionSymbols = []string{"㉠", "㉡", "㉢", "㉣"}
	NumberSymbols    = []string{"①", "②", "③", "④"}
)

type Entry struct {
	Number            int            `json:"number"`
	Paper             exam.PaperType `json:"paper"`
	UIType            UIType         `json:"ui_type"`
	Instruction       string         `json:"instruction"`
	Question          string         `json:"question"`
	NeedsQuestion     bool           `json:"needs_question"`
	NeedsPassage      bool           `json:"needs_passage"`
	NeedsImage        bool           `json:"needs_image"`
	NeedsContextBox   bool           `json:"needs_context_box"`
	NeedsOptionImages bool           `json:"needs_option_images"`
	FixedOptions      []string       `json:"fixed_options,omitempty"`
	GroupStart        int            `json:"group_start"`
	GroupSize         int            `json:"group_size"`
	Score             int            `json:"score"`
}

// HasFixedOptions reports whether the slot stores a fixed symbol set instead of option text.
func (e Entry) HasFixedOptions() bool {
	return len(e.FixedOptions) == exam.OptionCount
}

func (e Entry) IsGroupStart() bool {
	return e.GroupStart == e.Number
}

type key struct {
	number int
	paper  exam.PaperType
}

var table = map[key]Entry{}

func init() {
	for _, e := range readingEntries() {
		register(e)
	}
	for _, e := range listeningEntries() {
		register(e)
	}
	for _, p := range []exam.PaperType{exam.PaperReading, exam.PaperListening} {
		for n := 1; n <= exam.SlotCount; n++ {
			if _, ok := table[key{n, p}]; !ok {
				panic(fmt.Sprintf("format: slot %d missing for %s paper", n, p))
			}
		}
	}
}

func register(e Entry) {
	k := key{e.Number, e.Paper}
	if _, dup := table[k]; dup {
		panic(fmt.Sprintf("format: slot %d registered twice for %s paper", e.Number, e.Paper))
	}
	if e.Score <= 0 {
		e.Score = DefaultScore
	}
	if e.GroupStart == 0 {
		e.GroupStart = e.Number
		e.GroupSize = 1
	}
	table[k] = e
}

// Lookup returns the format entry for a slot on a paper.
func Lookup(number int, paper exam.PaperType) (Entry, bool) {
	e, ok := table[key{number, paper}]
	if !ok {
		return Entry{}, false
	}
	e.FixedOptions = append([]string(nil), e.FixedOptions...)
	return e, true
}

// Table returns all entries of a paper ordered by slot number.
func Table(paper exam.PaperType) []Entry {
	if !paper.Valid() {
		return nil
	}
	out := make([]Entry, 0, exam.SlotCount)
	for n := 1; n <= exam.SlotCount; n++ {
		e, _ := Lookup(n, paper)
		out = append(out, e)
	}
	return out
}
