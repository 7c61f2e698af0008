package format

import (
	"strconv"

	"topikbank/internal/exam"
)

const (
	qBlank         = "(    )에 들어갈 내용으로 가장 알맞은 것을 고르십시오."
	qSameContent   = "위 글의 내용과 같은 것을 고르십시오."
	qHeardSame     = "들은 내용과 같은 것을 고르십시오."
	qManIdea       = "남자의 중심 생각으로 가장 알맞은 것을 고르십시오."
	qWomanIdea     = "여자의 중심 생각으로 가장 알맞은 것을 고르십시오."
	qManDoing      = "남자가 무엇을 하고 있는지 고르십시오."
	qAboutWhat     = "무엇에 대한 내용인지 가장 알맞은 것을 고르십시오."
	qManAttitude   = "남자의 태도로 가장 알맞은 것을 고르십시오."
	qWomanAttitude = "여자의 태도로 가장 알맞은 것을 고르십시오."
)

// singles describes a run of independent slots that share one instruction.
func singles(paper exam.PaperType, from, to int, ui UIType, instruction string, tune func(*Entry)) []Entry {
	out := make([]Entry, 0, to-from+1)
	for n := from; n <= to; n++ {
		e := Entry{Number: n, Paper: paper, UIType: ui, Instruction: instruction}
		if tune != nil {
			tune(&e)
		}
		out = append(out, e)
	}
	return out
}

// group describes slots that answer questions about one shared passage or recording.
// Only the first slot of the group carries the shared-input requirements set by tuneStart.
func group(paper exam.PaperType, start int, ui UIType, instruction string, questions []string, tuneStart func(*Entry)) []Entry {
	out := make([]Entry, 0, len(questions))
	for i, q := range questions {
		e := Entry{
			Number:      start + i,
			Paper:       paper,
			UIType:      ui,
			Instruction: instruction,
			Question:    q,
			GroupStart:  start,
			GroupSize:   len(questions),
		}
		if i == 0 && tuneStart != nil {
			tuneStart(&e)
		}
		out = append(out, e)
	}
	return out
}

func needsQuestion(e *Entry) { e.NeedsQuestion = true }
func needsPassage(e *Entry) { e.NeedsPassage = true }
func needsImage(e *Entry) { e.NeedsImage = true }
func needsBox(e *Entry) { e.NeedsContextBox = true }

func insertion(e *Entry) {
	e.NeedsPassage = true
	e.NeedsContextBox = true
	e.FixedOptions = InsertionSymbols
}

func readingEntries() []Entry {
	p := exam.PaperReading
	var out []Entry
	add := func(es []Entry) { out = append(out, es...) }

	add(singles(p, 1, 2, UIFillBlank, "※ [1~2] (    )에 들어갈 가장 알맞은 것을 고르십시오. (각 2점)", needsQuestion))
	add(singles(p, 3, 4, UISimilarMeaning, "※ [3~4] 밑줄 친 부분과 의미가 비슷한 것을 고르십시오. (각 2점)", needsQuestion))
	add(singles(p, 5, 8, UIImageTopic, "※ [5~8] 다음은 무엇에 대한 글인지 고르십시오. (각 2점)", needsImage))
	add(singles(p, 9, 10, UIImageMatch, "※ [9~12] 다음 글 또는 도표의 내용과 같은 것을 고르십시오. (각 2점)", needsImage))
	add(singles(p, 11, 12, UIPassageMatch, "※ [9~12] 다음 글 또는 도표의 내용과 같은 것을 고르십시오. (각 2점)", needsPassage))
	add(singles(p, 13, 15, UIOrdering, "※ [13~15] 다음을 순서대로 맞게 배열한 것을 고르십시오. (각 2점)", needsBox))
	add(singles(p, 16, 18, UIPassageBlank, "※ [16~18] 다음을 읽고 (    )에 들어갈 내용으로 가장 알맞은 것을 고르십시오. (각 2점)", needsPassage))

	add(group(p, 19, UIGroupPassage, "※ [19~20] 다음을 읽고 물음에 답하십시오. (각 2점)",
		[]string{"(    )에 들어갈 알맞은 것을 고르십시오.", qSameContent}, needsPassage))
	add(group(p, 21, UIGroupPassage, "※ [21~22] 다음을 읽고 물음에 답하십시오. (각 2점)",
		[]string{"(    )에 들어갈 알맞은 것을 고르십시오.", qSameContent}, needsPassage))
	add(group(p, 23, UIGroupPassage, "※ [23~24] 다음을 읽고 물음에 답하십시오. (각 2점)",
		[]string{"밑줄 친 부분에 나타난 '나'의 심정으로 알맞은 것을 고르십시오.", qSameContent}, needsPassage))

	add(singles(p, 25, 27, UIHeadline, "※ [25~27] 다음은 신문 기사의 제목입니다. 가장 잘 설명한 것을 고르십시오. (각 2점)", needsPassage))
	add(singles(p, 28, 31, UIPassageBlank, "※ [28~31] 다음을 읽고 (    )에 들어갈 내용으로 가장 알맞은 것을 고르십시오. (각 2점)", needsPassage))
	add(singles(p, 32, 34, UIPassageMatch, "※ [32~34] 다음을 읽고 내용이 같은 것을 고르십시오. (각 2점)", needsPassage))
	add(singles(p, 35, 38, UIMainIdea, "※ [35~38] 다음 글의 주제로 가장 알맞은 것을 고르십시오. (각 2점)", needsPassage))
	add(singles(p, 39, 41, UIInsertion, "※ [39~41] 주어진 문장이 들어갈 곳으로 가장 알맞은 것을 고르십시오. (각 2점)", insertion))

	add(group(p, 42, UIGroupPassage, "※ [42~43] 다음을 읽고 물음에 답하십시오. (각 2점)",
		[]string{"밑줄 친 부분에 나타난 인물의 심정으로 가장 알맞은 것을 고르십시오.", "위 글의 내용으로 알 수 있는 것을 고르십시오."}, needsPassage))
	add(group(p, 44, UIGroupPassage, "※ [44~45] 다음을 읽고 물음에 답하십시오. (각 2점)",
		[]string{"위 글의 주제로 가장 알맞은 것을 고르십시오.", qBlank}, needsPassage))

	g46 := group(p, 46, UIGroupPassage, "※ [46~47] 다음을 읽고 물음에 답하십시오. (각 2점)",
		[]string{"위 글에서 <보기>의 글이 들어갈 곳으로 가장 알맞은 것을 고르십시오.", qSameContent}, insertion)
	g46[0].UIType = UIInsertion
	add(g46)

	add(group(p, 48, UIGroupPassage, "※ [48~50] 다음을 읽고 물음에 답하십시오. (각 2점)",
		[]string{"필자가 이 글을 쓴 목적으로 알맞은 것을 고르십시오.", qBlank, "밑줄 친 부분에 나타난 필자의 태도로 가장 알맞은 것을 고르십시오."}, needsPassage))
	return out
}

func listeningEntries() []Entry {
	p := exam.PaperListening
	var out []Entry
	add := func(es []Entry) { out = append(out, es...) }

	add(singles(p, 1, 3, UIListenPicture, "※ [1~3] 다음을 듣고 알맞은 그림 또는 그래프를 고르십시오. (각 2점)", func(e *Entry) {
		e.NeedsOptionImages = true
		e.FixedOptions = NumberSymbols
	}))
	add(singles(p, 4, 8, UIListenDialog, "※ [4~8] 다음 대화를 잘 듣고 이어질 수 있는 말로 가장 알맞은 것을 고르십시오. (각 2점)", nil))
	add(singles(p, 9, 12, UIListenDialog, "※ [9~12] 다음 대화를 잘 듣고 여자가 이어서 할 행동으로 가장 알맞은 것을 고르십시오. (각 2점)", nil))
	add(singles(p, 13, 16, UIListenDialog, "※ [13~16] 다음을 듣고 들은 내용과 같은 것을 고르십시오. (각 2점)", nil))
	add(singles(p, 17, 20, UIListenDialog, "※ [17~20] 다음을 듣고 남자의 중심 생각으로 가장 알맞은 것을 고르십시오. (각 2점)", nil))

	// Slots 21-50 are fifteen two-question groups, one recording each.
	pairs := [][2]string{
		{qManIdea, qHeardSame},
		{qManDoing, qHeardSame},
		{qManIdea, qHeardSame},
		{"남자가 말하는 의도로 알맞은 것을 고르십시오.", qHeardSame},
		{"남자가 누구인지 고르십시오.", qHeardSame},
		{qManIdea, qManAttitude},
		{qAboutWhat, qHeardSame},
		{qManDoing, qHeardSame},
		{qWomanIdea, qHeardSame},
		{"이 대화 전의 내용으로 가장 알맞은 것을 고르십시오.", qHeardSame},
		{"이 강연의 중심 내용으로 가장 알맞은 것을 고르십시오.", qHeardSame},
		{qAboutWhat, "들은 내용으로 알 수 있는 것을 고르십시오."},
		{qHeardSame, qWomanAttitude},
		{qHeardSame, qManAttitude},
		{qHeardSame, qManAttitude},
	}
	for i, pair := range pairs {
		start := 21 + i*2
		instruction := "※ [" + strconv.Itoa(start) + "~" + strconv.Itoa(start+1) + "] 다음을 듣고 물음에 답하십시오. (각 2점)"
		add(group(p, start, UIListenGroup, instruction, pair[:], nil))
	}
	return out
}
