package asset

import "testing"

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name     string
		question int
		option   int
		ok       bool
	}{
		{name: "Q5_Option2.png", question: 5, option: 2, ok: true},
		{name: "q12-option4.JPG", question: 12, option: 4, ok: true},
		{name: "Q5Option1.webp", question: 5, option: 1, ok: true},
		{name: "Q5-O2.png", question: 5, option: 2, ok: true},
		{name: "q3o4.png", question: 3, option: 4, ok: true},
		{name: "5_O2.png", question: 5, option: 2, ok: true},
		{name: "17o1.gif", question: 17, option: 1, ok: true},
		{name: "Q5_2.png", question: 5, option: 2, ok: true},
		{name: "5_2.png", question: 5, option: 2, ok: true},
		{name: "5-2.jpeg", question: 5, option: 2, ok: true},
		{name: "5-option2.png", question: 5, option: 2, ok: true},
		{name: "5 option 3.png", question: 5, option: 3, ok: true},
		{name: "images/listening/Q1_Option3.png", question: 1, option: 3, ok: true},
		{name: `C:\upload\Q2_Option1.png`, question: 2, option: 1, ok: true},
		{name: "Q5_Option7.png", question: 5, option: 7, ok: true},
		{name: "random.png", ok: false},
		{name: "52.png", ok: false},
		{name: "Q5.png", ok: false},
		{name: "Q5_OptionA.png", ok: false},
		{name: "", ok: false},
	}
	for _, tc := range tests {
		q, o, ok := ParseFilename(tc.name)
		if ok != tc.ok || q != tc.question || o != tc.option {
			t.Fatalf("ParseFilename(%q) = (%d, %d, %v), want (%d, %d, %v)", tc.name, q, o, ok, tc.question, tc.option, tc.ok)
		}
	}
}
