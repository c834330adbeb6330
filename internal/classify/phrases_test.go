package classify

import "testing"

func TestPhrasePredicates(t *testing.T) {
	type want struct{ hesitation, repair, exit, rejection bool }
	tests := []struct {
		name  string
		input string
		want  want
	}{
		{"hmm", "hmm", want{hesitation: true}},
		{"let-me-think", "Let me think...", want{hesitation: true}},
		{"not-that-one", "not that one", want{repair: true}},
		{"i-meant", "no I meant", want{repair: true}},
		{"cancel", "cancel", want{exit: true}},
		{"never-mind-polite", "never mind, thanks", want{exit: true}},
		{"no-thanks", "no thanks", want{exit: true}},
		{"none-of-these", "none of these", want{rejection: true}},
		{"none-of-those-punct", "None of those!", want{rejection: true}},
		{"compound-rejection", "none of those, open dashboard", want{}},
		{"plain-no", "no", want{}},
		{"plain-yes", "yes", want{}},
		{"command", "open recent", want{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := want{
				hesitation: IsHesitationPhrase(tt.input),
				repair:     IsRepairPhrase(tt.input),
				exit:       IsExitPhrase(tt.input),
				rejection:  IsListRejectionPhrase(tt.input),
			}
			if got != tt.want {
				t.Errorf("%q: got %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestExitPhrase_NoneOfTheseIsNotExit(t *testing.T) {
	if IsExitPhrase("none of these") {
		t.Error("none of these must route to refine, not exit")
	}
}

func TestPhraseSetsAreDisjoint(t *testing.T) {
	sets := map[string]map[string]bool{
		"hesitation": hesitationPhrases,
		"repair":     repairPhrases,
		"exit":       exitPhrases,
		"rejection":  listRejectionPhrases,
	}
	for nameA, a := range sets {
		for phrase := range a {
			for nameB, b := range sets {
				if nameA == nameB {
					continue
				}
				if b[phrase] {
					t.Errorf("%q is in both %s and %s", phrase, nameA, nameB)
				}
			}
			matches := 0
			for _, pred := range []func(string) bool{IsHesitationPhrase, IsRepairPhrase, IsExitPhrase, IsListRejectionPhrase} {
				if pred(phrase) {
					matches++
				}
			}
			if matches != 1 {
				t.Errorf("%q matched %d predicates, want 1", phrase, matches)
			}
		}
	}
}
