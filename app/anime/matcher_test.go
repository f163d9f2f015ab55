package anime

import (
	"testing"
)

func TestNormalizeTitle(t *testing.T) {
	tests := map[string]string{
		"Attack on Titan: The Final Season": "attack on titan the final season",
		"  Steins;Gate  0 ":                 "steinsgate 0",
		"Pokémon":                           "pokmon",
		"Re:Zero\tkara   Hajimeru":          "rezero kara hajimeru",
		"!!!":                               "",
		"":                                  "",
	}

	for input, expected := range tests {
		if got := NormalizeTitle(input); got != expected {
			t.Errorf("NormalizeTitle(%q) = %q, expected %q", input, got, expected)
		}
	}
}

func TestMatch_Containment(t *testing.T) {
	candidates := []SecondaryRecord{{Title: "Attack on Titan: The Final Season"}}

	match, ok := Match("Attack on Titan", candidates)
	if !ok {
		t.Fatal("Expected a match when the candidate contains the title")
	}
	if match.Title != "Attack on Titan: The Final Season" {
		t.Errorf("Unexpected match: %s", match.Title)
	}
}

func TestMatch_PrimaryContainsCandidate(t *testing.T) {
	candidates := []SecondaryRecord{{Title: "Naruto"}}

	match, ok := Match("Naruto: Shippuuden", candidates)
	if !ok || match.Title != "Naruto" {
		t.Errorf("Expected Naruto to match, got %v (%v)", match, ok)
	}
}

func TestMatch_NoMatch(t *testing.T) {
	if _, ok := Match("One Piece", []SecondaryRecord{{Title: "Naruto"}}); ok {
		t.Error("Expected no match for unrelated titles")
	}
}

func TestMatch_EmptyCandidates(t *testing.T) {
	if _, ok := Match("Fullmetal Alchemist", []SecondaryRecord{}); ok {
		t.Error("Expected no match for empty candidate list")
	}
	if _, ok := Match("Fullmetal Alchemist", nil); ok {
		t.Error("Expected no match for nil candidate list")
	}
}

func TestMatch_FirstSatisfyingCandidateWins(t *testing.T) {
	candidates := []SecondaryRecord{
		{Title: "Naruto: Shippuuden", URL: "a"},
		{Title: "NARUTO", URL: "b"},
	}

	match, ok := Match("Naruto", candidates)
	if !ok {
		t.Fatal("Expected a match")
	}
	if match.URL != "a" {
		t.Errorf("Expected first satisfying candidate a, got %s", match.URL)
	}
}

func TestMatch_DiacriticsAreStrippedNotFolded(t *testing.T) {
	if _, ok := Match("Pokémon", []SecondaryRecord{{Title: "Pokemon"}}); ok {
		t.Error("Expected no match between Pokémon and Pokemon")
	}

	match, ok := Match("Pokémon", []SecondaryRecord{{Title: "Pokémon", URL: "p"}})
	if !ok || match.URL != "p" {
		t.Errorf("Expected identical titles to match, got %v (%v)", match, ok)
	}
}

func TestMatch_CandidateOrderBreaksTies(t *testing.T) {
	candidates := []SecondaryRecord{
		{Title: "Monster Season 2", URL: "first"},
		{Title: "Monster Extra", URL: "second"},
	}

	match, _ := Match("Monster", candidates)
	if match.URL != "first" {
		t.Errorf("Expected first candidate, got %s", match.URL)
	}
}

func TestMatch_IgnoresCandidatesWithoutTitle(t *testing.T) {
	candidates := []SecondaryRecord{{Title: "???"}, {Title: ""}}

	if _, ok := Match("Monster", candidates); ok {
		t.Error("Candidates that normalize to empty must not match")
	}
	if _, ok := Match("!!!", []SecondaryRecord{{Title: "Monster"}}); ok {
		t.Error("A title that normalizes to empty must not match")
	}
}
