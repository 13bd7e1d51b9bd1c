package menuai

import (
	"context"
	"testing"
)

func TestStripFences(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[1,2]\n```", `[1,2]`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := stripFences(tc.in); got != tc.want {
			t.Errorf("stripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFakeEngineFlow(t *testing.T) {
	engine := NewFakeEngine()
	ctx := context.Background()

	lines, err := engine.ExtractText(ctx, nil, "image/jpeg")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if len(lines) == 0 {
		t.Fatal("expected extracted lines")
	}

	categories, err := engine.ClassifyMenu(ctx, lines)
	if err != nil {
		t.Fatalf("ClassifyMenu: %v", err)
	}
	mains, ok := categories["mains"]
	if !ok || len(mains) == 0 {
		t.Fatalf("expected mains category, got %v", categories)
	}

	translated, err := engine.TranslateCategory(ctx, "mains", mains)
	if err != nil {
		t.Fatalf("TranslateCategory: %v", err)
	}
	found := false
	for _, item := range translated {
		if item.JapaneseName == "ラーメン" {
			found = true
			if item.EnglishName != "Ramen" {
				t.Errorf("ラーメン translated as %q", item.EnglishName)
			}
		}
	}
	if !found {
		t.Fatal("ラーメン missing from translation output")
	}

	enriched, err := engine.EnrichCategory(ctx, "mains", mains)
	if err != nil {
		t.Fatalf("EnrichCategory: %v", err)
	}
	for _, item := range enriched {
		if item.Description == "" {
			t.Errorf("item %q has no description", item.JapaneseName)
		}
	}
}
