package menuai

import (
	"context"
	"fmt"

	"menu-lens-be/internal/progress"
)

// FakeEngine is a deterministic Engine for local runs and tests: no network,
// no API key. It "recognizes" a small built-in menu regardless of the input
// image and produces mechanical translations for anything else.
type FakeEngine struct{}

func NewFakeEngine() *FakeEngine { return &FakeEngine{} }

var fakeMenu = map[string][]progress.MenuItem{
	"appetizers": {
		{JapaneseName: "枝豆", Price: "¥400"},
		{JapaneseName: "唐揚げ", Price: "¥650"},
	},
	"mains": {
		{JapaneseName: "ラーメン", Price: "¥900"},
		{JapaneseName: "カレーライス", Price: "¥850"},
	},
	"desserts": {
		{JapaneseName: "プリン", Price: "¥450"},
	},
}

var fakeTranslations = map[string]progress.MenuItem{
	"枝豆":     {EnglishName: "Edamame", Description: "Boiled and salted young soybeans in the pod."},
	"唐揚げ":    {EnglishName: "Karaage", Description: "Bite-sized Japanese fried chicken, crisp outside and juicy inside."},
	"ラーメン":   {EnglishName: "Ramen", Description: "Wheat noodles in a rich pork broth with chashu and scallions."},
	"カレーライス": {EnglishName: "Curry Rice", Description: "Mild Japanese curry over steamed rice."},
	"プリン":    {EnglishName: "Purin", Description: "Silky custard pudding with caramel sauce."},
}

func (FakeEngine) ExtractText(ctx context.Context, image []byte, mimeType string) ([]string, error) {
	var lines []string
	for _, items := range fakeMenu {
		for _, item := range items {
			lines = append(lines, item.JapaneseName+" "+item.Price)
		}
	}
	return lines, nil
}

func (FakeEngine) ClassifyMenu(ctx context.Context, lines []string) (map[string][]progress.MenuItem, error) {
	out := make(map[string][]progress.MenuItem, len(fakeMenu))
	for category, items := range fakeMenu {
		out[category] = append([]progress.MenuItem(nil), items...)
	}
	return out, nil
}

func (FakeEngine) TranslateCategory(ctx context.Context, category string, items []progress.MenuItem) ([]progress.MenuItem, error) {
	out := make([]progress.MenuItem, len(items))
	for i, item := range items {
		out[i] = progress.MenuItem{JapaneseName: item.JapaneseName}
		if known, ok := fakeTranslations[item.JapaneseName]; ok {
			out[i].EnglishName = known.EnglishName
		} else {
			out[i].EnglishName = item.JapaneseName
		}
	}
	return out, nil
}

func (FakeEngine) EnrichCategory(ctx context.Context, category string, items []progress.MenuItem) ([]progress.MenuItem, error) {
	out := make([]progress.MenuItem, len(items))
	for i, item := range items {
		out[i] = progress.MenuItem{JapaneseName: item.JapaneseName}
		if known, ok := fakeTranslations[item.JapaneseName]; ok {
			out[i].Description = known.Description
		} else {
			out[i].Description = fmt.Sprintf("A %s specialty.", category)
		}
	}
	return out, nil
}

func (FakeEngine) IllustrateItem(ctx context.Context, item progress.MenuItem) (string, error) {
	return "", nil
}
