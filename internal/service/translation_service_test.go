package service

import (
	"reflect"
	"strings"
	"testing"

	"menu-lens-be/internal/dto"
	"menu-lens-be/internal/progress"
	"menu-lens-be/internal/repository/specification"

	"github.com/gofiber/fiber/v2"
)

func TestParseFidelity(t *testing.T) {
	cases := []struct {
		in      string
		want    progress.Fidelity
		wantErr bool
	}{
		{"", progress.FidelityFinal, false},
		{"final", progress.FidelityFinal, false},
		{"raw", progress.FidelityRaw, false},
		{"translated", progress.FidelityTranslated, false},
		{"original", "", true},
	}

	for _, tc := range cases {
		got, err := parseFidelity(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseFidelity(%q): expected error", tc.in)
				continue
			}
			fe, ok := err.(*fiber.Error)
			if !ok || fe.Code != fiber.StatusBadRequest {
				t.Errorf("parseFidelity(%q): expected 400 fiber error, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseFidelity(%q): unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("parseFidelity(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestListSpecs(t *testing.T) {
	recent := specification.RecentFirst()

	cases := []struct {
		name  string
		query *dto.ListSessionsRequest
		want  []specification.Specification
	}{
		{"nil query", nil, []specification.Specification{recent}},
		{"empty query", &dto.ListSessionsRequest{}, []specification.Specification{recent}},
		{
			"status filter",
			&dto.ListSessionsRequest{Status: "completed"},
			[]specification.Specification{recent, specification.SessionByStatus{Status: "completed"}},
		},
		{
			"status and page",
			&dto.ListSessionsRequest{Status: "failed", Limit: 20, Offset: 40},
			[]specification.Specification{
				recent,
				specification.SessionByStatus{Status: "failed"},
				specification.Pagination{Limit: 20, Offset: 40},
			},
		},
	}

	for _, tc := range cases {
		got := listSpecs(tc.query)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s: listSpecs() = %#v, want %#v", tc.name, got, tc.want)
		}
	}
}

func TestRenderMenuHTML(t *testing.T) {
	view := &dto.MenuViewResponse{
		SessionId: "s1",
		Fidelity:  "final",
		Categories: []dto.MenuCategory{
			{
				Category: "mains",
				Items: []progress.MenuItem{
					{JapaneseName: "ラーメン", EnglishName: "Ramen", Price: "¥900", Description: "Rich pork broth."},
				},
			},
		},
	}

	body := renderMenuHTML(view)
	for _, want := range []string{"mains", "Ramen", "ラーメン", "¥900", "Rich pork broth."} {
		if !strings.Contains(body, want) {
			t.Errorf("rendered export missing %q", want)
		}
	}
}

func TestRenderMenuHTMLEscapesModelText(t *testing.T) {
	view := &dto.MenuViewResponse{
		SessionId: "s1",
		Fidelity:  "final",
		Categories: []dto.MenuCategory{
			{
				Category: `mains<script>alert("x")</script>`,
				Items: []progress.MenuItem{
					{
						JapaneseName: "ラーメン",
						EnglishName:  "<b>Ramen</b>",
						Description:  `Broth & noodles <img src=x onerror="steal()">`,
					},
				},
			},
		},
	}

	body := renderMenuHTML(view)
	for _, forbidden := range []string{"<script>", "<b>Ramen", "<img", `onerror="steal()"`} {
		if strings.Contains(body, forbidden) {
			t.Errorf("model text leaked into markup unescaped: %q", forbidden)
		}
	}
	for _, want := range []string{"&lt;script&gt;", "&lt;b&gt;Ramen&lt;/b&gt;", "Broth &amp; noodles"} {
		if !strings.Contains(body, want) {
			t.Errorf("rendered export missing escaped form %q", want)
		}
	}
}
