package source

import (
	"context"
	"strings"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/questify/internal/question"
)

const (
	codechefRowSelector   = ".MuiTableBody-root tr"
	codechefLinkSelector  = "td:nth-child(1) a"
	codechefLevelSelector = "td:nth-child(3)"
)

// Codechef scrapes the CodeChef recent practice page and picks a random row.
type Codechef struct {
	client Scraper
	url    string
	pick   Picker
}

// NewCodechef builds a CodeChef source. An empty url selects the public page.
func NewCodechef(client Scraper, url string, pick Picker) *Codechef {
	if url == "" {
		url = DefaultCodechefURL
	}
	return &Codechef{client: client, url: url, pick: defaultPicker(pick)}
}

// Platform implements question.Source.
func (c *Codechef) Platform() question.Platform {
	return question.Codechef
}

// Random implements question.Source.
func (c *Codechef) Random(ctx context.Context) (question.Question, error) {
	var rows []question.Question
	err := c.client.Scrape(ctx, c.url, codechefRowSelector, func(e *colly.HTMLElement) {
		if q, ok := codechefRow(e); ok {
			rows = append(rows, q)
		}
	})
	if err != nil {
		return question.Question{}, question.NewFetchError(question.Codechef, "scrape practice page", err)
	}
	if len(rows) == 0 {
		return question.Question{}, question.NewFetchError(question.Codechef, "pick", question.ErrEmptyListing)
	}
	return rows[c.pick(len(rows))], nil
}

func codechefRow(e *colly.HTMLElement) (question.Question, bool) {
	title := strings.TrimSpace(e.ChildText(codechefLinkSelector))
	href := strings.TrimSpace(e.ChildAttr(codechefLinkSelector, "href"))
	if title == "" || href == "" {
		return question.Question{}, false
	}
	link := e.Request.AbsoluteURL(href)
	if link == "" {
		return question.Question{}, false
	}
	difficulty := strings.TrimSpace(e.ChildText(codechefLevelSelector))
	if difficulty == "" {
		difficulty = "Unknown"
	}
	return question.Question{
		Platform:   question.Codechef,
		Title:      title,
		URL:        link,
		Difficulty: difficulty,
	}, true
}
