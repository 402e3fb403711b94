package source

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JakeFAU/questify/internal/question"
)

// LeetCode picks a random problem from the LeetCode problem listing API.
type LeetCode struct {
	client Getter
	url    string
	pick   Picker
}

type leetCodeListing struct {
	StatStatusPairs []leetCodeProblem `json:"stat_status_pairs"`
}

type leetCodeProblem struct {
	Stat struct {
		Title string `json:"question__title"`
		Slug  string `json:"question__title_slug"`
	} `json:"stat"`
	Difficulty struct {
		Level int `json:"level"`
	} `json:"difficulty"`
}

// NewLeetCode builds a LeetCode source. An empty url selects the public API.
func NewLeetCode(client Getter, url string, pick Picker) *LeetCode {
	if url == "" {
		url = DefaultLeetCodeURL
	}
	return &LeetCode{client: client, url: url, pick: defaultPicker(pick)}
}

// Platform implements question.Source.
func (l *LeetCode) Platform() question.Platform {
	return question.LeetCode
}

// Random implements question.Source.
func (l *LeetCode) Random(ctx context.Context) (question.Question, error) {
	body, err := l.client.Get(ctx, l.url, jsonHeaders())
	if err != nil {
		return question.Question{}, question.NewFetchError(question.LeetCode, "get listing", err)
	}
	var listing leetCodeListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return question.Question{}, question.NewFetchError(question.LeetCode, "decode listing", err)
	}
	if len(listing.StatStatusPairs) == 0 {
		return question.Question{}, question.NewFetchError(question.LeetCode, "pick", question.ErrEmptyListing)
	}

	p := listing.StatStatusPairs[l.pick(len(listing.StatStatusPairs))]
	return question.Question{
		Platform:   question.LeetCode,
		Title:      p.Stat.Title,
		URL:        fmt.Sprintf("https://leetcode.com/problems/%s/", p.Stat.Slug),
		Difficulty: LeetCodeDifficulty(p.Difficulty.Level),
	}, nil
}

// LeetCodeDifficulty maps LeetCode's numeric difficulty level to its label.
func LeetCodeDifficulty(level int) string {
	switch level {
	case 1:
		return "Easy"
	case 2:
		return "Medium"
	default:
		return "Hard"
	}
}
