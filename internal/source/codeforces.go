package source

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JakeFAU/questify/internal/question"
)

// Codeforces picks a random problem from the Codeforces problemset API.
type Codeforces struct {
	client Getter
	url    string
	pick   Picker
}

type codeforcesResponse struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
	Result  struct {
		Problems []codeforcesProblem `json:"problems"`
	} `json:"result"`
}

type codeforcesProblem struct {
	ContestID int    `json:"contestId"`
	Index     string `json:"index"`
	Name      string `json:"name"`
	Rating    int    `json:"rating"`
}

// NewCodeforces builds a Codeforces source. An empty url selects the public API.
func NewCodeforces(client Getter, url string, pick Picker) *Codeforces {
	if url == "" {
		url = DefaultCodeforcesURL
	}
	return &Codeforces{client: client, url: url, pick: defaultPicker(pick)}
}

// Platform implements question.Source.
func (c *Codeforces) Platform() question.Platform {
	return question.Codeforces
}

// Random implements question.Source.
func (c *Codeforces) Random(ctx context.Context) (question.Question, error) {
	body, err := c.client.Get(ctx, c.url, jsonHeaders())
	if err != nil {
		return question.Question{}, question.NewFetchError(question.Codeforces, "get problemset", err)
	}
	var resp codeforcesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return question.Question{}, question.NewFetchError(question.Codeforces, "decode problemset", err)
	}
	if resp.Status != "" && resp.Status != "OK" {
		return question.Question{}, question.NewFetchError(question.Codeforces, "problemset status",
			fmt.Errorf("%s: %s", resp.Status, resp.Comment))
	}
	problems := resp.Result.Problems
	if len(problems) == 0 {
		return question.Question{}, question.NewFetchError(question.Codeforces, "pick", question.ErrEmptyListing)
	}

	p := problems[c.pick(len(problems))]
	return question.Question{
		Platform:   question.Codeforces,
		Title:      fmt.Sprintf("%s (%d%s)", p.Name, p.ContestID, p.Index),
		URL:        fmt.Sprintf("https://codeforces.com/contest/%d/problem/%s", p.ContestID, p.Index),
		Difficulty: CodeforcesDifficulty(p.Rating),
	}, nil
}

// CodeforcesDifficulty formats a problem rating; zero means the problem is unrated.
func CodeforcesDifficulty(rating int) string {
	if rating == 0 {
		return "Unrated"
	}
	return fmt.Sprintf("%d Rating", rating)
}
