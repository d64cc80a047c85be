package catalog

import (
	"bufio"
	"path"
	"strings"

	dserrors "github.com/systmms/fnconsole/internal/errors"
)

// Topic is a static documentation page in Markdown.
type Topic struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

var topicOrder = []string{"introduction", "authentication", "errors"}

func loadTopics() ([]Topic, error) {
	topics := make([]Topic, 0, len(topicOrder))
	for _, id := range topicOrder {
		body, err := data.ReadFile(path.Join("data/topics", id+".md"))
		if err != nil {
			return nil, err
		}
		topics = append(topics, Topic{ID: id, Title: titleOf(string(body), id), Body: string(body)})
	}
	return topics, nil
}

// titleOf returns the first level-one heading, or id.
func titleOf(body, id string) string {
	s := bufio.NewScanner(strings.NewReader(body))
	for s.Scan() {
		if line := strings.TrimSpace(s.Text()); strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return id
}

// Topics returns the static pages in navigation order.
func (c *Catalog) Topics() []Topic {
	return append([]Topic(nil), c.topics...)
}

// Topic returns the page with id.
func (c *Catalog) Topic(id string) (Topic, error) {
	for _, t := range c.topics {
		if strings.EqualFold(t.ID, id) {
			return t, nil
		}
	}
	return Topic{}, &dserrors.NotFound{Kind: "Topic", ID: id}
}
