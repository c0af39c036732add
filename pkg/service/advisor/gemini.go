package advisor

import (
	"context"
	"strings"

	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

// LLM generates advice through any gollem client, typically Gemini
type LLM struct {
	client gollem.LLMClient
}

var _ Advisor = &LLM{}

func NewLLM(client gollem.LLMClient) (*LLM, error) {
	if client == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &LLM{client: client}, nil
}

func (x *LLM) Advise(ctx context.Context, task model.AdvisorTask, input *model.AdvisoryInput) (string, error) {
	session, err := x.client.NewSession(ctx,
		gollem.WithSessionSystemPrompt(SystemPrompt(task)),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session", goerr.V("task", task))
	}

	resp, err := session.Generate(ctx, []gollem.Input{gollem.Text(UserPrompt(task, input))})
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content from LLM", goerr.V("task", task))
	}
	if resp == nil || len(resp.Texts) == 0 {
		return "", goerr.New("empty LLM response", goerr.V("task", task))
	}

	return strings.TrimSpace(strings.Join(resp.Texts, "")), nil
}
