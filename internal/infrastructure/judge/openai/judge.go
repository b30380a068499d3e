// Package openai provides Judge implementations backed by OpenAI.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/Soulfra/soulfra-sub007/internal/domain/entities"
	"github.com/Soulfra/soulfra-sub007/internal/domain/ports"
	"github.com/Soulfra/soulfra-sub007/internal/infrastructure/config"
)

const adjudicationPrompt = `You are one of several independent judges reviewing the edit history of a user's message in a dispute.

You receive the full tamper-evident edit chain as JSON: one record per edit with its sequence number, author, timestamp, and content digest. The chain has already passed integrity verification. You also receive dispute context supplied by the moderator.

Decide whether the edit history shows bad-faith retroactive editing.

Answer with ONLY a valid JSON object, no other text:
{"verdict": "guilty" | "not_guilty" | "inconclusive", "reasoning": "one or two sentences"}`

// Judge implements ports.Judge using an OpenAI chat model as one persona.
type Judge struct {
	client  *openai.Client
	persona config.PersonaConfig
	model   string
}

// NewJudges builds one Judge per configured persona, all sharing one
// client.
func NewJudges(cfg config.JudgesConfig) ([]ports.Judge, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if len(cfg.Personas) == 0 {
		return nil, errors.New("at least one persona is required")
	}

	client := openai.NewClient(cfg.APIKey)

	defaultModel := "gpt-4o-mini"
	if cfg.Model != "" {
		defaultModel = cfg.Model
	}

	judges := make([]ports.Judge, 0, len(cfg.Personas))
	for _, persona := range cfg.Personas {
		model := defaultModel
		if persona.Model != "" {
			model = persona.Model
		}
		judges = append(judges, &Judge{
			client:  client,
			persona: persona,
			model:   model,
		})
	}
	return judges, nil
}

// Name identifies the persona in the recorded vote list.
func (j *Judge) Name() string {
	return j.persona.ID
}

// Judge evaluates the edit history from this persona's stance.
func (j *Judge) Judge(ctx context.Context, history []entities.EditRecord, judgeCtx map[string]string) (ports.Opinion, error) {
	prompt, err := buildPrompt(history, judgeCtx)
	if err != nil {
		return ports.Opinion{}, err
	}

	system := adjudicationPrompt
	if j.persona.Prompt != "" {
		system = j.persona.Prompt + "\n\n" + adjudicationPrompt
	}

	resp, err := j.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: j.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return ports.Opinion{}, fmt.Errorf("calling OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return ports.Opinion{}, errors.New("no response from OpenAI")
	}

	return parseOpinion(resp.Choices[0].Message.Content)
}

// buildPrompt renders the edit chain and dispute context for the model.
func buildPrompt(history []entities.EditRecord, judgeCtx map[string]string) (string, error) {
	chain, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling edit history: %w", err)
	}

	var b strings.Builder
	b.WriteString("Edit history:\n")
	b.Write(chain)
	if len(judgeCtx) > 0 {
		context, err := json.MarshalIndent(judgeCtx, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshaling context: %w", err)
		}
		b.WriteString("\n\nDispute context:\n")
		b.Write(context)
	}
	return b.String(), nil
}

// rawOpinion is the JSON structure the model answers with.
type rawOpinion struct {
	Verdict   string `json:"verdict"`
	Reasoning string `json:"reasoning"`
}

// parseOpinion parses the model's JSON answer.
func parseOpinion(content string) (ports.Opinion, error) {
	content = cleanJSONResponse(content)

	var raw rawOpinion
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return ports.Opinion{}, fmt.Errorf("parsing opinion JSON: %w (response: %s)", err, content)
	}

	return ports.Opinion{
		Verdict:   entities.Verdict(raw.Verdict),
		Reasoning: raw.Reasoning,
	}, nil
}

// cleanJSONResponse removes markdown code blocks if present.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}

	return strings.TrimSpace(content)
}
