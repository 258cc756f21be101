package chat

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const advisorSystemPrompt = `You are the CrimeWatch Lagos safety advisor. You help users with:
- Understanding crime-type predictions for areas of Lagos
- Practical safety precautions for a given area, time of day and weather
- Questions about Lagos local government areas and neighborhoods
- General crime-awareness guidance

Provide helpful, accurate, and concise responses. Never present a prediction
as a certainty; it is a statistical estimate. Keep responses conversational
and under 200 words unless more detail is specifically requested.`

type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	ctx    context.Context
}

func NewGeminiClient() (*GeminiClient, error) {
	ctx := context.Background()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}

	model := client.GenerativeModel("gemini-1.5-flash")
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(advisorSystemPrompt)},
	}
	model.SetTemperature(0.7)
	model.SetTopP(0.8)
	model.SetTopK(40)
	model.SetMaxOutputTokens(400)

	return &GeminiClient{
		client: client,
		model:  model,
		ctx:    ctx,
	}, nil
}

// AdviseOnPrediction asks the model for safety guidance around a completed
// prediction. The caller formats the prediction context into the message.
func (g *GeminiClient) AdviseOnPrediction(crimeType, lga, timePeriod string, confidence float64) (string, error) {
	message := fmt.Sprintf(
		"The model predicts %s as the most likely crime type in %s during the %s (confidence %.0f%%). What practical precautions would you suggest?",
		crimeType, lga, strings.ToLower(timePeriod), confidence*100,
	)
	return g.GenerateResponse(message)
}

func (g *GeminiClient) GenerateResponse(message string) (string, error) {
	resp, err := g.model.GenerateContent(g.ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %v", err)
	}

	text := responseText(resp)
	if text == "" {
		return "I'm sorry, I couldn't generate a response. Please try rephrasing your question.", nil
	}

	return strings.ReplaceAll(text, "*", ""), nil
}

// GenerateResponseStream generates a streaming response
func (g *GeminiClient) GenerateResponseStream(message string, onChunk func(string) error) error {
	iter := g.model.GenerateContentStream(g.ctx, genai.Text(message))

	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("stream error: %v", err)
		}

		text := responseText(resp)
		if text == "" {
			continue
		}
		if err := onChunk(strings.ReplaceAll(text, "*", "")); err != nil {
			return fmt.Errorf("chunk callback error: %v", err)
		}
	}

	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}
