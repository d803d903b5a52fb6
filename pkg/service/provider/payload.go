package provider

import "strings"

// IsOpenAICompatible reports whether url speaks the chat-completions
// protocol.
func IsOpenAICompatible(url string) bool {
	return strings.Contains(url, "api.openai.com") || strings.Contains(url, "/v1/chat/completions")
}

func isOpenAIEmbeddings(url string) bool {
	return strings.Contains(url, "/v1/embeddings")
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type inputsRequest struct {
	Inputs any `json:"inputs"`
}

type openAIEmbeddingRequest struct {
	Model string `json:"model,omitempty"`
	Input string `json:"input"`
}

type classifierParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
}

type classifierRequest struct {
	Inputs     string               `json:"inputs"`
	Parameters classifierParameters `json:"parameters"`
}

type classifierResponse struct {
	Labels []string `json:"labels"`
}

func buildCompletionPayload(url, model, prompt, systemInstructions string) any {
	if IsOpenAICompatible(url) {
		return chatCompletionRequest{
			Model: model,
			Messages: []chatMessage{
				{Role: "system", Content: systemInstructions},
				{Role: "user", Content: prompt},
			},
		}
	}
	return inputsRequest{Inputs: prompt}
}

func buildEmbeddingPayload(url, model, text string, listInput bool) any {
	if isOpenAIEmbeddings(url) {
		return openAIEmbeddingRequest{Model: model, Input: text}
	}
	if listInput {
		return inputsRequest{Inputs: []string{text}}
	}
	return inputsRequest{Inputs: text}
}
