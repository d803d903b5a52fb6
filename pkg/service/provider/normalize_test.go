package provider_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/memora/pkg/service/provider"
)

func TestNormalizeOutput(t *testing.T) {
	testCases := []struct {
		name  string
		body  string
		text  string
		shape provider.OutputShape
	}{
		{"top-level text", `{"text":"x"}`, "x", provider.ShapeText},
		{"top-level output", `{"output":"x","text":"y"}`, "x", provider.ShapeOutput},
		{"chat completions", `{"choices":[{"message":{"content":"x"}}]}`, "x", provider.ShapeChoicesMessage},
		{"generations", `{"generations":[{"text":"x"}]}`, "x", provider.ShapeGenerationsText},
		{"results output", `{"results":[{"output":"x"}]}`, "x", provider.ShapeResultsOutput},
		{"results text", `{"results":[{"text":"x"}]}`, "x", provider.ShapeResultsText},
		{"legacy completions", `{"choices":[{"text":"x"}]}`, "x", provider.ShapeChoicesText},
		{"stream delta", `{"choices":[{"delta":{"content":"x"}}]}`, "x", provider.ShapeChoicesDelta},
		{"text generation list", `[{"generated_text":"x"}]`, "x", provider.ShapeGeneratedText},
		{"empty text falls through", `{"text":"","generations":[{"text":"x"}]}`, "x", provider.ShapeGenerationsText},
		{"json string", `"x"`, "x", provider.ShapeRawText},
		{"plain text", "  x \n", "x", provider.ShapeRawText},
		{"unknown object", `{"foo":1}`, `{"foo":1}`, provider.ShapeStringifiedJSON},
		{"non-string text field", `{"text":42}`, `{"text":42}`, provider.ShapeStringifiedJSON},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := provider.NormalizeOutput([]byte(tc.body))
			gt.Value(t, out.Text).Equal(tc.text)
			gt.Value(t, out.Shape).Equal(tc.shape)
		})
	}
}

func TestNormalizeEmbedding(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want []float32
	}{
		{"flat array", `[0.5, 1, -0.25]`, []float32{0.5, 1, -0.25}},
		{"array of arrays", `[[0.5, 1], [2, 3]]`, []float32{0.5, 1}},
		{"token-level nesting", `[[[0.5, 1]]]`, []float32{0.5, 1}},
		{"embedding field", `{"embedding":[0.5, 1]}`, []float32{0.5, 1}},
		{"openai data", `{"data":[{"embedding":[0.5, 1]}]}`, []float32{0.5, 1}},
		{"empty array", `[]`, nil},
		{"non-numeric", `["a","b"]`, nil},
		{"unknown shape", `{"foo":[1]}`, nil},
		{"not json", `oops`, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Value(t, provider.NormalizeEmbedding([]byte(tc.body))).Equal(tc.want)
		})
	}
}
