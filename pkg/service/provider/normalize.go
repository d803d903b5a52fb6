package provider

import (
	"strings"

	"github.com/tidwall/gjson"
)

// OutputShape names the response shape an output was recognized as.
type OutputShape string

const (
	ShapeOutput          OutputShape = "output"
	ShapeText            OutputShape = "text"
	ShapeResultsOutput   OutputShape = "results.output"
	ShapeResultsText     OutputShape = "results.text"
	ShapeGenerationsText OutputShape = "generations.text"
	ShapeChoicesMessage  OutputShape = "choices.message.content"
	ShapeChoicesText     OutputShape = "choices.text"
	ShapeChoicesDelta    OutputShape = "choices.delta.content"
	ShapeGeneratedText   OutputShape = "generated_text"
	ShapeRawText         OutputShape = "raw_text"
	ShapeStringifiedJSON OutputShape = "stringified_json"
)

// Output is the normalized completion result: the recognized shape and the
// text it carried.
type Output struct {
	Shape OutputShape
	Text  string
}

var outputProbes = []struct {
	path  string
	shape OutputShape
}{
	{"output", ShapeOutput},
	{"text", ShapeText},
	{"results.0.output", ShapeResultsOutput},
	{"results.0.text", ShapeResultsText},
	{"generations.0.text", ShapeGenerationsText},
	{"choices.0.message.content", ShapeChoicesMessage},
	{"choices.0.text", ShapeChoicesText},
	{"choices.0.delta.content", ShapeChoicesDelta},
	{"0.generated_text", ShapeGeneratedText},
}

// NormalizeOutput resolves a completion response body by probing the known
// shapes in order. Unrecognized JSON is returned stringified and non-JSON
// bodies are returned as raw text. It never fails.
func NormalizeOutput(body []byte) Output {
	if !gjson.ValidBytes(body) {
		return Output{Shape: ShapeRawText, Text: strings.TrimSpace(string(body))}
	}

	parsed := gjson.ParseBytes(body)
	if parsed.Type == gjson.String {
		return Output{Shape: ShapeRawText, Text: parsed.String()}
	}

	for _, probe := range outputProbes {
		v := parsed.Get(probe.path)
		if v.Type == gjson.String && v.String() != "" {
			return Output{Shape: probe.shape, Text: v.String()}
		}
	}

	return Output{Shape: ShapeStringifiedJSON, Text: parsed.Raw}
}

// NormalizeEmbedding extracts a flat vector from an embedding response. It
// accepts a bare array of numbers, an array of arrays (first row), an
// object with an "embedding" field, or an OpenAI "data[0].embedding". nil is
// returned for anything else.
func NormalizeEmbedding(body []byte) []float32 {
	if !gjson.ValidBytes(body) {
		return nil
	}

	parsed := gjson.ParseBytes(body)
	switch {
	case parsed.IsArray():
		first := parsed.Get("0")
		if first.IsArray() {
			// Some feature-extraction endpoints nest once more per token.
			if first.Get("0").IsArray() {
				return toFloats(first.Get("0"))
			}
			return toFloats(first)
		}
		return toFloats(parsed)
	case parsed.Get("embedding").IsArray():
		return toFloats(parsed.Get("embedding"))
	case parsed.Get("data.0.embedding").IsArray():
		return toFloats(parsed.Get("data.0.embedding"))
	}
	return nil
}

func toFloats(arr gjson.Result) []float32 {
	values := arr.Array()
	if len(values) == 0 {
		return nil
	}

	out := make([]float32, 0, len(values))
	for _, v := range values {
		if v.Type != gjson.Number {
			return nil
		}
		out = append(out, float32(v.Float()))
	}
	return out
}
