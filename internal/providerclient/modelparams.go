package providerclient

import "strings"

// ModelParamSet is the output of the per-model parameter transform
// (spec §4.4.3): a pure function (model_id, provider, thinking_enabled) →
// params.
type ModelParamSet struct {
	Temperature *float64
	TopP        *float64
	TopK        *int
	ExtraParams map[string]any
}

type modelParamsEntry struct {
	prefix            string
	temperature       float64
	topP              float64
	topK              int
	chatTemplateArgs  map[string]any // required by some reasoning-capable wire protocols to enable thinking
}

// modelParamsTable is the literal data table SPEC_FULL.md's supplemented
// feature 3 calls for, keyed by model-id prefix, in place of inline
// conditionals.
var modelParamsTable = []modelParamsEntry{
	{prefix: "claude-opus", temperature: 1.0, topP: 0.95, topK: 0},
	{prefix: "claude-sonnet", temperature: 0.7, topP: 0.9, topK: 0},
	{prefix: "claude-haiku", temperature: 0.5, topP: 0.9, topK: 0},
	{prefix: "gpt-5", temperature: 1.0, topP: 1.0, topK: 0},
	{prefix: "gpt-4", temperature: 0.7, topP: 1.0, topK: 0},
	{prefix: "gemini", temperature: 0.7, topP: 0.95, topK: 40},
	{prefix: "deepseek-reasoner", temperature: 0.6, topP: 0.95, topK: 0, chatTemplateArgs: map[string]any{"thinking": true}},
	{prefix: "qwen", temperature: 0.7, topP: 0.8, topK: 20, chatTemplateArgs: map[string]any{"enable_thinking": true}},
}

var defaultModelParams = modelParamsEntry{temperature: 0.7, topP: 0.9, topK: 0}

// ModelParams resolves the parameter defaults for a model, omitting
// temperature/top_p/top_k when thinkingEnabled is true per §4.4.2's
// "omitted when reasoning is active" rule, and attaching chat_template_args
// only for models whose wire protocol requires it to enable thinking.
func ModelParams(modelID, provider string, thinkingEnabled bool) ModelParamSet {
	entry := defaultModelParams
	for _, e := range modelParamsTable {
		if strings.HasPrefix(modelID, e.prefix) {
			entry = e
			break
		}
	}

	set := ModelParamSet{ExtraParams: map[string]any{}}
	if !thinkingEnabled {
		temp := entry.temperature
		set.Temperature = &temp
		topP := entry.topP
		set.TopP = &topP
		if entry.topK > 0 {
			topK := entry.topK
			set.TopK = &topK
		}
	}
	if thinkingEnabled && entry.chatTemplateArgs != nil {
		set.ExtraParams["chat_template_args"] = entry.chatTemplateArgs
	}
	return set
}
