package providerclient

import "testing"

func TestModelParamsOmitsSamplingWhenThinkingEnabled(t *testing.T) {
	set := ModelParams("claude-opus-4-5", "anthropic", true)
	if set.Temperature != nil || set.TopP != nil || set.TopK != nil {
		t.Errorf("expected no sampling params when thinking enabled, got %+v", set)
	}
}

func TestModelParamsDefaultsWhenThinkingDisabled(t *testing.T) {
	set := ModelParams("claude-sonnet-4-20250514", "anthropic", false)
	if set.Temperature == nil || *set.Temperature != 0.7 {
		t.Errorf("unexpected temperature: %+v", set.Temperature)
	}
}

func TestModelParamsChatTemplateArgsForReasoningModel(t *testing.T) {
	set := ModelParams("deepseek-reasoner", "deepseek", true)
	if _, ok := set.ExtraParams["chat_template_args"]; !ok {
		t.Errorf("expected chat_template_args for deepseek-reasoner, got %+v", set.ExtraParams)
	}
}

func TestModelParamsFallsBackToDefault(t *testing.T) {
	set := ModelParams("some-unknown-model", "unknown", false)
	if set.Temperature == nil || *set.Temperature != 0.7 {
		t.Errorf("expected default temperature 0.7, got %+v", set.Temperature)
	}
}
