package anthropic

import (
	sdkanthropic "github.com/anthropics/anthropic-sdk-go"

	"memorymate/internal/provider"
)

// convertRequest transforms a CompletionRequest into Anthropic SDK parameters.
// System messages are extracted from the message list into the dedicated
// System field, which is the only place the Messages API accepts them.
func convertRequest(req provider.CompletionRequest, cfg *Config) sdkanthropic.MessageNewParams {
	system, messages := splitSystemMessages(req.Messages)

	params := sdkanthropic.MessageNewParams{
		Model:    sdkanthropic.Model(cfg.Model),
		Messages: convertMessages(messages),
		System:   system,
	}

	// MaxTokens: request-level override takes precedence over config default.
	params.MaxTokens = int64(cfg.MaxTokens)
	if req.MaxTokens > 0 {
		params.MaxTokens = int64(req.MaxTokens)
	}

	// Temperature: request-level override takes precedence over config default.
	temperature := req.Temperature
	if temperature == nil {
		temperature = cfg.Temperature
	}
	if temperature != nil {
		params.Temperature = sdkanthropic.Float(*temperature)
	}
	if req.TopP != nil {
		params.TopP = sdkanthropic.Float(*req.TopP)
	}
	if len(req.Stop) > 0 {
		params.StopSequences = req.Stop
	}

	return params
}

// splitSystemMessages extracts leading system messages into Anthropic's System
// parameter format and returns the remaining messages.
func splitSystemMessages(msgs []provider.Message) ([]sdkanthropic.TextBlockParam, []provider.Message) {
	var system []sdkanthropic.TextBlockParam
	var idx int
	for idx = 0; idx < len(msgs); idx++ {
		if msgs[idx].Role != provider.RoleSystem {
			break
		}
		system = append(system, sdkanthropic.TextBlockParam{
			Text: msgs[idx].Content,
		})
	}
	return system, msgs[idx:]
}

// convertMessages transforms messages into Anthropic SDK message params.
// Non-leading system messages cannot be sent to the API and are dropped.
func convertMessages(msgs []provider.Message) []sdkanthropic.MessageParam {
	result := make([]sdkanthropic.MessageParam, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case provider.RoleUser:
			result = append(result, sdkanthropic.NewUserMessage(
				sdkanthropic.NewTextBlock(msg.Content),
			))
		case provider.RoleAssistant:
			result = append(result, sdkanthropic.NewAssistantMessage(
				sdkanthropic.NewTextBlock(msg.Content),
			))
		}
	}
	return result
}

// convertResponse transforms an Anthropic SDK Message into a CompletionResponse.
func convertResponse(msg *sdkanthropic.Message) provider.CompletionResponse {
	var content string
	for _, block := range msg.Content {
		if v, ok := block.AsAny().(sdkanthropic.TextBlock); ok {
			if content != "" {
				content += "\n"
			}
			content += v.Text
		}
	}

	return provider.CompletionResponse{
		Content:      content,
		FinishReason: convertStopReason(msg.StopReason),
		Usage: provider.TokenUsage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
}

// convertStopReason maps an Anthropic stop reason to a FinishReason.
func convertStopReason(reason sdkanthropic.StopReason) provider.FinishReason {
	switch reason {
	case sdkanthropic.StopReasonEndTurn, sdkanthropic.StopReasonStopSequence:
		return provider.FinishReasonStop
	case sdkanthropic.StopReasonMaxTokens:
		return provider.FinishReasonLength
	case sdkanthropic.StopReasonRefusal:
		return provider.FinishReasonFiltering
	default:
		return provider.FinishReasonStop
	}
}
