package adapter

import (
	"github.com/akolanti/vellum/internal/api"
	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/internal/domain/modelConfig"
	"github.com/akolanti/vellum/internal/rag"
)

func ToTurnRequest(req api.ChatRequest) rag.TurnRequest {
	return rag.TurnRequest{
		Message:       req.Message,
		ModelId:       req.ModelId,
		SessionId:     req.SessionId,
		UserId:        req.UserId,
		ContextWindow: req.ContextWindow,
	}
}

// ToChatResponse renders a turn. maxChars > 0 truncates citation text.
func ToChatResponse(result rag.TurnResult, maxChars int) api.ChatResponse {
	return api.ChatResponse{
		Response:  result.Response,
		Citations: ToCitations(result.Citations, maxChars),
		History:   ToMessages(result.History, maxChars),
		SessionId: result.SessionId,
	}
}

func ToCitations(citations []chatModel.Citation, maxChars int) []api.CitationResponse {
	out := make([]api.CitationResponse, 0, len(citations))
	for _, c := range citations {
		out = append(out, api.CitationResponse{
			Source: c.Source,
			Page:   c.Page,
			Text:   truncate(c.Text, maxChars),
			Score:  c.RelevanceScore,
		})
	}
	return out
}

func ToMessages(messages []chatModel.Message, maxChars int) []api.MessageResponse {
	out := make([]api.MessageResponse, 0, len(messages))
	for _, m := range messages {
		msg := api.MessageResponse{Role: string(m.Role), Content: m.Content}
		if len(m.Citations) > 0 {
			msg.Citations = ToCitations(m.Citations, maxChars)
		}
		out = append(out, msg)
	}
	return out
}

func ToSummaries(summaries []chatModel.ConversationSummary) []api.ConversationSummaryResponse {
	out := make([]api.ConversationSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, api.ConversationSummaryResponse{Id: s.Id, Title: s.Title, Date: s.Date})
	}
	return out
}

func ToModelConfig(req api.ModelConfigRequest) modelConfig.ModelConfig {
	return modelConfig.ModelConfig{
		Id:             req.Id,
		Name:           req.Name,
		Provider:       modelConfig.Provider(req.Provider).Normalize(),
		ApiKey:         req.ApiKey,
		BaseURL:        req.BaseURL,
		DeploymentName: req.DeploymentName,
		IsActive:       req.IsActive,
	}
}

// ToModelConfigResponse never exposes a stored key.
func ToModelConfigResponse(cfg modelConfig.ModelConfig) api.ModelConfigResponse {
	cfg = cfg.Redacted()
	return api.ModelConfigResponse{
		Id:             cfg.Id,
		Name:           cfg.Name,
		Provider:       string(cfg.Provider),
		ApiKey:         cfg.ApiKey,
		BaseURL:        cfg.BaseURL,
		DeploymentName: cfg.DeploymentName,
		IsActive:       cfg.IsActive,
	}
}

func ToModelConfigResponses(cfgs []modelConfig.ModelConfig) []api.ModelConfigResponse {
	out := make([]api.ModelConfigResponse, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, ToModelConfigResponse(c))
	}
	return out
}

func truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars]) + "..."
}
