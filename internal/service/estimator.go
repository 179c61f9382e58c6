package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nutrilog/backend/config"
)

// Fixed prompts sent to the completion endpoint. The analysis prompt
// constrains the model to a five-field JSON object; the naming prompt
// constrains it to a bare product name.
const (
	analysisSystemPrompt = `Ты - эксперт по питанию. Анализируй описание еды и возвращай точные данные о питательной ценности в формате JSON:
{
  "calories": число,
  "protein": число,
  "fat": число,
  "carbs": число,
  "recommendations": "текст рекомендаций"
}

Будь максимально точным в расчетах. Учитывай размер порции, способ приготовления.`

	namingSystemPrompt = `Ты - эксперт по названиям продуктов питания. Твоя задача - давать точные и понятные названия продуктов.`

	namingPromptTemplate = `Определи точное название продукта на основе описания пользователя.

ОПИСАНИЕ ПОЛЬЗОВАТЕЛЯ: "%s"

ПРАВИЛА:
1. Верни ТОЛЬКО название продукта, никаких пояснений
2. Используй стандартные названия продуктов
3. Укажи размер порции, если он важен
4. Будь конкретным и понятным

ВАЖНО: Отвечай ТОЛЬКО названием продукта, никакого другого текста!`
)

const (
	// Per-call cost estimate credited to the usage counters.
	estimatedCallCost = 0.02

	// Token count assumed when the endpoint omits usage information.
	defaultTokenCount = 500

	estimateCacheTTL = 24 * time.Hour
)

// NutritionEstimate is the constrained reply of one analysis call.
type NutritionEstimate struct {
	Calories        float64 `json:"calories"`
	Protein         float64 `json:"protein"`
	Fat             float64 `json:"fat"`
	Carbs           float64 `json:"carbs"`
	Recommendations string  `json:"recommendations"`
}

// UsageRecorder is the estimator's view of the usage governor.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, tokens int, cost float64) (*LimitStatus, error)
}

// EstimationService talks to an OpenAI-compatible chat-completions
// endpoint and parses its constrained JSON replies.
type EstimationService struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
	redis  *redis.Client
	usage  UsageRecorder
	logger *zap.Logger
}

// NewEstimationService creates an estimation client from configuration.
// The redis client is optional; without it estimates are not cached.
func NewEstimationService(cfg *config.Config, redisClient *redis.Client, usage UsageRecorder, logger *zap.Logger) (*EstimationService, error) {
	if cfg.AIAPIKey == "" && config.IsProduction() {
		return nil, fmt.Errorf("AI_API_KEY must be set")
	}

	timeout := time.Duration(cfg.AITimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &EstimationService{
		apiKey: cfg.AIAPIKey,
		apiURL: cfg.AIAPIURL,
		model:  cfg.AIModel,
		client: &http.Client{Timeout: timeout},
		redis:  redisClient,
		usage:  usage,
		logger: logger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// AnalyzeFood estimates the nutrition of a free-text food description.
// A single network attempt is made; usage counters are credited on every
// successful HTTP response, even when the body then fails to parse.
func (s *EstimationService) AnalyzeFood(ctx context.Context, description string) (*NutritionEstimate, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: empty food description", ErrValidation)
	}

	if cached := s.cachedEstimate(ctx, description); cached != nil {
		return cached, nil
	}

	content, tokens, err := s.complete(ctx, analysisSystemPrompt,
		"Проанализируй эту еду: "+description, 0.3, defaultTokenCount)
	if err != nil {
		return nil, err
	}

	if s.usage != nil {
		if _, uerr := s.usage.RecordUsage(ctx, tokens, estimatedCallCost); uerr != nil {
			s.logger.Warn("failed to record AI usage", zap.Error(uerr))
		}
	}

	estimate, err := parseEstimate(content)
	if err != nil {
		return nil, err
	}

	s.cacheEstimate(ctx, description, estimate)
	return estimate, nil
}

// ImproveName asks the model for a normalized display name for one item.
func (s *EstimationService) ImproveName(ctx context.Context, original string) (string, error) {
	original = strings.TrimSpace(original)
	if original == "" {
		return "", fmt.Errorf("%w: empty product name", ErrValidation)
	}

	content, tokens, err := s.complete(ctx, namingSystemPrompt,
		fmt.Sprintf(namingPromptTemplate, original), 0.1, 50)
	if err != nil {
		return "", err
	}

	if s.usage != nil {
		if _, uerr := s.usage.RecordUsage(ctx, tokens, estimatedCallCost); uerr != nil {
			s.logger.Warn("failed to record AI usage", zap.Error(uerr))
		}
	}

	name := strings.TrimSpace(strings.Trim(strings.TrimSpace(content), `"`))
	if name == "" {
		return "", fmt.Errorf("%w: empty name in model reply", ErrParse)
	}
	return name, nil
}

// complete performs one chat-completion round trip and returns the reply
// content and reported token count.
func (s *EstimationService) complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, int, error) {
	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("%w: failed to read response: %v", ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("AI endpoint returned error status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return "", 0, fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(result.Choices) == 0 {
		return "", 0, fmt.Errorf("%w: no choices in reply", ErrParse)
	}

	tokens := result.Usage.TotalTokens
	if tokens == 0 {
		tokens = defaultTokenCount
	}
	return result.Choices[0].Message.Content, tokens, nil
}

// parseEstimate decodes the model's JSON content. On failure it retries
// once against the outermost {...} slice, which recovers replies wrapped
// in prose or markdown fences.
func parseEstimate(content string) (*NutritionEstimate, error) {
	var estimate NutritionEstimate
	if err := json.Unmarshal([]byte(content), &estimate); err == nil {
		return &estimate, nil
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(content[start:end+1]), &estimate); err == nil {
			return &estimate, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrParse, content)
}

func (s *EstimationService) cachedEstimate(ctx context.Context, description string) *NutritionEstimate {
	if s.redis == nil {
		return nil
	}
	data, err := s.redis.Get(ctx, estimateCacheKey(description)).Bytes()
	if err != nil {
		return nil
	}
	var estimate NutritionEstimate
	if err := json.Unmarshal(data, &estimate); err != nil {
		return nil
	}
	return &estimate
}

func (s *EstimationService) cacheEstimate(ctx context.Context, description string, estimate *NutritionEstimate) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(estimate)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, estimateCacheKey(description), data, estimateCacheTTL).Err(); err != nil {
		s.logger.Warn("failed to cache estimate", zap.Error(err))
	}
}

func estimateCacheKey(description string) string {
	return "estimate:" + strings.ToLower(strings.Join(strings.Fields(description), " "))
}
