package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hadasqueen/booking-assistant/pkg/logging"
)

const (
	defaultOracleModel   = "gpt-4o-mini"
	defaultOracleTimeout = 15 * time.Second

	// Bounded extraction context; old turns add cost without adding slots.
	extractionContextTurns = 20
)

const extractionSystemPrompt = "Eres el asistente de reservas de Hadas Queen. " +
	"Extrae solo JSON con las claves: servicio, fecha, hora, nombre. " +
	"Usa nombres exactos de servicio: reductor ultra, piernas de acero, " +
	"celulox brazos deluxe, criofrecuencia, ritual piel bonita, rejuvenecimiento facial. " +
	"Deja vacía cualquier clave que no aparezca en la conversación."

const intentSystemPrompt = "Eres un clasificador de intenciones para un asistente de salón. " +
	"Devuelve JSON {\"intencion\": ...} con uno de: reservar, cancelar, consultar, " +
	"disponibilidad, saludo, modificar, otro."

// OpenAIOracle implements Oracle on the OpenAI chat completions API.
type OpenAIOracle struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *logging.Logger
}

// NewOpenAIOracle creates the production oracle.
func NewOpenAIOracle(apiKey, model string, timeout time.Duration, logger *logging.Logger) *OpenAIOracle {
	if model == "" {
		model = defaultOracleModel
	}
	if timeout <= 0 {
		timeout = defaultOracleTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &OpenAIOracle{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

// ExtractSlots asks the model for booking fields found in the transcript.
func (o *OpenAIOracle) ExtractSlots(ctx context.Context, turns []Turn) (SlotValues, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: extractionSystemPrompt,
	})
	start := 0
	if len(turns) > extractionContextTurns {
		start = len(turns) - extractionContextTurns
	}
	for _, turn := range turns[start:] {
		role := openai.ChatMessageRoleUser
		if turn.Speaker == SpeakerAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
	}

	content, err := o.complete(ctx, messages)
	if err != nil {
		return SlotValues{}, fmt.Errorf("conversation: slot extraction failed: %w", err)
	}

	var values SlotValues
	if err := json.Unmarshal([]byte(content), &values); err != nil {
		return SlotValues{}, fmt.Errorf("conversation: unparseable extraction output: %w", err)
	}
	return values, nil
}

// ClassifyIntent asks the model to label a single message.
func (o *OpenAIOracle) ClassifyIntent(ctx context.Context, text string) (Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	content, err := o.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: intentSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: "Clasifica este mensaje: " + text},
	})
	if err != nil {
		return IntentOther, fmt.Errorf("conversation: intent classification failed: %w", err)
	}

	var payload struct {
		Intencion string `json:"intencion"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return IntentOther, fmt.Errorf("conversation: unparseable intent output: %w", err)
	}

	switch intent := Intent(strings.ToLower(strings.TrimSpace(payload.Intencion))); intent {
	case IntentReserve, IntentCancel, IntentConsult, IntentAvailability, IntentGreeting, IntentModify:
		return intent, nil
	default:
		return IntentOther, nil
	}
}

func (o *OpenAIOracle) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
