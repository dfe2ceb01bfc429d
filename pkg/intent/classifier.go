package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"virtual-hr-be/internal/constant"
	"virtual-hr-be/internal/pkg/logger"
	"virtual-hr-be/pkg/apperror"
	"virtual-hr-be/pkg/llm"
	"virtual-hr-be/pkg/store"
	"virtual-hr-be/pkg/utils"
)

const module = "INTENT"

// SessionView is the read-only slice of a session the classifier may look at.
type SessionView struct {
	State store.State
}

var cancelPattern = regexp.MustCompile(`^(?:please\s+|i\s+want\s+to\s+|let's\s+)?(?:cancel|never\s*mind|nevermind|stop|start\s+over|restart|forget\s+it|abort)\b`)

var (
	balanceWords  = []string{"balance", "left", "remaining", "how many days do i have"}
	balanceNouns  = []string{"leave", "days", "holiday", "vacation", "balance"}
	leaveVerbs    = []string{"apply", "request", "take", "book", "want", "need", "would like", "submit"}
	leaveNouns    = []string{"leave", "day off", "days off", "time off", "vacation", "holiday"}
	feedbackWords = []string{"feedback", "suggestion", "suggest", "complaint", "complain"}
	policyWords   = []string{"policy", "policies", "handbook", "benefit", "entitle", "allowed", "rule", "procedure", "code of conduct"}
)

// Classifier maps a message plus session view onto an Intent. It has no side effects.
type Classifier struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewClassifier(llmProvider llm.LLMProvider, log logger.ILogger) *Classifier {
	return &Classifier{
		llmProvider: llmProvider,
		logger:      log,
	}
}

// IsCancel reports whether message asks to abandon the current flow.
func IsCancel(message string) bool {
	return cancelPattern.MatchString(normalise(message))
}

// Classify resolves the intent in order: empty, cancel, mid-flow continuation,
// keyword rules, then one model call. When the model is unreachable it returns
// Unknown together with apperror.ErrClassificationUnavailable.
func (c *Classifier) Classify(ctx context.Context, message string, view SessionView) (Intent, error) {
	text := normalise(message)
	if text == "" {
		return Unknown, nil
	}
	if IsCancel(text) {
		return Unknown, nil
	}

	switch view.State {
	case store.StateAwaitingLeaveFields:
		return LeaveApplication, nil
	case store.StateAwaitingFeedbackText:
		return Feedback, nil
	}

	if i, ok := matchRules(text); ok {
		return i, nil
	}

	return c.classifyWithModel(ctx, message)
}

func matchRules(text string) (Intent, bool) {
	switch {
	case strings.HasPrefix(text, "feedback"):
		return Feedback, true
	case containsAny(text, balanceWords) && containsAny(text, balanceNouns):
		return LeaveBalanceCheck, true
	case strings.Contains(text, "policy") || strings.Contains(text, "policies"):
		return PolicyQuestion, true
	case containsAny(text, leaveNouns) && containsAny(text, leaveVerbs):
		return LeaveApplication, true
	case containsAny(text, feedbackWords) && !strings.HasSuffix(text, "?"):
		return Feedback, true
	case containsAny(text, policyWords):
		return PolicyQuestion, true
	}
	return Unknown, false
}

type modelVerdict struct {
	Intent string `json:"intent"`
}

func (c *Classifier) classifyWithModel(ctx context.Context, message string) (Intent, error) {
	prompt := fmt.Sprintf(constant.IntentClassifierPromptV1, message)

	response, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0), llm.WithJSON())
	if err != nil {
		c.logger.Warn(module, "Intent model unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		return Unknown, fmt.Errorf("%w: %v", apperror.ErrClassificationUnavailable, err)
	}

	jsonContent := utils.ExtractJSON(response)
	if jsonContent == "" {
		c.logger.Warn(module, "No JSON in intent response", map[string]interface{}{"response": response})
		return Unknown, nil
	}

	var verdict modelVerdict
	if err := json.Unmarshal([]byte(jsonContent), &verdict); err != nil {
		c.logger.Warn(module, "Intent response unparseable", map[string]interface{}{"response": response})
		return Unknown, nil
	}

	return Parse(verdict.Intent), nil
}

func normalise(message string) string {
	return strings.Join(strings.Fields(strings.ToLower(message)), " ")
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
