package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"
)

// Canned replies surfaced by the dispatcher.
const (
	ClarificationReply = `I can help you with:
- HR policy questions (e.g. "What is the remote work policy?")
- Applying for leave (e.g. "I want 2 days annual leave from 2026-01-15")
- Checking your leave balance
- Sharing anonymous feedback

What would you like to do?`

	RephraseReply        = "Sorry, I couldn't work out what you need just now. Could you rephrase your request?"
	RecoverableReply     = "I'm having trouble reaching one of our HR services right now. Nothing was changed, so please try again in a moment."
	TryAgainReply        = "Something went wrong on our side. Please try again."
	CancelledReply       = "No problem, I've cancelled that. Is there anything else I can help you with?"
	NothingToCancelReply = "There is nothing in progress to cancel. How can I help?"
)

const IntentClassifierPromptV1 = `You are the router of an HR assistant. Classify the employee message into exactly one intent.

Intents:
- POLICY_QUESTION: questions about company HR policies, benefits, rules, procedures
- LEAVE_APPLICATION: the employee wants to apply for or request time off
- LEAVE_BALANCE_CHECK: the employee wants to know how many leave days remain
- FEEDBACK: the employee wants to give feedback, a suggestion or a complaint
- UNKNOWN: greetings, small talk, or anything else

Respond with a JSON object only: {"intent": "<INTENT>"}

Message: %s`

const PolicyAssistantTaskV1 = `You are the HR Policy Assistant. Answer the employee's question using only the policy excerpts provided.`

const FeedbackAnalystSystemV1 = `You review anonymous employee feedback for an HR team. Be neutral and concise.`

const FeedbackAnalysisPromptV1 = `Analyse this employee feedback.

Feedback: %s

Respond with a JSON object only:
{"sentiment": "Positive" | "Neutral" | "Negative", "action_items": ["short actionable item", ...]}`
