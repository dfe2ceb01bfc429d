package prompt

import (
	"fmt"
	"strings"

	"virtual-hr-be/internal/constant"
	"virtual-hr-be/pkg/vectorstore"
)

// PolicyBuilder builds a grounded prompt from retrieved policy excerpts
type PolicyBuilder struct {
	question string
	excerpts []vectorstore.Result
}

func NewPolicyBuilder(question string, excerpts []vectorstore.Result) *PolicyBuilder {
	return &PolicyBuilder{
		question: question,
		excerpts: excerpts,
	}
}

func (b *PolicyBuilder) Build() string {
	var prompt strings.Builder

	b.writeExcerpts(&prompt)
	b.writeTask(&prompt)
	b.writeGuidelines(&prompt)
	b.writeQuestion(&prompt)

	return prompt.String()
}

func (b *PolicyBuilder) writeExcerpts(prompt *strings.Builder) {
	prompt.WriteString("<policy_excerpts>\n")
	for i, r := range b.excerpts {
		source := r.Chunk.Source
		if source == "" {
			source = r.Chunk.DocumentID
		}
		prompt.WriteString(fmt.Sprintf("[%d] (%s, part %d)\n", i+1, source, r.Chunk.Index+1))
		prompt.WriteString(r.Chunk.Text)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("</policy_excerpts>\n\n")
}

func (b *PolicyBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString(constant.PolicyAssistantTaskV1)
	prompt.WriteString("\n</task>\n\n")
}

func (b *PolicyBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Base your answer strictly on the policy excerpts\n")
	prompt.WriteString("2. Cite the excerpts you used as [N]\n")
	prompt.WriteString("3. If the excerpts do not answer the question, say so and suggest contacting HR\n")
	prompt.WriteString("4. Keep the answer short and professional\n")
	prompt.WriteString("</guidelines>\n\n")
}

func (b *PolicyBuilder) writeQuestion(prompt *strings.Builder) {
	prompt.WriteString("<question>\n")
	prompt.WriteString(b.question)
	prompt.WriteString("\n</question>\n")
}
