package assistant

import (
	"fmt"
	"strings"

	"github.com/finpulse/finpulse/internal/domain"
)

// systemPrompt is the fixed instruction prepended to every conversation.
const systemPrompt = "You are FinPulse, a personal finance assistant. " +
	"You help the user understand their spending and income using the " +
	"transaction data provided in this conversation, when present.\n\n" +
	"Rules:\n" +
	"- Answer concisely and in plain language.\n" +
	"- Format currency amounts with two decimal places.\n" +
	"- Base every figure on the provided transaction data; if the data " +
	"needed to answer is not present, say so instead of guessing.\n" +
	"- Never invent transactions, merchants, or amounts."

// Assembler composes the message sequence sent to the completion service.
type Assembler struct {
	gate Gate
}

// NewAssembler builds an Assembler around the given relevance gate.
func NewAssembler(gate Gate) Assembler {
	return Assembler{gate: gate}
}

// Assemble returns the system instruction, the unmodified history in order,
// and - iff the gate fires - one trailing user message carrying the
// transaction projection. The data message is always last: trailing position
// gives it the highest salience for the model, and it must never interleave
// with historical turns.
func (a Assembler) Assemble(history []Message, txs []domain.Transaction) []Message {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)

	if a.gate.ShouldInjectData(history) {
		messages = append(messages, Message{
			Role:    "user",
			Content: projectTransactions(txs),
		})
	}
	return messages
}

// projectTransactions serializes a privacy-reduced view of the transactions:
// date, name, signed amount and primary category only. Account identifiers
// never leave the service.
func projectTransactions(txs []domain.Transaction) string {
	var b strings.Builder
	b.WriteString("Here are my transactions (negative amounts are money in):\n")
	for _, tx := range txs {
		category := tx.PrimaryCategory()
		if category == "" {
			category = "Uncategorized"
		}
		fmt.Fprintf(&b, "%s | %s | %.2f | %s\n",
			tx.Date.Format("2006-01-02"), tx.DisplayName(), tx.Amount, category)
	}
	return b.String()
}
