package assistant

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"debtors/internal/analytics"
	"debtors/pkg/services"
)

const systemPrompt = "You are an AI assistant for a debtor management application. " +
	"Answer only from the data you are given and say so when the data does not contain the answer."

func creditPrompt(detail *analytics.CustomerDetail) services.Prompt {
	user := fmt.Sprintf(`Analyze the creditworthiness of the following customer based on their financial data.
Provide a concise creditability suggestion (e.g., Low Risk, Medium Risk, High Risk) and a brief justification in bullet points.

Customer Name: %s
Total Invoices: %d
Total Outstanding Balance: %s
Number of Overdue Invoices: %d
Average Payment Time (for paid invoices): %.0f days

Analysis:`,
		detail.Name,
		detail.InvoiceCount,
		detail.Outstanding.StringFixed(2),
		detail.PastDueCount,
		detail.AveragePaymentDays,
	)

	return services.Prompt{System: systemPrompt, User: user}
}

func weeklyFocusPrompt(items []analytics.OverdueItem) (services.Prompt, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return services.Prompt{}, fmt.Errorf("failed to marshal overdue items: %w", err)
	}

	user := fmt.Sprintf(`Act as a senior collections manager. Based on the following list of overdue invoices, create a prioritized "Weekly Focus Report" for the collections team for this Monday morning.
The report should be in markdown format.
It should start with a brief, motivating summary.
Then, list the top 3-5 priority customers to contact. For each customer, provide a concise summary including their name, total overdue amount, the most overdue invoice, and suggest a clear, actionable next step.

Overdue Invoices Data:
%s

Generate the report:`, data)

	return services.Prompt{System: systemPrompt, User: user}, nil
}

func chatPrompt(history []services.ChatMessage, data analytics.ChatData, asOf time.Time) (services.Prompt, error) {
	customers, err := json.Marshal(data.Customers)
	if err != nil {
		return services.Prompt{}, fmt.Errorf("failed to marshal customers: %w", err)
	}
	invoices, err := json.Marshal(data.Invoices)
	if err != nil {
		return services.Prompt{}, fmt.Errorf("failed to marshal invoices: %w", err)
	}

	var transcript strings.Builder
	for _, msg := range history {
		fmt.Fprintf(&transcript, "%s: %s\n", msg.Role, msg.Text)
	}

	user := fmt.Sprintf(`Use the following data to answer the user's questions. If you don't have the information, say so.

DATA:
Customers: %s
Invoices: %s
---
Current Date: %s
---
Chat History:
%s---
User's latest question: %s

Your Answer:`,
		customers,
		invoices,
		asOf.Format("2006-01-02"),
		transcript.String(),
		history[len(history)-1].Text,
	)

	return services.Prompt{System: systemPrompt, User: user}, nil
}
