package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debtors/internal/analytics"
	"debtors/internal/risk"
	"debtors/pkg/services"
)

type fakeGenerator struct {
	text    string
	err     error
	prompts []services.Prompt
}

func (f *fakeGenerator) Generate(_ context.Context, prompt services.Prompt) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func testDetail() *analytics.CustomerDetail {
	return &analytics.CustomerDetail{
		CustomerRollup: analytics.CustomerRollup{
			Key:          "C1",
			Name:         "Acme Corp",
			Outstanding:  decimal.RequireFromString("12500.5"),
			InvoiceCount: 4,
		},
		PastDueCount:       2,
		AveragePaymentDays: 37.4,
	}
}

func TestCreditSuggestion(t *testing.T) {
	gen := &fakeGenerator{text: "**Medium Risk**\n\n- Two invoices past due"}
	svc := NewService(gen)

	reply := svc.CreditSuggestion(context.Background(), testDetail())

	assert.False(t, reply.Failed)
	assert.Equal(t, risk.Medium, reply.Risk)
	assert.Contains(t, reply.HTML, "<strong>Medium Risk</strong>")
	assert.Contains(t, reply.HTML, "<li>Two invoices past due</li>")

	require.Len(t, gen.prompts, 1)
	user := gen.prompts[0].User
	assert.Contains(t, user, "Customer Name: Acme Corp")
	assert.Contains(t, user, "Total Invoices: 4")
	assert.Contains(t, user, "Total Outstanding Balance: 12500.50")
	assert.Contains(t, user, "Number of Overdue Invoices: 2")
	assert.Contains(t, user, "Average Payment Time (for paid invoices): 37 days")
	assert.Contains(t, user, "Analysis:")
	assert.NotEmpty(t, gen.prompts[0].System)
}

func TestCreditSuggestionWithoutLabel(t *testing.T) {
	svc := NewService(&fakeGenerator{text: "Hard to say."})

	reply := svc.CreditSuggestion(context.Background(), testDetail())

	assert.False(t, reply.Failed)
	assert.Empty(t, reply.Risk)
}

func TestWeeklyFocusNoOverdue(t *testing.T) {
	gen := &fakeGenerator{text: "unused"}
	svc := NewService(gen)

	reply := svc.WeeklyFocus(context.Background(), nil)

	assert.False(t, reply.Failed)
	assert.Equal(t, NoOverdueMessage, reply.Text)
	assert.Empty(t, gen.prompts, "no request should be made")
}

func TestWeeklyFocus(t *testing.T) {
	gen := &fakeGenerator{text: "# Weekly Focus\n\nCall Acme first."}
	svc := NewService(gen)

	items := []analytics.OverdueItem{
		{CustomerName: "Acme Corp", CustomerEmail: "ap@acme.test", InvoiceNumber: "INV-1", Amount: decimal.NewFromInt(500), DaysOverdue: 45},
	}
	reply := svc.WeeklyFocus(context.Background(), items)

	assert.False(t, reply.Failed)
	assert.Contains(t, reply.HTML, "<h1")
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0].User, `"customerName":"Acme Corp"`)
	assert.Contains(t, gen.prompts[0].User, `"daysOverdue":45`)
	assert.Contains(t, gen.prompts[0].User, "senior collections manager")
}

func TestChat(t *testing.T) {
	gen := &fakeGenerator{text: "Acme owes 500."}
	svc := NewService(gen)

	history := []services.ChatMessage{
		{Role: services.RoleModel, Text: ChatGreeting},
		{Role: services.RoleUser, Text: "Who owes the most?"},
	}
	data := analytics.ChatData{
		Customers: []analytics.CustomerRef{{ID: "C1", Name: "Acme Corp"}},
		Invoices:  []map[string]string{{"invoiceNumber": "INV-1"}},
	}
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	reply := svc.Chat(context.Background(), history, data, asOf)

	assert.False(t, reply.Failed)
	assert.Equal(t, "Acme owes 500.", reply.Text)

	require.Len(t, gen.prompts, 1)
	user := gen.prompts[0].User
	assert.Contains(t, user, `Customers: [{"id":"C1","name":"Acme Corp"}]`)
	assert.Contains(t, user, `"invoiceNumber":"INV-1"`)
	assert.Contains(t, user, "Current Date: 2024-06-01")
	assert.Contains(t, user, "model: "+ChatGreeting+"\nuser: Who owes the most?\n")
	assert.Contains(t, user, "User's latest question: Who owes the most?")
	assert.Contains(t, user, "Your Answer:")
}

func TestChatRequiresUserQuestion(t *testing.T) {
	tests := []struct {
		name    string
		history []services.ChatMessage
	}{
		{name: "empty", history: nil},
		{name: "last from model", history: []services.ChatMessage{{Role: services.RoleModel, Text: ChatGreeting}}},
		{name: "blank question", history: []services.ChatMessage{{Role: services.RoleUser, Text: "  "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{text: "unused"}
			reply := NewService(gen).Chat(context.Background(), tt.history, analytics.ChatData{}, time.Now())

			assert.True(t, reply.Failed)
			assert.Equal(t, FailureMessage, reply.Text)
			assert.Empty(t, gen.prompts)
		})
	}
}

func TestFailuresBecomeMessages(t *testing.T) {
	tests := []struct {
		name string
		gen  services.TextGenerator
		want string
	}{
		{name: "no generator", gen: nil, want: NotInitializedMessage},
		{name: "rejected key", gen: &fakeGenerator{err: NewServiceError("Generate", ErrNotAuthenticated, "")}, want: NotAuthorizedMessage},
		{name: "other failure", gen: &fakeGenerator{err: errors.New("connection reset")}, want: FailureMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.gen)

			reply := svc.CreditSuggestion(context.Background(), testDetail())

			assert.True(t, reply.Failed)
			assert.Equal(t, tt.want, reply.Text)
			assert.Empty(t, reply.Risk)
		})
	}
}

func TestConfigured(t *testing.T) {
	assert.False(t, NewService(nil).Configured())
	assert.True(t, NewService(&fakeGenerator{}).Configured())
}

func TestParseRisk(t *testing.T) {
	tests := []struct {
		text string
		want risk.Level
	}{
		{"Suggestion: Low Risk", risk.Low},
		{"This customer is **High Risk** because", risk.High},
		{"Medium Risk, trending to High Risk", risk.Medium},
		{"low risk", risk.Low},
		{"Overall: HIGH RISK.", risk.High},
		{"lowrisk", ""},
		{"No label here", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseRisk(tt.text), tt.text)
	}
}

func TestRenderHTML(t *testing.T) {
	assert.Empty(t, RenderHTML(""))
	assert.Contains(t, RenderHTML("[docs](https://example.com)"), `target="_blank"`)
	assert.Contains(t, RenderHTML("- one\n- two"), "<ul>")
}

func TestDisplayMessage(t *testing.T) {
	assert.Empty(t, DisplayMessage(nil))
	assert.Equal(t, NotInitializedMessage, DisplayMessage(WrapServiceError("x", ErrNotInitialized, "")))
	assert.Equal(t, FailureMessage, DisplayMessage(ErrEmptyResponse))
}
