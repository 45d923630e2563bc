package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debtors/internal/assistant"
	"debtors/internal/ingest"
	"debtors/pkg/services"
)

const (
	customersCSV = "id,name,contactPerson,email\n" +
		"C1,Acme Ltd,Jane Doe,jane@acme.test\n" +
		"C2,Globex,John Roe,john@globex.test\n"

	invoicesCSV = "id,customerId,invoiceNumber,value,deductions,issueDate,dueDate,status\n" +
		"I1,C1,INV-001,62000,2000,2024-01-01,2024-01-31,Overdue\n" +
		"I2,C2,INV-002,5000,,2024-02-01,2024-03-02,Pending\n"

	paymentsCSV = "id,invoiceId,amount,paymentDate\n"
)

func rawSources(invoices string) ingest.Sources {
	return ingest.Sources{
		ingest.RoleCustomers: ingest.ReaderSource{FileName: "customers.csv", Content: []byte(customersCSV)},
		ingest.RoleInvoices:  ingest.ReaderSource{FileName: "invoices.csv", Content: []byte(invoices)},
		ingest.RolePayments:  ingest.ReaderSource{FileName: "payments.csv", Content: []byte(paymentsCSV)},
	}
}

type stubGenerator struct{ key string }

func (g stubGenerator) Generate(context.Context, services.Prompt) (string, error) {
	return "reply for " + g.key, nil
}

func stubFactory(key string) (services.TextGenerator, error) {
	if key == "bad" {
		return nil, errors.New("rejected")
	}
	return stubGenerator{key: key}, nil
}

func TestNewStoreIsEmpty(t *testing.T) {
	s := NewStore(nil, "")

	assert.NotEmpty(t, s.ID())
	_, err := s.Analyzer()
	assert.ErrorIs(t, err, ErrNoData)
	_, err = s.Dataset()
	assert.ErrorIs(t, err, ErrNoData)

	info := s.Info()
	assert.Equal(t, s.ID(), info.ID)
	assert.Empty(t, info.Mode)
	assert.False(t, info.Keyed)
}

func TestIngestReplacesOnlyOnSuccess(t *testing.T) {
	s := NewStore(nil, "")
	ctx := context.Background()

	_, err := s.Ingest(ctx, ingest.ModeRaw, rawSources(invoicesCSV))
	require.NoError(t, err)

	an, err := s.Analyzer()
	require.NoError(t, err)
	require.Len(t, an.Customers(), 2)
	assert.Equal(t, "C1", an.Customers()[0].Key)

	bad := invoicesCSV + "I3,C9,INV-003,10,,2024-01-01,2024-01-31,Paid\n"
	_, err = s.Ingest(ctx, ingest.ModeRaw, rawSources(bad))
	require.Error(t, err)
	assert.ErrorIs(t, err, ingest.ErrUnknownReference)

	after, err := s.Analyzer()
	require.NoError(t, err)
	assert.Same(t, an, after, "failed ingestion must keep the previous dataset")

	info := s.Info()
	assert.Equal(t, ingest.ModeRaw, info.Mode)
	assert.Equal(t, 2, info.Counts[ingest.RoleInvoices])
	assert.False(t, info.LoadedAt.IsZero())
}

func TestSetAPIKey(t *testing.T) {
	s := NewStore(stubFactory, "")
	assert.False(t, s.Assistant().Configured())

	require.NoError(t, s.SetAPIKey(" good "))
	assert.True(t, s.Assistant().Configured())
	assert.True(t, s.Info().Keyed)

	reply := s.Assistant().WeeklyFocus(context.Background(), nil)
	assert.Equal(t, assistant.NoOverdueMessage, reply.Text)

	err := s.SetAPIKey("bad")
	require.Error(t, err)
	assert.True(t, s.Assistant().Configured(), "failed key change keeps the previous assistant")

	require.NoError(t, s.SetAPIKey(""))
	assert.False(t, s.Assistant().Configured())
}

func TestSetAPIKeyWithoutFactory(t *testing.T) {
	s := NewStore(nil, "")

	err := s.SetAPIKey("key")

	assert.ErrorIs(t, err, assistant.ErrNotInitialized)
}

func TestNewStoreWithKey(t *testing.T) {
	assert.True(t, NewStore(stubFactory, "good").Assistant().Configured())
	assert.False(t, NewStore(stubFactory, "bad").Assistant().Configured())
}

func TestAcquire(t *testing.T) {
	s := NewStore(nil, "")

	release, err := s.Acquire(ControlChat)
	require.NoError(t, err)

	_, err = s.Acquire(ControlChat)
	assert.ErrorIs(t, err, ErrBusy)

	other, err := s.Acquire(ControlUpload)
	require.NoError(t, err, "controls are independent")
	other()

	release()
	release()

	again, err := s.Acquire(ControlChat)
	require.NoError(t, err)
	again()
}

func TestAcquireConcurrent(t *testing.T) {
	s := NewStore(nil, "")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		acquired int
		releases []func()
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := s.Acquire(ControlWeeklyFocus)
			if err != nil {
				return
			}
			mu.Lock()
			acquired++
			releases = append(releases, release)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, acquired)
	for _, r := range releases {
		r()
	}
}
