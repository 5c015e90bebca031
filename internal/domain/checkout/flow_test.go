package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitaltumana/storefront/internal/domain/preview"
	"github.com/digitaltumana/storefront/internal/session"
)

// --- Mock implementations ---

type mockAPI struct {
	preview     *preview.OrderPreview
	previewErr  error
	conf        *Confirmation
	checkoutErr error

	previewCalls  int
	checkoutCalls int
	lastSession   *session.Session
}

func (m *mockAPI) CartPreview(_ context.Context, s *session.Session) (*preview.OrderPreview, error) {
	m.previewCalls++
	m.lastSession = s
	return m.preview, m.previewErr
}

func (m *mockAPI) Checkout(_ context.Context, s *session.Session) (*Confirmation, error) {
	m.checkoutCalls++
	m.lastSession = s
	return m.conf, m.checkoutErr
}

type mockRecorder struct {
	attempts []*Attempt
	err      error
}

func (m *mockRecorder) Record(_ context.Context, a *Attempt) error {
	m.attempts = append(m.attempts, a)
	return m.err
}

// --- Helpers ---

func lineItem(store, phone string, subtotal int64) preview.LineItem {
	return preview.LineItem{
		Product: preview.Product{ID: "p-" + store, Name: "Rice", Price: decimal.NewFromInt(subtotal), Quantity: 1},
		Seller:  preview.Seller{StoreName: store, Telephone: phone},
		Summary: preview.Summary{Subtotal: decimal.NewFromInt(subtotal), Total: decimal.NewFromInt(subtotal)},
	}
}

func testPreview(items ...preview.LineItem) *preview.OrderPreview {
	return &preview.OrderPreview{
		Items:      items,
		DeliveryTo: &preview.Address{FullName: "Juan dela Cruz", City: "Tuguegarao"},
	}
}

func newTestFlow(t *testing.T, api *mockAPI, rec AttemptRecorder) *Flow {
	t.Helper()
	sess, err := session.New("token-abc")
	require.NoError(t, err)

	f := NewFlow(api, sess, FlowConfig{
		ShippingFeePerSeller: decimal.NewFromInt(50),
		Recorder:             rec,
	})
	f.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return f
}

// --- Tests ---

func TestFlow_LoadDerivesTotals(t *testing.T) {
	api := &mockAPI{preview: testPreview(
		lineItem("GreenFarm", "0912345678", 100),
		lineItem("GreenFarm", "0912345678", 200),
	)}
	f := newTestFlow(t, api, nil)

	_, err := f.Summary()
	require.ErrorIs(t, err, ErrPreviewNotLoaded)

	sum, err := f.Load(context.Background())
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(300).Equal(sum.Totals.ProductTotal))
	assert.True(t, decimal.NewFromInt(50).Equal(sum.Totals.ShippingTotal))
	assert.True(t, decimal.NewFromInt(350).Equal(sum.Totals.GrandTotal))
	assert.Len(t, sum.Groups, 1)
	assert.Equal(t, "token-abc", api.lastSession.Token())

	cached, err := f.Summary()
	require.NoError(t, err)
	assert.Same(t, sum, cached)
}

func TestFlow_LoadErrors(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		f := newTestFlow(t, &mockAPI{previewErr: errors.New("dial tcp: refused")}, nil)

		_, err := f.Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fetch preview")

		_, err = f.Summary()
		require.ErrorIs(t, err, ErrPreviewNotLoaded)
	})

	t.Run("malformed payload", func(t *testing.T) {
		f := newTestFlow(t, &mockAPI{preview: &preview.OrderPreview{Items: []preview.LineItem{}}}, nil)

		_, err := f.Load(context.Background())
		require.ErrorIs(t, err, preview.ErrMalformedPreview)
	})
}

func TestFlow_CheckoutRequiresConsent(t *testing.T) {
	api := &mockAPI{
		preview: testPreview(lineItem("GreenFarm", "0912345678", 100)),
		conf:    &Confirmation{OrderID: "o-1"},
	}
	rec := &mockRecorder{}
	f := newTestFlow(t, api, rec)

	_, err := f.Load(context.Background())
	require.NoError(t, err)

	_, err = f.Checkout(context.Background())
	require.ErrorIs(t, err, ErrConsentRequired)
	assert.Zero(t, api.checkoutCalls)

	require.Len(t, rec.attempts, 1)
	assert.Equal(t, OutcomeRefused, rec.attempts[0].Outcome)
}

func TestFlow_CheckoutBeforeLoad(t *testing.T) {
	api := &mockAPI{conf: &Confirmation{OrderID: "o-1"}}
	f := newTestFlow(t, api, nil)

	_, err := f.Checkout(context.Background())
	require.ErrorIs(t, err, ErrConsentRequired)

	f.SetConsent(true)
	_, err = f.Checkout(context.Background())
	require.ErrorIs(t, err, ErrPreviewNotLoaded)
	assert.Zero(t, api.checkoutCalls)
}

func TestFlow_CheckoutSucceeds(t *testing.T) {
	api := &mockAPI{
		preview: testPreview(
			lineItem("GreenFarm", "0912345678", 100),
			lineItem("HillCoop", "0998765432", 50),
		),
		conf: &Confirmation{OrderID: "o-1", Message: "Order placed"},
	}
	rec := &mockRecorder{}
	f := newTestFlow(t, api, rec)

	_, err := f.Load(context.Background())
	require.NoError(t, err)
	f.SetConsent(true)

	got, err := f.Checkout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "o-1", got.OrderID)
	assert.Equal(t, 1, api.checkoutCalls)

	require.Len(t, rec.attempts, 1)
	a := rec.attempts[0]
	assert.Equal(t, OutcomeSucceeded, a.Outcome)
	assert.Equal(t, "o-1", a.OrderID)
	assert.Equal(t, 2, a.SellerCount)
	assert.True(t, decimal.NewFromInt(250).Equal(a.GrandTotal))
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC), a.CreatedAt)
}

func TestFlow_FailedCheckoutKeepsConsent(t *testing.T) {
	api := &mockAPI{
		preview:     testPreview(lineItem("GreenFarm", "0912345678", 100)),
		checkoutErr: errors.New("502 bad gateway"),
	}
	rec := &mockRecorder{}
	f := newTestFlow(t, api, rec)

	_, err := f.Load(context.Background())
	require.NoError(t, err)
	f.SetConsent(true)

	_, err = f.Checkout(context.Background())
	require.Error(t, err)
	assert.True(t, f.Consented())

	api.checkoutErr = nil
	api.conf = &Confirmation{OrderID: "o-9"}

	got, err := f.Checkout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "o-9", got.OrderID)
	assert.Equal(t, 2, api.checkoutCalls)

	require.Len(t, rec.attempts, 2)
	assert.Equal(t, OutcomeFailed, rec.attempts[0].Outcome)
	assert.Contains(t, rec.attempts[0].Error, "502 bad gateway")
	assert.Equal(t, OutcomeSucceeded, rec.attempts[1].Outcome)
}

func TestFlow_RecorderErrorIsNotSurfaced(t *testing.T) {
	api := &mockAPI{
		preview: testPreview(lineItem("GreenFarm", "0912345678", 100)),
		conf:    &Confirmation{OrderID: "o-1"},
	}
	f := newTestFlow(t, api, &mockRecorder{err: errors.New("db down")})

	_, err := f.Load(context.Background())
	require.NoError(t, err)
	f.SetConsent(true)

	got, err := f.Checkout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "o-1", got.OrderID)
}

func TestFlow_ReloadKeepsConsent(t *testing.T) {
	api := &mockAPI{preview: testPreview(lineItem("GreenFarm", "0912345678", 100))}
	f := newTestFlow(t, api, nil)

	_, err := f.Load(context.Background())
	require.NoError(t, err)
	f.SetConsent(true)

	api.preview = testPreview(lineItem("HillCoop", "0998765432", 40))
	sum, err := f.Load(context.Background())
	require.NoError(t, err)

	assert.True(t, f.Consented())
	assert.True(t, decimal.NewFromInt(90).Equal(sum.Totals.GrandTotal))
	assert.Equal(t, 2, api.previewCalls)
}

func TestFlow_Place(t *testing.T) {
	t.Run("refused without contacting the backend", func(t *testing.T) {
		api := &mockAPI{preview: testPreview(lineItem("GreenFarm", "0912345678", 100))}
		rec := &mockRecorder{}
		f := newTestFlow(t, api, rec)

		_, _, err := f.Place(context.Background())
		require.ErrorIs(t, err, ErrConsentRequired)
		assert.Zero(t, api.previewCalls)
		assert.Zero(t, api.checkoutCalls)

		require.Len(t, rec.attempts, 1)
		assert.Equal(t, OutcomeRefused, rec.attempts[0].Outcome)
		assert.Zero(t, rec.attempts[0].SellerCount)
		assert.True(t, rec.attempts[0].GrandTotal.IsZero())
	})

	t.Run("preview failure is recorded", func(t *testing.T) {
		api := &mockAPI{previewErr: errors.New("503 service unavailable")}
		rec := &mockRecorder{}
		f := newTestFlow(t, api, rec)
		f.SetConsent(true)

		_, _, err := f.Place(context.Background())
		require.Error(t, err)
		assert.Zero(t, api.checkoutCalls)

		require.Len(t, rec.attempts, 1)
		assert.Equal(t, OutcomeFailed, rec.attempts[0].Outcome)
		assert.Contains(t, rec.attempts[0].Error, "503 service unavailable")
	})

	t.Run("success", func(t *testing.T) {
		api := &mockAPI{
			preview: testPreview(lineItem("GreenFarm", "0912345678", 100)),
			conf:    &Confirmation{OrderID: "o-2"},
		}
		rec := &mockRecorder{}
		f := newTestFlow(t, api, rec)
		f.SetConsent(true)

		sum, c, err := f.Place(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "o-2", c.OrderID)
		assert.True(t, decimal.NewFromInt(150).Equal(sum.Totals.GrandTotal))

		require.Len(t, rec.attempts, 1)
		assert.Equal(t, OutcomeSucceeded, rec.attempts[0].Outcome)
	})
}

func TestFlow_RecordsConfiguredSubject(t *testing.T) {
	sess, err := session.New("opaque-token")
	require.NoError(t, err)
	rec := &mockRecorder{}
	f := NewFlow(&mockAPI{}, sess, FlowConfig{Recorder: rec, Subject: "buyer-42"})

	_, err = f.Checkout(context.Background())
	require.ErrorIs(t, err, ErrConsentRequired)
	require.Len(t, rec.attempts, 1)
	assert.Equal(t, "buyer-42", rec.attempts[0].Subject)
}
