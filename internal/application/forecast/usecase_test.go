package forecast_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockwise-forecast/internal/application/dto"
	appforecast "github.com/jhoicas/stockwise-forecast/internal/application/forecast"
	"github.com/jhoicas/stockwise-forecast/internal/domain"
	"github.com/jhoicas/stockwise-forecast/internal/domain/entity"
	"github.com/jhoicas/stockwise-forecast/internal/domain/forecast"
)

// ─── Fakes ────────────────────────────────────────────────────────────────────

type fakeItemRepo struct {
	mu    sync.Mutex
	items []*entity.Item
	err   error
	calls int
}

func (r *fakeItemRepo) ListItems(_ context.Context) ([]*entity.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*entity.Item, len(r.items))
	for i, it := range r.items {
		cp := *it
		out[i] = &cp
	}
	return out, nil
}

func (r *fakeItemRepo) GetItem(_ context.Context, id string) (*entity.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, it := range r.items {
		if it.ID == id {
			cp := *it
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeItemRepo) setQuantity(id string, q int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.ID == id {
			it.Quantity = q
		}
	}
}

// gatedRepo retiene la primera lectura armada después de tomar la instantánea,
// para forzar que otro ciclo intente correr mientras tanto.
type gatedRepo struct {
	*fakeItemRepo
	mu      sync.Mutex
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRepo) arm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = true
	g.entered = make(chan struct{})
	g.release = make(chan struct{})
}

func (g *gatedRepo) ListItems(ctx context.Context) ([]*entity.Item, error) {
	items, err := g.fakeItemRepo.ListItems(ctx)
	g.mu.Lock()
	hold := g.armed
	g.armed = false
	g.mu.Unlock()
	if hold {
		close(g.entered)
		<-g.release
	}
	return items, err
}

type fakeNotifier struct {
	enabled bool
	sent    bool
	err     error
	batches [][]dto.ForecastDTO
}

func (n *fakeNotifier) Enabled() bool { return n.enabled }

func (n *fakeNotifier) NotifyLowStock(_ context.Context, _ string, items []dto.ForecastDTO) (bool, error) {
	n.batches = append(n.batches, items)
	return n.sent, n.err
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newUseCase(repo *fakeItemRepo, opts ...appforecast.Option) *appforecast.ForecastUseCase {
	opts = append([]appforecast.Option{
		appforecast.WithClock(func() time.Time { return fixedNow }),
		appforecast.WithRand(rand.New(rand.NewSource(1))),
	}, opts...)
	return appforecast.NewForecastUseCase(repo, zerolog.Nop(), opts...)
}

func item(id, category string, qty int, price float64, usage ...entity.UsageEvent) *entity.Item {
	return &entity.Item{ID: id, Name: "Artículo " + id, Category: category, Price: decimal.NewFromFloat(price), Quantity: qty, Usage: usage}
}

func ev(ts string, q int) entity.UsageEvent { return entity.UsageEvent{Timestamp: ts, Quantity: q} }

// ─── Ciclo y transición de umbral ─────────────────────────────────────────────

func TestListForecasts_TransicionSoloEnElCicloQueCruza(t *testing.T) {
	repo := &fakeItemRepo{items: []*entity.Item{item("x", "a", 15, 1)}}
	uc := newUseCase(repo)
	ctx := context.Background()

	expected := []bool{false, true, false}
	for i, qty := range []int{15, 8, 3} {
		repo.setQuantity("x", qty)
		out, err := uc.ListForecasts(ctx, dto.ForecastFilter{})
		require.NoError(t, err)
		require.Len(t, out.Items, 1)
		assert.Equal(t, expected[i], out.Items[0].NewlyLow, "ciclo %d (cantidad %d)", i+1, qty)
	}
}

func TestListForecasts_PrimerCicloNuncaMarcaTransicion(t *testing.T) {
	repo := &fakeItemRepo{items: []*entity.Item{item("x", "a", 3, 1)}}
	uc := newUseCase(repo)

	out, err := uc.ListForecasts(context.Background(), dto.ForecastFilter{})
	require.NoError(t, err)
	assert.False(t, out.Items[0].NewlyLow)
}

func TestListForecasts_OrdenDeCatalogoYDefectosRecuperados(t *testing.T) {
	repo := &fakeItemRepo{items: []*entity.Item{
		item("c", "x", 25, 3,
			ev("2024-04-01T08:00:00Z", 2), ev("2024-04-02T08:00:00Z", 2), ev("2024-04-03T08:00:00Z", 2),
			ev("2024-04-04T08:00:00Z", 2), ev("2024-04-05T08:00:00Z", 2)),
		item("a", "x", 40, 1, ev("no-es-fecha", 5)),
		item("b", "y", 5, 2),
	}}
	uc := newUseCase(repo)

	out, err := uc.ListForecasts(context.Background(), dto.ForecastFilter{})
	require.NoError(t, err)
	require.Len(t, out.Items, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{out.Items[0].ProductID, out.Items[1].ProductID, out.Items[2].ProductID})
	assert.NotEmpty(t, out.CycleID)
	assert.Equal(t, fixedNow, out.GeneratedAt)

	c := out.Items[0]
	assert.Equal(t, 2.0, c.DailyConsumption)
	assert.Equal(t, 7, c.PredictedDaysUntilLow)
	assert.Equal(t, 0.7, c.ConfidenceScore)
	assert.Equal(t, "medium", c.ConfidenceLevel)
	assert.Equal(t, "warning", c.Urgency)
	assert.Equal(t, fixedNow.AddDate(0, 0, 7), c.RecommendedRestockDate)

	a := out.Items[1]
	assert.Equal(t, 60, a.PredictedDaysUntilLow)
	assert.Equal(t, string(forecast.SourceHeuristic), a.DaysSource)

	b := out.Items[2]
	assert.Equal(t, 0, b.PredictedDaysUntilLow)
	assert.Equal(t, 0.6, b.ConfidenceScore)
	assert.Equal(t, 5.0, b.RecommendedReorderQty)
	assert.True(t, decimal.NewFromInt(10).Equal(b.EstimatedRestockCost))
}

func TestListForecasts_Filtros(t *testing.T) {
	repo := &fakeItemRepo{items: []*entity.Item{
		item("a", "Limpieza", 5, 1),  // 0 días, urgent
		item("b", "limpieza", 20, 1), // 10 días, warning
		item("c", "oficina", 40, 1),  // 60 días, normal
	}}
	uc := newUseCase(repo)
	ctx := context.Background()

	seven := 7
	out, err := uc.ListForecasts(ctx, dto.ForecastFilter{MaxDays: &seven})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "a", out.Items[0].ProductID)

	out, err = uc.ListForecasts(ctx, dto.ForecastFilter{Category: "LIMPIEZA"})
	require.NoError(t, err)
	assert.Len(t, out.Items, 2)

	out, err = uc.ListForecasts(ctx, dto.ForecastFilter{Urgency: "normal"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "c", out.Items[0].ProductID)

	_, err = uc.ListForecasts(ctx, dto.ForecastFilter{Urgency: "critica"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	neg := -1
	_, err = uc.ListForecasts(ctx, dto.ForecastFilter{MaxDays: &neg})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListForecasts_FallaDelAlmacen(t *testing.T) {
	cause := errors.New("connection refused")
	repo := &fakeItemRepo{err: cause}
	uc := newUseCase(repo)

	_, err := uc.ListForecasts(context.Background(), dto.ForecastFilter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
}

func TestListForecasts_ModeloSecundarioSoloConDatosSuficientes(t *testing.T) {
	repo := &fakeItemRepo{items: []*entity.Item{item("a", "x", 30, 1)}}
	uc := newUseCase(repo)

	out, err := uc.ListForecasts(context.Background(), dto.ForecastFilter{})
	require.NoError(t, err)
	assert.Nil(t, out.Items[0].ModelDaysUntilLow)

	repo.items = append(repo.items, item("b", "x", 50, 2), item("c", "x", 12, 3), item("d", "x", 70, 1))
	out, err = uc.ListForecasts(context.Background(), dto.ForecastFilter{})
	require.NoError(t, err)
	for _, f := range out.Items {
		require.NotNil(t, f.ModelDaysUntilLow, f.ProductID)
		assert.GreaterOrEqual(t, *f.ModelDaysUntilLow, 0)
	}
}

func TestListNewlyLow(t *testing.T) {
	repo := &fakeItemRepo{items: []*entity.Item{item("a", "x", 30, 1), item("b", "x", 12, 1)}}
	uc := newUseCase(repo)
	ctx := context.Background()

	out, err := uc.ListNewlyLow(ctx)
	require.NoError(t, err)
	assert.Empty(t, out.Items)

	repo.setQuantity("b", 9)
	out, err = uc.ListNewlyLow(ctx)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "b", out.Items[0].ProductID)
}

func TestListForecasts_CiclosConcurrentes(t *testing.T) {
	repo := &fakeItemRepo{items: []*entity.Item{item("a", "x", 30, 1), item("b", "x", 12, 2), item("c", "x", 5, 3)}}
	uc := newUseCase(repo)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.ListForecasts(context.Background(), dto.ForecastFilter{})
			assert.NoError(t, err)
			_, err = uc.TrainModel(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestListNewlyLow_CicloRetenidoNoPisaInstantaneaPosterior(t *testing.T) {
	base := &fakeItemRepo{items: []*entity.Item{item("x", "a", 15, 1)}}
	repo := &gatedRepo{fakeItemRepo: base}
	uc := appforecast.NewForecastUseCase(repo, zerolog.Nop(),
		appforecast.WithClock(func() time.Time { return fixedNow }),
		appforecast.WithRand(rand.New(rand.NewSource(1))),
	)
	ctx := context.Background()

	_, err := uc.ListNewlyLow(ctx)
	require.NoError(t, err)

	// Ciclo lento: lee cantidad 15 y queda retenido antes de actualizar el estado.
	repo.arm()
	slow := make(chan *dto.ForecastListDTO, 1)
	go func() {
		out, err := uc.ListNewlyLow(ctx)
		assert.NoError(t, err)
		slow <- out
	}()
	<-repo.entered

	// Mientras tanto baja el stock y llega otro ciclo.
	base.setQuantity("x", 8)
	fast := make(chan *dto.ForecastListDTO, 1)
	go func() {
		out, err := uc.ListNewlyLow(ctx)
		assert.NoError(t, err)
		fast <- out
	}()
	time.Sleep(30 * time.Millisecond)
	close(repo.release)

	slowOut, fastOut := <-slow, <-fast
	require.NotNil(t, slowOut)
	require.NotNil(t, fastOut)
	assert.Empty(t, slowOut.Items)
	require.Len(t, fastOut.Items, 1)
	assert.Equal(t, 8, fastOut.Items[0].CurrentQuantity)

	// El cruce 15 -> 8 ya se informó: el siguiente ciclo no lo repite.
	next, err := uc.ListNewlyLow(ctx)
	require.NoError(t, err)
	assert.Empty(t, next.Items)
}

// ─── Modelo ───────────────────────────────────────────────────────────────────

func TestTrainModel_DatosInsuficientes(t *testing.T) {
	repo := &fakeItemRepo{items: []*entity.Item{item("a", "x", 30, 1)}}
	uc := newUseCase(repo)

	_, err := uc.TrainModel(context.Background())
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestTrainModel_DevuelveR2YCoeficientes(t *testing.T) {
	repo := &fakeItemRepo{items: []*entity.Item{
		item("a", "x", 30, 1), item("b", "x", 50, 2), item("c", "x", 12, 3),
		item("d", "x", 70, 1), item("e", "x", 18, 5),
	}}
	uc := newUseCase(repo)

	res, err := uc.TrainModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Samples)
	assert.Equal(t, res.R2Score, res.Accuracy)
	assert.LessOrEqual(t, res.R2Score, 1.0)
}

func TestPredictDaysUntilLow_EntrenaPerezosamente(t *testing.T) {
	repo := &fakeItemRepo{items: []*entity.Item{
		item("a", "x", 30, 1), item("b", "x", 50, 1), item("c", "x", 70, 1),
	}}
	uc := newUseCase(repo)

	// Objetivos (30-10)/0.5=40, 80, 120: recta exacta days = 2q - 20.
	days, err := uc.PredictDaysUntilLow(context.Background(), 40, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.InDelta(t, 60, days, 1)

	days, err = uc.PredictDaysUntilLow(context.Background(), 2, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, 0, days)
}

// ─── Tendencia ────────────────────────────────────────────────────────────────

func TestGetConsumptionTrend_ArticuloInexistente(t *testing.T) {
	uc := newUseCase(&fakeItemRepo{})

	_, err := uc.GetConsumptionTrend(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	var ie *forecast.ItemError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "nope", ie.ItemID)
}

func TestGetConsumptionTrend_SinHistorial(t *testing.T) {
	uc := newUseCase(&fakeItemRepo{items: []*entity.Item{item("a", "x", 30, 1)}})

	_, err := uc.GetConsumptionTrend(context.Background(), "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoUsageHistory)
	var ie *forecast.ItemError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "Artículo a", ie.ItemName)
}

func TestGetConsumptionTrend_SoloFechasIlegibles(t *testing.T) {
	uc := newUseCase(&fakeItemRepo{items: []*entity.Item{item("a", "x", 30, 1, ev("??", 3))}})

	_, err := uc.GetConsumptionTrend(context.Background(), "a")
	assert.ErrorIs(t, err, domain.ErrNoUsageHistory)
}

func TestGetConsumptionTrend_DosPuntos(t *testing.T) {
	uc := newUseCase(&fakeItemRepo{items: []*entity.Item{
		item("a", "x", 30, 1, ev("2024-04-02T00:00:00", 8), ev("2024-04-01T00:00:00Z", 10), ev("mal", 1)),
	}})

	tr, err := uc.GetConsumptionTrend(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, tr.Points, 2)
	assert.Equal(t, 10, tr.Points[0].Quantity)
	require.NotNil(t, tr.Slope)
	assert.InDelta(t, -2.0, *tr.Slope, 1e-9)
	assert.Len(t, tr.Line, forecast.TrendResolution)
	assert.Equal(t, 1, tr.SkippedEvents)
}

func TestGetConsumptionTrend_UnSoloPuntoSinRecta(t *testing.T) {
	uc := newUseCase(&fakeItemRepo{items: []*entity.Item{item("a", "x", 30, 1, ev("2024-04-01", 4))}})

	tr, err := uc.GetConsumptionTrend(context.Background(), "a")
	require.NoError(t, err)
	assert.Len(t, tr.Points, 1)
	assert.Nil(t, tr.Slope)
	assert.Empty(t, tr.Line)
}

// ─── Resumen y notificación ───────────────────────────────────────────────────

func TestSummary(t *testing.T) {
	repo := &fakeItemRepo{items: []*entity.Item{
		item("a", "limpieza", 5, 2),  // pedir 5 → 10
		item("b", "oficina", 8, 1.5), // pedir 2 → 3
		item("c", "oficina", 40, 9),  // sin pedido
	}}
	uc := newUseCase(repo)

	s, err := uc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalItems)
	assert.Equal(t, 2, s.ItemsToRestock)
	assert.Equal(t, 2, s.UrgentItems)
	assert.Equal(t, 2, s.LowStockItems)
	assert.True(t, decimal.NewFromInt(13).Equal(s.TotalCost), s.TotalCost.String())
	require.Len(t, s.Categories, 2)
	assert.Equal(t, "limpieza", s.Categories[0].Category)
}

func TestNotifyLowStock_SinCanales(t *testing.T) {
	uc := newUseCase(&fakeItemRepo{items: []*entity.Item{item("a", "x", 5, 1)}})

	res, err := uc.NotifyLowStock(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Sent)
	assert.NotEmpty(t, res.Reason)
}

func TestNotifyLowStock_SeleccionaRecienBajosYCercanos(t *testing.T) {
	repo := &fakeItemRepo{items: []*entity.Item{
		item("a", "x", 14, 1), // 4 días → dentro de 7
		item("b", "x", 40, 1), // 60 días
	}}
	n := &fakeNotifier{enabled: true, sent: true}
	uc := newUseCase(repo, appforecast.WithNotifier(n), appforecast.WithNotifyMaxDays(7))

	res, err := uc.NotifyLowStock(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Sent)
	assert.Equal(t, 1, res.Items)
	require.Len(t, n.batches, 1)
	assert.Equal(t, "a", n.batches[0][0].ProductID)
}

func TestNotifyLowStock_FalloDelCanalNoEsError(t *testing.T) {
	repo := &fakeItemRepo{items: []*entity.Item{item("a", "x", 5, 1)}}
	n := &fakeNotifier{enabled: true, err: errors.New("smtp: 535 auth failed")}
	uc := newUseCase(repo, appforecast.WithNotifier(n))

	res, err := uc.NotifyLowStock(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Sent)
	assert.Contains(t, res.Reason, "535")
}

func TestRestockReport_SinGenerador(t *testing.T) {
	uc := newUseCase(&fakeItemRepo{})
	_, err := uc.RestockReport(context.Background())
	assert.ErrorIs(t, err, errors.ErrUnsupported)
}

func TestRunCycle_DevuelveRegistrosEnOrden(t *testing.T) {
	repo := &fakeItemRepo{items: []*entity.Item{
		item("z", "x", 14, 2, ev("2024-04-01", 2)),
		item("a", "x", 8, 1),
	}}
	uc := newUseCase(repo)

	recs, err := uc.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "z", recs[0].ItemID)
	assert.Equal(t, 2, recs[0].DaysUntilLow, "(14-10)/2 = 2")
	assert.Equal(t, 0, recs[1].DaysUntilLow)
	assert.Equal(t, forecast.SourceBelowThreshold, recs[1].DaysSource)
}
