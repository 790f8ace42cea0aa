package forecast

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/jhoicas/stockwise-forecast/internal/domain"
)

const (
	// DefaultSplitSeed semilla fija del particionado train/test para que el puntaje sea reproducible.
	DefaultSplitSeed int64 = 42
	// DefaultTestRatio fracción reservada para evaluación.
	DefaultTestRatio = 0.2
)

// Sample una fila de entrenamiento: (existencias, precio) → días hasta stock bajo.
type Sample struct {
	Quantity float64
	Price    float64
	Target   float64
}

// Coefficients coeficientes del modelo lineal days = Intercept + Quantity*q + Price*p.
type Coefficients struct {
	Intercept float64 `json:"intercept"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
}

// Regression estimador lineal secundario (mínimos cuadrados con dos variables).
// No es seguro para uso concurrente: el caso de uso que lo posee serializa el acceso.
type Regression struct {
	seed      int64
	testRatio float64

	coef    Coefficients
	trained bool
	r2      float64
	samples int
}

// NewRegression crea un modelo sin entrenar con la partición 80/20 y semilla 42.
func NewRegression() *Regression {
	return &Regression{seed: DefaultSplitSeed, testRatio: DefaultTestRatio}
}

// Trained indica si el modelo ya tiene coeficientes.
func (r *Regression) Trained() bool { return r.trained }

// Coefficients devuelve los coeficientes vigentes.
func (r *Regression) Coefficients() Coefficients { return r.coef }

// Score R² del último entrenamiento sobre la partición de prueba.
func (r *Regression) Score() float64 { return r.r2 }

// Samples cantidad de filas usadas en el último entrenamiento (train + test).
func (r *Regression) Samples() int { return r.samples }

// Fit particiona las muestras (barajado determinista), ajusta sobre la parte de entrenamiento y devuelve
// el coeficiente de determinación sobre la parte reservada. Reemplaza por completo los coeficientes previos;
// si falla, el modelo conserva su estado anterior.
func (r *Regression) Fit(samples []Sample) (float64, error) {
	n := len(samples)
	if n < 2 {
		return 0, fmt.Errorf("%w: se requieren al menos 2 artículos, hay %d", domain.ErrInsufficientData, n)
	}

	nTest := int(math.Ceil(r.testRatio * float64(n)))
	if nTest >= n {
		nTest = n - 1
	}
	perm := rand.New(rand.NewSource(r.seed)).Perm(n)

	test := make([]Sample, 0, nTest)
	train := make([]Sample, 0, n-nTest)
	for i, idx := range perm {
		if i < nTest {
			test = append(test, samples[idx])
		} else {
			train = append(train, samples[idx])
		}
	}

	coef := leastSquares(train)
	r.coef = coef
	r.trained = true
	r.samples = n
	r.r2 = rSquared(coef, test)
	return r.r2, nil
}

// Predict salida cruda del modelo acotada inferiormente a 0 y truncada a entero.
// Con el modelo sin entrenar devuelve 0; el caso de uso entrena antes de predecir.
func (r *Regression) Predict(quantity, price float64) int {
	raw := r.coef.eval(quantity, price)
	if math.IsNaN(raw) || raw <= 0 {
		return 0
	}
	if raw > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(raw)
}

func (c Coefficients) eval(q, p float64) float64 {
	return c.Intercept + c.Quantity*q + c.Price*p
}

// leastSquares resuelve MCO con intercepto sobre datos centrados. Si la matriz de covarianzas es singular
// (precio constante, variables colineales) usa la solución de norma mínima, igual que lstsq.
func leastSquares(samples []Sample) Coefficients {
	n := float64(len(samples))
	var mq, mp, my float64
	for _, s := range samples {
		mq += s.Quantity
		mp += s.Price
		my += s.Target
	}
	mq, mp, my = mq/n, mp/n, my/n

	var sqq, sqp, spp, sqy, spy float64
	for _, s := range samples {
		dq, dp, dy := s.Quantity-mq, s.Price-mp, s.Target-my
		sqq += dq * dq
		sqp += dq * dp
		spp += dp * dp
		sqy += dq * dy
		spy += dp * dy
	}

	var bq, bp float64
	det := sqq*spp - sqp*sqp
	if sqq > 0 && spp > 0 && det > 1e-10*sqq*spp {
		bq = (spp*sqy - sqp*spy) / det
		bp = (sqq*spy - sqp*sqy) / det
	} else if trace := sqq + spp; trace > 0 {
		// rango 1: pinv(M) = M / trace²
		t2 := trace * trace
		bq = (sqq*sqy + sqp*spy) / t2
		bp = (sqp*sqy + spp*spy) / t2
	}

	return Coefficients{
		Intercept: my - bq*mq - bp*mp,
		Quantity:  bq,
		Price:     bp,
	}
}

// rSquared 1 - SSres/SStot. Con varianza nula en la prueba devuelve 1 si el ajuste es exacto, 0 si no.
func rSquared(coef Coefficients, samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var mean float64
	for _, s := range samples {
		mean += s.Target
	}
	mean /= float64(len(samples))

	var ssRes, ssTot float64
	for _, s := range samples {
		res := s.Target - coef.eval(s.Quantity, s.Price)
		ssRes += res * res
		d := s.Target - mean
		ssTot += d * d
	}
	if ssTot == 0 {
		if ssRes < 1e-12 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}
