package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
)

// Model fits a daily series and extrapolates it past its last date.
type Model interface {
	// Fit trains the model on the full series. holidays may be nil.
	Fit(series domain.HistoricalSeries, holidays domain.DateSet) error
	// Predict returns one estimate per calendar day after the last fitted date.
	Predict(horizon int) ([]Estimate, error)
	// Describe reports the configuration chosen during Fit.
	Describe() domain.ModelMetadata
}

// Estimate is a central value with its predictive standard deviation.
type Estimate struct {
	Date   time.Time
	Value  float64
	StdDev float64
}

const (
	day = 24 * time.Hour

	weeklyPeriod = 7.0
	yearlyPeriod = 365.25
	weeklyOrder  = 3
	yearlyOrder  = 10

	weeklyMinSpanDays = 14
	yearlyMinSpanDays = 730

	// ridgeLambda shrinks seasonal and holiday coefficients; trend terms are not penalised.
	ridgeLambda = 1.0

	ModelName = "additive_ridge"
)

// AdditiveModel decomposes a series into linear trend, Fourier weekly and
// yearly seasonality, and a flat holiday offset, fitted by ridge least squares.
type AdditiveModel struct {
	origin   time.Time
	last     time.Time
	spanDays float64

	weekly      bool
	yearly      bool
	holidayTerm bool
	holidays    domain.DateSet

	beta        []float64
	sigma       float64
	slopeSE     float64 // per day
	n           int
	holidayHits int
	fitted      bool
}

func NewAdditiveModel() *AdditiveModel {
	return &AdditiveModel{}
}

func (m *AdditiveModel) Fit(series domain.HistoricalSeries, holidays domain.DateSet) error {
	n := series.Len()
	if n < 2 {
		return fmt.Errorf("%w: %d distinct dates, need at least 2", domain.ErrInsufficientData, n)
	}

	m.origin = series.Points[0].Date
	m.last = series.Points[n-1].Date
	m.spanDays = daysBetween(m.origin, m.last)
	m.weekly = m.spanDays >= weeklyMinSpanDays
	m.yearly = m.spanDays >= yearlyMinSpanDays
	m.holidays = holidays
	m.n = n

	m.holidayHits = 0
	for _, p := range series.Points {
		if holidays.Contains(p.Date) {
			m.holidayHits++
		}
	}
	m.holidayTerm = m.holidayHits > 0

	p := m.numFeatures()
	X := mat.NewDense(n, p, nil)
	ys := make([]float64, n)
	row := make([]float64, p)
	for i, pt := range series.Points {
		m.features(pt.Date, row)
		X.SetRow(i, row)
		ys[i] = float64(pt.Quantity)
	}

	beta, rInv, err := solveRidge(X, ys, ridgeLambda)
	if err != nil {
		return err
	}

	var fitted mat.VecDense
	fitted.MulVec(X, beta)

	rss := 0.0
	for i := 0; i < n; i++ {
		r := ys[i] - fitted.AtVec(i)
		rss += r * r
	}

	if dof := n - p; dof > 0 {
		m.sigma = math.Sqrt(rss / float64(dof))
	} else {
		// Exact fit leaves no residual degrees of freedom.
		m.sigma = stat.StdDev(ys, nil)
	}

	// Var(slope) is σ² times the trend diagonal of (RᵀR)⁻¹ = R⁻¹R⁻ᵀ, i.e. the
	// squared norm of the trend row of R⁻¹.
	slopeVar := 0.0
	for k := 1; k < p; k++ {
		v := rInv.At(1, k)
		slopeVar += v * v
	}
	m.slopeSE = m.sigma * math.Sqrt(slopeVar) / m.trendScale()

	m.beta = make([]float64, p)
	for j := range m.beta {
		m.beta[j] = beta.AtVec(j)
	}
	m.fitted = true
	return nil
}

// solveRidge minimises |Xβ - y|² + λ|β_pen|², where every column after
// intercept and trend is penalised, as ordinary least squares on the augmented
// system [X; √λ·I_pen]β = [y; 0] solved by QR. It also returns R⁻¹ from the
// factorisation for coefficient variances.
func solveRidge(X *mat.Dense, ys []float64, lambda float64) (*mat.VecDense, *mat.TriDense, error) {
	n, p := X.Dims()
	penalised := p - 2

	A := mat.NewDense(n+penalised, p, nil)
	for i := 0; i < n; i++ {
		A.SetRow(i, X.RawRowView(i))
	}
	root := math.Sqrt(lambda)
	for j := 0; j < penalised; j++ {
		A.Set(n+j, 2+j, root)
	}
	b := mat.NewVecDense(n+penalised, nil)
	for i, y := range ys {
		b.SetVec(i, y)
	}

	var qr mat.QR
	qr.Factorize(A)

	var full mat.Dense
	qr.RTo(&full)
	R := mat.NewTriDense(p, mat.Upper, nil)
	for i := 0; i < p; i++ {
		if math.Abs(full.At(i, i)) < 1e-12 {
			return nil, nil, fmt.Errorf("forecast: design matrix is singular")
		}
		for j := i; j < p; j++ {
			R.SetTri(i, j, full.At(i, j))
		}
	}

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, b); err != nil && !isConditionWarning(err) {
		return nil, nil, fmt.Errorf("forecast: solve least squares: %w", err)
	}

	var rInv mat.TriDense
	if err := rInv.InverseTri(R); err != nil && !isConditionWarning(err) {
		return nil, nil, fmt.Errorf("forecast: invert R: %w", err)
	}
	return &beta, &rInv, nil
}

// isConditionWarning reports a finite condition-number warning, which gonum
// returns alongside a usable result.
func isConditionWarning(err error) bool {
	var cond mat.Condition
	return errors.As(err, &cond) && !math.IsInf(float64(cond), 0)
}

func (m *AdditiveModel) Predict(horizon int) ([]Estimate, error) {
	if !m.fitted {
		return nil, fmt.Errorf("forecast: model is not fitted")
	}

	out := make([]Estimate, 0, horizon)
	row := make([]float64, len(m.beta))
	for h := 1; h <= horizon; h++ {
		date := m.last.AddDate(0, 0, h)
		m.features(date, row)

		value := 0.0
		for j, b := range m.beta {
			value += b * row[j]
		}

		out = append(out, Estimate{
			Date:   date,
			Value:  value,
			StdDev: m.stdDev(h),
		})
	}
	return out, nil
}

// stdDev combines residual noise, slope uncertainty growing linearly with the
// step and a random-walk term, so it never shrinks as h grows.
func (m *AdditiveModel) stdDev(h int) float64 {
	hf := float64(h)
	trend := hf * m.slopeSE
	drift := hf * m.sigma * m.sigma / float64(m.n)
	return math.Sqrt(m.sigma*m.sigma + trend*trend + drift)
}

func (m *AdditiveModel) Describe() domain.ModelMetadata {
	return domain.ModelMetadata{
		Model:             ModelName,
		Trend:             "linear",
		WeeklySeasonality: m.weekly,
		YearlySeasonality: m.yearly,
		HolidayCount:      m.holidayHits,
		TrainingPoints:    m.n,
	}
}

func (m *AdditiveModel) numFeatures() int {
	p := 2
	if m.weekly {
		p += 2 * weeklyOrder
	}
	if m.yearly {
		p += 2 * yearlyOrder
	}
	if m.holidayTerm {
		p++
	}
	return p
}

// features writes the design row for date into dst, in the column order
// intercept, trend, weekly pairs, yearly pairs, holiday.
func (m *AdditiveModel) features(date time.Time, dst []float64) {
	dst[0] = 1
	dst[1] = daysBetween(m.origin, date) / m.trendScale()
	j := 2

	abs := float64(domain.TruncateDay(date).Unix()) / day.Seconds()
	if m.weekly {
		j = fourier(abs, weeklyPeriod, weeklyOrder, dst, j)
	}
	if m.yearly {
		j = fourier(abs, yearlyPeriod, yearlyOrder, dst, j)
	}
	if m.holidayTerm {
		dst[j] = 0
		if m.holidays.Contains(date) {
			dst[j] = 1
		}
	}
}

func (m *AdditiveModel) trendScale() float64 {
	if m.spanDays < 1 {
		return 1
	}
	return m.spanDays
}

func fourier(t, period float64, order int, dst []float64, j int) int {
	for k := 1; k <= order; k++ {
		x := 2 * math.Pi * float64(k) * t / period
		dst[j] = math.Sin(x)
		dst[j+1] = math.Cos(x)
		j += 2
	}
	return j
}

func daysBetween(from, to time.Time) float64 {
	return math.Round(domain.TruncateDay(to).Sub(domain.TruncateDay(from)).Hours() / 24)
}
