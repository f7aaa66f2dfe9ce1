// Package forecast реализует прогноз температуры по истории показаний
// Две стратегии: среднее по окну (базовая) и линейный тренд (расширенная)
package forecast

import (
	"context"
	"math"
	"time"

	"telemetry-service/internal/metrics"
	"telemetry-service/internal/models"
	"telemetry-service/internal/store"
)

// Названия стратегий в метаданных ответа
const (
	StrategyWindow = "window"
	StrategyTrend  = "trend"
)

// Result результат прогноза
// DataPoints=0 означает отсутствие данных в окне, а не прогноз 0.0
type Result struct {
	Prediction float64
	DataPoints int
	Strategy   string
	FutureTime time.Time
}

// Forecaster вычисляет прогнозы по данным хранилища показаний
type Forecaster struct {
	readings  store.ReadingStore
	window    time.Duration
	minPoints int
	fitBudget time.Duration
}

// New создает новый компонент прогнозирования
func New(readings store.ReadingStore, window time.Duration, minPoints int, fitBudget time.Duration) *Forecaster {
	return &Forecaster{
		readings:  readings,
		window:    window,
		minPoints: minPoints,
		fitBudget: fitBudget,
	}
}

// WindowAverage прогнозирует среднюю температуру показаний за последнее окно
// При пустом окне возвращает прогноз 0 с нулевым числом точек
func (f *Forecaster) WindowAverage(ctx context.Context, now time.Time, horizonHours int) (Result, error) {
	cutoff := now.Add(-f.window)
	readings, err := f.readings.ListSince(ctx, cutoff)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		DataPoints: len(readings),
		Strategy:   StrategyWindow,
		FutureTime: now.Add(time.Duration(horizonHours) * time.Hour).UTC(),
	}

	if len(readings) == 0 {
		return result, nil
	}

	sum := 0.0
	for _, r := range readings {
		sum += r.Temperature
	}
	result.Prediction = round1(sum / float64(len(readings)))

	return result, nil
}

// Trend строит линейную регрессию по всей истории и прогнозирует
// точку через horizonHours часов. Требуется минимум точек истории,
// иначе возвращается models.ErrInsufficientData без скрытого отката.
// Подгонка ограничена бюджетом времени, при его исчерпании результат
// деградирует до оконной стратегии
func (f *Forecaster) Trend(ctx context.Context, now time.Time, horizonHours int) (Result, error) {
	readings, err := f.readings.ListAll(ctx)
	if err != nil {
		return Result{}, err
	}

	if len(readings) < f.minPoints {
		return Result{}, models.ErrInsufficientData
	}

	fitCtx, cancel := context.WithTimeout(ctx, f.fitBudget)
	defer cancel()

	type fitResult struct {
		prediction float64
		ok         bool
	}

	done := make(chan fitResult, 1)
	go func() {
		prediction, ok := fitLine(fitCtx, readings, now, horizonHours)
		done <- fitResult{prediction: prediction, ok: ok}
	}()

	select {
	case fr := <-done:
		if !fr.ok {
			break
		}
		return Result{
			Prediction: round1(fr.prediction),
			DataPoints: len(readings),
			Strategy:   StrategyTrend,
			FutureTime: now.Add(time.Duration(horizonHours) * time.Hour).UTC(),
		}, nil
	case <-fitCtx.Done():
	}

	// Бюджет исчерпан, возвращаем базовую стратегию
	metrics.ForecastFallbacks.Inc()
	return f.WindowAverage(ctx, now, horizonHours)
}

// fitLine вычисляет наклон методом наименьших квадратов в центрированной
// форме, устойчивой к близко расположенным меткам времени
// x измеряется в часах от первого показания
func fitLine(ctx context.Context, readings []models.Reading, now time.Time, horizonHours int) (float64, bool) {
	origin := readings[0].Timestamp

	n := float64(len(readings))
	sumX := 0.0
	sumY := 0.0

	for i, r := range readings {
		// Периодически проверяем бюджет на длинной истории
		if i%1024 == 0 && ctx.Err() != nil {
			return 0, false
		}
		sumX += r.Timestamp.Sub(origin).Hours()
		sumY += r.Temperature
	}

	meanX := sumX / n
	meanY := sumY / n

	num := 0.0
	denom := 0.0
	for i, r := range readings {
		if i%1024 == 0 && ctx.Err() != nil {
			return 0, false
		}
		dx := r.Timestamp.Sub(origin).Hours() - meanX
		dy := r.Temperature - meanY
		num += dx * dy
		denom += dx * dx
	}

	if denom == 0 {
		// Все показания в один момент, тренд вырождается в среднее
		return meanY, true
	}

	slope := num / denom
	futureX := now.Add(time.Duration(horizonHours) * time.Hour).Sub(origin).Hours()
	return meanY + slope*(futureX-meanX), true
}

// round1 округляет до одного знака после запятой
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
