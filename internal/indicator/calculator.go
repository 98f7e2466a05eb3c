package indicator

import (
	"errors"
	"math"

	"tw-stock-advisor/internal/ta"
	"tw-stock-advisor/internal/types"
)

// MinBars is the minimum cleaned series length for a valid snapshot.
const MinBars = 20

// ErrInsufficientData is returned when fewer than MinBars valid bars remain.
var ErrInsufficientData = errors.New("insufficient data")

// Clean drops bars with a missing close or volume. A missing open, high or low
// takes the close so the candle classification stays defined.
func Clean(raw []types.RawBar) []types.Bar {
	out := make([]types.Bar, 0, len(raw))
	for _, r := range raw {
		if r.Close == nil || r.Volume == nil {
			continue
		}
		c := *r.Close
		if math.IsNaN(c) || math.IsNaN(*r.Volume) {
			continue
		}
		out = append(out, types.Bar{
			Time:   r.Time,
			Open:   orDefault(r.Open, c),
			High:   orDefault(r.High, c),
			Low:    orDefault(r.Low, c),
			Close:  c,
			Volume: *r.Volume,
		})
	}
	return out
}

func orDefault(v *float64, def float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return def
	}
	return *v
}

// Calculate derives the snapshot from a cleaned, most-recent-last series.
func Calculate(series []types.Bar) (*types.Indicators, error) {
	if len(series) < MinBars {
		return nil, ErrInsufficientData
	}

	closes := make([]float64, len(series))
	for i, b := range series {
		closes[i] = b.Close
	}

	last := series[len(series)-1]
	ma5 := ta.SMA(closes, 5)
	ma20, upper, _ := ta.Bollinger(closes, 20, 2)
	sd20 := ta.StdDev(closes, 20)
	bias5 := (last.Close - ma5) / ma5 * 100

	rsi := ta.RSI(closes, 14)
	if math.IsNaN(rsi) {
		rsi = 0
	}

	return &types.Indicators{
		MA5:         ta.Round2(ma5),
		MA20:        ta.Round2(ma20),
		StdDev20:    ta.Round2(sd20),
		UpperBand:   ta.Round2(upper),
		Bias5:       ta.Round2(bias5),
		VolumeRatio: ta.Round2(VolumeRatio(series)),
		RSI14:       ta.Round2(rsi),
		Candle:      Classify(last.Open, last.Close, last.High),
		LastClose:   last.Close,
		Bars:        len(series),
	}, nil
}

// VolumeRatio is the last volume over the mean of the five bars before it;
// 1.0 when that mean is zero or the series is too short.
func VolumeRatio(series []types.Bar) float64 {
	if len(series) < 6 {
		return 1.0
	}
	prior := make([]float64, 0, 5)
	for _, b := range series[len(series)-6 : len(series)-1] {
		prior = append(prior, b.Volume)
	}
	avg := ta.Mean(prior)
	if avg == 0 || math.IsNaN(avg) {
		return 1.0
	}
	return series[len(series)-1].Volume / avg
}

// Classify labels a bar by body and upper shadow size relative to the close.
// LongUpperShadow wins over a strong body when both hold.
func Classify(open, closePrice, high float64) types.CandlePattern {
	body := math.Abs(closePrice - open)
	upperShadow := high - math.Max(closePrice, open)

	switch {
	case upperShadow > 2*body && upperShadow > closePrice*0.01:
		return types.CandleLongUpperShadow
	case closePrice > open && body > closePrice*0.02:
		return types.CandleStrongBullish
	case closePrice < open && body > closePrice*0.02:
		return types.CandleStrongBearish
	default:
		return types.CandleNormal
	}
}
