package regression

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/coinsight/coinsight-go/internal/utils"
)

// Model is a fitted ridge regressor bundled with its fit-time scaler and
// feature column order. The three parts are persisted and reloaded together;
// inference always scales with the fit-time statistics.
type Model struct {
	FeatureColumns []string  `json:"feature_columns"`
	Means          []float64 `json:"means"`
	Stds           []float64 `json:"stds"`
	Coefficients   []float64 `json:"coefficients"`
	Intercept      float64   `json:"intercept"`
	Alpha          float64   `json:"alpha"`
	ValidationMSE  float64   `json:"validation_mse"`
	TrainedAt      time.Time `json:"trained_at"`
}

// Prediction is one per-date predicted closing price next to the observed one.
type Prediction struct {
	Date      time.Time `json:"date"`
	Predicted float64   `json:"predicted"`
	Actual    float64   `json:"actual"`
}

// Fit trains a ridge model on the feature table. The tail holdout fraction
// is kept for validation (the rows are time-ordered per coin, so the tail is
// the most recent history). Features are standardized with statistics from
// the training portion only; the intercept absorbs the training target mean.
func Fit(ft *FeatureTable, alpha, holdout float64) (*Model, error) {
	if alpha < 0 {
		return nil, utils.NewValidationErrorf("ridge alpha must be >= 0, got %v", alpha)
	}
	if holdout <= 0 || holdout >= 1 {
		return nil, utils.NewValidationErrorf("holdout fraction must be in (0, 1), got %v", holdout)
	}

	n := len(ft.Rows)
	k := len(ft.Columns)
	trainN := n - int(float64(n)*holdout)
	if trainN < k {
		return nil, utils.NewValidationErrorf(
			"not enough training rows: %d rows for %d features", trainN, k)
	}

	means, stds := fitScaler(ft.Rows[:trainN], k)

	yMean := 0.0
	for _, y := range ft.Target[:trainN] {
		yMean += y
	}
	yMean /= float64(trainN)

	xs := mat.NewDense(trainN, k, nil)
	yc := mat.NewVecDense(trainN, nil)
	for i := 0; i < trainN; i++ {
		for j := 0; j < k; j++ {
			xs.Set(i, j, scale(ft.Rows[i][j], means[j], stds[j]))
		}
		yc.SetVec(i, ft.Target[i]-yMean)
	}

	// Normal equations: (Xs'Xs + alpha*I) w = Xs'y
	gram := mat.NewDense(k, k, nil)
	gram.Mul(xs.T(), xs)
	for j := 0; j < k; j++ {
		gram.Set(j, j, gram.At(j, j)+alpha)
	}
	rhs := mat.NewVecDense(k, nil)
	rhs.MulVec(xs.T(), yc)

	var w mat.VecDense
	if err := w.SolveVec(gram, rhs); err != nil {
		return nil, utils.NewValidationErrorf("ridge system is singular: %v", err)
	}

	model := &Model{
		FeatureColumns: append([]string(nil), ft.Columns...),
		Means:          means,
		Stds:           stds,
		Coefficients:   make([]float64, k),
		Intercept:      yMean,
		Alpha:          alpha,
		TrainedAt:      time.Now().UTC(),
	}
	for j := 0; j < k; j++ {
		model.Coefficients[j] = w.AtVec(j)
	}

	if trainN < n {
		model.ValidationMSE = model.mse(ft.Rows[trainN:], ft.Target[trainN:])
	}
	return model, nil
}

// Predict scores raw (unscaled) rows laid out in FeatureColumns order.
func (m *Model) Predict(rows [][]float64) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		yhat := m.Intercept
		for j, v := range row {
			yhat += m.Coefficients[j] * scale(v, m.Means[j], m.Stds[j])
		}
		out[i] = yhat
	}
	return out
}

// PredictForCoins scores the rows of each requested coin. The feature table
// must carry the fit-time column set; a requested coin whose one-hot column
// the model was never fit with yields an empty slice, not an error.
func (m *Model) PredictForCoins(ft *FeatureTable, coinNames []string) (map[string][]Prediction, error) {
	index := make([]int, len(m.FeatureColumns))
	for j, col := range m.FeatureColumns {
		idx := ft.ColumnIndex(col)
		if idx < 0 && !isCoinColumn(col) {
			return nil, utils.NewValidationErrorf("feature table is missing model column %q", col)
		}
		index[j] = idx
	}

	results := make(map[string][]Prediction, len(coinNames))
	for _, coin := range coinNames {
		results[coin] = []Prediction{}
		if m.columnIndex(CoinColumn(coin)) < 0 {
			// The model has never seen this coin; its one-hot column
			// does not exist, so there is nothing to score.
			continue
		}

		var rows [][]float64
		var meta []RowMeta
		var actual []float64
		for i, rm := range ft.Meta {
			if rm.Coin != coin {
				continue
			}
			row := make([]float64, len(m.FeatureColumns))
			for j, idx := range index {
				if idx >= 0 {
					row[j] = ft.Rows[i][idx]
				}
			}
			rows = append(rows, row)
			meta = append(meta, rm)
			actual = append(actual, ft.Target[i])
		}

		predicted := m.Predict(rows)
		for i := range rows {
			results[coin] = append(results[coin], Prediction{
				Date:      meta[i].Date,
				Predicted: predicted[i],
				Actual:    actual[i],
			})
		}
	}
	return results, nil
}

func (m *Model) columnIndex(name string) int {
	for j, col := range m.FeatureColumns {
		if col == name {
			return j
		}
	}
	return -1
}

func (m *Model) mse(rows [][]float64, target []float64) float64 {
	predicted := m.Predict(rows)
	sum := 0.0
	for i := range predicted {
		d := predicted[i] - target[i]
		sum += d * d
	}
	return sum / float64(len(predicted))
}

func fitScaler(rows [][]float64, k int) (means, stds []float64) {
	means = make([]float64, k)
	stds = make([]float64, k)
	n := float64(len(rows))
	for _, row := range rows {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}
	for _, row := range rows {
		for j, v := range row {
			d := v - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / n)
		if stds[j] == 0 {
			// constant column: leave it centered but unscaled
			stds[j] = 1
		}
	}
	return means, stds
}

func scale(v, mean, std float64) float64 {
	return (v - mean) / std
}

func isCoinColumn(name string) bool {
	return len(name) > len(coinColumnPrefix) && name[:len(coinColumnPrefix)] == coinColumnPrefix
}
