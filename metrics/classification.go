// Package metrics は分類器の評価指標を提供します。
package metrics

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/YuminosukeSato/sefr/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Accuracy は正解率（予測が一致した割合）を計算する
func Accuracy[L comparable](yTrue, yPred []L) (float64, error) {
	// 入力検証
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty input")
	}
	if len(yPred) != n {
		return 0, errors.NewDimensionError("Accuracy", n, len(yPred), 0)
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ConfusionMatrix は混同行列を計算する。
// 行が正解ラベル、列が予測ラベルで、どちらも返されるlabelsの順（昇順）に並ぶ。
func ConfusionMatrix[L cmp.Ordered](yTrue, yPred []L) (*mat.Dense, []L, error) {
	n := len(yTrue)
	if n == 0 {
		return nil, nil, errors.NewValueError("ConfusionMatrix", "empty input")
	}
	if len(yPred) != n {
		return nil, nil, errors.NewDimensionError("ConfusionMatrix", n, len(yPred), 0)
	}

	labels := unionLabels(yTrue, yPred)
	index := make(map[L]int, len(labels))
	for i, label := range labels {
		index[label] = i
	}

	cm := mat.NewDense(len(labels), len(labels), nil)
	for i := range yTrue {
		r, c := index[yTrue[i]], index[yPred[i]]
		cm.Set(r, c, cm.At(r, c)+1)
	}
	return cm, labels, nil
}

// ClassMetrics は1クラス分の評価指標
type ClassMetrics[L cmp.Ordered] struct {
	Label     L
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report はClassificationReportの結果
type Report[L cmp.Ordered] struct {
	Classes  []ClassMetrics[L]
	Accuracy float64
	// MacroAvg はクラスごとの指標の単純平均（Supportは合計）
	MacroAvg ClassMetrics[L]
	Total    int
}

// ClassificationReport はクラスごとの適合率・再現率・F1スコアを計算する。
// 分母が0になる指標は0とし、UndefinedMetricWarningを発生させる。
func ClassificationReport[L cmp.Ordered](yTrue, yPred []L) (*Report[L], error) {
	cm, labels, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return nil, err
	}

	k := len(labels)
	report := &Report[L]{Classes: make([]ClassMetrics[L], k), Total: len(yTrue)}
	var correct float64
	for i, label := range labels {
		tp := cm.At(i, i)
		correct += tp
		predicted := mat.Sum(cm.ColView(i))
		actual := mat.Sum(cm.RowView(i))

		m := ClassMetrics[L]{Label: label, Support: int(actual)}
		m.Precision = ratio("precision", tp, predicted, "no predicted samples")
		m.Recall = ratio("recall", tp, actual, "no true samples")
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		report.Classes[i] = m

		report.MacroAvg.Precision += m.Precision / float64(k)
		report.MacroAvg.Recall += m.Recall / float64(k)
		report.MacroAvg.F1 += m.F1 / float64(k)
		report.MacroAvg.Support += m.Support
	}
	report.Accuracy = correct / float64(len(yTrue))
	return report, nil
}

func ratio(metric string, num, den float64, condition string) float64 {
	if den == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning(metric, condition, 0))
		return 0
	}
	return num / den
}

// String はレポートを表形式の文字列にする
func (r *Report[L]) String() string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "\tprecision\trecall\tf1-score\tsupport\t")
	for _, c := range r.Classes {
		fmt.Fprintf(w, "%v\t%.3f\t%.3f\t%.3f\t%d\t\n", c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	fmt.Fprintln(w, "\t\t\t\t\t")
	fmt.Fprintf(w, "accuracy\t\t\t%.3f\t%d\t\n", r.Accuracy, r.Total)
	fmt.Fprintf(w, "macro avg\t%.3f\t%.3f\t%.3f\t%d\t\n", r.MacroAvg.Precision, r.MacroAvg.Recall, r.MacroAvg.F1, r.MacroAvg.Support)
	_ = w.Flush()
	return sb.String()
}

func unionLabels[L cmp.Ordered](a, b []L) []L {
	set := make(map[L]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		set[v] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}
