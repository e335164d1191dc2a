package predict

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Skufu/symptomsense/internal/explain"
	"github.com/Skufu/symptomsense/internal/model"
	"github.com/Skufu/symptomsense/internal/symptoms"
)

type fakeClassifier struct {
	probs []float64
	err   error
	seen  []float64
}

func (f *fakeClassifier) PredictProba(_ context.Context, x []float64) ([]float64, error) {
	f.seen = append([]float64(nil), x...)
	return f.probs, f.err
}

type fakeExplainer struct {
	attr  model.Attribution
	err   error
	calls int
}

func (f *fakeExplainer) Attribute(context.Context, []float64) (model.Attribution, error) {
	f.calls++
	return f.attr, f.err
}

func newService(t *testing.T, clf model.Classifier, exp model.Explainer) *Service {
	t.Helper()
	vocab, err := symptoms.NewVocabulary([]string{"fever", "cough", "fatigue", "joint_pain"})
	if err != nil {
		t.Fatal(err)
	}
	table := symptoms.NewSynonymTable([]symptoms.Entry{
		{Canonical: "fever", Synonyms: []string{"high temperature", "pyrexia"}},
		{Canonical: "cough", Synonyms: []string{"coughing"}},
	})
	labels := model.NewLabels(map[int]string{0: "Flu", 1: "Cold", 2: "Allergy", 3: "Migraine", 4: "Measles"})
	return NewService(symptoms.NewNormalizer(table, vocab), vocab, clf, exp, labels, nil)
}

func TestPredictRanksAndExplains(t *testing.T) {
	clf := &fakeClassifier{probs: []float64{0.70, 0.20, 0.10, 0, 0}}
	exp := &fakeExplainer{attr: model.PerClass([][]float64{
		{0.5, 0.3, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})}
	svc := newService(t, clf, exp)

	res, err := svc.Predict(context.Background(), []string{"High Temperature", "cough", "glowing skin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MostLikely == nil || res.MostLikely.Disease != "Flu" || res.MostLikely.Probability != 70 {
		t.Fatalf("unexpected most likely %+v", res.MostLikely)
	}
	if len(res.Possible) != 2 || res.Possible[0].Disease != "Cold" || res.Possible[1].Probability != 10 {
		t.Fatalf("unexpected possible %+v", res.Possible)
	}
	if strings.Join(res.MatchedSymptoms, ",") != "fever,cough" {
		t.Fatalf("unexpected matched %v", res.MatchedSymptoms)
	}
	if len(res.Unmatched) != 1 || res.Unmatched[0] != "glowing skin" {
		t.Fatalf("unexpected unmatched %v", res.Unmatched)
	}
	if res.Explanation != "Most important symptoms for this prediction: Fever, Cough." {
		t.Fatalf("unexpected explanation %q", res.Explanation)
	}
	if clf.seen[0] != 1 || clf.seen[1] != 1 || clf.seen[2] != 0 {
		t.Fatalf("unexpected input vector %v", clf.seen)
	}
	if exp.calls != 1 {
		t.Fatalf("expected one attribution call, got %d", exp.calls)
	}
}

func TestPredictPossibleCappedAtThree(t *testing.T) {
	svc := newService(t, &fakeClassifier{probs: []float64{0.3, 0.25, 0.2, 0.15, 0.1}}, nil)
	res, err := svc.Predict(context.Background(), []string{"fever"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Possible) != 3 {
		t.Fatalf("expected 3 possible entries, got %d", len(res.Possible))
	}
	if res.Explanation != explain.Unavailable {
		t.Fatalf("expected unavailable explanation without explainer, got %q", res.Explanation)
	}
}

func TestPredictDropsLowProbabilities(t *testing.T) {
	svc := newService(t, &fakeClassifier{probs: []float64{0.005, 0.01, 0.985, 0, 0}}, nil)
	res, err := svc.Predict(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MostLikely.Disease != "Allergy" || res.MostLikely.Probability != 98.5 {
		t.Fatalf("unexpected most likely %+v", res.MostLikely)
	}
	if len(res.Possible) != 0 {
		t.Fatalf("expected no possible entries, got %+v", res.Possible)
	}
}

func TestPredictEqualPercentagesKeepClassOrder(t *testing.T) {
	svc := newService(t, &fakeClassifier{probs: []float64{0.12341, 0.12344, 0.7, 0, 0}}, nil)
	res, err := svc.Predict(context.Background(), []string{"fever"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MostLikely.Disease != "Allergy" {
		t.Fatalf("unexpected most likely %+v", res.MostLikely)
	}
	if len(res.Possible) != 2 || res.Possible[0].Disease != "Flu" || res.Possible[1].Disease != "Cold" {
		t.Fatalf("expected Flu before Cold at equal percentages, got %+v", res.Possible)
	}
	if res.Possible[0].Probability != 12.34 || res.Possible[1].Probability != 12.34 {
		t.Fatalf("unexpected probabilities %+v", res.Possible)
	}
}

func TestPredictEmptyResultSerialisesArrays(t *testing.T) {
	svc := newService(t, &fakeClassifier{probs: []float64{0, 0, 0, 0, 0}}, nil)
	res, err := svc.Predict(context.Background(), []string{"nothing useful"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	got := string(body)
	for _, want := range []string{`"most_likely":null`, `"possible":[]`, `"matched_symptoms":[]`} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %s in %s", want, got)
		}
	}
	if strings.Contains(got, "nothing useful") {
		t.Fatalf("unmatched phrases must not be serialised: %s", got)
	}
}

func TestPredictClassifierError(t *testing.T) {
	svc := newService(t, &fakeClassifier{err: errors.New("boom")}, nil)
	if _, err := svc.Predict(context.Background(), []string{"fever"}); err == nil {
		t.Fatal("expected classifier error")
	}
}

func TestPredictUnknownClass(t *testing.T) {
	svc := newService(t, &fakeClassifier{probs: []float64{0.1, 0, 0, 0, 0, 0.9}}, nil)
	if _, err := svc.Predict(context.Background(), []string{"fever"}); err == nil {
		t.Fatal("expected error for class without a disease name")
	}
}

func TestPredictAttributionFailuresDegradeExplanation(t *testing.T) {
	cases := []struct {
		name string
		exp  *fakeExplainer
		want string
	}{
		{"explainer error", &fakeExplainer{err: errors.New("timeout")}, explain.Unavailable},
		{"wrong shape", &fakeExplainer{attr: model.PerClass([][]float64{{1, 0, 0, 0}, {0, 1, 0, 0}})}, explain.ShapeError},
		{"wrong width", &fakeExplainer{attr: model.Single([]float64{0, 0, 0, 0, 0.9, 0.8})}, explain.ShapeError},
		{"short per-class row", &fakeExplainer{attr: model.PerClass([][]float64{{1}, {1}, {1, 0}})}, explain.ShapeError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newService(t, &fakeClassifier{probs: []float64{0.1, 0.1, 0.8, 0, 0}}, tc.exp)
			res, err := svc.Predict(context.Background(), []string{"fever"})
			if err != nil {
				t.Fatalf("prediction must survive attribution failure: %v", err)
			}
			if res.Explanation != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, res.Explanation)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(0.123456); got != 12.35 {
		t.Fatalf("expected 12.35, got %v", got)
	}
	if got := Percent(0.7); got != 70 {
		t.Fatalf("expected 70, got %v", got)
	}
}

func TestParseSymptoms(t *testing.T) {
	got, err := ParseSymptoms(`["fever", "cough"]`)
	if err != nil || len(got) != 2 || got[1] != "cough" {
		t.Fatalf("unexpected result %v %v", got, err)
	}
	if got, err := ParseSymptoms(`[]`); err != nil || len(got) != 0 {
		t.Fatalf("expected empty list, got %v %v", got, err)
	}
	if _, err := ParseSymptoms(`not json`); !errors.Is(err, ErrInvalidSymptomsJSON) {
		t.Fatalf("expected invalid JSON error, got %v", err)
	}
	if _, err := ParseSymptoms(`"fever"`); !errors.Is(err, ErrSymptomsNotList) {
		t.Fatalf("expected not-a-list error, got %v", err)
	}
	if _, err := ParseSymptoms(`["fever", 3]`); !errors.Is(err, ErrSymptomsNotList) {
		t.Fatalf("expected not-a-list error for mixed array, got %v", err)
	}
}
