package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubEstimator struct {
	analyzeCalls []string
	nameCalls    []string
	estimates    map[string]NutritionEstimate
	analyzeErr   map[string]error
	nameErr      error
}

func (s *stubEstimator) AnalyzeFood(_ context.Context, description string) (*NutritionEstimate, error) {
	s.analyzeCalls = append(s.analyzeCalls, description)
	if err, ok := s.analyzeErr[description]; ok {
		return nil, err
	}
	if est, ok := s.estimates[description]; ok {
		return &est, nil
	}
	return &NutritionEstimate{Calories: 100, Protein: 10, Fat: 5, Carbs: 10}, nil
}

func (s *stubEstimator) ImproveName(_ context.Context, original string) (string, error) {
	s.nameCalls = append(s.nameCalls, original)
	if s.nameErr != nil {
		return "", s.nameErr
	}
	return "Named: " + original, nil
}

func TestSplitDescription(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        []string
	}{
		{"no delimiter", "куриная грудка 200г", []string{"куриная грудка 200г"}},
		{"comma", "куриная грудка 200г, рис 100г", []string{"куриная грудка 200г", "рис 100г"}},
		{"semicolon", "яблоко; банан", []string{"яблоко", "банан"}},
		{"word and", "гречка и котлета", []string{"гречка", "котлета"}},
		{"word with", "салат с помидорами", []string{"салат", "помидорами"}},
		{"word plus", "суп плюс хлеб", []string{"суп", "хлеб"}},
		{"mixed case delimiter", "гречка И котлета", []string{"гречка", "котлета"}},
		{"empty parts dropped", "яблоко, , банан", []string{"яблоко", "банан"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitDescription(tt.description))
		})
	}
}

func TestAnalyzeMealSingleItem(t *testing.T) {
	stub := &stubEstimator{
		estimates: map[string]NutritionEstimate{
			"куриная грудка 200г": {Calories: 330, Protein: 62, Fat: 7.2, Recommendations: "Отличный источник белка"},
		},
	}
	analyzer := NewMealAnalyzer(stub, true, zap.NewNop())

	result, err := analyzer.AnalyzeMeal(context.Background(), "куриная грудка 200г")
	require.NoError(t, err)

	// A single candidate goes to the estimator exactly once, unmodified,
	// and without a naming side-call.
	require.Equal(t, []string{"куриная грудка 200г"}, stub.analyzeCalls)
	assert.Empty(t, stub.nameCalls)

	require.Len(t, result.Products, 1)
	assert.Equal(t, 330, result.Total.Calories)
	assert.Equal(t, 62.0, result.Total.Protein)
	assert.Equal(t, "Отличный источник белка", result.Recommendations)
}

func TestAnalyzeMealTwoItems(t *testing.T) {
	stub := &stubEstimator{
		estimates: map[string]NutritionEstimate{
			"куриная грудка 200г": {Calories: 330, Protein: 62, Fat: 7.2},
			"рис 100г":            {Calories: 130, Protein: 2.7, Fat: 0.3, Carbs: 28},
		},
	}
	analyzer := NewMealAnalyzer(stub, true, zap.NewNop())

	result, err := analyzer.AnalyzeMeal(context.Background(), "куриная грудка 200г, рис 100г")
	require.NoError(t, err)

	assert.Equal(t, []string{"куриная грудка 200г", "рис 100г"}, stub.analyzeCalls)
	assert.Equal(t, []string{"куриная грудка 200г", "рис 100г"}, stub.nameCalls)

	require.Len(t, result.Products, 2)
	assert.Equal(t, 460, result.Total.Calories)
	assert.Equal(t, 64.7, result.Total.Protein)
	assert.Equal(t, 7.5, result.Total.Fat)
	assert.Equal(t, 28.0, result.Total.Carbs)
	assert.Equal(t, "Named: куриная грудка 200г", result.Products[0].Product)
}

func TestAnalyzeMealNamingDisabled(t *testing.T) {
	stub := &stubEstimator{}
	analyzer := NewMealAnalyzer(stub, false, zap.NewNop())

	result, err := analyzer.AnalyzeMeal(context.Background(), "яблоко, банан")
	require.NoError(t, err)

	assert.Len(t, stub.analyzeCalls, 2)
	assert.Empty(t, stub.nameCalls)
	assert.Equal(t, "Яблоко", result.Products[0].Product)
	assert.Equal(t, "Банан", result.Products[1].Product)
}

func TestAnalyzeMealItemFailureUsesFallback(t *testing.T) {
	stub := &stubEstimator{
		estimates: map[string]NutritionEstimate{
			"рис 100г": {Calories: 130, Protein: 2.7, Fat: 0.3, Carbs: 28},
		},
		analyzeErr: map[string]error{
			"что-то странное": fmt.Errorf("%w: status 500", ErrTransport),
		},
	}
	analyzer := NewMealAnalyzer(stub, true, zap.NewNop())

	result, err := analyzer.AnalyzeMeal(context.Background(), "что-то странное, рис 100г")
	require.NoError(t, err)

	require.Len(t, result.Products, 2)
	failed := result.Products[0]
	assert.True(t, failed.Failed)
	assert.Equal(t, "Что-то странное", failed.Product)
	assert.Equal(t, fallbackEstimate, failed.Analysis)

	// 100 fallback + 130 real
	assert.Equal(t, 230, result.Total.Calories)
}

func TestAnalyzeMealNameFailureKeepsLocalFormatting(t *testing.T) {
	stub := &stubEstimator{nameErr: fmt.Errorf("%w: status 429", ErrTransport)}
	analyzer := NewMealAnalyzer(stub, true, zap.NewNop())

	result, err := analyzer.AnalyzeMeal(context.Background(), "яблоко,  зелёное   яблоко")
	require.NoError(t, err)
	assert.Equal(t, "Яблоко", result.Products[0].Product)
	assert.Equal(t, "Зелёное яблоко", result.Products[1].Product)
	assert.False(t, result.Products[0].Failed)
}

func TestAnalyzeMealEmptyDescription(t *testing.T) {
	analyzer := NewMealAnalyzer(&stubEstimator{}, true, zap.NewNop())
	_, err := analyzer.AnalyzeMeal(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOverallRecommendationsCalorieBands(t *testing.T) {
	tests := []struct {
		name     string
		calories int
		want     string
	}{
		{"below light threshold", 199, lightMealNote},
		{"exactly 200 is balanced", 200, balancedMealNote},
		{"mid range", 400, balancedMealNote},
		{"exactly 600 is balanced", 600, balancedMealNote},
		{"above heavy threshold", 601, heavyMealNote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := overallRecommendations(MealTotals{Calories: tt.calories, Protein: 50}, 2)
			assert.Contains(t, got, tt.want)
			assert.NotContains(t, got, lowProteinNote)
		})
	}
}

func TestOverallRecommendationsLowProtein(t *testing.T) {
	got := overallRecommendations(MealTotals{Calories: 300, Protein: 14.9}, 3)
	assert.Contains(t, got, balancedMealNote)
	assert.Contains(t, got, lowProteinNote)
	assert.Contains(t, got, "3 продуктов проанализировано")

	got = overallRecommendations(MealTotals{Calories: 300, Protein: 15}, 2)
	assert.NotContains(t, got, lowProteinNote)
}

func TestFormatProductName(t *testing.T) {
	assert.Equal(t, "Куриная грудка", FormatProductName("  куриная   грудка "))
	assert.Equal(t, "Apple", FormatProductName("apple"))
	assert.Equal(t, "", FormatProductName("   "))
}
