package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// Delimiters separating items inside one meal description: commas,
// semicolons, and the standalone words "и", "с", "плюс".
var itemDelimiters = regexp.MustCompile(`(?i)[,;]|\s+и\s+|\s+с\s+|\s+плюс\s+`)

// Fallback estimate substituted when one item of a batch fails, so a
// single bad item never aborts the whole analysis.
var fallbackEstimate = NutritionEstimate{
	Calories:        100,
	Protein:         5,
	Fat:             3,
	Carbs:           15,
	Recommendations: "Не удалось проанализировать продукт",
}

// Overall recommendation texts selected by calorie band. The bands use
// strict inequalities: exactly 200 and exactly 600 kcal are "balanced".
const (
	lightMealNote    = "Это легкий прием пищи. Рекомендую добавить больше белка для насыщения."
	heavyMealNote    = "Это довольно калорийный прием пищи. Учитывайте это в общем дневном балансе."
	balancedMealNote = "Хорошо сбалансированный прием пищи. Продолжайте в том же духе!"
	lowProteinNote   = "Рекомендую добавить больше белковых продуктов."

	lowProteinThreshold = 15
)

// Estimator is the analyzer's view of the remote estimation client.
type Estimator interface {
	AnalyzeFood(ctx context.Context, description string) (*NutritionEstimate, error)
	ImproveName(ctx context.Context, original string) (string, error)
}

// ItemAnalysis is the per-item result of a multi-item meal analysis.
type ItemAnalysis struct {
	OriginalProduct string            `json:"original_product"`
	Product         string            `json:"product"`
	Analysis        NutritionEstimate `json:"analysis"`
	Failed          bool              `json:"failed,omitempty"`
}

// MealTotals is the field-wise sum over all items of a meal, calories
// rounded to an integer and macros to one decimal.
type MealTotals struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}

// MealAnalysis is the aggregated result of analyzing one description.
type MealAnalysis struct {
	Products        []ItemAnalysis `json:"products"`
	Total           MealTotals     `json:"total"`
	Recommendations string         `json:"recommendations"`
}

// MealAnalyzer splits a free-text meal description into candidate items
// and aggregates per-item estimates.
type MealAnalyzer struct {
	estimator Estimator
	// improveNames enables the extra per-item naming call. Off, items
	// keep a locally formatted name and remote-call volume halves.
	improveNames bool
	logger       *zap.Logger
}

// NewMealAnalyzer creates a MealAnalyzer around an estimation client.
func NewMealAnalyzer(estimator Estimator, improveNames bool, logger *zap.Logger) *MealAnalyzer {
	return &MealAnalyzer{
		estimator:    estimator,
		improveNames: improveNames,
		logger:       logger,
	}
}

// SplitDescription splits a description into candidate item strings.
// A description with no delimiter is a single candidate, unmodified.
func SplitDescription(description string) []string {
	if !itemDelimiters.MatchString(description) {
		return []string{description}
	}

	parts := itemDelimiters.Split(description, -1)
	products := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			products = append(products, p)
		}
	}
	if len(products) == 0 {
		return []string{description}
	}
	return products
}

// AnalyzeMeal analyzes a whole meal description. One candidate delegates
// straight to the estimation client; several candidates are estimated
// sequentially and summed. Per-item failures substitute the fallback
// estimate instead of failing the batch.
func (a *MealAnalyzer) AnalyzeMeal(ctx context.Context, description string) (*MealAnalysis, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: empty meal description", ErrValidation)
	}

	products := SplitDescription(description)

	if len(products) == 1 {
		estimate, err := a.estimator.AnalyzeFood(ctx, description)
		if err != nil {
			return nil, err
		}
		return &MealAnalysis{
			Products: []ItemAnalysis{{
				OriginalProduct: description,
				Product:         FormatProductName(description),
				Analysis:        *estimate,
			}},
			Total:           sumEstimates([]ItemAnalysis{{Analysis: *estimate}}),
			Recommendations: estimate.Recommendations,
		}, nil
	}

	items := make([]ItemAnalysis, 0, len(products))
	for _, product := range products {
		items = append(items, a.analyzeItem(ctx, product))
	}

	total := sumEstimates(items)
	return &MealAnalysis{
		Products:        items,
		Total:           total,
		Recommendations: overallRecommendations(total, len(items)),
	}, nil
}

// analyzeItem estimates one candidate, falling back to the default
// estimate and a locally formatted name when either call fails.
func (a *MealAnalyzer) analyzeItem(ctx context.Context, product string) ItemAnalysis {
	estimate, err := a.estimator.AnalyzeFood(ctx, product)
	if err != nil {
		a.logger.Warn("item analysis failed, using fallback estimate",
			zap.String("product", product), zap.Error(err))
		return ItemAnalysis{
			OriginalProduct: product,
			Product:         FormatProductName(product),
			Analysis:        fallbackEstimate,
			Failed:          true,
		}
	}

	name := FormatProductName(product)
	if a.improveNames {
		if improved, nerr := a.estimator.ImproveName(ctx, product); nerr == nil {
			name = improved
		} else {
			a.logger.Warn("name improvement failed, keeping local formatting",
				zap.String("product", product), zap.Error(nerr))
		}
	}

	return ItemAnalysis{
		OriginalProduct: product,
		Product:         name,
		Analysis:        *estimate,
	}
}

func sumEstimates(items []ItemAnalysis) MealTotals {
	var calories, protein, fat, carbs float64
	for _, it := range items {
		calories += it.Analysis.Calories
		protein += it.Analysis.Protein
		fat += it.Analysis.Fat
		carbs += it.Analysis.Carbs
	}
	return MealTotals{
		Calories: int(math.Round(calories)),
		Protein:  math.Round(protein*10) / 10,
		Fat:      math.Round(fat*10) / 10,
		Carbs:    math.Round(carbs*10) / 10,
	}
}

func overallRecommendations(total MealTotals, productCount int) string {
	var b strings.Builder
	if productCount == 1 {
		b.WriteString("Один продукт проанализирован. ")
	} else {
		fmt.Fprintf(&b, "%d продуктов проанализировано. ", productCount)
	}

	switch {
	case total.Calories < 200:
		b.WriteString(lightMealNote)
	case total.Calories > 600:
		b.WriteString(heavyMealNote)
	default:
		b.WriteString(balancedMealNote)
	}

	if total.Protein < lowProteinThreshold {
		b.WriteString(" " + lowProteinNote)
	}
	return b.String()
}

// FormatProductName collapses whitespace and upper-cases the first rune.
func FormatProductName(product string) string {
	product = strings.Join(strings.Fields(product), " ")
	runes := []rune(product)
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}
