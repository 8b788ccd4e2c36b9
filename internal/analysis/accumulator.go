package analysis

import (
	"math"
	"slices"
	"strconv"

	"github.com/qamaster/personaqa/internal/models"
	"github.com/qamaster/personaqa/internal/statistics"
)

const (
	rankSize      = 3
	recurringSize = 5

	// MissingEvaluation is the summary error for a conversation the judge
	// produced nothing usable for.
	MissingEvaluation = "Avaliação não disponível"
)

// Accumulator folds judged conversations into the session-level analysis.
// It is not safe for concurrent use.
type Accumulator struct {
	summaries []models.PersonaScoreSummary

	sums   models.Scores
	scored int
	overall []int

	approved  int
	rejected  int
	attention int

	strengths       []string
	weaknesses      []string
	recommendations []string

	ciSeed int64
}

// NewAccumulator returns an empty accumulator. ciSeed drives the bootstrap
// confidence interval so reports are reproducible.
func NewAccumulator(ciSeed int64) *Accumulator {
	return &Accumulator{ciSeed: ciSeed}
}

// Add records one conversation and its evaluation, which may be nil.
// Only evaluations carrying scores contribute to means and rankings, and
// only those with a summary are counted towards verdicts.
func (a *Accumulator) Add(r *models.TestResult, eval *models.Evaluation) {
	summary := models.PersonaScoreSummary{
		PersonaID:   r.PersonaID,
		PersonaName: r.PersonaName,
	}

	if eval == nil || eval.Scores == nil {
		msg := MissingEvaluation
		summary.Error = &msg
		a.summaries = append(a.summaries, summary)
		return
	}

	scores := *eval.Scores
	a.sums.Add(scores)
	a.scored++
	a.overall = append(a.overall, scores.Overall)

	if s := eval.Summary; s != nil {
		a.strengths = append(a.strengths, s.Strengths...)
		a.weaknesses = append(a.weaknesses, s.Weaknesses...)
		a.recommendations = append(a.recommendations, s.Recommendations...)

		switch verdict(s.Result) {
		case models.VerdictApproved:
			a.approved++
		case models.VerdictRejected:
			a.rejected++
		default:
			a.attention++
		}
	}

	summary.Scores = &scores
	summary.Approved = eval.Approved()
	a.summaries = append(a.summaries, summary)
}

// AddError records a cell that never produced a conversation.
func (a *Accumulator) AddError(rec *models.ErrorRecord) {
	msg := rec.Error
	name := rec.PersonaName
	if name == "" {
		name = rec.PersonaID
	}
	a.summaries = append(a.summaries, models.PersonaScoreSummary{
		PersonaID:   rec.PersonaID,
		PersonaName: name,
		Error:       &msg,
	})
}

// Summaries returns the per-persona lines in the order they were added.
func (a *Accumulator) Summaries() []models.PersonaScoreSummary {
	return slices.Clone(a.summaries)
}

// Finalize computes the general analysis. totalTests is the number of
// cells that were executed, errors included.
func (a *Accumulator) Finalize(totalTests int) models.GeneralAnalysis {
	ga := models.GeneralAnalysis{
		TotalTests:              totalTests,
		Approved:                a.approved,
		Rejected:                a.rejected,
		NeedsAttention:          a.attention,
		BestPerforming:          []string{},
		WorstPerforming:         []string{},
		RecurringStrengths:      top(a.strengths, recurringSize),
		RecurringWeaknesses:     top(a.weaknesses, recurringSize),
		PriorityRecommendations: top(a.recommendations, recurringSize),
	}

	if a.scored > 0 {
		ga.MeanScores = models.Scores{
			Compliance:           meanOf(a.sums.Compliance, a.scored),
			Efficacy:             meanOf(a.sums.Efficacy, a.scored),
			Efficiency:           meanOf(a.sums.Efficiency, a.scored),
			CommunicationQuality: meanOf(a.sums.CommunicationQuality, a.scored),
			UserExperience:       meanOf(a.sums.UserExperience, a.scored),
			Overall:              meanOf(a.sums.Overall, a.scored),
		}
		ga.MeanOverallScore = ga.MeanScores.Overall

		ci := statistics.ScoreCI(a.overall, statistics.DefaultConfidenceLevel, a.ciSeed)
		ga.OverallScoreCI = &ci
	}

	ranked := make([]models.PersonaScoreSummary, 0, len(a.summaries))
	for _, s := range a.summaries {
		if s.Scores != nil {
			ranked = append(ranked, s)
		}
	}
	slices.SortStableFunc(ranked, func(x, y models.PersonaScoreSummary) int {
		return y.Scores.Overall - x.Scores.Overall
	})
	for i := 0; i < len(ranked) && i < rankSize; i++ {
		ga.BestPerforming = append(ga.BestPerforming, ranked[i].PersonaName)
	}
	if len(ranked) >= rankSize {
		for _, s := range ranked[len(ranked)-rankSize:] {
			ga.WorstPerforming = append(ga.WorstPerforming, s.PersonaName)
		}
	}

	ga.ApprovalRate = approvalRate(a.approved, a.approved+a.rejected+a.attention)
	ga.Conclusion = Conclusion(ga.ApprovalRate)

	return ga
}

// Conclusion maps an approval rate (0-100) to its closing sentence.
func Conclusion(rate float64) string {
	pct := strconv.FormatFloat(rate, 'f', 1, 64)
	switch {
	case rate >= 80:
		return "O agente teve excelente desempenho com taxa de aprovação de " + pct + "%. Está pronto para produção com pequenos ajustes sugeridos."
	case rate >= 60:
		return "O agente teve bom desempenho (" + pct + "% aprovação) mas necessita melhorias nos pontos fracos identificados antes de ir para produção."
	case rate >= 40:
		return "O agente teve desempenho abaixo do esperado (" + pct + "% aprovação). Recomenda-se revisão significativa antes de produção."
	default:
		return "O agente teve desempenho crítico (" + pct + "% aprovação). Necessita reformulação antes de qualquer uso em produção."
	}
}

// verdict treats a missing result as needing attention.
func verdict(v models.Verdict) models.Verdict {
	if v == "" {
		return models.VerdictAttention
	}
	return v
}

// approvalRate is a percentage with one decimal, rounded half to even like the
// means. Zero analyzed results give 0.
func approvalRate(approved, analyzed int) float64 {
	if analyzed == 0 {
		return 0
	}
	return math.RoundToEven(float64(approved)/float64(analyzed)*1000) / 10
}

// meanOf rounds half to even.
func meanOf(sum, n int) int {
	return int(math.RoundToEven(float64(sum) / float64(n)))
}

// top returns the n most frequent items. Ties keep first-seen order.
func top(items []string, n int) []string {
	counts := map[string]int{}
	var order []string
	for _, it := range items {
		if counts[it] == 0 {
			order = append(order, it)
		}
		counts[it]++
	}
	slices.SortStableFunc(order, func(x, y string) int {
		return counts[y] - counts[x]
	})
	if len(order) > n {
		order = order[:n]
	}
	if order == nil {
		return []string{}
	}
	return order
}
