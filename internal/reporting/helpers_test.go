package reporting

import (
	"time"

	"github.com/qamaster/personaqa/internal/models"
)

func strPtr(s string) *string { return &s }

// sampleSession has one approved, one rejected and one failed cell.
func sampleSession() *models.ConsolidatedSession {
	start := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

	ana := &models.TestResult{
		TestID:             "TEST_00000001",
		PersonaID:          "PERSONA_001",
		PersonaName:        "Ana",
		TestScriptName:     "orcamento.md",
		StartTime:          start,
		EndTime:            start.Add(12 * time.Second),
		DurationSeconds:    12,
		TotalTurns:         2,
		NaturalTermination: true,
		StopReason:         models.StopNatural,
		Conversation: []models.ConversationMessage{
			{Turn: 1, Role: models.RoleUser, Content: "oi, quero limpar meu sofá", Timestamp: start},
			{Turn: 2, Role: models.RoleAssistant, Content: "Olá! Até logo [FIM]", Timestamp: start.Add(time.Second)},
		},
		Evaluation: &models.Evaluation{
			Scores:      &models.Scores{Compliance: 90, Efficacy: 90, Efficiency: 90, CommunicationQuality: 90, UserExperience: 90, Overall: 92},
			Summary:     &models.Summary{Result: models.VerdictApproved, Strengths: []string{"cordial"}},
			FinalStatus: &models.FinalStatus{Approved: true},
		},
	}

	bruno := &models.TestResult{
		TestID:          "TEST_00000002",
		PersonaID:       "PERSONA_002",
		PersonaName:     "Bruno",
		TestScriptName:  "orcamento.md",
		StartTime:       start,
		EndTime:         start.Add(30 * time.Second),
		DurationSeconds: 30,
		TotalTurns:      1,
		StopReason:      models.StopMaxTurns,
		Conversation: []models.ConversationMessage{
			{Turn: 1, Role: models.RoleUser, Content: "preço?", Timestamp: start},
		},
		Evaluation: &models.Evaluation{
			Scores:      &models.Scores{Overall: 40},
			Summary:     &models.Summary{Result: models.VerdictRejected, Weaknesses: []string{"não respondeu"}},
			FinalStatus: &models.FinalStatus{RejectionCriterion: strPtr("sem resposta")},
		},
	}

	failed := &models.ErrorRecord{
		TestID:         "ERRO_00000003",
		TestScriptName: "orcamento.md",
		PersonaID:      "PERSONA_003",
		PersonaName:    "PERSONA_003",
		Error:          "tester agent failed: quota",
	}

	return &models.ConsolidatedSession{
		SessionID:       "SESSION_00000001",
		StartTime:       start,
		EndTime:         start.Add(45 * time.Second),
		DurationSeconds: 45,
		NumPersonas:     3,
		MaxTurns:        20,
		TestScriptName:  "orcamento.md",
		PersonaResults: []models.PersonaScoreSummary{
			{PersonaID: "PERSONA_001", PersonaName: "Ana", Scores: ana.Evaluation.Scores, Approved: true},
			{PersonaID: "PERSONA_002", PersonaName: "Bruno", Scores: bruno.Evaluation.Scores},
			{PersonaID: "PERSONA_003", PersonaName: "PERSONA_003", Error: strPtr(failed.Error)},
		},
		Tests: []models.CellResult{{Result: ana}, {Result: bruno}, {Error: failed}},
		Analysis: models.GeneralAnalysis{
			TotalTests:          3,
			Approved:            1,
			Rejected:            1,
			ApprovalRate:        50,
			MeanOverallScore:    66,
			MeanScores:          models.Scores{Compliance: 45, Efficacy: 45, Efficiency: 45, CommunicationQuality: 45, UserExperience: 45, Overall: 66},
			BestPerforming:      []string{"Ana", "Bruno"},
			WorstPerforming:     []string{},
			RecurringStrengths:  []string{"cordial"},
			RecurringWeaknesses: []string{"não respondeu"},
			Conclusion:          "O agente teve desempenho abaixo do esperado (50.0% aprovação). Recomenda-se revisão significativa antes de produção.",
			OverallScoreCI:      &models.ConfidenceInterval{Lower: 40, Upper: 92, Mean: 66, ConfidenceLevel: 0.95, NumBootstraps: 10000},
		},
	}
}
