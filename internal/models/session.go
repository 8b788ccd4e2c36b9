package models

import "time"

// PersonaScoreSummary is the per-persona line of a consolidated session.
type PersonaScoreSummary struct {
	PersonaID   string  `json:"persona_id"`
	PersonaName string  `json:"persona_nome"`
	Scores      *Scores `json:"scores"`
	Approved    bool    `json:"aprovado"`
	Error       *string `json:"erro"`
}

// ConfidenceInterval is a bootstrap interval over overall scores.
type ConfidenceInterval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	Mean            float64 `json:"mean"`
	ConfidenceLevel float64 `json:"confidence_level"`
	NumBootstraps   int     `json:"num_bootstraps"`
}

// GeneralAnalysis is the aggregate view over every evaluated conversation.
type GeneralAnalysis struct {
	TotalTests              int                 `json:"total_testes"`
	Approved                int                 `json:"testes_aprovados"`
	Rejected                int                 `json:"testes_reprovados"`
	NeedsAttention          int                 `json:"testes_atencao"`
	ApprovalRate            float64             `json:"taxa_aprovacao"`
	MeanOverallScore        int                 `json:"score_medio_geral"`
	MeanScores              Scores              `json:"scores_medios"`
	BestPerforming          []string            `json:"personas_com_melhor_desempenho"`
	WorstPerforming         []string            `json:"personas_com_pior_desempenho"`
	RecurringStrengths      []string            `json:"pontos_fortes_recorrentes"`
	RecurringWeaknesses     []string            `json:"pontos_fracos_recorrentes"`
	PriorityRecommendations []string            `json:"recomendacoes_prioritarias"`
	Conclusion              string              `json:"conclusao"`
	OverallScoreCI          *ConfidenceInterval `json:"intervalo_confianca,omitempty"`
}

// ConsolidatedSession is the report produced by one judged battery run.
type ConsolidatedSession struct {
	SessionID       string                `json:"session_id"`
	StartTime       time.Time             `json:"timestamp_inicio"`
	EndTime         time.Time             `json:"timestamp_fim"`
	DurationSeconds float64               `json:"duracao_total_segundos"`
	NumPersonas     int                   `json:"num_personas"`
	MaxTurns        int                   `json:"max_turnos_por_teste"`
	TestScriptName  string                `json:"prompt_teste_usado"`
	PersonaResults  []PersonaScoreSummary `json:"resultados_por_persona"`
	Tests           []CellResult          `json:"testes_detalhados"`
	Analysis        GeneralAnalysis       `json:"analise_geral"`
}
