package models

// Verdict is the judge's summary classification of one conversation.
type Verdict string

const (
	VerdictApproved  Verdict = "APROVADO"
	VerdictRejected  Verdict = "REPROVADO"
	VerdictAttention Verdict = "ATENÇÃO"
)

// Scores is the judge's score vector, each dimension 0-100.
type Scores struct {
	Compliance           int `json:"compliance"`
	Efficacy             int `json:"eficacia"`
	Efficiency           int `json:"eficiencia"`
	CommunicationQuality int `json:"qualidade_comunicacao"`
	UserExperience       int `json:"experiencia_usuario"`
	Overall              int `json:"score_geral"`
}

// Add accumulates o into s.
func (s *Scores) Add(o Scores) {
	s.Compliance += o.Compliance
	s.Efficacy += o.Efficacy
	s.Efficiency += o.Efficiency
	s.CommunicationQuality += o.CommunicationQuality
	s.UserExperience += o.UserExperience
	s.Overall += o.Overall
}

type ComplianceAnalysis struct {
	Score              int      `json:"score"`
	CriticalViolations []string `json:"violacoes_criticas,omitempty"`
	MinorViolations    []string `json:"violacoes_menores,omitempty"`
	Comment            string   `json:"comentario"`
}

type EfficacyAnalysis struct {
	Score         int      `json:"score"`
	GoalAchieved  bool     `json:"objetivo_atingido"`
	DataCollected []string `json:"dados_coletados,omitempty"`
	DataMissing   []string `json:"dados_faltantes,omitempty"`
	Comment       string   `json:"comentario"`
}

type EfficiencyAnalysis struct {
	Score         int      `json:"score"`
	TotalTurns    *int     `json:"total_turnos,omitempty"`
	Repetitions   []string `json:"repeticoes,omitempty"`
	EstimatedTime string   `json:"tempo_estimado,omitempty"`
	Comment       string   `json:"comentario"`
}

type QualityAnalysis struct {
	Score       int      `json:"score"`
	Tone        string   `json:"tom"`
	Clarity     string   `json:"clareza"`
	Naturalness string   `json:"naturalidade"`
	Errors      []string `json:"erros,omitempty"`
	Comment     string   `json:"comentario"`
}

type UXAnalysis struct {
	Score           int      `json:"score"`
	UserSentiment   string   `json:"sentimento_usuario"`
	FrictionMoments []string `json:"momentos_de_atrito,omitempty"`
	PositiveMoments []string `json:"momentos_positivos,omitempty"`
	Comment         string   `json:"comentario"`
}

// Analysis holds the per-dimension commentary of an evaluation.
type Analysis struct {
	Compliance           *ComplianceAnalysis `json:"compliance,omitempty"`
	Efficacy             *EfficacyAnalysis   `json:"eficacia,omitempty"`
	Efficiency           *EfficiencyAnalysis `json:"eficiencia,omitempty"`
	CommunicationQuality *QualityAnalysis    `json:"qualidade_comunicacao,omitempty"`
	UserExperience       *UXAnalysis         `json:"experiencia_usuario,omitempty"`
}

// Summary is the judge's overall verdict and qualitative findings.
type Summary struct {
	Result          Verdict  `json:"resultado"`
	Strengths       []string `json:"pontos_fortes"`
	Weaknesses      []string `json:"pontos_fracos"`
	Recommendations []string `json:"recomendacoes"`
}

// FinalStatus is the judge's go/no-go decision.
type FinalStatus struct {
	Approved           bool    `json:"aprovado"`
	RejectionCriterion *string `json:"criterio_reprovacao,omitempty"`
	ProductionReady    bool    `json:"pronto_para_producao"`
}

// Evaluation is the structured judge output for one conversation. Every
// section is optional because judge output is parsed best-effort.
type Evaluation struct {
	TestID       string       `json:"test_id,omitempty"`
	TestScenario string       `json:"test_scenario,omitempty"`
	Scores       *Scores      `json:"scores,omitempty"`
	Analysis     *Analysis    `json:"analise,omitempty"`
	Summary      *Summary     `json:"resumo,omitempty"`
	FinalStatus  *FinalStatus `json:"status_final,omitempty"`
}

// Approved reports the final status decision, false when absent.
func (e *Evaluation) Approved() bool {
	return e != nil && e.FinalStatus != nil && e.FinalStatus.Approved
}
