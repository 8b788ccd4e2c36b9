package reporting

import (
	"fmt"
	"strings"

	"github.com/qamaster/personaqa/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary       = "Resumo"
	sheetPersonas      = "Personas"
	sheetConversations = "Conversas"
)

// WriteXLSX exports a session as a workbook with a summary sheet, one row per
// persona and one row per conversation message.
func WriteXLSX(path string, s *models.ConsolidatedSession) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetSummary); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	for _, name := range []string{sheetPersonas, sheetConversations} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}

	sheets := []struct {
		name string
		rows [][]any
	}{
		{sheetSummary, summaryRows(s)},
		{sheetPersonas, personaRows(s)},
		{sheetConversations, conversationRows(s)},
	}
	for _, sh := range sheets {
		if err := writeRows(f, sh.name, sh.rows, bold); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, headerStyle)
}

func summaryRows(s *models.ConsolidatedSession) [][]any {
	ga := s.Analysis
	rows := [][]any{
		{"Campo", "Valor"},
		{"Sessão", s.SessionID},
		{"Prompt de teste", s.TestScriptName},
		{"Início", s.StartTime.Format("2006-01-02 15:04:05")},
		{"Duração (s)", s.DurationSeconds},
		{"Personas", s.NumPersonas},
		{"Máx. turnos", s.MaxTurns},
		{"Total de testes", ga.TotalTests},
		{"Aprovados", ga.Approved},
		{"Reprovados", ga.Rejected},
		{"Atenção", ga.NeedsAttention},
		{"Taxa de aprovação (%)", ga.ApprovalRate},
		{"Score médio geral", ga.MeanOverallScore},
		{"Compliance médio", ga.MeanScores.Compliance},
		{"Eficácia média", ga.MeanScores.Efficacy},
		{"Eficiência média", ga.MeanScores.Efficiency},
		{"Qualidade de comunicação média", ga.MeanScores.CommunicationQuality},
		{"Experiência do usuário média", ga.MeanScores.UserExperience},
	}
	if ci := ga.OverallScoreCI; ci != nil {
		rows = append(rows, []any{"Intervalo de confiança", fmt.Sprintf("[%.1f, %.1f]", ci.Lower, ci.Upper)})
	}
	rows = append(rows,
		[]any{"Melhor desempenho", strings.Join(ga.BestPerforming, ", ")},
		[]any{"Pior desempenho", strings.Join(ga.WorstPerforming, ", ")},
		[]any{"Pontos fortes recorrentes", strings.Join(ga.RecurringStrengths, "; ")},
		[]any{"Pontos fracos recorrentes", strings.Join(ga.RecurringWeaknesses, "; ")},
		[]any{"Recomendações prioritárias", strings.Join(ga.PriorityRecommendations, "; ")},
		[]any{"Conclusão", ga.Conclusion},
	)
	return rows
}

func personaRows(s *models.ConsolidatedSession) [][]any {
	rows := [][]any{{
		"persona_id", "persona_nome", "score_geral", "compliance", "eficacia", "eficiencia",
		"qualidade_comunicacao", "experiencia_usuario", "aprovado", "erro",
	}}
	for _, pr := range s.PersonaResults {
		row := []any{pr.PersonaID, pr.PersonaName}
		if sc := pr.Scores; sc != nil {
			row = append(row, sc.Overall, sc.Compliance, sc.Efficacy, sc.Efficiency, sc.CommunicationQuality, sc.UserExperience)
		} else {
			row = append(row, "", "", "", "", "", "")
		}
		errMsg := ""
		if pr.Error != nil {
			errMsg = *pr.Error
		}
		row = append(row, pr.Approved, errMsg)
		rows = append(rows, row)
	}
	return rows
}

func conversationRows(s *models.ConsolidatedSession) [][]any {
	rows := [][]any{{"test_id", "persona_id", "turno", "role", "content"}}
	for _, c := range s.Tests {
		if c.Result == nil {
			continue
		}
		for _, msg := range c.Result.Conversation {
			rows = append(rows, []any{c.Result.TestID, c.Result.PersonaID, msg.Turn, string(msg.Role), msg.Content})
		}
	}
	return rows
}
