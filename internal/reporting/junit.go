package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/qamaster/personaqa/internal/models"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one test script.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one persona conversation.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

// JUnitFailure represents a test assertion failure.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError represents an unexpected error during test execution.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitSkipped marks a test as skipped.
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit converts a consolidated session to JUnit XML format. A
// conversation the judge didn't approve is a failure, a failed cell is an
// error.
func ConvertToJUnit(s *models.ConsolidatedSession) *JUnitTestSuites {
	suite := JUnitTestSuite{
		Name:      s.TestScriptName,
		Timestamp: s.StartTime.Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "session", Value: s.SessionID},
			{Name: "max_turns", Value: strconv.Itoa(s.MaxTurns)},
			{Name: "score", Value: strconv.Itoa(s.Analysis.MeanOverallScore)},
			{Name: "approval_rate", Value: strconv.FormatFloat(s.Analysis.ApprovalRate, 'f', 1, 64)},
		},
	}

	for _, c := range s.Tests {
		suite.add(convertCell(c, true))
	}
	// Judging happens after the conversations, so the wall clock beats the sum.
	suite.Time = s.DurationSeconds

	return wrap(suite)
}

// ConvertCellsToJUnit converts unjudged cells, grouping them in one suite per
// test script in first-seen order. Only failed cells and conversations cut
// short by an agent error are reported as errors.
func ConvertCellsToJUnit(name string, cells []models.CellResult) *JUnitTestSuites {
	var suites []JUnitTestSuite
	index := map[string]int{}

	for _, c := range cells {
		script := scriptOf(c)
		i, ok := index[script]
		if !ok {
			i = len(suites)
			index[script] = i
			suites = append(suites, JUnitTestSuite{
				Name:       script,
				Properties: []JUnitProperty{{Name: "run", Value: name}},
			})
			if c.Result != nil {
				suites[i].Timestamp = c.Result.StartTime.Format(time.RFC3339)
			}
		}
		suites[i].add(convertCell(c, false))
	}

	return wrap(suites...)
}

func (suite *JUnitTestSuite) add(tc JUnitTestCase) {
	suite.Tests++
	suite.Time += tc.Time
	switch {
	case tc.Failure != nil:
		suite.Failures++
	case tc.Error != nil:
		suite.Errors++
	case tc.Skipped != nil:
		suite.Skipped++
	}
	suite.TestCases = append(suite.TestCases, tc)
}

func wrap(suites ...JUnitTestSuite) *JUnitTestSuites {
	out := &JUnitTestSuites{TestSuites: suites}
	for _, s := range suites {
		out.Tests += s.Tests
		out.Failures += s.Failures
		out.Errors += s.Errors
		out.Time += s.Time
	}
	return out
}

func scriptOf(c models.CellResult) string {
	if c.Error != nil {
		return c.Error.TestScriptName
	}
	return c.Result.TestScriptName
}

func convertCell(c models.CellResult, judged bool) JUnitTestCase {
	if c.Error != nil {
		return JUnitTestCase{
			Name:      caseName(c.Error.PersonaName, c.Error.PersonaID),
			Classname: c.Error.TestScriptName,
			Error:     &JUnitError{Message: c.Error.Error, Type: "ExecutionError"},
		}
	}

	r := c.Result
	tc := JUnitTestCase{
		Name:      caseName(r.PersonaName, r.PersonaID),
		Classname: r.TestScriptName,
		Time:      r.DurationSeconds,
	}

	switch r.StopReason {
	case models.StopCollaboratorError, models.StopCanceled:
		tc.Error = &JUnitError{
			Message: fmt.Sprintf("conversation stopped after %d turns: %s", r.TotalTurns, r.StopReason),
			Type:    "CollaboratorError",
			Body:    transcriptTail(r),
		}
		return tc
	}

	if judged {
		tc.Failure = buildFailure(r)
	}
	return tc
}

func caseName(name, id string) string {
	if name == "" || name == id {
		return id
	}
	return fmt.Sprintf("%s (%s)", name, id)
}

func buildFailure(r *models.TestResult) *JUnitFailure {
	e := r.Evaluation
	if e == nil || e.Scores == nil {
		return &JUnitFailure{Message: "evaluation not available", Type: "MissingEvaluation"}
	}
	if e.Approved() {
		return nil
	}

	f := &JUnitFailure{
		Message: fmt.Sprintf("%s: score=%d", r.PersonaID, e.Scores.Overall),
		Type:    "JudgeRejection",
	}

	var body strings.Builder
	if e.FinalStatus != nil && e.FinalStatus.RejectionCriterion != nil {
		fmt.Fprintf(&body, "criterion: %s\n", *e.FinalStatus.RejectionCriterion)
	}
	if e.Summary != nil {
		for _, w := range e.Summary.Weaknesses {
			fmt.Fprintf(&body, "[WEAK] %s\n", w)
		}
	}
	f.Body = body.String()
	return f
}

// transcriptTail returns the last message, which is where a conversation
// that broke off usually shows why.
func transcriptTail(r *models.TestResult) string {
	if len(r.Conversation) == 0 {
		return ""
	}
	last := r.Conversation[len(r.Conversation)-1]
	return fmt.Sprintf("%s: %s", strings.ToUpper(string(last.Role)), last.Content)
}

// WriteJUnitXML writes JUnit XML to the specified file path.
func WriteJUnitXML(suites *JUnitTestSuites, path string) error {
	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	return os.WriteFile(path, output, 0644)
}
