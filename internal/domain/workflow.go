package domain

import "strings"

// Precondition names an input synthesis may require.
type Precondition string

const (
	PreconditionTemplate    Precondition = "template"
	PreconditionSourceFiles Precondition = "sourceFiles"
)

// Guidance shown when a precondition is missing.
const (
	TemplateGuidance = `No template found. Please upload a template file first.
To upload a template:
1. Upload your template file (.txt, .md, .csv or .json text) with kind "template"
2. The template will be processed automatically and ready for use
Once uploaded, run this workflow again to continue with document creation.`

	SourceFilesGuidance = `No source files found. Please upload source files first.
To upload source files:
1. Upload the files containing the data for your document with kind "source"
2. You can upload multiple files, each up to 10MB
Once uploaded, run this workflow again to continue.`
)

// WorkflowDecision says whether synthesis may start for a scope.
type WorkflowDecision struct {
	Ready    bool           `json:"ready"`
	Missing  []Precondition `json:"missing"`
	Guidance string         `json:"guidance,omitempty"`
}

// NewWorkflowDecision builds a decision from the missing preconditions.
// Missing is kept in the order template, sourceFiles.
func NewWorkflowDecision(missingTemplate, missingSources bool) *WorkflowDecision {
	d := &WorkflowDecision{Missing: []Precondition{}}
	var guidance []string
	if missingTemplate {
		d.Missing = append(d.Missing, PreconditionTemplate)
		guidance = append(guidance, TemplateGuidance)
	}
	if missingSources {
		d.Missing = append(d.Missing, PreconditionSourceFiles)
		guidance = append(guidance, SourceFilesGuidance)
	}
	d.Ready = len(d.Missing) == 0
	d.Guidance = strings.Join(guidance, "\n\n")
	return d
}

// IsMissing reports whether p is among the missing preconditions.
func (d *WorkflowDecision) IsMissing(p Precondition) bool {
	for _, m := range d.Missing {
		if m == p {
			return true
		}
	}
	return false
}
