package topology

import "fmt"

type HintCode string

const (
	HintEmptyStage        HintCode = "empty-stage"
	HintEmptyGroup        HintCode = "empty-group"
	HintSerialSingleGroup HintCode = "serial-single-group"
	HintUnknownJobType    HintCode = "unknown-job-type"
	HintInvalidConfig     HintCode = "invalid-config"
	HintDuplicateJobID    HintCode = "duplicate-job-id"
	HintDuplicateStageID  HintCode = "duplicate-stage-id"
	HintDuplicateVariable HintCode = "duplicate-variable"
	HintFirstStageSource  HintCode = "first-stage-not-source"
	HintEnumNoDefault     HintCode = "enum-without-default"
)

// Hint is an advisory finding about a document. Hints never block editing
// or running.
type Hint struct {
	Code    HintCode `json:"code"`
	StageID string   `json:"stage_id,omitempty"`
	JobID   string   `json:"job_id,omitempty"`
	Message string   `json:"message"`
}

func (h Hint) String() string {
	switch {
	case h.JobID != "":
		return fmt.Sprintf("%s [job %s]: %s", h.Code, h.JobID, h.Message)
	case h.StageID != "":
		return fmt.Sprintf("%s [stage %s]: %s", h.Code, h.StageID, h.Message)
	}
	return fmt.Sprintf("%s: %s", h.Code, h.Message)
}

// Lint walks the document and reports everything that looks unintended.
func Lint(p Pipeline) []Hint {
	hints := make([]Hint, 0)
	stageIDs := make(map[string]bool)
	jobIDs := make(map[string]bool)

	for si, s := range p.Stages {
		if stageIDs[s.ID] {
			hints = append(hints, Hint{Code: HintDuplicateStageID, StageID: s.ID, Message: "stage id is used more than once"})
		}
		stageIDs[s.ID] = true

		if s.JobCount() == 0 {
			hints = append(hints, Hint{Code: HintEmptyStage, StageID: s.ID, Message: "stage has no jobs"})
		}
		if !s.IsParallel && len(s.Groups) == 1 {
			hints = append(hints, Hint{Code: HintSerialSingleGroup, StageID: s.ID, Message: "serial flag has no effect on a single group"})
		}

		for gi, g := range s.Groups {
			if len(g) == 0 {
				hints = append(hints, Hint{Code: HintEmptyGroup, StageID: s.ID, Message: fmt.Sprintf("group %d has no jobs", gi)})
			}
			for _, j := range g {
				hints = append(hints, lintJob(s.ID, j, jobIDs)...)
				jobIDs[j.ID] = true

				if si == 0 {
					if def, ok := LookupJobType(j.Type); ok && def.Category != CategorySource {
						hints = append(hints, Hint{
							Code:    HintFirstStageSource,
							StageID: s.ID,
							JobID:   j.ID,
							Message: fmt.Sprintf("first stage usually holds sources, found %s", j.Type),
						})
					}
				}
			}
		}
	}

	names := make(map[string]bool)
	for _, v := range p.Variables {
		if names[v.Name] {
			hints = append(hints, Hint{Code: HintDuplicateVariable, Message: fmt.Sprintf("variable %q is declared more than once", v.Name)})
		}
		names[v.Name] = true
		if v.Type == VariableEnum && v.DefaultValue == "" {
			hints = append(hints, Hint{Code: HintEnumNoDefault, Message: fmt.Sprintf("enum variable %q has no default value", v.Name)})
		}
	}
	return hints
}

func lintJob(stageID string, j Job, seen map[string]bool) []Hint {
	hints := make([]Hint, 0)
	if seen[j.ID] {
		hints = append(hints, Hint{Code: HintDuplicateJobID, StageID: stageID, JobID: j.ID, Message: "job id is used more than once"})
	}
	def, ok := LookupJobType(j.Type)
	if !ok {
		return append(hints, Hint{Code: HintUnknownJobType, StageID: stageID, JobID: j.ID, Message: fmt.Sprintf("unknown job type %q", j.Type)})
	}
	for _, problem := range def.ValidateConfig(j.Config) {
		hints = append(hints, Hint{Code: HintInvalidConfig, StageID: stageID, JobID: j.ID, Message: problem})
	}
	return hints
}
