package topology

import (
	"maps"
	"slices"
)

// Placement selects where AddJob puts a new job.
type Placement struct {
	group    int
	index    int
	inGroup  bool
	atOffset bool
}

// NewBranch appends a new single-job group to the stage.
func NewBranch() Placement {
	return Placement{}
}

// InGroup appends the job to the end of an existing group.
func InGroup(group int) Placement {
	return Placement{group: group, inGroup: true}
}

// InGroupAt inserts the job into an existing group at index. An index outside
// the group appends.
func InGroupAt(group, index int) Placement {
	return Placement{group: group, index: index, inGroup: true, atOffset: true}
}

// AddJob places job inside the stage with the given id. An unknown stage or
// an out of range group index leaves the pipeline unchanged.
func (p Pipeline) AddJob(stageID string, job Job, at Placement) Pipeline {
	out := p.Clone()
	si := out.StageIndex(stageID)
	if si < 0 {
		return out
	}
	s := &out.Stages[si]
	job = job.clone()

	if !at.inGroup {
		s.Groups = append(s.Groups, Group{job})
		return out
	}
	if at.group < 0 || at.group >= len(s.Groups) {
		return out
	}
	g := s.Groups[at.group]
	idx := len(g)
	if at.atOffset && at.index >= 0 && at.index < len(g) {
		idx = at.index
	}
	s.Groups[at.group] = slices.Insert(g, idx, job)
	return out
}

// DeleteJob removes the job from the stage and drops any group it leaves
// empty.
func (p Pipeline) DeleteJob(stageID, jobID string) Pipeline {
	out := p.Clone()
	si := out.StageIndex(stageID)
	if si < 0 {
		return out
	}
	s := &out.Stages[si]
	removed := false
	groups := make([]Group, 0, len(s.Groups))
	for _, g := range s.Groups {
		n := len(g)
		g = slices.DeleteFunc(g, func(j Job) bool { return j.ID == jobID })
		removed = removed || len(g) < n
		if len(g) > 0 {
			groups = append(groups, g)
		}
	}
	if removed {
		s.Groups = groups
	}
	return out
}

// JobPatch lists the job fields to replace. Nil fields are kept. A non-nil
// Config replaces the whole mapping.
type JobPatch struct {
	Name        *string        `json:"name,omitempty"`
	Type        *JobType       `json:"type,omitempty"`
	Description *string        `json:"description,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
}

func (jp JobPatch) apply(j Job) Job {
	if jp.Name != nil {
		j.Name = *jp.Name
	}
	if jp.Type != nil {
		j.Type = *jp.Type
	}
	if jp.Description != nil {
		j.Description = *jp.Description
	}
	if jp.Config != nil {
		j.Config = maps.Clone(jp.Config)
	}
	return j
}

// UpdateJob patches every job carrying jobID.
func (p Pipeline) UpdateJob(jobID string, patch JobPatch) Pipeline {
	out := p.Clone()
	for si := range out.Stages {
		for gi := range out.Stages[si].Groups {
			g := out.Stages[si].Groups[gi]
			for ji := range g {
				if g[ji].ID == jobID {
					g[ji] = patch.apply(g[ji])
				}
			}
		}
	}
	return out
}

// AddStage inserts stage right after position afterIndex. -1 prepends and
// any index at or past the last stage appends.
func (p Pipeline) AddStage(afterIndex int, stage Stage) Pipeline {
	out := p.Clone()
	stage = stage.clone()
	at := min(max(afterIndex+1, 0), len(out.Stages))
	out.Stages = slices.Insert(out.Stages, at, stage)
	return out
}

// DeleteStage removes the stage with the given id. The first stage is not
// protected.
func (p Pipeline) DeleteStage(stageID string) Pipeline {
	out := p.Clone()
	out.Stages = slices.DeleteFunc(out.Stages, func(s Stage) bool { return s.ID == stageID })
	return out
}

// ReorderStage moves the stage at from so that it ends up at to. Both indices
// refer to the current order; either one out of range leaves the pipeline
// unchanged.
func (p Pipeline) ReorderStage(from, to int) Pipeline {
	out := p.Clone()
	n := len(out.Stages)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return out
	}
	s := out.Stages[from]
	out.Stages = slices.Delete(out.Stages, from, from+1)
	out.Stages = slices.Insert(out.Stages, to, s)
	return out
}

func (p Pipeline) updateStage(stageID string, fn func(*Stage)) Pipeline {
	out := p.Clone()
	if si := out.StageIndex(stageID); si >= 0 {
		fn(&out.Stages[si])
	}
	return out
}

func (p Pipeline) RenameStage(stageID, name string) Pipeline {
	return p.updateStage(stageID, func(s *Stage) { s.Name = name })
}

func (p Pipeline) SetStageParallel(stageID string, parallel bool) Pipeline {
	return p.updateStage(stageID, func(s *Stage) { s.IsParallel = parallel })
}

func (p Pipeline) AddVariable(v Variable) Pipeline {
	out := p.Clone()
	out.Variables = append(out.Variables, v)
	return out
}

type VariablePatch struct {
	Name         *string       `json:"name,omitempty"`
	Type         *VariableType `json:"type,omitempty"`
	DefaultValue *string       `json:"default_value,omitempty"`
	Description  *string       `json:"description,omitempty"`
	IsSecret     *bool         `json:"is_secret,omitempty"`
}

func (p Pipeline) UpdateVariable(variableID string, patch VariablePatch) Pipeline {
	out := p.Clone()
	for i := range out.Variables {
		v := &out.Variables[i]
		if v.ID != variableID {
			continue
		}
		if patch.Name != nil {
			v.Name = *patch.Name
		}
		if patch.Type != nil {
			v.Type = *patch.Type
		}
		if patch.DefaultValue != nil {
			v.DefaultValue = *patch.DefaultValue
		}
		if patch.Description != nil {
			v.Description = *patch.Description
		}
		if patch.IsSecret != nil {
			v.IsSecret = *patch.IsSecret
		}
	}
	return out
}

func (p Pipeline) DeleteVariable(variableID string) Pipeline {
	out := p.Clone()
	out.Variables = slices.DeleteFunc(out.Variables, func(v Variable) bool { return v.ID == variableID })
	return out
}

func (p Pipeline) UpdateInfo(name, description string) Pipeline {
	out := p.Clone()
	out.Name = name
	out.Description = description
	return out
}

func (p Pipeline) UpdateSettings(s Settings) Pipeline {
	out := p.Clone()
	out.Settings = s
	return out
}
