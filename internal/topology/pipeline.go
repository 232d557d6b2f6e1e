package topology

import (
	"encoding/json"
	"maps"
	"slices"
)

type VariableType string

const (
	VariableString  VariableType = "string"
	VariableBoolean VariableType = "boolean"
	VariableEnum    VariableType = "enum"
)

type Job struct {
	ID          string         `json:"id"                    yaml:"id"`
	Name        string         `json:"name"                  yaml:"name"`
	Type        JobType        `json:"type"                  yaml:"type"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Config      map[string]any `json:"config"                yaml:"config"`
}

// Group is a serial chain: its jobs run one after another.
type Group []Job

type Stage struct {
	ID     string  `json:"id"     yaml:"id"`
	Name   string  `json:"name"   yaml:"name"`
	Groups []Group `json:"groups" yaml:"groups"`
	// IsParallel marks the groups of the stage as parallel branches. It only
	// affects presentation and lint hints, never execution timing.
	IsParallel bool `json:"is_parallel" yaml:"is_parallel"`
}

type Variable struct {
	ID           string       `json:"id"                    yaml:"id"`
	Name         string       `json:"name"                  yaml:"name"`
	Type         VariableType `json:"type"                  yaml:"type"`
	DefaultValue string       `json:"default_value"         yaml:"default_value"`
	Description  string       `json:"description,omitempty" yaml:"description,omitempty"`
	IsSecret     bool         `json:"is_secret,omitempty"   yaml:"is_secret,omitempty"`
}

type Settings struct {
	Cron           string `json:"cron"            yaml:"cron"`
	TimeoutMinutes int64  `json:"timeout_minutes" yaml:"timeout_minutes"`
	RetryCount     int64  `json:"retry_count"     yaml:"retry_count"`
	SkipStrategy   string `json:"skip_strategy"   yaml:"skip_strategy"`
}

// Pipeline is the editable document. Every operation in this package treats
// it as a value: the receiver is never modified and the result shares no
// slices or maps with it.
type Pipeline struct {
	ID          string     `json:"id"          yaml:"id"`
	Name        string     `json:"name"        yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Variables   []Variable `json:"variables"   yaml:"variables"`
	Stages      []Stage    `json:"stages"      yaml:"stages"`
	Settings    Settings   `json:"settings"    yaml:"settings"`
}

// stageDocument mirrors Stage with an optional parallel flag so documents
// that omit it decode as parallel stages.
type stageDocument struct {
	ID         string  `json:"id"          yaml:"id"`
	Name       string  `json:"name"        yaml:"name"`
	Groups     []Group `json:"groups"      yaml:"groups"`
	IsParallel *bool   `json:"is_parallel" yaml:"is_parallel"`
}

func (sd stageDocument) stage() Stage {
	s := Stage{ID: sd.ID, Name: sd.Name, Groups: sd.Groups, IsParallel: true}
	if sd.IsParallel != nil {
		s.IsParallel = *sd.IsParallel
	}
	return s
}

func (s *Stage) UnmarshalJSON(data []byte) error {
	var sd stageDocument
	if err := json.Unmarshal(data, &sd); err != nil {
		return err
	}
	*s = sd.stage()
	return nil
}

func (s *Stage) UnmarshalYAML(unmarshal func(any) error) error {
	var sd stageDocument
	if err := unmarshal(&sd); err != nil {
		return err
	}
	*s = sd.stage()
	return nil
}

func (j Job) clone() Job {
	j.Config = maps.Clone(j.Config)
	return j
}

func (g Group) clone() Group {
	if g == nil {
		return nil
	}
	out := make(Group, len(g))
	for i, j := range g {
		out[i] = j.clone()
	}
	return out
}

func (s Stage) clone() Stage {
	if s.Groups == nil {
		return s
	}
	groups := make([]Group, len(s.Groups))
	for i, g := range s.Groups {
		groups[i] = g.clone()
	}
	s.Groups = groups
	return s
}

// Clone returns a deep copy of p. Job config values are copied one level
// deep. Nil slices and maps stay nil.
func (p Pipeline) Clone() Pipeline {
	if p.Stages != nil {
		stages := make([]Stage, len(p.Stages))
		for i, s := range p.Stages {
			stages[i] = s.clone()
		}
		p.Stages = stages
	}
	p.Variables = slices.Clone(p.Variables)
	return p
}

// normalized returns a copy of p whose collections are all non-nil, so
// encoded documents carry [] and {} instead of null.
func (p Pipeline) normalized() Pipeline {
	out := p.Clone()
	if out.Variables == nil {
		out.Variables = make([]Variable, 0)
	}
	if out.Stages == nil {
		out.Stages = make([]Stage, 0)
	}
	for si := range out.Stages {
		if out.Stages[si].Groups == nil {
			out.Stages[si].Groups = make([]Group, 0)
		}
		for gi := range out.Stages[si].Groups {
			for ji := range out.Stages[si].Groups[gi] {
				if out.Stages[si].Groups[gi][ji].Config == nil {
					out.Stages[si].Groups[gi][ji].Config = make(map[string]any)
				}
			}
		}
	}
	return out
}

func (s Stage) JobCount() int {
	n := 0
	for _, g := range s.Groups {
		n += len(g)
	}
	return n
}

func (p Pipeline) JobCount() int {
	n := 0
	for _, s := range p.Stages {
		n += s.JobCount()
	}
	return n
}

// StageIndex returns the position of the stage with the given id, or -1.
func (p Pipeline) StageIndex(stageID string) int {
	return slices.IndexFunc(p.Stages, func(s Stage) bool { return s.ID == stageID })
}

// JobLocation addresses a job inside the stage/group tree.
type JobLocation struct {
	StageIndex int
	GroupIndex int
	JobIndex   int
}

// FindJob reports where the job with the given id lives.
func (p Pipeline) FindJob(jobID string) (JobLocation, bool) {
	for si, s := range p.Stages {
		for gi, g := range s.Groups {
			for ji, j := range g {
				if j.ID == jobID {
					return JobLocation{StageIndex: si, GroupIndex: gi, JobIndex: ji}, true
				}
			}
		}
	}
	return JobLocation{}, false
}

// Job returns the job with the given id.
func (p Pipeline) Job(jobID string) (Job, bool) {
	loc, ok := p.FindJob(jobID)
	if !ok {
		return Job{}, false
	}
	return p.Stages[loc.StageIndex].Groups[loc.GroupIndex][loc.JobIndex], true
}
