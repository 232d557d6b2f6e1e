package topology

import (
	"fmt"
	"maps"
	"slices"
	"sort"
)

type JobType string

const (
	JobGitSource      JobType = "git-source"
	JobBuildMaven     JobType = "build-maven"
	JobBuildDocker    JobType = "build-docker"
	JobBuildGo        JobType = "build-go"
	JobTestMaven      JobType = "test-maven"
	JobTestCoverage   JobType = "test-coverage"
	JobTestGo         JobType = "test-go"
	JobSecurityScan   JobType = "security-scan"
	JobDeploy         JobType = "deploy"
	JobManualApproval JobType = "manual-approval"
	JobSeabornReport  JobType = "seaborn-report"
	JobScript         JobType = "script"
)

type Category string

const (
	CategorySource  Category = "Source"
	CategoryBuild   Category = "Build"
	CategoryTest    Category = "Test"
	CategoryDeploy  Category = "Deploy"
	CategoryControl Category = "Control"
	CategoryOther   Category = "Other"
)

var categoryOrder = []Category{
	CategorySource,
	CategoryBuild,
	CategoryTest,
	CategoryDeploy,
	CategoryControl,
	CategoryOther,
}

type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldNumber FieldKind = "number"
	FieldBool   FieldKind = "bool"
	FieldChoice FieldKind = "choice"
	FieldList   FieldKind = "list"
)

// Field describes one entry of a job's config mapping.
type Field struct {
	Key     string    `json:"key"`
	Label   string    `json:"label"`
	Kind    FieldKind `json:"kind"`
	Default any       `json:"default,omitempty"`
	Choices []string  `json:"choices,omitempty"`
}

type JobTypeDef struct {
	Type        JobType  `json:"type"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Fields      []Field  `json:"fields"`
}

// timeoutField is shared by every job type.
var timeoutField = Field{Key: "timeout", Label: "Timeout (minutes)", Kind: FieldNumber}

var jobTypes = map[JobType]JobTypeDef{
	JobGitSource: {
		Type:        JobGitSource,
		Name:        "Git source",
		Description: "Fetch code from a Git repository",
		Category:    CategorySource,
		Fields: []Field{
			{Key: "repo", Label: "Repository", Kind: FieldText, Default: ""},
			{Key: "branch", Label: "Branch", Kind: FieldText, Default: "main"},
		},
	},
	JobBuildMaven: {
		Type:        JobBuildMaven,
		Name:        "Maven build",
		Description: "Compile and package a Java project with Maven",
		Category:    CategoryBuild,
		Fields: []Field{
			{Key: "jdkVersion", Label: "JDK", Kind: FieldChoice, Default: "jdk-11", Choices: []string{"jdk-8", "jdk-11", "jdk-17"}},
			{Key: "mvnCommand", Label: "Maven command", Kind: FieldText, Default: "mvn -B clean package"},
		},
	},
	JobBuildDocker: {
		Type:        JobBuildDocker,
		Name:        "Docker build",
		Description: "Build and push a Docker image",
		Category:    CategoryBuild,
		Fields: []Field{
			{Key: "image", Label: "Image", Kind: FieldText, Default: ""},
			{Key: "dockerfile", Label: "Dockerfile", Kind: FieldText, Default: "./Dockerfile"},
			{Key: "context", Label: "Build context", Kind: FieldText, Default: "."},
		},
	},
	JobBuildGo: {
		Type:        JobBuildGo,
		Name:        "Go build",
		Description: "Build a Go module",
		Category:    CategoryBuild,
		Fields: []Field{
			{Key: "goVersion", Label: "Go version", Kind: FieldChoice, Default: "1.18", Choices: []string{"1.18", "1.19", "1.20"}},
			{Key: "command", Label: "Command", Kind: FieldText, Default: "go build ./..."},
		},
	},
	JobTestMaven: {
		Type:        JobTestMaven,
		Name:        "Maven unit tests",
		Description: "Run unit tests with Maven",
		Category:    CategoryTest,
		Fields: []Field{
			{Key: "jdkVersion", Label: "JDK", Kind: FieldChoice, Default: "jdk-11", Choices: []string{"jdk-8", "jdk-11", "jdk-17"}},
			{Key: "mvnCommand", Label: "Maven command", Kind: FieldText, Default: "mvn -B test"},
		},
	},
	JobTestCoverage: {
		Type:        JobTestCoverage,
		Name:        "Jacoco coverage",
		Description: "Collect code coverage data",
		Category:    CategoryTest,
	},
	JobTestGo: {
		Type:        JobTestGo,
		Name:        "Go tests",
		Description: "Run Go tests",
		Category:    CategoryTest,
		Fields: []Field{
			{Key: "goVersion", Label: "Go version", Kind: FieldChoice, Default: "1.18", Choices: []string{"1.18", "1.19", "1.20"}},
			{Key: "command", Label: "Command", Kind: FieldText, Default: "go test ./..."},
		},
	},
	JobSecurityScan: {
		Type:        JobSecurityScan,
		Name:        "Security scan",
		Description: "Scan code for known vulnerabilities",
		Category:    CategoryTest,
		Fields: []Field{
			{Key: "scanLevel", Label: "Level", Kind: FieldChoice, Default: "Medium", Choices: []string{"Low", "Medium", "High"}},
			{Key: "blockOnFailure", Label: "Block on failure", Kind: FieldBool, Default: true},
		},
	},
	JobDeploy: {
		Type:        JobDeploy,
		Name:        "Kubernetes deploy",
		Description: "Deploy to a Kubernetes cluster",
		Category:    CategoryDeploy,
		Fields: []Field{
			{Key: "namespace", Label: "Namespace", Kind: FieldText, Default: "default"},
			{Key: "yamlPath", Label: "Manifest path", Kind: FieldText, Default: "./deploy.yaml"},
		},
	},
	JobManualApproval: {
		Type:        JobManualApproval,
		Name:        "Manual approval",
		Description: "Wait for a person to confirm before continuing",
		Category:    CategoryControl,
		Fields: []Field{
			{Key: "approvers", Label: "Approvers", Kind: FieldList},
		},
	},
	JobSeabornReport: {
		Type:        JobSeabornReport,
		Name:        "Seaborn report",
		Description: "Render a Seaborn chart",
		Category:    CategoryOther,
		Fields: []Field{
			{Key: "scriptPath", Label: "Script path", Kind: FieldText, Default: ""},
			{Key: "chartType", Label: "Chart", Kind: FieldChoice, Default: "line", Choices: []string{"line", "bar", "scatter", "heatmap"}},
			{Key: "showTooltips", Label: "Tooltips", Kind: FieldBool, Default: true},
		},
	},
	JobScript: {
		Type:        JobScript,
		Name:        "Shell script",
		Description: "Run a custom shell script",
		Category:    CategoryOther,
		Fields: []Field{
			{Key: "script", Label: "Script", Kind: FieldText, Default: ""},
		},
	},
}

// LookupJobType returns the definition registered for t.
func LookupJobType(t JobType) (JobTypeDef, bool) {
	def, ok := jobTypes[t]
	return def, ok
}

// JobTypes lists every registered job type ordered by category, then type.
func JobTypes() []JobTypeDef {
	defs := slices.Collect(maps.Values(jobTypes))
	sort.Slice(defs, func(i, j int) bool {
		ci := slices.Index(categoryOrder, defs[i].Category)
		cj := slices.Index(categoryOrder, defs[j].Category)
		if ci != cj {
			return ci < cj
		}
		return defs[i].Type < defs[j].Type
	})
	return defs
}

// DefaultConfig builds a config mapping holding every field default.
func (d JobTypeDef) DefaultConfig() map[string]any {
	cfg := make(map[string]any, len(d.Fields))
	for _, f := range d.Fields {
		if f.Default != nil {
			cfg[f.Key] = f.Default
		}
	}
	return cfg
}

func (d JobTypeDef) field(key string) (Field, bool) {
	if key == timeoutField.Key {
		return timeoutField, true
	}
	i := slices.IndexFunc(d.Fields, func(f Field) bool { return f.Key == key })
	if i < 0 {
		return Field{}, false
	}
	return d.Fields[i], true
}

// ValidateConfig describes every config entry that does not fit the schema.
// Problems are advisory; the document keeps the values as they are.
func (d JobTypeDef) ValidateConfig(cfg map[string]any) []string {
	problems := make([]string, 0)
	keys := slices.Sorted(maps.Keys(cfg))
	for _, k := range keys {
		f, ok := d.field(k)
		if !ok {
			problems = append(problems, fmt.Sprintf("unknown config key %q", k))
			continue
		}
		if !f.accepts(cfg[k]) {
			problems = append(problems, fmt.Sprintf("config key %q expects %s", k, f.Kind))
		}
	}
	return problems
}

func (f Field) accepts(v any) bool {
	switch f.Kind {
	case FieldText:
		_, ok := v.(string)
		return ok
	case FieldNumber:
		switch v.(type) {
		case int, int64, uint64, float64:
			return true
		}
		return false
	case FieldBool:
		_, ok := v.(bool)
		return ok
	case FieldChoice:
		s, ok := v.(string)
		return ok && (len(f.Choices) == 0 || slices.Contains(f.Choices, s))
	case FieldList:
		switch v.(type) {
		case []any, []string:
			return true
		}
		return false
	}
	return true
}
