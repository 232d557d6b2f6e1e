package topology

const (
	NewJobName   = "New job"
	NewStageName = "New stage"
)

// NewJob builds a placeholder job whose config holds the schema defaults of
// its type. Unknown types get an empty config.
func NewJob(id string, t JobType) Job {
	j := Job{ID: id, Name: NewJobName, Type: t, Config: make(map[string]any)}
	if def, ok := LookupJobType(t); ok {
		j.Config = def.DefaultConfig()
	}
	return j
}

// NewStage builds an empty parallel stage.
func NewStage(id string) Stage {
	return Stage{ID: id, Name: NewStageName, Groups: make([]Group, 0), IsParallel: true}
}

// Seed returns the sample document new pipelines start from.
func Seed() Pipeline {
	return Pipeline{
		ID:          "p-20221214-001",
		Name:        "pipeline-202212141737",
		Description: "Standard CI/CD pipeline for backend services",
		Variables: []Variable{
			{ID: "v1", Name: "var1", Type: VariableString, DefaultValue: "repository name", Description: "Target repository name"},
		},
		Stages: []Stage{
			{
				ID:   "s1",
				Name: "Source",
				Groups: []Group{
					{{ID: "j1", Name: "gitee-go/spring-boot", Type: JobGitSource, Config: map[string]any{"repo": "spring-boot", "branch": "master"}}},
					{{ID: "j2", Name: "gitee-go/golang-build-case", Type: JobGitSource, Config: map[string]any{"repo": "golang-build", "branch": "master"}}},
					{{ID: "j-new-1", Name: "New Git Source", Type: JobGitSource, Config: map[string]any{"repo": "", "branch": "main"}}},
				},
				IsParallel: true,
			},
			{
				ID:   "s2",
				Name: "Test",
				Groups: []Group{
					{
						{ID: "j3", Name: "Maven unit tests", Type: JobTestMaven, Config: map[string]any{}},
						{ID: "j4", Name: "Jacoco coverage", Type: JobTestCoverage, Config: map[string]any{}},
					},
					{{ID: "j5", Name: "Go unit tests", Type: JobTestGo, Config: map[string]any{}}},
				},
				IsParallel: true,
			},
			{
				ID:   "s3",
				Name: "Manual approval",
				Groups: []Group{
					{{ID: "j6", Name: "Approval gate", Type: JobManualApproval, Config: map[string]any{"approvers": []any{"admin"}}}},
				},
				IsParallel: true,
			},
			{
				ID:   "s4",
				Name: "Build",
				Groups: []Group{
					{{ID: "j7", Name: "Maven build", Type: JobBuildMaven, Config: map[string]any{}}},
					{{ID: "j8", Name: "SBOM scan", Type: JobSecurityScan, Config: map[string]any{}}},
					{{ID: "j10", Name: "Docker Build", Type: JobBuildDocker, Config: map[string]any{"image": "my-app:latest", "dockerfile": "./Dockerfile"}}},
					{{ID: "j11", Name: "Run Script", Type: JobScript, Config: map[string]any{"script": `echo "Running post-build script..."`}}},
				},
				IsParallel: true,
			},
			{
				ID:   "s5",
				Name: "Deploy",
				Groups: []Group{
					{{ID: "j9", Name: "Kubernetes deploy", Type: JobDeploy, Config: map[string]any{}}},
				},
				IsParallel: true,
			},
		},
		Settings: Settings{
			Cron:           "0 0 * * *",
			TimeoutMinutes: 60,
			RetryCount:     0,
			SkipStrategy:   "none",
		},
	}
}
