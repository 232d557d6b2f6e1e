package execution

import (
	"fmt"
	"strings"
	"time"

	"github.com/haatos/stageflow/internal/topology"
)

const (
	LogSteps    = 15
	LogInterval = 600 * time.Millisecond
)

// LogLine is one simulated log entry. Stamped lines carry the time they were
// emitted.
type LogLine struct {
	Tag     string `json:"tag"`
	Message string `json:"message"`
	Stamped bool   `json:"stamped"`
}

func (l LogLine) Format(at time.Time) string {
	if !l.Stamped {
		return fmt.Sprintf("[%s] %s", l.Tag, l.Message)
	}
	return fmt.Sprintf("[%s] [%s] %s", at.UTC().Format("15:04:05.000"), l.Tag, l.Message)
}

var stepActions = []struct {
	match   string
	tag     string
	actions []string
}{
	{"git", "GIT", []string{"Fetching origin...", "Checking out branch...", "Verifying commit signature...", "Git clone completed."}},
	{"build", "BUILD", []string{"Compiling source...", "Downloading dependencies...", "Running annotation processors...", "Packaging artifact..."}},
	{"test", "TEST", []string{"Running TestSuite A...", "Running TestSuite B...", "Validating coverage...", "Generating report..."}},
}

// JobLog returns the simulated log of j: a fixed preamble, LogSteps lines
// chosen by job type and a completion line.
func JobLog(j topology.Job) []LogLine {
	lines := []LogLine{
		{Tag: "INFO", Message: fmt.Sprintf("Initializing environment for job: %s...", j.Name)},
		{Tag: "INFO", Message: fmt.Sprintf("Job ID: %s", j.ID)},
		{Tag: "INFO", Message: "Worker allocated: worker-node-linux-small-04"},
		{Tag: "INFO", Message: "Pulling configuration..."},
	}
	for step := 1; step <= LogSteps; step++ {
		lines = append(lines, stepLine(j.Type, step))
	}
	return append(lines, LogLine{Tag: "INFO", Message: "Job completed successfully.", Stamped: true})
}

func stepLine(t topology.JobType, step int) LogLine {
	for _, sa := range stepActions {
		if strings.Contains(string(t), sa.match) {
			return LogLine{Tag: sa.tag, Message: sa.actions[step%len(sa.actions)], Stamped: true}
		}
	}
	return LogLine{
		Tag:     "EXEC",
		Message: fmt.Sprintf("Processing step %d of task execution...", step),
		Stamped: true,
	}
}
