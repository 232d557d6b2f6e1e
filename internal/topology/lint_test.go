package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func hintCodes(hints []Hint) []HintCode {
	codes := make([]HintCode, len(hints))
	for i, h := range hints {
		codes[i] = h.Code
	}
	return codes
}

func TestLint(t *testing.T) {
	t.Run("success - seed has no hints", func(t *testing.T) {
		// act
		hints := Lint(Seed())

		// assert
		assert.Empty(t, hints)
	})

	t.Run("success - structural problems reported", func(t *testing.T) {
		// arrange
		p := Seed().
			AddStage(4, NewStage("s6")).
			SetStageParallel("s3", false).
			AddVariable(Variable{ID: "v2", Name: "var1", Type: VariableEnum})

		// act
		codes := hintCodes(Lint(p))

		// assert
		assert.Contains(t, codes, HintEmptyStage)
		assert.Contains(t, codes, HintSerialSingleGroup)
		assert.Contains(t, codes, HintDuplicateVariable)
		assert.Contains(t, codes, HintEnumNoDefault)
	})

	t.Run("success - job problems reported", func(t *testing.T) {
		// arrange
		level := "Extreme"
		p := Seed().
			AddJob("s1", NewJob("j7", JobScript), NewBranch()).
			AddJob("s5", Job{ID: "j-x", Name: "odd", Type: "unknown"}, NewBranch()).
			UpdateJob("j8", JobPatch{Config: map[string]any{"scanLevel": level, "colour": "red"}})

		// act
		hints := Lint(p)

		// assert
		codes := hintCodes(hints)
		assert.Contains(t, codes, HintDuplicateJobID)
		assert.Contains(t, codes, HintFirstStageSource)
		assert.Contains(t, codes, HintUnknownJobType)
		invalid := 0
		for _, h := range hints {
			if h.Code == HintInvalidConfig {
				invalid++
				assert.Equal(t, "j8", h.JobID)
			}
		}
		assert.Equal(t, 2, invalid)
	})
}

func TestJobTypes(t *testing.T) {
	t.Run("success - ordered by category", func(t *testing.T) {
		// act
		defs := JobTypes()

		// assert
		assert.Len(t, defs, len(jobTypes))
		assert.Equal(t, CategorySource, defs[0].Category)
		assert.Equal(t, CategoryOther, defs[len(defs)-1].Category)
	})

	t.Run("success - timeout accepted for every type", func(t *testing.T) {
		// arrange
		def, ok := LookupJobType(JobDeploy)

		// act
		problems := def.ValidateConfig(map[string]any{"timeout": 30, "namespace": "prod"})

		// assert
		assert.True(t, ok)
		assert.Empty(t, problems)
	})
}
