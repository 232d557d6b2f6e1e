package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type runSQLiteStoreSuite struct {
	pipeline *Pipeline
	suite.Suite
}

func TestRunSQLiteStore(t *testing.T) {
	suite.Run(t, new(runSQLiteStoreSuite))
}

func (suite *runSQLiteStoreSuite) SetupTest() {
	suite.pipeline = generatePipeline(suite.T())
}

func (suite *runSQLiteStoreSuite) newRun() *Run {
	started := time.Now().UTC()
	return &Run{
		RunID:         uuid.NewString(),
		RunPipelineID: suite.pipeline.PipelineID,
		Trigger:       "manual",
		Status:        StatusRunning,
		StageCount:    3,
		CurrentStage:  0,
		StartedOn:     &started,
	}
}

func (suite *runSQLiteStoreSuite) TestRunSQLiteStore_SaveRunProgress() {
	suite.Run("success - run inserted then updated", func() {
		// arrange
		r := suite.newRun()
		suite.Require().NoError(runStore.SaveRunProgress(context.Background(), r))
		ended := time.Now().UTC()
		r.Status = StatusCompleted
		r.CurrentStage = 3
		r.EndedOn = &ended

		// act
		err := runStore.SaveRunProgress(context.Background(), r)

		// assert
		suite.NoError(err)
		stored, err := runStore.ReadRunByID(context.Background(), r.RunID)
		suite.Require().NoError(err)
		suite.Equal(StatusCompleted, stored.Status)
		suite.EqualValues(3, stored.CurrentStage)
		suite.EqualValues(3, stored.StageCount)
		suite.Equal("manual", stored.Trigger)
		suite.NotNil(stored.StartedOn)
		suite.NotNil(stored.EndedOn)
	})

	suite.Run("failure - invalid pipeline id", func() {
		// arrange
		r := suite.newRun()
		r.RunPipelineID = "missing"

		// act
		err := runStore.SaveRunProgress(context.Background(), r)

		// assert
		suite.Error(err)
		var sqliteErr *sqlite.Error
		ok := errors.As(err, &sqliteErr)
		suite.True(ok)
		suite.Equal(sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, sqliteErr.Code())
	})
}

func (suite *runSQLiteStoreSuite) TestRunSQLiteStore_ListPipelineRuns() {
	suite.Run("success - runs paginated", func() {
		// arrange
		for range 3 {
			suite.Require().NoError(runStore.SaveRunProgress(context.Background(), suite.newRun()))
		}

		// act
		firstPage, err := runStore.ListPipelineRunsPaginated(context.Background(), suite.pipeline.PipelineID, 2, 0)
		suite.Require().NoError(err)
		secondPage, err := runStore.ListPipelineRunsPaginated(context.Background(), suite.pipeline.PipelineID, 2, 2)
		suite.Require().NoError(err)
		latest, err := runStore.ListLatestPipelineRuns(context.Background(), suite.pipeline.PipelineID, 10)
		suite.Require().NoError(err)
		count, err := runStore.CountPipelineRuns(context.Background(), suite.pipeline.PipelineID)

		// assert
		suite.NoError(err)
		suite.Len(firstPage, 2)
		suite.Len(secondPage, 1)
		suite.Len(latest, 3)
		suite.EqualValues(3, count)
	})
}

func (suite *runSQLiteStoreSuite) TestRunSQLiteStore_DeleteRunsBefore() {
	suite.Run("success - finished runs pruned, running kept", func() {
		// arrange
		running := suite.newRun()
		finished := suite.newRun()
		finished.Status = StatusCompleted
		suite.Require().NoError(runStore.SaveRunProgress(context.Background(), running))
		suite.Require().NoError(runStore.SaveRunProgress(context.Background(), finished))

		// act
		_, err := runStore.DeleteRunsBefore(context.Background(), time.Now().Add(time.Hour))

		// assert
		suite.NoError(err)
		_, err = runStore.ReadRunByID(context.Background(), finished.RunID)
		suite.True(errors.Is(err, sql.ErrNoRows))
		_, err = runStore.ReadRunByID(context.Background(), running.RunID)
		suite.NoError(err)
	})
}

func (suite *runSQLiteStoreSuite) TestRunSQLiteStore_InterruptRunningRuns() {
	suite.Run("success - running runs interrupted", func() {
		// arrange
		r := suite.newRun()
		suite.Require().NoError(runStore.SaveRunProgress(context.Background(), r))

		// act
		n, err := runStore.InterruptRunningRuns(context.Background())

		// assert
		suite.NoError(err)
		suite.GreaterOrEqual(n, int64(1))
		stored, err := runStore.ReadRunByID(context.Background(), r.RunID)
		suite.Require().NoError(err)
		suite.Equal(StatusInterrupted, stored.Status)
		suite.NotNil(stored.EndedOn)
	})
}

func (suite *runSQLiteStoreSuite) TestRunSQLiteStore_DeleteRun() {
	suite.Run("success - run deleted with its pipeline", func() {
		// arrange
		r := suite.newRun()
		suite.Require().NoError(runStore.SaveRunProgress(context.Background(), r))

		// act
		err := pipelineStore.DeletePipeline(context.Background(), suite.pipeline.PipelineID)

		// assert
		suite.NoError(err)
		_, err = runStore.ReadRunByID(context.Background(), r.RunID)
		suite.True(errors.Is(err, sql.ErrNoRows))
	})
}
