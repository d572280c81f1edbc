package jobs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/rentas-pro/internal/application/jobs"
	"github.com/tu-usuario/rentas-pro/internal/domain"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/pkg/logger"
)

type fakeJobRepo struct {
	running    bool
	created    []*entity.BillingJob
	finished   []*entity.BillingJob
	finishHits int
}

func (f *fakeJobRepo) Create(ctx context.Context, job *entity.BillingJob) error {
	f.created = append(f.created, job)
	return nil
}

func (f *fakeJobRepo) Finish(ctx context.Context, job *entity.BillingJob) error {
	f.finishHits++
	snapshot := *job
	f.finished = append(f.finished, &snapshot)
	return nil
}

func (f *fakeJobRepo) HasRunning(ctx context.Context, jobType string) (bool, error) {
	return f.running, nil
}

func (f *fakeJobRepo) GetByID(ctx context.Context, id string) (*entity.BillingJob, error) {
	return nil, nil
}

func (f *fakeJobRepo) List(ctx context.Context, jobType string, limit int) ([]*entity.BillingJob, error) {
	return nil, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

// TestStart_RegistraRunning Start inserta el registro en estado running con
// sus parámetros y devuelve el handle.
func TestStart_RegistraRunning(t *testing.T) {
	repo := &fakeJobRepo{}
	ledger := jobs.NewLedger(repo, testLogger())

	run, err := ledger.Start(context.Background(), entity.JobTypeBilling, map[string]string{"date": "2025-07-01"}, true)
	require.NoError(t, err)
	require.Len(t, repo.created, 1)

	job := repo.created[0]
	assert.Equal(t, run.ID(), job.ID)
	assert.Equal(t, entity.JobStatusRunning, job.Status)
	assert.Equal(t, entity.JobTypeBilling, job.JobType)
	assert.True(t, job.DryRun)
	assert.Equal(t, "2025-07-01", job.Parameters["date"])
}

// TestStart_RechazaJobEnCurso con otro job del mismo tipo running, Start
// devuelve ErrJobEnCurso sin insertar nada.
func TestStart_RechazaJobEnCurso(t *testing.T) {
	repo := &fakeJobRepo{running: true}
	ledger := jobs.NewLedger(repo, testLogger())

	_, err := ledger.Start(context.Background(), entity.JobTypeBilling, nil, false)
	assert.ErrorIs(t, err, domain.ErrJobEnCurso)
	assert.Empty(t, repo.created)
}

// TestComplete_SinFallas cierra completed con los contadores de la corrida.
func TestComplete_SinFallas(t *testing.T) {
	repo := &fakeJobRepo{}
	ledger := jobs.NewLedger(repo, testLogger())
	run, err := ledger.Start(context.Background(), entity.JobTypeOverdue, nil, false)
	require.NoError(t, err)

	err = run.Complete(context.Background(), entity.JobCounts{Total: 10, Processed: 10}, nil)
	require.NoError(t, err)
	require.Len(t, repo.finished, 1)

	job := repo.finished[0]
	assert.Equal(t, entity.JobStatusCompleted, job.Status)
	assert.Equal(t, 10, job.RecordsProcessed)
	require.NotNil(t, job.CompletedAt)
}

// TestComplete_ConFallasDegradaAPartialFailure cualquier registro fallido
// degrada el estado terminal a partial_failure.
func TestComplete_ConFallasDegradaAPartialFailure(t *testing.T) {
	repo := &fakeJobRepo{}
	ledger := jobs.NewLedger(repo, testLogger())
	run, err := ledger.Start(context.Background(), entity.JobTypeBilling, nil, false)
	require.NoError(t, err)

	counts := entity.JobCounts{Total: 5, Processed: 3, Failed: 2}
	err = run.Complete(context.Background(), counts, []string{"lease-1: sin moneda", "lease-2: timeout"})
	require.NoError(t, err)

	job := repo.finished[0]
	assert.Equal(t, entity.JobStatusPartialFailure, job.Status)
	assert.Equal(t, 2, job.RecordsFailed)
	assert.Len(t, job.ErrorLog, 2)
}

// TestFinish_EsUnaSolaVez la transición terminal ocurre a lo sumo una vez:
// Complete seguido de Fail o de Close no vuelve a escribir.
func TestFinish_EsUnaSolaVez(t *testing.T) {
	repo := &fakeJobRepo{}
	ledger := jobs.NewLedger(repo, testLogger())
	run, err := ledger.Start(context.Background(), entity.JobTypeReminders, nil, false)
	require.NoError(t, err)

	require.NoError(t, run.Complete(context.Background(), entity.JobCounts{Total: 1, Processed: 1}, nil))
	require.NoError(t, run.Fail(context.Background(), "tarde", nil))
	run.Close(context.Background())

	assert.Equal(t, 1, repo.finishHits, "solo la primera transición terminal escribe")
	assert.Equal(t, entity.JobStatusCompleted, repo.finished[0].Status)
}

// TestClose_MarcaFailed el cierre de resguardo marca failed un job que nunca
// fue cerrado explícitamente, para que nada quede running para siempre.
func TestClose_MarcaFailed(t *testing.T) {
	repo := &fakeJobRepo{}
	ledger := jobs.NewLedger(repo, testLogger())
	run, err := ledger.Start(context.Background(), entity.JobTypeSyncIndices, nil, false)
	require.NoError(t, err)

	run.Close(context.Background())

	require.Len(t, repo.finished, 1)
	assert.Equal(t, entity.JobStatusFailed, repo.finished[0].Status)
	assert.NotEmpty(t, repo.finished[0].ErrorLog)
}
