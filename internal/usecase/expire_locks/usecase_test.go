package expire_locks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock структуры

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) ExpireStaleSoftLocks(ctx context.Context, now time.Time) ([]int64, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockBookingRepo) ExpireStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type stubTimeProvider struct {
	now time.Time
}

func (s *stubTimeProvider) Now() time.Time { return s.now }

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

var fixedNow = time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)

func testEnv(pendingTTL time.Duration) (*UseCase, *mockBookingRepo) {
	repo := new(mockBookingRepo)
	uc := NewUseCase(repo, pendingTTL, nil, nopLogger{})
	uc.timeProvider = &stubTimeProvider{now: fixedNow}
	return uc, repo
}

// Тесты

func TestExecute_SweepCounts(t *testing.T) {
	uc, repo := testEnv(30 * time.Minute)

	repo.On("ExpireStaleSoftLocks", mock.Anything, fixedNow).Return([]int64{11, 12}, nil)
	// Брошенные корзины старше TTL считаются от now
	repo.On("ExpireStalePending", mock.Anything, fixedNow.Add(-30*time.Minute)).Return(int64(3), nil)

	result, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(2), result.SoftLocksExpired)
	assert.Equal(t, int64(3), result.PendingExpired)
	repo.AssertExpectations(t)
}

func TestExecute_NothingToExpire(t *testing.T) {
	uc, repo := testEnv(30 * time.Minute)

	repo.On("ExpireStaleSoftLocks", mock.Anything, mock.Anything).Return([]int64{}, nil)
	repo.On("ExpireStalePending", mock.Anything, mock.Anything).Return(int64(0), nil)

	result, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(0), result.SoftLocksExpired)
	assert.Equal(t, int64(0), result.PendingExpired)
}

func TestExecute_RepoErrorStopsSweep(t *testing.T) {
	uc, repo := testEnv(30 * time.Minute)

	repo.On("ExpireStaleSoftLocks", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	_, err := uc.Execute(context.Background())

	assert.Error(t, err)
	repo.AssertNotCalled(t, "ExpireStalePending", mock.Anything, mock.Anything)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	uc, repo := testEnv(30 * time.Minute)

	repo.On("ExpireStaleSoftLocks", mock.Anything, mock.Anything).Return([]int64{}, nil)
	repo.On("ExpireStalePending", mock.Anything, mock.Anything).Return(int64(0), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		uc.Run(ctx, time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep goroutine did not stop after context cancellation")
	}
}
