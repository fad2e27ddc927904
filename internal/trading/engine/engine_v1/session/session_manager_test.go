package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SessionManagerTestSuite struct {
	suite.Suite
	tempDir string
	now     time.Time
}

func TestSessionManagerTestSuite(t *testing.T) {
	suite.Run(t, new(SessionManagerTestSuite))
}

func (s *SessionManagerTestSuite) SetupTest() {
	s.tempDir = s.T().TempDir()
	s.now = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
}

func (s *SessionManagerTestSuite) newManager() *Manager {
	return NewManagerWithClock(logger.NewNopLogger(), func() time.Time { return s.now })
}

func (s *SessionManagerTestSuite) TestInitialize_FirstRun() {
	sm := s.newManager()
	s.Require().NoError(sm.Initialize(s.tempDir))

	s.Equal("run_1", sm.GetRunName())
	s.Equal(1, sm.GetRunNumber())
	s.Equal("2024-03-15", sm.GetCurrentDate())
	s.Equal(s.now, sm.GetSessionStart())
	s.Equal(filepath.Join(s.tempDir, "2024-03-15", "run_1"), sm.GetCurrentRunPath())
	s.DirExists(sm.GetCurrentRunPath())

	_, err := uuid.Parse(sm.GetRunID())
	s.NoError(err)
}

func (s *SessionManagerTestSuite) TestInitialize_NextFreeRunNumber() {
	for _, name := range []string{"run_1", "run_2", "run_10", "notes"} {
		s.Require().NoError(os.MkdirAll(filepath.Join(s.tempDir, "2024-03-15", name), 0755))
	}

	sm := s.newManager()
	s.Require().NoError(sm.Initialize(s.tempDir))

	s.Equal("run_11", sm.GetRunName())
}

func (s *SessionManagerTestSuite) TestInitialize_IgnoresFilesNamedLikeRuns() {
	dir := filepath.Join(s.tempDir, "2024-03-15")
	s.Require().NoError(os.MkdirAll(dir, 0755))
	s.Require().NoError(os.WriteFile(filepath.Join(dir, "run_5"), []byte("x"), 0644))

	sm := s.newManager()
	s.Require().NoError(sm.Initialize(s.tempDir))

	s.Equal("run_1", sm.GetRunName())
}

func (s *SessionManagerTestSuite) TestInitialize_UniqueRunIDs() {
	first := s.newManager()
	s.Require().NoError(first.Initialize(s.tempDir))

	second := s.newManager()
	s.Require().NoError(second.Initialize(s.tempDir))

	s.NotEqual(first.GetRunID(), second.GetRunID())
	s.Equal("run_2", second.GetRunName())
}

func (s *SessionManagerTestSuite) TestInitialize_EmptyPath() {
	err := s.newManager().Initialize("")
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
}

func (s *SessionManagerTestSuite) TestHandleDateBoundary() {
	sm := s.newManager()
	s.Require().NoError(sm.Initialize(s.tempDir))

	crossed, err := sm.HandleDateBoundary(s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.False(crossed)

	crossed, err = sm.HandleDateBoundary(s.now.Add(-48 * time.Hour))
	s.Require().NoError(err)
	s.False(crossed)
	s.Equal("2024-03-15", sm.GetCurrentDate())

	crossed, err = sm.HandleDateBoundary(s.now.Add(24 * time.Hour))
	s.Require().NoError(err)
	s.True(crossed)

	s.Equal("2024-03-16", sm.GetCurrentDate())
	s.Equal(filepath.Join(s.tempDir, "2024-03-16", "run_1"), sm.GetCurrentRunPath())
	s.DirExists(sm.GetCurrentRunPath())
	s.Equal(filepath.Join(sm.GetCurrentRunPath(), "stats.yaml"), sm.GetFilePath("stats.yaml"))
}

func (s *SessionManagerTestSuite) TestListSessionsForDate() {
	for _, name := range []string{"run_10", "run_2", "run_1"} {
		s.Require().NoError(os.MkdirAll(filepath.Join(s.tempDir, "2024-03-14", name), 0755))
	}

	sm := s.newManager()
	s.Require().NoError(sm.Initialize(s.tempDir))

	runs, err := sm.ListSessionsForDate("2024-03-14")
	s.Require().NoError(err)
	s.Equal([]string{"run_1", "run_2", "run_10"}, runs)

	runs, err = sm.ListSessionsForDate("1999-01-01")
	s.Require().NoError(err)
	s.Empty(runs)
}

func (s *SessionManagerTestSuite) TestGetAllDates() {
	s.Require().NoError(os.MkdirAll(filepath.Join(s.tempDir, "2024-03-14"), 0755))
	s.Require().NoError(os.MkdirAll(filepath.Join(s.tempDir, "scratch"), 0755))

	sm := s.newManager()
	s.Require().NoError(sm.Initialize(s.tempDir))

	dates, err := sm.GetAllDates()
	s.Require().NoError(err)
	s.Equal([]string{"2024-03-14", "2024-03-15"}, dates)
}

func (s *SessionManagerTestSuite) TestRemoveIfEmpty() {
	sm := s.newManager()
	s.Require().NoError(sm.Initialize(s.tempDir))

	s.Require().NoError(sm.RemoveIfEmpty())
	s.NoDirExists(sm.GetCurrentRunPath())
	s.NoDirExists(filepath.Join(s.tempDir, "2024-03-15"))
	s.DirExists(s.tempDir)

	s.NoError(sm.RemoveIfEmpty())
}

func (s *SessionManagerTestSuite) TestRemoveIfEmpty_KeepsWrittenRun() {
	s.Require().NoError(os.MkdirAll(filepath.Join(s.tempDir, "2024-03-15", "run_1"), 0755))

	sm := s.newManager()
	s.Require().NoError(sm.Initialize(s.tempDir))
	s.Require().NoError(os.WriteFile(sm.GetFilePath("stats.yaml"), []byte("id: x"), 0644))

	s.Require().NoError(sm.RemoveIfEmpty())
	s.FileExists(sm.GetFilePath("stats.yaml"))

	empty := s.newManager()
	s.Require().NoError(empty.Initialize(s.tempDir))
	s.Require().NoError(empty.RemoveIfEmpty())
	s.NoDirExists(empty.GetCurrentRunPath())
	s.DirExists(filepath.Join(s.tempDir, "2024-03-15", "run_1"))
}

func (s *SessionManagerTestSuite) TestRemoveIfEmpty_NotInitialized() {
	s.NoError(s.newManager().RemoveIfEmpty())
}
