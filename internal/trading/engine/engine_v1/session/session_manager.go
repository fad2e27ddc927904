package session

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

var (
	runFolderPattern  = regexp.MustCompile(`^run_(\d+)$`)
	dateFolderPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Manager owns the output folders of one live run:
//
//	{dataOutputPath}/{YYYY-MM-DD}/run_N/
//
// A run that crosses midnight keeps its run number and continues in a folder
// under the new date.
type Manager struct {
	dataOutputPath string
	runID          string
	runNumber      int
	sessionStart   time.Time
	currentDate    string
	currentRunPath string
	now            func() time.Time
	mu             sync.Mutex
	log            *logger.Logger
}

// NewManager creates a Manager that dates sessions by the wall clock.
func NewManager(log *logger.Logger) *Manager {
	return NewManagerWithClock(log, time.Now)
}

// NewManagerWithClock creates a Manager that reads the session start from now.
func NewManagerWithClock(log *logger.Logger, now func() time.Time) *Manager {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Manager{
		dataOutputPath: "",
		runID:          "",
		runNumber:      0,
		sessionStart:   time.Time{},
		currentDate:    "",
		currentRunPath: "",
		now:            now,
		mu:             sync.Mutex{},
		log:            log,
	}
}

// Initialize picks the next free run number under today's folder and creates it.
func (s *Manager) Initialize(dataOutputPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dataOutputPath == "" {
		return errors.New(errors.ErrCodeMissingParameter, "data output path is required")
	}

	s.dataOutputPath = dataOutputPath
	s.sessionStart = s.now()
	s.currentDate = s.sessionStart.Format(dateLayout)

	runNumber, err := s.nextRunNumber(s.currentDate)
	if err != nil {
		return err
	}

	s.runNumber = runNumber
	s.runID = uuid.NewString()

	if err := s.createRunFolder(); err != nil {
		return err
	}

	s.log.Info("Session initialized",
		zap.String("run_id", s.runID),
		zap.String("run_name", s.runName()),
		zap.String("path", s.currentRunPath),
	)

	return nil
}

func (s *Manager) nextRunNumber(date string) (int, error) {
	runs, err := listRuns(filepath.Join(s.dataOutputPath, date))
	if err != nil {
		return 0, err
	}

	if len(runs) == 0 {
		return 1, nil
	}

	return runNumberOf(runs[len(runs)-1]) + 1, nil
}

func (s *Manager) createRunFolder() error {
	s.currentRunPath = filepath.Join(s.dataOutputPath, s.currentDate, s.runName())

	if err := os.MkdirAll(s.currentRunPath, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeEngineInitFailed, err, "failed to create run folder %s", s.currentRunPath)
	}

	return nil
}

func (s *Manager) runName() string {
	return "run_" + strconv.Itoa(s.runNumber)
}

// HandleDateBoundary moves the run into the folder of timestamp's date when it
// is later than the current one. It reports whether a new folder was created.
// Timestamps from earlier dates, such as replayed history, never move the run.
func (s *Manager) HandleDateBoundary(timestamp time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newDate := timestamp.Format(dateLayout)
	if newDate <= s.currentDate {
		return false, nil
	}

	oldDate := s.currentDate
	s.currentDate = newDate

	if err := s.createRunFolder(); err != nil {
		return false, err
	}

	s.log.Info("Date boundary crossed",
		zap.String("old_date", oldDate),
		zap.String("new_date", newDate),
		zap.String("new_path", s.currentRunPath),
	)

	return true, nil
}

// RemoveIfEmpty deletes the current run folder, and its date folder, when
// nothing has been written to them.
func (s *Manager) RemoveIfEmpty() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentRunPath == "" {
		return nil
	}

	for _, dir := range []string{s.currentRunPath, filepath.Dir(s.currentRunPath)} {
		entries, err := readDirIfExists(dir)
		if err != nil {
			return err
		}

		if len(entries) > 0 {
			return nil
		}

		if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(errors.ErrCodeEngineInitFailed, err, "failed to remove empty folder %s", dir)
		}
	}

	return nil
}

// GetRunID returns the unique id of the run.
func (s *Manager) GetRunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runID
}

// GetRunName returns the run folder name, e.g. "run_2".
func (s *Manager) GetRunName() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runName()
}

func (s *Manager) GetRunNumber() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runNumber
}

func (s *Manager) GetSessionStart() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessionStart
}

// GetCurrentDate returns the date of the current run folder in YYYY-MM-DD format.
func (s *Manager) GetCurrentDate() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.currentDate
}

func (s *Manager) GetCurrentRunPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.currentRunPath
}

// GetFilePath joins filename onto the current run folder.
func (s *Manager) GetFilePath(filename string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return filepath.Join(s.currentRunPath, filename)
}

// ListSessionsForDate returns the run folder names of date ordered by run number.
func (s *Manager) ListSessionsForDate(date string) ([]string, error) {
	return listRuns(filepath.Join(s.dataOutputPath, date))
}

// GetAllDates returns every date folder with session data, oldest first.
func (s *Manager) GetAllDates() ([]string, error) {
	entries, err := readDirIfExists(s.dataOutputPath)
	if err != nil {
		return nil, err
	}

	dates := []string{}

	for _, entry := range entries {
		if entry.IsDir() && dateFolderPattern.MatchString(entry.Name()) {
			dates = append(dates, entry.Name())
		}
	}

	slices.Sort(dates)

	return dates, nil
}

func listRuns(datePath string) ([]string, error) {
	entries, err := readDirIfExists(datePath)
	if err != nil {
		return nil, err
	}

	runs := []string{}

	for _, entry := range entries {
		if entry.IsDir() && runFolderPattern.MatchString(entry.Name()) {
			runs = append(runs, entry.Name())
		}
	}

	slices.SortFunc(runs, func(a, b string) int {
		return runNumberOf(a) - runNumberOf(b)
	})

	return runs, nil
}

func runNumberOf(name string) int {
	num, err := strconv.Atoi(strings.TrimPrefix(name, "run_"))
	if err != nil {
		return 0
	}

	return num
}

func readDirIfExists(path string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(path)
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to read directory %s", path)
	}

	return entries, nil
}
