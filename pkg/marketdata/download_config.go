package marketdata

import (
	"bytes"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/rxtech-lab/candle-trader/pkg/schema"
	"gopkg.in/yaml.v3"
)

// DefaultDownloadDataPath is the folder downloads land in when a job names none.
const DefaultDownloadDataPath = "data"

// dateLayouts are the accepted forms of Start and End, most specific first.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// DownloadJob is a saved download request. It is read from YAML or JSON by
// `trading download --job` and described by `trading schema download`.
type DownloadJob struct {
	Provider ProviderType `yaml:"provider" json:"provider" validate:"required,oneof=binance polygon" jsonschema:"title=Provider,enum=binance,enum=polygon,default=binance"`
	Ticker   string       `yaml:"ticker" json:"ticker" validate:"required" jsonschema:"title=Ticker,description=Symbol to download e.g. BTCUSDT or SPY"`
	// Start and End are dates (2024-01-31) or RFC3339 timestamps. An empty End means now.
	Start    string   `yaml:"start" json:"start" validate:"required" jsonschema:"title=Start,description=First day or instant to download"`
	End      string   `yaml:"end,omitempty" json:"end,omitempty" jsonschema:"title=End,description=Last day or instant to download. Empty means now"`
	Interval Timespan `yaml:"interval" json:"interval" validate:"required" jsonschema:"title=Interval,default=1m"`
	DataPath string   `yaml:"data_path,omitempty" json:"data_path,omitempty" jsonschema:"title=Data Path,description=Output folder,default=data"`
	// PolygonAPIKey is only read for polygon jobs.
	PolygonAPIKey string `yaml:"polygon_api_key,omitempty" json:"polygon_api_key,omitempty" keychain:"true" jsonschema:"title=Polygon API Key"`
}

// LoadDownloadJob reads a job file. Unknown keys are rejected.
func LoadDownloadJob(path string) (*DownloadJob, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read download job %s", path)
	}

	var job DownloadJob

	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)

	if err := decoder.Decode(&job); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse download job %s", path)
	}

	return &job, nil
}

// ApplyEnv fills the polygon key from POLYGON_API_KEY when the job has none.
func (j *DownloadJob) ApplyEnv(getenv func(string) string) {
	if j.PolygonAPIKey == "" {
		j.PolygonAPIKey = getenv("POLYGON_API_KEY")
	}
}

func (j *DownloadJob) Validate() error {
	if err := validator.New().Struct(j); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid download job", err)
	}

	if _, err := ParseTimespan(string(j.Interval)); err != nil {
		return err
	}

	if j.Provider == ProviderPolygon && j.PolygonAPIKey == "" {
		return errors.New(errors.ErrCodeCredentialsMissing, "polygon downloads require polygon_api_key or POLYGON_API_KEY")
	}

	_, err := j.Params(time.Now())

	return err
}

// Params resolves the job's dates. now stands in for an empty End.
func (j *DownloadJob) Params(now time.Time) (DownloadParams, error) {
	start, err := parseJobDate("start", j.Start)
	if err != nil {
		return DownloadParams{}, err
	}

	end := now
	if j.End != "" {
		if end, err = parseJobDate("end", j.End); err != nil {
			return DownloadParams{}, err
		}
	}

	if !end.After(start) {
		return DownloadParams{}, errors.Newf(errors.ErrCodeInvalidConfiguration, "end %s is not after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	return DownloadParams{
		Ticker:     j.Ticker,
		StartDate:  start,
		EndDate:    end,
		Multiplier: j.Interval.Multiplier(),
		Timespan:   j.Interval.Timespan(),
	}, nil
}

func (j *DownloadJob) ClientConfig() ClientConfig {
	dataPath := j.DataPath
	if dataPath == "" {
		dataPath = DefaultDownloadDataPath
	}

	apiKey := ""
	if j.Provider == ProviderPolygon {
		apiKey = j.PolygonAPIKey
	}

	return ClientConfig{
		ProviderType:  j.Provider,
		WriterType:    WriterDuckDB,
		DataPath:      dataPath,
		PolygonApiKey: apiKey,
	}
}

func parseJobDate(field, value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, errors.Newf(errors.ErrCodeInvalidConfiguration, "invalid %s %q, expected YYYY-MM-DD or RFC3339", field, value)
}

// DownloadJobSchema returns the JSON schema of a download job file.
func DownloadJobSchema() (string, error) {
	return schema.ToJSONSchema(DownloadJob{}) //nolint:exhaustruct // Empty struct is intentional for schema generation
}
