package config

import (
	"time"

	"github.com/alecacerestel/AppASO/internal/extract"
	"github.com/alecacerestel/AppASO/internal/forecast"
	"github.com/alecacerestel/AppASO/internal/load"
	"github.com/alecacerestel/AppASO/internal/notify"
	"github.com/alecacerestel/AppASO/internal/schema"
)

// Config represents the main configuration structure.
type Config struct {
	Store     StoreConfig         `yaml:"store" mapstructure:"store"`
	Pipeline  PipelineConfig      `yaml:"pipeline" mapstructure:"pipeline"`
	Lake      load.LakeConfig     `yaml:"lake" mapstructure:"lake"`
	Workbook  load.WorkbookConfig `yaml:"workbook" mapstructure:"workbook"`
	Warehouse WarehouseConfig     `yaml:"warehouse" mapstructure:"warehouse"`
	Forecast  ForecastConfig      `yaml:"forecast" mapstructure:"forecast"`
	Notify    notify.Config       `yaml:"notify" mapstructure:"notify"`
	Logging   LoggingConfig       `yaml:"logging" mapstructure:"logging"`
}

// StoreConfig locates the drive-synced share and tunes its client.
type StoreConfig struct {
	Root              string  `yaml:"root" mapstructure:"root"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// PipelineConfig holds the business configuration of the transform.
type PipelineConfig struct {
	// CutoffDate is the agency start date, YYYY-MM-DD. Rows dated on or
	// after it are labeled PostStage.
	CutoffDate  string           `yaml:"cutoff_date" mapstructure:"cutoff_date"`
	PreStage    string           `yaml:"pre_stage" mapstructure:"pre_stage"`
	PostStage   string           `yaml:"post_stage" mapstructure:"post_stage"`
	RawFolder   string           `yaml:"raw_folder" mapstructure:"raw_folder"`
	MirrorDir   string           `yaml:"mirror_dir" mapstructure:"mirror_dir"`
	ControlPath string           `yaml:"control_path" mapstructure:"control_path"`
	Patterns    extract.Patterns `yaml:"patterns" mapstructure:"patterns"`
}

// Cutoff parses the configured cutoff date.
func (p PipelineConfig) Cutoff() (time.Time, error) {
	return time.Parse("2006-01-02", p.CutoffDate)
}

// WarehouseConfig wraps the load warehouse settings with an enable flag.
type WarehouseConfig struct {
	Enabled              bool `yaml:"enabled" mapstructure:"enabled"`
	load.WarehouseConfig `yaml:",inline" mapstructure:",squash"`
}

// ForecastConfig wraps the forecaster settings with its output targets.
type ForecastConfig struct {
	forecast.Config `yaml:",inline" mapstructure:",squash"`
	Sheet           string `yaml:"sheet" mapstructure:"sheet"`
	BackupPath      string `yaml:"backup_path" mapstructure:"backup_path"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
		Path    string `yaml:"path" mapstructure:"path"`
	} `yaml:"file" mapstructure:"file"`
}

// GetDefaults returns a configuration with sensible defaults.
func GetDefaults() *Config {
	return &Config{
		Store: StoreConfig{
			Root:              "drive",
			RequestsPerSecond: 5,
			MaxRetries:        3,
		},
		Pipeline: PipelineConfig{
			CutoffDate:  "2025-07-15",
			PreStage:    "Pre-Agency",
			PostStage:   "With-Agency",
			RawFolder:   "01_RAW",
			MirrorDir:   "data/raw",
			ControlPath: "00_Control_Panel.csv",
			Patterns:    extract.DefaultPatterns(),
		},
		Lake: load.LakeConfig{
			Folder: "02_Data_Lake_Historic",
			Format: load.FormatCSV,
		},
		Workbook: load.WorkbookConfig{
			Path:   "MASTER_DATA_CLEAN.xlsx",
			Sheets: load.DefaultSheets(),
		},
		Warehouse: WarehouseConfig{
			Enabled: false,
			WarehouseConfig: load.WarehouseConfig{
				MaxOpenConns:    4,
				MaxIdleConns:    2,
				ConnMaxLifetime: 30 * time.Minute,
			},
		},
		Forecast: ForecastConfig{
			Config:     forecast.Config{TrainingMonths: 4},
			Sheet:      "FORECAST",
			BackupPath: "data/forecast/MASTER_DATA_FORECAST.csv",
		},
		Notify: notify.Config{
			Enabled: false,
			Host:    "smtp.gmail.com",
			Port:    587,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// SheetFor returns the configured worksheet name for a data type.
func (c *Config) SheetFor(dataType schema.DataType) string {
	return c.Workbook.Sheets[dataType]
}
