package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/alecacerestel/AppASO/internal/drive"
	"github.com/alecacerestel/AppASO/internal/schema"
)

// Patterns are the file-name fragments that identify each of the six raw
// exports inside the raw folder.
type Patterns struct {
	KeywordsApple  string `yaml:"keywords_apple" mapstructure:"keywords_apple"`
	KeywordsGoogle string `yaml:"keywords_google" mapstructure:"keywords_google"`
	InstallsApple  string `yaml:"installs_apple" mapstructure:"installs_apple"`
	InstallsGoogle string `yaml:"installs_google" mapstructure:"installs_google"`
	UsersApple     string `yaml:"users_apple" mapstructure:"users_apple"`
	UsersGoogle    string `yaml:"users_google" mapstructure:"users_google"`
}

// DefaultPatterns returns the production file-name fragments.
func DefaultPatterns() Patterns {
	return Patterns{
		KeywordsApple:  "APPLE motcles",
		KeywordsGoogle: "GOOGLE motcles",
		InstallsApple:  "Installs Apple",
		InstallsGoogle: "Installs Google",
		UsersApple:     "Utilisateurs connectés Apple",
		UsersGoogle:    "Utilisateurs connectés Google",
	}
}

// For returns the pattern for one (data type, platform) pair.
func (p Patterns) For(dataType schema.DataType, platform schema.Platform) string {
	switch {
	case dataType == schema.Keywords && platform == schema.Apple:
		return p.KeywordsApple
	case dataType == schema.Keywords && platform == schema.Google:
		return p.KeywordsGoogle
	case dataType == schema.Installs && platform == schema.Apple:
		return p.InstallsApple
	case dataType == schema.Installs && platform == schema.Google:
		return p.InstallsGoogle
	case dataType == schema.Users && platform == schema.Apple:
		return p.UsersApple
	case dataType == schema.Users && platform == schema.Google:
		return p.UsersGoogle
	}
	return ""
}

// Extractor downloads the six raw exports and parses them into raw
// tables. Any file that is missing or unreadable fails the run: without
// all six inputs there is nothing meaningful to transform.
type Extractor struct {
	store     drive.Store
	rawFolder string
	mirrorDir string
	patterns  Patterns
	logger    *zap.Logger
}

// New creates an Extractor. mirrorDir, when non-empty, receives a local
// copy of every downloaded file; pass "" to skip mirroring.
func New(store drive.Store, rawFolder, mirrorDir string, patterns Patterns, logger *zap.Logger) *Extractor {
	return &Extractor{
		store:     store,
		rawFolder: rawFolder,
		mirrorDir: mirrorDir,
		patterns:  patterns,
		logger:    logger,
	}
}

// ExtractAll lists the raw folder and builds the full raw bundle.
func (e *Extractor) ExtractAll(ctx context.Context) (schema.RawBundle, error) {
	files, err := e.store.List(ctx, e.rawFolder)
	if err != nil {
		return nil, fmt.Errorf("listing raw folder: %w", err)
	}
	e.logger.Info("raw folder listed",
		zap.String("folder", e.rawFolder),
		zap.Int("files", len(files)))

	bundle := make(schema.RawBundle)
	for _, dataType := range schema.DataTypes() {
		var pair schema.RawPair
		for _, platform := range schema.Platforms() {
			table, err := e.extractOne(ctx, files, dataType, platform)
			if err != nil {
				return nil, err
			}
			switch platform {
			case schema.Apple:
				pair.Apple = table
			case schema.Google:
				pair.Google = table
			}
		}
		bundle[dataType] = pair
	}
	return bundle, nil
}

func (e *Extractor) extractOne(ctx context.Context, files []drive.FileInfo, dataType schema.DataType, platform schema.Platform) (schema.RawTable, error) {
	pattern := e.patterns.For(dataType, platform)
	name, err := findByPattern(files, pattern)
	if err != nil {
		return schema.RawTable{}, fmt.Errorf("%s/%s: %w", dataType, platform, err)
	}

	data, err := e.store.Download(ctx, filepath.Join(e.rawFolder, name))
	if err != nil {
		return schema.RawTable{}, fmt.Errorf("%s/%s: %w", dataType, platform, err)
	}
	if e.mirrorDir != "" {
		if err := e.mirror(name, data); err != nil {
			e.logger.Warn("raw mirror failed", zap.String("file", name), zap.Error(err))
		}
	}

	table, err := parseTable(name, data, platform)
	if err != nil {
		return schema.RawTable{}, fmt.Errorf("%s/%s: reading %s: %w", dataType, platform, name, err)
	}

	e.logger.Info("export extracted",
		zap.String("data_type", string(dataType)),
		zap.String("platform", string(platform)),
		zap.String("file", name),
		zap.Int("rows", len(table.Rows)))
	return table, nil
}

func (e *Extractor) mirror(name string, data []byte) error {
	if err := os.MkdirAll(e.mirrorDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(e.mirrorDir, name), data, 0644)
}

func findByPattern(files []drive.FileInfo, pattern string) (string, error) {
	if pattern == "" {
		return "", fmt.Errorf("no file pattern configured")
	}
	for _, f := range files {
		if strings.Contains(f.Name, pattern) {
			return f.Name, nil
		}
	}
	return "", fmt.Errorf("no file matching %q in raw folder", pattern)
}
