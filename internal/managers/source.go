package managers

import (
	"fmt"
	"io"

	"github.com/chrissnell/flowstats/internal/flowstats"
	"github.com/chrissnell/flowstats/internal/source"
	"github.com/chrissnell/flowstats/internal/source/csvfile"
	"github.com/chrissnell/flowstats/internal/source/hydat"
	"github.com/chrissnell/flowstats/internal/source/timescaledb"
	"github.com/chrissnell/flowstats/pkg/config"
	"go.uber.org/zap"
)

// NewSourceRegistry opens every configured source and returns a registry routing
// stations to them. The first HYDAT source, if any, serves stations that are not
// listed in the configuration.
func NewSourceRegistry(configProvider config.ConfigProvider, logger *zap.SugaredLogger) (*source.Registry, error) {
	sources, err := configProvider.GetSources()
	if err != nil {
		return nil, fmt.Errorf("error loading sources: %w", err)
	}
	stations, err := configProvider.GetStations()
	if err != nil {
		return nil, fmt.Errorf("error loading stations: %w", err)
	}

	fetchers := make(map[string]flowstats.Fetcher, len(sources))
	defaultSource := ""
	for _, s := range sources {
		f, err := AddSource(s, logger)
		if err != nil {
			closeAll(fetchers)
			return nil, fmt.Errorf("could not add %s source %q: %w", s.Type, s.Name, err)
		}
		fetchers[s.Name] = f
		if s.Type == config.SourceTypeHYDAT && defaultSource == "" {
			defaultSource = s.Name
		}
		logger.Infof("added %s source %q", s.Type, s.Name)
	}

	return source.NewRegistry(fetchers, stations, defaultSource, logger), nil
}

// AddSource constructs the fetcher for one configured source
func AddSource(s config.SourceData, logger *zap.SugaredLogger) (flowstats.Fetcher, error) {
	named := logger.Named(s.Name)
	switch s.Type {
	case config.SourceTypeHYDAT:
		return hydat.Open(s.Path, named)
	case config.SourceTypeTimescaleDB:
		return timescaledb.New(s.ConnectionString, named)
	case config.SourceTypeCSV:
		return csvfile.New(s.Path, named), nil
	default:
		return nil, fmt.Errorf("unsupported source type %q", s.Type)
	}
}

func closeAll(fetchers map[string]flowstats.Fetcher) {
	for _, f := range fetchers {
		if c, ok := f.(io.Closer); ok {
			c.Close()
		}
	}
}
