package weight

import (
	"errors"
	"fmt"
	"math"
	"os"

	"lintang/floodnav/pkg/datastructure"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidWeather     = errors.New("weight: unknown weather condition")
	ErrInvalidCoefficient = errors.New("weight: coefficient must be positive")
)

// Config coefficient tables. Semua class yang tidak ada di tabel weather pakai 1.0.
type Config struct {
	ClassCoefficients  map[string]float64            `yaml:"class_coefficients"`
	DefaultCoefficient float64                       `yaml:"default_coefficient"`
	Weather            map[string]map[string]float64 `yaml:"weather"`
}

func DefaultConfig() Config {
	return Config{
		ClassCoefficients: map[string]float64{
			"motorway":       0.8,
			"trunk":          0.85,
			"primary":        0.9,
			"secondary":      1.0,
			"tertiary":       1.1,
			"residential":    1.2,
			"motorway_link":  0.85,
			"trunk_link":     0.9,
			"primary_link":   0.95,
			"secondary_link": 1.05,
			"tertiary_link":  1.15,
			"unclassified":   1.2,
			"living_street":  1.3,
			"service":        1.5,
		},
		DefaultCoefficient: 1.2,
		Weather: map[string]map[string]float64{
			string(datastructure.WeatherNormal): {},
			string(datastructure.WeatherRain): {
				"secondary": 1.5,
				"tertiary":  2.0,
			},
			string(datastructure.WeatherFlood): {
				"secondary": 2.0,
				"tertiary":  3.0,
			},
		},
	}
}

// LoadConfig reads a YAML override file on top of DefaultConfig. Keys absent from the file keep
// their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	bb, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read weight config %s: %w", path, err)
	}
	var override Config
	if err := yaml.Unmarshal(bb, &override); err != nil {
		return cfg, fmt.Errorf("parse weight config %s: %w", path, err)
	}
	for class, c := range override.ClassCoefficients {
		cfg.ClassCoefficients[class] = c
	}
	if override.DefaultCoefficient != 0 {
		cfg.DefaultCoefficient = override.DefaultCoefficient
	}
	for w, table := range override.Weather {
		if _, ok := cfg.Weather[w]; !ok {
			cfg.Weather[w] = map[string]float64{}
		}
		for class, c := range table {
			cfg.Weather[w][class] = c
		}
	}
	return cfg, nil
}

type Model struct {
	classCoef   map[string]float64
	defaultCoef float64
	weatherCoef map[datastructure.Weather]map[string]float64
	minCoef     float64
}

func NewModel(cfg Config) (*Model, error) {
	m := &Model{
		classCoef:   make(map[string]float64, len(cfg.ClassCoefficients)),
		defaultCoef: cfg.DefaultCoefficient,
		weatherCoef: make(map[datastructure.Weather]map[string]float64, len(cfg.Weather)),
	}
	if m.defaultCoef <= 0 {
		return nil, fmt.Errorf("%w: default %v", ErrInvalidCoefficient, m.defaultCoef)
	}
	for class, c := range cfg.ClassCoefficients {
		if c <= 0 {
			return nil, fmt.Errorf("%w: %s=%v", ErrInvalidCoefficient, class, c)
		}
		m.classCoef[class] = c
	}
	for w, table := range cfg.Weather {
		weather := datastructure.Weather(w)
		if !weather.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWeather, w)
		}
		m.weatherCoef[weather] = make(map[string]float64, len(table))
		for class, c := range table {
			if c <= 0 {
				return nil, fmt.Errorf("%w: %s/%s=%v", ErrInvalidCoefficient, w, class, c)
			}
			m.weatherCoef[weather][class] = c
		}
	}
	m.minCoef = m.computeMinCoefficient()
	return m, nil
}

func NewDefaultModel() *Model {
	m, _ := NewModel(DefaultConfig())
	return m
}

func (m *Model) ClassCoefficient(class string) float64 {
	if c, ok := m.classCoef[class]; ok {
		return c
	}
	return m.defaultCoef
}

func (m *Model) WeatherCoefficient(class string, w datastructure.Weather) float64 {
	if c, ok := m.weatherCoef[w][class]; ok {
		return c
	}
	return 1.0
}

// Cost = length × class coefficient × weather coefficient × penalty.
func (m *Model) Cost(e *datastructure.Edge, key datastructure.ArcKey, w datastructure.Weather,
	penalties datastructure.PenaltyMap) float64 {
	penalty := penalties.Get(key, 1.0)
	if penalty < 1.0 {
		// penalty < 1 bikin heuristic tidak admissible
		penalty = 1.0
	}
	return e.Length * m.ClassCoefficient(e.RoadClass) * m.WeatherCoefficient(e.RoadClass, w) * penalty
}

// MinCoefficient smallest class×weather product over every table in the model. Heuristic A*
// dikali nilai ini supaya tidak overestimate di weather apapun.
func (m *Model) MinCoefficient() float64 {
	return m.minCoef
}

func (m *Model) computeMinCoefficient() float64 {
	minWeather := func(class string) float64 {
		min := 1.0
		for _, table := range m.weatherCoef {
			if c, ok := table[class]; ok && c < min {
				min = c
			}
		}
		return min
	}

	min := m.defaultCoef * minWeather("")
	for class, c := range m.classCoef {
		min = math.Min(min, c*minWeather(class))
	}
	// class yang cuma ada di tabel weather pakai default coefficient
	for _, table := range m.weatherCoef {
		for class := range table {
			if _, ok := m.classCoef[class]; !ok {
				min = math.Min(min, m.defaultCoef*minWeather(class))
			}
		}
	}
	return min
}
