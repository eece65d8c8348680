package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Log            LogConfig            `mapstructure:"log"`
	Physics        PhysicsConfig        `mapstructure:"physics"`
	Response       ResponseConfig       `mapstructure:"response"`
	Vehicle        VehicleConfig        `mapstructure:"vehicle"`
	Scene          SceneConfig          `mapstructure:"scene"`
	Classification ClassificationConfig `mapstructure:"classification"`
	Server         ServerConfig         `mapstructure:"server"`
	Journal        JournalConfig        `mapstructure:"journal"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type PhysicsConfig struct {
	Gravity   []float64 `mapstructure:"gravity"`
	Timestep  float64   `mapstructure:"timestep"`
	Substeps  int       `mapstructure:"substeps"`
	Workers   int       `mapstructure:"workers"`
	CellSize  float64   `mapstructure:"cellSize"`
	GridCells int       `mapstructure:"gridCells"`
}

// ResponseConfig tunes the reaction to vehicle collisions
type ResponseConfig struct {
	ImpactThreshold float64 `mapstructure:"impactThreshold"`
	BounceStrength  float64 `mapstructure:"bounceStrength"`
	NudgeFactor     float64 `mapstructure:"nudgeFactor"`
	GroundName      string  `mapstructure:"groundName"`
}

type VehicleConfig struct {
	Model   string `mapstructure:"model"`
	Color   string `mapstructure:"color"`
	Texture string `mapstructure:"texture"`

	Spawn          []float64 `mapstructure:"spawn"`
	HalfExtents    []float64 `mapstructure:"halfExtents"`
	Friction       float64   `mapstructure:"friction"`
	Restitution    float64   `mapstructure:"restitution"`
	LinearDamping  float64   `mapstructure:"linearDamping"`
	AngularDamping float64   `mapstructure:"angularDamping"`
	GravityScale   float64   `mapstructure:"gravityScale"`
	CCD            bool      `mapstructure:"ccd"`

	Speed         float64 `mapstructure:"speed"`
	RotationSpeed float64 `mapstructure:"rotationSpeed"`
	Boost         float64 `mapstructure:"boost"`
	ReverseFactor float64 `mapstructure:"reverseFactor"`
	RollingDecay  float64 `mapstructure:"rollingDecay"`
	MaxSteerAngle float64 `mapstructure:"maxSteerAngle"`
	SteerLerp     float64 `mapstructure:"steerLerp"`
	WheelFactor   float64 `mapstructure:"wheelFactor"`
}

type SceneConfig struct {
	Farm      string            `mapstructure:"farm"`
	Offset    []float64         `mapstructure:"offset"`
	Models    map[string]string `mapstructure:"models"`
	TestProps bool              `mapstructure:"testProps"`
}

// ModelPath returns the scene document of a vehicle model. Lookups ignore
// case since viper lowercases map keys.
func (c SceneConfig) ModelPath(model string) (string, bool) {
	for name, path := range c.Models {
		if strings.EqualFold(name, model) {
			return path, true
		}
	}
	return "", false
}

// ClassificationConfig holds the scene node name tables
type ClassificationConfig struct {
	Trimesh       []string `mapstructure:"trimesh"`
	Fallable      []string `mapstructure:"fallable"`
	StaticFeature []string `mapstructure:"staticFeature"`
	Skip          []string `mapstructure:"skip"`
}

type ServerConfig struct {
	Addr          string `mapstructure:"addr"`
	SnapshotEvery int    `mapstructure:"snapshotEvery"`
}

type JournalConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load reads the configuration file at path over the defaults. An empty path
// keeps the defaults; FARMTRUCK_* environment variables override both.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FARMTRUCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given
func Default() Config {
	cfg, err := Load("")
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("physics.gravity", []float64{0, -9.82, 0})
	v.SetDefault("physics.timestep", 1.0/60.0)
	v.SetDefault("physics.substeps", 4)
	v.SetDefault("physics.workers", 1)
	v.SetDefault("physics.cellSize", 4.0)
	v.SetDefault("physics.gridCells", 4096)

	v.SetDefault("response.impactThreshold", 5.0)
	v.SetDefault("response.bounceStrength", 10.0)
	v.SetDefault("response.nudgeFactor", 0.1)
	v.SetDefault("response.groundName", "plane")

	v.SetDefault("vehicle.model", "Truck")
	v.SetDefault("vehicle.color", "#ff69b4")
	v.SetDefault("vehicle.texture", "")
	v.SetDefault("vehicle.spawn", []float64{0, 5, 0})
	v.SetDefault("vehicle.halfExtents", []float64{1.2, 0.8, 2.5})
	v.SetDefault("vehicle.friction", 1.0)
	v.SetDefault("vehicle.restitution", 0.05)
	v.SetDefault("vehicle.linearDamping", 0.5)
	v.SetDefault("vehicle.angularDamping", 1.5)
	v.SetDefault("vehicle.gravityScale", 3.0)
	v.SetDefault("vehicle.ccd", true)
	v.SetDefault("vehicle.speed", 15.0)
	v.SetDefault("vehicle.rotationSpeed", 2.0)
	v.SetDefault("vehicle.boost", 1.5)
	v.SetDefault("vehicle.reverseFactor", 0.5)
	v.SetDefault("vehicle.rollingDecay", 0.9)
	v.SetDefault("vehicle.maxSteerAngle", math.Pi/6)
	v.SetDefault("vehicle.steerLerp", 0.1)
	v.SetDefault("vehicle.wheelFactor", 0.5)

	v.SetDefault("scene.farm", "assets/farm.yaml")
	v.SetDefault("scene.offset", []float64{0, 1, 0})
	v.SetDefault("scene.models", map[string]string{
		"Truck":   "assets/truck.yaml",
		"Tractor": "assets/tractor.yaml",
	})
	v.SetDefault("scene.testProps", true)

	v.SetDefault("classification.trimesh", TrimeshNames)
	v.SetDefault("classification.fallable", FallableNames)
	v.SetDefault("classification.staticFeature", StaticFeatureNames)
	v.SetDefault("classification.skip", SkipNames)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.snapshotEvery", 2)

	v.SetDefault("journal.dir", "")
}
