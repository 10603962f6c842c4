// Package loadprofile provides household occupancy load profiles. The
// per-timestep electricity and hot-water draw series are produced by a pure
// profile function and cached on disk, keyed by a fingerprint of the
// requesting configuration, so that repeated runs of the same setup do not
// regenerate them.
package loadprofile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/enersim/enersim/sim"
)

// Output field names of the load profile component.
const (
	ElectricityOutput = "ElectricityOutput"
	WaterConsumption  = "WaterConsumption"
)

// profileConfig is the part of the configuration that determines the
// generated series. It is the cache fingerprint input.
type profileConfig struct {
	SecondsPerTimestep int     `json:"seconds_per_timestep"`
	TimestepCount      int     `json:"timestep_count"`
	Residents          int     `json:"residents"`
	BaseLoadWatt       float64 `json:"base_load_watt"`
}

type cachedProfile struct {
	Electricity []float64 `json:"electricity"`
	Water       []float64 `json:"water"`
}

// A Comp replays a pre-generated household load profile.
type Comp struct {
	*sim.ComponentBase

	electricity []float64
	water       []float64

	electricityOut *sim.Output
	waterOut       *sim.Output
}

// Builder builds a load profile component.
type Builder struct {
	params       sim.SimulationParameters
	residents    int
	baseLoadWatt float64
	cacheDir     string
}

// MakeBuilder returns a new Builder describing a three-person household.
func MakeBuilder() Builder {
	return Builder{
		residents:    3,
		baseLoadWatt: 60,
	}
}

// WithParameters sets the time discretization of the run.
func (b Builder) WithParameters(p sim.SimulationParameters) Builder {
	b.params = p
	return b
}

// WithResidents sets the number of residents of the household.
func (b Builder) WithResidents(n int) Builder {
	b.residents = n
	return b
}

// WithBaseLoad sets the always-on standby load in W.
func (b Builder) WithBaseLoad(watt float64) Builder {
	b.baseLoadWatt = watt
	return b
}

// WithCacheDir enables the on-disk profile cache in the given directory.
func (b Builder) WithCacheDir(dir string) Builder {
	b.cacheDir = dir
	return b
}

// Build generates or loads the profile and builds the component.
func (b Builder) Build(name string) *Comp {
	if b.params.SecondsPerTimestep <= 0 || b.params.TimestepCount <= 0 {
		panic("load profile component requires simulation parameters")
	}

	if b.residents < 1 {
		panic("load profile household must have at least one resident")
	}

	config := profileConfig{
		SecondsPerTimestep: b.params.SecondsPerTimestep,
		TimestepCount:      b.params.TimestepCount,
		Residents:          b.residents,
		BaseLoadWatt:       b.baseLoadWatt,
	}

	profile := b.loadOrGenerate(config)

	c := &Comp{
		ComponentBase: sim.NewComponentBase(name),
		electricity:   profile.Electricity,
		water:         profile.Water,
	}

	c.electricityOut = c.DeclareOutput(ElectricityOutput,
		sim.LoadTypeElectricity, sim.UnitWatt,
		"household electricity consumption")
	c.waterOut = c.DeclareOutput(WaterConsumption,
		sim.LoadTypeWarmWater, sim.UnitLiter,
		"hot water draw of the household")

	return c
}

func (b Builder) loadOrGenerate(config profileConfig) cachedProfile {
	if b.cacheDir == "" {
		return generateProfile(config)
	}

	path := filepath.Join(b.cacheDir, cacheFileName(config))

	if profile, ok := readCache(path); ok {
		log.Printf("load profile taken from cache %s", path)
		return profile
	}

	profile := generateProfile(config)
	writeCache(path, profile)

	return profile
}

// cacheFileName fingerprints the configuration so that any change in the
// profile request results in a fresh cache entry.
func cacheFileName(config profileConfig) string {
	encoded, err := json.Marshal(config)
	if err != nil {
		panic(err)
	}

	sum := sha256.Sum256(encoded)

	return "loadprofile_" + hex.EncodeToString(sum[:]) + ".json"
}

func readCache(path string) (cachedProfile, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return cachedProfile{}, false
	}

	var profile cachedProfile
	if err := json.Unmarshal(content, &profile); err != nil {
		log.Printf("ignoring unreadable profile cache %s: %v", path, err)
		return cachedProfile{}, false
	}

	return profile, true
}

func writeCache(path string, profile cachedProfile) {
	encoded, err := json.Marshal(profile)
	if err != nil {
		panic(err)
	}

	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		log.Printf("cannot write profile cache %s: %v", path, err)
	}
}

// generateProfile is the pure profile function. Electricity follows a
// double-peaked daily shape (morning and evening) on top of the base load;
// hot water is drawn around the morning peak.
func generateProfile(config profileConfig) cachedProfile {
	electricity := make([]float64, config.TimestepCount)
	water := make([]float64, config.TimestepCount)

	perResident := 110.0

	for t := 0; t < config.TimestepCount; t++ {
		secondsIntoDay := (t * config.SecondsPerTimestep) % 86400
		hour := float64(secondsIntoDay) / 3600

		morning := peak(hour, 7, 1.5)
		evening := peak(hour, 19, 2.5)

		electricity[t] = config.BaseLoadWatt +
			float64(config.Residents)*perResident*(morning+evening)

		litersPerHour := 4.0 * float64(config.Residents) * morning
		water[t] = litersPerHour *
			float64(config.SecondsPerTimestep) / 3600
	}

	return cachedProfile{Electricity: electricity, Water: water}
}

func peak(hour, center, width float64) float64 {
	d := hour - center
	return math.Exp(-d * d / (2 * width * width))
}

// PrepareSimulation implements sim.Component.
func (c *Comp) PrepareSimulation() {}

// Simulate replays the pre-generated series.
func (c *Comp) Simulate(
	timestep int,
	values *sim.SingleTimeStepValues,
	_ bool,
) error {
	if timestep < 0 || timestep >= len(c.electricity) {
		return fmt.Errorf(
			"timestep %d outside the generated profile of length %d",
			timestep, len(c.electricity))
	}

	values.SetOutputValue(c.electricityOut, c.electricity[timestep])
	values.SetOutputValue(c.waterOut, c.water[timestep])

	return nil
}

// SaveState implements sim.Component. The profile is immutable.
func (c *Comp) SaveState() {}

// RestoreState implements sim.Component. The profile is immutable.
func (c *Comp) RestoreState() {}

// DoubleCheck implements sim.Component.
func (c *Comp) DoubleCheck(int, *sim.SingleTimeStepValues) error {
	return nil
}
