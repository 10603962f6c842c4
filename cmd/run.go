package cmd

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/enersim/enersim/comps/battery"
	"github.com/enersim/enersim/comps/building"
	"github.com/enersim/enersim/comps/ems"
	"github.com/enersim/enersim/comps/heatpump"
	"github.com/enersim/enersim/comps/loadprofile"
	"github.com/enersim/enersim/comps/pvsystem"
	"github.com/enersim/enersim/comps/storage"
	"github.com/enersim/enersim/comps/weather"
	"github.com/enersim/enersim/datarecording"
	"github.com/enersim/enersim/sim"
	"github.com/enersim/enersim/simulation"
)

var runFlags = struct {
	timesteps   int
	resolution  int
	output      string
	monitorPort int
	noMonitor   bool
	noCycling   bool
	clickHouse  bool
}{}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the example household simulation.",
	Long: `Run simulates one household with a heat pump, a hot water ` +
		`storage tank, a PV system, a battery, and an energy management ` +
		`system, and records the results into a SQLite file.`,
	Run: func(_ *cobra.Command, _ []string) {
		runHousehold()
	},
}

func init() {
	runCmd.Flags().IntVar(&runFlags.timesteps, "timesteps", 1440,
		"number of timesteps to simulate")
	runCmd.Flags().IntVar(&runFlags.resolution, "resolution", 60,
		"seconds per timestep")
	runCmd.Flags().StringVar(&runFlags.output, "output", "",
		"output file name, without extension")
	runCmd.Flags().IntVar(&runFlags.monitorPort, "monitor-port", 0,
		"port of the monitoring server, 0 picks a random port")
	runCmd.Flags().BoolVar(&runFlags.noMonitor, "no-monitor", false,
		"disable the monitoring server")
	runCmd.Flags().BoolVar(&runFlags.noCycling, "no-cycling", false,
		"disable the heat pump minimum running/idle time override")
	runCmd.Flags().BoolVar(&runFlags.clickHouse, "clickhouse", false,
		"record into the ClickHouse server configured through "+
			"ENERSIM_CLICKHOUSE_* instead of a SQLite file")

	rootCmd.AddCommand(runCmd)
}

func runHousehold() {
	params := sim.SimulationParameters{
		StartDate:          time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		SecondsPerTimestep: runFlags.resolution,
		TimestepCount:      runFlags.timesteps,
	}

	builder := simulation.MakeBuilder().
		WithParameters(params)

	if runFlags.clickHouse {
		if runFlags.output != "" {
			log.Fatal("--output and --clickhouse cannot be combined")
		}

		builder = builder.WithDataRecorder(clickHouseRecorder())
	} else {
		builder = builder.WithOutputFileName(runFlags.output)
	}

	if runFlags.noMonitor {
		builder = builder.WithoutMonitoring()
	} else if port := monitorPort(); port > 0 {
		builder = builder.WithMonitorPort(port)
	}

	s := builder.Build()
	defer s.Terminate()

	buildHousehold(s, params)

	if err := s.Run(); err != nil {
		log.Fatalf("simulation failed: %v", err)
	}

	log.Printf("run %s finished after %d timesteps", s.ID(), params.TimestepCount)
}

// buildHousehold assembles the example setup: the controller, the heat
// pump, and the storage tank form a cyclic thermal loop; PV, occupancy,
// and battery hang off the EMS.
func buildHousehold(s *simulation.Simulation, params sim.SimulationParameters) {
	weatherComp := weather.MakeBuilder().
		WithParameters(params).
		Build("Weather")

	occupancy := loadprofile.MakeBuilder().
		WithParameters(params).
		WithCacheDir(os.Getenv("ENERSIM_CACHE_DIR")).
		Build("Occupancy")

	buildingComp := building.MakeBuilder().Build("Building")
	buildingComp.ApplyDefaultConnections(
		buildingComp.DefaultConnections("Weather"))

	tank := storage.MakeBuilder().
		WithParameters(params).
		Build("HotWaterStorage")
	tank.ConnectInput(
		tank.GetInputByName(storage.ThermalPowerDelivered),
		"HeatPump", heatpump.ThermalOutputPower)
	tank.ConnectInput(
		tank.GetInputByName(storage.ThermalPowerConsumed),
		"Building", building.ThermalPowerDemand)

	controller := heatpump.MakeControllerBuilder().Build("HeatPumpController")
	controller.ApplyDefaultConnections(
		controller.DefaultConnections("HotWaterStorage", "Weather"))
	controller.ConnectInput(
		controller.GetInputByName(heatpump.HeatingFlowTemperature),
		"Building", building.HeatingFlowTemperature)

	hpBuilder := heatpump.MakeBuilder().WithParameters(params)
	if runFlags.noCycling {
		hpBuilder = hpBuilder.WithoutCycling()
	}
	hp := hpBuilder.Build("HeatPump")
	hp.ApplyDefaultConnections(hp.DefaultConnections(
		"HeatPumpController", "Weather", "HotWaterStorage"))

	pv := pvsystem.MakeBuilder().Build("PVSystem")
	pv.ApplyDefaultConnections(pv.DefaultConnections("Weather"))

	bat := battery.MakeBuilder().
		WithParameters(params).
		Build("Battery")

	emsComp := ems.MakeBuilder().
		WithProductionSources(pv).
		WithConsumptionSources(occupancy).
		WithBattery(bat, battery.AcBatteryPower).
		Build("EMS")

	bat.ConnectInput(
		bat.GetInputByName(battery.LoadingPowerInput),
		"EMS", emsComp.BatteryTarget(0).FieldName)

	s.AddComponent(weatherComp)
	s.AddComponent(occupancy)
	s.AddComponent(buildingComp)
	s.AddComponent(tank)
	s.AddComponent(controller)
	s.AddComponent(hp)
	s.AddComponent(pv)
	s.AddComponent(bat)
	s.AddComponent(emsComp)
}

// clickHouseRecorder builds a recorder from the ENERSIM_CLICKHOUSE_*
// environment, typically loaded from the .env file.
func clickHouseRecorder() datarecording.DataRecorder {
	host := os.Getenv("ENERSIM_CLICKHOUSE_HOST")
	if host == "" {
		host = "localhost"
	}

	port := 9000
	if env := os.Getenv("ENERSIM_CLICKHOUSE_PORT"); env != "" {
		p, err := strconv.Atoi(env)
		if err != nil {
			log.Fatalf("invalid ENERSIM_CLICKHOUSE_PORT %q", env)
		}
		port = p
	}

	database := os.Getenv("ENERSIM_CLICKHOUSE_DATABASE")
	if database == "" {
		database = "enersim"
	}

	return datarecording.NewClickHouseRecorder(
		host, port, database,
		os.Getenv("ENERSIM_CLICKHOUSE_USER"),
		os.Getenv("ENERSIM_CLICKHOUSE_PASSWORD"),
		0)
}

func monitorPort() int {
	if runFlags.monitorPort > 0 {
		return runFlags.monitorPort
	}

	if env := os.Getenv("ENERSIM_MONITOR_PORT"); env != "" {
		port, err := strconv.Atoi(env)
		if err != nil {
			log.Printf("ignoring invalid ENERSIM_MONITOR_PORT %q", env)
			return 0
		}

		return port
	}

	return 0
}
