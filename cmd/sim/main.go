// Package main runs Urban Void matches headless at full speed and prints the
// standings. Useful for tuning the city layout and the bots.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"urban-void/internal/config"
	"urban-void/internal/game"
	"urban-void/internal/render"
)

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = use defaults)")
	seed := flag.Int64("seed", 1, "Base seed, match i uses seed+i")
	matches := flag.Int("matches", 1, "Number of matches to run")
	duration := flag.Int("duration", 0, "Match length in seconds (0 = config value)")
	autopilot := flag.Bool("autopilot", true, "Steer the player toward the nearest swallowable object")
	journal := flag.String("journal", "", "Write the event journal to this JSONL file")
	resultPath := flag.String("result", "", "Write the last match result as JSON to this file")
	minimapPath := flag.String("minimap", "", "Write a PNG of the final arena to this file")
	flag.Parse()

	appConfig := config.Default()
	if *configPath != "" {
		if err := config.LoadFile(*configPath, &appConfig); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	appConfig.ApplyEnv()
	if *duration > 0 {
		appConfig.Match.Duration = *duration
	}
	if err := appConfig.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	eventLog := game.NewEventLog(appConfig.Journal.MaxEventsPerSec)
	if err := eventLog.Start(*journal); err != nil {
		log.Fatalf("failed to open journal: %v", err)
	}
	defer eventLog.Stop()

	tickRate := appConfig.Simulation.TickRate
	wins := 0
	var engine *game.Engine
	start := time.Now()

	for i := 0; i < *matches; i++ {
		cfg := appConfig.EngineConfig()
		cfg.Seed = *seed + int64(i)
		engine = game.NewEngine(cfg)
		engine.SetEventLog(eventLog)

		result := runMatch(engine, tickRate, *autopilot)
		if result.PlayerWon {
			wins++
		}
		printStandings(os.Stdout, i+1, cfg.Seed, result)
	}

	fmt.Printf("\n%d match(es) in %s, player won %d\n", *matches, time.Since(start).Round(time.Millisecond), wins)

	if engine == nil {
		return
	}
	if *resultPath != "" {
		if err := writeResult(*resultPath, engine); err != nil {
			log.Fatalf("failed to write result: %v", err)
		}
	}
	if *minimapPath != "" {
		if err := writeMinimap(*minimapPath, engine, appConfig.Server.MinimapSize); err != nil {
			log.Fatalf("failed to write minimap: %v", err)
		}
	}
}

// runMatch plays one match to GAME_OVER with a fixed time step
func runMatch(engine *game.Engine, tickRate int, autopilot bool) game.MatchResult {
	if !engine.Start() {
		log.Fatal("engine refused to start")
	}

	dt := 1.0 / float64(tickRate)
	for {
		for t := 0; t < tickRate; t++ {
			if autopilot && t%10 == 0 {
				steer(engine)
			}
			engine.Tick(dt)
		}
		if engine.DecrementClock() {
			break
		}
	}

	result, _ := engine.Result()
	return result
}

// steer aims the player at the closest object it is big enough to swallow
func steer(engine *game.Engine) {
	focus, ok := engine.PlayerFocus()
	if !ok {
		return
	}
	pos := r2.Vec{X: focus.X, Y: focus.Z}

	best := math.Inf(1)
	var target r2.Vec
	for _, c := range engine.ActiveConsumables() {
		if focus.Radius <= c.Size*game.ConsumeMarginFactor {
			continue
		}
		if d := r2.Norm(r2.Sub(c.Pos(), pos)); d < best {
			best = d
			target = c.Pos()
		}
	}

	if math.IsInf(best, 1) {
		engine.ClearPlayerAim()
		return
	}
	engine.SetPlayerAimPoint(target)
}

func printStandings(w *os.File, n int, seed int64, result game.MatchResult) {
	fmt.Fprintf(w, "\nMatch %d (seed %d, %s)\n", n, seed, result.MatchID)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tSCORE\tROLE")
	for _, s := range result.Standings {
		role := game.RoleAutonomous.String()
		if s.IsPlayer {
			role = game.RolePlayer.String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", s.Rank, s.Name, s.Score, role)
	}
	tw.Flush()
}

func writeResult(path string, engine *game.Engine) error {
	result, ok := engine.Result()
	if !ok {
		return fmt.Errorf("no finished match")
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeMinimap(path string, engine *game.Engine, size int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	views := engine.ObservableState()
	frame := render.Frame{Consumables: engine.ActiveConsumables()}
	for _, v := range views {
		frame.Voids = append(frame.Voids, v)
	}
	return render.NewMinimap(size, engine.Boundary()).EncodePNG(f, frame)
}
