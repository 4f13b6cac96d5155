package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"gonum.org/v1/gonum/floats"

	"eqsgrid/pkg/config"
	"eqsgrid/pkg/crossval"
	"eqsgrid/pkg/eqs"
	"eqsgrid/pkg/forward"
	"eqsgrid/pkg/kernel"
	"eqsgrid/pkg/layout"
	"eqsgrid/pkg/survey"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "eqsgrid.yaml", "Path to the YAML configuration file")
	runCV := flag.Bool("cv", false, "Select depth and damping by spatial cross-validation before fitting")
	modelPath := flag.String("save-model", "", "Save the fitted model to this YAML file")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Println("================================")
	fmt.Println("EQUIVALENT SOURCES GRIDDING OF SCATTERED POTENTIAL-FIELD DATA")
	fmt.Println("================================")

	// Build a synthetic scattered survey from a single buried point source
	// so the fit quality can be judged against known ground truth.
	obs, truth := syntheticSurvey(cfg)
	fmt.Printf("Synthetic survey: %d scattered points over [%g, %g] x [%g, %g] m\n",
		obs.Len(), cfg.Survey.West, cfg.Survey.East, cfg.Survey.South, cfg.Survey.North)
	fmt.Printf("True source at (%g, %g, %g), strength %g\n",
		truth.Easting, truth.Northing, truth.Upward, cfg.Survey.SourceStrength)

	gridder := eqs.Gridder{
		Kernel: kernel.Params{
			Field:       kernel.Field(cfg.Kernel.Field),
			Inclination: cfg.Kernel.Inclination,
			Declination: cfg.Kernel.Declination,
		},
		Layout: layout.Config{
			Policy:    layout.Policy(cfg.Layout.Policy),
			Depth:     cfg.Layout.Depth,
			BlockSize: cfg.Layout.BlockSize,
		},
		Damping: cfg.Solver.Damping,
	}

	// Optionally search the (depth, damping) grid by cross-validation
	if *runCV {
		candidates := make([]crossval.Candidate, 0, len(cfg.CrossVal.Depths)*len(cfg.CrossVal.Dampings))
		for _, depth := range cfg.CrossVal.Depths {
			for _, damping := range cfg.CrossVal.Dampings {
				candidates = append(candidates, crossval.Candidate{Depth: depth, Damping: damping})
			}
		}

		fmt.Printf("\nCross-validating %d candidates over %d spatial folds...\n",
			len(candidates), cfg.CrossVal.Folds)
		startCV := time.Now()
		result, err := crossval.Select(obs, gridder, candidates, crossval.Options{
			Folds:     cfg.CrossVal.Folds,
			BlockSize: cfg.CrossVal.BlockSize,
			Seed:      cfg.CrossVal.Seed,
			Workers:   cfg.CrossVal.Workers,
		})
		if err != nil {
			log.Fatalf("Cross-validation failed: %v", err)
		}

		fmt.Printf("Scored %d candidates in %.2f seconds:\n", len(result.Scores), time.Since(startCV).Seconds())
		for _, s := range result.Scores {
			if s.Err != nil {
				fmt.Printf("  depth=%-8g damping=%-10g FAILED: %v\n", s.Candidate.Depth, s.Candidate.Damping, s.Err)
				continue
			}
			fmt.Printf("  depth=%-8g damping=%-10g R2=%.6f\n", s.Candidate.Depth, s.Candidate.Damping, s.MeanR2)
		}
		fmt.Printf("Selected depth=%g damping=%g\n", result.Best.Depth, result.Best.Damping)

		gridder.Layout.Depth = result.Best.Depth
		gridder.Damping = result.Best.Damping
	}

	// Fit the equivalent sources model
	fmt.Println("\nFitting equivalent sources model...")
	startFit := time.Now()
	model, err := gridder.Fit(obs)
	if err != nil {
		log.Fatalf("Fit failed: %v", err)
	}

	fmt.Printf("Fit completed in %.2f seconds\n", time.Since(startFit).Seconds())
	fmt.Printf("\nFit diagnostics:\n")
	fmt.Printf("================\n")
	fmt.Printf("Sources:  %d\n", len(model.Sources))
	fmt.Printf("RMSE:     %.6g\n", model.Diagnostics.RMSE)
	fmt.Printf("R2:       %.6f\n", model.Diagnostics.R2)

	// Predict on the output grid
	targets, err := survey.RegularGrid(survey.Region{
		West:  cfg.Survey.West,
		East:  cfg.Survey.East,
		South: cfg.Survey.South,
		North: cfg.Survey.North,
	}, cfg.Grid.NEasting, cfg.Grid.NNorthing, cfg.Grid.Height)
	if err != nil {
		log.Fatalf("Failed to build prediction grid: %v", err)
	}

	gridded, err := model.Predict(targets, kernel.Derivative(cfg.Kernel.Derivative))
	if err != nil {
		log.Fatalf("Prediction failed: %v", err)
	}

	fmt.Printf("\nGridded field (%dx%d at height %g m, derivative %q):\n",
		cfg.Grid.NNorthing, cfg.Grid.NEasting, cfg.Grid.Height, cfg.Kernel.Derivative)
	fmt.Printf("  min=%.6g max=%.6g mean=%.6g\n",
		floats.Min(gridded), floats.Max(gridded), floats.Sum(gridded)/float64(len(gridded)))

	if *modelPath != "" {
		if err := model.Save(*modelPath); err != nil {
			log.Fatalf("Failed to save model: %v", err)
		}
		fmt.Printf("\nFitted model saved to: %s\n", *modelPath)
	}
}

// syntheticSurvey scatters observation points uniformly over the configured
// region and forward-models the field of a single point source below the
// region center, with optional gaussian noise.
func syntheticSurvey(cfg *config.Config) (*survey.Observations, survey.Point) {
	rng := rand.New(rand.NewSource(cfg.Survey.Seed))

	points := make([]survey.Point, cfg.Survey.Points)
	for i := range points {
		points[i] = survey.Point{
			Easting:  cfg.Survey.West + rng.Float64()*(cfg.Survey.East-cfg.Survey.West),
			Northing: cfg.Survey.South + rng.Float64()*(cfg.Survey.North-cfg.Survey.South),
			Upward:   cfg.Survey.Height,
		}
	}

	source := survey.Point{
		Easting:  0.5 * (cfg.Survey.West + cfg.Survey.East),
		Northing: 0.5 * (cfg.Survey.South + cfg.Survey.North),
		Upward:   cfg.Survey.Height - cfg.Survey.SourceDepth,
	}

	values, err := forward.PointSourceField(
		[]survey.Point{source},
		[]float64{cfg.Survey.SourceStrength},
		points,
		kernel.Params{
			Field:       kernel.Field(cfg.Kernel.Field),
			Inclination: cfg.Kernel.Inclination,
			Declination: cfg.Kernel.Declination,
		},
	)
	if err != nil {
		log.Fatalf("Forward modeling failed: %v", err)
	}

	for i := range values {
		values[i] += rng.NormFloat64() * cfg.Survey.NoiseStdDev
	}

	return &survey.Observations{Points: points, Values: values}, source
}
