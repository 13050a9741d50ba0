package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"

	"vehicle-health-monitor/internal/monitor"
	"vehicle-health-monitor/internal/scheduler"
	"vehicle-health-monitor/internal/service"
)

// Export runs the configured source through every enabled monitor on the
// virtual clock and renders the per-tick results as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	reports, err := a.collectReports(ctx)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		a.Logger.Info().Msg("no ticks produced for export")
		return nil
	}

	downsampled := downsampleReports(reports, opts.MaxPoints)
	a.Logger.Info().Int("total", len(reports)).Int("exported", len(downsampled)).Msg("exporting reports")

	if opts.CSVPath != "" {
		if err := writeReportsCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeReportsPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func (a *App) collectReports(ctx context.Context) ([]monitor.Report, error) {
	source, err := a.newSource(ctx)
	if err != nil {
		return nil, err
	}
	session, err := a.newSession()
	if err != nil {
		return nil, err
	}
	sched, err := scheduler.New(scheduler.Options{
		Interval: a.Config.Simulation.SampleInterval,
		Duration: a.Config.Simulation.Duration,
	}, a.Logger)
	if err != nil {
		return nil, err
	}

	var reports []monitor.Report
	svc := service.New(sched, source, session, nil, a.Logger,
		service.WithReportHook(func(r monitor.Report) { reports = append(reports, r) }))
	if err := svc.Run(ctx); err != nil {
		return nil, err
	}
	return reports, nil
}

func downsampleReports(reports []monitor.Report, max int) []monitor.Report {
	if max <= 0 || len(reports) <= max {
		return reports
	}
	if max == 1 {
		return reports[:1]
	}

	result := make([]monitor.Report, 0, max)
	step := float64(len(reports)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(reports) {
			idx = len(reports) - 1
		}
		result = append(result, reports[idx])
	}
	return result
}

var csvHeader = []string{
	"ts",
	"braking_level", "braking_description",
	"alertness_score", "alertness_level", "alertness_description",
	"stability_level", "stability_description",
	"speed_kmh", "str_angle", "lon_g", "lat_g", "yaw_rate", "myu", "mc_pressure_kpa",
}

func writeReportsCSV(path string, reports []monitor.Report) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range reports {
		record := make([]string, 0, len(csvHeader))
		record = append(record, service.Fixed(r.Timestamp, 3))

		if b := r.Braking; b != nil {
			record = append(record, b.Level.String(), b.Description)
		} else {
			record = append(record, "", "")
		}
		if al := r.Alertness; al != nil {
			record = append(record, strconv.Itoa(al.Score), al.Level.String(), al.Description)
		} else {
			record = append(record, "", "", "")
		}
		if s := r.Stability; s != nil {
			record = append(record, s.Level.String(), s.Description)
		} else {
			record = append(record, "", "")
		}

		f := r.Frame
		record = append(record,
			service.Fixed(monitor.DeriveStability(f).VehicleSpeed, 2),
			service.Fixed(f.SteeringAngle, 3),
			service.Fixed(f.LonAccel, 3),
			service.Fixed(f.LatAccel, 3),
			service.Fixed(f.YawRate, 3),
			service.Fixed(f.Friction, 3),
			service.Fixed(f.MasterCylinderKPa, 1),
		)
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeReportsPNG(path string, reports []monitor.Report) error {
	if len(reports) < 2 {
		return errors.New("png export needs at least two ticks")
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]float64, len(reports))
	levels := map[monitor.Kind][]float64{}
	score := make([]float64, 0, len(reports))
	maxScore := 1.0

	for i, r := range reports {
		x[i] = r.Timestamp
		for _, s := range r.Summaries() {
			levels[s.Monitor] = append(levels[s.Monitor], float64(s.Level))
		}
		if r.Alertness != nil {
			score = append(score, float64(r.Alertness.Score))
			maxScore = math.Max(maxScore, float64(r.Alertness.Score))
		}
	}

	var series []chart.Series
	for _, kind := range monitor.AllKinds {
		ys, ok := levels[kind]
		if !ok {
			continue
		}
		series = append(series, chart.ContinuousSeries{
			Name:    string(kind) + " level",
			XValues: x,
			YValues: ys,
		})
	}
	if len(score) == len(x) {
		series = append(series, chart.ContinuousSeries{
			Name:    "alertness score",
			XValues: x,
			YValues: score,
			YAxis:   chart.YAxisSecondary,
		})
	}

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			Name: "Time (s)",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		YAxis: chart.YAxis{
			Name:  "Level",
			Range: &chart.ContinuousRange{Min: 0, Max: 3},
			Ticks: []chart.Tick{
				{Value: 0, Label: "None"},
				{Value: 1, Label: "Low"},
				{Value: 2, Label: "Moderate"},
				{Value: 3, Label: "High"},
			},
		},
		YAxisSecondary: chart.YAxis{
			Name:  "Score",
			Range: &chart.ContinuousRange{Min: 0, Max: maxScore},
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
