package store

import (
	"encoding/json"
	"io"

	"github.com/san-kum/orbitprop/internal/dynamo"
)

type ExportSample struct {
	Time     float64    `json:"t"`
	Position [3]float64 `json:"position"`
	Velocity [3]float64 `json:"velocity"`
}

type ExportData struct {
	Name      string             `json:"name"`
	StartTime float64            `json:"start_time"`
	StopTime  float64            `json:"stop_time"`
	Settings  *dynamo.Settings   `json:"settings,omitempty"`
	Steps     int                `json:"steps"`
	Samples   []ExportSample     `json:"samples"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// NewExportData collects a run into its JSON form.
func NewExportData(cfg dynamo.Config, settings *dynamo.Settings, traj *dynamo.Trajectory, metrics map[string]float64) ExportData {
	data := ExportData{
		Name:      cfg.Name,
		StartTime: cfg.StartTime,
		StopTime:  cfg.StopTime,
		Settings:  settings,
		Steps:     traj.Len() - 1,
		Samples:   make([]ExportSample, traj.Len()),
		Metrics:   metrics,
	}
	for i, s := range traj.Samples {
		p, v := s.State.Position, s.State.Velocity
		data.Samples[i] = ExportSample{
			Time:     s.Time,
			Position: [3]float64{p.X, p.Y, p.Z},
			Velocity: [3]float64{v.X, v.Y, v.Z},
		}
	}
	return data
}

func ExportJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
