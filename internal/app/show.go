package app

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"vehicle-health-monitor/internal/service"
	"vehicle-health-monitor/internal/storage"
)

// Show prints recorded sessions, or the frames of one session.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.requireStore(ctx, "show recordings")
	if err != nil {
		return err
	}
	defer closeStore()

	if opts.Session == "" {
		sessions, err := store.ListSessions(ctx, opts.Limit)
		if err != nil {
			return err
		}
		return writeSessions(a.Out, sessions)
	}

	frames, err := store.ListFrames(ctx, opts.Session, opts.Limit)
	if err != nil {
		return err
	}
	return writeFrames(a.Out, frames)
}

func writeSessions(out io.Writer, sessions []storage.SessionSummary) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(out, "no sessions recorded")
		return err
	}

	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Session\tFrames\tFirst (s)\tLast (s)\tRecorded (UTC)")
	for _, s := range sessions {
		fmt.Fprintf(writer, "%s\t%d\t%s\t%s\t%s\n",
			s.Session,
			s.Frames,
			service.Fixed(s.FirstTS, 1),
			service.Fixed(s.LastTS, 1),
			s.RecordedAt.UTC().Format(time.RFC3339),
		)
	}
	return writer.Flush()
}

func writeFrames(out io.Writer, frames []storage.FrameRecord) error {
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "t (s)\tSteer\tLonG\tLatG\tYaw\tFL\tFR\tRL\tRR\tMyu\tFluidLow\tPedal\tMC kPa\tWarn B/A/P")

	for _, f := range frames {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\t%t\t%s\t%s\n",
			service.Fixed(f.Timestamp, 1),
			service.Fixed(f.SteeringAngle, 2),
			service.Fixed(f.LonAccel, 3),
			service.Fixed(f.LatAccel, 3),
			service.Fixed(f.YawRate, 2),
			service.Fixed(f.WheelFL, 1),
			service.Fixed(f.WheelFR, 1),
			service.Fixed(f.WheelRL, 1),
			service.Fixed(f.WheelRR, 1),
			service.Fixed(f.Friction, 2),
			f.BrakeFluidLow,
			f.BrakePedal,
			service.Fixed(f.MasterCylinderKPa, 1),
			warnFlags(f.WarnBrake, f.WarnABS, f.WarnPuncture),
		)
	}

	return writer.Flush()
}

func warnFlags(flags ...bool) string {
	out := make([]byte, len(flags))
	for i, f := range flags {
		out[i] = '-'
		if f {
			out[i] = 'X'
		}
	}
	return string(out)
}
