package daemon

import (
	"context"
	"time"

	"github.com/NatureBlueee/EchoType/internal/ipc"
)

// Handler returns the IPC handler bridging control messages to the
// daemon's command channel.
func (d *Daemon) Handler() ipc.Handler {
	return ipc.HandlerFunc(d.handleIPC)
}

func (d *Daemon) handleIPC(ctx context.Context, msg *ipc.Message) (*ipc.Message, error) {
	reqID := msg.Header.RequestID

	switch msg.Header.Type {
	case ipc.MsgStatusRequest:
		status, err := d.Status(ctx)
		if err != nil {
			return ipc.NewErrorMessage(reqID, ipc.ErrInternalError, err.Error()), nil
		}
		return ipc.NewResponse(ipc.MsgStatusResponse, reqID, &ipc.StatusResponse{
			Version:       status.Version,
			StartedAt:     status.StartedAt,
			Uptime:        time.Since(status.StartedAt).Round(time.Second).String(),
			Paused:        status.Paused,
			JournalDir:    status.JournalDir,
			JournalFile:   status.JournalFile,
			Segment:       status.Segment,
			CaptureActive: status.CaptureActive,
			CaptureNote:   status.CaptureNote,
			DroppedEvents: status.DroppedEvents,
		})

	case ipc.MsgPause:
		return d.pauseResponse(ctx, reqID, d.Pause)

	case ipc.MsgResume:
		return d.pauseResponse(ctx, reqID, d.Resume)

	case ipc.MsgTogglePause:
		return d.pauseResponse(ctx, reqID, d.TogglePause)

	case ipc.MsgNewSegment:
		info, err := d.NewSegment(ctx)
		if err != nil {
			return ipc.NewErrorMessage(reqID, ipc.ErrInternalError, err.Error()), nil
		}
		return ipc.NewResponse(ipc.MsgNewSegmentResp, reqID, &ipc.NewSegmentResponse{
			Segment: info.Segment,
			Path:    info.Path,
		})

	case ipc.MsgOpenLogs:
		return ipc.NewResponse(ipc.MsgOpenLogsResp, reqID, &ipc.OpenLogsResponse{
			Dir: d.JournalDir(),
		})

	case ipc.MsgStatsRequest:
		var req ipc.StatsRequest
		if len(msg.Payload) > 0 {
			if err := ipc.Decode(msg.Payload, &req); err != nil {
				return ipc.NewErrorMessage(reqID, ipc.ErrInvalidRequest, "invalid stats request"), nil
			}
		}
		daily, err := d.RecentStats(ctx, req.Days)
		if err != nil {
			return ipc.NewErrorMessage(reqID, ipc.ErrNotAvailable, err.Error()), nil
		}
		resp := &ipc.StatsResponse{}
		for _, day := range daily {
			resp.Days = append(resp.Days, ipc.DailyStats{
				Day:        day.Day,
				Chars:      day.Chars,
				Enters:     day.Enters,
				Backspaces: day.Backspaces,
				Pastes:     day.Pastes,
				PasteChars: day.PasteChars,
				Segments:   day.Segments,
			})
		}
		return ipc.NewResponse(ipc.MsgStatsResponse, reqID, resp)

	case ipc.MsgAutostartSet:
		var req ipc.AutostartSetRequest
		if err := ipc.Decode(msg.Payload, &req); err != nil {
			return ipc.NewErrorMessage(reqID, ipc.ErrInvalidRequest, "invalid autostart request"), nil
		}
		enabled, err := d.SetAutostart(req.Enabled)
		resp := &ipc.AutostartResponse{Enabled: enabled}
		if err != nil {
			resp.Error = err.Error()
		}
		return ipc.NewResponse(ipc.MsgAutostartResp, reqID, resp)

	case ipc.MsgQuit:
		if err := d.Quit(ctx); err != nil {
			return ipc.NewErrorMessage(reqID, ipc.ErrInternalError, err.Error()), nil
		}
		return ipc.NewMessage(ipc.MsgAck, reqID, nil), nil

	default:
		return ipc.NewErrorMessage(reqID, ipc.ErrInvalidRequest, "unknown message type"), nil
	}
}

func (d *Daemon) pauseResponse(ctx context.Context, reqID uint32, op func(context.Context) (bool, error)) (*ipc.Message, error) {
	paused, err := op(ctx)
	if err != nil {
		return ipc.NewErrorMessage(reqID, ipc.ErrInternalError, err.Error()), nil
	}
	return ipc.NewResponse(ipc.MsgPauseStateResp, reqID, &ipc.PauseStateResponse{Paused: paused})
}
